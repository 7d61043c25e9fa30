// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_tap

import (
	"sync"

	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/commons"
)

// CallbackFunc is a host consumer. Its errors are discarded.
type CallbackFunc func(samples []float32) error

// CallbackDelivery invokes a host callback off the capture thread. Chunks are
// queued to a single dispatcher goroutine so the callback sees them in order;
// when the queue is full the chunk is dropped.
type CallbackDelivery struct {
	logger commons.Logger
	fn     CallbackFunc

	mu     sync.RWMutex
	closed bool
	queue  chan []float32
	done   chan struct{}
}

var _ internal_type.AudioDelivery = (*CallbackDelivery)(nil)

// NewCallbackDelivery starts the dispatcher. Call Close to stop it.
func NewCallbackDelivery(logger commons.Logger, queueSize int, fn CallbackFunc) *CallbackDelivery {
	if queueSize < 1 {
		queueSize = 1
	}
	d := &CallbackDelivery{
		logger: logger,
		fn:     fn,
		queue:  make(chan []float32, queueSize),
		done:   make(chan struct{}),
	}
	go d.dispatch()
	return d
}

func (d *CallbackDelivery) Deliver(samples []float32) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- samples:
	default:
	}
}

func (d *CallbackDelivery) dispatch() {
	defer close(d.done)
	for samples := range d.queue {
		d.invoke(samples)
	}
}

func (d *CallbackDelivery) invoke(samples []float32) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warnw("Audio callback panicked", "panic", r)
		}
	}()
	_ = d.fn(samples)
}

// Close stops accepting chunks and waits for queued ones to be dispatched.
func (d *CallbackDelivery) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}
