// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_tap

import (
	"sync"
	"sync/atomic"

	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/commons"
)

// ChannelDelivery hands chunks to an in-process consumer over a bounded
// channel. A full channel drops the chunk instead of blocking capture.
//
// capture thread -> Deliver (try-send) -> ch -> worker (Chunks)
type ChannelDelivery struct {
	logger commons.Logger

	// mu guards closed and the close of ch. Deliver holds the read side so a
	// late capture callback can never send on a closed channel.
	mu     sync.RWMutex
	closed bool
	ch     chan []float32

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

var _ internal_type.AudioDelivery = (*ChannelDelivery)(nil)

// NewChannelDelivery creates a delivery with room for capacity chunks.
func NewChannelDelivery(logger commons.Logger, capacity int) *ChannelDelivery {
	if capacity < 1 {
		capacity = 1
	}
	return &ChannelDelivery{
		logger: logger,
		ch:     make(chan []float32, capacity),
	}
}

// Deliver tries to enqueue samples. Chunks are never retried.
func (d *ChannelDelivery) Deliver(samples []float32) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.ch <- samples:
		d.delivered.Add(1)
	default:
		n := d.dropped.Add(1)
		d.logger.Debugw("Delivery channel full, dropping chunk", "samples", len(samples), "dropped", n)
	}
}

// Chunks is the receive half. It is closed by Close.
func (d *ChannelDelivery) Chunks() <-chan []float32 {
	return d.ch
}

// Close signals end of input to the consumer. Safe to call more than once.
func (d *ChannelDelivery) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.ch)
}

func (d *ChannelDelivery) Delivered() uint64 { return d.delivered.Load() }

func (d *ChannelDelivery) Dropped() uint64 { return d.dropped.Load() }

func (d *ChannelDelivery) Capacity() int { return cap(d.ch) }
