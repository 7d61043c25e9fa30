// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"context"
	"math"
	"sync"
	"time"

	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
)

// SyntheticConfig describes generated audio. A zero ToneHz produces silence.
type SyntheticConfig struct {
	SampleRate  uint32
	Channels    uint32
	ChunkFrames int
	// Interval between chunks; zero delivers as fast as possible.
	Interval time.Duration
	// TotalFrames stops generation after this many frames; zero is unbounded.
	TotalFrames int
	ToneHz      float64
	Amplitude   float32
}

// Synthetic is a capture source that generates PCM on its own goroutine.
type Synthetic struct {
	cfg      SyntheticConfig
	delivery internal_type.AudioDelivery

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	finished chan struct{}
}

var _ internal_type.CaptureSource = (*Synthetic)(nil)

// NewSynthetic starts generating immediately.
func NewSynthetic(cfg SyntheticConfig, delivery internal_type.AudioDelivery) *Synthetic {
	if cfg.ChunkFrames < 1 {
		cfg.ChunkFrames = int(cfg.SampleRate / 100)
	}
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	if cfg.Amplitude == 0 {
		cfg.Amplitude = 0.25
	}
	s := &Synthetic{
		cfg:      cfg,
		delivery: delivery,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go s.run()
	return s
}

// SyntheticOpener opens a Synthetic source per session.
func SyntheticOpener(cfg SyntheticConfig) internal_type.CaptureOpener {
	return func(ctx context.Context, opts internal_type.CaptureOptions, delivery internal_type.AudioDelivery) (internal_type.CaptureSource, error) {
		c := cfg
		if opts.SampleRate != nil && *opts.SampleRate > 0 {
			c.SampleRate = *opts.SampleRate
		}
		return NewSynthetic(c, delivery), nil
	}
}

func (s *Synthetic) run() {
	defer close(s.done)

	var tick <-chan time.Time
	if s.cfg.Interval > 0 {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	produced := 0
	for s.cfg.TotalFrames == 0 || produced < s.cfg.TotalFrames {
		if tick != nil {
			select {
			case <-s.stop:
				return
			case <-tick:
			}
		} else {
			select {
			case <-s.stop:
				return
			default:
			}
		}

		frames := s.cfg.ChunkFrames
		if s.cfg.TotalFrames > 0 && produced+frames > s.cfg.TotalFrames {
			frames = s.cfg.TotalFrames - produced
		}
		s.delivery.Deliver(s.generate(produced, frames))
		produced += frames
	}
	close(s.finished)
}

func (s *Synthetic) generate(offset, frames int) []float32 {
	channels := int(s.cfg.Channels)
	out := make([]float32, frames*channels)
	if s.cfg.ToneHz == 0 {
		return out
	}
	step := 2 * math.Pi * s.cfg.ToneHz / float64(s.cfg.SampleRate)
	for i := 0; i < frames; i++ {
		v := s.cfg.Amplitude * float32(math.Sin(step*float64(offset+i)))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
	return out
}

// Finished is closed once TotalFrames have been delivered.
func (s *Synthetic) Finished() <-chan struct{} { return s.finished }

// Stop halts generation and waits for the generator goroutine.
func (s *Synthetic) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *Synthetic) SampleRate() uint32 { return s.cfg.SampleRate }

func (s *Synthetic) Channels() uint32 { return s.cfg.Channels }
