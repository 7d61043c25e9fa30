// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio_resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampler"
)

// engine is the single-channel streaming converter behind each FIFO.
type engine interface {
	Process(input []float64) ([]float64, error)
}

// Interleaved converts interleaved float32 PCM between two rates. Input is
// split into one FIFO per channel and converted in fixed chunks of
// chunkSize frames; anything shorter than a chunk stays queued.
//
// The first converted block only reflects the converter's initial filter
// state and is dropped.
type Interleaved struct {
	fromRate  uint32
	toRate    uint32
	channels  int
	chunkSize int

	engines []engine
	fifo    [][]float32
	warmed  bool

	// frame counters used by Flush to trim the tail
	framesIn  uint64
	framesOut uint64

	scratch []float64
}

// NewInterleaved builds a converter for channels interleaved channels.
func NewInterleaved(fromRate, toRate uint32, channels, chunkSize int) (*Interleaved, error) {
	if fromRate == 0 || toRate == 0 {
		return nil, fmt.Errorf("resampler init failed: invalid ratio %d -> %d", fromRate, toRate)
	}
	if channels < 1 || chunkSize < 1 {
		return nil, fmt.Errorf("resampler init failed: channels=%d chunk=%d", channels, chunkSize)
	}

	engines := make([]engine, channels)
	for ch := range engines {
		e, err := resampling.New(&resampling.Config{
			InputRate:  float64(fromRate),
			OutputRate: float64(toRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityQuick},
		})
		if err != nil {
			return nil, fmt.Errorf("resampler init failed: %w", err)
		}
		engines[ch] = e
	}

	fifo := make([][]float32, channels)
	for ch := range fifo {
		fifo[ch] = make([]float32, 0, chunkSize*2)
	}
	return &Interleaved{
		fromRate:  fromRate,
		toRate:    toRate,
		channels:  channels,
		chunkSize: chunkSize,
		engines:   engines,
		fifo:      fifo,
		scratch:   make([]float64, chunkSize),
	}, nil
}

// Feed queues interleaved samples and returns whatever could be converted.
// A trailing partial frame (fewer samples than channels) is ignored.
func (r *Interleaved) Feed(interleaved []float32) ([]float32, error) {
	frames := len(interleaved) / r.channels
	for i := 0; i < frames; i++ {
		base := i * r.channels
		for ch := 0; ch < r.channels; ch++ {
			r.fifo[ch] = append(r.fifo[ch], interleaved[base+ch])
		}
	}
	r.framesIn += uint64(frames)

	var out []float32
	for len(r.fifo[0]) >= r.chunkSize {
		block, err := r.convertChunk()
		if err != nil {
			return out, err
		}
		out = append(out, block...)
	}
	return out, nil
}

// Pending is the number of queued frames per channel not yet converted.
func (r *Interleaved) Pending() int {
	return len(r.fifo[0])
}

// Flush pushes silence through the converter until the output has caught up
// with everything fed so far, then trims the excess. The converter must not
// be fed again afterwards.
func (r *Interleaved) Flush() ([]float32, error) {
	want := r.framesIn * uint64(r.toRate) / uint64(r.fromRate)
	var out []float32
	// Bounded: filter latency never spans more than a handful of chunks.
	for i := 0; i < 8 && r.framesOut < want; i++ {
		for ch := range r.fifo {
			for len(r.fifo[ch]) < r.chunkSize {
				r.fifo[ch] = append(r.fifo[ch], 0)
			}
		}
		block, err := r.convertChunk()
		if err != nil {
			return out, err
		}
		out = append(out, block...)
	}
	if r.framesOut > want {
		excess := int(r.framesOut-want) * r.channels
		if excess > len(out) {
			excess = len(out)
		}
		out = out[:len(out)-excess]
		r.framesOut = want
	}
	return out, nil
}

func (r *Interleaved) convertChunk() ([]float32, error) {
	blocks := make([][]float64, r.channels)
	for ch := 0; ch < r.channels; ch++ {
		for i := 0; i < r.chunkSize; i++ {
			r.scratch[i] = float64(r.fifo[ch][i])
		}
		r.fifo[ch] = append(r.fifo[ch][:0], r.fifo[ch][r.chunkSize:]...)

		converted, err := r.engines[ch].Process(r.scratch)
		if err != nil {
			return nil, fmt.Errorf("resample channel %d: %w", ch, err)
		}
		blocks[ch] = converted
	}

	n := len(blocks[0])
	for _, b := range blocks[1:] {
		if len(b) < n {
			n = len(b)
		}
	}
	if n == 0 {
		return nil, nil
	}
	if !r.warmed {
		r.warmed = true
		return nil, nil
	}

	out := make([]float32, 0, n*r.channels)
	for i := 0; i < n; i++ {
		for ch := 0; ch < r.channels; ch++ {
			out = append(out, float32(blocks[ch][i]))
		}
	}
	r.framesOut += uint64(n)
	return out, nil
}
