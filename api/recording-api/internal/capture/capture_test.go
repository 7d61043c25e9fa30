// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	chunks [][]float32
}

func (c *collector) Deliver(samples []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks = append(c.chunks, samples)
}

func (c *collector) samples() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []float32
	for _, ch := range c.chunks {
		out = append(out, ch...)
	}
	return out
}

func TestSynthetic_DeliversExactFrameCount(t *testing.T) {
	col := &collector{}
	s := NewSynthetic(SyntheticConfig{
		SampleRate:  44100,
		Channels:    2,
		ChunkFrames: 441,
		TotalFrames: 4410,
	}, col)

	select {
	case <-s.Finished():
	case <-time.After(2 * time.Second):
		t.Fatal("synthetic source never finished")
	}
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	samples := col.samples()
	assert.Len(t, samples, 4410*2)
	assert.Len(t, col.chunks, 10)
	for _, v := range samples {
		assert.Zero(t, v)
	}
	assert.Equal(t, uint32(44100), s.SampleRate())
	assert.Equal(t, uint32(2), s.Channels())
}

func TestSynthetic_ToneAndPartialLastChunk(t *testing.T) {
	col := &collector{}
	s := NewSynthetic(SyntheticConfig{
		SampleRate:  48000,
		Channels:    1,
		ChunkFrames: 400,
		TotalFrames: 1000,
		ToneHz:      1000,
	}, col)
	<-s.Finished()
	require.NoError(t, s.Stop())

	require.Len(t, col.chunks, 3)
	assert.Len(t, col.chunks[2], 200)
	assert.InDelta(t, 0.25*math.Sin(2*math.Pi*1000/48000), col.chunks[0][1], 1e-6)
}

func TestSynthetic_StopWhileTicking(t *testing.T) {
	col := &collector{}
	s := NewSynthetic(SyntheticConfig{SampleRate: 16000, Channels: 1, Interval: 10 * time.Millisecond}, col)
	time.Sleep(35 * time.Millisecond)
	require.NoError(t, s.Stop())
	n := len(col.samples())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, len(col.samples()), "no deliveries after Stop")
}

func TestSyntheticOpener_HonoursRequestedRate(t *testing.T) {
	open := SyntheticOpener(SyntheticConfig{SampleRate: 48000, Channels: 2, TotalFrames: 1})
	rate := uint32(16000)
	src, err := open(context.Background(), internal_type.CaptureOptions{SampleRate: &rate}, &collector{})
	require.NoError(t, err)
	defer src.Stop()
	assert.Equal(t, uint32(16000), src.SampleRate())
	assert.Equal(t, uint32(2), src.Channels())
}

func TestExpandArgs(t *testing.T) {
	got := ExpandArgs([]string{"--rate={rate}", "--channels={channels}", "-v"}, 44100, 2)
	assert.Equal(t, []string{"--rate=44100", "--channels=2", "-v"}, got)
}

func TestCommand_StreamsFloatPCM(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs cat")
	}
	path := filepath.Join(t.TempDir(), "pcm.f32")
	raw := make([]byte, 0, 4*300)
	for i := 0; i < 300; i++ {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(float32(i)))
	}
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	col := &collector{}
	c, err := StartCommand(commons.NewNopLogger(), CommandConfig{
		Name:        "cat",
		Args:        []string{path},
		SampleRate:  48000,
		Channels:    2,
		ChunkFrames: 64,
	}, col)
	require.NoError(t, err)

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("command output never drained")
	}
	_ = c.Stop()

	samples := col.samples()
	require.Len(t, samples, 300)
	assert.Equal(t, float32(0), samples[0])
	assert.Equal(t, float32(299), samples[299])
}

func TestCommand_MissingBinary(t *testing.T) {
	_, err := StartCommand(commons.NewNopLogger(), CommandConfig{Name: "definitely-not-a-recorder"}, &collector{})
	assert.Error(t, err)

	_, err = StartCommand(commons.NewNopLogger(), CommandConfig{}, &collector{})
	assert.Error(t, err)
}

func TestCommandOpener_RejectsPerProcessTap(t *testing.T) {
	open := CommandOpener(commons.NewNopLogger(), CommandConfig{Name: "cat"})
	pid := uint32(42)
	_, err := open(context.Background(), internal_type.CaptureOptions{AppProcessID: &pid}, &collector{})
	assert.True(t, internal_type.IsKind(err, internal_type.UnsupportedPlatform))
}

func TestUnsupportedOpener(t *testing.T) {
	_, err := UnsupportedOpener()(context.Background(), internal_type.CaptureOptions{}, &collector{})
	assert.True(t, internal_type.IsKind(err, internal_type.UnsupportedPlatform))
}
