// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout(t *testing.T) {
	assert.Equal(t, 1, Layout(0))
	assert.Equal(t, 1, Layout(1))
	assert.Equal(t, 2, Layout(2))
	assert.Equal(t, 2, Layout(6))
}

func TestDurationMs(t *testing.T) {
	assert.Equal(t, int64(0), DurationMs(0))
	assert.Equal(t, int64(20), DurationMs(FrameSamples))
	assert.Equal(t, int64(10), DurationMs(480))
	assert.Equal(t, int64(1000), DurationMs(EncodeSampleRate))
	assert.Equal(t, 960, FrameSamples)
}
