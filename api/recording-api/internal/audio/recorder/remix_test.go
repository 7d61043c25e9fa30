// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemix(t *testing.T) {
	tests := []struct {
		name     string
		in       []float32
		from, to int
		expected []float32
	}{
		{"same layout", []float32{1, 2}, 2, 2, []float32{1, 2}},
		{"stereo to mono", []float32{1, 0, 0.5, 0.5}, 2, 1, []float32{0.5, 0.5}},
		{"mono to stereo", []float32{1, -1}, 1, 2, []float32{1, 1, -1, -1}},
		{"surround to stereo", []float32{1, 2, 3, 4, 5, 6}, 6, 2, []float32{1, 2}},
		{"trailing partial frame dropped", []float32{1, 1, 1}, 2, 1, []float32{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, remix(tt.in, tt.from, tt.to))
		})
	}
}
