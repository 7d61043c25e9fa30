// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_recorder

// remix converts interleaved samples between channel counts. Down to mono
// averages all channels, mono to stereo duplicates, and wider layouts keep
// their first two channels.
func remix(samples []float32, from, to int) []float32 {
	if from == to || from < 1 || to < 1 {
		return samples
	}
	frames := len(samples) / from
	out := make([]float32, 0, frames*to)
	for i := 0; i < frames; i++ {
		frame := samples[i*from : i*from+from]
		switch {
		case to == 1:
			var sum float32
			for _, s := range frame {
				sum += s
			}
			out = append(out, sum/float32(from))
		case from == 1:
			for c := 0; c < to; c++ {
				out = append(out, frame[0])
			}
		default:
			for c := 0; c < to; c++ {
				if c < from {
					out = append(out, frame[c])
				} else {
					out = append(out, 0)
				}
			}
		}
	}
	return out
}
