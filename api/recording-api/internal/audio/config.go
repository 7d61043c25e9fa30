// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

// Encoder side constants. The container is always written at 48 kHz.
const (
	EncodeSampleRate   = 48000
	FrameDurationMs    = 20
	FrameSamples       = EncodeSampleRate * FrameDurationMs / 1000 // 960 per channel
	MaxPacketSize      = 4096
	ResamplerChunkSize = 1024 // input frames per channel per conversion
	DeliveryCapacity   = 32   // chunks buffered between capture and worker
	CodecName          = "opus"
	FileExtension      = ".opus"
	VendorString       = "Rapida Media Capture"
)

// Layout resolves the encoder channel layout: mono when one or fewer
// channels were asked for, stereo otherwise.
func Layout(channels uint32) int {
	if channels > 1 {
		return 2
	}
	return 1
}

// DurationMs converts a per-channel sample count at the encode rate.
func DurationMs(samples uint64) int64 {
	return int64(samples * 1000 / EncodeSampleRate)
}
