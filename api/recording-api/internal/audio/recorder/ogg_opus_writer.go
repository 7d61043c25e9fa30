// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_recorder

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	internal_audio "github.com/rapidaai/media-capture/api/recording-api/internal/audio"
	internal_ogg "github.com/rapidaai/media-capture/api/recording-api/internal/audio/ogg"
	internal_audio_resampler "github.com/rapidaai/media-capture/api/recording-api/internal/audio/resampler"
	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/commons"
	"gopkg.in/hraban/opus.v2"
)

type writerState int

const (
	stateStreaming writerState = iota
	stateCompleted
	stateFailed
)

// oggOpusWriter encodes 20 ms frames at 48 kHz with Opus and lays them out
// as an Ogg stream: OpusHead page, OpusTags page, data pages, and a final
// empty packet flagged end-of-stream.
type oggOpusWriter struct {
	logger   commons.Logger
	filePath string

	file   *os.File
	buf    *bufio.Writer
	pages  *internal_ogg.PacketWriter

	encoder   *opus.Encoder
	resampler *internal_audio_resampler.Interleaved // nil when capture runs at 48 kHz

	sourceChannels int
	channels       int
	frameSamples   int

	pending []float32
	packet  []byte

	// granule and samplesWritten both count per-channel samples at 48 kHz
	granulePosition uint64
	samplesWritten  uint64
	framesWritten   uint64

	state writerState
}

// NewOggOpusWriter creates the file (and parent directories) and writes the
// two header pages.
func NewOggOpusWriter(logger commons.Logger, opts internal_type.RecorderOptions) (internal_type.Recorder, error) {
	channels := internal_audio.Layout(opts.Channels)
	sourceChannels := int(opts.SourceChannels)
	if sourceChannels < 1 {
		sourceChannels = channels
	}

	var resampler *internal_audio_resampler.Interleaved
	if opts.SourceSampleRate != internal_audio.EncodeSampleRate {
		r, err := internal_audio_resampler.NewInterleaved(
			opts.SourceSampleRate, internal_audio.EncodeSampleRate, channels, internal_audio.ResamplerChunkSize)
		if err != nil {
			return nil, internal_type.NewEncodingError(err)
		}
		resampler = r
	}

	if dir := filepath.Dir(opts.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, internal_type.NewIoError(err)
		}
	}
	file, err := os.Create(opts.FilePath)
	if err != nil {
		return nil, internal_type.NewIoError(err)
	}

	encoder, err := opus.NewEncoder(internal_audio.EncodeSampleRate, channels, opus.AppAudio)
	if err != nil {
		file.Close()
		return nil, internal_type.Encodingf("create opus encoder: %w", err)
	}

	buf := bufio.NewWriter(file)
	w := &oggOpusWriter{
		logger:         logger,
		filePath:       opts.FilePath,
		file:           file,
		buf:            buf,
		pages:          internal_ogg.NewPacketWriter(buf, rand.Uint32()),
		encoder:        encoder,
		resampler:      resampler,
		sourceChannels: sourceChannels,
		channels:       channels,
		frameSamples:   internal_audio.FrameSamples,
		packet:         make([]byte, internal_audio.MaxPacketSize),
	}

	if err := w.pages.WritePacket(internal_ogg.OpusHead(uint8(channels), internal_audio.EncodeSampleRate), 0, internal_ogg.EndPage); err != nil {
		file.Close()
		return nil, internal_type.Encodingf("failed to write OpusHead: %w", err)
	}
	if err := w.pages.WritePacket(internal_ogg.OpusTags(internal_audio.VendorString), 0, internal_ogg.EndPage); err != nil {
		file.Close()
		return nil, internal_type.Encodingf("failed to write OpusTags: %w", err)
	}

	logger.Debugw("Ogg Opus writer initialised",
		"file", opts.FilePath,
		"sourceRate", opts.SourceSampleRate,
		"sourceChannels", sourceChannels,
		"channels", channels,
		"resampling", resampler != nil,
		"serial", w.pages.Serial())
	return w, nil
}

// Write converts samples to the encoder layout and rate, then encodes every
// complete frame in the pending buffer.
func (w *oggOpusWriter) Write(samples []float32) error {
	if w.state != stateStreaming {
		return internal_type.Encodingf("writer is no longer streaming")
	}
	// a partial trailing frame would shift the channel order of everything after it
	samples = samples[:len(samples)-len(samples)%w.sourceChannels]
	processed := remix(samples, w.sourceChannels, w.channels)
	if w.resampler != nil {
		converted, err := w.resampler.Feed(processed)
		if err != nil {
			w.state = stateFailed
			return internal_type.NewEncodingError(err)
		}
		processed = converted
	}
	if len(processed) == 0 {
		return nil
	}

	w.pending = append(w.pending, processed...)
	return w.drainFrames()
}

func (w *oggOpusWriter) drainFrames() error {
	frameLen := w.frameSamples * w.channels
	consumed := 0
	for len(w.pending)-consumed >= frameLen {
		frame := w.pending[consumed : consumed+frameLen]
		if err := w.encodeFrame(frame, w.frameSamples); err != nil {
			w.state = stateFailed
			return err
		}
		consumed += frameLen
	}
	if consumed > 0 {
		w.pending = append(w.pending[:0], w.pending[consumed:]...)
	}
	return nil
}

func (w *oggOpusWriter) encodeFrame(frame []float32, samplesInFrame int) error {
	n, err := w.encoder.EncodeFloat32(frame, w.packet)
	if err != nil {
		return internal_type.NewEncodingError(err)
	}

	w.granulePosition += uint64(samplesInFrame)
	w.samplesWritten += uint64(samplesInFrame)
	w.framesWritten++

	if err := w.pages.WritePacket(w.packet[:n], w.granulePosition, internal_ogg.NormalPacket); err != nil {
		return internal_type.Encodingf("failed to write packet: %w", err)
	}
	return nil
}

// Finalize pads and encodes the last partial frame, writes the end-of-stream
// packet and reports the artifact. The artifact ID is left for the caller.
func (w *oggOpusWriter) Finalize() (*internal_type.RecordingArtifact, error) {
	if w.state != stateStreaming {
		return nil, internal_type.Encodingf("writer cannot be finalized twice")
	}
	w.state = stateFailed

	if w.resampler != nil {
		w.logger.Debugw("Flushing resampler", "file", w.filePath, "pendingFrames", w.resampler.Pending())
		tail, err := w.resampler.Flush()
		if err != nil {
			w.file.Close()
			return nil, internal_type.NewEncodingError(err)
		}
		w.pending = append(w.pending, tail...)
		if err := w.drainFrames(); err != nil {
			w.file.Close()
			return nil, err
		}
	}

	if len(w.pending) > 0 {
		samplesInFrame := len(w.pending) / w.channels
		frame := make([]float32, w.frameSamples*w.channels)
		copy(frame, w.pending)
		if err := w.encodeFrame(frame, samplesInFrame); err != nil {
			w.file.Close()
			return nil, err
		}
		w.pending = w.pending[:0]
	}

	if w.samplesWritten == 0 {
		w.file.Close()
		if err := os.Remove(w.filePath); err != nil && !os.IsNotExist(err) {
			w.logger.Warnw("Failed to remove empty recording", "file", w.filePath, "error", err)
		}
		return nil, internal_type.NewEmptyError()
	}

	if err := w.pages.WritePacket(nil, w.granulePosition, internal_ogg.EndStream); err != nil {
		w.file.Close()
		return nil, internal_type.Encodingf("failed to finish stream: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return nil, internal_type.NewIoError(err)
	}
	if err := w.file.Sync(); err != nil {
		w.logger.Warnw("Failed to sync recording", "file", w.filePath, "error", err)
	}
	if err := w.file.Close(); err != nil {
		return nil, internal_type.NewIoError(err)
	}

	info, err := os.Stat(w.filePath)
	if err != nil {
		return nil, internal_type.NewIoError(err)
	}
	w.state = stateCompleted

	artifact := &internal_type.RecordingArtifact{
		FilePath:   w.filePath,
		SampleRate: internal_audio.EncodeSampleRate,
		Channels:   uint32(w.channels),
		DurationMs: internal_audio.DurationMs(w.samplesWritten),
		Size:       info.Size(),
	}
	w.logger.Info(fmt.Sprintf(
		"Recording finalized: frames=%d, samples=%d (%dms), pages=%d, size=%d",
		w.framesWritten, w.samplesWritten, artifact.DurationMs, w.pages.PagesWritten(), artifact.Size,
	))
	return artifact, nil
}

// Close abandons the stream, leaving whatever was written on disk.
func (w *oggOpusWriter) Close() error {
	if w.state == stateCompleted {
		return nil
	}
	w.state = stateFailed
	_ = w.buf.Flush()
	return w.file.Close()
}
