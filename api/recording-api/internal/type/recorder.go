// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

// Recorder turns converted PCM into a finished container file. It is owned by
// exactly one worker goroutine and is not safe for concurrent use.
type Recorder interface {
	// Write appends interleaved float32 samples at the capture rate and
	// channel layout. Full encode frames are written as they become available.
	Write(samples []float32) error
	// Finalize flushes buffered audio, closes the stream and returns the
	// artifact. It fails with an Empty error, and removes the file, when no
	// audio was ever written.
	Finalize() (*RecordingArtifact, error)
	// Close releases the file without finalizing. Used after a failed Write.
	Close() error
}

// RecorderOptions are the parameters a Recorder is constructed with.
type RecorderOptions struct {
	FilePath         string
	SourceSampleRate uint32
	SourceChannels   uint32
	Channels         uint32
}

// RecorderFactory builds the Recorder for a session's worker.
type RecorderFactory func(opts RecorderOptions) (Recorder, error)
