// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import "context"

// AudioDelivery receives raw interleaved chunks from a capture source. Deliver
// must never block the calling capture thread.
type AudioDelivery interface {
	Deliver(samples []float32)
}

// CaptureSource is a running audio tap. The sample rate and channel count are
// fixed for the lifetime of the source.
type CaptureSource interface {
	Stop() error
	SampleRate() uint32
	Channels() uint32
}

// CaptureOptions selects what a capture source taps.
type CaptureOptions struct {
	// AppProcessID taps a single process; nil means system-wide audio.
	AppProcessID *uint32
	// ExcludeProcessIDs are left out of system-wide capture.
	ExcludeProcessIDs []uint32
	// SampleRate is advisory; sources that cannot honour it ignore it.
	SampleRate *uint32
}

// CaptureOpener opens a platform capture source bound to delivery.
type CaptureOpener func(ctx context.Context, opts CaptureOptions, delivery AudioDelivery) (CaptureSource, error)
