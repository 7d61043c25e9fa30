// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

// RecordingStartOptions is the start request accepted from the host.
type RecordingStartOptions struct {
	AppProcessID      *uint32  `json:"appProcessId,omitempty"`
	ExcludeProcessIDs []uint32 `json:"excludeProcessIds,omitempty"`
	OutputDir         string   `json:"outputDir" validate:"required"`
	Format            *string  `json:"format,omitempty"`
	SampleRate        *uint32  `json:"sampleRate,omitempty"`
	Channels          *uint32  `json:"channels,omitempty"`
	ID                *string  `json:"id,omitempty"`
}

// RecordingSessionMeta describes a session that has started.
type RecordingSessionMeta struct {
	ID         string `json:"id"`
	FilePath   string `json:"filepath"`
	SampleRate uint32 `json:"sampleRate"`
	Channels   uint32 `json:"channels"`
	StartedAt  int64  `json:"startedAt"`
}

// RecordingArtifact is the finished file of a stopped session.
type RecordingArtifact struct {
	ID         string `json:"id"`
	FilePath   string `json:"filepath"`
	SampleRate uint32 `json:"sampleRate"`
	Channels   uint32 `json:"channels"`
	DurationMs int64  `json:"durationMs"`
	Size       int64  `json:"size"`
}
