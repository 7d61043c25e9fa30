// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	internal_ogg "github.com/rapidaai/media-capture/api/recording-api/internal/audio/ogg"
	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENV_PATH", "")
	t.Setenv("LOG_PATH", t.TempDir())

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRecordAndProbeCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := runCommand(t, "record", "--synthetic", "--tone", "440",
		"--sample-rate", "44100", "--channels", "1",
		"--duration", "200ms", "-o", dir, "--id", "cli take")
	require.NoError(t, err)

	var artifact internal_type.RecordingArtifact
	require.NoError(t, json.Unmarshal([]byte(out), &artifact))
	assert.Equal(t, "clitake", artifact.ID)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolved, "clitake.opus"), artifact.FilePath)
	assert.Equal(t, uint32(1), artifact.Channels)
	assert.Equal(t, uint32(48000), artifact.SampleRate)
	assert.Greater(t, artifact.DurationMs, int64(0))
	assert.LessOrEqual(t, artifact.DurationMs, int64(400))

	out, err = runCommand(t, "probe", artifact.FilePath)
	require.NoError(t, err)
	var probe internal_ogg.ProbeResult
	require.NoError(t, json.Unmarshal([]byte(out), &probe))
	assert.Equal(t, uint8(1), probe.Channels)
	assert.Equal(t, uint32(48000), probe.SampleRate)
	assert.True(t, probe.EndOfStream)
	assert.Equal(t, artifact.DurationMs, probe.DurationMs)
}

func TestRecordCommand_RejectsBadFormat(t *testing.T) {
	_, err := runCommand(t, "record", "--synthetic", "--format", "mp3", "-o", t.TempDir(), "--duration", "10ms")
	require.Error(t, err)
	assert.True(t, internal_type.IsKind(err, internal_type.InvalidFormat))
}

func TestProbeCommand_RequiresFile(t *testing.T) {
	_, err := runCommand(t, "probe")
	assert.Error(t, err)

	_, err = runCommand(t, "probe", filepath.Join(t.TempDir(), "nope.opus"))
	assert.Error(t, err)
}

func TestRecordCommand_DefaultsToConfiguredOutputDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OUTPUT_DIR", dir)

	out, err := runCommand(t, "record", "--synthetic", "--duration", "50ms", "--id", "default-dir")
	require.NoError(t, err)

	var artifact internal_type.RecordingArtifact
	require.NoError(t, json.Unmarshal([]byte(out), &artifact))
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolved, "default-dir.opus"), artifact.FilePath)
}
