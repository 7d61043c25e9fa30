// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	internal_audio "github.com/rapidaai/media-capture/api/recording-api/internal/audio"
	internal_recorder "github.com/rapidaai/media-capture/api/recording-api/internal/audio/recorder"
	internal_tap "github.com/rapidaai/media-capture/api/recording-api/internal/audio/tap"
	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/commons"
	"golang.org/x/sync/errgroup"
)

// Manager owns every active recording in the process. Start and Stop are
// safe to call from any goroutine.
type Manager struct {
	logger          commons.Logger
	opener          internal_type.CaptureOpener
	recorderFactory internal_type.RecorderFactory
	now             func() time.Time
	capacity        int
	sessions        *registry
}

type Option func(*Manager)

// WithRecorderFactory replaces the Ogg Opus writer.
func WithRecorderFactory(factory internal_type.RecorderFactory) Option {
	return func(m *Manager) { m.recorderFactory = factory }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithChannelCapacity sets how many chunks may queue between a capture
// source and its worker before chunks are dropped.
func WithChannelCapacity(capacity int) Option {
	return func(m *Manager) {
		if capacity > 0 {
			m.capacity = capacity
		}
	}
}

func NewManager(logger commons.Logger, opener internal_type.CaptureOpener, opts ...Option) *Manager {
	m := &Manager{
		logger:   logger,
		opener:   opener,
		now:      time.Now,
		capacity: internal_audio.DeliveryCapacity,
		sessions: newRegistry(),
	}
	m.recorderFactory = func(o internal_type.RecorderOptions) (internal_type.Recorder, error) {
		return internal_recorder.NewOggOpusWriter(logger, o)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start validates the request, opens the capture source and spawns the
// worker that encodes its audio to <outputDir>/<id>.opus.
func (m *Manager) Start(ctx context.Context, opts internal_type.RecordingStartOptions) (*internal_type.RecordingSessionMeta, error) {
	if opts.Format != nil && !strings.EqualFold(*opts.Format, internal_audio.CodecName) {
		return nil, internal_type.NewInvalidFormatError(*opts.Format)
	}
	dir, err := ValidateOutputDir(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	startedAt := m.now()
	id := SanitizeID(opts.ID, startedAt)
	if err := m.sessions.reserve(id); err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			m.sessions.release(id)
		}
	}()

	filePath := filepath.Join(dir, id+internal_audio.FileExtension)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return nil, internal_type.NewIoError(err)
	}

	delivery := internal_tap.NewChannelDelivery(m.logger, m.capacity)
	capture, err := m.opener(ctx, internal_type.CaptureOptions{
		AppProcessID:      opts.AppProcessID,
		ExcludeProcessIDs: opts.ExcludeProcessIDs,
		SampleRate:        opts.SampleRate,
	}, delivery)
	if err != nil {
		delivery.Close()
		return nil, internal_type.NewStartError(err)
	}

	channels := capture.Channels()
	if opts.Channels != nil && (*opts.Channels == 1 || *opts.Channels == 2) {
		channels = *opts.Channels
	}

	recorder, err := m.recorderFactory(internal_type.RecorderOptions{
		FilePath:         filePath,
		SourceSampleRate: capture.SampleRate(),
		SourceChannels:   capture.Channels(),
		Channels:         channels,
	})
	if err != nil {
		if stopErr := capture.Stop(); stopErr != nil {
			m.logger.Warnw("Failed to stop capture after writer error", "id", id, "error", stopErr)
		}
		delivery.Close()
		return nil, err
	}

	rec := &activeRecording{
		meta: internal_type.RecordingSessionMeta{
			ID:         id,
			FilePath:   filePath,
			SampleRate: internal_audio.EncodeSampleRate,
			Channels:   uint32(internal_audio.Layout(channels)),
			StartedAt:  startedAt.UnixMilli(),
		},
		delivery: delivery,
		capture:  capture,
		done:     make(chan workerResult, 1),
	}
	go m.work(rec, recorder)

	if err := m.sessions.commit(id, rec); err != nil {
		// only reachable with a poisoned registry; nobody else can stop it
		_ = capture.Stop()
		delivery.Close()
		<-rec.done
		return nil, err
	}
	committed = true

	m.logger.Infof("Recording started: id=%s, file=%s, capture=%dHz/%dch, channels=%d, buffer=%d chunks",
		id, filePath, capture.SampleRate(), capture.Channels(), rec.meta.Channels, delivery.Capacity())
	meta := rec.meta
	return &meta, nil
}

// work drains the delivery channel into the recorder until the channel is
// closed, then finalizes.
func (m *Manager) work(rec *activeRecording, recorder internal_type.Recorder) {
	var result workerResult
	defer func() {
		if p := recover(); p != nil {
			m.logger.Errorf("Recording worker panicked: id=%s, panic=%v", rec.meta.ID, p)
			_ = recorder.Close()
			result = workerResult{err: internal_type.NewJoinError(fmt.Errorf("worker panicked: %v", p))}
		}
		rec.done <- result
	}()

	var writeErr error
	for chunk := range rec.delivery.Chunks() {
		if writeErr != nil {
			continue
		}
		if err := recorder.Write(chunk); err != nil {
			m.logger.Errorw("Recording write failed", "id", rec.meta.ID, "error", err)
			writeErr = err
			_ = recorder.Close()
		}
	}
	if writeErr != nil {
		result.err = writeErr
		return
	}

	artifact, err := recorder.Finalize()
	if err != nil {
		result.err = err
		return
	}
	artifact.ID = rec.meta.ID
	result.artifact = artifact
}

// Stop removes the session, halts its capture, closes the channel and waits
// for the worker to finalize the file.
func (m *Manager) Stop(id string) (*internal_type.RecordingArtifact, error) {
	rec, err := m.sessions.remove(id)
	if err != nil {
		return nil, err
	}

	stopErr := rec.capture.Stop()
	rec.delivery.Close()
	result := <-rec.done

	if dropped := rec.delivery.Dropped(); dropped > 0 {
		m.logger.Warnw("Recording dropped chunks under load",
			"id", id, "dropped", dropped, "delivered", rec.delivery.Delivered())
	}
	if stopErr != nil {
		m.logger.Errorw("Capture stop failed", "id", id, "error", stopErr)
		return nil, internal_type.NewStartError(stopErr)
	}
	if result.err != nil {
		return nil, result.err
	}
	m.logger.Infof("Recording stopped: id=%s, duration=%dms, size=%d",
		id, result.artifact.DurationMs, result.artifact.Size)
	return result.artifact, nil
}

// List reports active sessions ordered by start time.
func (m *Manager) List() ([]internal_type.RecordingSessionMeta, error) {
	return m.sessions.snapshot()
}

// StopAll stops every active session concurrently. Sessions that fail to
// finalize are logged; the first error is returned. When ctx ends first,
// StopAll returns ctx.Err() with the artifacts finalized so far while the
// remaining stops run to completion in the background.
func (m *Manager) StopAll(ctx context.Context) ([]*internal_type.RecordingArtifact, error) {
	metas, err := m.sessions.snapshot()
	if err != nil {
		return nil, err
	}

	var (
		mu        sync.Mutex
		artifacts []*internal_type.RecordingArtifact
		g         errgroup.Group
	)
	for _, meta := range metas {
		g.Go(func() error {
			artifact, err := m.Stop(meta.ID)
			if err != nil {
				if internal_type.IsKind(err, internal_type.NotFound) {
					return nil
				}
				m.logger.Warnw("Failed to stop recording", "id", meta.ID, "error", err)
				return fmt.Errorf("stop %s: %w", meta.ID, err)
			}
			mu.Lock()
			artifacts = append(artifacts, artifact)
			mu.Unlock()
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		m.logger.Warnw("Stopped waiting for recordings to finalize", "error", ctx.Err())
		err = ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]*internal_type.RecordingArtifact, len(artifacts))
	copy(out, artifacts)
	return out, err
}

// IsPoisoned reports whether a registry operation has panicked.
func (m *Manager) IsPoisoned() bool {
	err := m.sessions.locked(func() error { return nil })
	return errors.Is(err, internal_type.ErrRegistryPoisoned)
}
