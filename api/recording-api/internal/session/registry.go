// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_session

import (
	"sort"
	"sync"

	internal_tap "github.com/rapidaai/media-capture/api/recording-api/internal/audio/tap"
	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
)

type workerResult struct {
	artifact *internal_type.RecordingArtifact
	err      error
}

// activeRecording is the runtime state behind a session while it captures.
type activeRecording struct {
	meta     internal_type.RecordingSessionMeta
	delivery *internal_tap.ChannelDelivery
	capture  internal_type.CaptureSource
	// done receives exactly one result when the worker returns.
	done chan workerResult
}

// registry maps session ids to active recordings. A nil value is a
// reservation held by a start still in progress. Critical sections never do
// I/O; a panic inside one poisons the registry for good.
type registry struct {
	mu       sync.Mutex
	poisoned bool
	entries  map[string]*activeRecording
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*activeRecording)}
}

func (r *registry) locked(fn func() error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.poisoned {
		return internal_type.NewStartError(internal_type.ErrRegistryPoisoned)
	}
	defer func() {
		if p := recover(); p != nil {
			r.poisoned = true
			panic(p)
		}
	}()
	return fn()
}

// reserve claims id for a start in progress.
func (r *registry) reserve(id string) error {
	return r.locked(func() error {
		if _, exists := r.entries[id]; exists {
			return internal_type.NewStartError(internal_type.ErrDuplicateSession)
		}
		r.entries[id] = nil
		return nil
	})
}

// release drops a reservation that never became a session.
func (r *registry) release(id string) {
	_ = r.locked(func() error {
		if rec, ok := r.entries[id]; ok && rec == nil {
			delete(r.entries, id)
		}
		return nil
	})
}

// commit turns the reservation for id into a live session.
func (r *registry) commit(id string, rec *activeRecording) error {
	return r.locked(func() error {
		r.entries[id] = rec
		return nil
	})
}

// remove takes a live session out of the registry.
func (r *registry) remove(id string) (*activeRecording, error) {
	var rec *activeRecording
	err := r.locked(func() error {
		found, ok := r.entries[id]
		if !ok || found == nil {
			return internal_type.NewNotFoundError()
		}
		delete(r.entries, id)
		rec = found
		return nil
	})
	return rec, err
}

// snapshot lists live sessions ordered by start time.
func (r *registry) snapshot() ([]internal_type.RecordingSessionMeta, error) {
	var out []internal_type.RecordingSessionMeta
	err := r.locked(func() error {
		for _, rec := range r.entries {
			if rec != nil {
				out = append(out, rec.meta)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt == out[j].StartedAt {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt < out[j].StartedAt
	})
	return out, err
}
