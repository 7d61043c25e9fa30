// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_tap

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rapidaai/media-capture/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(v float32, n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestChannelDelivery_PreservesOrder(t *testing.T) {
	d := NewChannelDelivery(commons.NewNopLogger(), 4)
	for i := 0; i < 3; i++ {
		d.Deliver(chunk(float32(i), 2))
	}
	d.Close()

	var got []float32
	for c := range d.Chunks() {
		got = append(got, c[0])
	}
	assert.Equal(t, []float32{0, 1, 2}, got)
	assert.Equal(t, uint64(3), d.Delivered())
	assert.Equal(t, uint64(0), d.Dropped())
}

func TestChannelDelivery_DropsWhenFullWithoutBlocking(t *testing.T) {
	d := NewChannelDelivery(commons.NewNopLogger(), 32)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			d.Deliver(chunk(1, 8))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked on a full delivery channel")
	}
	assert.Equal(t, uint64(32), d.Delivered())
	assert.Equal(t, uint64(968), d.Dropped())
	assert.Len(t, d.Chunks(), 32)
}

func TestChannelDelivery_CloseIsIdempotentAndSilencesLateDeliveries(t *testing.T) {
	d := NewChannelDelivery(commons.NewNopLogger(), 2)
	d.Close()
	d.Close()

	assert.NotPanics(t, func() { d.Deliver(chunk(1, 4)) })
	_, ok := <-d.Chunks()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), d.Dropped())
}

func TestChannelDelivery_ConcurrentDeliverAndClose(t *testing.T) {
	d := NewChannelDelivery(commons.NewNopLogger(), 8)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				d.Deliver(chunk(1, 1))
			}
		}()
	}
	go func() {
		for range d.Chunks() {
		}
	}()
	time.Sleep(time.Millisecond)
	d.Close()
	wg.Wait()
}

func TestChannelDelivery_MinimumCapacity(t *testing.T) {
	d := NewChannelDelivery(commons.NewNopLogger(), 0)
	assert.Equal(t, 1, d.Capacity())
}

func TestCallbackDelivery_InvokesInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []float32
	d := NewCallbackDelivery(commons.NewNopLogger(), 8, func(s []float32) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s[0])
		return nil
	})
	for i := 0; i < 5; i++ {
		d.Deliver(chunk(float32(i), 1))
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float32{0, 1, 2, 3, 4}, got)
}

func TestCallbackDelivery_SwallowsErrorsAndPanics(t *testing.T) {
	calls := 0
	d := NewCallbackDelivery(commons.NewNopLogger(), 4, func(s []float32) error {
		calls++
		if s[0] == 0 {
			panic("host gone")
		}
		return errors.New("host rejected chunk")
	})
	d.Deliver(chunk(0, 1))
	d.Deliver(chunk(1, 1))
	d.Close()

	assert.Equal(t, 2, calls)
	assert.NotPanics(t, func() { d.Deliver(chunk(2, 1)) })
}

func TestCallbackDelivery_DropsWhenHostIsSlow(t *testing.T) {
	release := make(chan struct{})
	d := NewCallbackDelivery(commons.NewNopLogger(), 1, func(s []float32) error {
		<-release
		return nil
	})

	start := time.Now()
	for i := 0; i < 100; i++ {
		d.Deliver(chunk(1, 1))
	}
	require.Less(t, time.Since(start), time.Second)

	close(release)
	d.Close()
}
