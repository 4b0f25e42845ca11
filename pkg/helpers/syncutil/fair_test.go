// Zaparoo FairLock
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo FairLock.
//
// Zaparoo FairLock is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo FairLock is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo FairLock.  If not, see <http://www.gnu.org/licenses/>.

package syncutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFairMutex_MutualExclusion(t *testing.T) {
	t.Parallel()

	const (
		workers    = 8
		iterations = 500
	)

	var (
		mu      FairMutex
		counter int
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				counter++
				inside--
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*iterations, counter)
	assert.Equal(t, 1, maxSeen)
}

func TestFairMutex_SequentialDoesNotBlock(t *testing.T) {
	t.Parallel()

	var mu FairMutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 3 {
			mu.Lock()
			mu.Unlock() //nolint:staticcheck // empty critical section is the point
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sequential lock/unlock blocked")
	}
}

func TestFairMutex_WaiterGetsLockAfterRelease(t *testing.T) {
	t.Parallel()

	var mu FairMutex
	mu.Lock()

	acquired := make(chan struct{})
	go func() {
		mu.Lock()
		close(acquired)
		mu.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("waiter acquired a held mutex")
	case <-time.After(20 * time.Millisecond):
	}

	mu.Unlock()

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "waiter never acquired the released mutex")
	}
}

// TestFairMutex_ReleasingHolderCannotBarge has the releasing goroutine try
// to relock immediately. A waiter already queued on data must win.
func TestFairMutex_ReleasingHolderCannotBarge(t *testing.T) {
	t.Parallel()

	const trials = 200

	for i := range trials {
		var (
			mu    FairMutex
			order []string
		)

		mu.Lock()

		queued := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			mu.LockNotify(nil, func() { close(queued) })
			order = append(order, "waiter")
			mu.Unlock()
		}()

		select {
		case <-queued:
		case <-time.After(5 * time.Second):
			require.FailNow(t, "waiter never queued", "trial %d", i)
		}

		mu.Unlock()
		mu.Lock()
		order = append(order, "holder")
		mu.Unlock()
		<-done

		require.Equal(t, []string{"waiter", "holder"}, order, "trial %d", i)
	}
}

func TestFairMutex_LockNotify(t *testing.T) {
	t.Parallel()

	var (
		mu      FairMutex
		waiting int
		queued  int
	)
	parked := make(chan struct{})
	onWaiting := func() { waiting++ }
	onQueued := func() {
		queued++
		close(parked)
	}

	assert.False(t, mu.LockNotify(onWaiting, onQueued), "uncontended")
	assert.Zero(t, waiting)
	assert.Zero(t, queued)

	got := make(chan bool)
	go func() {
		contended := mu.LockNotify(onWaiting, onQueued)
		mu.Unlock()
		got <- contended
	}()

	select {
	case <-parked:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "waiter never queued")
	}
	mu.Unlock()

	select {
	case contended := <-got:
		assert.True(t, contended)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "waiter never acquired the released mutex")
	}
	assert.Equal(t, 1, waiting)
	assert.Equal(t, 1, queued)
}

// Not parallel: the detector's options are process-wide.
func TestSetDeadlockTimeout(t *testing.T) {
	// Must not panic with or without the deadlock tag.
	assert.NotPanics(t, func() { SetDeadlockTimeout(0) })
}
