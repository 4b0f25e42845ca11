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

package fairlock

import (
	"bytes"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contend holds l, queues one waiter and advances clock by wait while the
// waiter is parked. It returns once the waiter has finished.
func contend(t *testing.T, l *FairLock[int], clock *clockwork.FakeClock, wait time.Duration) {
	t.Helper()

	queued := make(chan struct{})
	l.queued = func() { close(queued) }
	defer func() { l.queued = nil }()

	holder := l.Lock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Do(func(v *int) { *v++ })
	}()

	select {
	case <-queued:
	case <-time.After(hangTimeout):
		require.FailNow(t, "waiter never queued")
	}
	clock.Advance(wait)
	holder.Unlock()
	<-done
}

func TestStats_UncontendedFastPath(t *testing.T) {
	t.Parallel()

	l := New(0)
	for range 5 {
		l.Do(func(v *int) { *v++ })
	}

	assert.Equal(t, Stats{Acquisitions: 5}, l.Stats())
}

func TestStats_ContendedWaitIsTimed(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	l := New(0, WithClock(clock))

	contend(t, l, clock, 40*time.Millisecond)
	contend(t, l, clock, 10*time.Millisecond)

	stats := l.Stats()
	assert.Equal(t, uint64(4), stats.Acquisitions)
	assert.Equal(t, uint64(2), stats.Contended)
	assert.Equal(t, 40*time.Millisecond, stats.MaxWait)
	assert.Zero(t, stats.SlowWaits, "no threshold configured")
}

func TestSlowThreshold_LogsWarning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		threshold time.Duration
		wait      time.Duration
		wantLog   bool
	}{
		{name: "over threshold", threshold: 10 * time.Millisecond, wait: 25 * time.Millisecond, wantLog: true},
		{name: "at threshold", threshold: 10 * time.Millisecond, wait: 10 * time.Millisecond, wantLog: true},
		{name: "under threshold", threshold: 10 * time.Millisecond, wait: 5 * time.Millisecond, wantLog: false},
		{name: "disabled", threshold: 0, wait: time.Hour, wantLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			clock := clockwork.NewFakeClock()
			l := New(0,
				WithName("tokens"),
				WithClock(clock),
				WithSlowThreshold(tt.threshold),
				WithLogger(zerolog.New(&buf)),
			)

			contend(t, l, clock, tt.wait)

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				assert.Zero(t, l.Stats().SlowWaits)
				return
			}

			out := buf.String()
			assert.Contains(t, out, `"level":"warn"`)
			assert.Contains(t, out, `"lock":"tokens"`)
			assert.Contains(t, out, "slow fair lock acquisition")
			assert.Equal(t, uint64(1), l.Stats().SlowWaits)
		})
	}
}

func TestWithClock_NilKeepsRealClock(t *testing.T) {
	t.Parallel()

	l := New(0, WithClock(nil))
	require.NotNil(t, l.clock)
	l.Do(func(v *int) { *v = 1 })
	assert.Equal(t, 1, lockWithin(t, l))
}
