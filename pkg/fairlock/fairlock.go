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

// Package fairlock provides FairLock, a mutex-protected value whose
// acquisition order approximates first-come-first-served.
//
// A plain sync.Mutex lets a goroutine that has just released the lock grab
// it again before a goroutine that was already waiting. FairLock composes
// two mutexes so that a goroutine already queued for the value always gets
// it before any goroutine that starts queuing later:
//
//	l := fairlock.New(map[string]int{})
//	g := l.Lock()
//	defer g.Unlock()
//	(*g.Value())["hits"]++
//
// FairLock does not poison. If a holder panics or exits inside Do, the lock
// is released and the next caller sees the value as it was left.
//
// Locking a FairLock again from the goroutine that holds it deadlocks.
// Build with -tags=deadlock to have go-deadlock report such mistakes.
package fairlock

import (
	"time"

	"github.com/ZaparooProject/zaparoo-fairlock/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FairLock guards a value of type T. A FairLock must not be copied after
// first use.
type FairLock[T any] struct {
	clock  clockwork.Clock
	logger *zerolog.Logger
	// queued, when set, runs once the caller holds gate and is about to
	// wait for data. Tests use it to observe a queued waiter.
	queued func()
	name   string
	value  T
	stats  counters
	slow   time.Duration
	mu     syncutil.FairMutex
}

// New returns a FairLock holding initial, with an unlocked gate.
func New[T any](initial T, opts ...Option) *FairLock[T] {
	o := options{
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &FairLock[T]{
		value:  initial,
		name:   o.name,
		slow:   o.slow,
		clock:  o.clock,
		logger: o.logger,
	}
}

// Lock blocks until the caller has exclusive access to the value and returns
// a Guard for it. The caller must call Guard.Unlock when done.
//
// The value is guarded by a syncutil.FairMutex: take gate, take data while
// still holding gate, then release gate. A goroutine waiting on data holds
// gate, so nobody arriving later can get past gate and overtake it.
func (l *FairLock[T]) Lock() *Guard[T] {
	var start time.Time
	contended := l.mu.LockNotify(func() { start = l.clock.Now() }, l.queued)

	var wait time.Duration
	if contended {
		wait = l.clock.Since(start)
	}
	l.record(contended, wait)

	return &Guard[T]{lock: l}
}

// Do runs fn with exclusive access to the value. The lock is released when
// fn returns, panics or calls runtime.Goexit.
func (l *FairLock[T]) Do(fn func(*T)) {
	g := l.Lock()
	defer g.Unlock()
	fn(g.Value())
}

// Name returns the label given with WithName, if any.
func (l *FairLock[T]) Name() string {
	return l.name
}

func (l *FairLock[T]) record(contended bool, wait time.Duration) {
	l.stats.acquisitions.Add(1)
	if !contended {
		return
	}

	l.stats.contended.Add(1)
	l.stats.observeWait(wait)

	if l.slow <= 0 || wait < l.slow {
		return
	}

	l.stats.slowWaits.Add(1)
	logger := l.logger
	if logger == nil {
		logger = &log.Logger
	}
	logger.Warn().
		Str("lock", l.name).
		Dur("wait", wait).
		Dur("threshold", l.slow).
		Msg("slow fair lock acquisition")
}

// Guard is held exclusive access to a FairLock's value.
//
// A Guard belongs to the goroutine that called Lock and must not be shared.
type Guard[T any] struct {
	lock     *FairLock[T]
	released bool
}

// Value returns a pointer to the guarded value. The pointer must not be used
// after Unlock. Value panics if the guard has already been released.
func (g *Guard[T]) Value() *T {
	if g.released {
		panic("fairlock: use of released guard")
	}
	return &g.lock.value
}

// Unlock releases the value. Only data is released; gate is not touched. Calling Unlock on a guard
// that was already released does nothing.
func (g *Guard[T]) Unlock() {
	if g.released {
		return
	}
	g.released = true
	g.lock.mu.Unlock()
}
