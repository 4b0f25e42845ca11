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

// FairMutex is a mutual exclusion lock that stops a goroutine which just
// released the lock from barging back in ahead of one that is already
// waiting for it.
//
// Two mutexes cooperate: gate admits one goroutine at a time into the wait
// for data, and data is the lock proper. A waiter blocked on data holds gate,
// so no later caller can even start competing for data until the waiter has
// it. Only the one-ahead property is enforced; with many waiters the order
// among those parked on gate is up to the runtime.
//
// FairMutex is not reentrant. Locking it twice from the same goroutine
// deadlocks. The zero value is an unlocked mutex.
type FairMutex struct {
	gate Mutex
	data Mutex
}

// Lock acquires the mutex, blocking until it is available.
func (m *FairMutex) Lock() {
	m.LockNotify(nil, nil)
}

// LockNotify acquires the mutex like Lock and reports whether the caller had
// to wait. Either callback may be nil. waiting runs once, just before the
// caller first blocks. queued runs while the caller holds gate and is about
// to block on data.
//
// The uncontended path takes both mutexes with TryLock and calls neither
// callback.
func (m *FairMutex) LockNotify(waiting, queued func()) bool {
	contended := false

	if !m.gate.TryLock() {
		contended = true
		if waiting != nil {
			waiting()
		}
		m.gate.Lock()
	}

	if !m.data.TryLock() {
		if !contended {
			contended = true
			if waiting != nil {
				waiting()
			}
		}
		if queued != nil {
			queued()
		}
		m.data.Lock()
	}

	// gate must be released only once data is held, never before.
	m.gate.Unlock()
	return contended
}

// Unlock releases the mutex. It does not touch gate.
func (m *FairMutex) Unlock() {
	m.data.Unlock()
}
