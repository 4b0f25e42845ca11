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
	"sync/atomic"
	"time"
)

// Stats is a snapshot of a FairLock's acquisition counters.
type Stats struct {
	// Acquisitions counts every successful Lock.
	Acquisitions uint64
	// Contended counts acquisitions that had to wait on gate or data.
	Contended uint64
	// SlowWaits counts contended acquisitions at or over the slow threshold.
	SlowWaits uint64
	// MaxWait is the longest contended wait seen.
	MaxWait time.Duration
}

type counters struct {
	acquisitions atomic.Uint64
	contended    atomic.Uint64
	slowWaits    atomic.Uint64
	maxWait      atomic.Int64
}

func (c *counters) observeWait(wait time.Duration) {
	for {
		cur := c.maxWait.Load()
		if int64(wait) <= cur {
			return
		}
		if c.maxWait.CompareAndSwap(cur, int64(wait)) {
			return
		}
	}
}

// Stats returns the current counters. It may be called concurrently with
// Lock and does not take the lock.
func (l *FairLock[T]) Stats() Stats {
	return Stats{
		Acquisitions: l.stats.acquisitions.Load(),
		Contended:    l.stats.contended.Load(),
		SlowWaits:    l.stats.slowWaits.Load(),
		MaxWait:      time.Duration(l.stats.maxWait.Load()),
	}
}
