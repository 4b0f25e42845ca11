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
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type options struct {
	clock  clockwork.Clock
	logger *zerolog.Logger
	name   string
	slow   time.Duration
}

// Option configures a FairLock.
type Option func(*options)

// WithName labels the lock in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithSlowThreshold logs a warning whenever a contended acquisition waits at
// least d. Zero disables the warning.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) {
		o.slow = d
	}
}

// WithLogger sends slow acquisition warnings to logger instead of the global
// zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithClock sets the clock used to time contended acquisitions.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}
