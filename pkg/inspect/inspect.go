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

// Package inspect connects a fairlock.FairLock to an introspection layer.
//
// The lock package knows nothing about reflection. This package defines the
// narrow capabilities it needs (Reflector, Climber, Tracker) and the
// functions that run them under a FairLock. NodeReflector, PathClimber and
// the YAML/TOML trackers are the implementations shipped here.
package inspect

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-fairlock/pkg/fairlock"
)

var (
	// ErrNeedMutPath is returned by Climber.AccessImmut when the traversal
	// can only succeed with mutable access, for example to materialise a
	// lazily built field.
	ErrNeedMutPath = errors.New("climb needs mutable access")
	// ErrPathNotFound is returned when a climb path does not resolve.
	ErrPathNotFound = errors.New("path not found")
)

// Reflector produces a read-only structural view of a value.
type Reflector interface {
	Reflect(v any) (*Node, error)
}

// Climber walks into a value for interactive inspection. A Climber carries
// its own progress, so Clone must return an independent copy that can be
// restored if a traversal has to be retried.
type Climber interface {
	Clone() Climber
	AccessImmut(v any) (*Node, error)
	AccessMut(v any) (*Node, error)
}

// Tracker is a source of structured data that can be decoded into a value.
type Tracker interface {
	Decode(v any) error
}

// Reflect returns r's view of the value guarded by l.
func Reflect[T any](l *fairlock.FairLock[T], r Reflector) (*Node, error) {
	g := l.Lock()
	defer g.Unlock()

	n, err := r.Reflect(g.Value())
	if err != nil {
		return nil, fmt.Errorf("failed to reflect value: %w", err)
	}
	return n, nil
}

// ClimbImmut climbs into the value guarded by l without mutating it. If the
// climber reports ErrNeedMutPath, *c is restored to its state before the
// attempt and the climb is retried with mutable access. The lock is
// released between the two attempts.
func ClimbImmut[T any](l *fairlock.FairLock[T], c *Climber) (*Node, error) {
	saved := (*c).Clone()

	n, err := climbOnce(l, *c, Climber.AccessImmut)
	if !errors.Is(err, ErrNeedMutPath) {
		return n, err
	}

	*c = saved
	return climbOnce(l, *c, Climber.AccessMut)
}

// ClimbMut climbs into the value guarded by l with mutable access.
func ClimbMut[T any](l *fairlock.FairLock[T], c Climber) (*Node, error) {
	return climbOnce(l, c, Climber.AccessMut)
}

func climbOnce[T any](
	l *fairlock.FairLock[T],
	c Climber,
	access func(Climber, any) (*Node, error),
) (*Node, error) {
	g := l.Lock()
	defer g.Unlock()
	return access(c, g.Value())
}
