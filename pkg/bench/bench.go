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

// Package bench measures how fairly a lock hands itself over under
// contention.
//
// Every worker repeatedly takes the lock and appends its id to a shared
// sequence. A lock that lets the releasing goroutine barge straight back in
// produces long runs of one id; a fair lock alternates between waiters.
package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-fairlock/pkg/fairlock"
	"github.com/ZaparooProject/zaparoo-fairlock/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	KindPlain = "plain"
	KindGate  = "gate"
	KindFair  = "fair"
)

// Sample is the state shared by all workers of a run.
type Sample struct {
	Sequence []int
	Counter  int
}

// Guarded runs a function with exclusive access to a Sample.
// *fairlock.FairLock[Sample] satisfies it directly.
type Guarded interface {
	Do(fn func(*Sample))
}

type locker interface {
	Lock()
	Unlock()
}

type mutexGuarded[L locker] struct {
	mu     L
	sample Sample
}

func (m *mutexGuarded[L]) Do(fn func(*Sample)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.sample)
}

// NewGuarded returns an empty Sample behind the lock of the given kind.
// Options only apply to KindFair.
func NewGuarded(kind string, opts ...fairlock.Option) (Guarded, error) {
	switch kind {
	case KindPlain:
		return &mutexGuarded[*syncutil.Mutex]{mu: &syncutil.Mutex{}}, nil
	case KindGate:
		return &mutexGuarded[*syncutil.FairMutex]{mu: &syncutil.FairMutex{}}, nil
	case KindFair:
		return fairlock.New(Sample{}, opts...), nil
	default:
		return nil, fmt.Errorf("unknown lock kind: %s", kind)
	}
}

// Config controls a run.
type Config struct {
	Clock      clockwork.Clock
	Workers    int
	Iterations int
	Hold       time.Duration
}

// Report summarises a run.
type Report struct {
	Stats       *fairlock.Stats
	Kind        string
	Total       int
	Handoffs    int
	MaxStreak   int
	LostUpdates int
	Elapsed     time.Duration
}

// Run has cfg.Workers goroutines each take g cfg.Iterations times, holding
// it for cfg.Hold. It stops early if ctx is canceled.
func Run(ctx context.Context, kind string, cfg Config, g Guarded) (Report, error) {
	if cfg.Workers < 1 || cfg.Iterations < 1 {
		return Report{}, errors.New("workers and iterations must be positive")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	log.Debug().
		Str("kind", kind).
		Int("workers", cfg.Workers).
		Int("iterations", cfg.Iterations).
		Dur("hold", cfg.Hold).
		Msg("starting contention run")

	start := clock.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	for id := range cfg.Workers {
		eg.Go(func() error {
			for range cfg.Iterations {
				if err := egCtx.Err(); err != nil {
					return fmt.Errorf("worker %d: %w", id, err)
				}
				g.Do(func(s *Sample) {
					s.Sequence = append(s.Sequence, id)
					s.Counter++
					if cfg.Hold > 0 {
						clock.Sleep(cfg.Hold)
					}
				})
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Report{}, fmt.Errorf("contention run failed: %w", err)
	}
	elapsed := clock.Since(start)

	var report Report
	g.Do(func(s *Sample) {
		report = Analyze(s.Sequence)
		report.LostUpdates = cfg.Workers*cfg.Iterations - s.Counter
	})
	report.Kind = kind
	report.Elapsed = elapsed

	if sg, ok := g.(interface{ Stats() fairlock.Stats }); ok {
		stats := sg.Stats()
		report.Stats = &stats
	}

	log.Debug().
		Str("kind", kind).
		Int("handoffs", report.Handoffs).
		Int("max_streak", report.MaxStreak).
		Dur("elapsed", elapsed).
		Msg("contention run finished")

	return report, nil
}

// Analyze computes handoff metrics for an acquisition sequence of worker ids.
func Analyze(seq []int) Report {
	r := Report{Total: len(seq)}
	if len(seq) == 0 {
		return r
	}

	streak := 1
	r.MaxStreak = 1
	for i := 1; i < len(seq); i++ {
		if seq[i] != seq[i-1] {
			r.Handoffs++
			streak = 1
			continue
		}
		streak++
		if streak > r.MaxStreak {
			r.MaxStreak = streak
		}
	}
	return r
}

// Kinds returns the lock kinds selected by a config mode.
func Kinds(mode string) ([]string, error) {
	switch mode {
	case KindPlain, KindGate, KindFair:
		return []string{mode}, nil
	case "all":
		return []string{KindPlain, KindGate, KindFair}, nil
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
}

// Compare runs one contention run per kind, in order.
func Compare(ctx context.Context, kinds []string, cfg Config, opts ...fairlock.Option) ([]Report, error) {
	reports := make([]Report, 0, len(kinds))
	for _, kind := range kinds {
		g, err := NewGuarded(kind, opts...)
		if err != nil {
			return nil, err
		}
		r, err := Run(ctx, kind, cfg, g)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}
