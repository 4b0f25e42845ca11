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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/ZaparooProject/zaparoo-fairlock/pkg/bench"
	"github.com/ZaparooProject/zaparoo-fairlock/pkg/config"
	"github.com/ZaparooProject/zaparoo-fairlock/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-fairlock/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, config.AppName)
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)

	cfgPath := fs.String(
		"config",
		filepath.Join(defaultConfigDir(), config.CfgFile),
		"path to config file",
	)
	logDir := fs.String(
		"logdir",
		os.TempDir(),
		"directory for the log file",
	)
	mode := fs.String(
		"mode",
		"",
		"lock kinds to run: plain, gate, fair or all",
	)
	workers := fs.Int(
		"workers",
		0,
		"number of competing goroutines",
	)
	iterations := fs.Int(
		"iterations",
		0,
		"acquisitions per goroutine",
	)
	hold := fs.String(
		"hold",
		"",
		"time to hold the lock per acquisition (e.g. 50us)",
	)
	debug := fs.Bool(
		"debug",
		false,
		"enable debug logging",
	)
	version := fs.Bool(
		"version",
		false,
		"print version and exit",
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *version {
		_, _ = fmt.Fprintf(out, "fairbench v%s\n", config.AppVersion)
		return nil
	}

	var logWriters []io.Writer
	if *debug {
		logWriters = []io.Writer{os.Stderr}
	}
	if err := helpers.InitLogging(*logDir, logWriters); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(*cfgPath, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	cfg.SetDebugLogging(*debug || cfg.DebugLogging())

	overrides := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			overrides["bench.mode"] = *mode
		case "workers":
			overrides["bench.workers"] = strconv.Itoa(*workers)
		case "iterations":
			overrides["bench.iterations"] = strconv.Itoa(*iterations)
		case "hold":
			overrides["bench.hold"] = *hold
		}
	})
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	syncutil.SetDeadlockTimeout(cfg.DeadlockTimeout())

	settings := cfg.Bench()
	kinds, err := bench.Kinds(settings.Mode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("mode", settings.Mode).
		Int("workers", settings.Workers).
		Int("iterations", settings.Iterations).
		Msg("running fairness benchmark")

	reports, err := bench.Compare(ctx, kinds, bench.Config{
		Workers:    settings.Workers,
		Iterations: settings.Iterations,
		Hold:       settings.Hold.Std(),
	}, cfg.LockOptions(config.AppName)...)
	if err != nil {
		return err
	}

	return printReports(out, reports)
}
