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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-fairlock/pkg/fairlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), CfgFile)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestNewConfig_CreatesDefaultFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", CfgFile)
	cfg, err := NewConfig(path, BaseDefaults)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written to disk")

	assert.Equal(t, BaseDefaults.Bench, cfg.Bench())
	assert.Equal(t, 100*time.Millisecond, cfg.SlowThreshold())
	assert.Equal(t, 30*time.Second, cfg.DeadlockTimeout())
	assert.False(t, cfg.DebugLogging())
	assert.Equal(t, path, cfg.Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "slow_threshold")
	assert.Contains(t, string(data), "100ms")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `config_schema = 1
debug_logging = true

[lock]
slow_threshold = '5ms'

[bench]
mode = 'fair'
workers = 4
`)

	cfg, err := NewConfig(path, BaseDefaults)
	require.NoError(t, err)

	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, 5*time.Millisecond, cfg.SlowThreshold())
	assert.Equal(t, 30*time.Second, cfg.DeadlockTimeout(), "unset keys keep defaults")

	bench := cfg.Bench()
	assert.Equal(t, ModeFair, bench.Mode)
	assert.Equal(t, 4, bench.Workers)
	assert.Equal(t, BaseDefaults.Bench.Iterations, bench.Iterations)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{
			name:     "schema mismatch",
			contents: "config_schema = 2\n",
			wantErr:  "schema version mismatch",
		},
		{
			name:     "bad toml",
			contents: "config_schema = \n",
			wantErr:  "failed to unmarshal config",
		},
		{
			name:     "bad duration",
			contents: "config_schema = 1\n[lock]\nslow_threshold = 'soon'\n",
			wantErr:  "failed to unmarshal config",
		},
		{
			name:     "bad mode",
			contents: "config_schema = 1\n[bench]\nmode = 'random'\n",
			wantErr:  "bench.mode must be one of: plain gate fair all",
		},
		{
			name:     "zero workers",
			contents: "config_schema = 1\n[bench]\nworkers = 0\n",
			wantErr:  "bench.workers must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewConfig(writeConfig(t, tt.contents), BaseDefaults)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), CfgFile)
	cfg, err := NewConfig(path, BaseDefaults)
	require.NoError(t, err)

	require.NoError(t, cfg.ApplyOverrides(map[string]string{
		"bench.hold":          "2ms",
		"lock.slow_threshold": "1s",
	}))
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(path, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Millisecond, reloaded.Bench().Hold.Std())
	assert.Equal(t, time.Second, reloaded.SlowThreshold())
}

func TestApplyOverrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     map[string]string
		check   func(t *testing.T, cfg *Instance)
		name    string
		wantErr string
	}{
		{
			name: "typed values",
			raw: map[string]string{
				"bench.workers":    "3",
				"bench.iterations": "50",
				"bench.mode":       "plain",
				"bench.hold":       "1ms",
			},
			check: func(t *testing.T, cfg *Instance) {
				t.Helper()
				assert.Equal(t, Bench{Mode: ModePlain, Workers: 3, Iterations: 50, Hold: Duration(time.Millisecond)}, cfg.Bench())
			},
		},
		{
			name: "empty is a no-op",
			raw:  nil,
			check: func(t *testing.T, cfg *Instance) {
				t.Helper()
				assert.Equal(t, BaseDefaults.Bench, cfg.Bench())
			},
		},
		{
			name:    "unknown key",
			raw:     map[string]string{"bench.wokers": "3"},
			wantErr: "failed to decode overrides",
		},
		{
			name:    "missing section",
			raw:     map[string]string{"workers": "3"},
			wantErr: `invalid override key "workers"`,
		},
		{
			name:    "invalid value keeps old config",
			raw:     map[string]string{"bench.workers": "5000"},
			wantErr: "bench.workers must be at most 1024",
		},
		{
			name:    "bad duration",
			raw:     map[string]string{"lock.slow_threshold": "later"},
			wantErr: "failed to decode overrides",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := NewConfig(filepath.Join(t.TempDir(), CfgFile), BaseDefaults)
			require.NoError(t, err)

			err = cfg.ApplyOverrides(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, BaseDefaults.Bench, cfg.Bench())
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLockOptions(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(filepath.Join(t.TempDir(), CfgFile), BaseDefaults)
	require.NoError(t, err)

	l := fairlock.New(0, cfg.LockOptions("bench")...)
	assert.Equal(t, "bench", l.Name())
}

func TestLoad_NoPath(t *testing.T) {
	t.Parallel()

	cfg := &Instance{}
	require.EqualError(t, cfg.Load(), "config path not set")
	require.EqualError(t, cfg.Save(), "config path not set")
}
