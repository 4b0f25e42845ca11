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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-fairlock/pkg/fairlock"
	"github.com/ZaparooProject/zaparoo-fairlock/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "FAIRLOCK_CFG"
	ModePlain     = "plain"
	ModeGate      = "gate"
	ModeFair      = "fair"
	ModeAll       = "all"
)

type Values struct {
	Lock         Lock  `toml:"lock"`
	Bench        Bench `toml:"bench"`
	ConfigSchema int   `toml:"config_schema"`
	DebugLogging bool  `toml:"debug_logging"`
}

type Lock struct {
	SlowThreshold   Duration `toml:"slow_threshold" validate:"gte=0"`
	DeadlockTimeout Duration `toml:"deadlock_timeout" validate:"gte=0"`
}

type Bench struct {
	Mode       string   `toml:"mode" validate:"oneof=plain gate fair all"`
	Workers    int      `toml:"workers" validate:"min=1,max=1024"`
	Iterations int      `toml:"iterations" validate:"min=1,max=10000000"`
	Hold       Duration `toml:"hold" validate:"gte=0"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Lock: Lock{
		SlowThreshold:   Duration(100 * time.Millisecond),
		DeadlockTimeout: Duration(30 * time.Second),
	},
	Bench: Bench{
		Mode:       ModeAll,
		Workers:    8,
		Iterations: 10000,
	},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig loads the config file at cfgPath, or the path in CfgEnv if set.
// A missing file is created with the defaults.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(cfgPath string, defaults Values) (*Instance, error) {
	if envPath := os.Getenv(CfgEnv); envPath != "" {
		log.Debug().Msgf("env config path: %s", envPath)
		cfgPath = envPath
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	// This ensures fields not present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if err := validateValues(&newVals); err != nil {
		return err
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	// set current schema version
	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyOverrides sets values from dotted keys such as "bench.workers" or
// "lock.slow_threshold". Values are strings and converted to the field type.
// Nothing is changed if any key is unknown or the result fails validation.
func (c *Instance) ApplyOverrides(raw map[string]string) error {
	if len(raw) == 0 {
		return nil
	}

	nested := make(map[string]any)
	for key, value := range raw {
		section, field, ok := strings.Cut(key, ".")
		if !ok || field == "" {
			return fmt.Errorf("invalid override key %q", key)
		}
		m, _ := nested[section].(map[string]any)
		if m == nil {
			m = make(map[string]any)
			nested[section] = m
		}
		m[field] = value
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	newVals := c.vals
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &newVals,
		TagName:          "toml",
		WeaklyTypedInput: true,
		ErrorUnused:      true, // catches typos like "bench.wokers"
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToDurationHook(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(nested); err != nil {
		return fmt.Errorf("failed to decode overrides: %w", err)
	}

	if err := validateValues(&newVals); err != nil {
		return err
	}

	c.vals = newVals
	return nil
}

func validateValues(vals *Values) error {
	err := validate.Struct(vals)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatValidationError(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func formatValidationError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	field = strings.TrimPrefix(field, "values.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (c *Instance) Bench() Bench {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Bench
}

func (c *Instance) SlowThreshold() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Lock.SlowThreshold.Std()
}

func (c *Instance) DeadlockTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Lock.DeadlockTimeout.Std()
}

// LockOptions returns the fairlock options configured for a lock named name.
func (c *Instance) LockOptions(name string) []fairlock.Option {
	return []fairlock.Option{
		fairlock.WithName(name),
		fairlock.WithSlowThreshold(c.SlowThreshold()),
	}
}
