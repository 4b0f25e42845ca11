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

package inspect

import (
	"fmt"
	"io"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// YAMLTracker decodes a single YAML document from a reader.
type YAMLTracker struct {
	r io.Reader
}

// NewYAMLTracker returns a Tracker reading YAML from r.
func NewYAMLTracker(r io.Reader) *YAMLTracker {
	return &YAMLTracker{r: r}
}

// Decode implements Tracker.
func (t *YAMLTracker) Decode(v any) error {
	dec := yaml.NewDecoder(t.r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode yaml: %w", err)
	}
	return nil
}

// TOMLTracker decodes a TOML document from a reader.
type TOMLTracker struct {
	r io.Reader
}

// NewTOMLTracker returns a Tracker reading TOML from r.
func NewTOMLTracker(r io.Reader) *TOMLTracker {
	return &TOMLTracker{r: r}
}

// Decode implements Tracker.
func (t *TOMLTracker) Decode(v any) error {
	dec := toml.NewDecoder(t.r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode toml: %w", err)
	}
	return nil
}
