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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	strTag  = "!!str"
	nullTag = "!!null"
)

// Lazy is implemented by values with fields that are only built on demand.
// A climb into such a field needs mutable access so Materialize can run.
type Lazy interface {
	Materialize()
}

// PathClimber walks a dotted path such as "media.0.title" through a value's
// YAML encoding. When a new scalar is set with Set, AccessMut writes it back
// into the value.
type PathClimber struct {
	assign *string
	path   []string
}

// NewPathClimber returns a climber for the dotted path. An empty path
// addresses the whole value.
func NewPathClimber(path string) *PathClimber {
	c := &PathClimber{}
	if path != "" {
		c.path = strings.Split(path, ".")
	}
	return c
}

// Set makes the climb assign value to the scalar at the path. Assignment is
// only possible through AccessMut.
func (c *PathClimber) Set(value string) *PathClimber {
	c.assign = &value
	return c
}

// Path returns the climb path in dotted form.
func (c *PathClimber) Path() string {
	return strings.Join(c.path, ".")
}

// Clone implements Climber.
func (c *PathClimber) Clone() Climber {
	clone := &PathClimber{path: append([]string(nil), c.path...)}
	if c.assign != nil {
		v := *c.assign
		clone.assign = &v
	}
	return clone
}

// AccessImmut implements Climber. It returns ErrNeedMutPath when the climb
// assigns, or when the path is missing from a Lazy value.
func (c *PathClimber) AccessImmut(v any) (*Node, error) {
	if c.assign != nil {
		return nil, ErrNeedMutPath
	}

	doc, err := encodeNode(v)
	if err != nil {
		return nil, err
	}

	n, err := walk(doc, c.path)
	if err != nil {
		if _, ok := v.(Lazy); ok {
			return nil, ErrNeedMutPath
		}
		return nil, err
	}
	return fromYAML(n, c.key()), nil
}

// AccessMut implements Climber. v must be a pointer when assigning. The
// returned node is read back from v after the assignment.
func (c *PathClimber) AccessMut(v any) (*Node, error) {
	if lz, ok := v.(Lazy); ok {
		lz.Materialize()
	}

	doc, err := encodeNode(v)
	if err != nil {
		return nil, err
	}

	n, err := walk(doc, c.path)
	if err != nil {
		return nil, err
	}

	if c.assign == nil {
		return fromYAML(n, c.key()), nil
	}

	if err := assignScalar(n, *c.assign); err != nil {
		return nil, fmt.Errorf("failed to assign %q at %q: %w", *c.assign, c.Path(), err)
	}
	if err := doc.Decode(v); err != nil {
		return nil, fmt.Errorf("failed to assign %q at %q: %w", *c.assign, c.Path(), err)
	}

	doc, err = encodeNode(v)
	if err != nil {
		return nil, err
	}
	n, err = walk(doc, c.path)
	if err != nil {
		return nil, err
	}
	return fromYAML(n, c.key()), nil
}

// assignScalar replaces the text of scalar n. The new text is resolved the
// way a plain YAML scalar would be, except that a string stays a string:
// assigning "null" or "true" to a string field stores that literal text.
// Assigning null to anything that is not already null is rejected, since
// decoding it would leave the field untouched.
func assignScalar(n *yaml.Node, value string) error {
	if n.Kind != yaml.ScalarNode {
		return errors.New("not a scalar")
	}

	was := n.ShortTag()
	n.Value = value
	n.Tag = ""
	n.Style = 0

	now := n.ShortTag()
	switch {
	case was == strTag && now != strTag:
		n.Tag = strTag
	case now == nullTag && was != nullTag:
		return fmt.Errorf("cannot assign null to %s", was)
	}
	return nil
}

func (c *PathClimber) key() string {
	if len(c.path) == 0 {
		return ""
	}
	return c.path[len(c.path)-1]
}

func walk(doc *yaml.Node, path []string) (*yaml.Node, error) {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}

	for i, seg := range path {
		next, ok := child(n, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, strings.Join(path[:i+1], "."))
		}
		n = next
	}
	return n, nil
}

func child(n *yaml.Node, seg string) (*yaml.Node, bool) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == seg {
				return n.Content[i+1], true
			}
		}
	case yaml.SequenceNode:
		idx, err := strconv.Atoi(seg)
		if err == nil && idx >= 0 && idx < len(n.Content) {
			return n.Content[idx], true
		}
	case yaml.AliasNode:
		return child(n.Alias, seg)
	}
	return nil, false
}
