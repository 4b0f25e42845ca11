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
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind is the shape of a Node.
type Kind string

const (
	KindMap    Kind = "map"
	KindSeq    Kind = "seq"
	KindScalar Kind = "scalar"
)

// Node is one element of a reflected value tree.
type Node struct {
	Kind     Kind    `json:"kind" yaml:"kind"`
	Key      string  `json:"key,omitempty" yaml:"key,omitempty"`
	Tag      string  `json:"tag,omitempty" yaml:"tag,omitempty"`
	Value    string  `json:"value,omitempty" yaml:"value,omitempty"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Child returns the direct child with the given key, or nil.
func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// encodeNode encodes v into a yaml document and returns its root node.
func encodeNode(v any) (*yaml.Node, error) {
	var doc yaml.Node
	if err := doc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return &doc, nil
}

func fromYAML(n *yaml.Node, key string) *Node {
	for n.Kind == yaml.DocumentNode || n.Kind == yaml.AliasNode {
		if n.Kind == yaml.AliasNode {
			n = n.Alias
			continue
		}
		if len(n.Content) == 0 {
			return &Node{Kind: KindScalar, Key: key, Tag: nullTag}
		}
		n = n.Content[0]
	}

	out := &Node{Key: key, Tag: n.ShortTag()}
	switch n.Kind {
	case yaml.MappingNode:
		out.Kind = KindMap
		for i := 0; i+1 < len(n.Content); i += 2 {
			out.Children = append(out.Children, fromYAML(n.Content[i+1], n.Content[i].Value))
		}
	case yaml.SequenceNode:
		out.Kind = KindSeq
		for i, c := range n.Content {
			out.Children = append(out.Children, fromYAML(c, strconv.Itoa(i)))
		}
	default:
		out.Kind = KindScalar
		out.Value = n.Value
	}
	return out
}

// NodeReflector reflects values through their YAML encoding. Fields are
// named by their yaml tags.
type NodeReflector struct{}

// Reflect implements Reflector.
func (NodeReflector) Reflect(v any) (*Node, error) {
	doc, err := encodeNode(v)
	if err != nil {
		return nil, err
	}
	return fromYAML(doc, ""), nil
}
