// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema loads the master extraction schema and answers path
// queries against it.
//
// The master schema is a custom nested description, not JSON Schema: objects
// nest freely, arrays carry a single object template, and a leaf is an
// object holding only metadata keys (description, type, valeurs_possibles,
// pickOne). The index flattens that tree once at startup into leaf specs and
// prefix sets; every later query is a map lookup.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"
)

// ListMarker is the path segment standing for "any element of this list".
const ListMarker = "*"

// Path is a sequence of object keys and list markers from the schema root.
type Path []string

// String renders the path dot-joined, "<root>" for the empty path.
func (p Path) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	return strings.Join(p, ".")
}

// Key returns the internal map key for the path.
func (p Path) Key() string {
	return strings.Join(p, ".")
}

// Child returns a new path extended by one segment.
func (p Path) Child(segment string) Path {
	child := make(Path, 0, len(p)+1)
	child = append(child, p...)
	return append(child, segment)
}

// HasPrefix reports whether p starts with prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(p) < len(prefix) {
		return false
	}
	for i, seg := range prefix {
		if p[i] != seg {
			return false
		}
	}
	return true
}

// LeafKey returns the local key naming the leaf: the last segment, or the
// one before a trailing list marker.
func (p Path) LeafKey() string {
	if len(p) == 0 {
		return ""
	}
	if p[len(p)-1] == ListMarker && len(p) >= 2 {
		return p[len(p)-2]
	}
	return p[len(p)-1]
}

// Contains reports whether any segment equals token.
func (p Path) Contains(token string) bool {
	for _, seg := range p {
		if seg == token {
			return true
		}
	}
	return false
}

// Kind is the scalar kind a leaf accepts.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBoolean
	KindDate
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	}
	return "unknown"
}

// Leaf is one terminal schema path with its scalar spec.
type Leaf struct {
	Path        Path
	Kind        Kind
	Enum        []string
	Description string
}

// Index answers constant-time path queries over the loaded schema.
type Index struct {
	nodes  map[string]struct{}
	leaves map[string]*Leaf
	// ordered keeps leaves in deterministic (sorted) path order so seeded
	// sampling is reproducible across runs.
	ordered []*Leaf
}

// leaf metadata keys recognized by the description format. Anything else in
// a leaf-shaped object makes the node structural.
var leafMetaKeys = map[string]struct{}{
	"description":       {},
	"type":              {},
	"valeurs_possibles": {},
	"pickOne":           {},
}

// Load parses the master schema file and builds the index. Unknown node
// kinds fail the load; the generator must never run against a partially
// understood schema.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("master schema: %w", err)
	}
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("master schema %s: %w", path, err)
	}
	rootObj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("master schema %s: root must be an object", path)
	}
	return Build(rootObj)
}

// Build indexes an already-decoded schema tree.
func Build(root map[string]any) (*Index, error) {
	idx := &Index{
		nodes:  map[string]struct{}{"": {}},
		leaves: map[string]*Leaf{},
	}
	if err := idx.walk(root, nil); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(idx.leaves))
	for k := range idx.leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	idx.ordered = make([]*Leaf, 0, len(keys))
	for _, k := range keys {
		idx.ordered = append(idx.ordered, idx.leaves[k])
	}
	return idx, nil
}

func (idx *Index) walk(node any, path Path) error {
	idx.nodes[path.Key()] = struct{}{}

	switch v := node.(type) {
	case map[string]any:
		if isLeafSpec(v) {
			leaf, err := leafFromSpec(path, v)
			if err != nil {
				return err
			}
			idx.leaves[path.Key()] = leaf
			return nil
		}
		for key, child := range v {
			if key == "" {
				return fmt.Errorf("schema: empty key under %s", path)
			}
			if err := idx.walk(child, path.Child(key)); err != nil {
				return err
			}
		}
		return nil
	case []any:
		item := path.Child(ListMarker)
		idx.nodes[item.Key()] = struct{}{}
		if len(v) > 0 {
			return idx.walk(v[0], item)
		}
		return nil
	default:
		return fmt.Errorf("schema: unknown node kind %T at %s", node, path)
	}
}

func isLeafSpec(node map[string]any) bool {
	if len(node) == 0 {
		return false
	}
	hasMeta := false
	for key := range node {
		if _, ok := leafMetaKeys[key]; !ok {
			return false
		}
		hasMeta = true
	}
	if !hasMeta {
		return false
	}
	// Structural nodes may legitimately use "type" as a child object key.
	if _, ok := node["type"].(map[string]any); ok {
		return false
	}
	return true
}

func leafFromSpec(path Path, spec map[string]any) (*Leaf, error) {
	leaf := &Leaf{Path: append(Path{}, path...)}
	if desc, ok := spec["description"].(string); ok {
		leaf.Description = desc
	}

	if values := enumValues(spec); len(values) > 0 {
		leaf.Kind = KindEnum
		leaf.Enum = values
		return leaf, nil
	}

	declared, _ := spec["type"].(string)
	switch declared {
	case "", "string":
		leaf.Kind = KindString
	case "integer":
		leaf.Kind = KindInteger
	case "number":
		leaf.Kind = KindNumber
	case "boolean":
		leaf.Kind = KindBoolean
	case "date":
		leaf.Kind = KindDate
	default:
		return nil, fmt.Errorf("schema: unknown scalar type %q at %s", declared, path)
	}
	// Date-valued string leaves are recognized by their key so validation
	// can normalize them to ISO day strings.
	if leaf.Kind == KindString && looksLikeDateKey(path.LeafKey()) {
		leaf.Kind = KindDate
	}
	return leaf, nil
}

func looksLikeDateKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.HasPrefix(lower, "date_") || lower == "date" ||
		strings.HasSuffix(lower, "_date")
}

func enumValues(spec map[string]any) []string {
	raw, ok := spec["valeurs_possibles"].([]any)
	if !ok {
		raw, ok = spec["pickOne"].([]any)
	}
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				values = append(values, trimmed)
			}
		}
	}
	return values
}

// IsLeaf reports whether path names a leaf.
func (idx *Index) IsLeaf(path Path) bool {
	_, ok := idx.leaves[path.Key()]
	return ok
}

// LeafSpec returns the leaf spec for path, or nil.
func (idx *Index) LeafSpec(path Path) *Leaf {
	return idx.leaves[path.Key()]
}

// IsPrefix reports whether path names any known node (leaf or structural).
func (idx *Index) IsPrefix(path Path) bool {
	_, ok := idx.nodes[path.Key()]
	return ok
}

// EnumValues returns the enum set of the leaf at path, or nil.
func (idx *Index) EnumValues(path Path) []string {
	if leaf := idx.leaves[path.Key()]; leaf != nil {
		return leaf.Enum
	}
	return nil
}

// Leaves returns every leaf in deterministic path order.
func (idx *Index) Leaves() []*Leaf {
	return idx.ordered
}

// LeavesUnder returns every leaf whose path starts with prefix, in
// deterministic order.
func (idx *Index) LeavesUnder(prefix Path) []*Leaf {
	var out []*Leaf
	for _, leaf := range idx.ordered {
		if leaf.Path.HasPrefix(prefix) {
			out = append(out, leaf)
		}
	}
	return out
}

// ValidateLeaf checks one scalar against the leaf spec at path.
func (idx *Index) ValidateLeaf(path Path, value any) error {
	leaf := idx.leaves[path.Key()]
	if leaf == nil {
		return fmt.Errorf("unknown leaf path %s", path)
	}
	return validateLeafValue(leaf, value)
}

func validateLeafValue(leaf *Leaf, value any) error {
	switch leaf.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string at %s", leaf.Path)
		}
	case KindDate:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected date string at %s", leaf.Path)
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("expected ISO-8601 day at %s, got %q", leaf.Path, s)
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean at %s", leaf.Path)
		}
	case KindInteger:
		f, ok := numeric(value)
		if !ok {
			return fmt.Errorf("expected integer at %s", leaf.Path)
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("expected whole number at %s, got %v", leaf.Path, value)
		}
	case KindNumber:
		if _, ok := numeric(value); !ok {
			return fmt.Errorf("expected number at %s", leaf.Path)
		}
	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected enum string at %s", leaf.Path)
		}
		for _, allowed := range leaf.Enum {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("value %q outside enum at %s (allowed: %s)",
			s, leaf.Path, strings.Join(leaf.Enum, ", "))
	}
	return nil
}

// numeric widens every JSON-decodable numeric representation to float64.
// Booleans are not numbers.
func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
