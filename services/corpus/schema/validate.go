// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"fmt"
	"strings"
)

// errorList accumulates walk errors and renders a bounded preview.
type errorList struct {
	items []string
}

func (e *errorList) addf(format string, args ...any) {
	e.items = append(e.items, fmt.Sprintf(format, args...))
}

func (e *errorList) err(prefix string) error {
	if len(e.items) == 0 {
		return nil
	}
	preview := strings.Join(e.items[:min(3, len(e.items))], "; ")
	if len(e.items) > 3 {
		preview += "; ..."
	}
	return fmt.Errorf("%s: %s", prefix, preview)
}

// ValidatePayload walks a generated target and checks every path and
// scalar against the index: no unknown keys, lists only at list paths,
// scalars only at leaves, leaf values matching their spec.
func (idx *Index) ValidatePayload(payload map[string]any) error {
	errs := &errorList{}
	idx.validateNode(payload, nil, errs)
	return errs.err("target does not conform to master schema")
}

func (idx *Index) validateNode(node any, path Path, errs *errorList) {
	if !idx.IsPrefix(path) {
		errs.addf("chemin non autorisé: %s", path)
		return
	}

	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			childPath := path.Child(key)
			if !idx.IsPrefix(childPath) {
				errs.addf("clé inconnue: %s", childPath)
				continue
			}
			idx.validateNode(child, childPath, errs)
		}
	case []any:
		itemPath := path.Child(ListMarker)
		if !idx.IsPrefix(itemPath) {
			errs.addf("liste non autorisée: %s", path)
			return
		}
		for _, item := range v {
			idx.validateNode(item, itemPath, errs)
		}
	default:
		leaf := idx.LeafSpec(path)
		if leaf == nil {
			errs.addf("valeur scalaire à un chemin non-feuille: %s", path)
			return
		}
		if err := validateLeafValue(leaf, node); err != nil {
			errs.addf("%v", err)
		}
	}
}

// ValidateSparse enforces the sparse-target shape: no nulls, no empty
// objects, lists, or blank strings anywhere. Sparse targets omit what
// they do not assert.
func ValidateSparse(payload map[string]any) error {
	errs := &errorList{}
	sparseWalk(payload, nil, errs)
	return errs.err("target is not sparse")
}

func sparseWalk(node any, path Path, errs *errorList) {
	switch v := node.(type) {
	case nil:
		errs.addf("null interdit à %s", path)
	case map[string]any:
		if len(v) == 0 {
			errs.addf("objet vide interdit à %s", path)
			return
		}
		for key, value := range v {
			if key == "" {
				errs.addf("clé invalide à %s", path)
				continue
			}
			sparseWalk(value, path.Child(key), errs)
		}
	case []any:
		if len(v) == 0 {
			errs.addf("liste vide interdite à %s", path)
			return
		}
		for i, value := range v {
			sparseWalk(value, path.Child(fmt.Sprintf("[%d]", i)), errs)
		}
	case string:
		if strings.TrimSpace(v) == "" {
			errs.addf("string vide interdite à %s", path)
		}
	case bool, int, int64, float64:
	default:
		errs.addf("type non supporté à %s: %T", path, node)
	}
}
