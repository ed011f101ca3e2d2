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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Load(filepath.Join("testdata", "schema.json"))
	require.NoError(t, err)
	return idx
}

func TestLoadIndex(t *testing.T) {
	idx := loadTestIndex(t)

	assert.True(t, idx.IsLeaf(Path{"famille", "defunt", "nom"}))
	assert.True(t, idx.IsLeaf(Path{"famille", "descendants", "enfants", "*", "nom"}))
	assert.False(t, idx.IsLeaf(Path{"famille", "defunt"}))

	assert.True(t, idx.IsPrefix(Path{"famille", "descendants", "enfants", "*"}))
	assert.True(t, idx.IsPrefix(nil))
	assert.False(t, idx.IsPrefix(Path{"inconnu"}))

	leaf := idx.LeafSpec(Path{"famille", "defunt", "statut_matrimonial"})
	require.NotNil(t, leaf)
	assert.Equal(t, KindEnum, leaf.Kind)
	assert.Contains(t, leaf.Enum, "MARIE")

	// pickOne behaves like valeurs_possibles, and a structural node may
	// use "type" as a child key.
	regime := idx.LeafSpec(Path{"famille", "defunt", "regime_matrimonial", "type"})
	require.NotNil(t, regime)
	assert.Equal(t, KindEnum, regime.Kind)

	// Date-named string leaves validate as ISO days.
	deces := idx.LeafSpec(Path{"famille", "defunt", "date_deces"})
	require.NotNil(t, deces)
	assert.Equal(t, KindDate, deces.Kind)
}

func TestLeavesUnderIsOrdered(t *testing.T) {
	idx := loadTestIndex(t)

	leaves := idx.LeavesUnder(Path{"famille", "descendants"})
	require.Len(t, leaves, 4)
	previous := ""
	for _, leaf := range leaves {
		key := leaf.Path.Key()
		assert.Greater(t, key, previous)
		previous = key
	}
}

func TestBuildRejectsUnknownNodes(t *testing.T) {
	_, err := Build(map[string]any{"famille": map[string]any{"defunt": "scalar"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node kind")

	_, err = Build(map[string]any{"x": map[string]any{"type": "enterprise"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scalar type")
}

func TestValidateLeaf(t *testing.T) {
	idx := loadTestIndex(t)

	t.Run("string", func(t *testing.T) {
		require.NoError(t, idx.ValidateLeaf(Path{"famille", "defunt", "nom"}, "Jean Durand"))
		require.Error(t, idx.ValidateLeaf(Path{"famille", "defunt", "nom"}, 12))
	})

	t.Run("enum", func(t *testing.T) {
		path := Path{"famille", "defunt", "statut_matrimonial"}
		require.NoError(t, idx.ValidateLeaf(path, "MARIE"))
		require.Error(t, idx.ValidateLeaf(path, "FIANCE"))
	})

	t.Run("number accepts ints and floats", func(t *testing.T) {
		path := Path{"famille", "defunt", "age_au_deces"}
		require.NoError(t, idx.ValidateLeaf(path, 70))
		require.NoError(t, idx.ValidateLeaf(path, 70.5))
		require.Error(t, idx.ValidateLeaf(path, true))
	})

	t.Run("date", func(t *testing.T) {
		path := Path{"famille", "defunt", "date_deces"}
		require.NoError(t, idx.ValidateLeaf(path, "2024-02-29"))
		require.Error(t, idx.ValidateLeaf(path, "février 2024"))
	})
}

func TestValidatePayload(t *testing.T) {
	idx := loadTestIndex(t)

	t.Run("conforming", func(t *testing.T) {
		payload := map[string]any{
			"famille": map[string]any{
				"defunt": map[string]any{
					"nom":                "Jean Durand",
					"statut_matrimonial": "MARIE",
					"date_deces":         "2024-03-10",
				},
				"descendants": map[string]any{
					"enfants": []any{
						map[string]any{"nom": "Claire Durand", "est_mineur": false},
					},
				},
			},
		}
		require.NoError(t, idx.ValidatePayload(payload))
	})

	t.Run("unknown key", func(t *testing.T) {
		err := idx.ValidatePayload(map[string]any{
			"famille": map[string]any{"defunt": map[string]any{"surnom": "Jeannot"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "clé inconnue")
	})

	t.Run("scalar at structural path", func(t *testing.T) {
		err := idx.ValidatePayload(map[string]any{"famille": "texte"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-feuille")
	})

	t.Run("list where object expected", func(t *testing.T) {
		err := idx.ValidatePayload(map[string]any{
			"famille": map[string]any{"defunt": []any{map[string]any{}}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "liste non autorisée")
	})
}

func TestValidateSparse(t *testing.T) {
	t.Run("dense payload passes", func(t *testing.T) {
		require.NoError(t, ValidateSparse(map[string]any{
			"famille": map[string]any{"defunt": map[string]any{"nom": "Jean", "age_au_deces": 70}},
		}))
	})

	for name, payload := range map[string]map[string]any{
		"null":         {"famille": nil},
		"empty object": {"famille": map[string]any{}},
		"empty list":   {"enfants": []any{}},
		"blank string": {"nom": "   "},
	} {
		t.Run(name+" rejected", func(t *testing.T) {
			require.Error(t, ValidateSparse(payload))
		})
	}
}
