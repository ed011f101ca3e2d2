// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package generator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
	"github.com/AleutianAI/casecorpus/services/corpus/schema"
)

func newTestGenerator(t *testing.T) (*Generator, *schema.Index) {
	t.Helper()
	idx, err := schema.Load(filepath.Join("testdata", "schema.json"))
	require.NoError(t, err)
	return New(idx, 42, 50), idx
}

func testDims(topic string) datatypes.Dimensions {
	return datatypes.Dimensions{
		Persona:        "notaire",
		Voice:          "courrier_formel",
		Format:         "paragraphe",
		LengthBand:     "moyen",
		Noise:          "propre",
		NumericDensity: "quelques_chiffres",
		DatePrecision:  "dates_exactes",
		Complexity:     "intermediaire",
		PrimaryTopic:   topic,
	}
}

func TestBuildIsDeterministicPerSequence(t *testing.T) {
	g, _ := newTestGenerator(t)
	d := testDims("assurance_vie")

	first, err := g.Build(d, 7)
	require.NoError(t, err)
	second, err := g.Build(d, 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := g.Build(d, 8)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestBuildPassesAllGatesForEveryTopic(t *testing.T) {
	g, idx := newTestGenerator(t)

	sequence := 0
	for name := range axes.Topics {
		sequence++
		t.Run(name, func(t *testing.T) {
			d := testDims(name)
			payload, err := g.Build(d, sequence)
			require.NoError(t, err)

			require.NoError(t, schema.ValidateSparse(payload))
			require.NoError(t, idx.ValidatePayload(payload))
			require.NoError(t, ValidateCoherence(payload, d))
			require.NoError(t, g.ValidateTopicAlignment(payload, d))

			famille := payload["famille"].(map[string]any)
			defunt := famille["defunt"].(map[string]any)
			assert.NotEmpty(t, defunt["nom"])
			assert.NotEmpty(t, defunt["statut_matrimonial"])
			assert.NotEmpty(t, defunt["date_deces"])
		})
	}
}

func TestBuildHonorsPersonaAnchors(t *testing.T) {
	g, _ := newTestGenerator(t)

	t.Run("partenaire_pacs forces a PACS couple", func(t *testing.T) {
		d := testDims("ordre_heritiers")
		d.Persona = "partenaire_pacs"
		payload, err := g.Build(d, 31)
		require.NoError(t, err)

		famille := payload["famille"].(map[string]any)
		defunt := famille["defunt"].(map[string]any)
		assert.Equal(t, "PACSE", defunt["statut_matrimonial"])

		partenaire := famille["partenaire"].(map[string]any)
		lien := partenaire["lien"].(map[string]any)
		assert.Equal(t, "PARTENAIRE_PACS", lien["type"])
	})

	t.Run("concubin keeps the decedent single with a named partner", func(t *testing.T) {
		d := testDims("pacs_concubinage")
		d.Persona = "concubin"
		payload, err := g.Build(d, 32)
		require.NoError(t, err)

		famille := payload["famille"].(map[string]any)
		defunt := famille["defunt"].(map[string]any)
		assert.Equal(t, "CELIBATAIRE", defunt["statut_matrimonial"])

		partenaire := famille["partenaire"].(map[string]any)
		assert.NotEmpty(t, partenaire["nom"])
	})

	t.Run("petit_enfant materializes the grandchild chain", func(t *testing.T) {
		d := testDims("ordre_heritiers")
		d.Persona = "petit_enfant"
		payload, err := g.Build(d, 33)
		require.NoError(t, err)

		require.True(t, pathExists(payload,
			schema.Path{"famille", "descendants", "petits_enfants", "*", "nom"}))
		require.True(t, pathExists(payload,
			schema.Path{"famille", "descendants", "petits_enfants", "*", "parent_nom"}))
	})
}

func TestBuildComplexityWidensTargets(t *testing.T) {
	g, _ := newTestGenerator(t)

	var countLeaves func(node any) int
	countLeaves = func(node any) int {
		switch v := node.(type) {
		case map[string]any:
			total := 0
			for _, child := range v {
				total += countLeaves(child)
			}
			return total
		case []any:
			total := 0
			for _, child := range v {
				total += countLeaves(child)
			}
			return total
		}
		return 1
	}

	simpleTotal, complexTotal := 0, 0
	for sequence := 100; sequence < 112; sequence++ {
		d := testDims("indivision_partage")
		d.Complexity = "simple"
		payload, err := g.Build(d, sequence)
		require.NoError(t, err)
		simpleTotal += countLeaves(payload)

		d.Complexity = "complexe"
		d.SecondaryTopic = "dettes_passif"
		payload, err = g.Build(d, sequence)
		require.NoError(t, err)
		complexTotal += countLeaves(payload)
	}
	assert.Greater(t, complexTotal, simpleTotal)
}

func TestSetPathCreatesListsAtMarker(t *testing.T) {
	payload := map[string]any{}
	setPath(payload, schema.Path{"liberalites", "donations", "*", "donateur_nom"}, "Jean Durand")
	setPath(payload, schema.Path{"liberalites", "donations", "*", "type"}, "DON_MANUEL")

	liberalites := payload["liberalites"].(map[string]any)
	donations := liberalites["donations"].([]any)
	require.Len(t, donations, 1)
	entry := donations[0].(map[string]any)
	assert.Equal(t, "Jean Durand", entry["donateur_nom"])
	assert.Equal(t, "DON_MANUEL", entry["type"])
}

func TestPathExists(t *testing.T) {
	payload := map[string]any{
		"patrimoine": map[string]any{
			"actifs": []any{
				map[string]any{"libelle": "Maison à Lyon"},
				map[string]any{"valeur": 250000},
			},
		},
	}
	assert.True(t, pathExists(payload, schema.Path{"patrimoine", "actifs", "*", "valeur"}))
	assert.True(t, pathExists(payload, schema.Path{"patrimoine", "actifs"}))
	assert.False(t, pathExists(payload, schema.Path{"patrimoine", "actifs", "*", "type"}))
	assert.False(t, pathExists(payload, schema.Path{"famille", "defunt"}))
}

func TestValidateCoherenceFlagsBrokenCases(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"famille": map[string]any{
				"defunt": map[string]any{
					"nom":                "Jean Durand",
					"statut_matrimonial": "MARIE",
					"date_deces":         "2024-03-10",
				},
				"partenaire": map[string]any{
					"nom":  "Marie Durand",
					"lien": map[string]any{"type": "CONJOINT"},
				},
			},
		}
	}
	d := testDims("ordre_heritiers")

	t.Run("married without partner", func(t *testing.T) {
		payload := base()
		delete(payload["famille"].(map[string]any), "partenaire")
		err := ValidateCoherence(payload, d)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "marié sans partenaire")
	})

	t.Run("single with a spouse link", func(t *testing.T) {
		payload := base()
		payload["famille"].(map[string]any)["defunt"].(map[string]any)["statut_matrimonial"] = "CELIBATAIRE"
		require.Error(t, ValidateCoherence(payload, d))
	})

	t.Run("implausible age", func(t *testing.T) {
		payload := base()
		payload["famille"].(map[string]any)["defunt"].(map[string]any)["age_au_deces"] = 140
		err := ValidateCoherence(payload, d)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invraisemblable")
	})

	t.Run("age and birth date diverge", func(t *testing.T) {
		payload := base()
		defunt := payload["famille"].(map[string]any)["defunt"].(map[string]any)
		defunt["age_au_deces"] = 70
		defunt["date_naissance"] = "1984-03-10"
		require.Error(t, ValidateCoherence(payload, d))
	})

	t.Run("insurance on a third party", func(t *testing.T) {
		payload := base()
		payload["assurance_vie"] = map[string]any{
			"contrats": []any{map[string]any{"assure_nom": "Paul Morel"}},
		}
		err := ValidateCoherence(payload, d)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "assuré sur un tiers")
	})

	t.Run("self donation", func(t *testing.T) {
		payload := base()
		payload["liberalites"] = map[string]any{
			"donations": []any{map[string]any{
				"donateur_nom":     "Jean Durand",
				"beneficiaire_nom": "Jean Durand",
			}},
		}
		require.Error(t, ValidateCoherence(payload, d))
	})

	t.Run("non positive asset value", func(t *testing.T) {
		payload := base()
		payload["patrimoine"] = map[string]any{
			"actifs": []any{map[string]any{"valeur": -5000}},
		}
		require.Error(t, ValidateCoherence(payload, d))
	})

	t.Run("topic minimum missing", func(t *testing.T) {
		payload := base()
		av := testDims("assurance_vie")
		err := ValidateCoherence(payload, av)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sans contrat")
	})

	t.Run("coherent case passes", func(t *testing.T) {
		require.NoError(t, ValidateCoherence(base(), d))
	})
}

func TestRepairValuationsForcesPositiveValues(t *testing.T) {
	payload := map[string]any{
		"patrimoine": map[string]any{
			"actifs":  []any{map[string]any{"valeur": -120000.0}},
			"passifs": []any{map[string]any{"valeur": 0}},
		},
	}
	repairValuations(payload)
	actifs := payload["patrimoine"].(map[string]any)["actifs"].([]any)
	passifs := payload["patrimoine"].(map[string]any)["passifs"].([]any)
	assert.Equal(t, 120001.0, actifs[0].(map[string]any)["valeur"])
	assert.Equal(t, 1, passifs[0].(map[string]any)["valeur"])
}
