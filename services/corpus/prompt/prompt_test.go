// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
)

func plainDims() datatypes.Dimensions {
	return datatypes.Dimensions{
		Persona:        "notaire",
		Voice:          "premiere_personne",
		Format:         "question_directe",
		LengthBand:     "moyen",
		Noise:          "propre",
		NumericDensity: "plusieurs_montants",
		DatePrecision:  "exacte",
		Complexity:     "intermediaire",
		PrimaryTopic:   "assurance_vie",
	}
}

func hardNegativeDims() datatypes.Dimensions {
	d := plainDims()
	d.Complexity = "hard_negative"
	d.SecondaryTopic = "testament_legs"
	d.HardNegativeMode = "infos_incompletes"
	d.HardNegativeIntensity = "soft"
	return d
}

func TestRenderCarriesEveryAxisLine(t *testing.T) {
	d := plainDims()
	rendered := Render(d, nil,
		[]string{"Jean Martin", "Claire Martin"},
		[]string{"Pas de montants en lettres."})

	assert.True(t, strings.HasPrefix(rendered,
		"Génère uniquement un énoncé (case_text) pour un cas de succession en français."))
	assert.Contains(t, rendered, "Persona : "+axes.PersonaLabels["notaire"]+".")
	assert.Contains(t, rendered, "Tournure : "+axes.VoiceLabels["premiere_personne"]+".")
	assert.Contains(t, rendered, "Sujet principal : "+axes.Topics["assurance_vie"].Label+".")
	assert.Contains(t, rendered, "Contraintes :\n- Jean Martin\n- Claire Martin")
	assert.Contains(t, rendered, "À éviter :\n- Pas de montants en lettres.")
	assert.Contains(t, rendered, "sans JSON, sans TOON, sans analyse.")

	assert.NotContains(t, rendered, "Sujet secondaire")
	assert.NotContains(t, rendered, "hard negative")
	assert.NotContains(t, rendered, "Repères de style")
}

func TestRenderHardNegativeAndExamples(t *testing.T) {
	d := hardNegativeDims()
	examples := []datatypes.ReferenceExample{
		{CaseID: "seed_0007", Excerpt: "Mon oncle est décédé en laissant deux contrats."},
	}
	rendered := Render(d, examples, nil, nil)

	assert.Contains(t, rendered, "Sujet secondaire : "+axes.Topics["testament_legs"].Label+".")
	assert.Contains(t, rendered, "Mode hard negative : "+axes.HardNegativeLabels["infos_incompletes"]+".")
	assert.Contains(t, rendered, "Intensité hard negative : "+axes.HardNegativeIntensityLabels["soft"]+".")
	assert.Contains(t, rendered, "Repères de style (à ne pas recopier mot pour mot) :")
	assert.Contains(t, rendered, "- [seed_0007] Mon oncle est décédé en laissant deux contrats.")
}

func TestAugmentWithTarget(t *testing.T) {
	base := Render(plainDims(), nil, nil, nil)
	target := "famille:\n  defunt:\n    nom: Jean Martin"
	augmented := AugmentWithTarget(base, target)

	assert.True(t, strings.HasPrefix(augmented, base))
	assert.Contains(t, augmented, "Source de vérité des faits: le TOON ci-dessous.")
	for _, rule := range []string{"Règle A:", "Règle B:", "Règle C:", "Règle D:", "Règle E:"} {
		assert.Contains(t, augmented, rule)
	}
	assert.True(t, strings.HasSuffix(augmented, "TOON:\n"+target))

	// An empty base still yields a complete preamble.
	bare := AugmentWithTarget("", target)
	assert.True(t, strings.HasPrefix(bare, "Source de vérité des faits"))
}

func TestMandatoryElementsDeduplicates(t *testing.T) {
	d := hardNegativeDims()
	items := MandatoryElements(d)
	require.NotEmpty(t, items)

	seen := map[string]bool{}
	for _, item := range items {
		assert.False(t, seen[item], "duplicate constraint: %s", item)
		seen[item] = true
	}
	for _, element := range axes.Topics[d.PrimaryTopic].Elements {
		assert.Contains(t, items, element)
	}
	for _, element := range axes.Topics[d.SecondaryTopic].Elements {
		assert.Contains(t, items, element)
	}
}

func TestForbiddenElements(t *testing.T) {
	plain := ForbiddenElements(plainDims())
	assert.Equal(t, axes.CommonMustAvoid, plain)

	hn := ForbiddenElements(hardNegativeDims())
	require.Len(t, hn, len(axes.CommonMustAvoid)+1)
	assert.Equal(t, axes.HardNegativeMustAvoid, hn[len(hn)-1])
}

func TestGuideCoversEveryAxis(t *testing.T) {
	guide := Guide(plainDims())
	for _, name := range []string{
		axes.Persona, axes.Voice, axes.Format, axes.LengthBand,
		axes.Noise, axes.NumericDensity, axes.DatePrecision, axes.Complexity,
		axes.PrimaryTopic, axes.SecondaryTopic,
		axes.HardNegativeMode, axes.HardNegativeIntensity,
	} {
		_, ok := guide[name]
		require.True(t, ok, "guide missing axis %s", name)
	}

	persona := guide[axes.Persona]
	assert.Equal(t, "notaire", persona.SelectedValue)
	assert.Equal(t, axes.PersonaLabels["notaire"], persona.SelectedLabel)
	assert.NotEmpty(t, persona.Purpose)

	// Hard-negative axes stay in the guide but are flagged inactive.
	mode := guide[axes.HardNegativeMode]
	assert.Equal(t, "complexity == hard_negative", mode.OnlyActiveWhen)
	assert.Contains(t, mode.SelectedEffect, "Inactif ici")

	secondary := guide[axes.SecondaryTopic]
	assert.Empty(t, secondary.SelectedValue)
	assert.Contains(t, secondary.SelectedEffect, "Aucune couche secondaire")

	active := Guide(hardNegativeDims())
	assert.Equal(t, axes.HardNegativeModeDetails["infos_incompletes"],
		active[axes.HardNegativeMode].SelectedEffect)
	assert.Contains(t, active[axes.SecondaryTopic].SelectedEffect,
		"contrainte supplémentaire")
}

func TestStyleBrief(t *testing.T) {
	brief := StyleBrief(plainDims())
	assert.Contains(t, brief, axes.PersonaLabels["notaire"])
	assert.NotContains(t, brief, "seconde couche")

	layered := StyleBrief(hardNegativeDims())
	assert.Contains(t, layered, axes.Topics["testament_legs"].Label)
	assert.Contains(t, layered, "Une seconde couche doit faire intervenir")
}
