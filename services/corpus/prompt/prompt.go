// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompt renders the French agent prompts: the per-instruction
// brief, the dimension guide, and the TOON grounding preamble appended
// once the server target is locked.
package prompt

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
)

// PairTrainingSystemPrompt is the system message of every exported
// training pair.
const PairTrainingSystemPrompt = "Tu extrais les informations d'un énoncé de succession en français. " +
	"Tu réponds uniquement par du TOON valide conforme au schéma cible attendu."

// MandatoryElements collects the business constraint lines for the drawn
// buckets, deduplicated in order.
func MandatoryElements(d datatypes.Dimensions) []string {
	var items []string
	items = append(items, axes.Topics[d.PrimaryTopic].Elements...)
	if d.SecondaryTopic != "" {
		items = append(items, axes.Topics[d.SecondaryTopic].Elements...)
	}
	items = append(items, axes.FormatRequirements[d.Format]...)
	items = append(items, axes.LengthRequirements[d.LengthBand]...)
	items = append(items, axes.NoiseRequirements[d.Noise]...)
	items = append(items, axes.NumericRequirements[d.NumericDensity]...)
	items = append(items, axes.DatePrecisionRequirements[d.DatePrecision]...)
	if d.HardNegativeMode != "" {
		items = append(items, axes.HardNegativeRequirements[d.HardNegativeMode]...)
	}
	if d.HardNegativeIntensity != "" {
		items = append(items, axes.HardNegativeIntensityRequirements[d.HardNegativeIntensity]...)
	}

	seen := map[string]bool{}
	deduped := items[:0]
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		deduped = append(deduped, item)
	}
	return deduped
}

// ForbiddenElements lists the prose constraints for the prompt's "À
// éviter" block.
func ForbiddenElements(d datatypes.Dimensions) []string {
	items := append([]string{}, axes.CommonMustAvoid...)
	if d.Complexity == "hard_negative" {
		items = append(items, axes.HardNegativeMustAvoid)
	}
	return items
}

// StyleBrief summarizes narrator, voice, form, and legal core in one
// paragraph.
func StyleBrief(d datatypes.Dimensions) string {
	parts := []string{
		fmt.Sprintf("Le cas doit être raconté comme si %s s'exprimait.", axes.PersonaLabels[d.Persona]),
		fmt.Sprintf("La tournure attendue est %s.", axes.VoiceLabels[d.Voice]),
		fmt.Sprintf("La forme doit ressembler à %s.", axes.FormatLabels[d.Format]),
		fmt.Sprintf("Le coeur juridique doit tourner autour de %s.", axes.Topics[d.PrimaryTopic].Label),
	}
	if d.SecondaryTopic != "" {
		parts = append(parts, fmt.Sprintf("Une seconde couche doit faire intervenir %s.", axes.Topics[d.SecondaryTopic].Label))
	}
	return strings.Join(parts, " ")
}

// Render builds the instruction prompt before the target is attached.
func Render(d datatypes.Dimensions, examples []datatypes.ReferenceExample, mustInclude, mustAvoid []string) string {
	lines := []string{
		"Génère uniquement un énoncé (case_text) pour un cas de succession en français.",
		fmt.Sprintf("Persona : %s.", axes.PersonaLabels[d.Persona]),
		fmt.Sprintf("Tournure : %s.", axes.VoiceLabels[d.Voice]),
		fmt.Sprintf("Format : %s.", axes.FormatLabels[d.Format]),
		fmt.Sprintf("Longueur visée : %s.", axes.LengthLabels[d.LengthBand]),
		fmt.Sprintf("Niveau de bruit : %s.", axes.NoiseLabels[d.Noise]),
		fmt.Sprintf("Densité chiffrée : %s.", axes.NumericLabels[d.NumericDensity]),
		fmt.Sprintf("Précision temporelle : %s.", axes.DatePrecisionLabels[d.DatePrecision]),
		fmt.Sprintf("Niveau : %s.", axes.ComplexityLabels[d.Complexity]),
		fmt.Sprintf("Sujet principal : %s.", axes.Topics[d.PrimaryTopic].Label),
	}
	if d.SecondaryTopic != "" {
		lines = append(lines, fmt.Sprintf("Sujet secondaire : %s.", axes.Topics[d.SecondaryTopic].Label))
	}
	if d.HardNegativeMode != "" {
		lines = append(lines, fmt.Sprintf("Mode hard negative : %s.", axes.HardNegativeLabels[d.HardNegativeMode]))
	}
	if d.HardNegativeIntensity != "" {
		lines = append(lines, fmt.Sprintf("Intensité hard negative : %s.", axes.HardNegativeIntensityLabels[d.HardNegativeIntensity]))
	}
	lines = append(lines, "Contraintes :")
	for _, item := range mustInclude {
		lines = append(lines, "- "+item)
	}
	lines = append(lines, "À éviter :")
	for _, item := range mustAvoid {
		lines = append(lines, "- "+item)
	}
	lines = append(lines, "Sortie attendue : texte brut uniquement (l'énoncé), sans JSON, sans TOON, sans analyse.")
	if len(examples) > 0 {
		lines = append(lines, "Repères de style (à ne pas recopier mot pour mot) :")
		for _, example := range examples {
			lines = append(lines, fmt.Sprintf("- [%s] %s", example.CaseID, example.Excerpt))
		}
	}
	return strings.Join(lines, "\n")
}

// AugmentWithTarget appends the grounding rules and the locked TOON
// target to a rendered prompt.
func AugmentWithTarget(basePrompt, targetTOON string) string {
	var lines []string
	base := strings.TrimSpace(basePrompt)
	if base != "" {
		lines = append(lines, base, "")
	}
	lines = append(lines,
		"Source de vérité des faits: le TOON ci-dessous.",
		"Règle A: chaque information présente dans le TOON doit apparaître dans l'énoncé, mais reformulée en français naturel.",
		"  - Ne jamais recopier des codes d'énumération du TOON (ex: PARTENAIRE_PACS, NEVEU_NIECE, PROPRE_DEFUNT, IMPOT_SUCCESSION).",
		"  - Si une valeur ressemble à `MAJUSCULES_AVEC_UNDERSCORE`, tu dois la traduire en mots (sans underscores).",
		"  - Exemples: PARTENAIRE_PACS -> partenaire de PACS ; NEVEU_NIECE -> neveu / nièce ;",
		"    COMMUNAUTE_REDUITE_AUX_ACQUETS -> communauté réduite aux acquêts ; A_TITRE_UNIVERSEL -> à titre universel.",
		"Règle B: ne pas ajouter de nouvelles informations structurées (noms, dates, montants, liens, biens) absentes du TOON.",
		"Règle C: ne pas donner la solution juridique, seulement les faits.",
		"Règle D: ne pas recopier la structure ou les clés du TOON (pas de `snake_case`, pas de `champ: valeur`, pas de JSON/TOON dans la réponse).",
		"Règle E: tu peux utiliser des sigles usuels (PACS, SCI, SARL, AV), mais pas des tokens en MAJUSCULES_AVEC_UNDERSCORE.",
		"Sortie attendue: texte brut uniquement (l'énoncé), sans JSON.",
		"",
		"TOON:",
		strings.TrimSpace(targetTOON),
	)
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Guide builds the per-axis dimension guide shipped with an instruction.
func Guide(d datatypes.Dimensions) map[string]datatypes.AxisGuide {
	topicAllowed := make(map[string]string, len(axes.Topics))
	for name, topic := range axes.Topics {
		topicAllowed[name] = topic.Label
	}

	guide := map[string]datatypes.AxisGuide{
		axes.Persona: {
			SelectedValue:  d.Persona,
			SelectedLabel:  axes.PersonaLabels[d.Persona],
			Purpose:        axes.Purposes[axes.Persona],
			SelectedEffect: axes.PersonaDetails[d.Persona],
			AllowedValues:  axes.PersonaLabels,
		},
		axes.Voice: {
			SelectedValue:  d.Voice,
			SelectedLabel:  axes.VoiceLabels[d.Voice],
			Purpose:        axes.Purposes[axes.Voice],
			SelectedEffect: axes.VoiceDetails[d.Voice],
			AllowedValues:  axes.VoiceLabels,
		},
		axes.Format: {
			SelectedValue:  d.Format,
			SelectedLabel:  axes.FormatLabels[d.Format],
			Purpose:        axes.Purposes[axes.Format],
			SelectedEffect: axes.FormatDetails[d.Format],
			AllowedValues:  axes.FormatLabels,
		},
		axes.LengthBand: {
			SelectedValue:  d.LengthBand,
			SelectedLabel:  axes.LengthLabels[d.LengthBand],
			Purpose:        axes.Purposes[axes.LengthBand],
			SelectedEffect: axes.LengthDetails[d.LengthBand],
			AllowedValues:  axes.LengthLabels,
		},
		axes.Noise: {
			SelectedValue:  d.Noise,
			SelectedLabel:  axes.NoiseLabels[d.Noise],
			Purpose:        axes.Purposes[axes.Noise],
			SelectedEffect: axes.NoiseDetails[d.Noise],
			AllowedValues:  axes.NoiseLabels,
		},
		axes.NumericDensity: {
			SelectedValue:  d.NumericDensity,
			SelectedLabel:  axes.NumericLabels[d.NumericDensity],
			Purpose:        axes.Purposes[axes.NumericDensity],
			SelectedEffect: axes.NumericDetails[d.NumericDensity],
			AllowedValues:  axes.NumericLabels,
		},
		axes.DatePrecision: {
			SelectedValue:  d.DatePrecision,
			SelectedLabel:  axes.DatePrecisionLabels[d.DatePrecision],
			Purpose:        axes.Purposes[axes.DatePrecision],
			SelectedEffect: axes.DatePrecisionDetails[d.DatePrecision],
			AllowedValues:  axes.DatePrecisionLabels,
		},
		axes.Complexity: {
			SelectedValue:  d.Complexity,
			SelectedLabel:  axes.ComplexityLabels[d.Complexity],
			Purpose:        axes.Purposes[axes.Complexity],
			SelectedEffect: axes.ComplexityDetails[d.Complexity],
			AllowedValues:  axes.ComplexityLabels,
		},
		axes.PrimaryTopic: {
			SelectedValue: d.PrimaryTopic,
			SelectedLabel: axes.Topics[d.PrimaryTopic].Label,
			Purpose:       axes.Purposes[axes.PrimaryTopic],
			SelectedEffect: "Cette matière doit structurer le cas. Exigences métier : " +
				strings.Join(axes.Topics[d.PrimaryTopic].Elements, " ; "),
			AllowedValues: topicAllowed,
		},
	}

	secondaryEffect := "Aucune couche secondaire n'est imposée sur cette consigne."
	var secondaryLabel string
	if d.SecondaryTopic != "" {
		secondaryLabel = axes.Topics[d.SecondaryTopic].Label
		secondaryEffect = "Cette couche ajoute une contrainte supplémentaire : " +
			strings.Join(axes.Topics[d.SecondaryTopic].Elements, " ; ")
	}
	guide[axes.SecondaryTopic] = datatypes.AxisGuide{
		SelectedValue:  d.SecondaryTopic,
		SelectedLabel:  secondaryLabel,
		Purpose:        axes.Purposes[axes.SecondaryTopic],
		SelectedEffect: secondaryEffect,
		AllowedValues:  topicAllowed,
	}

	inactive := "Inactif ici, car la complexité tirée n'est pas un hard negative."
	modeEffect, intensityEffect := inactive, inactive
	if d.HardNegativeMode != "" {
		modeEffect = axes.HardNegativeModeDetails[d.HardNegativeMode]
	}
	if d.HardNegativeIntensity != "" {
		intensityEffect = axes.HardNegativeIntensityDetails[d.HardNegativeIntensity]
	}
	guide[axes.HardNegativeMode] = datatypes.AxisGuide{
		SelectedValue:  d.HardNegativeMode,
		SelectedLabel:  axes.HardNegativeLabels[d.HardNegativeMode],
		Purpose:        axes.Purposes[axes.HardNegativeMode],
		SelectedEffect: modeEffect,
		AllowedValues:  axes.HardNegativeLabels,
		OnlyActiveWhen: "complexity == hard_negative",
	}
	guide[axes.HardNegativeIntensity] = datatypes.AxisGuide{
		SelectedValue:  d.HardNegativeIntensity,
		SelectedLabel:  axes.HardNegativeIntensityLabels[d.HardNegativeIntensity],
		Purpose:        axes.Purposes[axes.HardNegativeIntensity],
		SelectedEffect: intensityEffect,
		AllowedValues:  axes.HardNegativeIntensityLabels,
		OnlyActiveWhen: "complexity == hard_negative",
	}
	return guide
}
