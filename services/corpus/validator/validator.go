// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validator checks submitted case texts: every personal name of
// the locked target must appear in the prose, schema vocabulary must not
// leak into it, and near-duplicates of recent submissions raise advisory
// warnings.
package validator

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
)

// Leakage patterns. A submission matching any of these is a hard reject:
// the agent pasted schema structure instead of writing French prose.
var (
	snakeCaseRE      = regexp.MustCompile(`\b[a-z]+_[a-z_]+\b`)
	capsUnderscoreRE = regexp.MustCompile(`\b[A-Z]{2,}(?:_[A-Z0-9]{2,})+\b`)
	boolLiteralRE    = regexp.MustCompile(`\b(?:True|False)\b`)
	pathDumpRE       = regexp.MustCompile(`\s>\s`)
	enumWordRE       = regexp.MustCompile(`\b(?:CELIBATAIRE|MARIE|PACSE|DIVORCE|VEUF|JOURS|MOIS|ANNEES)\b`)
	schemaishRE      = regexp.MustCompile(`(?i)\b(?:famille\s+defunt|contexte\s+procedure|patrimoine\s+actifs?|liberalites?\s+donations?)\b`)
	defuntFieldsRE   = regexp.MustCompile(`(?i)\bdefunt\s+(?:date\s+deces|date\s+naissance|age\s+au\s+deces)\b`)

	digitRE    = regexp.MustCompile(`\d`)
	tokenRE    = regexp.MustCompile(`[a-z0-9àâçéèêëîïôûùüÿñæœ]+`)
	blankRunRE = regexp.MustCompile(`[ \t]+`)
	newlineRE  = regexp.MustCompile(`\n{3,}`)
)

// MustAvoidPatterns is the leakage battery rendered as regex sources, for
// the instruction's must_avoid list on the wire.
var MustAvoidPatterns = []string{
	snakeCaseRE.String(),
	capsUnderscoreRE.String(),
	boolLiteralRE.String(),
	pathDumpRE.String(),
	enumWordRE.String(),
	schemaishRE.String(),
	defuntFieldsRE.String(),
}

const (
	maxSemicolons = 10
	maxColons     = 10

	// AdvisorySimilarity mirrors the historical near-duplicate warning
	// level, reported alongside the configurable alert threshold.
	AdvisorySimilarity = 0.72

	shortTextChars = 60
)

// NormalizeText canonicalizes whitespace: CRLF to LF, runs of spaces and
// tabs to one space, three-plus newlines to two, trimmed.
func NormalizeText(value string) string {
	text := strings.ReplaceAll(value, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRunRE.ReplaceAllString(text, " ")
	text = newlineRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var diacriticsFold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
)

// NormalizeKey lowercases, folds diacritics, and collapses whitespace,
// producing the comparison form used for name matching and duplicate
// detection.
func NormalizeKey(value string) string {
	lowered := strings.ToLower(NormalizeText(value))
	folded, _, err := transform.String(diacriticsFold, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// CleanName reduces a personal name to its comparison form: normalized
// key with everything but letters, digits, and spaces dropped.
func CleanName(value string) string {
	normalized := NormalizeKey(value)
	var b strings.Builder
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CollectNames walks a decoded target and gathers every value stored
// under a nom, *_nom, or *_noms key, deduplicated in encounter order.
func CollectNames(payload any) []string {
	var names []string
	var visit func(node any, parentKey string)
	visit = func(node any, parentKey string) {
		switch v := node.(type) {
		case map[string]any:
			for key, value := range v {
				keyNorm := strings.ToLower(key)
				if s, ok := value.(string); ok {
					if keyNorm == "nom" || strings.HasSuffix(keyNorm, "_nom") || strings.HasSuffix(keyNorm, "_noms") {
						if cleaned := strings.TrimSpace(s); cleaned != "" {
							names = append(names, cleaned)
						}
					}
				}
				visit(value, keyNorm)
			}
		case []any:
			if strings.HasSuffix(parentKey, "_noms") {
				for _, item := range v {
					if s, ok := item.(string); ok {
						if cleaned := strings.TrimSpace(s); cleaned != "" {
							names = append(names, cleaned)
						}
					}
				}
			}
			for _, item := range v {
				visit(item, parentKey)
			}
		}
	}
	visit(payload, "")

	seen := map[string]bool{}
	deduped := names[:0]
	for _, name := range names {
		key := CleanName(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, name)
	}
	return deduped
}

// nameAppears accepts a full-name hit, or a partial hit on a last name of
// at least 4 characters, or a last name plus any other token.
func nameAppears(name, normalizedCase string) bool {
	cleaned := CleanName(name)
	if cleaned == "" {
		return true
	}
	if strings.Contains(normalizedCase, cleaned) {
		return true
	}
	var tokens []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) >= 2 {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return true
	}
	last := tokens[len(tokens)-1]
	if len(last) >= 4 && strings.Contains(normalizedCase, last) {
		return true
	}
	if strings.Contains(normalizedCase, last) {
		for _, token := range tokens[:len(tokens)-1] {
			if strings.Contains(normalizedCase, token) {
				return true
			}
		}
	}
	return false
}

// MissingNames returns the target names absent from the case text.
func MissingNames(caseText string, decodedTarget any) []string {
	if _, ok := decodedTarget.(map[string]any); !ok {
		return nil
	}
	normalized := NormalizeKey(caseText)
	var missing []string
	for _, name := range CollectNames(decodedTarget) {
		if !nameAppears(name, normalized) {
			missing = append(missing, name)
		}
	}
	return missing
}

// CheckHygiene runs the leakage battery against a normalized case text
// and returns a Reject on the first hit.
func CheckHygiene(caseText string) *datatypes.Reject {
	if snakeCaseRE.MatchString(caseText) {
		return datatypes.Rejectf(datatypes.RejectLeakage,
			"format invalide: ne pas inclure de clés internes en snake_case dans l'énoncé (ex: statut_matrimonial, option_successorale)")
	}
	if match := capsUnderscoreRE.FindString(caseText); match != "" {
		return datatypes.Rejectf(datatypes.RejectLeakage,
			"format invalide: ne pas inclure de codes en MAJUSCULES_AVEC_UNDERSCORE dans l'énoncé (reçu: %q), traduire en français naturel", match)
	}
	if boolLiteralRE.MatchString(caseText) {
		return datatypes.Rejectf(datatypes.RejectLeakage,
			"format invalide: ne pas inclure de booléens 'True'/'False' dans l'énoncé, utiliser une formulation française (oui/non)")
	}
	if pathDumpRE.MatchString(caseText) {
		return datatypes.Rejectf(datatypes.RejectLeakage,
			"format invalide: ne pas inclure de chemins type 'famille > defunt > ...' dans l'énoncé, reformuler en phrases françaises")
	}
	if enumWordRE.MatchString(caseText) {
		return datatypes.Rejectf(datatypes.RejectLeakage,
			"format invalide: ne pas inclure de tokens d'énumération en majuscules (ex: CELIBATAIRE, JOURS, MOIS), traduire en français naturel")
	}
	if schemaishRE.MatchString(caseText) || defuntFieldsRE.MatchString(caseText) {
		return datatypes.Rejectf(datatypes.RejectLeakage,
			"format invalide: l'énoncé ressemble à un dump de champs, reformuler en français naturel")
	}
	if strings.Count(caseText, ";") > maxSemicolons {
		return datatypes.Rejectf(datatypes.RejectLeakage,
			"format invalide: trop de séparateurs ';' (probable dump de champs), limite %d", maxSemicolons)
	}
	if strings.Count(caseText, ":") > maxColons {
		return datatypes.Rejectf(datatypes.RejectLeakage,
			"format invalide: trop de séparateurs ':' (probable dump de champs), limite %d", maxColons)
	}
	return nil
}

// Reference is a prior text a submission is compared against.
type Reference struct {
	ID   string
	Text string
}

func tokenize(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, token := range tokenRE.FindAllString(NormalizeKey(text), -1) {
		if len(token) > 1 {
			tokens[token] = true
		}
	}
	return tokens
}

// Jaccard computes word-set Jaccard similarity between two texts.
func Jaccard(left, right string) float64 {
	a := tokenize(left)
	b := tokenize(right)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if b[token] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Report scores a case text against the seed corpus and a bounded window
// of recent submissions. Duplicates and high similarity only warn; the
// accept decision stays with the caller.
func Report(caseText string, seeds, recent []Reference, alertThreshold float64) datatypes.ValidationReport {
	normalized := NormalizeKey(caseText)
	report := datatypes.ValidationReport{
		WordCount:      len(strings.Fields(caseText)),
		CharCount:      len([]rune(caseText)),
		ContainsDigits: digitRE.MatchString(caseText),
		Warnings:       []string{},
	}

	scan := func(refs []Reference) {
		for _, ref := range refs {
			if report.ExactDuplicate {
				return
			}
			if normalized == NormalizeKey(ref.Text) {
				report.ExactDuplicate = true
				report.MaxSimilarity = 1
				report.ClosestReference = ref.ID
				return
			}
			if score := Jaccard(caseText, ref.Text); score > report.MaxSimilarity {
				report.MaxSimilarity = score
				report.ClosestReference = ref.ID
			}
		}
	}
	scan(seeds)
	scan(recent)

	if report.ExactDuplicate {
		report.Warnings = append(report.Warnings, "doublon exact détecté")
	} else if report.MaxSimilarity >= AdvisorySimilarity {
		report.Warnings = append(report.Warnings, "cas très proche d'un cas existant")
	}
	if alertThreshold > 0 && report.MaxSimilarity >= alertThreshold {
		report.SimilarityAlert = true
	}
	if len([]rune(caseText)) < shortTextChars {
		report.Warnings = append(report.Warnings, "énoncé très court")
	}
	return report
}
