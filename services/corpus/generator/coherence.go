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
	"fmt"
	"strings"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
	"github.com/AleutianAI/casecorpus/services/corpus/schema"
)

func previewErrors(prefix string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	preview := errs
	suffix := ""
	if len(preview) > 3 {
		preview = preview[:3]
		suffix = ", ..."
	}
	return fmt.Errorf("%s: %s%s", prefix, strings.Join(preview, ", "), suffix)
}

// ValidateCoherence checks the business invariants a notary would spot
// at a glance: marital consistency, plausible ages and dates, insurance
// naming the deceased, and the minimum blocks each topic promises.
func ValidateCoherence(payload map[string]any, d datatypes.Dimensions) error {
	var errs []string

	famille, _ := asMap(payload["famille"])
	defunt, _ := asMap(famille["defunt"])
	defuntName, _ := defunt["nom"].(string)
	if strings.TrimSpace(defuntName) == "" {
		errs = append(errs, "défunt sans nom")
	}

	statut, _ := defunt["statut_matrimonial"].(string)
	partenaire, hasPartner := asMap(famille["partenaire"])
	lienType := ""
	if lien, ok := asMap(partenaire["lien"]); ok {
		lienType, _ = lien["type"].(string)
	}
	switch statut {
	case "MARIE":
		if !hasPartner {
			errs = append(errs, "défunt marié sans partenaire")
		} else if lienType != "" && lienType != "CONJOINT" {
			errs = append(errs, "lien du partenaire incompatible avec un mariage")
		}
	case "PACSE":
		if !hasPartner {
			errs = append(errs, "défunt pacsé sans partenaire")
		} else if lienType != "" && lienType != "PARTENAIRE_PACS" {
			errs = append(errs, "lien du partenaire incompatible avec un PACS")
		}
	case "CELIBATAIRE", "DIVORCE", "VEUF":
		if lienType == "CONJOINT" {
			errs = append(errs, "lien CONJOINT incompatible avec le statut "+statut)
		}
	}

	death, hasDeath := parseISODate(defunt["date_deces"])
	for _, record := range collectPersons(payload) {
		person := record.person
		if rawAge, present := person["age_au_deces"]; present {
			age := intBetween(rawAge, -1, -1, 1000)
			if age < 0 || age > 125 {
				errs = append(errs, "âge invraisemblable pour "+record.label)
			}
			if minor, ok := person["est_mineur"].(bool); ok {
				if minor != (age < 18) {
					errs = append(errs, "est_mineur incohérent pour "+record.label)
				}
			}
			if birth, ok := parseISODate(person["date_naissance"]); ok && hasDeath {
				if birth.After(death) {
					errs = append(errs, "date de naissance postérieure au décès pour "+record.label)
				} else {
					computed := yearsBetween(birth, death)
					if diff := computed - age; diff < -1 || diff > 1 {
						errs = append(errs, "âge et date de naissance divergents pour "+record.label)
					}
				}
			}
		}
	}

	if av, ok := asMap(payload["assurance_vie"]); ok {
		if contracts, ok := asList(av["contrats"]); ok {
			for idx, item := range contracts {
				contract, ok := asMap(item)
				if !ok {
					continue
				}
				if assured, _ := contract["assure_nom"].(string); assured != "" && assured != defuntName {
					errs = append(errs, fmt.Sprintf("contrat %d assuré sur un tiers", idx+1))
				}
				if versements, ok := asList(contract["versements"]); ok {
					for vidx, raw := range versements {
						versement, ok := asMap(raw)
						if !ok {
							continue
						}
						after70, hasFlag := versement["apres_70_ans"].(bool)
						rawAge, hasAge := versement["age_assure_au_versement"]
						if hasFlag && hasAge {
							age := intBetween(rawAge, 0, 0, 150)
							if after70 != (age >= 70) {
								errs = append(errs, fmt.Sprintf("versement %d.%d incohérent avec les 70 ans", idx+1, vidx+1))
							}
						}
					}
				}
			}
		}
	}

	if liberalites, ok := asMap(payload["liberalites"]); ok {
		if donations, ok := asList(liberalites["donations"]); ok {
			for idx, raw := range donations {
				donation, ok := asMap(raw)
				if !ok {
					continue
				}
				donor, _ := donation["donateur_nom"].(string)
				beneficiary, _ := donation["beneficiaire_nom"].(string)
				if donor != "" && donor == beneficiary {
					errs = append(errs, fmt.Sprintf("donation %d au profit du donateur", idx+1))
				}
			}
		}
	}

	if patrimoine, ok := asMap(payload["patrimoine"]); ok {
		for _, key := range []string{"actifs", "passifs"} {
			list, ok := asList(patrimoine[key])
			if !ok {
				continue
			}
			for idx, raw := range list {
				entry, ok := asMap(raw)
				if !ok {
					continue
				}
				if value, present := entry["valeur"]; present {
					if f, ok := numericAmount(value); ok && f <= 0 {
						errs = append(errs, fmt.Sprintf("%s %d à valeur non positive", key, idx+1))
					}
				}
			}
		}
	}

	switch d.PrimaryTopic {
	case "assurance_vie":
		av, _ := asMap(payload["assurance_vie"])
		if contracts, _ := asList(av["contrats"]); len(contracts) == 0 {
			errs = append(errs, "sujet assurance_vie sans contrat")
		}
	case "donations_reduction":
		liberalites, _ := asMap(payload["liberalites"])
		if donations, _ := asList(liberalites["donations"]); len(donations) == 0 {
			errs = append(errs, "sujet donations_reduction sans donation")
		}
	case "entreprise_dutreil":
		found := false
		patrimoine, _ := asMap(payload["patrimoine"])
		if actifs, ok := asList(patrimoine["actifs"]); ok {
			for _, raw := range actifs {
				if entry, ok := asMap(raw); ok {
					if _, hasBloc := asMap(entry["entreprise"]); hasBloc {
						found = true
						break
					}
				}
			}
		}
		if !found {
			errs = append(errs, "sujet entreprise_dutreil sans actif d'entreprise")
		}
	}

	return previewErrors("target breaks business coherence", errs)
}

func numericAmount(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// pathExists reports whether path resolves inside payload. The list
// marker matches when any element of the list does.
func pathExists(node any, path schema.Path) bool {
	if len(path) == 0 {
		return true
	}
	if path[0] == schema.ListMarker {
		list, ok := asList(node)
		if !ok {
			return false
		}
		for _, item := range list {
			if pathExists(item, path[1:]) {
				return true
			}
		}
		return false
	}
	m, ok := asMap(node)
	if !ok {
		return false
	}
	child, present := m[path[0]]
	if !present {
		return false
	}
	return pathExists(child, path[1:])
}

// ValidateTopicAlignment verifies the payload actually carries the drawn
// topics. A topic counts as present when all of its required leaves that
// exist in the schema resolve, or failing that when any of its prefixes
// is populated.
func (g *Generator) ValidateTopicAlignment(payload map[string]any, d datatypes.Dimensions) error {
	for _, name := range []string{d.PrimaryTopic, d.SecondaryTopic} {
		if name == "" {
			continue
		}
		topic, ok := axes.Topics[name]
		if !ok {
			return fmt.Errorf("unknown topic %q", name)
		}
		if !g.topicSatisfied(payload, topic) {
			return fmt.Errorf("target does not reflect topic %q", name)
		}
	}
	return nil
}

func (g *Generator) topicSatisfied(payload map[string]any, topic axes.Topic) bool {
	var required []schema.Path
	for _, leaf := range topic.RequiredLeaves {
		if g.index.IsLeaf(leaf) {
			required = append(required, leaf)
		}
	}
	if len(required) > 0 {
		all := true
		for _, leaf := range required {
			if !pathExists(payload, leaf) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	for _, prefix := range topic.Prefixes {
		if pathExists(payload, prefix) {
			return true
		}
	}
	return false
}
