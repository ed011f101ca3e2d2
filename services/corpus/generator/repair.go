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
	"math/rand"
	"strings"
	"time"

	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
	"github.com/AleutianAI/casecorpus/services/corpus/schema"
)

func parseISODate(value any) (time.Time, bool) {
	s, ok := value.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func yearsBetween(start, end time.Time) int {
	years := end.Year() - start.Year()
	if end.Month() < start.Month() ||
		(end.Month() == start.Month() && end.Day() < start.Day()) {
		years--
	}
	return years
}

func intBetween(value any, def, minValue, maxValue int) int {
	coerced := def
	switch v := value.(type) {
	case int:
		coerced = v
	case int64:
		coerced = int(v)
	case float64:
		coerced = int(v + 0.5)
	}
	if coerced < minValue {
		coerced = minValue
	}
	if coerced > maxValue {
		coerced = maxValue
	}
	return coerced
}

func birthFromAge(ref time.Time, age int) time.Time {
	year := ref.Year() - age
	if year < 1900 {
		year = 1900
	}
	day := ref.Day()
	if day > 28 {
		day = 28
	}
	return time.Date(year, ref.Month(), day, 0, 0, 0, 0, time.UTC)
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if m, ok := asMap(parent[key]); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}

// harmonizePerson locks one person block onto a consistent age, birth
// date, minority flag, and succession option relative to the reference
// death date.
func harmonizePerson(person map[string]any, ref time.Time, defaultAge, minAge, maxAge int, canBeMinor bool) {
	age := intBetween(person["age_au_deces"], defaultAge, minAge, maxAge)
	person["age_au_deces"] = age
	person["date_naissance"] = birthFromAge(ref, age).Format("2006-01-02")
	if _, present := person["est_mineur"]; present {
		person["est_mineur"] = canBeMinor && age < 18
	}

	if option, hasOption := person["option_successorale"].(string); hasOption {
		if deceased, ok := person["est_decede"].(bool); ok {
			if deceased && option != "PREDECEDE" {
				person["option_successorale"] = "PREDECEDE"
			}
			if !deceased && option == "PREDECEDE" {
				person["option_successorale"] = "ACCEPTE"
			}
		}
	}
}

type personRecord struct {
	label  string
	person map[string]any
}

// collectPersons gathers every person block of the family tree with a
// dotted label, in a stable order.
func collectPersons(payload map[string]any) []personRecord {
	var records []personRecord
	famille, ok := asMap(payload["famille"])
	if !ok {
		return records
	}
	if defunt, ok := asMap(famille["defunt"]); ok {
		records = append(records, personRecord{"famille.defunt", defunt})
	}
	if partenaire, ok := asMap(famille["partenaire"]); ok {
		records = append(records, personRecord{"famille.partenaire", partenaire})
	}
	for _, bloc := range []string{"descendants", "ascendants", "collateraux"} {
		root, ok := asMap(famille[bloc])
		if !ok {
			continue
		}
		for groupName, values := range root {
			list, ok := asList(values)
			if !ok {
				continue
			}
			for _, item := range list {
				if person, ok := asMap(item); ok {
					records = append(records, personRecord{
						label:  "famille." + bloc + "." + groupName,
						person: person,
					})
				}
			}
		}
	}
	return records
}

// repair harmonizes the raw sampled payload into a business-coherent
// case: fixed identities, age/date agreement, marital consistency, and
// the per-topic blocks every topic promises.
func (g *Generator) repair(payload map[string]any, d datatypes.Dimensions, ctx *caseContext, rng *rand.Rand) {
	famille := ensureMap(payload, "famille")
	defunt := ensureMap(famille, "defunt")

	statut, _ := defunt["statut_matrimonial"].(string)
	if statut == "" {
		statut = ctx.statut
	}
	if statut == "" {
		statut = "CELIBATAIRE"
	}
	defunt["nom"] = ctx.defuntName
	defunt["statut_matrimonial"] = statut

	death, ok := parseISODate(defunt["date_deces"])
	if !ok {
		death, _ = parseISODate(randomISODate(rng, 2023, 2026))
	}
	defunt["date_deces"] = death.Format("2006-01-02")
	harmonizePerson(defunt, death, 62+rng.Intn(29), 35, 105, false)
	if g.index.IsLeaf(schema.Path{"famille", "defunt", "est_handicape"}) {
		handicap, _ := defunt["est_handicape"].(bool)
		defunt["est_handicape"] = handicap
	}

	g.repairRegime(defunt, statut, rng)
	g.repairPartner(famille, statut, death, defunt, ctx)
	g.repairDescendants(famille, d, death, defunt, ctx, rng)

	// Safety pass over every remaining person block.
	for _, record := range collectPersons(payload) {
		person := record.person
		switch {
		case record.label == "famille.defunt":
		case strings.HasPrefix(record.label, "famille.descendants"):
			harmonizePerson(person, death, intBetween(person["age_au_deces"], 25, 0, 75), 0, 75, true)
		case strings.HasPrefix(record.label, "famille.ascendants"):
			harmonizePerson(person, death, intBetween(person["age_au_deces"], 82, 40, 110), 40, 110, false)
		case strings.HasPrefix(record.label, "famille.collateraux"):
			minor := strings.Contains(record.label, "neveux_nieces")
			harmonizePerson(person, death, intBetween(person["age_au_deces"], 48, 0, 100), 0, 100, minor)
		case record.label == "famille.partenaire":
			harmonizePerson(person, death, intBetween(person["age_au_deces"], 66, 18, 105), 18, 105, false)
		}
	}

	g.repairInsurance(payload, d, death, ctx, rng)
	g.repairTopicBlocks(payload, d, ctx, rng)
	repairValuations(payload)
}

func (g *Generator) repairRegime(defunt map[string]any, statut string, rng *rand.Rand) {
	regime, ok := asMap(defunt["regime_matrimonial"])
	if !ok {
		return
	}
	// A marital regime only exists inside an actual marriage context.
	if statut == "CELIBATAIRE" || statut == "PACSE" || statut == "DIVORCE" {
		delete(defunt, "regime_matrimonial")
		return
	}
	if _, hasParticipation := regime["participation"]; hasParticipation {
		regime["type"] = "PARTICIPATION_AUX_ACQUETS"
	}
	if regimeType, _ := regime["type"].(string); regimeType == "" {
		if full, _ := regime["clause_attribution_integrale"].(bool); full {
			regime["type"] = "COMMUNAUTE_UNIVERSELLE"
		} else {
			regime["type"] = pick(rng, []string{
				"COMMUNAUTE_REDUITE_AUX_ACQUETS",
				"SEPARATION_DE_BIENS",
				"COMMUNAUTE_UNIVERSELLE",
				"PARTICIPATION_AUX_ACQUETS",
			})
		}
	}
}

func (g *Generator) repairPartner(famille map[string]any, statut string, death time.Time, defunt map[string]any, ctx *caseContext) {
	partenaire, exists := asMap(famille["partenaire"])
	if statut == "MARIE" || statut == "PACSE" {
		if !exists {
			partenaire = ensureMap(famille, "partenaire")
		}
		partenaire["nom"] = ctx.partnerName
		lien := ensureMap(partenaire, "lien")
		if statut == "MARIE" {
			lien["type"] = "CONJOINT"
		} else {
			lien["type"] = "PARTENAIRE_PACS"
		}
		defaultAge := intBetween(defunt["age_au_deces"], 75, 40, 105) - 4
		harmonizePerson(partenaire, death, defaultAge, 18, 105, false)
		return
	}
	if exists {
		partenaire["nom"] = ctx.partnerName
		if lien, ok := asMap(partenaire["lien"]); ok {
			if t, _ := lien["type"].(string); t == "CONJOINT" || t == "PARTENAIRE_PACS" {
				lien["type"] = "CONCUBIN"
			}
		}
		harmonizePerson(partenaire, death, 60, 18, 100, false)
	}
}

func (g *Generator) repairDescendants(famille map[string]any, d datatypes.Dimensions, death time.Time, defunt map[string]any, ctx *caseContext, rng *rand.Rand) {
	needsChildren := map[string]bool{
		"ordre_heritiers":     true,
		"famille_recomposee":  true,
		"donations_reduction": true,
		"testament_legs":      true,
	}[d.PrimaryTopic]

	descendants, ok := asMap(famille["descendants"])
	if !ok {
		if !needsChildren {
			return
		}
		descendants = ensureMap(famille, "descendants")
	}

	children, _ := asList(descendants["enfants"])
	if needsChildren && len(children) == 0 {
		children = []any{map[string]any{"nom": ctx.childNames[0]}}
		descendants["enfants"] = children
	}
	if len(children) > 0 {
		maxChildAge := intBetween(defunt["age_au_deces"], 75, 35, 105) - 14
		if maxChildAge > 75 {
			maxChildAge = 75
		}
		if maxChildAge < 1 {
			maxChildAge = 1
		}
		for idx := range children {
			child, ok := asMap(children[idx])
			if !ok {
				child = map[string]any{}
				children[idx] = child
			}
			child["nom"] = ctx.childNames[idx%len(ctx.childNames)]
			upper := maxChildAge
			if upper < 3 {
				upper = 3
			}
			if _, present := child["est_decede"]; !present {
				child["est_decede"] = false
			}
			harmonizePerson(child, death, 2+rng.Intn(upper-1), 0, maxChildAge, true)
			if d.PrimaryTopic == "famille_recomposee" {
				child["est_d_une_precedente_union"] = idx == 0
			}
		}
	}

	if grandChildren, ok := asList(descendants["petits_enfants"]); ok {
		for idx := range grandChildren {
			grandChild, ok := asMap(grandChildren[idx])
			if !ok {
				grandChild = map[string]any{}
				grandChildren[idx] = grandChild
			}
			harmonizePerson(grandChild, death, rng.Intn(36), 0, 55, true)
			if _, present := grandChild["nom"]; !present {
				grandChild["nom"] = g.names.Draw(rng, ctx.used)
			}
			if _, present := grandChild["parent_nom"]; !present {
				grandChild["parent_nom"] = ctx.childNames[0]
			}
		}
	}

	if len(descendants) == 0 {
		delete(famille, "descendants")
	}
}

func (g *Generator) repairInsurance(payload map[string]any, d datatypes.Dimensions, death time.Time, ctx *caseContext, rng *rand.Rand) {
	av, ok := asMap(payload["assurance_vie"])
	if !ok {
		if d.PrimaryTopic != "assurance_vie" {
			return
		}
		av = ensureMap(payload, "assurance_vie")
	}

	contracts, _ := asList(av["contrats"])
	if d.PrimaryTopic == "assurance_vie" && len(contracts) == 0 {
		contracts = []any{map[string]any{
			"libelle":    "Contrat " + pick(rng, synthInsurers),
			"assure_nom": ctx.defuntName,
		}}
		av["contrats"] = contracts
	}
	for idx := range contracts {
		contract, ok := asMap(contracts[idx])
		if !ok {
			contract = map[string]any{}
			contracts[idx] = contract
		}
		if _, present := contract["libelle"]; !present {
			contract["libelle"] = "Contrat " + pick(rng, synthInsurers)
		}
		contract["assure_nom"] = ctx.defuntName

		subscription, ok := parseISODate(contract["date_souscription"])
		if !ok || !subscription.Before(death) {
			yearMin := death.Year() - 25
			if yearMin < 1970 {
				yearMin = 1970
			}
			year := yearMin + rng.Intn(death.Year()-yearMin)
			subscription = time.Date(year, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
		}
		contract["date_souscription"] = subscription.Format("2006-01-02")

		if versements, ok := asList(contract["versements"]); ok {
			for vidx := range versements {
				versement, ok := asMap(versements[vidx])
				if !ok {
					versement = map[string]any{}
					versements[vidx] = versement
				}
				age := intBetween(versement["age_assure_au_versement"], 35+rng.Intn(51), 18, 100)
				versement["age_assure_au_versement"] = age
				versement["apres_70_ans"] = age >= 70
			}
		}
	}
}

func (g *Generator) repairTopicBlocks(payload map[string]any, d datatypes.Dimensions, ctx *caseContext, rng *rand.Rand) {
	if d.PrimaryTopic == "entreprise_dutreil" {
		patrimoine := ensureMap(payload, "patrimoine")
		actifs, _ := asList(patrimoine["actifs"])
		if len(actifs) == 0 {
			actifs = []any{map[string]any{}}
			patrimoine["actifs"] = actifs
		}
		first, ok := asMap(actifs[0])
		if !ok {
			first = map[string]any{}
			actifs[0] = first
		}
		if _, present := first["type"]; !present {
			first["type"] = "ENTREPRISE"
		}
		entreprise := ensureMap(first, "entreprise")
		if _, present := entreprise["type"]; !present {
			entreprise["type"] = "PME"
		}
		entreprise["est_presente_comme_eligible_dutreil"] = true
	}

	if d.PrimaryTopic == "donations_reduction" {
		liberalites := ensureMap(payload, "liberalites")
		donations, _ := asList(liberalites["donations"])
		if len(donations) == 0 {
			donations = []any{map[string]any{}}
			liberalites["donations"] = donations
		}
		first, ok := asMap(donations[0])
		if !ok {
			first = map[string]any{}
			donations[0] = first
		}
		if _, present := first["donateur_nom"]; !present {
			first["donateur_nom"] = ctx.defuntName
		}
		if _, present := first["beneficiaire_nom"]; !present {
			first["beneficiaire_nom"] = ctx.childNames[0]
		}
		if _, present := first["type"]; !present {
			first["type"] = "DONATION_SIMPLE"
		}
		if first["beneficiaire_nom"] == first["donateur_nom"] {
			first["beneficiaire_nom"] = ctx.childNames[0]
		}
	}
	_ = rng
}

// repairValuations forces strictly positive asset and liability values.
func repairValuations(payload map[string]any) {
	patrimoine, ok := asMap(payload["patrimoine"])
	if !ok {
		return
	}
	for _, key := range []string{"actifs", "passifs"} {
		list, ok := asList(patrimoine[key])
		if !ok {
			continue
		}
		for _, item := range list {
			entry, ok := asMap(item)
			if !ok {
				continue
			}
			switch v := entry["valeur"].(type) {
			case int:
				if v <= 0 {
					entry["valeur"] = -v + 1
				}
			case float64:
				if v <= 0 {
					entry["valeur"] = -v + 1
				}
			}
		}
	}
}
