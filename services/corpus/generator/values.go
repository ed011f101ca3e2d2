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
	"math"
	"math/rand"
	"strings"

	"github.com/AleutianAI/casecorpus/services/corpus/schema"
)

// caseContext carries the fixed identities of one generated case so every
// leaf referencing a person resolves to the same name.
type caseContext struct {
	defuntName  string
	partnerName string
	childNames  []string
	used        map[string]bool
	statut      string
}

func randomISODate(rng *rand.Rand, yearMin, yearMax int) string {
	year := yearMin + rng.Intn(yearMax-yearMin+1)
	month := 1 + rng.Intn(12)
	day := 1 + rng.Intn(28)
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// knownNameForPath anchors person leaves to the case identities; paths
// outside the family tree get a fresh synthetic name.
func (g *Generator) knownNameForPath(path schema.Path, rng *rand.Rand, ctx *caseContext) string {
	switch {
	case path.Contains("defunt"):
		return ctx.defuntName
	case path.Contains("partenaire"):
		return ctx.partnerName
	case path.Contains("enfants"):
		return ctx.childNames[0]
	case path.Contains("petits_enfants"):
		return ctx.childNames[1]
	case path.Contains("beneficiaires"), path.Contains("beneficiaire"):
		pool := []string{ctx.partnerName, ctx.childNames[0], ctx.childNames[1], ctx.defuntName}
		return pool[rng.Intn(len(pool))]
	}
	return g.names.Draw(rng, ctx.used)
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// leafValue draws a plausible scalar for a leaf. The heuristics key on
// the local leaf name so the same rules apply wherever the schema repeats
// a concept (valeur, montant, age, date, ...).
func (g *Generator) leafValue(path schema.Path, leaf *schema.Leaf, rng *rand.Rand, ctx *caseContext) any {
	key := strings.ToLower(path.LeafKey())

	if leaf.Kind == schema.KindEnum {
		return g.enumValue(path, leaf, key, rng, ctx)
	}

	switch leaf.Kind {
	case schema.KindBoolean:
		if key == "existe" {
			return rng.Float64() < 0.78
		}
		return rng.Float64() < 0.55
	case schema.KindDate:
		return randomISODate(rng, 2005, 2026)
	case schema.KindInteger, schema.KindNumber:
		return g.numericValue(path, key, rng)
	}
	return g.stringValue(path, key, rng, ctx)
}

func (g *Generator) enumValue(path schema.Path, leaf *schema.Leaf, key string, rng *rand.Rand, ctx *caseContext) string {
	contains := func(value string) bool {
		for _, v := range leaf.Enum {
			if v == value {
				return true
			}
		}
		return false
	}
	if key == "statut_matrimonial" && contains(ctx.statut) {
		return ctx.statut
	}
	if key == "type" && path.Contains("lien") {
		switch {
		case ctx.statut == "MARIE" && contains("CONJOINT"):
			return "CONJOINT"
		case ctx.statut == "PACSE" && contains("PARTENAIRE_PACS"):
			return "PARTENAIRE_PACS"
		case contains("CONCUBIN"):
			return "CONCUBIN"
		}
	}
	return leaf.Enum[rng.Intn(len(leaf.Enum))]
}

func (g *Generator) numericValue(path schema.Path, key string, rng *rand.Rand) any {
	pathNorm := strings.ToLower(path.Key())
	switch {
	case strings.Contains(key, "age"):
		if path.Contains("defunt") {
			return 55 + rng.Intn(40)
		}
		return 18 + rng.Intn(75)
	case strings.Contains(key, "esperance_de_vie"):
		return 5 + rng.Intn(36)
	case strings.Contains(key, "quote"), strings.Contains(key, "quotite"), strings.Contains(key, "part"):
		return round2(0.1 + rng.Float64()*0.9)
	case strings.Contains(key, "taux"), strings.Contains(key, "decote"):
		return round2(0.01 + rng.Float64()*0.14)
	case strings.Contains(key, "duree"), strings.Contains(key, "anciennete"):
		return 1 + rng.Intn(25)
	case key == "valeur" && (strings.Contains(pathNorm, "duree") ||
		strings.Contains(pathNorm, "anciennete") || strings.Contains(pathNorm, "soins")):
		// Duration blocks are { valeur, unite } where the leaf key is just
		// "valeur".
		return 1 + rng.Intn(36)
	case strings.Contains(key, "mois"):
		return 1 + rng.Intn(48)
	case strings.Contains(key, "patrimoine"):
		return 50_000 + rng.Intn(4_950_001)
	case strings.Contains(key, "montant_mensuel") && strings.Contains(pathNorm, "indemnite_occupation"):
		return 200 + rng.Intn(4_801)
	case strings.Contains(key, "revenus_mensuels"), strings.Contains(key, "charges_mensuelles"):
		return 500 + rng.Intn(14_501)
	case strings.Contains(key, "loyers_encaisses"), strings.Contains(key, "charges_reglees"):
		return rng.Intn(250_001)
	case strings.Contains(pathNorm, "valeurs"):
		return 1_000 + rng.Intn(899_001)
	case strings.Contains(key, "valeur"), strings.Contains(key, "montant"),
		strings.Contains(key, "capital"), strings.Contains(key, "prix"),
		strings.Contains(key, "cout"), strings.Contains(key, "revenus"),
		strings.Contains(key, "charges"):
		return 1_000 + rng.Intn(899_001)
	}
	return 1 + rng.Intn(1000)
}

func (g *Generator) stringValue(path schema.Path, key string, rng *rand.Rand, ctx *caseContext) string {
	switch {
	case key == "nom", strings.HasSuffix(key, "_nom"), strings.HasSuffix(key, "_noms"):
		return g.knownNameForPath(path, rng, ctx)
	case strings.Contains(key, "date"):
		return randomISODate(rng, 2005, 2026)
	case (key == "debut" || key == "fin") && path.Contains("periode"):
		return randomISODate(rng, 2005, 2026)
	case strings.Contains(key, "residence_fiscale"):
		return "France"
	case strings.Contains(key, "residence_habituelle"):
		return pick(rng, []string{"France", "Belgique", "Espagne", "Suisse"})
	case strings.Contains(key, "nationalite"):
		return pick(rng, []string{"Française", "Belge", "Espagnole", "Suisse"})
	case strings.Contains(key, "loi_designee"), strings.Contains(key, "loi_applicable"):
		return "Loi française"
	case strings.Contains(key, "libelle"), strings.Contains(key, "description"):
		return g.labelValue(path, rng)
	case strings.Contains(key, "localisation"):
		return pick(rng, frenchCities)
	}
	// Last resort stays concrete rather than a placeholder token.
	return pick(rng, frenchCities)
}

func (g *Generator) labelValue(path schema.Path, rng *rand.Rand) string {
	switch {
	case path.Contains("actifs"):
		return pick(rng, []string{
			"Maison à " + pick(rng, frenchCities),
			"Appartement à " + pick(rng, frenchCities),
			"Terrain à " + pick(rng, frenchCities),
			"Résidence secondaire à " + pick(rng, frenchCities),
			"Compte bancaire (banque " + pick(rng, []string{"BNP", "SG", "CA", "BP"}) + ")",
			"Parts " + pick(rng, synthCompanies),
		})
	case path.Contains("passifs"):
		return pick(rng, []string{"Emprunt bancaire", "Impôt", "Facture prestataire"})
	case path.Contains("contrats"):
		return "Contrat " + pick(rng, synthInsurers)
	}
	return pick(rng, []string{
		"Maison à " + pick(rng, frenchCities),
		"Appartement à " + pick(rng, frenchCities),
		"Bien à " + pick(rng, frenchCities),
		"Parts " + pick(rng, synthCompanies),
	})
}
