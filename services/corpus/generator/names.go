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
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

var frenchFirstNames = []string{
	"Jean", "Marie", "Claire", "Thomas", "Camille", "Hugo", "Lucie",
	"Nicolas", "Sophie", "Julien", "Emma", "Paul", "Lea", "Antoine",
}

var frenchLastNames = []string{
	"Durand", "Morel", "Lefevre", "Martin", "Roux", "Bernard",
	"Petit", "Garcia", "Thomas", "Robert", "Leroy", "Girard",
}

var frenchCities = []string{
	"Paris", "Lyon", "Marseille", "Nantes", "Bordeaux", "Lille",
	"Toulouse", "Montpellier", "Grenoble",
}

var synthCompanies = []string{
	"SARL Atelier Delta", "SAS Nova Conseil", "SCI Les Tilleuls",
	"SARL Horizon Bois", "SAS Aquila Services",
}

var synthInsurers = []string{
	"Generali", "AXA", "MAIF", "Credit Agricole Predica", "CNP Assurances",
}

// NameProvider draws unique synthetic French person names. The seeded
// list combinations come first so name selection stays reproducible; the
// faker only kicks in once the combination space is exhausted.
type NameProvider struct {
	faker *gofakeit.Faker
}

// NewNameProvider builds a provider with a deterministic overflow faker.
func NewNameProvider(seed int64) *NameProvider {
	return &NameProvider{faker: gofakeit.New(uint64(seed))}
}

// Draw returns a name absent from used and records it there.
func (p *NameProvider) Draw(rng *rand.Rand, used map[string]bool) string {
	for i := 0; i < 200; i++ {
		candidate := frenchFirstNames[rng.Intn(len(frenchFirstNames))] + " " +
			frenchLastNames[rng.Intn(len(frenchLastNames))]
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
	if p.faker != nil {
		for i := 0; i < 50; i++ {
			candidate := strings.TrimSpace(p.faker.Name())
			if candidate != "" && !used[candidate] {
				used[candidate] = true
				return candidate
			}
		}
	}
	fallback := fmt.Sprintf("Personne %d", len(used)+1)
	used[fallback] = true
	return fallback
}
