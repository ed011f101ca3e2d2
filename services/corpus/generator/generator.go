// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generator samples sparse structured succession targets that
// honor the master schema, the drawn diversity axes, and the business
// rules of a French estate file.
package generator

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
	"github.com/AleutianAI/casecorpus/services/corpus/schema"
)

// includeProba controls how eagerly optional leaves under the active
// prefixes make it into a target, per complexity band.
var includeProba = map[string]float64{
	"simple":        0.18,
	"intermediaire": 0.28,
	"complexe":      0.40,
	"hard_negative": 0.34,
}

var rootOrder = []string{
	"contexte", "famille", "liberalites", "assurance_vie",
	"patrimoine", "indivision", "operations_de_partage",
}

// Generator builds schema-conformant sparse targets. One Generator is
// safe for concurrent use as long as callers pass distinct sequences.
type Generator struct {
	index       *schema.Index
	names       *NameProvider
	seed        int64
	maxAttempts int
}

// New wires a generator over the loaded schema index. Persona anchor
// leaves absent from the schema are logged once and skipped at build
// time.
func New(index *schema.Index, seed int64, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = 50
	}
	g := &Generator{
		index:       index,
		names:       NewNameProvider(seed),
		seed:        seed,
		maxAttempts: maxAttempts,
	}
	for persona, anchor := range axes.PersonaAnchors() {
		for _, leaf := range anchor.MandatoryLeaves {
			if !index.IsLeaf(leaf) {
				slog.Warn("persona anchor leaf missing from schema",
					"persona", persona, "leaf", leaf.Key())
			}
		}
	}
	return g
}

// Build produces one target for the drawn dimensions, retrying with a
// fresh deterministic stream until every gate passes.
func (g *Generator) Build(d datatypes.Dimensions, sequence int) (map[string]any, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		rng := rand.New(rand.NewSource(g.seed*1000 + int64(sequence)*100 + int64(attempt)))
		payload := g.buildOnce(d, rng)

		if err := schema.ValidateSparse(payload); err != nil {
			lastErr = err
			continue
		}
		if err := ValidateCoherence(payload, d); err != nil {
			lastErr = err
			continue
		}
		if err := g.index.ValidatePayload(payload); err != nil {
			lastErr = err
			continue
		}
		if err := g.ValidateTopicAlignment(payload, d); err != nil {
			lastErr = err
			continue
		}
		return payload, nil
	}
	return nil, fmt.Errorf("no valid target after %d attempts (last: %w)", g.maxAttempts, lastErr)
}

// resolveStatut picks the marital status the case is built around. The
// drawn topics and persona constrain it before randomness kicks in.
func resolveStatut(d datatypes.Dimensions, rng *rand.Rand) string {
	statut := ""
	switch {
	case d.PrimaryTopic == "regimes_matrimoniaux" || d.SecondaryTopic == "regimes_matrimoniaux":
		statut = "MARIE"
	case d.PrimaryTopic == "pacs_concubinage":
		if rng.Float64() < 0.70 {
			statut = "PACSE"
		} else {
			statut = "CELIBATAIRE"
		}
	case d.PrimaryTopic == "famille_recomposee":
		statut = "MARIE"
	default:
		statut = pick(rng, []string{"CELIBATAIRE", "MARIE", "PACSE", "DIVORCE", "VEUF"})
	}
	if anchor := axes.AnchorFor(d.Persona); anchor.MaritalStatus != "" {
		statut = anchor.MaritalStatus
	}
	return statut
}

func (g *Generator) buildOnce(d datatypes.Dimensions, rng *rand.Rand) map[string]any {
	ctx := &caseContext{used: map[string]bool{}}
	ctx.defuntName = g.names.Draw(rng, ctx.used)
	ctx.partnerName = g.names.Draw(rng, ctx.used)
	ctx.childNames = []string{g.names.Draw(rng, ctx.used), g.names.Draw(rng, ctx.used)}
	ctx.statut = resolveStatut(d, rng)

	proba, ok := includeProba[d.Complexity]
	if !ok {
		proba = 0.28
	}

	selected := map[string]schema.Path{}
	add := func(path schema.Path) {
		if g.index.IsLeaf(path) {
			selected[path.Key()] = path
		}
	}

	add(schema.Path{"famille", "defunt", "nom"})
	add(schema.Path{"famille", "defunt", "statut_matrimonial"})
	add(schema.Path{"famille", "defunt", "date_deces"})
	if ctx.statut == "MARIE" || ctx.statut == "PACSE" || d.Persona == "concubin" {
		add(schema.Path{"famille", "partenaire", "nom"})
		add(schema.Path{"famille", "partenaire", "lien", "type"})
	}
	for _, leaf := range axes.AnchorFor(d.Persona).MandatoryLeaves {
		add(leaf)
	}

	prefixes := []schema.Path{{"famille", "defunt"}}
	for _, name := range []string{d.PrimaryTopic, d.SecondaryTopic} {
		if name == "" {
			continue
		}
		topic, ok := axes.Topics[name]
		if !ok {
			continue
		}
		for _, leaf := range topic.RequiredLeaves {
			add(leaf)
		}
		prefixes = append(prefixes, topic.Prefixes...)
	}
	if d.Complexity == "complexe" || d.Complexity == "hard_negative" {
		prefixes = append(prefixes,
			schema.Path{"contexte", "procedure"},
			schema.Path{"operations_de_partage"})
	}

	for _, prefix := range prefixes {
		for _, leaf := range g.index.LeavesUnder(prefix) {
			if rng.Float64() < proba {
				add(leaf.Path)
			}
		}
	}

	// Rarely visited corners of the schema get a small dedicated draw so
	// the corpus still covers them.
	for _, prefix := range axes.SparseCoveragePrefixes {
		if rng.Float64() >= 0.16 {
			continue
		}
		for _, leaf := range g.index.LeavesUnder(prefix) {
			if rng.Float64() < 0.45 {
				add(leaf.Path)
			}
		}
	}

	payload := map[string]any{}
	stageOne, stageTwo := splitStages(selected)
	for _, path := range stageOne {
		setPath(payload, path, g.leafValue(path, g.index.LeafSpec(path), rng, ctx))
	}
	for _, path := range stageTwo {
		setPath(payload, path, g.leafValue(path, g.index.LeafSpec(path), rng, ctx))
	}

	g.repair(payload, d, ctx, rng)
	return payload
}

// splitStages orders the selected leaves: the deceased and partner
// identity first so later value draws can anchor on them, then the rest
// grouped by schema root.
func splitStages(selected map[string]schema.Path) (stageOne, stageTwo []schema.Path) {
	rootRank := map[string]int{}
	for i, root := range rootOrder {
		rootRank[root] = i
	}
	for _, path := range selected {
		if len(path) >= 2 && path[0] == "famille" &&
			(path[1] == "defunt" || path[1] == "partenaire") {
			stageOne = append(stageOne, path)
		} else {
			stageTwo = append(stageTwo, path)
		}
	}
	sort.Slice(stageOne, func(i, j int) bool {
		return stageOne[i].Key() < stageOne[j].Key()
	})
	sort.Slice(stageTwo, func(i, j int) bool {
		ri, iKnown := rootRank[stageTwo[i][0]]
		rj, jKnown := rootRank[stageTwo[j][0]]
		if !iKnown {
			ri = len(rootOrder)
		}
		if !jKnown {
			rj = len(rootOrder)
		}
		if ri != rj {
			return ri < rj
		}
		return stageTwo[i].Key() < stageTwo[j].Key()
	})
	return stageOne, stageTwo
}

// setPath writes value at path, creating intermediate objects. The list
// marker materializes a single-element list and descends into it.
func setPath(payload map[string]any, path schema.Path, value any) {
	node := payload
	for i := 0; i < len(path)-1; i++ {
		segment := path[i]
		if i+1 < len(path) && path[i+1] == schema.ListMarker {
			list, ok := node[segment].([]any)
			if !ok || len(list) == 0 {
				list = []any{map[string]any{}}
				node[segment] = list
			}
			element, ok := list[0].(map[string]any)
			if !ok {
				element = map[string]any{}
				list[0] = element
			}
			node = element
			i++
			continue
		}
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[segment] = child
		}
		node = child
	}
	node[path[len(path)-1]] = value
}
