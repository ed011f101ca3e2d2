// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package axes

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/casecorpus/services/corpus/schema"
)

//go:embed anchors.yaml
var anchorsYAML []byte

// PersonaAnchor states what a drawn persona forces into the generated
// target: leaf paths that must be populated and, optionally, the
// decedent's marital status.
type PersonaAnchor struct {
	MandatoryLeaves []schema.Path
	MaritalStatus   string
}

type anchorFile struct {
	Personas map[string]struct {
		MandatoryLeaves []string `yaml:"mandatory_leaves"`
		MaritalStatus   string   `yaml:"marital_status"`
	} `yaml:"personas"`
}

var personaAnchors = mustLoadAnchors()

func mustLoadAnchors() map[string]PersonaAnchor {
	var file anchorFile
	if err := yaml.Unmarshal(anchorsYAML, &file); err != nil {
		panic(fmt.Sprintf("axes: embedded anchors.yaml: %v", err))
	}
	anchors := make(map[string]PersonaAnchor, len(file.Personas))
	for persona, entry := range file.Personas {
		if !PersonaAxis.Has(persona) {
			panic(fmt.Sprintf("axes: anchors.yaml names unknown persona %q", persona))
		}
		anchor := PersonaAnchor{MaritalStatus: entry.MaritalStatus}
		for _, raw := range entry.MandatoryLeaves {
			anchor.MandatoryLeaves = append(anchor.MandatoryLeaves, schema.Path(strings.Split(raw, ".")))
		}
		anchors[persona] = anchor
	}
	return anchors
}

// AnchorFor returns the anchoring rules for a persona. Unknown personas
// get an empty anchor.
func AnchorFor(persona string) PersonaAnchor {
	return personaAnchors[persona]
}

// PersonaAnchors exposes every persona anchor, keyed by persona bucket.
func PersonaAnchors() map[string]PersonaAnchor {
	return personaAnchors
}
