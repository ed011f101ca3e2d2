// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package seed loads the human-authored seed corpus. Seeds count toward
// the campaign total and feed the reference excerpts attached to
// instructions.
package seed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AleutianAI/casecorpus/services/corpus/validator"
)

// Case is one seed corpus entry with normalized text. TargetTOON is
// optional; seeds that carry one join the full training export.
type Case struct {
	CaseID     string `json:"case_id"`
	SourceType string `json:"source_type"`
	SourceName string `json:"source_name"`
	Text       string `json:"text"`
	TargetTOON string `json:"target_toon,omitempty"`
}

// Load reads the seed JSONL file. Rows without a usable text field are
// skipped; a missing file yields an empty corpus, matching a campaign
// that starts from scratch.
func Load(path string) ([]Case, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("seed corpus: %w", err)
	}
	defer file.Close()

	var seeds []Case
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var row struct {
			CaseID     string `json:"case_id"`
			SourceType string `json:"source_type"`
			SourceName string `json:"source_name"`
			Text       string `json:"text"`
			TargetTOON string `json:"target_toon"`
		}
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("seed corpus %s line %d: %w", path, line, err)
		}
		if strings.TrimSpace(row.Text) == "" {
			continue
		}
		id := row.CaseID
		if id == "" {
			id = fmt.Sprintf("seed_%04d", len(seeds)+1)
		}
		sourceType := row.SourceType
		if sourceType == "" {
			sourceType = "unknown"
		}
		seeds = append(seeds, Case{
			CaseID:     id,
			SourceType: sourceType,
			SourceName: row.SourceName,
			Text:       validator.NormalizeText(row.Text),
			TargetTOON: strings.ReplaceAll(row.TargetTOON, "\r\n", "\n"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("seed corpus %s: %w", path, err)
	}
	return seeds, nil
}

// References converts seeds to validator references.
func References(seeds []Case) []validator.Reference {
	refs := make([]validator.Reference, 0, len(seeds))
	for _, s := range seeds {
		refs = append(refs, validator.Reference{ID: s.CaseID, Text: s.Text})
	}
	return refs
}
