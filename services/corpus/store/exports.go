// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/casecorpus/services/corpus/prompt"
	"github.com/AleutianAI/casecorpus/services/corpus/seed"
)

const (
	generatedExport = "generated_cases_train_mistral.jsonl"
	fullExport      = "full_training_cases_mistral.jsonl"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type trainingRow struct {
	Messages []chatMessage `json:"messages"`
}

func newTrainingRow(caseText, targetTOON string) trainingRow {
	return trainingRow{Messages: []chatMessage{
		{Role: "system", Content: prompt.PairTrainingSystemPrompt},
		{Role: "user", Content: caseText},
		{Role: "assistant", Content: targetTOON},
	}}
}

// WriteTrainingExports rewrites both fine-tuning files. The generated
// export carries only agent submissions; the full export prepends the
// seed cases that ship with a target.
func (s *Store) WriteTrainingExports(seeds []seed.Case) error {
	var generated []trainingRow
	for _, sub := range s.submissions {
		generated = append(generated, newTrainingRow(sub.CaseText, sub.TargetTOON))
	}
	if err := writeTrainingFile(filepath.Join(s.dir, generatedExport), generated); err != nil {
		return err
	}

	var full []trainingRow
	for _, sc := range seeds {
		if strings.TrimSpace(sc.TargetTOON) != "" {
			full = append(full, newTrainingRow(sc.Text, sc.TargetTOON))
		}
	}
	full = append(full, generated...)
	return writeTrainingFile(filepath.Join(s.dir, fullExport), full)
}

func writeTrainingFile(path string, rows []trainingRow) error {
	var b strings.Builder
	for _, row := range rows {
		encoded, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
		}
		b.Write(encoded)
		b.WriteByte('\n')
	}
	return writeBytesAtomic(path, []byte(b.String()))
}
