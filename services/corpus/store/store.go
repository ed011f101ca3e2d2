// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store owns the on-disk campaign state: append-only logs of
// issued instructions and accepted submissions, per-record JSON files,
// counters, and the training exports. Appends are fsynced; snapshot
// files are written via temp-then-rename.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
)

const (
	issuedLog       = "issued_instructions.jsonl"
	casesLog        = "generated_cases.jsonl"
	countersFile    = "counters.json"
	summaryJSONFile = "summary.json"
	summaryMDFile   = "summary.md"
	instructionsDir = "instructions"
	submissionsDir  = "submissions"
	legacyPointer   = "_last_instruction.json"
)

// Store holds the replayed campaign state and serializes all writes.
// Callers are expected to provide their own locking; the coordinator
// drives every mutation under its mutex.
type Store struct {
	dir         string
	issued      []datatypes.InstructionRecord
	submissions []datatypes.SubmissionRecord
	submitted   map[string]bool
}

// Open replays the state directory, sanitizing legacy rows in place.
func Open(dir string) (*Store, error) {
	for _, sub := range []string{instructionsDir, submissionsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return nil, fmt.Errorf("state dir: %w", err)
		}
	}
	s := &Store{dir: dir, submitted: map[string]bool{}}
	if err := s.replayIssued(); err != nil {
		return nil, err
	}
	if err := s.replaySubmissions(); err != nil {
		return nil, err
	}

	// Older runs kept a mutable pointer file; the logs made it redundant.
	pointer := filepath.Join(dir, legacyPointer)
	if _, err := os.Stat(pointer); err == nil {
		if err := os.Remove(pointer); err != nil {
			return nil, fmt.Errorf("remove %s: %w", legacyPointer, err)
		}
		slog.Info("removed legacy pointer file", "path", pointer)
	}
	return s, nil
}

// sanitizeLegacyLine migrates rows written before the TOON switch, when
// the target field and its mentions were still named target_json. The
// blanket replace renames the key everywhere it appears: the top-level
// field, response_format.required_keys, submission_contract
// required_fields, rule-field names, and prompt text. The old prompt
// phrasing about a filled JSON target is rewritten too.
func sanitizeLegacyLine(raw string) string {
	clean := strings.ReplaceAll(raw, "target_json", "target_toon")
	return strings.ReplaceAll(clean, "JSON cible rempli", "TOON cible valide")
}

func (s *Store) replayIssued() error {
	path := filepath.Join(s.dir, issuedLog)
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	changed := false
	var kept []string
	for i, raw := range lines {
		clean := sanitizeLegacyLine(raw)
		if clean != raw {
			changed = true
		}
		var rec datatypes.InstructionRecord
		if err := json.Unmarshal([]byte(clean), &rec); err != nil {
			return fmt.Errorf("%s line %d: %w", issuedLog, i+1, err)
		}
		if normalized := strings.ReplaceAll(rec.ServerTargetTOON, "\r\n", "\n"); normalized != rec.ServerTargetTOON {
			rec.ServerTargetTOON = normalized
			changed = true
			encoded, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", issuedLog, i+1, err)
			}
			clean = string(encoded)
		}
		s.issued = append(s.issued, rec)
		kept = append(kept, clean)
	}
	if changed {
		slog.Info("sanitized legacy instruction log", "rows", len(kept))
		return writeLines(path, kept)
	}
	return nil
}

func (s *Store) replaySubmissions() error {
	path := filepath.Join(s.dir, casesLog)
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	changed := false
	var kept []string
	for i, raw := range lines {
		clean := sanitizeLegacyLine(raw)
		if clean != raw {
			changed = true
		}
		var rec datatypes.SubmissionRecord
		if err := json.Unmarshal([]byte(clean), &rec); err != nil {
			return fmt.Errorf("%s line %d: %w", casesLog, i+1, err)
		}
		if strings.TrimSpace(rec.CaseText) == "" || strings.TrimSpace(rec.TargetTOON) == "" {
			slog.Warn("dropping incomplete submission row", "line", i+1, "instruction_id", rec.InstructionID)
			changed = true
			continue
		}
		if normalized := strings.ReplaceAll(rec.TargetTOON, "\r\n", "\n"); normalized != rec.TargetTOON {
			rec.TargetTOON = normalized
			changed = true
		}
		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%s line %d: %w", casesLog, i+1, err)
		}
		s.submissions = append(s.submissions, rec)
		s.submitted[rec.InstructionID] = true
		kept = append(kept, string(encoded))
	}
	if changed {
		slog.Info("sanitized legacy case log", "rows", len(kept))
		return writeLines(path, kept)
	}
	return nil
}

// Issued returns the replayed instruction log, oldest first.
func (s *Store) Issued() []datatypes.InstructionRecord {
	return append([]datatypes.InstructionRecord(nil), s.issued...)
}

// Submissions returns the accepted cases, oldest first.
func (s *Store) Submissions() []datatypes.SubmissionRecord {
	return append([]datatypes.SubmissionRecord(nil), s.submissions...)
}

// IssuedCount reports how many instructions have ever been issued.
func (s *Store) IssuedCount() int { return len(s.issued) }

// SubmittedCount reports how many cases were accepted.
func (s *Store) SubmittedCount() int { return len(s.submissions) }

// IsSubmitted reports whether an instruction already has a case.
func (s *Store) IsSubmitted(id string) bool { return s.submitted[id] }

// Lookup finds an issued instruction by id.
func (s *Store) Lookup(id string) (datatypes.InstructionRecord, bool) {
	for i := range s.issued {
		if s.issued[i].InstructionID == id {
			return s.issued[i], true
		}
	}
	return datatypes.InstructionRecord{}, false
}

type instructionFile struct {
	Status      string                      `json:"status"`
	Instruction datatypes.InstructionRecord `json:"instruction"`
	Submission  *datatypes.SubmissionRecord `json:"submission,omitempty"`
}

// AppendInstruction durably records a newly issued instruction.
func (s *Store) AppendInstruction(rec datatypes.InstructionRecord) error {
	if err := appendLine(filepath.Join(s.dir, issuedLog), rec); err != nil {
		return err
	}
	doc := instructionFile{Status: "issued", Instruction: rec}
	if err := writeJSONAtomic(s.instructionPath(rec.InstructionID), doc); err != nil {
		return err
	}
	s.issued = append(s.issued, rec)
	return nil
}

// AppendSubmission durably records an accepted case and flips the
// instruction file to its submitted form.
func (s *Store) AppendSubmission(rec datatypes.SubmissionRecord) error {
	if err := appendLine(filepath.Join(s.dir, casesLog), rec); err != nil {
		return err
	}
	if err := writeJSONAtomic(s.submissionPath(rec.InstructionID), rec); err != nil {
		return err
	}
	if instruction, ok := s.Lookup(rec.InstructionID); ok {
		doc := instructionFile{Status: "submitted", Instruction: instruction, Submission: &rec}
		if err := writeJSONAtomic(s.instructionPath(rec.InstructionID), doc); err != nil {
			return err
		}
	}
	s.submissions = append(s.submissions, rec)
	s.submitted[rec.InstructionID] = true
	return nil
}

func (s *Store) instructionPath(id string) string {
	return filepath.Join(s.dir, instructionsDir, id+".json")
}

func (s *Store) submissionPath(id string) string {
	return filepath.Join(s.dir, submissionsDir, id+".json")
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw != "" {
			lines = append(lines, raw)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

func writeLines(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return writeBytesAtomic(path, []byte(b.String()))
}

func appendLine(path string, record any) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("append %s: %w", filepath.Base(path), err)
	}
	defer file.Close()
	if _, err := file.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("append %s: %w", filepath.Base(path), err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSONAtomic(path string, doc any) error {
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeBytesAtomic(path, append(encoded, '\n'))
}

func writeBytesAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(path, 0o640); err != nil {
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	return nil
}
