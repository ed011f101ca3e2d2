// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config resolves the coordinator configuration from CLI flags and
// the config.json file kept inside the state directory. The file is written
// back on every startup with the resolved values so a restarted campaign
// keeps its seed and targets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const configFilename = "config.json"

// Defaults mirrored by the CLI flags.
const (
	DefaultTargetTotalCases    = 5000
	DefaultSeed                = 42
	DefaultMaxAttempts         = 50
	DefaultSignatureWindow     = 32
	DefaultSimilarityWindow    = 50
	DefaultSimilarityThreshold = 0.9
	DefaultCodecTimeout        = 5 * time.Second
)

// Config is the resolved coordinator configuration.
type Config struct {
	StateDir         string `json:"state_dir"`
	CorpusFile       string `json:"corpus_file"`
	MasterSchemaFile string `json:"master_schema_file"`

	TargetTotalCases int `json:"target_total_cases"`
	// GenerationTarget defaults to TargetTotalCases minus the seed count.
	GenerationTarget int   `json:"generation_target"`
	Seed             int64 `json:"seed"`

	MaxAttempts         int     `json:"max_attempts"`
	SignatureWindow     int     `json:"signature_window"`
	SimilarityWindow    int     `json:"similarity_window"`
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// AxisShares overrides per-bucket target shares. File-only: there is
	// no CLI flag, the map is edited in config.json and survives restarts.
	AxisShares map[string]map[string]float64 `json:"axis_shares,omitempty"`

	// CodecCommand is the argv prefix of the external TOON CLI.
	CodecCommand []string      `json:"codec_command,omitempty"`
	CodecTimeout time.Duration `json:"-"`
	// CodecTimeoutSeconds is the persisted form of CodecTimeout.
	CodecTimeoutSeconds float64 `json:"codec_timeout_seconds"`

	CreatedAt string `json:"created_at"`
}

// Options carries the caller-supplied values before resolution. A nil
// GenerationTarget means "derive from the seed count".
type Options struct {
	StateDir            string
	CorpusFile          string
	MasterSchemaFile    string
	TargetTotalCases    int
	GenerationTarget    *int
	Seed                int64
	MaxAttempts         int
	SignatureWindow     int
	SimilarityWindow    int
	SimilarityThreshold float64
	CodecCommand        []string
	CodecTimeout        time.Duration
}

func (o *Options) fillDefaults() {
	if o.TargetTotalCases <= 0 {
		o.TargetTotalCases = DefaultTargetTotalCases
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.SignatureWindow <= 0 {
		o.SignatureWindow = DefaultSignatureWindow
	}
	if o.SimilarityWindow <= 0 {
		o.SimilarityWindow = DefaultSimilarityWindow
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if o.CodecTimeout <= 0 {
		o.CodecTimeout = DefaultCodecTimeout
	}
	if len(o.CodecCommand) == 0 {
		o.CodecCommand = []string{"npx", "-y", "@toon-format/cli"}
	}
}

// Resolve merges opts with any existing config.json under the state
// directory, computes the generation target from seedCount when the caller
// did not pin one, and writes the resolved file back.
func Resolve(opts Options, seedCount int) (*Config, error) {
	opts.fillDefaults()

	if err := os.MkdirAll(opts.StateDir, 0o750); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}

	generationTarget := opts.TargetTotalCases - seedCount
	if generationTarget < 0 {
		generationTarget = 0
	}
	if opts.GenerationTarget != nil {
		generationTarget = *opts.GenerationTarget
	}

	cfg := &Config{
		StateDir:            opts.StateDir,
		CorpusFile:          opts.CorpusFile,
		MasterSchemaFile:    opts.MasterSchemaFile,
		TargetTotalCases:    opts.TargetTotalCases,
		GenerationTarget:    generationTarget,
		Seed:                opts.Seed,
		MaxAttempts:         opts.MaxAttempts,
		SignatureWindow:     opts.SignatureWindow,
		SimilarityWindow:    opts.SimilarityWindow,
		SimilarityThreshold: opts.SimilarityThreshold,
		CodecCommand:        opts.CodecCommand,
		CodecTimeout:        opts.CodecTimeout,
		CreatedAt:           time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
	}

	path := filepath.Join(opts.StateDir, configFilename)
	if raw, err := os.ReadFile(path); err == nil {
		var prev Config
		if err := json.Unmarshal(raw, &prev); err == nil {
			// The campaign keeps its original creation stamp and its
			// share overrides; everything else follows the current
			// invocation.
			if prev.CreatedAt != "" {
				cfg.CreatedAt = prev.CreatedAt
			}
			if len(prev.AxisShares) > 0 {
				cfg.AxisShares = prev.AxisShares
			}
		}
	}

	cfg.CodecTimeoutSeconds = cfg.CodecTimeout.Seconds()
	if err := writeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeFile(path string, cfg *Config) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o640)
}
