// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Resolve(Options{StateDir: dir, Seed: DefaultSeed}, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultTargetTotalCases, cfg.TargetTotalCases)
	assert.Equal(t, DefaultTargetTotalCases, cfg.GenerationTarget)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultSignatureWindow, cfg.SignatureWindow)
	assert.Equal(t, DefaultSimilarityWindow, cfg.SimilarityWindow)
	assert.InDelta(t, DefaultSimilarityThreshold, cfg.SimilarityThreshold, 0.0001)
	assert.Equal(t, []string{"npx", "-y", "@toon-format/cli"}, cfg.CodecCommand)
	assert.Equal(t, DefaultCodecTimeout, cfg.CodecTimeout)
	assert.NotEmpty(t, cfg.CreatedAt)
}

func TestResolveDerivesGenerationTargetFromSeeds(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Resolve(Options{StateDir: dir, TargetTotalCases: 100}, 37)
	require.NoError(t, err)
	assert.Equal(t, 63, cfg.GenerationTarget)

	// More seeds than the total clamps to zero.
	cfg, err = Resolve(Options{StateDir: dir, TargetTotalCases: 100}, 150)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.GenerationTarget)

	pinned := 12
	cfg, err = Resolve(Options{StateDir: dir, TargetTotalCases: 100, GenerationTarget: &pinned}, 37)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.GenerationTarget)
}

func TestResolveKeepsCreationStamp(t *testing.T) {
	dir := t.TempDir()

	first, err := Resolve(Options{StateDir: dir}, 0)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	second, err := Resolve(Options{StateDir: dir, TargetTotalCases: 200}, 0)
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, 200, second.TargetTotalCases)
}

func TestResolveKeepsAxisShares(t *testing.T) {
	dir := t.TempDir()

	first, err := Resolve(Options{StateDir: dir}, 0)
	require.NoError(t, err)
	require.Empty(t, first.AxisShares)

	// Hand-edit the written file the way an operator would.
	path := filepath.Join(dir, "config.json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	onDisk["axis_shares"] = map[string]any{"voice": map[string]any{"note_dossier": 0.4}}
	edited, err := json.Marshal(onDisk)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, edited, 0o640))

	second, err := Resolve(Options{StateDir: dir}, 0)
	require.NoError(t, err)
	require.Contains(t, second.AxisShares, "voice")
	assert.InDelta(t, 0.4, second.AxisShares["voice"]["note_dossier"], 0.0001)
}

func TestResolveWritesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Resolve(Options{
		StateDir:     dir,
		Seed:         7,
		CodecTimeout: 3 * time.Second,
	}, 5)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.EqualValues(t, cfg.Seed, onDisk["seed"])
	assert.EqualValues(t, cfg.GenerationTarget, onDisk["generation_target"])
	assert.EqualValues(t, 3, onDisk["codec_timeout_seconds"])
}
