// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package toon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("strips trailing whitespace and outer blank lines", func(t *testing.T) {
		got, err := Normalize("\nfamille:  \r\n  defunt:\t\n")
		require.NoError(t, err)
		assert.Equal(t, "famille:\n  defunt:", got)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		_, err := Normalize("   \n ")
		require.ErrorIs(t, err, ErrCodec)
	})

	t.Run("rejects JSON looking payloads", func(t *testing.T) {
		_, err := Normalize(`{"famille": {}}`)
		require.ErrorIs(t, err, ErrCodec)
		_, err = Normalize(`[1, 2]`)
		require.ErrorIs(t, err, ErrCodec)
	})
}

func TestStructurallyEqual(t *testing.T) {
	a := map[string]any{"famille": map[string]any{"defunt": map[string]any{"age_au_deces": 70}}}
	b := map[string]any{"famille": map[string]any{"defunt": map[string]any{"age_au_deces": float64(70)}}}
	assert.True(t, StructurallyEqual(a, b))

	c := map[string]any{"famille": map[string]any{"defunt": map[string]any{"age_au_deces": 71}}}
	assert.False(t, StructurallyEqual(a, c))
}

func TestCLICodecDecode(t *testing.T) {
	// cat echoes stdin, so feeding JSON through Decode exercises the
	// subprocess plumbing without the real CLI.
	codec, err := NewCLICodec([]string{"cat"}, 0)
	require.NoError(t, err)

	decoded, err := codec.Decode(context.Background(), `{"famille": {"defunt": {"nom": "Durand"}}}`)
	require.NoError(t, err)
	root, ok := decoded.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, root, "famille")
}

func TestCLICodecDecodeFailure(t *testing.T) {
	codec, err := NewCLICodec([]string{"false"}, 0)
	require.NoError(t, err)

	_, err = codec.Decode(context.Background(), "famille:")
	require.ErrorIs(t, err, ErrCodec)
}

func TestCLICodecRejectsNonUTF8Output(t *testing.T) {
	codec, err := NewCLICodec([]string{"sh", "-c", `printf '\303\050'`}, 0)
	require.NoError(t, err)

	_, err = codec.Decode(context.Background(), "famille:")
	require.ErrorIs(t, err, ErrCodec)
	assert.Contains(t, err.Error(), "non-UTF-8")
}

func TestCLICodecEncodeRejectsJSONEcho(t *testing.T) {
	// cat hands the JSON document straight back, which Normalize must
	// refuse instead of issuing JSON as a TOON target.
	codec, err := NewCLICodec([]string{"cat"}, 0)
	require.NoError(t, err)

	_, err = codec.Encode(context.Background(), map[string]any{"famille": map[string]any{}})
	require.ErrorIs(t, err, ErrCodec)
}

func TestNewCLICodecEmptyCommand(t *testing.T) {
	_, err := NewCLICodec(nil, 0)
	require.ErrorIs(t, err, ErrCodec)
}
