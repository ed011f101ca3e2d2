// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
)

func TestDrawForcedTopic(t *testing.T) {
	s := New(42, 32)

	d, err := s.Draw(1, "assurance_vie")
	require.NoError(t, err)
	assert.Equal(t, "assurance_vie", d.PrimaryTopic)

	// Unknown topics are ignored and the scheduler picks freely.
	d, err = s.Draw(2, "not_a_topic")
	require.NoError(t, err)
	assert.True(t, axes.IsTopic(d.PrimaryTopic))
}

func TestDrawDeterministicForSequence(t *testing.T) {
	a := New(42, 32)
	b := New(42, 32)

	da, err := a.Draw(7, "")
	require.NoError(t, err)
	db, err := b.Draw(7, "")
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestDrawInvariants(t *testing.T) {
	s := New(42, 32)

	for seq := 1; seq <= 200; seq++ {
		d, err := s.Draw(seq, "")
		require.NoError(t, err)

		if d.Complexity == "hard_negative" {
			assert.NotEmpty(t, d.HardNegativeMode, "seq %d", seq)
			assert.NotEmpty(t, d.HardNegativeIntensity, "seq %d", seq)
		} else {
			assert.Empty(t, d.HardNegativeMode, "seq %d", seq)
			assert.Empty(t, d.HardNegativeIntensity, "seq %d", seq)
		}

		if d.NumericDensity == "montants_et_dates" {
			assert.NotEqual(t, "aucune", d.DatePrecision, "seq %d", seq)
		}

		if d.SecondaryTopic != "" {
			assert.NotEqual(t, d.PrimaryTopic, d.SecondaryTopic, "seq %d", seq)
		}
		if d.Complexity == "complexe" || d.Complexity == "hard_negative" {
			assert.NotEmpty(t, d.SecondaryTopic, "seq %d", seq)
		}

		if d.Persona == "partenaire_pacs" || d.Persona == "concubin" {
			assert.NotEqual(t, "regimes_matrimoniaux", d.PrimaryTopic, "seq %d", seq)
			assert.NotEqual(t, "regimes_matrimoniaux", d.SecondaryTopic, "seq %d", seq)
		}

		s.Observe(d)
	}
}

func TestDrawAvoidsImmediateSignatureRepeat(t *testing.T) {
	s := New(42, 32)

	previous := ""
	for seq := 1; seq <= 100; seq++ {
		d, err := s.Draw(seq, "")
		require.NoError(t, err)
		sig := d.Signature()
		assert.NotEqual(t, previous, sig, "seq %d", seq)
		s.Observe(d)
		previous = sig
	}
}

func TestObserveCounts(t *testing.T) {
	s := New(1, 4)
	d := datatypes.Dimensions{
		Persona:        "enfant",
		Voice:          "premiere_personne",
		Format:         "recit_libre",
		LengthBand:     "moyen",
		Noise:          "propre",
		NumericDensity: "un_montant",
		DatePrecision:  "exacte",
		Complexity:     "simple",
		PrimaryTopic:   "assurance_vie",
		SecondaryTopic: "dettes_passif",
	}
	s.Observe(d)
	s.Observe(d)

	counts := s.Counts()
	assert.Equal(t, 2, counts[axes.Persona]["enfant"])
	assert.Equal(t, 2, counts[axes.PrimaryTopic]["assurance_vie"])
	assert.Equal(t, 2, counts[axes.SecondaryTopic]["dettes_passif"])
	assert.Zero(t, counts[axes.HardNegativeMode]["pas_de_deces_clair"])

	// Counts is a copy.
	counts[axes.Persona]["enfant"] = 99
	assert.Equal(t, 2, s.Counts()[axes.Persona]["enfant"])
}

func TestDeficitPickPrefersStarvedBucket(t *testing.T) {
	s := New(5, 8)
	// Flood every persona except "tiers" so the deficit score makes the
	// starved bucket win outright.
	base := datatypes.Dimensions{
		Voice:          "premiere_personne",
		Format:         "recit_libre",
		LengthBand:     "moyen",
		Noise:          "propre",
		NumericDensity: "un_montant",
		DatePrecision:  "exacte",
		Complexity:     "simple",
		PrimaryTopic:   "ordre_heritiers",
	}
	for _, bucket := range axes.PersonaAxis.Buckets {
		if bucket.Name == "tiers" {
			continue
		}
		d := base
		d.Persona = bucket.Name
		for i := 0; i < 20; i++ {
			s.Observe(d)
		}
	}

	d, err := s.Draw(1, "")
	require.NoError(t, err)
	assert.Equal(t, "tiers", d.Persona)
}
