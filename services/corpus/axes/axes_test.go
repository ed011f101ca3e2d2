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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxisSharesSumToOne(t *testing.T) {
	for _, axis := range All {
		t.Run(axis.Name, func(t *testing.T) {
			total := 0.0
			seen := map[string]bool{}
			for _, bucket := range axis.Buckets {
				assert.False(t, seen[bucket.Name], "duplicate bucket %s", bucket.Name)
				seen[bucket.Name] = true
				assert.Greater(t, bucket.Share, 0.0)
				total += bucket.Share
			}
			assert.InDelta(t, 1.0, total, 0.001)
		})
	}
}

func TestByName(t *testing.T) {
	axis, ok := ByName(Persona)
	require.True(t, ok)
	assert.Equal(t, Persona, axis.Name)

	// The secondary topic axis shares the topic buckets.
	secondary, ok := ByName(SecondaryTopic)
	require.True(t, ok)
	assert.Equal(t, TopicAxis.Buckets, secondary.Buckets)

	_, ok = ByName("inconnu")
	assert.False(t, ok)
}

func TestTopicsAreScheduledBuckets(t *testing.T) {
	for _, bucket := range TopicAxis.Buckets {
		topic, ok := Topics[bucket.Name]
		require.True(t, ok, "topic %s has no definition", bucket.Name)
		assert.NotEmpty(t, topic.Label)
		assert.NotEmpty(t, topic.Keywords)
		assert.NotEmpty(t, topic.Prefixes)
		assert.True(t, IsTopic(bucket.Name))
	}
	assert.False(t, IsTopic("testament"))
}

func TestPersonaAnchorsCoverEveryPersona(t *testing.T) {
	anchors := PersonaAnchors()
	for _, bucket := range PersonaAxis.Buckets {
		_, ok := anchors[bucket.Name]
		assert.True(t, ok, "persona %s missing from anchors.yaml", bucket.Name)
	}

	concubin := AnchorFor("concubin")
	assert.Equal(t, "CELIBATAIRE", concubin.MaritalStatus)
	require.Len(t, concubin.MandatoryLeaves, 2)
	assert.Equal(t, "famille.partenaire.nom", concubin.MandatoryLeaves[0].Key())

	neutral := AnchorFor("narrateur_neutre")
	assert.Empty(t, neutral.MandatoryLeaves)
	assert.Empty(t, neutral.MaritalStatus)
}

func TestOverrideShares(t *testing.T) {
	original := make([]Bucket, len(VoiceAxis.Buckets))
	copy(original, VoiceAxis.Buckets)
	defer copy(VoiceAxis.Buckets, original)

	err := OverrideShares(map[string]map[string]float64{
		Voice: {"note_dossier": 0.4},
	})
	require.NoError(t, err)
	assert.Greater(t, VoiceAxis.Share("note_dossier"), VoiceAxis.Share("parole_rapportee"))

	total := 0.0
	for _, bucket := range VoiceAxis.Buckets {
		total += bucket.Share
	}
	assert.InDelta(t, 1.0, total, 0.001)

	assert.Error(t, OverrideShares(map[string]map[string]float64{"inconnu": {"x": 0.5}}))
	assert.Error(t, OverrideShares(map[string]map[string]float64{Voice: {"inconnu": 0.5}}))
	assert.Error(t, OverrideShares(map[string]map[string]float64{Voice: {"note_dossier": -1}}))
}

func TestLabelsExistForEveryBucket(t *testing.T) {
	cases := map[string]map[string]string{
		Persona:               PersonaLabels,
		Voice:                 VoiceLabels,
		Format:                FormatLabels,
		LengthBand:            LengthLabels,
		Noise:                 NoiseLabels,
		NumericDensity:        NumericLabels,
		DatePrecision:         DatePrecisionLabels,
		Complexity:            ComplexityLabels,
		HardNegativeMode:      HardNegativeLabels,
		HardNegativeIntensity: HardNegativeIntensityLabels,
	}
	for axisName, labels := range cases {
		axis, ok := ByName(axisName)
		require.True(t, ok)
		for _, bucket := range axis.Buckets {
			assert.Contains(t, labels, bucket.Name, "axis %s bucket %s", axisName, bucket.Name)
		}
	}
	for _, bucket := range TopicAxis.Buckets {
		assert.NotEmpty(t, Topics[bucket.Name].Label)
	}
}
