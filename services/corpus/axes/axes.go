// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package axes carries the diversity-axis registry for the corpus
// scheduler: every axis, its buckets, the target shares, and the French
// label tables that end up in prompts and dimension guides.
package axes

import "fmt"

// Axis names. These are also the JSON keys used inside dimension records.
const (
	Persona               = "persona"
	Voice                 = "voice"
	Format                = "format"
	LengthBand            = "length_band"
	Noise                 = "noise"
	NumericDensity        = "numeric_density"
	DatePrecision         = "date_precision"
	Complexity            = "complexity"
	PrimaryTopic          = "primary_topic"
	SecondaryTopic        = "secondary_topic"
	HardNegativeMode      = "hard_negative_mode"
	HardNegativeIntensity = "hard_negative_intensity"
)

// Bucket is one named option on an axis with its target share of the
// campaign. Shares on an axis sum to 1.0.
type Bucket struct {
	Name  string
	Share float64
}

// Axis is an ordered bucket list. Order is fixed so seeded draws are
// reproducible run to run.
type Axis struct {
	Name    string
	Buckets []Bucket
}

// Share returns the target share of the named bucket, 0 when unknown.
func (a Axis) Share(bucket string) float64 {
	for _, b := range a.Buckets {
		if b.Name == bucket {
			return b.Share
		}
	}
	return 0
}

// Has reports whether the axis carries the named bucket.
func (a Axis) Has(bucket string) bool {
	return a.Share(bucket) > 0
}

var (
	PersonaAxis = Axis{Name: Persona, Buckets: []Bucket{
		{"enfant", 0.18},
		{"conjoint", 0.12},
		{"beau_enfant", 0.09},
		{"fratrie", 0.08},
		{"notaire", 0.08},
		{"avocat", 0.07},
		{"partenaire_pacs", 0.07},
		{"concubin", 0.06},
		{"associe", 0.07},
		{"petit_enfant", 0.05},
		{"tiers", 0.05},
		{"narrateur_neutre", 0.08},
	}}

	VoiceAxis = Axis{Name: Voice, Buckets: []Bucket{
		{"premiere_personne", 0.45},
		{"troisieme_personne", 0.35},
		{"note_dossier", 0.10},
		{"parole_rapportee", 0.10},
	}}

	FormatAxis = Axis{Name: Format, Buckets: []Bucket{
		{"question_directe", 0.22},
		{"mail_brouillon", 0.18},
		{"recit_libre", 0.22},
		{"note_professionnelle", 0.14},
		{"oral_retranscrit", 0.14},
		{"message_conflictuel", 0.10},
	}}

	LengthAxis = Axis{Name: LengthBand, Buckets: []Bucket{
		{"court", 0.18},
		{"moyen", 0.42},
		{"long", 0.32},
		{"tres_long", 0.08},
	}}

	NoiseAxis = Axis{Name: Noise, Buckets: []Bucket{
		{"propre", 0.42},
		{"legeres_fautes", 0.22},
		{"fautes_et_abreviations", 0.17},
		{"ambigu", 0.16},
		{"tres_brouillon", 0.03},
	}}

	NumericAxis = Axis{Name: NumericDensity, Buckets: []Bucket{
		{"sans_montant", 0.06},
		{"un_montant", 0.26},
		{"plusieurs_montants", 0.38},
		{"montants_et_dates", 0.30},
	}}

	DatePrecisionAxis = Axis{Name: DatePrecision, Buckets: []Bucket{
		{"aucune", 0.15},
		{"approx", 0.20},
		{"exacte", 0.65},
	}}

	ComplexityAxis = Axis{Name: Complexity, Buckets: []Bucket{
		{"simple", 0.20},
		{"intermediaire", 0.40},
		{"complexe", 0.24},
		{"hard_negative", 0.16},
	}}

	TopicAxis = Axis{Name: PrimaryTopic, Buckets: []Bucket{
		{"ordre_heritiers", 0.08},
		{"famille_recomposee", 0.12},
		{"regimes_matrimoniaux", 0.08},
		{"donations_reduction", 0.10},
		{"assurance_vie", 0.10},
		{"indivision_partage", 0.09},
		{"entreprise_dutreil", 0.08},
		{"demembrement_usufruit", 0.06},
		{"testament_legs", 0.08},
		{"dettes_passif", 0.06},
		{"pacs_concubinage", 0.07},
		{"international_procedure", 0.08},
	}}

	HardNegativeModeAxis = Axis{Name: HardNegativeMode, Buckets: []Bucket{
		{"pas_de_deces_clair", 0.30},
		{"infos_incompletes", 0.30},
		{"faits_contradictoires", 0.25},
		{"hors_perimetre_mal_qualifie", 0.15},
	}}

	HardNegativeIntensityAxis = Axis{Name: HardNegativeIntensity, Buckets: []Bucket{
		{"soft", 0.80},
		{"hard", 0.20},
	}}
)

// All lists every axis in draw order. Secondary topic reuses the topic
// axis bucket space and is drawn from TopicAxis with exclusions.
var All = []Axis{
	PersonaAxis,
	VoiceAxis,
	FormatAxis,
	LengthAxis,
	NoiseAxis,
	NumericAxis,
	DatePrecisionAxis,
	ComplexityAxis,
	TopicAxis,
	HardNegativeModeAxis,
	HardNegativeIntensityAxis,
}

// ByName returns the axis with the given name, false when unknown.
// SecondaryTopic resolves to the topic axis.
func ByName(name string) (Axis, bool) {
	if name == SecondaryTopic {
		return TopicAxis, true
	}
	for _, axis := range All {
		if axis.Name == name {
			return axis, true
		}
	}
	return Axis{}, false
}

// IsTopic reports whether name is a known topic bucket.
func IsTopic(name string) bool {
	return TopicAxis.Has(name)
}

// OverrideShares replaces target shares on the named axes and
// renormalizes each touched axis so its shares sum to 1 again. Called
// once at startup, before any draw.
func OverrideShares(overrides map[string]map[string]float64) error {
	for axisName, shares := range overrides {
		axis, ok := ByName(axisName)
		if !ok {
			return fmt.Errorf("unknown axis %q", axisName)
		}
		for bucket, share := range shares {
			if share <= 0 {
				return fmt.Errorf("axis %s bucket %s: share must be positive", axisName, bucket)
			}
			idx := -1
			for i, b := range axis.Buckets {
				if b.Name == bucket {
					idx = i
					break
				}
			}
			if idx < 0 {
				return fmt.Errorf("axis %s has no bucket %q", axisName, bucket)
			}
			axis.Buckets[idx].Share = share
		}
		total := 0.0
		for _, b := range axis.Buckets {
			total += b.Share
		}
		for i := range axis.Buckets {
			axis.Buckets[i].Share /= total
		}
	}
	return nil
}
