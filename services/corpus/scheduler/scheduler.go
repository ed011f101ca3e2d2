// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scheduler draws the next instruction's bucket tuple. Selection
// is deficit-driven: on every axis the bucket whose issued count is
// furthest behind its target share wins, with a seeded random tie-break.
// A bounded FIFO of recent signatures breaks up short-range repetition.
package scheduler

import (
	"errors"
	"math/rand"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
)

// ErrNoBucket is returned when every bucket of an axis is excluded.
var ErrNoBucket = errors.New("scheduler: no available bucket on axis")

// redrawable lists the constraint-free axes eligible for the collision
// redraw, in tie-break order. Axes that cascade into other selections
// (complexity, topics, numeric density) are never redrawn.
var redrawable = []axes.Axis{
	axes.FormatAxis,
	axes.NoiseAxis,
	axes.VoiceAxis,
	axes.LengthAxis,
}

const maxRedraws = 8

// Scheduler tracks per-axis issued counts and the recent-signature ring.
// It is not safe for concurrent use; the coordinator serializes access.
type Scheduler struct {
	seed   int64
	window int

	counts map[string]map[string]int
	ring   []string
}

// New builds an empty scheduler. window is the signature FIFO capacity.
func New(seed int64, window int) *Scheduler {
	if window <= 0 {
		window = 1
	}
	counts := make(map[string]map[string]int)
	for _, axis := range axes.All {
		counts[axis.Name] = make(map[string]int)
	}
	counts[axes.SecondaryTopic] = make(map[string]int)
	return &Scheduler{seed: seed, window: window, counts: counts}
}

// Observe records an issued bucket tuple: counts go up and the signature
// enters the FIFO, evicting the oldest once the window is full. Replay of
// the issued log on startup funnels through here as well.
func (s *Scheduler) Observe(d datatypes.Dimensions) {
	for _, axis := range axes.All {
		if bucket := d.Bucket(axis.Name); bucket != "" {
			s.counts[axis.Name][bucket]++
		}
	}
	if bucket := d.SecondaryTopic; bucket != "" {
		s.counts[axes.SecondaryTopic][bucket]++
	}
	s.ring = append(s.ring, d.Signature())
	if len(s.ring) > s.window {
		s.ring = s.ring[1:]
	}
}

// Counts returns a deep copy of the per-axis issued counts.
func (s *Scheduler) Counts() map[string]map[string]int {
	out := make(map[string]map[string]int, len(s.counts))
	for axis, buckets := range s.counts {
		copied := make(map[string]int, len(buckets))
		for bucket, n := range buckets {
			copied[bucket] = n
		}
		out[axis] = copied
	}
	return out
}

// Draw selects the bucket tuple for the instruction at the given 1-based
// sequence. forceTopic, when it names a known topic, overrides the primary
// topic draw; unknown values are ignored.
func (s *Scheduler) Draw(sequence int, forceTopic string) (datatypes.Dimensions, error) {
	rng := rand.New(rand.NewSource(s.seed + int64(sequence)))

	var d datatypes.Dimensions
	var err error

	if d.Persona, err = s.pick(axes.PersonaAxis, rng, nil); err != nil {
		return d, err
	}
	if d.Voice, err = s.pick(axes.VoiceAxis, rng, nil); err != nil {
		return d, err
	}
	if d.Format, err = s.pick(axes.FormatAxis, rng, nil); err != nil {
		return d, err
	}
	if d.LengthBand, err = s.pick(axes.LengthAxis, rng, nil); err != nil {
		return d, err
	}
	if d.Noise, err = s.pick(axes.NoiseAxis, rng, nil); err != nil {
		return d, err
	}
	if d.NumericDensity, err = s.pick(axes.NumericAxis, rng, nil); err != nil {
		return d, err
	}

	// A case that must carry montants et dates cannot land on "no dates".
	var dateExclude map[string]bool
	if d.NumericDensity == "montants_et_dates" {
		dateExclude = map[string]bool{"aucune": true}
	}
	if d.DatePrecision, err = s.pick(axes.DatePrecisionAxis, rng, dateExclude); err != nil {
		return d, err
	}
	if d.Complexity, err = s.pick(axes.ComplexityAxis, rng, nil); err != nil {
		return d, err
	}

	blockedTopics := map[string]bool{}
	if d.Persona == "partenaire_pacs" || d.Persona == "concubin" {
		// These narrators have no marriage, so the marital-regime theme
		// cannot anchor their case.
		blockedTopics["regimes_matrimoniaux"] = true
	}

	if forceTopic != "" && axes.IsTopic(forceTopic) {
		d.PrimaryTopic = forceTopic
	} else if d.PrimaryTopic, err = s.pick(axes.TopicAxis, rng, blockedTopics); err != nil {
		return d, err
	}

	if d.Complexity == "complexe" || d.Complexity == "hard_negative" || rng.Float64() < 0.55 {
		exclude := map[string]bool{d.PrimaryTopic: true}
		for topic := range blockedTopics {
			exclude[topic] = true
		}
		if d.SecondaryTopic, err = s.pick(axes.TopicAxis, rng, exclude); err != nil {
			return d, err
		}
	}

	if d.Complexity == "hard_negative" {
		if d.HardNegativeIntensity, err = s.pick(axes.HardNegativeIntensityAxis, rng, nil); err != nil {
			return d, err
		}
		if d.HardNegativeMode, err = s.pick(axes.HardNegativeModeAxis, rng, nil); err != nil {
			return d, err
		}
	}

	s.resolveCollision(&d, rng)
	return d, nil
}

// pick returns the bucket with the smallest (count/share, count, random)
// score, skipping excluded buckets.
func (s *Scheduler) pick(axis axes.Axis, rng *rand.Rand, exclude map[string]bool) (string, error) {
	counts := s.counts[axis.Name]
	best := ""
	bestRatio, bestCount, bestTie := 0.0, 0, 0.0
	found := false
	for _, bucket := range axis.Buckets {
		if exclude[bucket.Name] {
			continue
		}
		current := counts[bucket.Name]
		ratio := float64(current) / bucket.Share
		tie := rng.Float64()
		if !found || less(ratio, current, tie, bestRatio, bestCount, bestTie) {
			best, bestRatio, bestCount, bestTie = bucket.Name, ratio, current, tie
			found = true
		}
	}
	if !found {
		return "", ErrNoBucket
	}
	return best, nil
}

func less(r1 float64, c1 int, t1 float64, r2 float64, c2 int, t2 float64) bool {
	if r1 != r2 {
		return r1 < r2
	}
	if c1 != c2 {
		return c1 < c2
	}
	return t1 < t2
}

// resolveCollision redraws while the signature sits in the recent FIFO.
// Each pass replaces the single redrawable axis with the most alternative
// buckets left, excluding values already tried on that axis. After
// maxRedraws the tuple is accepted as-is.
func (s *Scheduler) resolveCollision(d *datatypes.Dimensions, rng *rand.Rand) {
	tried := map[string]map[string]bool{}
	for _, axis := range redrawable {
		tried[axis.Name] = map[string]bool{d.Bucket(axis.Name): true}
	}

	for attempt := 0; attempt < maxRedraws && s.seenRecently(d.Signature()); attempt++ {
		var target axes.Axis
		freedom := 0
		for _, axis := range redrawable {
			remaining := len(axis.Buckets) - len(tried[axis.Name])
			if remaining > freedom {
				target = axis
				freedom = remaining
			}
		}
		if freedom == 0 {
			return
		}
		bucket, err := s.pick(target, rng, tried[target.Name])
		if err != nil {
			return
		}
		tried[target.Name][bucket] = true
		d.SetBucket(target.Name, bucket)
	}
}

func (s *Scheduler) seenRecently(signature string) bool {
	for _, seen := range s.ring {
		if seen == signature {
			return true
		}
	}
	return false
}
