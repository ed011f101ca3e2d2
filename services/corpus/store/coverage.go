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
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
)

// hardNegativeShare scales the bucket targets of the axes that only
// activate on hard negative draws.
const hardNegativeShare = 0.16

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Coverage computes the campaign progress snapshot from the issued log.
func (s *Store) Coverage(runID string, targetTotal, generationTarget, seedCount int) datatypes.CoverageSnapshot {
	counts := map[string]map[string]int{}
	for _, axis := range axes.All {
		counts[axis.Name] = map[string]int{}
	}
	for _, rec := range s.issued {
		for _, axis := range axes.All {
			if bucket := rec.Dimensions.Bucket(axis.Name); bucket != "" {
				counts[axis.Name][bucket]++
			}
		}
	}

	dimensions := map[string]map[string]datatypes.BucketProgress{}
	for _, axis := range axes.All {
		base := float64(generationTarget)
		if axis.Name == axes.HardNegativeMode || axis.Name == axes.HardNegativeIntensity {
			base = float64(generationTarget) * hardNegativeShare
		}
		progress := map[string]datatypes.BucketProgress{}
		for _, bucket := range axis.Buckets {
			target := round1(bucket.Share * base)
			current := counts[axis.Name][bucket.Name]
			progress[bucket.Name] = datatypes.BucketProgress{
				TargetShare: bucket.Share,
				TargetCount: target,
				Current:     current,
				Gap:         round1(target - float64(current)),
			}
		}
		dimensions[axis.Name] = progress
	}

	remaining := generationTarget - len(s.submissions)
	if remaining < 0 {
		remaining = 0
	}
	return datatypes.CoverageSnapshot{
		RunID:            runID,
		TargetTotalCases: targetTotal,
		GenerationTarget: generationTarget,
		SeedCases:        seedCount,
		Issued:           len(s.issued),
		Submitted:        len(s.submissions),
		Remaining:        remaining,
		Dimensions:       dimensions,
	}
}

// WriteCounters persists the snapshot as the machine-readable counters
// file.
func (s *Store) WriteCounters(snapshot datatypes.CoverageSnapshot) error {
	return writeJSONAtomic(filepath.Join(s.dir, countersFile), snapshot)
}

// WriteSummary renders the snapshot as summary.json plus a human
// summary.md progress table.
func (s *Store) WriteSummary(snapshot datatypes.CoverageSnapshot) error {
	if err := writeJSONAtomic(filepath.Join(s.dir, summaryJSONFile), snapshot); err != nil {
		return err
	}
	return writeBytesAtomic(filepath.Join(s.dir, summaryMDFile), []byte(renderSummaryMarkdown(snapshot)))
}

func renderSummaryMarkdown(snapshot datatypes.CoverageSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Campagne %s\n\n", snapshot.RunID)
	fmt.Fprintf(&b, "Mis à jour : %s\n\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Objectif total : %d cas (%d seeds + %d à générer)\n",
		snapshot.TargetTotalCases, snapshot.SeedCases, snapshot.GenerationTarget)
	fmt.Fprintf(&b, "- Instructions émises : %d\n", snapshot.Issued)
	fmt.Fprintf(&b, "- Cas soumis : %d\n", snapshot.Submitted)
	fmt.Fprintf(&b, "- Restant : %d\n", snapshot.Remaining)

	axisNames := make([]string, 0, len(snapshot.Dimensions))
	for name := range snapshot.Dimensions {
		axisNames = append(axisNames, name)
	}
	sort.Strings(axisNames)
	for _, axisName := range axisNames {
		fmt.Fprintf(&b, "\n## %s\n\n", axisName)
		b.WriteString("| bucket | cible | actuel | écart |\n")
		b.WriteString("|---|---|---|---|\n")
		progress := snapshot.Dimensions[axisName]
		buckets := make([]string, 0, len(progress))
		for bucket := range progress {
			buckets = append(buckets, bucket)
		}
		sort.Strings(buckets)
		for _, bucket := range buckets {
			p := progress[bucket]
			fmt.Fprintf(&b, "| %s | %.1f | %d | %.1f |\n", bucket, p.TargetCount, p.Current, p.Gap)
		}
	}
	return b.String()
}
