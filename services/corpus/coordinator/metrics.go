// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the campaign counters exposed on /metrics.
type Metrics struct {
	registry           *prometheus.Registry
	Issued             prometheus.Counter
	Submitted          prometheus.Counter
	GenerationFailures prometheus.Counter
	Rejections         *prometheus.CounterVec
}

// NewMetrics builds a self-contained registry so tests can run several
// coordinators side by side.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		Issued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "casecorpus",
			Name:      "instructions_issued_total",
			Help:      "Instructions handed to agents.",
		}),
		Submitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "casecorpus",
			Name:      "cases_submitted_total",
			Help:      "Cases accepted and appended to the corpus.",
		}),
		GenerationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "casecorpus",
			Name:      "generation_failures_total",
			Help:      "Target builds that exhausted every attempt.",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casecorpus",
			Name:      "submission_rejections_total",
			Help:      "Rejected submissions by kind.",
		}, []string{"kind"}),
	}
}

// Registry exposes the backing registry for the metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
