// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package coordinator drives the generation campaign: it draws the next
// diversity cell, builds and locks a target, hands agents their
// instruction, and vets what comes back before anything reaches the
// corpus.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/config"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
	"github.com/AleutianAI/casecorpus/services/corpus/generator"
	"github.com/AleutianAI/casecorpus/services/corpus/prompt"
	"github.com/AleutianAI/casecorpus/services/corpus/scheduler"
	"github.com/AleutianAI/casecorpus/services/corpus/schema"
	"github.com/AleutianAI/casecorpus/services/corpus/seed"
	"github.com/AleutianAI/casecorpus/services/corpus/store"
	"github.com/AleutianAI/casecorpus/services/corpus/toon"
	"github.com/AleutianAI/casecorpus/services/corpus/validator"
)

// ErrGeneration marks failures of the target pipeline (build or encode),
// which surface as 503 so agents retry later.
var ErrGeneration = errors.New("target generation failed")

const (
	excerptRunes     = 220
	maxReferences    = 2
	caseTextRule     = "case_text est un récit français en texte brut, sans balise, sans liste de champs et sans recopie de la cible"
	contractNote     = "ne jamais renvoyer target_toon : le serveur conserve la cible qu'il a émise"
	doneMessage      = "objectif de génération atteint, plus aucune instruction à émettre"
	sourceServer     = "server"
	instructionIDFmt = "INS-%04d"
)

// Coordinator serializes campaign state transitions behind one mutex.
type Coordinator struct {
	mu sync.Mutex

	cfg    *config.Config
	index  *schema.Index
	store  *store.Store
	sched  *scheduler.Scheduler
	gen    *generator.Generator
	codec  toon.Codec
	seeds  []seed.Case
	refs   []validator.Reference
	runID  string
	metric *Metrics
}

// New replays the store into the scheduler and returns a ready
// coordinator.
func New(cfg *config.Config, index *schema.Index, st *store.Store, codec toon.Codec, seeds []seed.Case, metrics *Metrics) *Coordinator {
	sched := scheduler.New(cfg.Seed, cfg.SignatureWindow)
	for _, rec := range st.Issued() {
		sched.Observe(rec.Dimensions)
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	c := &Coordinator{
		cfg:    cfg,
		index:  index,
		store:  st,
		sched:  sched,
		gen:    generator.New(index, cfg.Seed, cfg.MaxAttempts),
		codec:  codec,
		seeds:  seeds,
		refs:   seed.References(seeds),
		runID:  uuid.NewString(),
		metric: metrics,
	}

	// Replay may have sanitized legacy rows, so the derived artifacts are
	// rebuilt from the clean logs before the first request lands.
	snapshot := c.coverageLocked()
	if err := st.WriteCounters(snapshot); err != nil {
		slog.Warn("counters refresh failed", "error", err)
	}
	if err := st.WriteSummary(snapshot); err != nil {
		slog.Warn("summary refresh failed", "error", err)
	}
	if err := st.WriteTrainingExports(seeds); err != nil {
		slog.Warn("training export refresh failed", "error", err)
	}
	return c
}

// RunID identifies this server process in snapshots and logs.
func (c *Coordinator) RunID() string { return c.runID }

// IssuedInstruction is the public payload handed to an agent.
type IssuedInstruction struct {
	InstructionID      string                         `json:"instruction_id"`
	IssuedAt           string                         `json:"issued_at"`
	Dimensions         datatypes.Dimensions           `json:"dimensions"`
	DimensionGuide     map[string]datatypes.AxisGuide `json:"dimension_guide"`
	StyleBrief         string                         `json:"style_brief"`
	MustInclude        []string                       `json:"must_include"`
	MustAvoid          []string                       `json:"must_avoid"`
	ResponseFormat     datatypes.ResponseFormat       `json:"response_format"`
	SubmissionContract datatypes.SubmissionContract   `json:"submission_contract"`
	ReferenceExamples  []datatypes.ReferenceExample   `json:"reference_examples"`
	TargetTOON         string                         `json:"target_toon"`
	Prompt             string                         `json:"prompt"`
}

// NextResponse is the reply of the next-instruction endpoint.
type NextResponse struct {
	Done        bool                       `json:"done,omitempty"`
	Message     string                     `json:"message,omitempty"`
	Instruction *IssuedInstruction         `json:"instruction,omitempty"`
	Coverage    datatypes.CoverageSnapshot `json:"coverage"`
}

// NextInstruction draws the starved diversity cell, locks a target for
// it, and records the issued instruction.
func (c *Coordinator) NextInstruction(ctx context.Context, agentID, forceTopic string) (NextResponse, error) {
	if forceTopic != "" && !axes.IsTopic(forceTopic) {
		c.metric.Rejections.WithLabelValues(datatypes.RejectBadRequest).Inc()
		return NextResponse{}, datatypes.Rejectf(datatypes.RejectBadRequest, "sujet inconnu: %s", forceTopic)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SubmittedCount() >= c.cfg.GenerationTarget {
		return NextResponse{Done: true, Message: doneMessage, Coverage: c.coverageLocked()}, nil
	}

	sequence := c.store.IssuedCount() + 1
	d, err := c.sched.Draw(sequence, forceTopic)
	if err != nil {
		return NextResponse{}, fmt.Errorf("draw dimensions: %w", err)
	}

	target, err := c.gen.Build(d, sequence)
	if err != nil {
		c.metric.GenerationFailures.Inc()
		return NextResponse{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	targetTOON, err := c.codec.Encode(ctx, target)
	if err != nil {
		c.metric.GenerationFailures.Inc()
		return NextResponse{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	names := validator.CollectNames(target)
	examples := c.referenceExamples(d.PrimaryTopic, sequence)
	// The prompt bullets carry the prose constraints; the wire fields
	// below carry the drawn names and the leakage patterns.
	basePrompt := prompt.Render(d, examples, prompt.MandatoryElements(d), prompt.ForbiddenElements(d))

	rec := datatypes.InstructionRecord{
		InstructionID:  fmt.Sprintf(instructionIDFmt, sequence),
		AgentID:        agentID,
		IssuedAt:       datatypes.Timestamp(time.Now()),
		Signature:      d.Signature(),
		Dimensions:     d,
		DimensionGuide: prompt.Guide(d),
		StyleBrief:     prompt.StyleBrief(d),
		MustInclude:    names,
		MustAvoid:      validator.MustAvoidPatterns,
		ResponseFormat: datatypes.ResponseFormat{
			RootType:                  "object",
			RequiredKeys:              []string{"instruction_id", "case_text"},
			CaseTextRule:              caseTextRule,
			AdditionalRootKeysAllowed: false,
		},
		SubmissionContract: datatypes.SubmissionContract{
			RequiredFields: []string{"instruction_id", "agent_id", "case_text"},
			Note:           contractNote,
		},
		ReferenceExamples: examples,
		Prompt:            prompt.AugmentWithTarget(basePrompt, targetTOON),
		ServerTargetTOON:  targetTOON,
	}
	if err := c.store.AppendInstruction(rec); err != nil {
		return NextResponse{}, fmt.Errorf("persist instruction: %w", err)
	}
	c.sched.Observe(d)
	c.metric.Issued.Inc()

	coverage := c.coverageLocked()
	if err := c.store.WriteCounters(coverage); err != nil {
		slog.Warn("counters refresh failed", "error", err)
	}
	if err := c.store.WriteSummary(coverage); err != nil {
		slog.Warn("summary refresh failed", "error", err)
	}
	slog.Info("instruction issued",
		"instruction_id", rec.InstructionID,
		"signature", rec.Signature,
		"agent_id", agentID)

	return NextResponse{
		Instruction: &IssuedInstruction{
			InstructionID:      rec.InstructionID,
			IssuedAt:           rec.IssuedAt,
			Dimensions:         rec.Dimensions,
			DimensionGuide:     rec.DimensionGuide,
			StyleBrief:         rec.StyleBrief,
			MustInclude:        rec.MustInclude,
			MustAvoid:          rec.MustAvoid,
			ResponseFormat:     rec.ResponseFormat,
			SubmissionContract: rec.SubmissionContract,
			ReferenceExamples:  rec.ReferenceExamples,
			TargetTOON:         rec.ServerTargetTOON,
			Prompt:             rec.Prompt,
		},
		Coverage: coverage,
	}, nil
}

// referenceExamples picks a few seed excerpts matching the topic, or a
// random slice of the pool when the topic has too few matches.
func (c *Coordinator) referenceExamples(topicName string, sequence int) []datatypes.ReferenceExample {
	if len(c.seeds) == 0 {
		return nil
	}
	topic := axes.Topics[topicName]
	var matched []seed.Case
	for _, sc := range c.seeds {
		normalized := validator.NormalizeKey(sc.Text)
		for _, keyword := range topic.Keywords {
			if strings.Contains(normalized, validator.NormalizeKey(keyword)) {
				matched = append(matched, sc)
				break
			}
		}
	}
	if len(matched) < 2 {
		matched = c.seeds
	}
	rng := rand.New(rand.NewSource(c.cfg.Seed + int64(sequence)))
	order := rng.Perm(len(matched))

	count := maxReferences
	if count > len(matched) {
		count = len(matched)
	}
	examples := make([]datatypes.ReferenceExample, 0, count)
	for _, idx := range order[:count] {
		sc := matched[idx]
		examples = append(examples, datatypes.ReferenceExample{
			CaseID:     sc.CaseID,
			SourceType: sc.SourceType,
			SourceName: sc.SourceName,
			Excerpt:    excerpt(sc.Text),
		})
	}
	return examples
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return string(runes[:excerptRunes]) + "…"
}

// SubmitRequest is a parsed submission. LegacyTargetSent is set by the
// handler when the body tried to echo a target back.
type SubmitRequest struct {
	InstructionID    string
	AgentID          string
	CaseText         string
	LegacyTargetSent bool
}

// SubmitResponse acknowledges a stored case.
type SubmitResponse struct {
	Stored          bool                       `json:"stored"`
	Validation      datatypes.ValidationReport `json:"validation"`
	TargetTOONLines int                        `json:"target_toon_lines"`
	Coverage        datatypes.CoverageSnapshot `json:"coverage"`
}

// SubmitCase vets an agent's case text against the locked target and,
// if it passes, appends it to the corpus and refreshes the exports. The
// expensive validation runs outside the lock; the instruction state is
// re-checked at commit time.
func (c *Coordinator) SubmitCase(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	if strings.TrimSpace(req.InstructionID) == "" || strings.TrimSpace(req.CaseText) == "" {
		return SubmitResponse{}, c.reject(datatypes.Rejectf(datatypes.RejectBadRequest,
			"instruction_id et case_text sont obligatoires"))
	}
	if req.LegacyTargetSent {
		return SubmitResponse{}, c.reject(datatypes.Rejectf(datatypes.RejectLegacyTarget,
			"target_toon ne doit pas être renvoyé, le serveur conserve la cible"))
	}

	c.mu.Lock()
	rec, ok := c.store.Lookup(req.InstructionID)
	if !ok {
		c.mu.Unlock()
		return SubmitResponse{}, c.reject(datatypes.Rejectf(datatypes.RejectUnknownInstruction,
			"instruction inconnue: %s", req.InstructionID))
	}
	if c.store.IsSubmitted(req.InstructionID) {
		c.mu.Unlock()
		return SubmitResponse{}, c.reject(datatypes.Rejectf(datatypes.RejectAlreadySubmitted,
			"un cas a déjà été soumis pour %s", req.InstructionID))
	}
	recent := c.recentReferencesLocked()
	c.mu.Unlock()

	caseText := validator.NormalizeText(req.CaseText)

	decoded, err := c.codec.Decode(ctx, rec.ServerTargetTOON)
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("decode locked target: %w", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		return SubmitResponse{}, fmt.Errorf("decode locked target: root is not an object")
	}

	if missing := validator.MissingNames(caseText, decoded); len(missing) > 0 {
		preview := missing
		suffix := ""
		if len(preview) > 3 {
			preview = preview[:3]
			suffix = ", …"
		}
		return SubmitResponse{}, c.reject(datatypes.Rejectf(datatypes.RejectMissingName,
			"noms absents du récit: %s%s", strings.Join(preview, ", "), suffix))
	}
	if leak := validator.CheckHygiene(caseText); leak != nil {
		return SubmitResponse{}, c.reject(leak)
	}

	report := validator.Report(caseText, c.refs, recent, c.cfg.SimilarityThreshold)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.IsSubmitted(req.InstructionID) {
		return SubmitResponse{}, c.reject(datatypes.Rejectf(datatypes.RejectAlreadySubmitted,
			"un cas a déjà été soumis pour %s", req.InstructionID))
	}

	sub := datatypes.SubmissionRecord{
		InstructionID: rec.InstructionID,
		AgentID:       req.AgentID,
		SubmittedAt:   datatypes.Timestamp(time.Now()),
		CaseText:      caseText,
		TargetTOON:    rec.ServerTargetTOON,
		TargetSource:  sourceServer,
		Validation:    report,
		Dimensions:    rec.Dimensions,
	}
	if err := c.store.AppendSubmission(sub); err != nil {
		return SubmitResponse{}, fmt.Errorf("persist submission: %w", err)
	}
	c.metric.Submitted.Inc()

	if err := c.store.WriteTrainingExports(c.seeds); err != nil {
		slog.Warn("training export refresh failed", "error", err)
	}
	coverage := c.coverageLocked()
	if err := c.store.WriteCounters(coverage); err != nil {
		slog.Warn("counters refresh failed", "error", err)
	}
	if err := c.store.WriteSummary(coverage); err != nil {
		slog.Warn("summary refresh failed", "error", err)
	}
	slog.Info("case stored",
		"instruction_id", sub.InstructionID,
		"agent_id", sub.AgentID,
		"words", report.WordCount,
		"max_similarity", report.MaxSimilarity)

	return SubmitResponse{
		Stored:          true,
		Validation:      report,
		TargetTOONLines: len(strings.Split(rec.ServerTargetTOON, "\n")),
		Coverage:        coverage,
	}, nil
}

func (c *Coordinator) reject(r *datatypes.Reject) *datatypes.Reject {
	c.metric.Rejections.WithLabelValues(r.Kind).Inc()
	slog.Info("submission rejected", "kind", r.Kind, "reason", r.Reason)
	return r
}

// recentReferencesLocked snapshots the trailing submissions used for
// near-duplicate detection.
func (c *Coordinator) recentReferencesLocked() []validator.Reference {
	subs := c.store.Submissions()
	window := c.cfg.SimilarityWindow
	if window > 0 && len(subs) > window {
		subs = subs[len(subs)-window:]
	}
	refs := make([]validator.Reference, 0, len(subs))
	for _, sub := range subs {
		refs = append(refs, validator.Reference{ID: sub.InstructionID, Text: sub.CaseText})
	}
	return refs
}

func (c *Coordinator) coverageLocked() datatypes.CoverageSnapshot {
	return c.store.Coverage(c.runID, c.cfg.TargetTotalCases, c.cfg.GenerationTarget, len(c.seeds))
}

// Coverage returns the current progress snapshot.
func (c *Coordinator) Coverage() datatypes.CoverageSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coverageLocked()
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    string `json:"status"`
	RunID     string `json:"run_id"`
	Issued    int    `json:"issued"`
	Submitted int    `json:"submitted"`
}

// Health reports liveness and the raw campaign counters.
func (c *Coordinator) Health() HealthResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return HealthResponse{
		Status:    "ok",
		RunID:     c.runID,
		Issued:    c.store.IssuedCount(),
		Submitted: c.store.SubmittedCount(),
	}
}

// DashboardResponse bundles the snapshot with the run configuration.
type DashboardResponse struct {
	RunID    string                     `json:"run_id"`
	Config   *config.Config             `json:"config"`
	Coverage datatypes.CoverageSnapshot `json:"coverage"`
}

// Dashboard returns the operator view.
func (c *Coordinator) Dashboard() DashboardResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DashboardResponse{
		RunID:    c.runID,
		Config:   c.cfg,
		Coverage: c.coverageLocked(),
	}
}
