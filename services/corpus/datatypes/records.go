// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire and persistence records shared by the
// corpus coordinator: instructions, submissions, coverage snapshots, and the
// structured rejection error returned on invalid submissions.
package datatypes

import (
	"fmt"
	"strings"
	"time"
)

// Dimensions holds the bucket selected on every diversity axis for one
// instruction. Secondary topic and both hard-negative fields stay empty
// unless active.
type Dimensions struct {
	Persona               string `json:"persona"`
	Voice                 string `json:"voice"`
	Format                string `json:"format"`
	LengthBand            string `json:"length_band"`
	Noise                 string `json:"noise"`
	NumericDensity        string `json:"numeric_density"`
	DatePrecision         string `json:"date_precision"`
	Complexity            string `json:"complexity"`
	PrimaryTopic          string `json:"primary_topic"`
	SecondaryTopic        string `json:"secondary_topic,omitempty"`
	HardNegativeMode      string `json:"hard_negative_mode,omitempty"`
	HardNegativeIntensity string `json:"hard_negative_intensity,omitempty"`
}

// Signature renders the ordered bucket tuple used for short-range
// de-duplication. Empty (inactive) axes are skipped.
func (d Dimensions) Signature() string {
	parts := []string{
		d.Persona,
		d.Voice,
		d.Format,
		d.LengthBand,
		d.Noise,
		d.NumericDensity,
		d.DatePrecision,
		d.Complexity,
		d.HardNegativeIntensity,
		d.PrimaryTopic,
		d.SecondaryTopic,
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "|")
}

// Bucket returns the selected bucket for the named axis, or "" when the axis
// is inactive or unknown.
func (d Dimensions) Bucket(axis string) string {
	switch axis {
	case "persona":
		return d.Persona
	case "voice":
		return d.Voice
	case "format":
		return d.Format
	case "length_band":
		return d.LengthBand
	case "noise":
		return d.Noise
	case "numeric_density":
		return d.NumericDensity
	case "date_precision":
		return d.DatePrecision
	case "complexity":
		return d.Complexity
	case "primary_topic":
		return d.PrimaryTopic
	case "secondary_topic":
		return d.SecondaryTopic
	case "hard_negative_mode":
		return d.HardNegativeMode
	case "hard_negative_intensity":
		return d.HardNegativeIntensity
	}
	return ""
}

// SetBucket overwrites the selected bucket for the named axis.
func (d *Dimensions) SetBucket(axis, bucket string) {
	switch axis {
	case "persona":
		d.Persona = bucket
	case "voice":
		d.Voice = bucket
	case "format":
		d.Format = bucket
	case "length_band":
		d.LengthBand = bucket
	case "noise":
		d.Noise = bucket
	case "numeric_density":
		d.NumericDensity = bucket
	case "date_precision":
		d.DatePrecision = bucket
	case "complexity":
		d.Complexity = bucket
	case "primary_topic":
		d.PrimaryTopic = bucket
	case "secondary_topic":
		d.SecondaryTopic = bucket
	case "hard_negative_mode":
		d.HardNegativeMode = bucket
	case "hard_negative_intensity":
		d.HardNegativeIntensity = bucket
	}
}

// AxisGuide documents one axis on the wire so an agent understands both the
// selected bucket and the bucket space it was drawn from.
type AxisGuide struct {
	SelectedValue  string            `json:"selected_value,omitempty"`
	SelectedLabel  string            `json:"selected_label,omitempty"`
	Purpose        string            `json:"purpose"`
	SelectedEffect string            `json:"selected_effect"`
	AllowedValues  map[string]string `json:"allowed_values"`
	OnlyActiveWhen string            `json:"only_active_when,omitempty"`
}

// ReferenceExample is a truncated seed-corpus excerpt attached to an
// instruction as a style reference.
type ReferenceExample struct {
	CaseID     string `json:"case_id"`
	SourceType string `json:"source_type"`
	SourceName string `json:"source_name"`
	Excerpt    string `json:"excerpt"`
}

// ResponseFormat pins down the shape an agent must answer with.
type ResponseFormat struct {
	RootType                  string   `json:"root_type"`
	RequiredKeys              []string `json:"required_keys"`
	CaseTextRule              string   `json:"case_text_rule"`
	AdditionalRootKeysAllowed bool     `json:"additional_root_keys_allowed"`
}

// SubmissionContract states which fields /submit-case expects.
type SubmissionContract struct {
	RequiredFields []string `json:"required_fields"`
	Note           string   `json:"note"`
}

// InstructionRecord is one issued generation instruction. Records are
// append-only: once written to the issued log they are never mutated, only
// flagged submitted through the per-instruction file.
type InstructionRecord struct {
	InstructionID      string               `json:"instruction_id"`
	AgentID            string               `json:"agent_id,omitempty"`
	IssuedAt           string               `json:"issued_at"`
	Signature          string               `json:"signature"`
	Dimensions         Dimensions           `json:"dimensions"`
	DimensionGuide     map[string]AxisGuide `json:"dimension_guide,omitempty"`
	StyleBrief         string               `json:"style_brief"`
	MustInclude        []string             `json:"must_include"`
	MustAvoid          []string             `json:"must_avoid"`
	ResponseFormat     ResponseFormat       `json:"response_format"`
	SubmissionContract SubmissionContract   `json:"submission_contract"`
	ReferenceExamples  []ReferenceExample   `json:"reference_examples"`
	Prompt             string               `json:"prompt"`
	ServerTargetTOON   string               `json:"server_target_toon"`
}

// ValidationReport is the advisory metadata stored with each submission.
type ValidationReport struct {
	WordCount        int      `json:"word_count"`
	CharCount        int      `json:"char_count"`
	ContainsDigits   bool     `json:"contains_digits"`
	ExactDuplicate   bool     `json:"exact_duplicate"`
	MaxSimilarity    float64  `json:"max_similarity"`
	ClosestReference string   `json:"closest_reference,omitempty"`
	SimilarityAlert  bool     `json:"similarity_alert"`
	Warnings         []string `json:"warnings"`
}

// SubmissionRecord is one accepted case text, locked to its instruction's
// server-side target.
type SubmissionRecord struct {
	InstructionID string           `json:"instruction_id"`
	AgentID       string           `json:"agent_id,omitempty"`
	SubmittedAt   string           `json:"submitted_at"`
	CaseText      string           `json:"case_text"`
	TargetTOON    string           `json:"target_toon"`
	TargetSource  string           `json:"target_source"`
	Validation    ValidationReport `json:"validation"`
	Dimensions    Dimensions       `json:"dimensions"`
}

// BucketProgress reports one bucket against its absolute goal.
type BucketProgress struct {
	TargetShare float64 `json:"target_share"`
	TargetCount float64 `json:"target_count"`
	Current     int     `json:"current"`
	Gap         float64 `json:"gap"`
}

// CoverageSnapshot is the machine-readable dashboard payload.
type CoverageSnapshot struct {
	RunID            string                               `json:"run_id,omitempty"`
	TargetTotalCases int                                  `json:"target_total_cases"`
	GenerationTarget int                                  `json:"generation_target"`
	SeedCases        int                                  `json:"seed_cases"`
	Issued           int                                  `json:"issued"`
	Submitted        int                                  `json:"submitted"`
	Remaining        int                                  `json:"remaining"`
	Dimensions       map[string]map[string]BucketProgress `json:"dimensions"`
}

// Timestamp renders t the way every persisted record stores instants:
// RFC 3339 in UTC, truncated to whole seconds.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// Rejection kinds returned with HTTP 400.
const (
	RejectBadRequest         = "bad_request"
	RejectUnknownInstruction = "unknown_instruction"
	RejectAlreadySubmitted   = "already_submitted"
	RejectLegacyTarget       = "legacy_target"
	RejectMissingName        = "missing_name"
	RejectLeakage            = "leakage"
)

// Reject is a request-level validation failure. Kind is machine-readable and
// stable; Reason is for humans.
type Reject struct {
	Kind   string
	Reason string
}

func (r *Reject) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
}

// Rejectf builds a Reject with a formatted reason.
func Rejectf(kind, format string, args ...any) *Reject {
	return &Reject{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
