// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/casecorpus/services/corpus/config"
	"github.com/AleutianAI/casecorpus/services/corpus/coordinator"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
	"github.com/AleutianAI/casecorpus/services/corpus/schema"
	"github.com/AleutianAI/casecorpus/services/corpus/seed"
	"github.com/AleutianAI/casecorpus/services/corpus/store"
)

type memCodec struct {
	mu       sync.Mutex
	payloads map[string]map[string]any
}

func (m *memCodec) Encode(_ context.Context, payload map[string]any) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	text := "cas:\n  corps: " + string(encoded[1:len(encoded)-1])
	m.mu.Lock()
	m.payloads[text] = payload
	m.mu.Unlock()
	return text, nil
}

func (m *memCodec) Decode(_ context.Context, text string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payload, ok := m.payloads[text]; ok {
		return payload, nil
	}
	return nil, errors.New("unknown toon text")
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idx, err := schema.Load(filepath.Join("testdata", "schema.json"))
	require.NoError(t, err)
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		StateDir:            t.TempDir(),
		TargetTotalCases:    60,
		GenerationTarget:    10,
		Seed:                42,
		MaxAttempts:         50,
		SignatureWindow:     32,
		SimilarityWindow:    50,
		SimilarityThreshold: 0.9,
	}
	seeds := []seed.Case{
		{CaseID: "seed_0001", SourceType: "manual", Text: "Mon oncle avait souscrit une assurance vie au profit de sa voisine."},
		{CaseID: "seed_0002", SourceType: "manual", Text: "Mes frères refusent de vendre la maison restée en indivision."},
	}
	metrics := coordinator.NewMetrics()
	coord := coordinator.New(cfg, idx, st, &memCodec{payloads: map[string]map[string]any{}}, seeds, metrics)

	engine := gin.New()
	Register(engine, New(coord), metrics.Registry())
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	decoded := map[string]any{}
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	}
	return recorder, decoded
}

func TestHealthRoute(t *testing.T) {
	engine := newTestRouter(t)
	recorder, body := doJSON(t, engine, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestNextInstructionRoute(t *testing.T) {
	engine := newTestRouter(t)

	recorder, body := doJSON(t, engine, http.MethodGet, "/next-instruction?agent_id=agent-1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	instruction, ok := body["instruction"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INS-0001", instruction["instruction_id"])
	assert.NotEmpty(t, instruction["target_toon"])
	assert.NotEmpty(t, instruction["prompt"])

	recorder, body = doJSON(t, engine, http.MethodPost, "/next-instruction",
		gin.H{"agent_id": "agent-1", "topic": "assurance_vie"})
	require.Equal(t, http.StatusOK, recorder.Code)
	instruction = body["instruction"].(map[string]any)
	dims := instruction["dimensions"].(map[string]any)
	assert.Equal(t, "assurance_vie", dims["primary_topic"])

	recorder, body = doJSON(t, engine, http.MethodPost, "/next-instruction",
		gin.H{"agent_id": "agent-1", "topic": "nimporte_quoi"})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, datatypes.RejectBadRequest, body["kind"])
}

func TestSubmitCaseRoute(t *testing.T) {
	engine := newTestRouter(t)

	_, body := doJSON(t, engine, http.MethodGet, "/next-instruction?agent_id=agent-1", nil)
	instruction := body["instruction"].(map[string]any)
	id := instruction["instruction_id"].(string)

	var names []string
	for _, raw := range instruction["must_include"].([]any) {
		names = append(names, raw.(string))
	}
	caseText := "Maître, je vous consulte au sujet d'une succession. " +
		strings.Join(names, " et ") +
		" sont au cœur du dossier et la famille souhaite comprendre le partage."

	recorder, submitBody := doJSON(t, engine, http.MethodPost, "/submit-case",
		gin.H{"instruction_id": id, "agent_id": "agent-1", "case_text": caseText})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, submitBody["stored"])
	assert.NotNil(t, submitBody["validation"])

	t.Run("echoed target rejected", func(t *testing.T) {
		_, next := doJSON(t, engine, http.MethodGet, "/next-instruction?agent_id=agent-1", nil)
		other := next["instruction"].(map[string]any)
		recorder, errBody := doJSON(t, engine, http.MethodPost, "/submit-case", gin.H{
			"instruction_id": other["instruction_id"],
			"agent_id":       "agent-1",
			"case_text":      caseText,
			"target_toon":    "famille:",
		})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, datatypes.RejectLegacyTarget, errBody["kind"])
	})

	t.Run("double submission rejected", func(t *testing.T) {
		recorder, errBody := doJSON(t, engine, http.MethodPost, "/submit-case",
			gin.H{"instruction_id": id, "agent_id": "agent-1", "case_text": caseText})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, datatypes.RejectAlreadySubmitted, errBody["kind"])
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit-case", strings.NewReader("pas du json"))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		engine.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestMetricsRoute(t *testing.T) {
	engine := newTestRouter(t)
	doJSON(t, engine, http.MethodGet, "/next-instruction?agent_id=agent-1", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "casecorpus_instructions_issued_total 1")
}

func TestDashboardRoute(t *testing.T) {
	engine := newTestRouter(t)
	recorder, body := doJSON(t, engine, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, body["run_id"])
	coverage := body["coverage"].(map[string]any)
	assert.EqualValues(t, 10, coverage["generation_target"])
}
