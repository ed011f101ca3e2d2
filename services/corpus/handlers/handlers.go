// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers exposes the coordinator over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/casecorpus/services/corpus/coordinator"
	"github.com/AleutianAI/casecorpus/services/corpus/datatypes"
)

// Handler binds the HTTP surface to one coordinator.
type Handler struct {
	coord *coordinator.Coordinator
}

// New wires the handler set.
func New(coord *coordinator.Coordinator) *Handler {
	return &Handler{coord: coord}
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.Health())
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.Dashboard())
}

type nextRequest struct {
	AgentID string `json:"agent_id" form:"agent_id"`
	Topic   string `json:"topic" form:"topic"`
}

// NextInstruction handles GET and POST /next-instruction. The agent id
// and an optional forced topic come from the query string or the JSON
// body.
func (h *Handler) NextInstruction(c *gin.Context) {
	var req nextRequest
	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"kind":  datatypes.RejectBadRequest,
				"error": "corps JSON invalide: " + err.Error(),
			})
			return
		}
	} else {
		req.AgentID = c.Query("agent_id")
		req.Topic = c.Query("topic")
	}

	resp, err := h.coord.NextInstruction(c.Request.Context(), req.AgentID, req.Topic)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitCase handles POST /submit-case. The body is inspected as a raw
// object first so a client echoing the target back is caught whatever
// field name it used.
func (h *Handler) SubmitCase(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"kind":  datatypes.RejectBadRequest,
			"error": "corps JSON invalide: " + err.Error(),
		})
		return
	}

	asString := func(key string) string {
		value, _ := raw[key].(string)
		return strings.TrimSpace(value)
	}
	_, hasTOON := raw["target_toon"]
	_, hasLegacy := raw["target_json"]

	resp, err := h.coord.SubmitCase(c.Request.Context(), coordinator.SubmitRequest{
		InstructionID:    asString("instruction_id"),
		AgentID:          asString("agent_id"),
		CaseText:         asString("case_text"),
		LegacyTargetSent: hasTOON || hasLegacy,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var reject *datatypes.Reject
	switch {
	case errors.As(err, &reject):
		c.JSON(http.StatusBadRequest, gin.H{"kind": reject.Kind, "error": reject.Reason})
	case errors.Is(err, coordinator.ErrGeneration):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
