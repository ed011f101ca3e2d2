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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route on the engine.
func Register(engine *gin.Engine, h *Handler, registry *prometheus.Registry) {
	engine.GET("/health", h.Health)
	engine.GET("/dashboard", h.Dashboard)
	engine.GET("/next-instruction", h.NextInstruction)
	engine.POST("/next-instruction", h.NextInstruction)
	engine.POST("/submit-case", h.SubmitCase)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
