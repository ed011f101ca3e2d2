// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package corpus assembles the case-generation coordinator into an HTTP
// service: schema index, seed corpus, durable store, TOON codec, and
// the gin surface on top.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/casecorpus/services/corpus/axes"
	"github.com/AleutianAI/casecorpus/services/corpus/config"
	"github.com/AleutianAI/casecorpus/services/corpus/coordinator"
	"github.com/AleutianAI/casecorpus/services/corpus/handlers"
	"github.com/AleutianAI/casecorpus/services/corpus/schema"
	"github.com/AleutianAI/casecorpus/services/corpus/seed"
	"github.com/AleutianAI/casecorpus/services/corpus/store"
	"github.com/AleutianAI/casecorpus/services/corpus/toon"
)

// Startup failure classes, so the entry point can exit with distinct
// codes.
var (
	ErrSchemaLoad = errors.New("master schema load failed")
	ErrStateLoad  = errors.New("state load failed")
	ErrBind       = errors.New("listen failed")
)

const shutdownGrace = 10 * time.Second

// Options carries the non-persisted runtime knobs.
type Options struct {
	Host string
	Port int
	// Codec overrides the CLI codec, used by tests.
	Codec toon.Codec
}

// Server is one running campaign coordinator.
type Server struct {
	cfg    *config.Config
	opts   Options
	engine *gin.Engine
	coord  *coordinator.Coordinator
}

// NewServer loads every dependency and wires the routes.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	index, err := schema.Load(cfg.MasterSchemaFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaLoad, err)
	}
	if len(cfg.AxisShares) > 0 {
		if err := axes.OverrideShares(cfg.AxisShares); err != nil {
			return nil, fmt.Errorf("%w: axis shares: %v", ErrStateLoad, err)
		}
	}
	seeds, err := seed.Load(cfg.CorpusFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateLoad, err)
	}
	st, err := store.Open(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateLoad, err)
	}

	codec := opts.Codec
	if codec == nil {
		codec, err = toon.NewCLICodec(cfg.CodecCommand, cfg.CodecTimeout)
		if err != nil {
			return nil, fmt.Errorf("toon codec: %w", err)
		}
	}

	metrics := coordinator.NewMetrics()
	coord := coordinator.New(cfg, index, st, codec, seeds, metrics)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	handlers.Register(engine, handlers.New(coord), metrics.Registry())

	slog.Info("server assembled",
		"run_id", coord.RunID(),
		"state_dir", cfg.StateDir,
		"seeds", len(seeds),
		"issued", st.IssuedCount(),
		"submitted", st.SubmittedCount(),
		"generation_target", cfg.GenerationTarget)

	return &Server{cfg: cfg, opts: opts, engine: engine, coord: coord}, nil
}

// Coordinator exposes the campaign state, mainly for tests.
func (s *Server) Coordinator() *coordinator.Coordinator {
	return s.coord
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBind, err)
	}
	httpServer := &http.Server{Handler: s.engine}

	slog.Info("listening", "addr", listener.Addr().String())

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
