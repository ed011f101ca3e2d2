// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command caseserver starts the local case-generation coordinator.
//
// The server hands synthetic-data agents one instruction at a time,
// each carrying a schema-locked TOON target, and collects the French
// case texts they write back.
//
// # Usage
//
//	# Build
//	go build -o caseserver ./cmd/caseserver
//
//	# Run with an existing seed corpus
//	./caseserver --state-dir ./state --corpus-file ./corpus.jsonl
//
// Exit codes: 2 schema load, 3 state load, 4 bind, 1 anything else.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	corpus "github.com/AleutianAI/casecorpus/services/corpus"
	"github.com/AleutianAI/casecorpus/services/corpus/config"
	"github.com/AleutianAI/casecorpus/services/corpus/seed"
)

var (
	flagHost                string
	flagPort                int
	flagStateDir            string
	flagCorpusFile          string
	flagMasterSchemaFile    string
	flagTargetTotalCases    int
	flagGenerationTarget    int
	flagSeed                int64
	flagMaxAttempts         int
	flagSignatureWindow     int
	flagSimilarityWindow    int
	flagSimilarityThreshold float64
	flagCodecCommand        []string
	flagCodecTimeout        time.Duration

	rootCmd = &cobra.Command{
		Use:   "caseserver",
		Short: "Coordinator for schema-locked succession case generation",
		Long: `caseserver drives a fleet of writing agents: it schedules the
diversity cell each case must fill, locks a structured TOON target for
it, and only accepts case texts that stay coherent with that target.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServer,
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagHost, "host", "127.0.0.1", "listen address")
	flags.IntVar(&flagPort, "port", 8600, "listen port")
	flags.StringVar(&flagStateDir, "state-dir", "./state", "campaign state directory")
	flags.StringVar(&flagCorpusFile, "corpus-file", "", "seed corpus JSONL (optional)")
	flags.StringVar(&flagMasterSchemaFile, "master-schema-file", "assets/master_schema.json", "master extraction schema")
	flags.IntVar(&flagTargetTotalCases, "target-total-cases", config.DefaultTargetTotalCases, "total corpus size including seeds")
	flags.IntVar(&flagGenerationTarget, "generation-target", 0, "cases to generate (default: total minus seeds)")
	flags.Int64Var(&flagSeed, "seed", config.DefaultSeed, "deterministic campaign seed")
	flags.IntVar(&flagMaxAttempts, "max-attempts", config.DefaultMaxAttempts, "target build attempts per instruction")
	flags.IntVar(&flagSignatureWindow, "signature-window", config.DefaultSignatureWindow, "recent signature de-duplication window")
	flags.IntVar(&flagSimilarityWindow, "similarity-window", config.DefaultSimilarityWindow, "recent submissions compared for similarity")
	flags.Float64Var(&flagSimilarityThreshold, "similarity-threshold", config.DefaultSimilarityThreshold, "similarity alert threshold")
	flags.StringSliceVar(&flagCodecCommand, "codec-command", nil, "TOON CLI argv (default npx -y @toon-format/cli)")
	flags.DurationVar(&flagCodecTimeout, "codec-timeout", config.DefaultCodecTimeout, "TOON CLI call timeout")
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	seeds, err := seed.Load(flagCorpusFile)
	if err != nil {
		return fmt.Errorf("%w: %v", corpus.ErrStateLoad, err)
	}

	opts := config.Options{
		StateDir:            flagStateDir,
		CorpusFile:          flagCorpusFile,
		MasterSchemaFile:    flagMasterSchemaFile,
		TargetTotalCases:    flagTargetTotalCases,
		Seed:                flagSeed,
		MaxAttempts:         flagMaxAttempts,
		SignatureWindow:     flagSignatureWindow,
		SimilarityWindow:    flagSimilarityWindow,
		SimilarityThreshold: flagSimilarityThreshold,
		CodecCommand:        flagCodecCommand,
		CodecTimeout:        flagCodecTimeout,
	}
	if cmd.Flags().Changed("generation-target") {
		opts.GenerationTarget = &flagGenerationTarget
	}
	cfg, err := config.Resolve(opts, len(seeds))
	if err != nil {
		return fmt.Errorf("%w: %v", corpus.ErrStateLoad, err)
	}

	slog.Info("starting caseserver",
		"host", flagHost,
		"port", flagPort,
		"state_dir", cfg.StateDir,
		"seeds", len(seeds),
		"generation_target", cfg.GenerationTarget,
		"seed", cfg.Seed)

	server, err := corpus.NewServer(cfg, corpus.Options{Host: flagHost, Port: flagPort})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("caseserver failed", "error", err)
		switch {
		case errors.Is(err, corpus.ErrSchemaLoad):
			os.Exit(2)
		case errors.Is(err, corpus.ErrStateLoad):
			os.Exit(3)
		case errors.Is(err, corpus.ErrBind):
			os.Exit(4)
		default:
			os.Exit(1)
		}
	}
}
