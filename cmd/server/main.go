// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// JobSift — Ingestion Service
//
// Entry point for the job-application email ingestion service. It:
//  1. Loads configuration from .env / config.yaml
//  2. Connects to PostgreSQL and Redis
//  3. Creates the Vertex AI completion client
//  4. Starts the extraction pipeline worker
//  5. Optionally starts the periodic Gmail inbox scanner
//  6. Serves the batch submission API
//  7. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jobsift/ingestion/internal/classify"
	"github.com/jobsift/ingestion/internal/config"
	"github.com/jobsift/ingestion/internal/dedup"
	"github.com/jobsift/ingestion/internal/httpapi"
	"github.com/jobsift/ingestion/internal/llm"
	"github.com/jobsift/ingestion/internal/mailbox"
	"github.com/jobsift/ingestion/internal/pipeline"
	"github.com/jobsift/ingestion/internal/scan"
	"github.com/jobsift/ingestion/internal/store"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting JobSift ingestion service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"job_related_threshold", cfg.JobRelatedThreshold,
		"high_confidence_threshold", cfg.HighConfidenceThreshold,
		"scan_enabled", cfg.Scan.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	jobStore, err := store.NewStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise job store", "error", err)
		os.Exit(1)
	}
	if err := jobStore.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	filter := dedup.NewFilter(rdb)
	if err := filter.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Completion service ---
	completer, err := llm.NewVertexClient(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Location, cfg.Vertex.Model)
	if err != nil {
		slog.Error("failed to create Vertex AI client", "error", err)
		os.Exit(1)
	}
	defer completer.Close()
	slog.Info("completion service ready", "model", cfg.Vertex.Model)

	// --- Extraction pipeline ---
	classifier := classify.New(classify.Config{
		JobRelatedThreshold:     cfg.JobRelatedThreshold,
		HighConfidenceThreshold: cfg.HighConfidenceThreshold,
	})
	pipe := pipeline.New(pipeline.Config{
		Scorer:        classifier,
		Completer:     completer,
		Store:         jobStore,
		QueueCapacity: cfg.QueueCapacity,
	})
	pipe.Start(ctx)

	// --- Periodic inbox scan (optional) ---
	var scanner *scan.Scanner
	if cfg.Scan.Enabled {
		gmailClient, err := mailbox.NewClient(ctx, cfg.Gmail.CredentialsPath, cfg.Gmail.TokenPath)
		if err != nil {
			slog.Error("failed to create Gmail client", "error", err)
			os.Exit(1)
		}
		scanner = scan.New(scan.Config{
			Mailbox:  gmailClient,
			Filter:   filter,
			Pipeline: pipe,
			UserID:   cfg.Scan.UserID,
			Query:    cfg.Gmail.Query,
			PageSize: cfg.Gmail.PageSize,
			Spec:     cfg.Scan.Schedule,
		})
		if err := scanner.Start(ctx); err != nil {
			slog.Error("failed to start mailbox scanner", "error", err)
			os.Exit(1)
		}
	}

	// --- Submission API ---
	handler := httpapi.NewHandler(pipe)
	ready, err := httpapi.Serve(ctx, cfg.Port, handler)
	if err != nil {
		slog.Error("failed to start api server", "error", err)
		os.Exit(1)
	}
	<-ready

	// --- Wait for shutdown signal ---
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	slog.Info("shutdown signal received", "signal", s.String())

	if scanner != nil {
		scanner.Stop()
	}
	cancel()
	pipe.Stop()

	slog.Info("ingestion service stopped")
}
