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

// JobSift — Historical Backfill Command
//
// Standalone CLI tool that ingests historical emails from a Gmail mailbox
// within a configurable lookback window. Intended for seeding the job
// tracker on new deployments.
//
// Usage:
//
//	go run ./cmd/backfill/ --user <uuid> [--since 720h] [--query "from:careers"] [--limit 500]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jobsift/ingestion/internal/classify"
	"github.com/jobsift/ingestion/internal/config"
	"github.com/jobsift/ingestion/internal/dedup"
	"github.com/jobsift/ingestion/internal/llm"
	"github.com/jobsift/ingestion/internal/mail"
	"github.com/jobsift/ingestion/internal/mailbox"
	"github.com/jobsift/ingestion/internal/models"
	"github.com/jobsift/ingestion/internal/pipeline"
	"github.com/jobsift/ingestion/internal/store"
)

const batchSize = 25

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	userFlag := flag.String("user", "", "User ID to ingest for (required)")
	sinceFlag := flag.String("since", "720h", "Lookback duration (e.g. 168h for 1 week, 720h for 30 days)")
	queryFlag := flag.String("query", "", "Extra Gmail search query appended to the lookback window (optional)")
	limitFlag := flag.Int64("limit", 500, "Maximum number of messages to fetch")
	flag.Parse()

	if *userFlag == "" {
		slog.Error("--user flag is required")
		flag.Usage()
		os.Exit(1)
	}

	since, err := time.ParseDuration(*sinceFlag)
	if err != nil {
		slog.Error("invalid --since duration", "value", *sinceFlag, "error", err)
		os.Exit(1)
	}

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

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

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	filter := dedup.NewFilter(redis.NewClient(opt))
	if err := filter.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	// --- Completion service ---
	completer, err := llm.NewVertexClient(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Location, cfg.Vertex.Model)
	if err != nil {
		slog.Error("failed to create Vertex AI client", "error", err)
		os.Exit(1)
	}
	defer completer.Close()

	// --- Gmail client ---
	gmailClient, err := mailbox.NewClient(ctx, cfg.Gmail.CredentialsPath, cfg.Gmail.TokenPath)
	if err != nil {
		slog.Error("failed to create Gmail client", "error", err)
		os.Exit(1)
	}

	// Pipeline is driven synchronously here, no worker needed.
	pipe := pipeline.New(pipeline.Config{
		Scorer: classify.New(classify.Config{
			JobRelatedThreshold:     cfg.JobRelatedThreshold,
			HighConfidenceThreshold: cfg.HighConfidenceThreshold,
		}),
		Completer: completer,
		Store:     jobStore,
	})

	query := fmt.Sprintf("after:%d", time.Now().Add(-since).Unix())
	if *queryFlag != "" {
		query += " " + *queryFlag
	}

	slog.Info("starting backfill",
		"user_id", *userFlag,
		"lookback", since.String(),
		"query", query,
		"limit", *limitFlag,
	)
	start := time.Now()

	msgs, err := gmailClient.ListMessages(ctx, query, *limitFlag)
	if err != nil {
		slog.Error("failed to list mailbox", "error", err)
		os.Exit(1)
	}

	var emails []models.ParsedEmail
	skipped := 0
	for _, m := range msgs {
		isNew, err := filter.IsNew(ctx, m.Id)
		if err != nil {
			slog.Warn("dedup check failed, proceeding", "message_id", m.Id, "error", err)
		} else if !isNew {
			skipped++
			continue
		}
		emails = append(emails, mail.Decode(m))
	}

	for i := 0; i < len(emails); i += batchSize {
		end := i + batchSize
		if end > len(emails) {
			end = len(emails)
		}
		pipe.ProcessBatch(ctx, emails[i:end], *userFlag)
		slog.Info("batch processed", "done", end, "total", len(emails))
	}

	jobs, err := jobStore.ListByUser(ctx, *userFlag)
	if err != nil {
		slog.Warn("could not list persisted jobs for summary", "error", err)
	}

	slog.Info("backfill complete",
		"fetched", len(msgs),
		"skipped", skipped,
		"processed", len(emails),
		"jobs_on_record", len(jobs),
		"duration", time.Since(start).String(),
	)
}
