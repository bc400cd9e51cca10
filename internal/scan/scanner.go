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

// Package scan drives periodic mailbox ingestion: on a cron schedule it
// fetches recent messages, decodes them, drops ones already seen, and
// submits the remainder to the extraction pipeline as one batch.
package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"google.golang.org/api/gmail/v1"

	"github.com/jobsift/ingestion/internal/dedup"
	"github.com/jobsift/ingestion/internal/mail"
	"github.com/jobsift/ingestion/internal/models"
	"github.com/jobsift/ingestion/internal/pipeline"
)

// Mailbox lists raw messages. Implemented by mailbox.Client.
type Mailbox interface {
	ListMessages(ctx context.Context, query string, maxResults int64) ([]*gmail.Message, error)
}

// Result summarises one scan cycle.
type Result struct {
	Fetched   int
	Skipped   int
	Submitted int
}

// Scanner periodically pulls a mailbox through the pipeline.
type Scanner struct {
	mailbox  Mailbox
	filter   *dedup.Filter
	pipe     *pipeline.Pipeline
	cron     *cron.Cron
	userID   string
	query    string
	pageSize int64
	spec     string
}

// Config holds the scanner's dependencies and settings.
type Config struct {
	Mailbox  Mailbox
	Filter   *dedup.Filter
	Pipeline *pipeline.Pipeline
	UserID   string
	Query    string // Gmail search query, e.g. "in:inbox newer_than:2d"
	PageSize int64
	Spec     string // cron spec, e.g. "@every 15m"
}

// New creates a scanner. Filter may be nil, in which case every fetched
// message is submitted.
func New(cfg Config) *Scanner {
	spec := cfg.Spec
	if spec == "" {
		spec = "@every 15m"
	}
	return &Scanner{
		mailbox:  cfg.Mailbox,
		filter:   cfg.Filter,
		pipe:     cfg.Pipeline,
		cron:     cron.New(),
		userID:   cfg.UserID,
		query:    cfg.Query,
		pageSize: cfg.PageSize,
		spec:     spec,
	}
}

// Start registers the cron job and runs one scan immediately so a fresh
// deployment does not wait for the first tick.
func (s *Scanner) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.ScanOnce(ctx); err != nil {
			slog.Error("scheduled scan failed", "user_id", s.userID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register scan cron: %w", err)
	}

	s.cron.Start()
	slog.Info("mailbox scanner started", "spec", s.spec, "query", s.query)

	go func() {
		if _, err := s.ScanOnce(ctx); err != nil {
			slog.Error("initial scan failed", "user_id", s.userID, "error", err)
		}
	}()

	return nil
}

// Stop shuts down the cron loop.
func (s *Scanner) Stop() {
	s.cron.Stop()
}

// ScanOnce fetches recent messages, filters previously seen ones, and
// submits the rest to the pipeline as a single batch.
func (s *Scanner) ScanOnce(ctx context.Context) (Result, error) {
	var res Result

	msgs, err := s.mailbox.ListMessages(ctx, s.query, s.pageSize)
	if err != nil {
		return res, fmt.Errorf("list mailbox: %w", err)
	}
	res.Fetched = len(msgs)

	var emails []models.ParsedEmail
	for _, m := range msgs {
		if s.filter != nil {
			isNew, err := s.filter.IsNew(ctx, m.Id)
			if err != nil {
				slog.Warn("dedup check failed, proceeding", "message_id", m.Id, "error", err)
			} else if !isNew {
				res.Skipped++
				continue
			}
		}
		emails = append(emails, mail.Decode(m))
	}

	if len(emails) == 0 {
		slog.Info("scan cycle complete, nothing new",
			"user_id", s.userID,
			"fetched", res.Fetched,
			"skipped", res.Skipped,
		)
		return res, nil
	}

	ack, err := s.pipe.Submit(emails, s.userID)
	if err != nil {
		return res, fmt.Errorf("submit scan batch: %w", err)
	}
	res.Submitted = len(emails)

	slog.Info("scan cycle complete",
		"user_id", s.userID,
		"fetched", res.Fetched,
		"skipped", res.Skipped,
		"submitted", res.Submitted,
		"ack_id", ack.ID,
	)
	return res, nil
}
