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

// Package pipeline runs the asynchronous extraction and dedup stage.
// Batches are submitted fire-and-forget onto a bounded queue and consumed by
// a single worker goroutine, which makes the sequential per-batch ordering
// guarantee explicit: outbound completion-service calls never overlap, so a
// rate-limited LLM API is never hammered and two extractions cannot race on
// the same dedup key.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jobsift/ingestion/internal/classify"
	"github.com/jobsift/ingestion/internal/extract"
	"github.com/jobsift/ingestion/internal/llm"
	"github.com/jobsift/ingestion/internal/models"
	"github.com/jobsift/ingestion/internal/store"
)

// ErrQueueFull is returned by Submit when the work queue is at capacity.
var ErrQueueFull = errors.New("pipeline queue is full")

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("pipeline is stopped")

// DefaultQueueCapacity bounds the number of pending batches.
const DefaultQueueCapacity = 64

// Scorer produces one JobSignal per email. Implemented by classify.Classifier.
type Scorer interface {
	Classify(email models.ParsedEmail) models.JobSignal
	HighConfidenceThreshold() int
}

// JobStore is the persistence collaborator.
type JobStore interface {
	ExistsByCompanyPosition(ctx context.Context, userID, company, position string) (bool, error)
	InsertJob(ctx context.Context, userID string, rec models.NormalizedJobRecord, stages []models.Stage) (*models.Job, error)
}

// Ack is the immediate acknowledgment returned by Submit. The ID is a
// synthetic submission timestamp, not a persisted identifier.
type Ack struct {
	ID int64 `json:"id"`
}

// batch is one unit of queued work.
type batch struct {
	emails []models.ParsedEmail
	userID string
}

// candidate is what survives the confidence filter: the minimal slice of an
// email needed for extraction.
type candidate struct {
	userID  string
	subject string
	body    string
	emailID string
}

// Pipeline is the extraction stage. Construct with New, then Start exactly
// once; Submit from any goroutine; Stop to drain and shut down.
type Pipeline struct {
	scorer    Scorer
	completer llm.Completer
	store     JobStore
	queue     chan batch
	wg        sync.WaitGroup
	now       func() time.Time

	mu      sync.Mutex
	stopped bool
}

// Config holds the pipeline's dependencies.
type Config struct {
	Scorer        Scorer
	Completer     llm.Completer
	Store         JobStore
	QueueCapacity int

	// Now is the clock; nil means time.Now. Injected by tests.
	Now func() time.Time
}

// New creates a pipeline. The classify package's defaults apply when
// cfg.Scorer is nil.
func New(cfg Config) *Pipeline {
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = classify.New(classify.Config{})
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		scorer:    scorer,
		completer: cfg.Completer,
		store:     cfg.Store,
		queue:     make(chan batch, capacity),
		now:       now,
	}
}

// Start launches the single worker loop. The worker exits when the queue is
// closed by Stop or when ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-p.queue:
				if !ok {
					return
				}
				p.ProcessBatch(ctx, b.emails, b.userID)
			}
		}
	}()
	slog.Info("extraction pipeline started", "queue_capacity", cap(p.queue))
}

// Stop closes the queue and waits for the worker to exit. Pending batches
// are drained unless the worker's context has already been cancelled, in
// which case they are dropped. Safe to call more than once; Submit after
// Stop returns ErrStopped.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit enqueues a batch and returns immediately with a synthetic
// acknowledgment. The eventual persistence result is observable only via
// logs; no error from processing ever reaches the submitter.
func (p *Pipeline) Submit(emails []models.ParsedEmail, userID string) (Ack, error) {
	// Held across the send so Stop cannot close the queue underneath it.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return Ack{}, ErrStopped
	}

	ack := Ack{ID: p.now().UnixMilli()}
	select {
	case p.queue <- batch{emails: emails, userID: userID}:
		slog.Info("batch submitted",
			"user_id", userID,
			"emails", len(emails),
			"ack_id", ack.ID,
		)
		return ack, nil
	default:
		return Ack{}, ErrQueueFull
	}
}

// ProcessBatch classifies every email, keeps the high-confidence ones, and
// extracts and persists each sequentially. Exported so the backfill CLI can
// run batches synchronously; the server path goes through Submit.
func (p *Pipeline) ProcessBatch(ctx context.Context, emails []models.ParsedEmail, userID string) {
	byID := make(map[string]models.ParsedEmail, len(emails))
	for _, e := range emails {
		byID[e.ID] = e
	}

	threshold := p.scorer.HighConfidenceThreshold()
	var candidates []candidate
	for _, e := range emails {
		sig := p.scorer.Classify(e)
		if sig.JobConfidenceScore < threshold {
			continue
		}
		// Retain only what extraction needs; placeholders if the original
		// is somehow missing.
		original, found := byID[sig.EmailID]
		if !found {
			original = models.ParsedEmail{}
		}
		candidates = append(candidates, candidate{
			userID:  userID,
			subject: original.Subject,
			body:    original.Body,
			emailID: sig.EmailID,
		})
	}

	slog.Info("batch scored",
		"user_id", userID,
		"emails", len(emails),
		"high_confidence", len(candidates),
	)

	// Sequential on purpose: one in-flight completion call at a time.
	for _, c := range candidates {
		if err := p.processCandidate(ctx, c); err != nil {
			// Per-item isolation: log and continue with siblings.
			slog.Error("extraction failed for email",
				"user_id", c.userID,
				"email_id", c.emailID,
				"subject", c.subject,
				"error", err,
			)
		}
	}
}

// processCandidate runs one email through prompt → completion → normalize →
// dedup → persist.
func (p *Pipeline) processCandidate(ctx context.Context, c candidate) error {
	prompt := extract.BuildPrompt(c.subject, c.body)

	raw, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("completion call: %w", err)
	}

	out := extract.Normalize(raw, p.now().UTC())
	if out.Status != extract.OK {
		slog.Warn("completion response not usable",
			"email_id", c.emailID,
			"status", out.Status.String(),
			"reason", out.Reason,
		)
		// The record lacks company/position, so the guard below skips it.
	}

	rec := out.Record
	if rec.Company == "" || rec.Position == "" {
		slog.Info("skipping record without company/position",
			"email_id", c.emailID,
			"status", out.Status.String(),
		)
		return nil
	}

	exists, err := p.store.ExistsByCompanyPosition(ctx, c.userID, rec.Company, rec.Position)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if exists {
		slog.Info("duplicate job skipped",
			"user_id", c.userID,
			"company", rec.Company,
			"position", rec.Position,
		)
		return nil
	}

	job, err := p.store.InsertJob(ctx, c.userID, rec, models.DefaultStages())
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent insert; the unique constraint held.
		slog.Info("duplicate job skipped at insert",
			"user_id", c.userID,
			"company", rec.Company,
			"position", rec.Position,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	slog.Info("job persisted",
		"user_id", c.userID,
		"job_id", job.ID,
		"company", job.Company,
		"position", job.Position,
		"status", job.Status,
	)
	return nil
}
