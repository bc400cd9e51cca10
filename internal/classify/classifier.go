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

// Package classify scores parsed emails for job-application likelihood using
// weighted pattern tables, and opportunistically extracts candidate job
// fields ahead of the authoritative LLM extraction.
package classify

import (
	"log/slog"
	"time"

	"github.com/jobsift/ingestion/internal/htmltext"
	"github.com/jobsift/ingestion/internal/models"
)

// Default score thresholds, overridable via Config.
const (
	DefaultJobRelatedThreshold     = 30
	DefaultHighConfidenceThreshold = 75
)

// Classifier assigns a 0-100 job-relevance score to parsed emails.
// It holds no mutable state; one instance is safe for concurrent use.
type Classifier struct {
	subject []Pattern
	sender  []Pattern
	body    []Pattern

	jobRelatedThreshold     int
	highConfidenceThreshold int
}

// Config holds the pattern tables and thresholds for a Classifier.
// Zero-value fields fall back to the defaults, so Config{} is valid.
type Config struct {
	SubjectPatterns []Pattern
	SenderPatterns  []Pattern
	BodyPatterns    []Pattern

	JobRelatedThreshold     int
	HighConfidenceThreshold int
}

// New creates a classifier. Tests can inject fixed pattern tables through cfg.
func New(cfg Config) *Classifier {
	c := &Classifier{
		subject: needsDefault(cfg.SubjectPatterns, DefaultSubjectPatterns),
		sender:  needsDefault(cfg.SenderPatterns, DefaultSenderPatterns),
		body:    needsDefault(cfg.BodyPatterns, DefaultBodyPatterns),

		jobRelatedThreshold:     cfg.JobRelatedThreshold,
		highConfidenceThreshold: cfg.HighConfidenceThreshold,
	}
	if c.jobRelatedThreshold == 0 {
		c.jobRelatedThreshold = DefaultJobRelatedThreshold
	}
	if c.highConfidenceThreshold == 0 {
		c.highConfidenceThreshold = DefaultHighConfidenceThreshold
	}
	return c
}

func needsDefault(patterns []Pattern, fallback func() []Pattern) []Pattern {
	if len(patterns) == 0 {
		return fallback()
	}
	return patterns
}

// HighConfidenceThreshold reports the score gating LLM extraction.
func (c *Classifier) HighConfidenceThreshold() int {
	return c.highConfidenceThreshold
}

// Classify produces exactly one JobSignal for the email. It never fails:
// a panic during scoring is recovered into a zero-confidence signal.
func (c *Classifier) Classify(email models.ParsedEmail) (sig models.JobSignal) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("classifier panic recovered",
				"email_id", email.ID,
				"subject", email.Subject,
				"panic", r,
			)
			sig = zeroSignal(email.ID)
		}
	}()

	sig = zeroSignal(email.ID)

	plainBody := htmltext.Strip(email.Body)
	corpus := email.Subject + "\n" + plainBody + "\n" + email.From

	score := 0
	score += applyPatterns(c.subject, email.Subject, &sig.Signals.Subject)
	score += applyPatterns(c.sender, email.From, &sig.Signals.Sender)
	score += applyPatterns(c.body, plainBody, &sig.Signals.Body)

	if email.HasAttachments {
		score += attachmentPoints
		sig.Signals.Metadata = append(sig.Signals.Metadata, attachmentLabel)
	}
	if len(plainBody) > longBodyThreshold {
		score += longBodyPoints
		sig.Signals.Metadata = append(sig.Signals.Metadata, longBodyLabel)
	}

	sig.JobConfidenceScore = clamp(score, 0, 100)
	sig.IsJobRelated = sig.JobConfidenceScore >= c.jobRelatedThreshold

	c.extractFields(email, plainBody, corpus, &sig)

	if sig.JobConfidenceScore >= c.highConfidenceThreshold {
		slog.Info("high confidence job email",
			"email_id", email.ID,
			"subject", email.Subject,
			"score", sig.JobConfidenceScore,
		)
	}

	return sig
}

// ClassifyAll processes a batch independently, one signal per email.
func (c *Classifier) ClassifyAll(emails []models.ParsedEmail) []models.JobSignal {
	signals := make([]models.JobSignal, 0, len(emails))
	for _, e := range emails {
		signals = append(signals, c.Classify(e))
	}
	return signals
}

// applyPatterns evaluates one pattern table against a field. Each pattern
// contributes its points at most once.
func applyPatterns(patterns []Pattern, field string, labels *[]string) int {
	total := 0
	for _, p := range patterns {
		if p.Re.MatchString(field) {
			total += p.Points
			*labels = append(*labels, p.Label)
		}
	}
	return total
}

// zeroSignal is a fully-populated, empty-valued signal: downstream code
// never sees a nil slice or missing field.
func zeroSignal(emailID string) models.JobSignal {
	return models.JobSignal{
		EmailID: emailID,
		Status:  "Applied",
		Signals: models.SignalBuckets{
			Subject:  []string{},
			Body:     []string{},
			Sender:   []string{},
			Metadata: []string{},
		},
		Requirements: []string{},
		Platform:     "Email",
		AppliedAt:    time.Now().UTC(),
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
