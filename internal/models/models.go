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

// Package models defines the data structures shared across the ingestion service.
package models

import "time"

// ParsedEmail is the canonical flat form of one mailbox message.
// Built once by the decoder; never mutated afterwards.
type ParsedEmail struct {
	ID             string   `json:"id"`
	ThreadID       string   `json:"threadId"`
	Subject        string   `json:"subject"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	Date           string   `json:"date"`
	Body           string   `json:"body"`
	BodyMarkdown   string   `json:"bodyMarkdown,omitempty"`
	Snippet        string   `json:"snippet"`
	Labels         []string `json:"labels"`
	IsUnread       bool     `json:"isUnread"`
	HasAttachments bool     `json:"hasAttachments"`
}

// SignalBuckets records which patterns fired, per source field, for auditability.
type SignalBuckets struct {
	Subject  []string `json:"subject"`
	Body     []string `json:"body"`
	Sender   []string `json:"sender"`
	Metadata []string `json:"metadata"`
}

// Salary is an opportunistically extracted compensation range.
type Salary struct {
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Period string `json:"period"` // "year", "month", "hour"
}

// JobSignal is the classifier's verdict for a single email: a confidence
// score plus best-effort extracted fields. All fields are always present
// so downstream code can treat the shape uniformly.
type JobSignal struct {
	EmailID             string        `json:"emailId"`
	JobConfidenceScore  int           `json:"jobConfidenceScore"`
	IsJobRelated        bool          `json:"isJobRelated"`
	Signals             SignalBuckets `json:"jobSignals"`
	Title               string        `json:"title"`
	Company             string        `json:"company"`
	Location            string        `json:"location"`
	Status              string        `json:"status"`
	Salary              *Salary       `json:"salary"`
	JobURL              string        `json:"jobUrl"`
	Platform            string        `json:"platform"`
	JobDescription      string        `json:"jobDescription"`
	Requirements        []string      `json:"requirements"`
	ContactInfo         string        `json:"contactInfo"`
	ApplicationDeadline *time.Time    `json:"applicationDeadline"`
	AppliedAt           time.Time     `json:"appliedAt"`
}

// Skill is a single skill attached to a job record.
type Skill struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// NormalizedJobRecord is the schema-validated, default-filled output of the
// extraction stage. Every field has a deterministic default so the record is
// always persistable even when extraction under-delivers.
type NormalizedJobRecord struct {
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Location    string    `json:"location"`
	Status      string    `json:"status"` // applied|interview|rejected|offered|accepted
	AppliedDate time.Time `json:"appliedDate"`
	LastUpdated time.Time `json:"lastUpdated"`
	Salary      float64   `json:"salary"`
	JobType     string    `json:"jobType"` // Full-time|Part-time|Contract|Internship
	JobURL      string    `json:"jobUrl"`
	Notes       string    `json:"notes"`
	Skills      []Skill   `json:"skills"`
}

// Stage is one step of the application-progress checklist stored with a job.
type Stage struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// DefaultStages returns the stage checklist for a freshly ingested job:
// Applied marked complete, the four subsequent stages pending.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "Applied", Completed: true},
		{Name: "Screening", Completed: false},
		{Name: "Interview", Completed: false},
		{Name: "Offer", Completed: false},
		{Name: "Decision", Completed: false},
	}
}

// Job is a persisted job application row, owned by a user.
// Uniqueness key is (UserID, Company, Position).
type Job struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	AppliedDate time.Time `json:"appliedDate"`
	LastUpdated time.Time `json:"lastUpdated"`
	Salary      float64   `json:"salary"`
	JobType     string    `json:"jobType"`
	JobURL      string    `json:"jobUrl"`
	Notes       string    `json:"notes"`
	Stages      []Stage   `json:"stages"`
	Skills      []Skill   `json:"skills"`
	CreatedAt   time.Time `json:"createdAt"`
}
