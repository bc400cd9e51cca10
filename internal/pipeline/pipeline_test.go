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

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jobsift/ingestion/internal/models"
)

// fakeScorer returns a fixed score per email ID.
type fakeScorer struct {
	scores    map[string]int
	threshold int
}

func (f *fakeScorer) Classify(email models.ParsedEmail) models.JobSignal {
	return models.JobSignal{
		EmailID:            email.ID,
		JobConfidenceScore: f.scores[email.ID],
	}
}

func (f *fakeScorer) HighConfidenceThreshold() int { return f.threshold }

// fakeCompleter returns canned responses keyed by a substring of the prompt.
type fakeCompleter struct {
	mu        sync.Mutex
	responses map[string]string // subject substring -> response
	errOn     string            // subject substring that triggers an error
	calls     []string          // subjects seen, in call order
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.responses {
		if strings.Contains(prompt, key) {
			f.calls = append(f.calls, key)
			if key == f.errOn {
				return "", errors.New("completion unavailable")
			}
			return f.responses[key], nil
		}
	}
	f.calls = append(f.calls, "?")
	return "{}", nil
}

// memStore is an in-memory JobStore keyed like the Postgres unique constraint.
type memStore struct {
	mu   sync.Mutex
	jobs map[string]models.NormalizedJobRecord
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]models.NormalizedJobRecord)}
}

func key(userID, company, position string) string {
	return userID + "|" + company + "|" + position
}

func (m *memStore) ExistsByCompanyPosition(_ context.Context, userID, company, position string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[key(userID, company, position)]
	return ok, nil
}

func (m *memStore) InsertJob(_ context.Context, userID string, rec models.NormalizedJobRecord, stages []models.Stage) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[key(userID, rec.Company, rec.Position)] = rec
	return &models.Job{
		ID: "job-1", UserID: userID, Company: rec.Company,
		Position: rec.Position, Status: rec.Status, Stages: stages,
	}, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func record(company, position string) string {
	return fmt.Sprintf(`{"company":%q,"position":%q}`, company, position)
}

func TestProcessBatch_ThresholdFiltering(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]int{"low": 74, "high": 75}, threshold: 75}
	completer := &fakeCompleter{responses: map[string]string{
		"high subject": record("Acme", "Engineer"),
		"low subject":  record("Other", "Role"),
	}}
	st := newMemStore()
	p := New(Config{Scorer: scorer, Completer: completer, Store: st})

	p.ProcessBatch(context.Background(), []models.ParsedEmail{
		{ID: "low", Subject: "low subject"},
		{ID: "high", Subject: "high subject"},
	}, "u1")

	if len(completer.calls) != 1 || completer.calls[0] != "high subject" {
		t.Errorf("completer calls = %v, want only the score-75 email", completer.calls)
	}
	if st.count() != 1 {
		t.Errorf("persisted %d jobs, want 1", st.count())
	}
}

func TestProcessBatch_Idempotence(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]int{"e1": 90, "e2": 90}, threshold: 75}
	completer := &fakeCompleter{responses: map[string]string{
		"first":  record("Acme", "Engineer"),
		"second": record("Acme", "Engineer"),
	}}
	st := newMemStore()
	p := New(Config{Scorer: scorer, Completer: completer, Store: st})

	p.ProcessBatch(context.Background(), []models.ParsedEmail{{ID: "e1", Subject: "first"}}, "u1")
	p.ProcessBatch(context.Background(), []models.ParsedEmail{{ID: "e2", Subject: "second"}}, "u1")

	if st.count() != 1 {
		t.Errorf("persisted %d jobs, want exactly 1 for duplicate company/position", st.count())
	}
}

func TestProcessBatch_ParseFailureNeverPersisted(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]int{"e1": 90}, threshold: 75}
	completer := &fakeCompleter{responses: map[string]string{
		"bad": "I am not JSON, sorry.",
	}}
	st := newMemStore()
	p := New(Config{Scorer: scorer, Completer: completer, Store: st})

	p.ProcessBatch(context.Background(), []models.ParsedEmail{{ID: "e1", Subject: "bad"}}, "u1")

	if st.count() != 0 {
		t.Errorf("persisted %d jobs, want 0 after parse failure", st.count())
	}
}

func TestProcessBatch_PartialFailureIsolation(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]int{"e1": 90, "e2": 90}, threshold: 75}
	completer := &fakeCompleter{
		responses: map[string]string{
			"failing": record("X", "Y"),
			"working": record("Acme", "Engineer"),
		},
		errOn: "failing",
	}
	st := newMemStore()
	p := New(Config{Scorer: scorer, Completer: completer, Store: st})

	p.ProcessBatch(context.Background(), []models.ParsedEmail{
		{ID: "e1", Subject: "failing"},
		{ID: "e2", Subject: "working"},
	}, "u1")

	if st.count() != 1 {
		t.Errorf("persisted %d jobs, want 1: sibling failure must not abort the batch", st.count())
	}
}

func TestProcessBatch_MissingCompanySkipsPersistence(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]int{"e1": 90}, threshold: 75}
	completer := &fakeCompleter{responses: map[string]string{
		"partial": `{"company":"","position":"Engineer"}`,
	}}
	st := newMemStore()
	p := New(Config{Scorer: scorer, Completer: completer, Store: st})

	p.ProcessBatch(context.Background(), []models.ParsedEmail{{ID: "e1", Subject: "partial"}}, "u1")

	if st.count() != 0 {
		t.Errorf("persisted %d jobs, want 0 without a company", st.count())
	}
}

func TestSubmit_ReturnsAckAndDrainsOnStop(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]int{"e1": 90}, threshold: 75}
	completer := &fakeCompleter{responses: map[string]string{
		"async": record("Acme", "Engineer"),
	}}
	st := newMemStore()
	p := New(Config{Scorer: scorer, Completer: completer, Store: st})
	p.Start(context.Background())

	ack, err := p.Submit([]models.ParsedEmail{{ID: "e1", Subject: "async"}}, "u1")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if ack.ID == 0 {
		t.Error("ack.ID should be a timestamp, got 0")
	}

	p.Stop()

	if st.count() != 1 {
		t.Errorf("persisted %d jobs after drain, want 1", st.count())
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	p := New(Config{
		Scorer:        &fakeScorer{threshold: 75},
		Completer:     &fakeCompleter{},
		Store:         newMemStore(),
		QueueCapacity: 1,
	})
	// Worker not started: the second submit must hit the bound.
	if _, err := p.Submit(nil, "u1"); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := p.Submit(nil, "u1"); !errors.Is(err, ErrQueueFull) {
		t.Errorf("second submit err = %v, want ErrQueueFull", err)
	}
}

func TestProcessBatch_SequentialCompletionCalls(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]int{"a": 80, "b": 80, "c": 80}, threshold: 75}
	completer := &fakeCompleter{responses: map[string]string{
		"alpha": record("A", "P1"),
		"beta":  record("B", "P2"),
		"gamma": record("C", "P3"),
	}}
	st := newMemStore()
	p := New(Config{Scorer: scorer, Completer: completer, Store: st})

	p.ProcessBatch(context.Background(), []models.ParsedEmail{
		{ID: "a", Subject: "alpha"},
		{ID: "b", Subject: "beta"},
		{ID: "c", Subject: "gamma"},
	}, "u1")

	want := []string{"alpha", "beta", "gamma"}
	if len(completer.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", completer.calls, want)
	}
	for i := range want {
		if completer.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q (calls must preserve batch order)", i, completer.calls[i], want[i])
		}
	}
}

func TestSubmit_AfterStopReturnsErrStopped(t *testing.T) {
	p := New(Config{
		Scorer:    &fakeScorer{threshold: 75},
		Completer: &fakeCompleter{},
		Store:     newMemStore(),
	})
	p.Start(context.Background())
	p.Stop()

	if _, err := p.Submit([]models.ParsedEmail{{ID: "late"}}, "u1"); !errors.Is(err, ErrStopped) {
		t.Errorf("Submit after Stop err = %v, want ErrStopped", err)
	}
}

func TestStop_Idempotent(t *testing.T) {
	p := New(Config{
		Scorer:    &fakeScorer{threshold: 75},
		Completer: &fakeCompleter{},
		Store:     newMemStore(),
	})
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
