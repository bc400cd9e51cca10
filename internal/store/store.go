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

// Package store provides the Postgres-backed job store. A unique constraint
// on (user_id, company, position) is the authoritative dedup guard; the
// pipeline's exists-check is an optimisation only.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobsift/ingestion/internal/models"
)

// ErrDuplicate is returned by InsertJob when a job with the same
// (user, company, position) key already exists.
var ErrDuplicate = errors.New("job already exists for user/company/position")

// Store provides job persistence in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a job store backed by the given Postgres pool.
// It ensures the jobs schema exists on creation.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure jobs schema: %w", err)
	}
	slog.Info("job store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS jobs (
			id           UUID PRIMARY KEY,
			user_id      TEXT NOT NULL,
			company      TEXT NOT NULL,
			position     TEXT NOT NULL,
			location     TEXT DEFAULT '',
			status       TEXT DEFAULT 'applied',
			applied_date TIMESTAMPTZ DEFAULT NOW(),
			last_updated TIMESTAMPTZ DEFAULT NOW(),
			salary       NUMERIC DEFAULT 0,
			job_type     TEXT DEFAULT 'Full-time',
			job_url      TEXT DEFAULT '',
			notes        TEXT DEFAULT '',
			stages       JSONB DEFAULT '[]',
			created_at   TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(user_id, company, position)
		);
		CREATE TABLE IF NOT EXISTS skills (
			id   UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS job_skills (
			job_id   UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			skill_id UUID NOT NULL REFERENCES skills(id),
			required BOOLEAN DEFAULT TRUE,
			PRIMARY KEY (job_id, skill_id)
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_user ON jobs(user_id);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(user_id, status);
	`)
	return err
}

// ExistsByCompanyPosition reports whether the user already has a job with
// this company + position.
func (s *Store) ExistsByCompanyPosition(ctx context.Context, userID, company, position string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM jobs WHERE user_id = $1 AND company = $2 AND position = $3
		)
	`, userID, company, position).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dedup exists query: %w", err)
	}
	return exists, nil
}

// InsertJob persists a normalized record for a user, resolving or creating
// skill rows as needed. The job insert uses ON CONFLICT DO NOTHING on the
// (user_id, company, position) key, so a race between two concurrent
// pipelines cannot double-insert; the loser gets ErrDuplicate.
func (s *Store) InsertJob(ctx context.Context, userID string, rec models.NormalizedJobRecord, stages []models.Stage) (*models.Job, error) {
	stagesJSON, err := json.Marshal(stages)
	if err != nil {
		return nil, fmt.Errorf("marshal stages: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	jobID := uuid.New().String()
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO jobs
			(id, user_id, company, position, location, status, applied_date,
			 last_updated, salary, job_type, job_url, notes, stages)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, company, position) DO NOTHING
		RETURNING created_at
	`, jobID, userID, rec.Company, rec.Position, rec.Location, rec.Status,
		rec.AppliedDate, rec.LastUpdated, rec.Salary, rec.JobType,
		rec.JobURL, rec.Notes, stagesJSON,
	).Scan(&createdAt)
	if err == pgx.ErrNoRows {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	for _, skill := range rec.Skills {
		skillID, err := s.resolveSkill(ctx, tx, skill.Name)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO job_skills (job_id, skill_id, required)
			VALUES ($1, $2, $3)
			ON CONFLICT (job_id, skill_id) DO NOTHING
		`, jobID, skillID, skill.Required); err != nil {
			return nil, fmt.Errorf("insert job skill %q: %w", skill.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit job insert: %w", err)
	}

	return &models.Job{
		ID:          jobID,
		UserID:      userID,
		Company:     rec.Company,
		Position:    rec.Position,
		Location:    rec.Location,
		Status:      rec.Status,
		AppliedDate: rec.AppliedDate,
		LastUpdated: rec.LastUpdated,
		Salary:      rec.Salary,
		JobType:     rec.JobType,
		JobURL:      rec.JobURL,
		Notes:       rec.Notes,
		Stages:      stages,
		Skills:      rec.Skills,
		CreatedAt:   createdAt,
	}, nil
}

// resolveSkill finds or creates a skill row by name and returns its ID.
func (s *Store) resolveSkill(ctx context.Context, tx pgx.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO skills (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, uuid.New().String(), name).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("resolve skill %q: %w", name, err)
	}
	return id, nil
}

// ListByUser returns the user's persisted jobs, newest first. Used by the
// backfill CLI to report what a run produced.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, company, position, location, status, applied_date,
		       last_updated, salary, job_type, job_url, notes, stages, created_at
		FROM jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		var (
			j          models.Job
			stagesJSON []byte
		)
		if err := rows.Scan(
			&j.ID, &j.UserID, &j.Company, &j.Position, &j.Location, &j.Status,
			&j.AppliedDate, &j.LastUpdated, &j.Salary, &j.JobType, &j.JobURL,
			&j.Notes, &stagesJSON, &j.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if err := json.Unmarshal(stagesJSON, &j.Stages); err != nil {
			j.Stages = nil
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
