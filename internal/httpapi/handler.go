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

// Package httpapi exposes the batch submission endpoint. A submission is
// acknowledged immediately; classification and extraction happen in the
// pipeline worker, and failures are observable only via logs.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/jobsift/ingestion/internal/models"
	"github.com/jobsift/ingestion/internal/pipeline"
)

// Submitter accepts email batches. Implemented by pipeline.Pipeline.
type Submitter interface {
	Submit(emails []models.ParsedEmail, userID string) (pipeline.Ack, error)
}

// Handler processes scan submissions.
type Handler struct {
	pipe Submitter
}

// NewHandler creates a submission handler.
func NewHandler(pipe Submitter) *Handler {
	return &Handler{pipe: pipe}
}

// scanRequest is the submission payload. Emails may be a single object or an
// array; both are accepted.
type scanRequest struct {
	Emails json.RawMessage `json:"emails"`
	UserID string          `json:"userId"`
}

// ServeScan handles POST /api/v1/scan.
func (h *Handler) ServeScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	emails, err := decodeEmails(req.Emails)
	if err != nil {
		http.Error(w, "emails must be an object or an array", http.StatusBadRequest)
		return
	}

	ack, err := h.pipe.Submit(emails, req.UserID)
	if errors.Is(err, pipeline.ErrQueueFull) {
		slog.Warn("scan rejected, pipeline queue full", "user_id", req.UserID)
		http.Error(w, "pipeline busy, retry later", http.StatusServiceUnavailable)
		return
	}
	if errors.Is(err, pipeline.ErrStopped) {
		http.Error(w, "service shutting down", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		slog.Error("scan submission failed", "user_id", req.UserID, "error", err)
		http.Error(w, "submission failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ack)
}

// decodeEmails accepts either a single ParsedEmail object or an array.
func decodeEmails(raw json.RawMessage) ([]models.ParsedEmail, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var many []models.ParsedEmail
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	var one models.ParsedEmail
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []models.ParsedEmail{one}, nil
}

// ServeHealth handles GET /healthz.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Serve starts the HTTP server on the given port. It binds the port
// immediately and signals readiness via the returned channel before starting
// to accept connections.
func Serve(ctx context.Context, port int, handler *Handler) (<-chan struct{}, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/scan", handler.ServeScan)
	mux.HandleFunc("/healthz", handler.ServeHealth)

	server := &http.Server{
		Handler: mux,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind api port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("api server shutting down")
		server.Close()
	}()

	go func() {
		slog.Info("api server listening", "port", port)
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
		}
	}()

	return ready, nil
}
