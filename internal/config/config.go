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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// VertexConfig holds the completion-service settings.
type VertexConfig struct {
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`
	Model     string `yaml:"model"`
}

// GmailConfig holds the mailbox transport settings.
type GmailConfig struct {
	CredentialsPath string `yaml:"credentials_path"`
	TokenPath       string `yaml:"token_path"`
	Query           string `yaml:"query"`
	PageSize        int64  `yaml:"page_size"`
}

// ScanConfig holds the periodic inbox scan settings.
type ScanConfig struct {
	Enabled  bool   `yaml:"enabled"`
	UserID   string `yaml:"user_id"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 15m"
}

// Config holds all configuration for the ingestion service.
type Config struct {
	DatabaseURL string
	RedisURL    string
	Port        int

	// Classifier thresholds. Empirically tuned; kept configurable rather
	// than hard-coded.
	JobRelatedThreshold     int
	HighConfidenceThreshold int

	QueueCapacity int

	Vertex VertexConfig
	Gmail  GmailConfig
	Scan   ScanConfig
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Classifier struct {
		JobRelatedThreshold     int `yaml:"job_related_threshold"`
		HighConfidenceThreshold int `yaml:"high_confidence_threshold"`
	} `yaml:"classifier"`
	Pipeline struct {
		QueueCapacity int `yaml:"queue_capacity"`
	} `yaml:"pipeline"`
	Vertex VertexConfig `yaml:"vertex"`
	Gmail  GmailConfig  `yaml:"gmail"`
	Scan   ScanConfig   `yaml:"scan"`
}

// Load reads configuration from .env (if present), config.yaml (with env var
// expansion), and environment variables for overrides.
func Load() (*Config, error) {
	// Best effort: a missing .env file is fine outside local development.
	_ = godotenv.Load()

	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	var raw rawConfig
	if data, err := os.ReadFile(configPath); err == nil {
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		DatabaseURL: firstNonEmpty(raw.Database.URL, envOrDefault("DATABASE_URL", "postgres://localhost:5432/jobsift")),
		RedisURL:    firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		Port:        envOrDefaultInt("PORT", 8080),

		JobRelatedThreshold:     firstPositive(raw.Classifier.JobRelatedThreshold, envOrDefaultInt("JOB_RELATED_THRESHOLD", 30)),
		HighConfidenceThreshold: firstPositive(raw.Classifier.HighConfidenceThreshold, envOrDefaultInt("HIGH_CONFIDENCE_THRESHOLD", 75)),

		QueueCapacity: firstPositive(raw.Pipeline.QueueCapacity, envOrDefaultInt("QUEUE_CAPACITY", 64)),

		Vertex: raw.Vertex,
		Gmail:  raw.Gmail,
		Scan:   raw.Scan,
	}

	if cfg.Vertex.ProjectID == "" {
		cfg.Vertex.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if cfg.Vertex.Location == "" {
		cfg.Vertex.Location = envOrDefault("GOOGLE_CLOUD_LOCATION", "us-central1")
	}
	if cfg.Vertex.Model == "" {
		cfg.Vertex.Model = envOrDefault("VERTEX_MODEL", "gemini-1.5-flash")
	}

	if cfg.Gmail.CredentialsPath == "" {
		cfg.Gmail.CredentialsPath = envOrDefault("GMAIL_CREDENTIALS", "credentials.json")
	}
	if cfg.Gmail.TokenPath == "" {
		cfg.Gmail.TokenPath = envOrDefault("GMAIL_TOKEN", "token.json")
	}
	if cfg.Gmail.Query == "" {
		cfg.Gmail.Query = envOrDefault("GMAIL_QUERY", "in:inbox newer_than:2d")
	}
	if cfg.Gmail.PageSize <= 0 {
		cfg.Gmail.PageSize = 50
	}

	if cfg.Scan.Schedule == "" {
		cfg.Scan.Schedule = envOrDefault("SCAN_SCHEDULE", "@every 15m")
	}
	if cfg.Scan.UserID == "" {
		cfg.Scan.UserID = os.Getenv("SCAN_USER_ID")
	}
	if cfg.Scan.Enabled && cfg.Scan.UserID == "" {
		return nil, fmt.Errorf("scan is enabled but no scan user is configured")
	}

	if cfg.HighConfidenceThreshold < cfg.JobRelatedThreshold {
		return nil, fmt.Errorf("high confidence threshold %d below job related threshold %d",
			cfg.HighConfidenceThreshold, cfg.JobRelatedThreshold)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
