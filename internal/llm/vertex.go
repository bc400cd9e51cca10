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

// Package llm wraps the completion service used for structured job
// extraction. The pipeline depends only on the Completer interface; the
// Vertex AI Gemini client is the production implementation.
package llm

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// Completer returns a raw text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VertexClient is a Completer backed by Vertex AI Gemini.
type VertexClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewVertexClient creates a Vertex AI completion client. Temperature is kept
// low so repeated extractions of the same email stay consistent.
func NewVertexClient(ctx context.Context, projectID, location, modelName string) (*VertexClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("vertex project ID is required")
	}
	if location == "" {
		location = "us-central1"
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.SetTopK(40)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(1024)

	return &VertexClient{client: client, model: model}, nil
}

// Complete sends the prompt and concatenates the text parts of the first
// candidate.
func (v *VertexClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates returned")
	}

	var result string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result += string(text)
		}
	}
	return result, nil
}

// Close releases the underlying client.
func (v *VertexClient) Close() error {
	return v.client.Close()
}
