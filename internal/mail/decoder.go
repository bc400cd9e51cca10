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

// Package mail decodes raw Gmail API messages into the canonical ParsedEmail
// form consumed by the classifier. Decoding is total: a malformed or absent
// payload yields a stub ParsedEmail, never an error.
package mail

import (
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/jobsift/ingestion/internal/htmltext"
	"github.com/jobsift/ingestion/internal/models"
)

// Decode converts a raw Gmail message into a ParsedEmail. It never fails:
// any decoding problem produces a minimal stub so the classifier always
// receives a well-formed value.
func Decode(msg *gmail.Message) models.ParsedEmail {
	if msg == nil {
		return stub("")
	}

	email := models.ParsedEmail{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}
	if email.Labels == nil {
		email.Labels = []string{}
	}
	for _, l := range msg.LabelIds {
		if l == "UNREAD" {
			email.IsUnread = true
			break
		}
	}

	if msg.Payload == nil {
		return stub(msg.Id)
	}

	email.Subject = header(msg.Payload.Headers, "subject")
	email.From = header(msg.Payload.Headers, "from")
	email.To = header(msg.Payload.Headers, "to")
	email.Date = header(msg.Payload.Headers, "date")

	body, err := extractBody(msg.Payload)
	if err != nil {
		return stub(msg.Id)
	}
	email.Body = body
	email.BodyMarkdown = htmltext.Strip(body)
	email.HasAttachments = hasAttachments(msg.Payload)

	return email
}

// DecodeAll decodes a batch of raw messages, one ParsedEmail per input.
func DecodeAll(msgs []*gmail.Message) []models.ParsedEmail {
	out := make([]models.ParsedEmail, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Decode(m))
	}
	return out
}

// stub is the minimal well-formed email returned when decoding fails.
func stub(id string) models.ParsedEmail {
	return models.ParsedEmail{
		ID:      id,
		Subject: "Error",
		Labels:  []string{},
	}
}

// header performs a case-insensitive lookup; missing headers yield "".
func header(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h != nil && strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBody walks the MIME part tree depth-first, preferring the first
// text/html part. A text/plain fallback is wrapped in <pre> so downstream
// HTML-to-text conversion behaves uniformly. If a part carries neither,
// recurse into its first child.
func extractBody(part *gmail.MessagePart) (string, error) {
	if part == nil {
		return "", nil
	}

	if htmlPart := findPart(part, "text/html"); htmlPart != nil {
		return decodeData(htmlPart.Body)
	}

	if plainPart := findPart(part, "text/plain"); plainPart != nil {
		text, err := decodeData(plainPart.Body)
		if err != nil {
			return "", err
		}
		return "<pre>" + text + "</pre>", nil
	}

	if len(part.Parts) > 0 {
		return extractBody(part.Parts[0])
	}

	return "", nil
}

// findPart returns the first part of the given MIME type, depth-first.
func findPart(part *gmail.MessagePart, mimeType string) *gmail.MessagePart {
	if part == nil {
		return nil
	}
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		return part
	}
	for _, child := range part.Parts {
		if found := findPart(child, mimeType); found != nil {
			return found
		}
	}
	return nil
}

// decodeData decodes a base64url message body. Gmail omits padding, so try
// the raw alphabet first.
func decodeData(body *gmail.MessagePartBody) (string, error) {
	if body == nil || body.Data == "" {
		return "", nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(body.Data); err == nil {
		return string(b), nil
	}
	b, err := base64.URLEncoding.DecodeString(body.Data)
	if err != nil {
		return "", fmt.Errorf("decode body data: %w", err)
	}
	return string(b), nil
}

// hasAttachments reports whether any part in the tree carries a filename.
func hasAttachments(part *gmail.MessagePart) bool {
	if part == nil {
		return false
	}
	if part.Filename != "" {
		return true
	}
	for _, child := range part.Parts {
		if hasAttachments(child) {
			return true
		}
	}
	return false
}
