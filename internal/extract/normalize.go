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

package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jobsift/ingestion/internal/models"
)

// Status tags the outcome of normalising one completion-service response.
type Status int

const (
	// OK: the response parsed and coerced into a persistable record.
	OK Status = iota
	// ParseError: the response was not JSON at all. The record carries safe
	// defaults and the reason in Notes; it must not be persisted (company and
	// position are empty).
	ParseError
	// SchemaError: the response was JSON but not an object.
	SchemaError
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case ParseError:
		return "parse_error"
	case SchemaError:
		return "schema_error"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of Normalize: callers branch on Status
// instead of probing sentinel empty strings.
type Outcome struct {
	Status Status
	Reason string
	Record models.NormalizedJobRecord
}

var (
	validStatuses = []string{"applied", "interview", "rejected", "offered", "accepted"}
	validJobTypes = []string{"Full-time", "Part-time", "Contract", "Internship"}

	fenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	digitsRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// StripFences removes markdown code-fence artifacts around a completion
// response, returning the inner content when a fenced block is present.
func StripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}

// Normalize parses a raw completion response and coerces it into a
// NormalizedJobRecord. Every field of the record gets a deterministic
// default, so the record is well-formed for any input.
func Normalize(raw string, now time.Time) Outcome {
	record := defaultRecord(now)

	var parsed any
	if err := json.Unmarshal([]byte(StripFences(raw)), &parsed); err != nil {
		record.Notes = "extraction failed: " + err.Error()
		return Outcome{Status: ParseError, Reason: err.Error(), Record: record}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		reason := "response is valid JSON but not an object"
		record.Notes = "extraction failed: " + reason
		return Outcome{Status: SchemaError, Reason: reason, Record: record}
	}

	record.Company = stringField(obj, "company")
	record.Position = stringField(obj, "position")
	record.Location = stringField(obj, "location")
	record.Status = coerceStatus(stringField(obj, "status"))
	record.Salary = coerceSalary(obj["salary"])
	record.JobType = CoerceJobType(stringField(obj, "jobType"))
	record.JobURL = stringField(obj, "jobUrl")
	record.Notes = stringField(obj, "notes")
	record.Skills = coerceSkills(obj["skills"])

	return Outcome{Status: OK, Record: record}
}

func defaultRecord(now time.Time) models.NormalizedJobRecord {
	return models.NormalizedJobRecord{
		Status:      "applied",
		JobType:     "Full-time",
		AppliedDate: now,
		LastUpdated: now,
		Skills:      []models.Skill{},
	}
}

func stringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// coerceStatus lowercases and maps to the status enum, defaulting to "applied".
func coerceStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range validStatuses {
		if s == v {
			return v
		}
	}
	switch s {
	case "offer":
		return "offered"
	case "interviewing":
		return "interview"
	}
	return "applied"
}

// coerceSalary accepts a JSON number or a string with embedded digits.
// Anything else, including negatives, becomes 0.
func coerceSalary(v any) float64 {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0
		}
		return n
	case string:
		if m := digitsRe.FindString(strings.ReplaceAll(n, ",", "")); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil && f >= 0 {
				return f
			}
		}
	}
	return 0
}

// jobTypeSynonyms keys are lowercased with spaces and hyphens removed.
var jobTypeSynonyms = map[string]string{
	"fulltime":   "Full-time",
	"full":       "Full-time",
	"permanent":  "Full-time",
	"parttime":   "Part-time",
	"part":       "Part-time",
	"contract":   "Contract",
	"contractor": "Contract",
	"freelance":  "Contract",
	"temporary":  "Contract",
	"intern":     "Internship",
	"internship": "Internship",
}

// CoerceJobType maps free text onto the jobType enum, defaulting to "Full-time".
func CoerceJobType(s string) string {
	key := strings.ToLower(s)
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "-", "")
	if t, ok := jobTypeSynonyms[key]; ok {
		return t
	}
	for _, v := range validJobTypes {
		if strings.EqualFold(s, v) {
			return v
		}
	}
	return "Full-time"
}

// coerceSkills accepts a list of {name, required} objects or bare strings.
// Entries missing "required" default to true; names are unique (first wins).
func coerceSkills(v any) []models.Skill {
	items, ok := v.([]any)
	if !ok {
		return []models.Skill{}
	}

	skills := make([]models.Skill, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		var s models.Skill
		switch e := item.(type) {
		case string:
			s = models.Skill{Name: strings.TrimSpace(e), Required: true}
		case map[string]any:
			s = models.Skill{Name: stringField(e, "name"), Required: true}
			if req, ok := e["required"].(bool); ok {
				s.Required = req
			}
		default:
			continue
		}
		key := strings.ToLower(s.Name)
		if s.Name == "" || seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, s)
	}
	return skills
}
