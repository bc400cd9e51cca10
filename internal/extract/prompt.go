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

// Package extract turns raw completion-service output into a validated,
// default-filled NormalizedJobRecord. It owns the prompt contract with the
// LLM and the tolerant coercion of whatever comes back.
package extract

import (
	"fmt"
	"strings"
)

// BuildPrompt returns the constrained extraction prompt for one email.
// The completion service is instructed to return only a JSON object with a
// fixed field set; Normalize tolerates deviations anyway.
func BuildPrompt(subject, body string) string {
	var sb strings.Builder

	sb.WriteString("You are extracting structured job application data from an email.\n\n")
	sb.WriteString("EMAIL SUBJECT:\n")
	sb.WriteString(subject)
	sb.WriteString("\n\nEMAIL BODY:\n")
	sb.WriteString(body)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY a JSON object with exactly these fields:\n")
	sb.WriteString("{\n")
	sb.WriteString(`  "company": "<string, the hiring company name>",` + "\n")
	sb.WriteString(`  "position": "<string, the job title>",` + "\n")
	sb.WriteString(`  "location": "<string, city/region or Remote, empty if unknown>",` + "\n")
	sb.WriteString(fmt.Sprintf("  \"status\": \"<one of: %s>\",\n", strings.Join(validStatuses, "|")))
	sb.WriteString(`  "salary": <number, annual amount, 0 if unknown>,` + "\n")
	sb.WriteString(fmt.Sprintf("  \"jobType\": \"<one of: %s>\",\n", strings.Join(validJobTypes, "|")))
	sb.WriteString(`  "jobUrl": "<string, empty if none>",` + "\n")
	sb.WriteString(`  "notes": "<string, one-sentence summary of the email>",` + "\n")
	sb.WriteString(`  "skills": [{"name": "<string>", "required": <bool>}]` + "\n")
	sb.WriteString("}\n\n")
	sb.WriteString("Rules: salary must be a number, not a string. Use empty strings for unknown ")
	sb.WriteString("text fields and an empty array for unknown skills. ")
	sb.WriteString("Do not include markdown, code fences, or any text outside the JSON object.\n")

	return sb.String()
}
