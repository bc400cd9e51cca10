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

package classify

import "regexp"

// Pattern is one weighted signal: a regex, the points it contributes when it
// matches (at most once), and the label recorded for auditability.
type Pattern struct {
	Re     *regexp.Regexp
	Points int
	Label  string
}

// DefaultSubjectPatterns match job-application terminology in the subject line.
func DefaultSubjectPatterns() []Pattern {
	return []Pattern{
		{regexp.MustCompile(`(?i)(thank you for applying|application (received|confirmed|submitted))`), 25, "Application acknowledgment"},
		{regexp.MustCompile(`(?i)\binterview\b`), 20, "Interview mention"},
		{regexp.MustCompile(`(?i)\boffer\b`), 20, "Offer mention"},
		{regexp.MustCompile(`(?i)(unfortunately|not moving forward|update on your (application|candidacy))`), 15, "Rejection or status update"},
		{regexp.MustCompile(`(?i)\b(job|position|role|opportunity|opening)\b`), 10, "Job terminology"},
		{regexp.MustCompile(`(?i)\b(career|hiring|recruit(ing|ment)?|talent)\b`), 5, "Hiring terminology"},
	}
}

// DefaultSenderPatterns match recruiting mailboxes, job-board domains and
// recruiter titles in the From header.
func DefaultSenderPatterns() []Pattern {
	return []Pattern{
		{regexp.MustCompile(`(?i)(recruit[a-z]*|talent|careers|hiring|jobs)@`), 20, "Recruiting mailbox"},
		{regexp.MustCompile(`(?i)@[a-z0-9.-]*(linkedin|indeed|glassdoor|ziprecruiter|greenhouse|lever|myworkday|smartrecruiters|wellfound)\.`), 15, "Job platform domain"},
		{regexp.MustCompile(`(?i)(recruiter|talent acquisition|hiring (manager|team)|people (ops|team))`), 10, "Recruiter title"},
		{regexp.MustCompile(`(?i)no-?reply@`), 3, "Automated sender"},
	}
}

// DefaultBodyPatterns match job-description markers and application lifecycle
// language in the plain-text body. Offer and rejection phrasing carry the
// highest weights: an email containing either is almost certainly
// job-application correspondence.
func DefaultBodyPatterns() []Pattern {
	return []Pattern{
		{regexp.MustCompile(`(?i)(pleased to offer|offer of employment|job offer|extend (you )?an offer)`), 30, "Offer language"},
		{regexp.MustCompile(`(?i)(regret to inform|not (be )?moving forward|decided to (move forward|proceed) with other|no longer under consideration|not been selected)`), 30, "Rejection language"},
		{regexp.MustCompile(`(?i)(received your application|application (has been|was) received|thank you for (applying|your application))`), 20, "Application received"},
		{regexp.MustCompile(`(?i)(schedule (a|an|your) (call|chat|interview|meeting)|interview invitation|invite you to (an )?interview|your availability)`), 20, "Interview scheduling indicators"},
		{regexp.MustCompile(`(?i)(status of your application|application (status|update)|next steps? in (the|our) (process|hiring))`), 10, "Status update language"},
		{regexp.MustCompile(`(?i)(background check|reference check|pre-?employment screening)`), 10, "Screening indicators"},
		{regexp.MustCompile(`(?i)(salary|compensation|pay range|benefits package|\$\s?\d{2,3},\d{3})`), 10, "Compensation terms"},
		{regexp.MustCompile(`(?i)(responsibilities|qualifications|requirements|what you('|’)ll do)`), 8, "Job description markers"},
		{regexp.MustCompile(`(?i)\b(remote|hybrid|on-?site|work from home)\b`), 5, "Location indicators"},
		{regexp.MustCompile(`(?i)(following up|follow-?up|checking in) on`), 3, "Follow-up language"},
	}
}

// Metadata signal weights. These are not regex-driven: attachment presence and
// body length are checked directly.
const (
	attachmentPoints  = 10
	longBodyPoints    = 5
	longBodyThreshold = 1000
	attachmentLabel   = "Has attachments"
	longBodyLabel     = "Long body"
)
