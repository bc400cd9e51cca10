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

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jobsift/ingestion/internal/models"
)

// Opportunistic field extraction: ordered regex fallback chains, first match
// wins per field. These values are best-effort hints only; the LLM extraction
// stage is authoritative.

var (
	rePrefix = regexp.MustCompile(`(?i)^\s*re:\s*`)

	titlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:position|role) of\s+([A-Za-z][A-Za-z0-9+#/ -]{2,60})`),
		regexp.MustCompile(`(?i)for the\s+([A-Za-z][A-Za-z0-9+#/ -]{2,60}?)\s+(?:position|role)`),
	}

	companyExplicit = regexp.MustCompile(`\b(?:at|with|for)\s+([A-Z][A-Za-z0-9&.]*(?:\s+[A-Z][A-Za-z0-9&.]*){0,3})`)
	senderDomain    = regexp.MustCompile(`@([A-Za-z0-9-]+)\.`)

	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)location:?\s*([A-Za-z][A-Za-z ,.-]{2,60})`),
		regexp.MustCompile(`(?i)(?:based|located) in\s+([A-Za-z][A-Za-z ,.-]{2,40})`),
	}
	remoteRe = regexp.MustCompile(`(?i)\b(remote|work from home)\b`)

	salaryRe = regexp.MustCompile(`(?i)\$?(\d{2,3}(?:,\d{3})?k?)\s*(?:-|–|to)\s*\$?(\d{2,3}(?:,\d{3})?k?)\s*(?:per\s+|/\s*)?(year|annum|yr|month|mo|hour|hr)?`)

	descriptionRe  = regexp.MustCompile(`(?is)(?:job description|about the (?:role|position)|what you(?:'|’)ll do)\s*:?\s*(.{40,800}?)(?:requirements|qualifications|what we offer|benefits|how to apply|$)`)
	requirementsRe = regexp.MustCompile(`(?is)(?:requirements|qualifications|what we(?:'|’)re looking for)\s*:?\s*(.{20,800}?)(?:benefits|what we offer|how to apply|about us|$)`)
	bulletSplitRe  = regexp.MustCompile(`[\n•·*]+|(?:^|\s)-\s`)

	contactRe = regexp.MustCompile(`(?is)(?:contact(?: us| me)?|reach (?:out|me))\s*:?\s*(.{10,200}?)(?:\n|$)`)

	deadlineRe = regexp.MustCompile(`(?i)(?:deadline|apply by|applications? (?:close|due)(?: by| on)?)\s*:?\s*([A-Za-z]+\s+\d{1,2},?\s+\d{4}|\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2})`)

	urlRe        = regexp.MustCompile(`https?://[^\s"'<>)]+`)
	jobURLHintRe = regexp.MustCompile(`(?i)(job|career|position|apply|posting|requisition|greenhouse|lever|workday)`)
	urlHostRe    = regexp.MustCompile(`https?://(?:www\.)?([^/:]+)`)
)

// knownPlatforms is the fixed list of job boards recognised by name.
var knownPlatforms = []string{
	"LinkedIn", "Indeed", "Glassdoor", "ZipRecruiter", "Monster",
	"Wellfound", "AngelList", "Greenhouse", "Lever", "Workday",
	"SmartRecruiters", "Dice",
}

var deadlineLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
}

func (c *Classifier) extractFields(email models.ParsedEmail, plainBody, corpus string, sig *models.JobSignal) {
	sig.Title = extractTitle(email.Subject, corpus)
	sig.Company = extractCompany(corpus, email.From)
	sig.Location = extractLocation(plainBody, corpus)
	sig.Salary = extractSalary(corpus)
	sig.Status = extractStatus(corpus)
	sig.JobDescription = firstGroup(descriptionRe, plainBody)
	sig.Requirements = extractRequirements(plainBody)
	sig.ContactInfo = firstGroup(contactRe, plainBody)
	sig.ApplicationDeadline = extractDeadline(corpus)
	sig.JobURL = extractJobURL(email.Body)
	sig.Platform = extractPlatform(corpus, sig.JobURL)
}

func extractTitle(subject, corpus string) string {
	for _, re := range titlePatterns {
		if m := re.FindStringSubmatch(corpus); m != nil {
			return tidy(m[1])
		}
	}
	return tidy(rePrefix.ReplaceAllString(subject, ""))
}

func extractCompany(corpus, from string) string {
	if m := companyExplicit.FindStringSubmatch(corpus); m != nil {
		return tidy(m[1])
	}
	if m := senderDomain.FindStringSubmatch(from); m != nil {
		d := strings.ToLower(m[1])
		return strings.ToUpper(d[:1]) + d[1:]
	}
	return ""
}

func extractLocation(plainBody, corpus string) string {
	for _, re := range locationPatterns {
		if m := re.FindStringSubmatch(plainBody); m != nil {
			return tidy(m[1])
		}
	}
	if remoteRe.MatchString(corpus) {
		return "Remote"
	}
	return ""
}

func extractSalary(corpus string) *models.Salary {
	m := salaryRe.FindStringSubmatch(corpus)
	if m == nil {
		return nil
	}
	min := parseAmount(m[1])
	max := parseAmount(m[2])
	if min == 0 || max == 0 || max < min {
		return nil
	}
	return &models.Salary{Min: min, Max: max, Period: normalizePeriod(m[3])}
}

// parseAmount turns "85,000" or "120k" into an integer amount.
func parseAmount(s string) int {
	s = strings.ToLower(strings.ReplaceAll(s, ",", ""))
	mult := 1
	if strings.HasSuffix(s, "k") {
		s = strings.TrimSuffix(s, "k")
		mult = 1000
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n * mult
}

func normalizePeriod(p string) string {
	switch strings.ToLower(p) {
	case "hour", "hr":
		return "hour"
	case "month", "mo":
		return "month"
	default:
		return "year"
	}
}

var (
	rejectedRe  = regexp.MustCompile(`(?i)(regret to inform|not (be )?moving forward|no longer under consideration|not been selected)`)
	offerRe     = regexp.MustCompile(`(?i)(pleased to offer|offer of employment|job offer|extend (you )?an offer)`)
	interviewRe = regexp.MustCompile(`(?i)\binterview\b`)
)

// extractStatus maps lifecycle keywords to a coarse status, most specific
// first. Default is "Applied".
func extractStatus(corpus string) string {
	switch {
	case rejectedRe.MatchString(corpus):
		return "Rejected"
	case offerRe.MatchString(corpus):
		return "Offer"
	case interviewRe.MatchString(corpus):
		return "Interview"
	default:
		return "Applied"
	}
}

func extractRequirements(plainBody string) []string {
	m := requirementsRe.FindStringSubmatch(plainBody)
	if m == nil {
		return []string{}
	}
	items := []string{}
	for _, raw := range bulletSplitRe.Split(m[1], -1) {
		item := tidy(raw)
		if len(item) > 10 {
			items = append(items, item)
		}
		if len(items) == 5 {
			break
		}
	}
	return items
}

func extractDeadline(corpus string) *time.Time {
	m := deadlineRe.FindStringSubmatch(corpus)
	if m == nil {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, m[1]); err == nil {
			return &t
		}
	}
	// Unparseable date literals are discarded, not fatal.
	return nil
}

func extractJobURL(body string) string {
	urls := urlRe.FindAllString(body, -1)
	if len(urls) == 0 {
		return ""
	}
	for _, u := range urls {
		if jobURLHintRe.MatchString(u) {
			return u
		}
	}
	return urls[0]
}

func extractPlatform(corpus, jobURL string) string {
	lower := strings.ToLower(corpus)
	for _, p := range knownPlatforms {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p
		}
	}
	if jobURL != "" {
		if m := urlHostRe.FindStringSubmatch(jobURL); m != nil {
			labels := strings.Split(m[1], ".")
			if len(labels) >= 2 {
				name := labels[len(labels)-2]
				return strings.ToUpper(name[:1]) + name[1:]
			}
		}
	}
	return "Email"
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return tidy(m[1])
	}
	return ""
}

// tidy trims whitespace and trailing punctuation left over by the regexes.
func tidy(s string) string {
	return strings.Trim(strings.TrimSpace(s), ".,;:-–— \t")
}
