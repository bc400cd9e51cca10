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
	"testing"

	"github.com/jobsift/ingestion/internal/models"
)

func classify(t *testing.T, email models.ParsedEmail) models.JobSignal {
	t.Helper()
	return New(Config{}).Classify(email)
}

func TestExtractTitle_FallsBackToSubjectWithoutRe(t *testing.T) {
	sig := classify(t, models.ParsedEmail{Subject: "Re: Backend Developer opening"})
	if sig.Title != "Backend Developer opening" {
		t.Errorf("title = %q, want %q", sig.Title, "Backend Developer opening")
	}
}

func TestExtractTitle_ExplicitPhrasingWins(t *testing.T) {
	sig := classify(t, models.ParsedEmail{
		Subject: "Quick update",
		Body:    "You applied for the Data Engineer position last week.",
	})
	if sig.Title != "Data Engineer" {
		t.Errorf("title = %q, want %q", sig.Title, "Data Engineer")
	}
}

func TestExtractCompany_SenderDomainFallback(t *testing.T) {
	sig := classify(t, models.ParsedEmail{
		Subject: "hello",
		From:    "someone@initech.com",
	})
	if sig.Company != "Initech" {
		t.Errorf("company = %q, want %q", sig.Company, "Initech")
	}
}

func TestExtractSalary(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    *models.Salary
	}{
		{
			name: "range with period",
			body: "The salary is $90,000 - $120,000 per year.",
			want: &models.Salary{Min: 90000, Max: 120000, Period: "year"},
		},
		{
			name: "k suffix",
			body: "Compensation: 120k to 150k",
			want: &models.Salary{Min: 120000, Max: 150000, Period: "year"},
		},
		{
			name: "hourly",
			body: "Pays $45 - $60 per hour",
			want: &models.Salary{Min: 45, Max: 60, Period: "hour"},
		},
		{
			name: "no salary",
			body: "Nothing about money here.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := classify(t, models.ParsedEmail{Body: tt.body})
			if tt.want == nil {
				if sig.Salary != nil {
					t.Fatalf("salary = %+v, want nil", sig.Salary)
				}
				return
			}
			if sig.Salary == nil {
				t.Fatal("salary = nil, want value")
			}
			if *sig.Salary != *tt.want {
				t.Errorf("salary = %+v, want %+v", *sig.Salary, *tt.want)
			}
		})
	}
}

func TestExtractRequirements_CappedAndFiltered(t *testing.T) {
	body := `Requirements:
• 5+ years of Go experience
• Solid PostgreSQL knowledge
• ok
• Experience with message queues
• Strong communication skills
• Familiarity with Kubernetes
• Yet another long requirement here
Benefits: great ones`
	sig := classify(t, models.ParsedEmail{Body: "<pre>" + body + "</pre>"})

	if len(sig.Requirements) != 5 {
		t.Fatalf("got %d requirements, want 5 (capped): %v", len(sig.Requirements), sig.Requirements)
	}
	for _, r := range sig.Requirements {
		if len(r) <= 10 {
			t.Errorf("requirement %q too short, should have been filtered", r)
		}
	}
}

func TestExtractDeadline(t *testing.T) {
	sig := classify(t, models.ParsedEmail{Body: "Apply by January 15, 2026 to be considered."})
	if sig.ApplicationDeadline == nil {
		t.Fatal("deadline = nil, want parsed date")
	}
	if got := sig.ApplicationDeadline.Format("2006-01-02"); got != "2026-01-15" {
		t.Errorf("deadline = %s, want 2026-01-15", got)
	}
}

func TestExtractDeadline_InvalidDateDiscarded(t *testing.T) {
	sig := classify(t, models.ParsedEmail{Body: "Apply by 99/99/9999 sharp."})
	if sig.ApplicationDeadline != nil {
		t.Errorf("deadline = %v, want nil for invalid date", sig.ApplicationDeadline)
	}
}

func TestExtractJobURL_PrefersJobLinks(t *testing.T) {
	body := `<a href="https://example.com/unsubscribe">unsubscribe</a>
<a href="https://boards.greenhouse.io/acme/jobs/123">view job</a>`
	sig := classify(t, models.ParsedEmail{Body: body})
	if sig.JobURL != "https://boards.greenhouse.io/acme/jobs/123" {
		t.Errorf("jobUrl = %q, want greenhouse link", sig.JobURL)
	}
}

func TestExtractJobURL_FirstURLFallback(t *testing.T) {
	sig := classify(t, models.ParsedEmail{Body: `see https://example.com/page for details`})
	if sig.JobURL != "https://example.com/page" {
		t.Errorf("jobUrl = %q, want first url", sig.JobURL)
	}
}

func TestExtractPlatform(t *testing.T) {
	tests := []struct {
		name  string
		email models.ParsedEmail
		want  string
	}{
		{
			name:  "known board by name",
			email: models.ParsedEmail{Body: "You applied via LinkedIn Easy Apply."},
			want:  "LinkedIn",
		},
		{
			name:  "derived from url domain",
			email: models.ParsedEmail{Body: "details at https://jobs.acmehire.com/postings/7"},
			want:  "Acmehire",
		},
		{
			name:  "default",
			email: models.ParsedEmail{Body: "plain message"},
			want:  "Email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := classify(t, tt.email)
			if sig.Platform != tt.want {
				t.Errorf("platform = %q, want %q", sig.Platform, tt.want)
			}
		})
	}
}

func TestExtractLocation_RemoteKeyword(t *testing.T) {
	sig := classify(t, models.ParsedEmail{Body: "This position is fully remote."})
	if sig.Location != "Remote" {
		t.Errorf("location = %q, want %q", sig.Location, "Remote")
	}
}
