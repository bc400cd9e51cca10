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

package htmltext

import (
	"strings"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text passes through",
			in:   "hello world",
			want: "hello world",
		},
		{
			name: "tags removed",
			in:   "<p>Thank you for <b>applying</b>.</p>",
			want: "Thank you for applying.",
		},
		{
			name: "script dropped",
			in:   "<div>visible</div><script>var x = 'hidden';</script>",
			want: "visible",
		},
		{
			name: "style dropped",
			in:   "<style>.a{color:red}</style><span>kept</span>",
			want: "kept",
		},
		{
			name: "br becomes newline",
			in:   "line one<br/>line two",
			want: "line one\nline two",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrip_CollapsesWhitespace(t *testing.T) {
	got := Strip("<div>  lots   of \t space  </div>\n\n\n<div>next</div>")
	if strings.Contains(got, "  ") {
		t.Errorf("output still contains double spaces: %q", got)
	}
	if strings.Contains(got, "\n\n") {
		t.Errorf("output still contains blank lines: %q", got)
	}
}
