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

// Package htmltext converts HTML email bodies into plain text for pattern
// matching and for the derived markdown-ish body form.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// Strip returns the visible text of an HTML fragment. Script and style
// contents are dropped, block-ish boundaries become newlines, and runs of
// whitespace are collapsed. Input that is not HTML comes back (trimmed)
// unchanged, so callers can feed it plain text too.
func Strip(src string) string {
	if src == "" {
		return ""
	}

	tok := html.NewTokenizer(strings.NewReader(src))
	var sb strings.Builder
	skipDepth := 0

	for {
		tt := tok.Next()
		switch tt {
		case html.ErrorToken:
			return collapse(sb.String())
		case html.StartTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "script", "style", "head":
				skipDepth++
			case "br", "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "table":
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "script", "style", "head":
				if skipDepth > 0 {
					skipDepth--
				}
			case "p", "div", "tr", "li":
				sb.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			name, _ := tok.TagName()
			if string(name) == "br" {
				sb.WriteByte('\n')
			}
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(tok.Text())
			}
		}
	}
}

// collapse normalises whitespace: horizontal runs become a single space,
// blank-line runs a single newline.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
