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

package mail

import (
	"encoding/base64"
	"strings"
	"testing"

	"google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestDecode_NilMessage(t *testing.T) {
	email := Decode(nil)
	if email.Subject != "Error" {
		t.Errorf("subject = %q, want %q", email.Subject, "Error")
	}
	if email.Labels == nil {
		t.Error("labels should be non-nil on stub")
	}
	if email.HasAttachments {
		t.Error("stub should not report attachments")
	}
}

func TestDecode_NilPayload(t *testing.T) {
	email := Decode(&gmail.Message{Id: "m1"})
	if email.Subject != "Error" {
		t.Errorf("subject = %q, want %q", email.Subject, "Error")
	}
	if email.ID != "m1" {
		t.Errorf("id = %q, want %q", email.ID, "m1")
	}
}

func TestDecode_HeadersCaseInsensitive(t *testing.T) {
	msg := &gmail.Message{
		Id: "m1",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "SUBJECT", Value: "Hello"},
				{Name: "From", Value: "a@b.com"},
				{Name: "to", Value: "c@d.com"},
			},
		},
	}
	email := Decode(msg)
	if email.Subject != "Hello" {
		t.Errorf("subject = %q, want %q", email.Subject, "Hello")
	}
	if email.From != "a@b.com" {
		t.Errorf("from = %q, want %q", email.From, "a@b.com")
	}
	if email.To != "c@d.com" {
		t.Errorf("to = %q, want %q", email.To, "c@d.com")
	}
	if email.Date != "" {
		t.Errorf("missing date header should yield empty string, got %q", email.Date)
	}
}

func TestDecode_PrefersHTMLOverPlain(t *testing.T) {
	msg := &gmail.Message{
		Id: "m1",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("plain version")}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>html version</p>")}},
			},
		},
	}
	email := Decode(msg)
	if email.Body != "<p>html version</p>" {
		t.Errorf("body = %q, want html part", email.Body)
	}
	if !strings.Contains(email.BodyMarkdown, "html version") {
		t.Errorf("bodyMarkdown = %q, want plain text of html part", email.BodyMarkdown)
	}
}

func TestDecode_PlainFallbackWrappedInPre(t *testing.T) {
	msg := &gmail.Message{
		Id: "m1",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: b64("just text")},
		},
	}
	email := Decode(msg)
	if email.Body != "<pre>just text</pre>" {
		t.Errorf("body = %q, want pre-wrapped plain text", email.Body)
	}
}

func TestDecode_RecursesIntoNestedParts(t *testing.T) {
	msg := &gmail.Message{
		Id: "m1",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<b>nested</b>")}},
					},
				},
			},
		},
	}
	email := Decode(msg)
	if email.Body != "<b>nested</b>" {
		t.Errorf("body = %q, want nested html part", email.Body)
	}
}

func TestDecode_MalformedBase64YieldsStub(t *testing.T) {
	msg := &gmail.Message{
		Id: "m1",
		Payload: &gmail.MessagePart{
			MimeType: "text/html",
			Headers:  []*gmail.MessagePartHeader{{Name: "Subject", Value: "real subject"}},
			Body:     &gmail.MessagePartBody{Data: "!!not base64!!"},
		},
	}
	email := Decode(msg)
	if email.Subject != "Error" {
		t.Errorf("subject = %q, want stub %q", email.Subject, "Error")
	}
	if email.Body != "" {
		t.Errorf("stub body = %q, want empty", email.Body)
	}
}

func TestDecode_AttachmentDetection(t *testing.T) {
	msg := &gmail.Message{
		Id: "m1",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("hi")}},
				{
					MimeType: "multipart/mixed",
					Parts: []*gmail.MessagePart{
						{MimeType: "application/pdf", Filename: "resume.pdf"},
					},
				},
			},
		},
	}
	email := Decode(msg)
	if !email.HasAttachments {
		t.Error("expected hasAttachments = true for nested filename part")
	}
}

func TestDecode_UnreadLabel(t *testing.T) {
	msg := &gmail.Message{
		Id:       "m1",
		LabelIds: []string{"INBOX", "UNREAD"},
		Payload:  &gmail.MessagePart{},
	}
	email := Decode(msg)
	if !email.IsUnread {
		t.Error("expected isUnread = true")
	}
}

func TestDecodeAll_OneOutputPerInput(t *testing.T) {
	msgs := []*gmail.Message{nil, {Id: "a", Payload: &gmail.MessagePart{}}, nil}
	emails := DecodeAll(msgs)
	if len(emails) != len(msgs) {
		t.Fatalf("got %d emails, want %d", len(emails), len(msgs))
	}
}
