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

// Package mailbox retrieves raw messages from Gmail. It is the transport
// collaborator: OAuth token management lives here, message semantics do not.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client fetches raw messages for the authorised mailbox.
type Client struct {
	svc *gmail.Service
}

// NewClient creates a Gmail client from a credentials file and a previously
// obtained token file. Token acquisition is an offline setup step; a missing
// or stale token is a configuration error, not something the service can
// recover interactively.
func NewClient(ctx context.Context, credentialsPath, tokenPath string) (*Client, error) {
	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials %s: %w", credentialsPath, err)
	}

	oauthCfg, err := google.ConfigFromJSON(creds, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}

	token, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("load gmail token %s: %w", tokenPath, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &Client{svc: svc}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return token, nil
}

// ListMessages returns up to maxResults full messages matching the Gmail
// search query (e.g. "in:inbox newer_than:2d"), newest first. Messages that
// fail to fetch individually are logged and skipped.
func (c *Client) ListMessages(ctx context.Context, query string, maxResults int64) ([]*gmail.Message, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	list, err := c.svc.Users.Messages.List("me").
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]*gmail.Message, 0, len(list.Messages))
	for _, stub := range list.Messages {
		full, err := c.svc.Users.Messages.Get("me", stub.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			slog.Warn("fetch message failed",
				"message_id", stub.Id,
				"error", err,
			)
			continue
		}
		messages = append(messages, full)
	}

	return messages, nil
}
