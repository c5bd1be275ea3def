// Copyright 2026 Takumi Koide
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


// Package gmail ingests mail-derived transcripts from a Gmail mailbox.
// Each matching message becomes one document: the message body plus any
// plain-text attachments form the raw text, and an attachment whose name
// matches the summary pattern is lifted into the document's summary field.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/tkoide/corpora/ingest"
	"github.com/tkoide/corpora/ingest/htmltext"
)

// SourceType is the natural-key namespace for Gmail messages.
const SourceType = "gmail"

// Config holds configuration for the Gmail source.
type Config struct {
	// Query is the Gmail search query selecting messages to ingest.
	// Example: `from:no-reply@plaud.ai subject:"Plaud-AutoFlow" newer_than:30d`
	Query string

	// TokenFile is the path to an OAuth2 token JSON file with
	// gmail.readonly scope.
	TokenFile string

	// MaxResults caps how many messages one pass fetches. Default: 50.
	MaxResults int64

	// SummaryPattern marks the attachment holding the source-supplied
	// summary; an attachment whose filename contains it becomes
	// SummaryText instead of being folded into the raw text.
	// Default: "要約".
	SummaryPattern string

	// PoolSize is the number of concurrent message fetches. Default: 4.
	PoolSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Query:          `from:no-reply@plaud.ai subject:"Plaud-AutoFlow" newer_than:30d`,
		TokenFile:      "token.json",
		MaxResults:     50,
		SummaryPattern: "要約",
		PoolSize:       4,
	}
}

// Source pulls messages from a Gmail mailbox.
type Source struct {
	config *Config
	svc    *gmailapi.Service
	logger *slog.Logger
}

var _ ingest.Source = (*Source)(nil)

// NewSource creates a Gmail source.
func NewSource(config *Config) *Source {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 50
	}
	if config.SummaryPattern == "" {
		config.SummaryPattern = "要約"
	}
	if config.PoolSize < 1 {
		config.PoolSize = 4
	}

	return &Source{
		config: config,
		logger: slog.Default().With("component", "gmail-source"),
	}
}

// Name identifies the source.
func (s *Source) Name() string {
	return SourceType
}

// Fetch lists messages matching the configured query and fetches each in
// full, fanning message fetches out over a worker pool. One message failing
// to download is a per-item failure, not a fetch failure.
func (s *Source) Fetch(ctx context.Context) ([]ingest.Result, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	listed, err := svc.Users.Messages.List("me").
		Q(s.config.Query).
		MaxResults(s.config.MaxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	s.logger.Info("listed messages", "query", s.config.Query, "hits", len(listed.Messages))

	pool, err := ants.NewPool(s.config.PoolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]ingest.Result, len(listed.Messages))
	var wg sync.WaitGroup
	for i, ref := range listed.Messages {
		wg.Add(1)
		id := ref.Id
		slot := &results[i]
		if err := pool.Submit(func() {
			defer wg.Done()
			*slot = s.fetchMessage(ctx, svc, id)
		}); err != nil {
			wg.Done()
			*slot = ingest.Result{Err: fmt.Errorf("message %s: %w", id, err)}
		}
	}
	wg.Wait()

	return results, nil
}

// service lazily builds the Gmail API client from the token file.
func (s *Source) service(ctx context.Context) (*gmailapi.Service, error) {
	if s.svc != nil {
		return s.svc, nil
	}

	data, err := os.ReadFile(s.config.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	s.svc = svc
	return svc, nil
}

// fetchMessage downloads one message in full and converts it to an item.
func (s *Source) fetchMessage(ctx context.Context, svc *gmailapi.Service, id string) ingest.Result {
	full, err := svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return ingest.Result{Err: fmt.Errorf("message %s: %w", id, err)}
	}

	payload := full.Payload
	subject := headerValue(payload, "Subject")
	from := headerValue(payload, "From")
	to := headerValue(payload, "To")

	item := &ingest.Item{
		SourceType: SourceType,
		SourceID:   full.Id,
		Title:      subject,
		Meta: map[string]string{
			"from":   from,
			"to":     to,
			"thread": full.ThreadId,
		},
	}

	if date := headerValue(payload, "Date"); date != "" {
		if recorded, err := mail.ParseDate(date); err == nil {
			item.RecordedAt = recorded.UTC()
		}
	}

	bodyText := extractBodyText(payload)

	attachments, summary, err := s.fetchTextAttachments(ctx, svc, full.Id, payload)
	if err != nil {
		return ingest.Result{Err: fmt.Errorf("message %s: %w", id, err)}
	}
	item.SummaryText = summary

	sections := []string{}
	if bodyText != "" {
		sections = append(sections, bodyText)
	}
	var names []string
	for _, att := range attachments {
		names = append(names, att.filename)
		if att.text != "" {
			sections = append(sections, fmt.Sprintf("--- attachment: %s ---\n%s", att.filename, att.text))
		}
	}
	item.RawText = strings.Join(sections, "\n\n")
	if len(names) > 0 {
		item.Meta["attachments"] = strings.Join(names, ",")
	}

	return ingest.Result{Item: item}
}

type attachment struct {
	filename string
	text     string
}

// fetchTextAttachments downloads every .txt attachment. The one matching
// the summary pattern is returned separately; the rest are folded into the
// raw text by the caller.
func (s *Source) fetchTextAttachments(ctx context.Context, svc *gmailapi.Service, msgID string, payload *gmailapi.MessagePart) ([]attachment, string, error) {
	var attachments []attachment
	summary := ""

	for _, part := range walkParts(payload) {
		filename := strings.TrimSpace(part.Filename)
		if filename == "" || !strings.HasSuffix(strings.ToLower(filename), ".txt") {
			continue
		}
		if part.Body == nil || part.Body.AttachmentId == "" {
			continue
		}

		att, err := svc.Users.Messages.Attachments.Get("me", msgID, part.Body.AttachmentId).
			Context(ctx).Do()
		if err != nil {
			return nil, "", fmt.Errorf("attachment %s: %w", filename, err)
		}

		text := strings.TrimSpace(decodeBase64URL(att.Data))
		if strings.Contains(filename, s.config.SummaryPattern) {
			summary = text
			attachments = append(attachments, attachment{filename: filename})
		} else {
			attachments = append(attachments, attachment{filename: filename, text: text})
		}
	}

	return attachments, summary, nil
}

// walkParts flattens a message part tree.
func walkParts(part *gmailapi.MessagePart) []*gmailapi.MessagePart {
	if part == nil {
		return nil
	}
	parts := []*gmailapi.MessagePart{part}
	for _, p := range part.Parts {
		parts = append(parts, walkParts(p)...)
	}
	return parts
}

// headerValue finds a header by case-insensitive name.
func headerValue(payload *gmailapi.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBodyText pulls the message body: text/plain parts win, text/html
// parts are converted as a fallback.
func extractBodyText(payload *gmailapi.MessagePart) string {
	var plain, html []string

	for _, part := range walkParts(payload) {
		if part.Body == nil || part.Body.Data == "" {
			continue
		}
		switch strings.ToLower(part.MimeType) {
		case "text/plain":
			if text := strings.TrimSpace(decodeBase64URL(part.Body.Data)); text != "" {
				plain = append(plain, text)
			}
		case "text/html":
			text := strings.TrimSpace(htmltext.Strip(decodeBase64URL(part.Body.Data)))
			if text != "" {
				html = append(html, text)
			}
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n\n")
	}
	return strings.Join(html, "\n\n")
}

// decodeBase64URL decodes Gmail's base64url payloads, tolerating both
// padded and unpadded forms.
func decodeBase64URL(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).
		DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}
