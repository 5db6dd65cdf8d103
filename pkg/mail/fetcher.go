package mail

import (
	"context"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// maxPageSize is the largest page the Gmail list call accepts.
const maxPageSize = 500

// Fetcher returns up to limit messages matching query, newest first.
type Fetcher interface {
	FetchMessages(ctx context.Context, query string, limit int) ([]Message, error)
}

// GmailFetcher reads messages of the authenticated user.
type GmailFetcher struct {
	svc *gmail.UsersService
}

// NewGmailFetcher creates a fetcher. Callers pass option.WithHTTPClient with
// an OAuth client, see Auth.HTTPClient.
func NewGmailFetcher(ctx context.Context, opts ...option.ClientOption) (*GmailFetcher, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailFetcher{svc: svc.Users}, nil
}

func (f *GmailFetcher) FetchMessages(ctx context.Context, query string, limit int) ([]Message, error) {
	ids, err := f.listIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(ids))
	for _, id := range ids {
		m, err := f.svc.Messages.Get("me", id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", id, err)
		}
		out = append(out, Summarize(m))
	}
	return out, nil
}

func (f *GmailFetcher) listIDs(ctx context.Context, query string, limit int) ([]string, error) {
	var (
		ids       []string
		pageToken string
	)
	for limit <= 0 || len(ids) < limit {
		pageSize := int64(maxPageSize)
		if limit > 0 && int64(limit-len(ids)) < pageSize {
			pageSize = int64(limit - len(ids))
		}

		req := f.svc.Messages.List("me").Q(query).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages %q: %w", query, err)
		}
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// StaticFetcher serves a fixed set of messages; the demo command and tests
// use it in place of Gmail. Query terms are matched case-insensitively
// against subject and text; newer_than filters are ignored.
type StaticFetcher struct {
	Messages []Message
}

func (f *StaticFetcher) FetchMessages(ctx context.Context, query string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(t, ":") {
			terms = append(terms, t)
		}
	}

	var out []Message
	for _, m := range f.Messages {
		if limit > 0 && len(out) >= limit {
			break
		}
		if matchTerms(m, terms) {
			out = append(out, m)
		}
	}
	return out, nil
}

func matchTerms(m Message, terms []string) bool {
	hay := strings.ToLower(m.Subject + " " + m.Text)
	for _, t := range terms {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}

// SampleMessages is the built-in inbox of the demo command.
func SampleMessages() []Message {
	return []Message{
		{
			ID: "18c1a0001", ThreadID: "18c1a0001",
			From: "recruiting@acme.example", To: "me@example.com",
			Subject: "Interview invitation: Backend Engineer",
			Date:    "Mon, 6 Oct 2025 09:12:00 +0000",
			Snippet: "We'd like to schedule an interview",
			Text:    "Hi, thanks for applying to the Backend Engineer position. We'd like to schedule an interview next week.",
		},
		{
			ID: "18c1a0002", ThreadID: "18c1a0002",
			From: "no-reply@jobs.example", To: "me@example.com",
			Subject: "Your application was received",
			Date:    "Mon, 6 Oct 2025 11:40:00 +0000",
			Snippet: "Thank you for your application",
			Text:    "Thank you for your application to Platform Engineer at Globex. We will review it shortly.",
		},
		{
			ID: "18c1a0003", ThreadID: "18c1a0003",
			From: "newsletter@shop.example", To: "me@example.com",
			Subject: "Weekend sale: 30% off",
			Date:    "Tue, 7 Oct 2025 07:00:00 +0000",
			Snippet: "Don't miss our weekend deals",
			Text:    "Don't miss our weekend deals on shoes and jackets.",
		},
		{
			ID: "18c1a0004", ThreadID: "18c1a0004",
			From: "talent@initech.example", To: "me@example.com",
			Subject: "Offer letter",
			Date:    "Wed, 8 Oct 2025 15:25:00 +0000",
			Snippet: "We are happy to extend an offer",
			Text:    "We are happy to extend an offer for the SRE role. Please review the attached offer letter.",
		},
		{
			ID: "18c1a0005", ThreadID: "18c1a0005",
			From: "hr@umbrella.example", To: "me@example.com",
			Subject: "Update on your application",
			Date:    "Thu, 9 Oct 2025 10:05:00 +0000",
			Snippet: "Unfortunately we decided",
			Text:    "Unfortunately we decided to move forward with other candidates for the Data Engineer role.",
		},
	}
}
