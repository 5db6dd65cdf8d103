package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// fakeGmail serves the two Gmail endpoints the fetcher uses, two ids per page.
type fakeGmail struct {
	mu      sync.Mutex
	ids     []string
	queries []string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/gmail/v1/users/me/messages"
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == prefix:
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		f.mu.Unlock()

		start := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			fmt.Sscanf(tok, "%d", &start)
		}
		end := start + 2
		if end > len(f.ids) {
			end = len(f.ids)
		}
		res := gmail.ListMessagesResponse{}
		for _, id := range f.ids[start:end] {
			res.Messages = append(res.Messages, &gmail.Message{Id: id, ThreadId: id})
		}
		if end < len(f.ids) {
			res.NextPageToken = fmt.Sprint(end)
		}
		json.NewEncoder(w).Encode(res)

	case strings.HasPrefix(r.URL.Path, prefix+"/"):
		id := strings.TrimPrefix(r.URL.Path, prefix+"/")
		if id == "missing" {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(gmail.Message{
			Id:       id,
			ThreadId: "t-" + id,
			Snippet:  "snippet " + id,
			Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Headers:  []*gmail.MessagePartHeader{{Name: "Subject", Value: "subject " + id}},
				Body:     body("text " + id),
			},
		})

	default:
		http.NotFound(w, r)
	}
}

func newTestFetcher(t *testing.T, fake *fakeGmail) *GmailFetcher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	f, err := NewGmailFetcher(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return f
}

func TestGmailFetcher_FetchMessages(t *testing.T) {
	fake := &fakeGmail{ids: []string{"a", "b", "c", "d", "e"}}
	f := newTestFetcher(t, fake)

	msgs, err := f.FetchMessages(context.Background(), "newer_than:1d", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "t-a", msgs[0].ThreadID)
	assert.Equal(t, "subject c", msgs[2].Subject)
	assert.Equal(t, "text c", msgs[2].Text)
	assert.Equal(t, []string{"newer_than:1d", "newer_than:1d"}, fake.queries)
}

func TestGmailFetcher_GetError(t *testing.T) {
	f := newTestFetcher(t, &fakeGmail{ids: []string{"a", "missing"}})

	_, err := f.FetchMessages(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get message missing")
}

func TestStaticFetcher(t *testing.T) {
	f := &StaticFetcher{Messages: SampleMessages()}

	all, err := f.FetchMessages(context.Background(), "newer_than:1d", 0)
	require.NoError(t, err)
	assert.Len(t, all, len(SampleMessages()))

	limited, err := f.FetchMessages(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	offers, err := f.FetchMessages(context.Background(), "OFFER newer_than:7d", 0)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Offer letter", offers[0].Subject)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FetchMessages(ctx, "", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
