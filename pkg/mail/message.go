// Package mail fetches recent Gmail messages and reduces them to the plain
// summaries the sync workflow classifies.
package mail

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	gmail "google.golang.org/api/gmail/v1"
)

// MaxTextLen caps Message.Text in bytes.
const MaxTextLen = 50000

// Message is the summary of one Gmail message.
type Message struct {
	ID       string `json:"id" yaml:"id"`
	ThreadID string `json:"threadId" yaml:"thread_id"`
	From     string `json:"from" yaml:"from"`
	To       string `json:"to" yaml:"to"`
	Subject  string `json:"subject" yaml:"subject"`
	Date     string `json:"date" yaml:"date"`
	Snippet  string `json:"snippet" yaml:"snippet"`
	Text     string `json:"text" yaml:"text"`
}

// Summarize reduces a full-format Gmail message to a Message.
func Summarize(m *gmail.Message) Message {
	out := Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Snippet:  m.Snippet,
	}
	if m.Payload == nil {
		return out
	}
	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.From = h.Value
		case "to":
			out.To = h.Value
		case "subject":
			out.Subject = h.Value
		case "date":
			out.Date = h.Value
		}
	}
	out.Text = capText(ExtractText(m.Payload), MaxTextLen)
	return out
}

// ExtractText returns the best-effort plain text of a MIME payload: the
// text/plain parts joined, else the cleaned text/html parts.
func ExtractText(p *gmail.MessagePart) string {
	if p == nil {
		return ""
	}
	if len(p.Parts) == 0 {
		switch {
		case strings.Contains(p.MimeType, "text/plain"):
			return decodeBody(p.Body)
		case strings.Contains(p.MimeType, "text/html"):
			return CleanHTML(decodeBody(p.Body))
		}
		return ""
	}

	var plain, html []string
	walkParts(p, func(part *gmail.MessagePart) {
		switch {
		case strings.Contains(part.MimeType, "text/plain"):
			plain = append(plain, decodeBody(part.Body))
		case strings.Contains(part.MimeType, "text/html"):
			html = append(html, decodeBody(part.Body))
		}
	})
	if len(plain) != 0 {
		return strings.Join(plain, "\n")
	}
	if len(html) != 0 {
		return CleanHTML(strings.Join(html, "\n"))
	}
	return ""
}

// walkParts visits the leaf parts of p in document order.
func walkParts(p *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if p == nil {
		return
	}
	if len(p.Parts) == 0 {
		fn(p)
		return
	}
	for _, sub := range p.Parts {
		walkParts(sub, fn)
	}
}

func decodeBody(b *gmail.MessagePartBody) string {
	if b == nil || b.Data == "" {
		return ""
	}
	// Gmail uses base64url, sometimes without padding
	data, err := base64.URLEncoding.DecodeString(b.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(b.Data, "="))
		if err != nil {
			return ""
		}
	}
	return strings.ToValidUTF8(string(data), "")
}

var (
	styleRe   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)

	entities = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
)

// CleanHTML reduces html to its visible text on a single line.
func CleanHTML(html string) string {
	if html == "" {
		return ""
	}
	html = styleRe.ReplaceAllString(html, "")
	html = scriptRe.ReplaceAllString(html, "")
	html = commentRe.ReplaceAllString(html, "")
	html = tagRe.ReplaceAllString(html, " ")
	html = entities.Replace(html)
	html = spaceRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(html)
}

// capText cuts s to at most n bytes without splitting a rune.
func capText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// NewerThan appends a Gmail newer_than filter for days to query. Non
// positive days leave query unchanged.
func NewerThan(query string, days int) string {
	if days <= 0 {
		return strings.TrimSpace(query)
	}
	return strings.TrimSpace(fmt.Sprintf("%s newer_than:%dd", query, days))
}
