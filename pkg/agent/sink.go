package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is the tracking entry created for a relevant message.
type Task struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Label     string    `json:"label" yaml:"label"`
	MessageID string    `json:"message_id" yaml:"message_id"`
	From      string    `json:"from" yaml:"from"`
	Date      string    `json:"date,omitempty" yaml:"date,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Sink stores tasks and returns the stored id.
type Sink interface {
	CreateTask(ctx context.Context, t Task) (string, error)
}

// JSONLSink appends one JSON object per task to w.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

func (s *JSONLSink) CreateTask(ctx context.Context, t Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(t); err != nil {
		return "", fmt.Errorf("write task: %w", err)
	}
	return t.ID, nil
}
