package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FengmingYu-tech/JobSyncd/pkg/mail"
	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

func newWorkspace() *workspace.Workspace {
	return workspace.New(workspace.Options{PollInterval: time.Millisecond})
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	want := map[string]string{
		"18c1a0001": LabelInterview,
		"18c1a0002": LabelApplication,
		"18c1a0003": LabelOther,
		"18c1a0004": LabelOffer,
		"18c1a0005": LabelRejection,
	}
	for _, m := range mail.SampleMessages() {
		got, err := c.Classify(context.Background(), m)
		require.NoError(t, err)
		assert.Equal(t, want[m.ID], got.Label, m.Subject)
		assert.Equal(t, want[m.ID] != LabelOther, got.Relevant())
	}
}

func TestJSONLSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONLSink(&buf)

	id1, err := s.CreateTask(context.Background(), Task{Title: "a", Label: LabelOffer})
	require.NoError(t, err)
	id2, err := s.CreateTask(context.Background(), Task{ID: "fixed", Title: "b"})
	require.NoError(t, err)
	assert.NotEmpty(t, id1)
	assert.Equal(t, "fixed", id2)

	var tasks []Task
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var task Task
		require.NoError(t, json.Unmarshal(sc.Bytes(), &task))
		tasks = append(tasks, task)
	}
	require.Len(t, tasks, 2)
	assert.Equal(t, id1, tasks[0].ID)
	assert.False(t, tasks[0].CreatedAt.IsZero())
}

func TestWorkflow_Run(t *testing.T) {
	ws := newWorkspace()
	var buf bytes.Buffer
	wf := New(ws, &mail.StaticFetcher{Messages: mail.SampleMessages()}, NewKeywordClassifier(), NewJSONLSink(&buf), Options{})

	res, err := wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Fetched)
	assert.Equal(t, 4, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, res.TaskIDs, 4)

	snap := ws.Snapshot()
	assert.Equal(t, "completed", snap.Variables["status"].Value)
	assert.Equal(t, 5, snap.Variables["emails_count"].Value)
	assert.Equal(t, 4, snap.Variables["tasks_created"].Value)
	assert.Equal(t, res.TaskIDs[3], snap.Variables["task_result"].Value)
	assert.Equal(t, res, snap.Variables["result"].Value)
	assert.Contains(t, snap.Variables, "fetchMessages_result")
	assert.Contains(t, snap.Variables, "classify_result")
	assert.Contains(t, snap.Variables, "createTask_result")
	assert.Equal(t, 0, snap.Depth())
}

func TestWorkflow_BreakpointOnFetch(t *testing.T) {
	ws := newWorkspace()
	ws.AddBreakpoint("fetchMessages", nil)
	var buf bytes.Buffer
	wf := New(ws, &mail.StaticFetcher{Messages: mail.SampleMessages()}, NewKeywordClassifier(), NewJSONLSink(&buf), Options{Limit: 2})

	done := make(chan error, 1)
	go func() {
		_, err := wf.Run(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return ws.State() == workspace.StatePaused }, 2*time.Second, 5*time.Millisecond)
	snap := ws.Snapshot()
	assert.Equal(t, "fetchMessages", snap.CurrentFunction)
	assert.Equal(t, 2, snap.Depth())
	assert.Equal(t, "fetching", snap.Variables["status"].Value)
	_, fetched := snap.Variables["emails_count"]
	assert.False(t, fetched)

	ws.Resume()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("workflow did not finish")
	}
	v, _ := ws.Variable("emails_count")
	assert.Equal(t, 2, v.Value)
}

type failingFetcher struct{ err error }

func (f failingFetcher) FetchMessages(context.Context, string, int) ([]mail.Message, error) {
	return nil, f.err
}

func TestWorkflow_FetchError(t *testing.T) {
	ws := newWorkspace()
	boom := errors.New("gmail unavailable")
	wf := New(ws, failingFetcher{boom}, NewKeywordClassifier(), NewJSONLSink(&bytes.Buffer{}), Options{})

	_, err := wf.Run(context.Background())
	assert.Same(t, boom, err)

	v, _ := ws.Variable("status")
	assert.Equal(t, "failed", v.Value)
	assert.Equal(t, 0, ws.Depth())

	var errs int
	for _, e := range ws.Snapshot().Log {
		if e.Kind == workspace.KindError {
			errs++
		}
	}
	assert.Equal(t, 2, errs, "fetchMessages and dailySync each log the failure")
}
