// Package agent is the mail to task sync workflow. Every stage runs through
// the debug workspace so it can be paused, stepped and inspected.
package agent

import (
	"context"
	"fmt"

	"github.com/FengmingYu-tech/JobSyncd/pkg/mail"
	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

const (
	DefaultQuery = "newer_than:1d"
	DefaultLimit = 20
)

// Options tunes one sync run.
type Options struct {
	Query string
	Limit int
}

// Result summarizes one run.
type Result struct {
	Fetched int      `json:"fetched" yaml:"fetched"`
	Created int      `json:"created" yaml:"created"`
	Skipped int      `json:"skipped" yaml:"skipped"`
	TaskIDs []string `json:"task_ids,omitempty" yaml:"task_ids,omitempty"`
}

func (r Result) String() string {
	return fmt.Sprintf("fetched %d, created %d, skipped %d", r.Fetched, r.Created, r.Skipped)
}

// Workflow fetches recent mail, classifies each message and creates a task
// for every relevant one.
type Workflow struct {
	ws   *workspace.Workspace
	opts Options

	run      func(context.Context) (Result, error)
	fetch    func(context.Context, string, int) ([]mail.Message, error)
	classify func(context.Context, mail.Message) (Classification, error)
	create   func(context.Context, Task) (string, error)
}

func New(ws *workspace.Workspace, f mail.Fetcher, c Classifier, s Sink, opts Options) *Workflow {
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	wf := &Workflow{ws: ws, opts: opts}
	wf.fetch = workspace.Instrument2(ws, "fetchMessages", f.FetchMessages)
	wf.classify = workspace.Instrument1(ws, "classify", c.Classify)
	wf.create = workspace.Instrument1(ws, "createTask", s.CreateTask)
	wf.run = workspace.Instrument(ws, "dailySync", wf.sync)
	return wf
}

// Run executes one sync. Errors from any stage end the run and are
// returned unchanged.
func (wf *Workflow) Run(ctx context.Context) (Result, error) {
	wf.ws.UpdateVariable("status", "starting", "run")
	res, err := wf.run(ctx)
	if err != nil {
		wf.ws.UpdateVariable("status", "failed", "run")
		return res, err
	}
	wf.ws.UpdateVariable("result", res, "run")
	wf.ws.UpdateVariable("status", "completed", "run")
	wf.ws.Log("✅ sync completed: %s", res)
	return res, nil
}

func (wf *Workflow) sync(ctx context.Context) (Result, error) {
	var res Result

	wf.ws.UpdateVariable("status", "fetching", "dailySync")
	msgs, err := wf.fetch(ctx, wf.opts.Query, wf.opts.Limit)
	if err != nil {
		return res, err
	}
	res.Fetched = len(msgs)
	wf.ws.UpdateVariable("emails_count", len(msgs), "dailySync")

	wf.ws.UpdateVariable("status", "classifying", "dailySync")
	for i, m := range msgs {
		wf.ws.UpdateVariable("current_email", m.Subject, "dailySync")

		c, err := wf.classify(ctx, m)
		if err != nil {
			return res, err
		}
		if !c.Relevant() {
			res.Skipped++
			continue
		}

		id, err := wf.create(ctx, Task{
			Title:     m.Subject,
			Label:     c.Label,
			MessageID: m.ID,
			From:      m.From,
			Date:      m.Date,
		})
		if err != nil {
			return res, err
		}
		res.Created++
		res.TaskIDs = append(res.TaskIDs, id)
		wf.ws.UpdateVariable("task_result", id, "dailySync")
		wf.ws.UpdateVariable("tasks_created", res.Created, "dailySync")
		wf.ws.Log("processed %d/%d: %s", i+1, len(msgs), m.Subject)
	}
	return res, nil
}
