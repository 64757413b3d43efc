package triage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/tests/testutil"
)

func extractorStub(raw string, err error) *stubCompleter {
	return &stubCompleter{respond: func(string) (string, error) {
		return raw, err
	}}
}

func TestExtractTasksParsesPlainJSON(t *testing.T) {
	s := testutil.NewTestStore(t)
	e := NewEnricher(s, extractorStub(
		`{"tasks": [{"task": "submit report", "deadline": "EOD"}]}`, nil,
	))

	set, err := e.ExtractTasks(context.Background(), "body")
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}
	if set.Failed() {
		t.Fatalf("unexpected failure: %s", set.Error)
	}
	if len(set.Tasks) != 1 || set.Tasks[0].Task != "submit report" {
		t.Errorf("tasks = %+v", set.Tasks)
	}
}

func TestExtractTasksStripsCodeFences(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n{\"tasks\": [{\"task\": \"call Bob\"}]}\n```"},
		{"bare fence", "```\n{\"tasks\": [{\"task\": \"call Bob\"}]}\n```"},
		{"unterminated", "```json\n{\"tasks\": [{\"task\": \"call Bob\"}]}"},
		{"surrounding whitespace", "\n\n  {\"tasks\": [{\"task\": \"call Bob\"}]}  \n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testutil.NewTestStore(t)
			e := NewEnricher(s, extractorStub(tc.raw, nil))

			set, err := e.ExtractTasks(context.Background(), "body")
			if err != nil {
				t.Fatalf("extracting: %v", err)
			}
			if set.Failed() {
				t.Fatalf("unexpected failure: %s", set.Error)
			}
			if len(set.Tasks) != 1 || set.Tasks[0].Task != "call Bob" {
				t.Errorf("tasks = %+v", set.Tasks)
			}
		})
	}
}

func TestExtractTasksEmptyListIsNotAFailure(t *testing.T) {
	s := testutil.NewTestStore(t)
	e := NewEnricher(s, extractorStub(`{"tasks": []}`, nil))

	set, err := e.ExtractTasks(context.Background(), "body")
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}
	if set.Failed() {
		t.Errorf("empty task list reported as failure: %s", set.Error)
	}
	if set.Tasks == nil {
		t.Error("tasks should decode to an empty slice, not nil")
	}
}

func TestExtractTasksRecordsParseFailure(t *testing.T) {
	s := testutil.NewTestStore(t)
	e := NewEnricher(s, extractorStub(
		"Sure! Here are the tasks I found: review the doc.", nil,
	))

	set, err := e.ExtractTasks(context.Background(), "body")
	if err != nil {
		t.Fatalf("parse failure must not propagate: %v", err)
	}
	if !set.Failed() {
		t.Fatal("expected a recorded failure")
	}
	if !strings.Contains(set.Error, "failed to parse tasks JSON") {
		t.Errorf("error = %q", set.Error)
	}
	if len(set.Tasks) != 0 {
		t.Errorf("tasks = %+v, want empty", set.Tasks)
	}
}

func TestExtractTasksRecordsCompletionFailure(t *testing.T) {
	s := testutil.NewTestStore(t)
	e := NewEnricher(s, extractorStub("", &llm.CompletionError{
		Attempts: 3,
		Err:      errors.New("upstream timeout"),
	}))

	set, err := e.ExtractTasks(context.Background(), "body")
	if err != nil {
		t.Fatalf("completion failure must not propagate: %v", err)
	}
	if !set.Failed() {
		t.Fatal("expected a recorded failure")
	}
	if !strings.Contains(set.Error, "completion failed") {
		t.Errorf("error = %q", set.Error)
	}
}

func TestExtractTasksWithoutEngine(t *testing.T) {
	s := testutil.NewTestStore(t)
	e := NewEnricher(s, nil)

	_, err := e.ExtractTasks(context.Background(), "body")
	if !errors.Is(err, llm.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	got := stripCodeFences("```json\n{\"tasks\": []}\n```")
	if got != `{"tasks": []}` {
		t.Errorf("got %q", got)
	}

	// Fence markers inside the payload are stripped as literals too;
	// this mirrors how the stored templates instruct the model, which
	// never produces nested fences.
	got = stripCodeFences("no fences at all")
	if got != "no fences at all" {
		t.Errorf("got %q", got)
	}
}
