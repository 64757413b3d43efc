package triage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/store"
	"github.com/nhle/email-agent/tests/testutil"
)

// stubCompleter routes prompts to canned handlers and records every call.
type stubCompleter struct {
	respond func(prompt string) (string, error)
	calls   int
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.respond(prompt)
}

// happyCompleter answers the default templates the way a cooperative
// model would.
func happyCompleter() *stubCompleter {
	return &stubCompleter{respond: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "email classifier"):
			return "Important", nil
		case strings.Contains(prompt, "task extractor"):
			return `{"tasks": [{"task": "review the plan", "deadline": "Friday"}]}`, nil
		default:
			return "OK", nil
		}
	}}
}

func seedInbox(t *testing.T, s store.Store, emails ...model.Email) {
	t.Helper()
	if len(emails) == 0 {
		emails = []model.Email{
			{
				ID:        "e1",
				Sender:    "Alice",
				Subject:   "Q3 planning",
				Body:      "Please review the plan by Friday.",
				Timestamp: "2026-08-20T09:15:00",
			},
			{
				ID:        "e2",
				Sender:    "Digest",
				Subject:   "Weekly digest",
				Body:      "Top stories.",
				Timestamp: "2026-08-21T07:00:00",
			},
		}
	}
	if _, err := s.InsertEmails(context.Background(), emails); err != nil {
		t.Fatalf("seeding emails: %v", err)
	}
}

func TestEnrichAllFillsCategoryAndTasks(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedInbox(t, s)

	completer := happyCompleter()
	e := NewEnricher(s, completer)

	summary, err := e.EnrichAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("enriching: %v", err)
	}
	if summary.Total != 2 || summary.Categorized != 2 || summary.Extracted != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Failed != 0 {
		t.Errorf("failed = %d, want 0", summary.Failed)
	}

	email, err := s.GetEmailByID(context.Background(), "e1")
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if email.Category != "Important" {
		t.Errorf("category = %q", email.Category)
	}

	set, err := model.DecodeActionItemSet(email.ActionItems)
	if err != nil {
		t.Fatalf("decoding action items: %v", err)
	}
	if len(set.Tasks) != 1 || set.Tasks[0].Deadline != "Friday" {
		t.Errorf("tasks = %+v", set.Tasks)
	}
}

func TestEnrichAllIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedInbox(t, s)

	completer := happyCompleter()
	e := NewEnricher(s, completer)
	ctx := context.Background()

	if _, err := e.EnrichAll(ctx, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstCalls := completer.calls

	summary, err := e.EnrichAll(ctx, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if completer.calls != firstCalls {
		t.Errorf("second run made %d model calls, want 0",
			completer.calls-firstCalls)
	}
	if summary.Categorized != 0 || summary.Extracted != 0 {
		t.Errorf("second run summary = %+v", summary)
	}
}

func TestEnrichAllContinuesPastCompletionFailure(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedInbox(t, s)

	// Categorization fails for the planning email only; extraction
	// always succeeds.
	completer := &stubCompleter{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "email classifier") {
			if strings.Contains(prompt, "Q3 planning") {
				return "", &llm.CompletionError{
					Attempts: 3,
					Err:      errors.New("rate limited"),
				}
			}
			return "Newsletter", nil
		}
		return `{"tasks": []}`, nil
	}}
	e := NewEnricher(s, completer)
	ctx := context.Background()

	var reported []Progress
	summary, err := e.EnrichAll(ctx, func(p Progress) {
		reported = append(reported, p)
	})
	if err != nil {
		t.Fatalf("run should survive a per-email failure: %v", err)
	}
	if summary.Failed != 1 || summary.Categorized != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Extracted != 2 {
		t.Errorf("extraction skipped for failed email: %+v", summary)
	}

	failures := 0
	for _, p := range reported {
		if p.Err != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("progress reported %d failures, want 1", failures)
	}

	// The failed email stays uncategorized and is retried next run.
	email, err := s.GetEmailByID(ctx, "e1")
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if email.Categorized() {
		t.Errorf("failed email got category %q", email.Category)
	}

	completer.respond = func(prompt string) (string, error) {
		if strings.Contains(prompt, "email classifier") {
			return "To-Do", nil
		}
		return `{"tasks": []}`, nil
	}

	summary, err = e.EnrichAll(ctx, nil)
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if summary.Categorized != 1 {
		t.Errorf("retry summary = %+v", summary)
	}

	email, _ = s.GetEmailByID(ctx, "e1")
	if email.Category != "To-Do" {
		t.Errorf("category after retry = %q", email.Category)
	}
}

func TestEnrichAllAbortsWithoutEngine(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedInbox(t, s)

	e := NewEnricher(s, nil)

	_, err := e.EnrichAll(context.Background(), nil)
	if !errors.Is(err, llm.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestEnrichAllAbortsOnUnboundPlaceholder(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedInbox(t, s)
	ctx := context.Background()

	broken := "Categorize {subject} for {recipient}"
	if err := s.SetPromptTemplate(ctx, model.PromptCategorize, broken); err != nil {
		t.Fatalf("setting template: %v", err)
	}

	e := NewEnricher(s, happyCompleter())

	_, err := e.EnrichAll(ctx, nil)
	var mv *llm.MissingVariableError
	if !errors.As(err, &mv) {
		t.Fatalf("expected MissingVariableError, got %v", err)
	}
	if mv.Name != "recipient" {
		t.Errorf("missing variable = %q", mv.Name)
	}
}

func TestEnrichAllUsesEditedTemplate(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedInbox(t, s)
	ctx := context.Background()

	edited := "Pick Urgent or Routine for: {subject} {body}"
	if err := s.SetPromptTemplate(ctx, model.PromptCategorize, edited); err != nil {
		t.Fatalf("setting template: %v", err)
	}

	completer := &stubCompleter{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Pick Urgent or Routine") {
			return "Urgent", nil
		}
		return `{"tasks": []}`, nil
	}}
	e := NewEnricher(s, completer)

	if _, err := e.EnrichAll(ctx, nil); err != nil {
		t.Fatalf("enriching: %v", err)
	}

	email, err := s.GetEmailByID(ctx, "e1")
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if email.Category != "Urgent" {
		t.Errorf("category = %q, want the edited template's value", email.Category)
	}
}

func TestCategorizeStoresOutputVerbatim(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedInbox(t, s)

	// The model ignores the instruction and answers off-list. The value
	// is persisted as-is; no enum is enforced.
	completer := &stubCompleter{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "email classifier") {
			return "Possibly Spam (low confidence)", nil
		}
		return `{"tasks": []}`, nil
	}}
	e := NewEnricher(s, completer)
	ctx := context.Background()

	if _, err := e.EnrichAll(ctx, nil); err != nil {
		t.Fatalf("enriching: %v", err)
	}

	email, err := s.GetEmailByID(ctx, "e1")
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if email.Category != "Possibly Spam (low confidence)" {
		t.Errorf("category = %q", email.Category)
	}
}

func TestCategorizeEmptyOutputLeavesEmailUnset(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedInbox(t, s)

	completer := &stubCompleter{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "email classifier") {
			return "", nil
		}
		return `{"tasks": []}`, nil
	}}
	e := NewEnricher(s, completer)
	ctx := context.Background()

	summary, err := e.EnrichAll(ctx, nil)
	if err != nil {
		t.Fatalf("empty output should not abort the run: %v", err)
	}
	if summary.Failed != 2 {
		t.Errorf("failed = %d, want 2", summary.Failed)
	}

	email, _ := s.GetEmailByID(ctx, "e1")
	if email.Categorized() {
		t.Errorf("empty output was persisted as %q", email.Category)
	}
}
