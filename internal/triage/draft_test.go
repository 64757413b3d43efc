package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/tests/testutil"
)

func TestGenerateDraftSavesReply(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	email := model.Email{
		ID:        "e1",
		Sender:    "Alice",
		Subject:   "Q3 planning",
		Body:      "Please review the plan by Friday.",
		Timestamp: "2026-08-20T09:15:00",
	}
	if _, err := s.InsertEmails(ctx, []model.Email{email}); err != nil {
		t.Fatalf("seeding email: %v", err)
	}

	completer := &stubCompleter{respond: func(string) (string, error) {
		return "Thanks, I will review it by Friday.", nil
	}}
	e := NewEnricher(s, completer)

	draft, err := e.GenerateDraft(ctx, email)
	if err != nil {
		t.Fatalf("generating draft: %v", err)
	}
	if draft.Subject != "Re: Q3 planning" {
		t.Errorf("subject = %q", draft.Subject)
	}
	if draft.Status != model.DraftStatusSaved {
		t.Errorf("status = %q", draft.Status)
	}
	if draft.ID == "" {
		t.Error("draft has no ID")
	}

	// A second generation appends rather than replaces.
	if _, err := e.GenerateDraft(ctx, email); err != nil {
		t.Fatalf("generating second draft: %v", err)
	}

	drafts, err := s.GetDraftsForEmail(ctx, "e1")
	if err != nil {
		t.Fatalf("getting drafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Errorf("expected 2 drafts, got %d", len(drafts))
	}
}

func TestGenerateDraftKeepsExistingReplyPrefix(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	email := model.Email{
		ID:      "e1",
		Subject: "Re: Q3 planning",
		Body:    "Any update?",
	}
	if _, err := s.InsertEmails(ctx, []model.Email{email}); err != nil {
		t.Fatalf("seeding email: %v", err)
	}

	e := NewEnricher(s, &stubCompleter{respond: func(string) (string, error) {
		return "On it.", nil
	}})

	draft, err := e.GenerateDraft(ctx, email)
	if err != nil {
		t.Fatalf("generating draft: %v", err)
	}
	if draft.Subject != "Re: Q3 planning" {
		t.Errorf("subject = %q, want single Re: prefix", draft.Subject)
	}
}

func TestGenerateDraftWithoutEngine(t *testing.T) {
	s := testutil.NewTestStore(t)
	e := NewEnricher(s, nil)

	_, err := e.GenerateDraft(context.Background(), model.Email{ID: "e1"})
	if !errors.Is(err, llm.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}
