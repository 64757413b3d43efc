package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/store"
	"github.com/nhle/email-agent/tests/testutil"
)

func sampleEmails() []model.Email {
	return []model.Email{
		{
			ID:        "e1",
			Sender:    "Alice Chen",
			Subject:   "Q3 planning review",
			Body:      "Please review the attached plan by Friday.",
			Timestamp: "2026-08-20T09:15:00",
			Read:      false,
		},
		{
			ID:        "e2",
			Sender:    "Weekly Digest",
			Subject:   "Your weekly digest",
			Body:      "Top stories this week.",
			Timestamp: "2026-08-21T07:00:00",
			Read:      true,
		},
	}
}

func TestInsertEmailsSkipsExistingIDs(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	count, err := s.InsertEmails(ctx, sampleEmails())
	if err != nil {
		t.Fatalf("inserting emails: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 new rows, got %d", count)
	}

	// Re-inserting the same batch (with changed content) must not
	// touch existing rows.
	modified := sampleEmails()
	modified[0].Subject = "CHANGED"
	modified = append(modified, model.Email{
		ID:        "e3",
		Sender:    "Bob",
		Subject:   "New message",
		Body:      "Hello.",
		Timestamp: "2026-08-22T10:00:00",
	})

	count, err = s.InsertEmails(ctx, modified)
	if err != nil {
		t.Fatalf("re-inserting emails: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 new row on re-ingest, got %d", count)
	}

	email, err := s.GetEmailByID(ctx, "e1")
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if email.Subject != "Q3 planning review" {
		t.Errorf("existing row was overwritten: subject = %q", email.Subject)
	}
}

func TestInsertEmailsPreservesEnrichment(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertEmails(ctx, sampleEmails()); err != nil {
		t.Fatalf("inserting emails: %v", err)
	}
	if err := s.SetEmailCategory(ctx, "e1", "Important"); err != nil {
		t.Fatalf("setting category: %v", err)
	}

	if _, err := s.InsertEmails(ctx, sampleEmails()); err != nil {
		t.Fatalf("re-inserting emails: %v", err)
	}

	email, err := s.GetEmailByID(ctx, "e1")
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if email.Category != "Important" {
		t.Errorf("re-ingest cleared category: got %q", email.Category)
	}
}

func TestGetEmailsOrdersByTimestampDescending(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertEmails(ctx, sampleEmails()); err != nil {
		t.Fatalf("inserting emails: %v", err)
	}

	emails, err := s.GetEmails(ctx)
	if err != nil {
		t.Fatalf("getting emails: %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(emails))
	}
	if emails[0].ID != "e2" || emails[1].ID != "e1" {
		t.Errorf("wrong order: got %s, %s", emails[0].ID, emails[1].ID)
	}
}

func TestGetEmailByIDNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetEmailByID(context.Background(), "missing")
	if !errors.Is(err, store.ErrEmailNotFound) {
		t.Errorf("expected ErrEmailNotFound, got %v", err)
	}
}

func TestSetEmailCategory(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertEmails(ctx, sampleEmails()); err != nil {
		t.Fatalf("inserting emails: %v", err)
	}

	if err := s.SetEmailCategory(ctx, "e1", "To-Do"); err != nil {
		t.Fatalf("setting category: %v", err)
	}

	email, err := s.GetEmailByID(ctx, "e1")
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if email.Category != "To-Do" {
		t.Errorf("category = %q, want To-Do", email.Category)
	}
	if !email.Categorized() {
		t.Error("Categorized() = false after setting a category")
	}

	err = s.SetEmailCategory(ctx, "missing", "Spam")
	if !errors.Is(err, store.ErrEmailNotFound) {
		t.Errorf("expected ErrEmailNotFound for unknown ID, got %v", err)
	}
}

func TestSetEmailActionItems(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertEmails(ctx, sampleEmails()); err != nil {
		t.Fatalf("inserting emails: %v", err)
	}

	payload := `{"tasks":[{"task":"review plan","deadline":"Friday"}]}`
	if err := s.SetEmailActionItems(ctx, "e1", payload); err != nil {
		t.Fatalf("setting action items: %v", err)
	}

	email, err := s.GetEmailByID(ctx, "e1")
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if !email.Extracted() {
		t.Error("Extracted() = false after setting action items")
	}

	set, err := model.DecodeActionItemSet(email.ActionItems)
	if err != nil {
		t.Fatalf("decoding action items: %v", err)
	}
	if len(set.Tasks) != 1 || set.Tasks[0].Task != "review plan" {
		t.Errorf("unexpected tasks: %+v", set.Tasks)
	}

	err = s.SetEmailActionItems(ctx, "missing", payload)
	if !errors.Is(err, store.ErrEmailNotFound) {
		t.Errorf("expected ErrEmailNotFound for unknown ID, got %v", err)
	}
}

func TestDefaultPromptsAreSeeded(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, name := range model.PromptNames {
		template, err := s.GetPromptTemplate(ctx, name)
		if err != nil {
			t.Fatalf("getting seeded template %q: %v", name, err)
		}
		if template == "" {
			t.Errorf("template %q is empty", name)
		}
	}
}

func TestSetPromptTemplate(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	custom := "Categorize this: {subject} / {body}"
	if err := s.SetPromptTemplate(ctx, model.PromptCategorize, custom); err != nil {
		t.Fatalf("setting template: %v", err)
	}

	got, err := s.GetPromptTemplate(ctx, model.PromptCategorize)
	if err != nil {
		t.Fatalf("getting template: %v", err)
	}
	if got != custom {
		t.Errorf("template = %q, want %q", got, custom)
	}
}

func TestPromptNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetPromptTemplate(ctx, "no_such_prompt")
	if !store.IsPromptNotFound(err) {
		t.Errorf("expected PromptNotFoundError on get, got %v", err)
	}

	err = s.SetPromptTemplate(ctx, "no_such_prompt", "body")
	if !store.IsPromptNotFound(err) {
		t.Errorf("expected PromptNotFoundError on set, got %v", err)
	}
}

func TestGetPromptTemplatesListsAll(t *testing.T) {
	s := testutil.NewTestStore(t)

	prompts, err := s.GetPromptTemplates(context.Background())
	if err != nil {
		t.Fatalf("listing templates: %v", err)
	}
	if len(prompts) != len(model.PromptNames) {
		t.Fatalf("expected %d templates, got %d",
			len(model.PromptNames), len(prompts))
	}
}

func TestDraftsAccumulate(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertEmails(ctx, sampleEmails()); err != nil {
		t.Fatalf("inserting emails: %v", err)
	}

	first := model.Draft{
		EmailID:   "e1",
		Subject:   "Re: Q3 planning review",
		Body:      "Looks good, a few comments inline.",
		CreatedAt: time.Now().Add(-time.Minute),
	}
	second := model.Draft{
		EmailID:   "e1",
		Subject:   "Re: Q3 planning review",
		Body:      "Second attempt with a different tone.",
		CreatedAt: time.Now(),
	}

	if err := s.CreateDraft(ctx, first); err != nil {
		t.Fatalf("creating first draft: %v", err)
	}
	if err := s.CreateDraft(ctx, second); err != nil {
		t.Fatalf("creating second draft: %v", err)
	}

	drafts, err := s.GetDraftsForEmail(ctx, "e1")
	if err != nil {
		t.Fatalf("getting drafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].Body != first.Body {
		t.Errorf("drafts not ordered oldest first: %q", drafts[0].Body)
	}
	for _, d := range drafts {
		if d.ID == "" {
			t.Error("draft was stored without an ID")
		}
		if d.Status != model.DraftStatusSaved {
			t.Errorf("draft status = %q, want %q", d.Status, model.DraftStatusSaved)
		}
	}

	other, err := s.GetDraftsForEmail(ctx, "e2")
	if err != nil {
		t.Fatalf("getting drafts for other email: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no drafts for e2, got %d", len(other))
	}
}
