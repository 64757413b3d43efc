package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/email-agent/internal/model"
)

// ErrEmailNotFound is returned when a lookup references an unknown email ID.
var ErrEmailNotFound = errors.New("email not found")

// PromptNotFoundError is returned when a prompt template name does not
// exist. Templates are seeded at initialization and edited in place;
// neither reads nor writes create names ad hoc.
type PromptNotFoundError struct {
	Name string
}

func (e *PromptNotFoundError) Error() string {
	return fmt.Sprintf("prompt template %q not found", e.Name)
}

// IsPromptNotFound reports whether err (or any error in its chain) is a
// PromptNotFoundError.
func IsPromptNotFound(err error) bool {
	var pnf *PromptNotFoundError
	return errors.As(err, &pnf)
}

// Store defines the persistence interface for emails, prompt templates,
// and drafts.
type Store interface {
	// === Emails ===

	// InsertEmails ingests a batch of emails, skipping any whose ID
	// already exists. It returns the number of newly inserted rows.
	InsertEmails(ctx context.Context, emails []model.Email) (int, error)

	// GetEmails returns all emails ordered by timestamp descending.
	GetEmails(ctx context.Context) ([]model.Email, error)

	// GetEmailByID returns a single email, or ErrEmailNotFound.
	GetEmailByID(ctx context.Context, id string) (*model.Email, error)

	// SetEmailCategory overwrites the category for one email.
	SetEmailCategory(ctx context.Context, id, category string) error

	// SetEmailActionItems overwrites the serialized action-item set
	// for one email.
	SetEmailActionItems(ctx context.Context, id, actionItems string) error

	// === Prompt templates ===

	// GetPromptTemplate returns the current template body for a name.
	GetPromptTemplate(ctx context.Context, name string) (string, error)

	// SetPromptTemplate replaces the template body for a pre-existing
	// name. Last write wins; no history is kept.
	SetPromptTemplate(ctx context.Context, name, template string) error

	// GetPromptTemplates returns all templates for the editor view.
	GetPromptTemplates(ctx context.Context) ([]model.PromptTemplate, error)

	// === Drafts ===

	// CreateDraft appends a new draft row. Drafts are never deduplicated.
	CreateDraft(ctx context.Context, d model.Draft) error

	// GetDraftsForEmail returns all drafts saved for one email,
	// oldest first.
	GetDraftsForEmail(ctx context.Context, emailID string) ([]model.Draft, error)
}
