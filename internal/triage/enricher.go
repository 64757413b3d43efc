package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/store"
)

// errEmptyCategory marks a categorization attempt whose output was blank
// after trimming. The email is left uncategorized and retried later.
var errEmptyCategory = errors.New("model returned an empty category")

// Enricher derives and persists category and action-item metadata for
// stored emails. It resolves the current prompt template before every
// model call, so template edits take effect on the next run without a
// restart.
type Enricher struct {
	store store.Store
	llm   Completer
}

// NewEnricher creates an enricher over the given store and completion
// client. A nil completer is permitted: the app can start without an API
// key, and every enrichment call then fails with ErrEngineUnavailable.
func NewEnricher(s store.Store, c Completer) *Enricher {
	return &Enricher{store: s, llm: c}
}

// Progress reports one unit of enrichment work, sent once per email.
// It exists so a caller can render a progress indicator; dropping the
// callback changes nothing about what is persisted.
type Progress struct {
	Index   int
	Total   int
	EmailID string

	// Err carries a per-email categorization failure. The batch
	// continues past it; the email's category stays unset and is
	// retried on the next run.
	Err error
}

// Summary aggregates the outcome of one enrichment run.
type Summary struct {
	Total       int
	Categorized int
	Extracted   int

	// Failed counts emails whose categorization failed transiently.
	Failed int
}

// EnrichAll loads every stored email and enriches each one in turn:
// missing categories are filled via the categorize_email template and
// missing action items via structured extraction. Already-enriched
// emails are skipped, which makes the run idempotent and resume-safe —
// each result is written before the next email is touched, so a crash
// mid-run loses nothing that was already processed.
//
// Failures that doom the whole run (no engine, unknown template, unbound
// placeholder, storage errors) abort it. A per-email completion failure
// during categorization only skips that email's category. A failed
// extraction is persisted as an error-marked empty set and counts as
// processed; it is not retried on later runs.
func (e *Enricher) EnrichAll(
	ctx context.Context,
	onProgress func(Progress),
) (Summary, error) {
	emails, err := e.store.GetEmails(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("loading emails: %w", err)
	}

	summary := Summary{Total: len(emails)}

	for i, email := range emails {
		p := Progress{Index: i + 1, Total: len(emails), EmailID: email.ID}

		if !email.Categorized() {
			category, err := e.Categorize(ctx, email)
			switch {
			case err == nil:
				if err := e.store.SetEmailCategory(ctx, email.ID, category); err != nil {
					return summary, err
				}
				summary.Categorized++
			case llm.IsCompletionError(err) || errors.Is(err, errEmptyCategory):
				// Transient: leave the category unset so the next
				// run retries this email.
				summary.Failed++
				p.Err = err
			default:
				return summary, err
			}
		}

		if !email.Extracted() {
			set, err := e.ExtractTasks(ctx, email.Body)
			if err != nil {
				return summary, err
			}
			if err := e.store.SetEmailActionItems(ctx, email.ID, set.Encode()); err != nil {
				return summary, err
			}
			summary.Extracted++
		}

		if onProgress != nil {
			onProgress(p)
		}
	}

	return summary, nil
}

// Categorize resolves the categorize_email template for one email and
// returns the model's trimmed output verbatim. The result is not checked
// against the category list the default prompt names — the prompt is
// user-editable, so the template text is the only authority on values.
func (e *Enricher) Categorize(
	ctx context.Context,
	email model.Email,
) (string, error) {
	if e.llm == nil {
		return "", llm.ErrEngineUnavailable
	}

	template, err := e.store.GetPromptTemplate(ctx, model.PromptCategorize)
	if err != nil {
		return "", err
	}

	prompt, err := llm.RenderTemplate(template, map[string]string{
		"subject": email.Subject,
		"body":    email.Body,
	})
	if err != nil {
		return "", err
	}

	category, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if category == "" {
		return "", errEmptyCategory
	}

	return category, nil
}
