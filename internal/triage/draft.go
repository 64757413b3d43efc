package triage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/internal/model"
)

// GenerateDraft runs the suggest_reply template over one email and saves
// the result as a new draft row. Every invocation appends a fresh draft;
// nothing is ever sent.
func (e *Enricher) GenerateDraft(
	ctx context.Context,
	email model.Email,
) (model.Draft, error) {
	if e.llm == nil {
		return model.Draft{}, llm.ErrEngineUnavailable
	}

	template, err := e.store.GetPromptTemplate(ctx, model.PromptSuggestReply)
	if err != nil {
		return model.Draft{}, err
	}

	prompt, err := llm.RenderTemplate(template, map[string]string{
		"body": email.Body,
	})
	if err != nil {
		return model.Draft{}, err
	}

	body, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return model.Draft{}, err
	}

	draft := model.Draft{
		ID:        uuid.New().String(),
		EmailID:   email.ID,
		Subject:   replySubject(email.Subject),
		Body:      body,
		Status:    model.DraftStatusSaved,
		CreatedAt: time.Now(),
	}

	if err := e.store.CreateDraft(ctx, draft); err != nil {
		return model.Draft{}, err
	}

	return draft, nil
}

// replySubject prefixes the original subject with "Re: " unless it is
// already a reply.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
