package triage

import (
	"context"

	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/internal/model"
)

// chatTemplate is the fixed instruction template for the per-email chat.
// Unlike the enrichment prompts it is compiled in, not read from the
// prompts table: the chat surface is not user-editable.
const chatTemplate = `You are a helpful email assistant.

Email Context:
Subject: {subject}
Body: {body}

User Question: {question}

Answer the question based strictly on the email provided. Keep it concise.`

// Chat answers one ad-hoc question about a single email. Each turn is
// stateless: the history is what the caller has displayed so far and is
// not sent to the model.
// TODO: fold prior turns into the prompt so follow-up questions work.
func (e *Enricher) Chat(
	ctx context.Context,
	email model.Email,
	question string,
	history []Turn,
) (string, error) {
	if e.llm == nil {
		return "", llm.ErrEngineUnavailable
	}

	prompt, err := llm.RenderTemplate(chatTemplate, map[string]string{
		"subject":  email.Subject,
		"body":     email.Body,
		"question": question,
	})
	if err != nil {
		return "", err
	}

	return e.llm.Complete(ctx, prompt)
}
