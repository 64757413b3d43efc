package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/internal/model"
)

// ExtractTasks runs the extract_action_items template over an email body
// and parses the response into an ActionItemSet.
//
// A completion failure, malformed response, or shape mismatch does not
// propagate: it is recorded as an empty set with a non-empty Error, so a
// single bad model response cannot abort a batch run. Only failures that
// would doom every email the same way (no engine, missing template,
// unbound placeholder) are returned as errors.
func (e *Enricher) ExtractTasks(
	ctx context.Context,
	body string,
) (model.ActionItemSet, error) {
	if e.llm == nil {
		return model.ActionItemSet{}, llm.ErrEngineUnavailable
	}

	template, err := e.store.GetPromptTemplate(ctx, model.PromptExtractTasks)
	if err != nil {
		return model.ActionItemSet{}, err
	}

	prompt, err := llm.RenderTemplate(template, map[string]string{
		"body": body,
	})
	if err != nil {
		return model.ActionItemSet{}, err
	}

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrEngineUnavailable) {
			return model.ActionItemSet{}, err
		}
		return model.ActionItemSet{
			Tasks: []model.ActionItem{},
			Error: fmt.Sprintf("completion failed: %v", err),
		}, nil
	}

	set, parseErr := parseActionItems(raw)
	if parseErr != nil {
		return model.ActionItemSet{
			Tasks: []model.ActionItem{},
			Error: fmt.Sprintf("failed to parse tasks JSON: %v", parseErr),
		}, nil
	}

	return set, nil
}

// parseActionItems strips code-fence wrapping from raw model output and
// decodes it as the fixed {"tasks": [...]} shape.
func parseActionItems(raw string) (model.ActionItemSet, error) {
	cleaned := stripCodeFences(raw)

	var set model.ActionItemSet
	if err := json.Unmarshal([]byte(cleaned), &set); err != nil {
		return model.ActionItemSet{}, err
	}
	if set.Tasks == nil {
		set.Tasks = []model.ActionItem{}
	}

	return set, nil
}

// stripCodeFences removes the triple-backtick fence markers, with or
// without a language tag, that models commonly wrap JSON responses in.
// The markers are stripped as literal sequences wherever they appear, so
// an unterminated fence degrades the same way as a complete one.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
