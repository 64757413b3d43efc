package triage

import "context"

// Completer is the completion surface the triage components depend on.
// *llm.Client satisfies it; tests substitute stubs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
