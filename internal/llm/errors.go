package llm

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable means the completion client was never successfully
// initialized (typically a missing API key). It is fatal for all model
// calls until the process is reconfigured and restarted.
var ErrEngineUnavailable = errors.New("completion engine unavailable: no API key configured")

// MissingVariableError reports a template placeholder with no bound value.
// This is a configuration error detected at substitution time, before any
// remote call is made.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template variable {%s} has no bound value", e.Name)
}

// CompletionError wraps the underlying cause of a remote completion
// failure after all retries have been exhausted.
type CompletionError struct {
	Attempts int
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// IsCompletionError reports whether err (or any error in its chain) is a
// CompletionError.
func IsCompletionError(err error) bool {
	var ce *CompletionError
	return errors.As(err, &ce)
}
