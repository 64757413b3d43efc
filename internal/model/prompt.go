package model

import "encoding/json"

// Prompt template names. The set is fixed: templates are edited in place,
// never created or removed through the application.
const (
	PromptCategorize   = "categorize_email"
	PromptExtractTasks = "extract_action_items"
	PromptSuggestReply = "suggest_reply"
)

// PromptNames lists the known template names in display order.
var PromptNames = []string{
	PromptCategorize,
	PromptExtractTasks,
	PromptSuggestReply,
}

// PromptTemplate is a named, user-editable prompt pattern. The template
// body contains {placeholder} variables resolved at call time.
type PromptTemplate struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

// ActionItem is a single extracted task with an optional deadline.
type ActionItem struct {
	Task     string `json:"task"`
	Deadline string `json:"deadline,omitempty"`
}

// ActionItemSet is the structured result of action-item extraction.
// A non-empty Error means extraction was attempted and failed; that is
// distinct from an empty Tasks list with no error ("no tasks found").
type ActionItemSet struct {
	Tasks []ActionItem `json:"tasks"`
	Error string       `json:"error,omitempty"`
}

// Failed reports whether this set records a failed extraction attempt.
func (s ActionItemSet) Failed() bool {
	return s.Error != ""
}

// Encode serializes the set for storage. An empty set still round-trips:
// Tasks is marshaled as [] rather than null.
func (s ActionItemSet) Encode() string {
	if s.Tasks == nil {
		s.Tasks = []ActionItem{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		// Only reachable if the struct gains unmarshalable fields.
		return `{"tasks":[],"error":"encoding action items"}`
	}
	return string(data)
}

// DecodeActionItemSet parses a stored action-items payload.
func DecodeActionItemSet(data string) (ActionItemSet, error) {
	var s ActionItemSet
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return ActionItemSet{}, err
	}
	if s.Tasks == nil {
		s.Tasks = []ActionItem{}
	}
	return s, nil
}
