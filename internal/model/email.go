package model

import "time"

// Category values the default categorize_email prompt instructs the model
// to choose from. The store does not enforce membership: the model's output
// is persisted verbatim, so a reworded prompt can introduce new values.
const (
	CategoryImportant     = "Important"
	CategoryNewsletter    = "Newsletter"
	CategorySpam          = "Spam"
	CategoryToDo          = "To-Do"
	CategoryProjectUpdate = "Project Update"
)

// Email is a single inbox message. IDs are assigned by whatever produced
// the message (seed file or mailbox fetch) and are stable across runs;
// ingestion never overwrites an existing ID.
type Email struct {
	// ID is the external, stable unique identifier.
	ID string `json:"id"`

	// Sender is the display name or address of the sender.
	Sender string `json:"sender"`

	// Subject is the message subject line.
	Subject string `json:"subject"`

	// Body is the plain-text message body.
	Body string `json:"body"`

	// Timestamp is the received time as a sortable ISO-8601 string,
	// exactly as carried by the seed file.
	Timestamp string `json:"timestamp"`

	// Read reports whether the message has been read.
	Read bool `json:"read"`

	// Category is the model-assigned category, or "" when the email
	// has not been categorized yet.
	Category string `json:"category,omitempty"`

	// ActionItems is the serialized ActionItemSet for this email, or ""
	// when action items have not been extracted yet.
	ActionItems string `json:"action_items,omitempty"`
}

// Categorized reports whether this email already carries a category.
func (e Email) Categorized() bool {
	return e.Category != ""
}

// Extracted reports whether action-item extraction has been recorded for
// this email, including recorded failures.
func (e Email) Extracted() bool {
	return e.ActionItems != ""
}

// DraftStatusSaved is the only draft status: drafts are stored, never sent.
const DraftStatusSaved = "saved"

// Draft is a stored candidate reply for one email. One email may
// accumulate any number of drafts; they are never mutated or deleted.
type Draft struct {
	// ID is the internal unique identifier for this draft.
	ID string `json:"id"`

	// EmailID references the email this draft replies to.
	EmailID string `json:"email_id"`

	// Subject is the reply subject ("Re: <original subject>").
	Subject string `json:"subject"`

	// Body is the drafted reply text.
	Body string `json:"body"`

	// Status is always DraftStatusSaved; there is no send path.
	Status string `json:"status"`

	// CreatedAt is when the draft was generated.
	CreatedAt time.Time `json:"created_at"`
}
