// Package seed loads the mock inbox JSON document and feeds it through
// the store's insert-if-absent ingestion path.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/store"
)

// seedEmail mirrors one entry of the seed file:
// {id, sender, subject, body, timestamp, read}.
type seedEmail struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
}

// LoadFile parses a JSON inbox seed file into emails. This is pure
// format conversion; no rows are touched.
func LoadFile(path string) ([]model.Email, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a JSON array of seed entries into emails.
func Parse(data []byte) ([]model.Email, error) {
	var entries []seedEmail
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing seed JSON: %w", err)
	}

	emails := make([]model.Email, 0, len(entries))
	for i, entry := range entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("seed entry %d has no id", i)
		}
		emails = append(emails, model.Email{
			ID:        entry.ID,
			Sender:    entry.Sender,
			Subject:   entry.Subject,
			Body:      entry.Body,
			Timestamp: entry.Timestamp,
			Read:      entry.Read,
		})
	}

	return emails, nil
}

// Ingest inserts the given emails, skipping IDs that already exist, and
// returns the count of newly inserted rows. Re-ingesting the same file
// never changes existing rows and reports zero.
func Ingest(
	ctx context.Context,
	s store.Store,
	emails []model.Email,
) (int, error) {
	count, err := s.InsertEmails(ctx, emails)
	if err != nil {
		return 0, fmt.Errorf("ingesting emails: %w", err)
	}
	return count, nil
}
