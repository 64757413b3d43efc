package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/email-agent/internal/model"
)

// CreateDraft appends a new draft row. If the draft has no ID, a new UUID
// is generated; if it has no status, it is stored as saved.
func (s *SQLiteStore) CreateDraft(ctx context.Context, d model.Draft) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = model.DraftStatusSaved
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, email_id, draft_subject, draft_body, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.EmailID, d.Subject, d.Body, d.Status, d.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating draft for email %s: %w", d.EmailID, err)
	}

	return nil
}

// GetDraftsForEmail retrieves all drafts saved for one email, oldest first.
func (s *SQLiteStore) GetDraftsForEmail(
	ctx context.Context,
	emailID string,
) ([]model.Draft, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM drafts WHERE email_id = ? ORDER BY created_at", emailID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying drafts for %s: %w", emailID, err)
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		var (
			d         model.Draft
			createdAt time.Time
		)
		err := rows.Scan(
			&d.ID, &d.EmailID, &d.Subject, &d.Body, &d.Status, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning draft row: %w", err)
		}
		d.CreatedAt = createdAt
		drafts = append(drafts, d)
	}

	return drafts, rows.Err()
}
