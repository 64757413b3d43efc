package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nhle/email-agent/internal/model"
)

// GetPromptTemplate fetches the current template body for a name. Every
// caller re-reads the table, so edits are visible on the next invocation
// without any cache invalidation.
func (s *SQLiteStore) GetPromptTemplate(
	ctx context.Context,
	name string,
) (string, error) {
	var template string
	err := s.db.GetContext(ctx, &template,
		"SELECT prompt_template FROM prompts WHERE prompt_name = ?", name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &PromptNotFoundError{Name: name}
	}
	if err != nil {
		return "", fmt.Errorf("getting prompt %q: %w", name, err)
	}

	return template, nil
}

// SetPromptTemplate replaces the template body for an existing name.
// Names are never created through this path; an unknown name is a
// PromptNotFoundError.
func (s *SQLiteStore) SetPromptTemplate(
	ctx context.Context,
	name, template string,
) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE prompts SET prompt_template = ? WHERE prompt_name = ?",
		template, name,
	)
	if err != nil {
		return fmt.Errorf("updating prompt %q: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating prompt %q: %w", name, err)
	}
	if n == 0 {
		return &PromptNotFoundError{Name: name}
	}

	return nil
}

// GetPromptTemplates retrieves all prompt templates in name order.
func (s *SQLiteStore) GetPromptTemplates(
	ctx context.Context,
) ([]model.PromptTemplate, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT prompt_name, prompt_template FROM prompts ORDER BY prompt_name",
	)
	if err != nil {
		return nil, fmt.Errorf("querying prompts: %w", err)
	}
	defer rows.Close()

	var prompts []model.PromptTemplate
	for rows.Next() {
		var p model.PromptTemplate
		if err := rows.Scan(&p.Name, &p.Template); err != nil {
			return nil, fmt.Errorf("scanning prompt row: %w", err)
		}
		prompts = append(prompts, p)
	}

	return prompts, rows.Err()
}
