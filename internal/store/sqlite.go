package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/email-agent/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, runs any pending schema migrations, and seeds the
// default prompt templates.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.seedPrompts(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding prompts: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// seedPrompts inserts the default prompt templates for any name not yet
// present. Existing rows are left alone so user edits survive restarts.
func (s *SQLiteStore) seedPrompts() error {
	for _, name := range model.PromptNames {
		_, err := s.db.Exec(
			"INSERT OR IGNORE INTO prompts (prompt_name, prompt_template) VALUES (?, ?)",
			name, defaultPrompts[name],
		)
		if err != nil {
			return fmt.Errorf("seeding prompt %q: %w", name, err)
		}
	}
	return nil
}

// InsertEmails ingests a batch of emails with INSERT OR IGNORE semantics:
// rows whose ID already exists are left untouched. Returns the number of
// newly inserted rows.
func (s *SQLiteStore) InsertEmails(
	ctx context.Context,
	emails []model.Email,
) (int, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR IGNORE INTO emails (
			id, sender, subject, body, timestamp, read_status
		) VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range emails {
		res, err := stmt.ExecContext(ctx,
			e.ID, e.Sender, e.Subject, e.Body,
			e.Timestamp, boolToInt(e.Read),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting email %s: %w", e.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting inserted rows for %s: %w", e.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing email insert: %w", err)
	}

	return inserted, nil
}

// GetEmails retrieves all emails, newest first.
func (s *SQLiteStore) GetEmails(ctx context.Context) ([]model.Email, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM emails ORDER BY timestamp DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	defer rows.Close()

	var emails []model.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}

	return emails, rows.Err()
}

// GetEmailByID retrieves a single email by its ID.
func (s *SQLiteStore) GetEmailByID(
	ctx context.Context,
	id string,
) (*model.Email, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM emails WHERE id = ?", id)

	e, err := scanEmailRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting email %s: %w", id, ErrEmailNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting email %s: %w", id, err)
	}

	return &e, nil
}

// SetEmailCategory overwrites the category column for one email.
func (s *SQLiteStore) SetEmailCategory(
	ctx context.Context,
	id, category string,
) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE emails SET category = ? WHERE id = ?", category, id,
	)
	if err != nil {
		return fmt.Errorf("setting category for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("setting category for %s: %w", id, ErrEmailNotFound)
	}
	return nil
}

// SetEmailActionItems overwrites the action_items column for one email.
func (s *SQLiteStore) SetEmailActionItems(
	ctx context.Context,
	id, actionItems string,
) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE emails SET action_items = ? WHERE id = ?", actionItems, id,
	)
	if err != nil {
		return fmt.Errorf("setting action items for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("setting action items for %s: %w", id, ErrEmailNotFound)
	}
	return nil
}

// scanEmail scans an email row from a sqlx.Rows result set.
func scanEmail(rows *sqlx.Rows) (model.Email, error) {
	var (
		e           model.Email
		readStatus  int
		category    sql.NullString
		actionItems sql.NullString
	)

	err := rows.Scan(
		&e.ID, &e.Sender, &e.Subject, &e.Body,
		&e.Timestamp, &readStatus, &category, &actionItems,
	)
	if err != nil {
		return model.Email{}, fmt.Errorf("scanning email row: %w", err)
	}

	e.Read = readStatus != 0
	e.Category = category.String
	e.ActionItems = actionItems.String

	return e, nil
}

// scanEmailRow scans a single email row from a sqlx.Row.
func scanEmailRow(row *sqlx.Row) (model.Email, error) {
	var (
		e           model.Email
		readStatus  int
		category    sql.NullString
		actionItems sql.NullString
	)

	err := row.Scan(
		&e.ID, &e.Sender, &e.Subject, &e.Body,
		&e.Timestamp, &readStatus, &category, &actionItems,
	)
	if err != nil {
		return model.Email{}, err
	}

	e.Read = readStatus != 0
	e.Category = category.String
	e.ActionItems = actionItems.String

	return e, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
