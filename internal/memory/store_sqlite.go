package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/projectchat/internal/storage"
)

var transcriptSchema = []string{
	`CREATE TABLE IF NOT EXISTS long_term_memory (
		project_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		chat_content TEXT NOT NULL DEFAULT '',
		updated_at_ms INTEGER NOT NULL
	);`,
}

// SQLiteStore keeps transcripts in the long_term_memory table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates the transcript table if needed.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := storage.Migrate(ctx, db, transcriptSchema); err != nil {
		return nil, fmt.Errorf("%w: init transcript schema: %w", ErrStorage, err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, projectID string) (*Record, error) {
	var (
		rec       Record
		updatedMS int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT project_id, user_id, chat_content, updated_at_ms FROM long_term_memory WHERE project_id = ?`,
		projectID,
	).Scan(&rec.ProjectID, &rec.UserID, &rec.ChatContent, &updatedMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoTranscript
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load transcript %s: %w", ErrStorage, projectID, err)
	}
	rec.UpdatedAt = time.UnixMilli(updatedMS).UTC()
	return &rec, nil
}

// Save upserts the record in a single statement, which SQLite applies atomically.
// The owning user is set on first insert and kept on later overwrites.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO long_term_memory (project_id, user_id, chat_content, updated_at_ms)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET
			chat_content = excluded.chat_content,
			updated_at_ms = excluded.updated_at_ms`,
		rec.ProjectID, rec.UserID, rec.ChatContent, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: save transcript %s: %w", ErrStorage, rec.ProjectID, err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
