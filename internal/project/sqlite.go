package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/projectchat/internal/storage"
)

var projectSchema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		created_at_ms INTEGER NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS projects_created_idx ON projects(created_at_ms, id);`,
}

// SQLiteRegistry stores projects in the shared SQLite database.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry creates the projects table if needed.
func NewSQLiteRegistry(ctx context.Context, db *sql.DB) (*SQLiteRegistry, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := storage.Migrate(ctx, db, projectSchema); err != nil {
		return nil, fmt.Errorf("init projects schema: %w", err)
	}
	return &SQLiteRegistry{db: db}, nil
}

func (r *SQLiteRegistry) Create(ctx context.Context, p *Project) (*Project, error) {
	if p == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, summary, user_id, created_at_ms, updated_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Summary, p.UserID, p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrProjectExists, p.ID)
		}
		return nil, fmt.Errorf("insert project %s: %w", p.ID, err)
	}
	out := *p
	return &out, nil
}

func (r *SQLiteRegistry) Get(ctx context.Context, id string) (*Project, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, summary, user_id, created_at_ms, updated_at_ms FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRegistry) List(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, summary, user_id, created_at_ms, updated_at_ms FROM projects ORDER BY created_at_ms, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var createdMS, updatedMS int64
	if err := row.Scan(&p.ID, &p.Name, &p.Summary, &p.UserID, &createdMS, &updatedMS); err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(createdMS).UTC()
	p.UpdatedAt = time.UnixMilli(updatedMS).UTC()
	return &p, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed: unique")
}

var _ Registry = (*SQLiteRegistry)(nil)
