package memory

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStorage wraps every durable read or write failure.
	ErrStorage = errors.New("transcript storage error")

	// ErrNoTranscript is returned by Store.Load when a project has no record.
	ErrNoTranscript = errors.New("transcript not found")
)

// Record is the durable transcript of one project.
type Record struct {
	ProjectID   string
	UserID      string
	ChatContent string
	UpdatedAt   time.Time
}

// Store persists one transcript record per project.
type Store interface {
	// Load returns the record for projectID, or ErrNoTranscript.
	Load(ctx context.Context, projectID string) (*Record, error)

	// Save replaces the whole record for rec.ProjectID. Last writer wins.
	Save(ctx context.Context, rec Record) error
}
