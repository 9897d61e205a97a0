package project

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrProjectExists      = errors.New("project already exists")
	ErrInvalidProjectID   = errors.New("invalid project ID")
	ErrEmptyProjectName   = errors.New("project name cannot be empty")
	ErrInvalidProjectName = errors.New("invalid project name")
)

const (
	maxIDLen   = 128
	maxNameLen = 256
)

// Project is a chat subject with a summary used as prompt context.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject builds a validated project. An empty id gets a generated UUID.
func NewProject(id, name, summary, userID string) (*Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	p := &Project{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Summary:   summary,
		UserID:    strings.TrimSpace(userID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks if the project has valid fields.
func (p *Project) Validate() error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	if p.Name == "" {
		return ErrEmptyProjectName
	}
	if len(p.Name) > maxNameLen || !utf8.ValidString(p.Name) {
		return ErrInvalidProjectName
	}
	return nil
}

// ValidateID rejects IDs that are empty, oversized, or contain path or
// whitespace characters.
func ValidateID(id string) error {
	if id == "" || len(id) > maxIDLen || !utf8.ValidString(id) {
		return ErrInvalidProjectID
	}
	if strings.ContainsAny(id, "/\\ \t\r\n") {
		return ErrInvalidProjectID
	}
	return nil
}
