package project

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry provides create and read operations for projects.
type Registry interface {
	// Create stores a new project. Returns ErrProjectExists on ID collision.
	Create(ctx context.Context, p *Project) (*Project, error)

	// Get retrieves a project by ID. Returns ErrProjectNotFound if absent.
	Get(ctx context.Context, id string) (*Project, error)

	// List returns all projects ordered by creation time.
	List(ctx context.Context) ([]*Project, error)
}

// memoryRegistry implements Registry with in-memory storage.
type memoryRegistry struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewMemoryRegistry creates a registry backed by a map.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{
		projects: make(map[string]*Project),
	}
}

func (m *memoryRegistry) Create(ctx context.Context, p *Project) (*Project, error) {
	if p == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[p.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, p.ID)
	}
	stored := *p
	m.projects[p.ID] = &stored

	out := stored
	return &out, nil
}

func (m *memoryRegistry) Get(ctx context.Context, id string) (*Project, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	out := *p
	return &out, nil
}

func (m *memoryRegistry) List(ctx context.Context) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	projects := make([]*Project, 0, len(m.projects))
	for _, p := range m.projects {
		cp := *p
		projects = append(projects, &cp)
	}
	sortProjects(projects)
	return projects, nil
}

func sortProjects(projects []*Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID < projects[j].ID
		}
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
}
