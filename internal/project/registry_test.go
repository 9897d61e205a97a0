package project

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/projectchat/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registries(t *testing.T) map[string]func() Registry {
	t.Helper()
	return map[string]func() Registry{
		"memory": NewMemoryRegistry,
		"sqlite": func() Registry {
			ctx := context.Background()
			db, err := storage.OpenSQLite(ctx, storage.MemoryPath)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			reg, err := NewSQLiteRegistry(ctx, db)
			require.NoError(t, err)
			return reg
		},
	}
}

func TestRegistry_CreateAndGet(t *testing.T) {
	for name, newRegistry := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			reg := newRegistry()

			p, err := NewProject("1", "demo", "A demo", "u1")
			require.NoError(t, err)

			created, err := reg.Create(ctx, p)
			require.NoError(t, err)
			assert.Equal(t, "1", created.ID)

			got, err := reg.Get(ctx, "1")
			require.NoError(t, err)
			assert.Equal(t, "demo", got.Name)
			assert.Equal(t, "A demo", got.Summary)
			assert.Equal(t, "u1", got.UserID)
			assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Millisecond)
		})
	}
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	for name, newRegistry := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			reg := newRegistry()

			p, err := NewProject("dup", "demo", "", "u1")
			require.NoError(t, err)
			_, err = reg.Create(ctx, p)
			require.NoError(t, err)

			_, err = reg.Create(ctx, p)
			assert.ErrorIs(t, err, ErrProjectExists)
		})
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	for name, newRegistry := range registries(t) {
		t.Run(name, func(t *testing.T) {
			reg := newRegistry()

			_, err := reg.Get(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrProjectNotFound)

			_, err = reg.Get(context.Background(), "")
			assert.ErrorIs(t, err, ErrInvalidProjectID)
		})
	}
}

func TestRegistry_CreateInvalid(t *testing.T) {
	for name, newRegistry := range registries(t) {
		t.Run(name, func(t *testing.T) {
			reg := newRegistry()

			_, err := reg.Create(context.Background(), &Project{ID: "1"})
			assert.ErrorIs(t, err, ErrEmptyProjectName)

			_, err = reg.Create(context.Background(), nil)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_ListOrdered(t *testing.T) {
	for name, newRegistry := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			reg := newRegistry()

			base := time.Now().UTC().Truncate(time.Millisecond)
			for i, id := range []string{"c", "a", "b"} {
				p, err := NewProject(id, "project "+id, "", "u1")
				require.NoError(t, err)
				p.CreatedAt = base.Add(time.Duration(i) * time.Second)
				p.UpdatedAt = p.CreatedAt
				_, err = reg.Create(ctx, p)
				require.NoError(t, err)
			}

			list, err := reg.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "c", list[0].ID)
			assert.Equal(t, "a", list[1].ID)
			assert.Equal(t, "b", list[2].ID)
		})
	}
}

func TestMemoryRegistry_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	p, err := NewProject("1", "demo", "original", "u1")
	require.NoError(t, err)
	_, err = reg.Create(ctx, p)
	require.NoError(t, err)

	got, err := reg.Get(ctx, "1")
	require.NoError(t, err)
	got.Summary = "mutated"

	again, err := reg.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Summary)
}
