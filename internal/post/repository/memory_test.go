package repository

import (
	"context"
	"testing"
	"time"

	"github.com/devblog/devblog-api/internal/post"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	p := &post.Post{Title: "Hello", Content: "hello world", Author: "Ada", AuthorID: "u1"}
	id, err := r.Create(ctx, p)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.False(t, p.Date.IsZero())

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "hello world", got.Content)

	content := "new"
	require.NoError(t, r.UpdateOwned(ctx, id, "u1", post.Changes{Content: &content}))
	got, err = r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "new", got.Content)
	require.Equal(t, "Hello", got.Title)

	require.NoError(t, r.DeleteOwned(ctx, id, "u1"))
	_, err = r.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoOwnership(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id, err := r.Create(ctx, &post.Post{Title: "t", Content: "c", AuthorID: "owner"})
	require.NoError(t, err)

	title := "hijacked"
	require.ErrorIs(t, r.UpdateOwned(ctx, id, "intruder", post.Changes{Title: &title}), ErrForbidden)
	require.ErrorIs(t, r.DeleteOwned(ctx, id, "intruder"), ErrForbidden)
	require.ErrorIs(t, r.UpdateOwned(ctx, "missing", "owner", post.Changes{Title: &title}), ErrNotFound)
	require.ErrorIs(t, r.DeleteOwned(ctx, "missing", "owner"), ErrNotFound)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "t", got.Title)
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// inserted out of order on purpose
	for _, d := range []int{2, 0, 3, 1} {
		author := "a"
		if d%2 == 1 {
			author = "b"
		}
		_, err := r.Create(ctx, &post.Post{Title: "p", Content: "c", AuthorID: author, Date: base.AddDate(0, 0, d)})
		require.NoError(t, err)
	}

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		require.False(t, all[i].Date.After(all[i-1].Date), "list must be sorted by date descending")
	}

	byB, err := r.List(ctx, "b")
	require.NoError(t, err)
	require.Len(t, byB, 2)
	require.Equal(t, base.AddDate(0, 0, 3), byB[0].Date)

	none, err := r.List(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}
