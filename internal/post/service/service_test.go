package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devblog/devblog-api/internal/post"
	"github.com/devblog/devblog-api/internal/post/repository"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestCreate_Validation(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	cases := []CreateInput{
		{Title: "", Content: "c", AuthorID: "u1"},
		{Title: "   ", Content: "c", AuthorID: "u1"},
		{Title: "t", Content: "", AuthorID: "u1"},
		{Title: "t", Content: "c", AuthorID: ""},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, in)
		require.ErrorIs(t, err, ErrInvalidInput, "input %+v", in)
	}
}

func TestCreate_SetsOwnerAndDefaults(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Title: "  Hello  ", Content: "Body.", AuthorID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "Hello", p.Title)
	require.Equal(t, "u1", p.AuthorID)
	require.Equal(t, post.AnonymousAuthor, p.Author)
	require.Equal(t, []string{}, p.Tags)

	p2, err := svc.Create(ctx, CreateInput{Title: "t", Content: "c", AuthorID: "u2", AuthorName: "Grace", Tags: []string{"go", "web"}})
	require.NoError(t, err)
	require.Equal(t, "Grace", p2.Author)

	d, err := svc.Get(ctx, p2.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"go", "web"}, d.Tags)
	require.Equal(t, "c", d.Content)
}

func TestListAll_SortedNewestFirst(t *testing.T) {
	repo := repository.NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []int{3, 1, 4, 2} {
		_, err := repo.Create(ctx, &post.Post{Title: "t", Content: "c", AuthorID: "u", Date: base.AddDate(0, 0, d)})
		require.NoError(t, err)
	}

	list, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	require.Equal(t, []string{"May 5, 2024", "May 4, 2024", "May 3, 2024", "May 2, 2024"},
		[]string{list[0].Date, list[1].Date, list[2].Date, list[3].Date})
}

func TestListByAuthor(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Title: "a", Content: "A. B. C.", AuthorID: "u1", AuthorName: "Ada"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Title: "b", Content: "x", AuthorID: "u2"})
	require.NoError(t, err)

	list, err := svc.ListByAuthor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "A. B...", list[0].Excerpt)
	require.Equal(t, "Ada", list[0].Author)

	list, err = svc.ListByAuthor(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUpdateDelete_OwnerOnly(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	p, err := svc.Create(ctx, CreateInput{Title: "t", Content: "c", AuthorID: "owner", AuthorName: "Owner"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Update(ctx, p.ID, "other", post.Changes{Title: strp("x")}), ErrForbidden)
	require.ErrorIs(t, svc.Delete(ctx, p.ID, "other"), ErrForbidden)
	require.ErrorIs(t, svc.Update(ctx, "missing", "owner", post.Changes{Title: strp("x")}), ErrNotFound)

	require.ErrorIs(t, svc.Update(ctx, p.ID, "owner", post.Changes{}), ErrInvalidInput)
	require.ErrorIs(t, svc.Update(ctx, p.ID, "owner", post.Changes{Title: strp(" ")}), ErrInvalidInput)
	require.ErrorIs(t, svc.Update(ctx, p.ID, "owner", post.Changes{Content: strp("")}), ErrInvalidInput)

	require.NoError(t, svc.Update(ctx, p.ID, "owner", post.Changes{Title: strp(" New "), Tags: &[]string{"go"}}))
	d, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "New", d.Title)
	require.Equal(t, []string{"go"}, d.Tags)
	require.Equal(t, "Owner", d.Author)

	require.NoError(t, svc.Delete(ctx, p.ID, "owner"))
	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

type failingRepo struct{ repository.Repository }

func (failingRepo) List(ctx context.Context, authorID string) ([]*post.Post, error) {
	return nil, errors.New("connection reset")
}

func TestListAll_StoreError(t *testing.T) {
	svc := NewService(failingRepo{})
	_, err := svc.ListAll(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
