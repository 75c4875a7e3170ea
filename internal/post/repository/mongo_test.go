package repository

import (
	"context"
	"testing"
	"time"

	"github.com/devblog/devblog-api/internal/post"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	date := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("create assigns id and dates", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoRepo(mt.Coll)
		p := &post.Post{Title: "t", Content: "c", AuthorID: "u1"}
		id, err := repo.Create(ctx, p)
		require.NoError(mt, err)
		require.Len(mt, id, 24)
		require.False(mt, p.Date.IsZero())
		require.NotNil(mt, p.Tags)
	})

	mt.Run("get found", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "abc"},
			{Key: "title", Value: "Hello"},
			{Key: "authorId", Value: "u1"},
			{Key: "date", Value: date},
		}))
		repo := NewMongoRepo(mt.Coll)
		p, err := repo.Get(ctx, "abc")
		require.NoError(mt, err)
		require.Equal(mt, "Hello", p.Title)
		require.Equal(mt, "u1", p.AuthorID)
		require.True(mt, date.Equal(p.Date))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err := NewMongoRepo(mt.Coll).Get(ctx, "nope")
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list decodes in server order", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "2"}, {Key: "title", Value: "newer"}, {Key: "date", Value: date}},
			bson.D{{Key: "_id", Value: "1"}, {Key: "title", Value: "older"}, {Key: "date", Value: date.Add(-time.Hour)}},
		))
		list, err := NewMongoRepo(mt.Coll).List(ctx, "u1")
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		require.Equal(mt, "newer", list[0].Title)
	})

	mt.Run("update by owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		title := "x"
		require.NoError(mt, NewMongoRepo(mt.Coll).UpdateOwned(ctx, "abc", "u1", post.Changes{Title: &title}))
	})

	mt.Run("update by someone else", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: 1}}),
		)
		title := "x"
		err := NewMongoRepo(mt.Coll).UpdateOwned(ctx, "abc", "u2", post.Changes{Title: &title})
		require.ErrorIs(mt, err, ErrForbidden)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)
		err := NewMongoRepo(mt.Coll).DeleteOwned(ctx, "gone", "u1")
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete by owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, NewMongoRepo(mt.Coll).DeleteOwned(ctx, "abc", "u1"))
	})
}
