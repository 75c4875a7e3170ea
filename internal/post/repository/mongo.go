package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devblog/devblog-api/internal/post"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed repository for posts. Ids are
// ObjectID hex strings stored as the string _id.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the indexes backing the list queries.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "date", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create post indexes: %w", err)
	}
	return nil
}

func (m *MongoRepo) Create(ctx context.Context, p *post.Post) (string, error) {
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if p.Date.IsZero() {
		p.Date = now
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if _, err := m.col.InsertOne(ctx, p); err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}
	return p.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*post.Post, error) {
	var p post.Post
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &p, nil
}

func (m *MongoRepo) List(ctx context.Context, authorID string) ([]*post.Post, error) {
	filter := bson.M{}
	if authorID != "" {
		filter["authorId"] = authorID
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cur.Close(ctx)
	out := []*post.Post{}
	for cur.Next(ctx) {
		var p post.Post
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode post: %w", err)
		}
		out = append(out, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) UpdateOwned(ctx context.Context, id, ownerID string, ch post.Changes) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if ch.Title != nil {
		set["title"] = *ch.Title
	}
	if ch.Content != nil {
		set["content"] = *ch.Content
	}
	if ch.Tags != nil {
		set["tags"] = *ch.Tags
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id, "authorId": ownerID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return m.missOrForbidden(ctx, id)
	}
	return nil
}

func (m *MongoRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id, "authorId": ownerID})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return m.missOrForbidden(ctx, id)
	}
	return nil
}

// missOrForbidden explains a conditional write that matched nothing.
func (m *MongoRepo) missOrForbidden(ctx context.Context, id string) error {
	n, err := m.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrForbidden
}
