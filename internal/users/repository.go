package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devblog/devblog-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrTokenNotFound is returned when no user holds a live verification token.
var ErrTokenNotFound = errors.New("verification token not found")

// UserRepository defines persistence operations for users
type UserRepository interface {
	// Ensure inserts the user when the id is unknown and returns the stored document.
	Ensure(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// StagePending records displayName and a pending email + token on the
	// user, creating the document if needed. A previous token is overwritten.
	StagePending(ctx context.Context, id string, p models.PendingVerification) error
	// Redeem promotes pendingEmail to email for the user holding token, provided
	// it has not expired at now, and clears the staging fields.
	Redeem(ctx context.Context, token string, now time.Time) (*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

// EnsureIndexes creates the sparse unique index used by token lookups.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "emailVerificationToken", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	return err
}

func (r *MongoUserRepository) Ensure(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	onInsert := bson.M{"createdAt": now, "updatedAt": now}
	if u.DisplayName != "" {
		onInsert["displayName"] = u.DisplayName
	}
	if u.Email != "" {
		onInsert["email"] = u.Email
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": u.ID}, bson.M{"$setOnInsert": onInsert}, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return &stored, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) StagePending(ctx context.Context, id string, p models.PendingVerification) error {
	now := time.Now().UTC()
	set := bson.M{
		"pendingEmail":               p.Email,
		"emailVerificationToken":     p.Token,
		"emailVerificationExpiresAt": p.ExpiresAt.UTC(),
		"updatedAt":                  now,
	}
	if p.DisplayName != "" {
		set["displayName"] = p.DisplayName
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": now}}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("stage pending email: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Redeem(ctx context.Context, token string, now time.Time) (*models.User, error) {
	filter := bson.M{
		"emailVerificationToken":     token,
		"emailVerificationExpiresAt": bson.M{"$gt": now.UTC()},
	}
	// pipeline update so email can be assigned from pendingEmail in one write
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"email": "$pendingEmail", "updatedAt": now.UTC()}}},
		{{Key: "$unset", Value: bson.A{"pendingEmail", "emailVerificationToken", "emailVerificationExpiresAt"}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("redeem token: %w", err)
	}
	return &u, nil
}
