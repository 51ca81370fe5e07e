package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/repository"
)

const (
	completionLogCollectionName = "completion_logs"
	painProfileCollectionName   = "pain_profiles"
)

// mongoCompletionLogRepository implements repository.CompletionLogRepository
type mongoCompletionLogRepository struct {
	collection *mongo.Collection
}

// NewMongoCompletionLogRepository creates a completion log repository backed by MongoDB.
func NewMongoCompletionLogRepository(db *mongo.Database) repository.CompletionLogRepository {
	return &mongoCompletionLogRepository{collection: db.Collection(completionLogCollectionName)}
}

// Create inserts a completion log. A zero CompletedAt is set to now.
func (r *mongoCompletionLogRepository) Create(ctx context.Context, log *domain.CompletionLog) (primitive.ObjectID, error) {
	if log.UserID.IsZero() || log.ExerciseTemplateID.IsZero() {
		return primitive.NilObjectID, errors.New("completion log user and exercise are required")
	}
	log.ID = primitive.NewObjectID()
	if log.CompletedAt.IsZero() {
		log.CompletedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, log); err != nil {
		return primitive.NilObjectID, err
	}
	return log.ID, nil
}

// ListSince returns the user's logs since the given time, newest first.
func (r *mongoCompletionLogRepository) ListSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]domain.CompletionLog, error) {
	filter := bson.M{
		"userId":      userID,
		"completedAt": bson.M{"$gte": since},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []domain.CompletionLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureCompletionLogIndexes creates necessary indexes for completion logs.
func EnsureCompletionLogIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "completedAt", Value: -1}},
		Options: options.Index(),
	})
	return err
}

// mongoPainProfileRepository implements repository.PainProfileRepository
type mongoPainProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoPainProfileRepository creates a pain profile repository backed by MongoDB.
func NewMongoPainProfileRepository(db *mongo.Database) repository.PainProfileRepository {
	return &mongoPainProfileRepository{collection: db.Collection(painProfileCollectionName)}
}

// Upsert creates or replaces the profile for (userId, bodyPartId).
func (r *mongoPainProfileRepository) Upsert(ctx context.Context, profile *domain.PainProfile) error {
	if profile.UserID.IsZero() || profile.BodyPartID.IsZero() {
		return errors.New("pain profile user and body part are required")
	}
	profile.UpdatedAt = time.Now().UTC()

	filter := bson.M{"userId": profile.UserID, "bodyPartId": profile.BodyPartID}
	update := bson.M{
		"$set": bson.M{
			"bodyPartName": profile.BodyPartName,
			"painLevel":    profile.PainLevel,
			"updatedAt":    profile.UpdatedAt,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// ListByUser returns all standing pain profiles of a user.
func (r *mongoPainProfileRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.PainProfile, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "bodyPartName", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []domain.PainProfile{}
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// EnsurePainProfileIndexes creates the unique (userId, bodyPartId) index.
func EnsurePainProfileIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "bodyPartId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
