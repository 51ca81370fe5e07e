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
	bodyPartCollectionName         = "body_parts"
	mappingCollectionName          = "body_part_exercises"
	contraindicationCollectionName = "contraindications"
)

// mongoCatalogRepository implements repository.CatalogRepository over the
// body part, mapping, template and contraindication collections.
type mongoCatalogRepository struct {
	bodyParts         *mongo.Collection
	mappings          *mongo.Collection
	contraindications *mongo.Collection
}

// NewMongoCatalogRepository creates a catalog repository backed by MongoDB.
func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		bodyParts:         db.Collection(bodyPartCollectionName),
		mappings:          db.Collection(mappingCollectionName),
		contraindications: db.Collection(contraindicationCollectionName),
	}
}

// catalogRow is a mapping document with its template joined in.
type catalogRow struct {
	domain.BodyPartExerciseMapping `bson:",inline"`
	Template                       domain.ExerciseTemplate `bson:"template"`
}

// ListEntries joins active mappings with their active templates.
func (r *mongoCatalogRepository) ListEntries(ctx context.Context, bodyPartIDs []primitive.ObjectID) ([]domain.CatalogEntry, error) {
	if len(bodyPartIDs) == 0 {
		return []domain.CatalogEntry{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bodyPartId": bson.M{"$in": bodyPartIDs}, "active": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         templateCollectionName,
			"localField":   "exerciseTemplateId",
			"foreignField": "_id",
			"as":           "template",
		}}},
		{{Key: "$unwind", Value: "$template"}},
		{{Key: "$match", Value: bson.M{"template.active": true}}},
		{{Key: "$sort", Value: bson.D{{Key: "bodyPartId", Value: 1}, {Key: "priority", Value: 1}}}},
	}

	cursor, err := r.mappings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []catalogRow
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	entries := make([]domain.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.CatalogEntry{Mapping: row.BodyPartExerciseMapping, Template: row.Template})
	}
	return entries, nil
}

// ListContraindications returns active rules for the body parts.
func (r *mongoCatalogRepository) ListContraindications(ctx context.Context, bodyPartIDs []primitive.ObjectID) ([]domain.Contraindication, error) {
	if len(bodyPartIDs) == 0 {
		return []domain.Contraindication{}, nil
	}
	filter := bson.M{"bodyPartId": bson.M{"$in": bodyPartIDs}, "active": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "exerciseTemplateId", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.contraindications.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rules := []domain.Contraindication{}
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// ListBodyParts returns active body parts sorted by key.
func (r *mongoCatalogRepository) ListBodyParts(ctx context.Context) ([]domain.BodyPart, error) {
	cursor, err := r.bodyParts.Find(ctx, bson.M{"active": true}, options.Find().SetSort(bson.D{{Key: "key", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	parts := []domain.BodyPart{}
	if err = cursor.All(ctx, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// CreateBodyPart inserts a body part. Keys are unique.
func (r *mongoCatalogRepository) CreateBodyPart(ctx context.Context, bp *domain.BodyPart) (primitive.ObjectID, error) {
	if bp.Key == "" {
		return primitive.NilObjectID, errors.New("body part key is required")
	}
	bp.ID = primitive.NewObjectID()
	bp.CreatedAt = time.Now().UTC()
	return insertOne(ctx, r.bodyParts, bp, bp.ID)
}

// CreateMapping inserts a body part to template mapping.
func (r *mongoCatalogRepository) CreateMapping(ctx context.Context, m *domain.BodyPartExerciseMapping) (primitive.ObjectID, error) {
	if m.BodyPartID.IsZero() || m.ExerciseTemplateID.IsZero() {
		return primitive.NilObjectID, errors.New("mapping body part and template are required")
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	return insertOne(ctx, r.mappings, m, m.ID)
}

// CreateContraindication inserts a contraindication rule.
func (r *mongoCatalogRepository) CreateContraindication(ctx context.Context, c *domain.Contraindication) (primitive.ObjectID, error) {
	if c.BodyPartID.IsZero() || c.ExerciseTemplateID.IsZero() {
		return primitive.NilObjectID, errors.New("contraindication body part and template are required")
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	return insertOne(ctx, r.contraindications, c, c.ID)
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}, id primitive.ObjectID) (primitive.ObjectID, error) {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return id, nil
}

// EnsureCatalogIndexes creates indexes for body parts, mappings and
// contraindications.
func EnsureCatalogIndexes(ctx context.Context, db *mongo.Database) error {
	_, errBP := db.Collection(bodyPartCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, errMap := db.Collection(mappingCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bodyPartId", Value: 1}, {Key: "priority", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "bodyPartId", Value: 1}, {Key: "exerciseTemplateId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	_, errCI := db.Collection(contraindicationCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bodyPartId", Value: 1}, {Key: "active", Value: 1}},
		Options: options.Index(),
	})
	return errors.Join(errBP, errMap, errCI)
}
