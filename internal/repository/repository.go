package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseTemplateRepository manages exercise templates.
type ExerciseTemplateRepository interface {
	Create(ctx context.Context, template *domain.ExerciseTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error)
	List(ctx context.Context, activeOnly bool) ([]domain.ExerciseTemplate, error)
	SetMediaKey(ctx context.Context, id primitive.ObjectID, kind domain.MediaKind, key string) error
}

// CatalogRepository serves the read side of course generation plus the
// admin writes that change it.
type CatalogRepository interface {
	// ListEntries returns active mappings joined with their active templates
	// for the given body parts, ordered by (bodyPartId, priority).
	ListEntries(ctx context.Context, bodyPartIDs []primitive.ObjectID) ([]domain.CatalogEntry, error)
	// ListContraindications returns active rules for the given body parts.
	ListContraindications(ctx context.Context, bodyPartIDs []primitive.ObjectID) ([]domain.Contraindication, error)
	ListBodyParts(ctx context.Context) ([]domain.BodyPart, error)

	CreateBodyPart(ctx context.Context, bp *domain.BodyPart) (primitive.ObjectID, error)
	CreateMapping(ctx context.Context, m *domain.BodyPartExerciseMapping) (primitive.ObjectID, error)
	CreateContraindication(ctx context.Context, c *domain.Contraindication) (primitive.ObjectID, error)
}

// CompletionLogRepository stores exercise completion history.
type CompletionLogRepository interface {
	Create(ctx context.Context, log *domain.CompletionLog) (primitive.ObjectID, error)
	// ListSince returns the user's logs completed at or after since, newest
	// first.
	ListSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]domain.CompletionLog, error)
}

// PainProfileRepository stores standing pain reports.
type PainProfileRepository interface {
	Upsert(ctx context.Context, profile *domain.PainProfile) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.PainProfile, error)
}

// CourseRepository stores generated courses.
type CourseRepository interface {
	// Create inserts course. A non-nil course.ID is kept.
	Create(ctx context.Context, course *domain.Course) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Course, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.Course, error)
}
