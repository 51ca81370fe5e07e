package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"alcyxob/rehab-course/internal/analysis"
	"alcyxob/rehab-course/internal/background"
	"alcyxob/rehab-course/internal/course"
	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/events"
	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/observability"
	"alcyxob/rehab-course/internal/repository"
	"alcyxob/rehab-course/internal/storage"
)

var ErrCourseNotFound = errors.New("course not found")

// Background task names.
const (
	taskPersistCourse = "course.persist"
	taskPublishCourse = "course.publish"
)

// GeneratedCourse is the response of a generation request. The course is
// persisted in the background under CourseID.
type GeneratedCourse struct {
	CourseID   primitive.ObjectID          `json:"courseId"`
	Result     course.Result               `json:"result"`
	Adjustment *analysis.RoutineAdjustment `json:"adjustment,omitempty"`
}

// CoursePublisher is the event sink for generated courses.
type CoursePublisher interface {
	PublishCourseGenerated(ctx context.Context, evt events.CourseGenerated) error
}

type CourseService interface {
	// Generate composes a course for userID. With autoAdjust the request is
	// first adapted to the user's history.
	Generate(ctx context.Context, userID primitive.ObjectID, req course.Request, autoAdjust bool) (*GeneratedCourse, error)
	GetCourse(ctx context.Context, userID, courseID primitive.ObjectID) (*domain.Course, error)
	ListCourses(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.Course, error)
}

type courseService struct {
	catalogRepo repository.CatalogRepository
	courseRepo  repository.CourseRepository
	analysis    AnalysisService
	fileStorage storage.FileStorage
	publisher   CoursePublisher
	queue       *background.Queue
	mediaExpiry time.Duration
	log         *logger.Logger
	metrics     *observability.Metrics
}

// NewCourseService creates a new instance of courseService. A nil publisher
// disables course events.
func NewCourseService(
	catalogRepo repository.CatalogRepository,
	courseRepo repository.CourseRepository,
	analysisService AnalysisService,
	fileStorage storage.FileStorage,
	publisher CoursePublisher,
	queue *background.Queue,
	mediaExpiry time.Duration,
	log *logger.Logger,
	metrics *observability.Metrics,
) CourseService {
	return &courseService{
		catalogRepo: catalogRepo,
		courseRepo:  courseRepo,
		analysis:    analysisService,
		fileStorage: fileStorage,
		publisher:   publisher,
		queue:       queue,
		mediaExpiry: mediaExpiry,
		log:         log.With("service", "CourseService"),
		metrics:     metrics,
	}
}

func (s *courseService) Generate(ctx context.Context, userID primitive.ObjectID, req course.Request, autoAdjust bool) (gen *GeneratedCourse, err error) {
	start := time.Now()
	defer func() {
		switch {
		case errors.Is(err, course.ErrInvalidRequest):
			s.metrics.CourseGenerated("invalid", time.Since(start), 0)
		case err != nil:
			s.metrics.CourseGenerated("error", time.Since(start), 0)
		case len(gen.Result.Exercises) == 0:
			s.metrics.CourseGenerated("empty", time.Since(start), len(gen.Result.Warnings))
		default:
			s.metrics.CourseGenerated("ok", time.Since(start), len(gen.Result.Warnings))
		}
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		opts       course.Options
		adjustment *analysis.RoutineAdjustment
	)
	if autoAdjust {
		prefs, issues := s.analysis.Snapshot(ctx, userID)
		adj := analysis.AdjustRoutine(issues, prefs, req.BodyParts)
		req.BodyParts = adj.AdjustedBodyParts
		opts = adj.Options()
		adjustment = &adj
	}

	bodyPartIDs, err := parseBodyPartIDs(req.BodyParts)
	if err != nil {
		return nil, err
	}

	var (
		entries []domain.CatalogEntry
		rules   []domain.Contraindication
		parts   []domain.BodyPart
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.catalogRepo.ListEntries(gctx, bodyPartIDs)
		return err
	})
	g.Go(func() error {
		var err error
		rules, err = s.catalogRepo.ListContraindications(gctx, bodyPartIDs)
		return err
	})
	g.Go(func() error {
		var err error
		parts, err = s.catalogRepo.ListBodyParts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	req.BodyParts = canonicalNames(req.BodyParts, parts)

	rows := make([]course.Candidate, len(entries))
	for i, e := range entries {
		rows[i] = e.Candidate()
	}
	pipelineRules := make([]course.Contraindication, len(rules))
	for i, r := range rules {
		pipelineRules[i] = r.Rule()
	}

	result, err := course.Compose(req, rows, pipelineRules, opts)
	if err != nil {
		return nil, err
	}
	if adjustment != nil && len(adjustment.Warnings) > 0 {
		result.Warnings = append(slices.Clone(adjustment.Warnings), result.Warnings...)
	}

	stored := &domain.Course{
		ID:                   primitive.NewObjectID(),
		UserID:               userID,
		BodyParts:            req.BodyParts,
		EquipmentAvailable:   req.EquipmentAvailable,
		PainLevel:            req.PainLevel,
		ExperienceLevel:      req.ExperienceLevel,
		TotalDurationMinutes: req.TotalDurationMinutes,
		AutoAdjusted:         autoAdjust,
		Exercises:            result.Exercises,
		TotalDuration:        result.TotalDuration,
		Warnings:             result.Warnings,
		Stats:                result.Stats,
		CreatedAt:            time.Now().UTC(),
	}
	s.submitPersist(stored)
	s.submitPublish(stored)

	s.log.Info("course generated",
		"userId", userID.Hex(),
		"courseId", stored.ID.Hex(),
		"exercises", len(result.Exercises),
		"warnings", len(result.Warnings),
		"autoAdjust", autoAdjust,
	)

	result.Exercises = s.withMediaURLs(ctx, result.Exercises)
	return &GeneratedCourse{CourseID: stored.ID, Result: result, Adjustment: adjustment}, nil
}

func (s *courseService) GetCourse(ctx context.Context, userID, courseID primitive.ObjectID) (*domain.Course, error) {
	c, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	// Other users' courses are reported as missing.
	if c.UserID != userID {
		return nil, ErrCourseNotFound
	}
	c.Exercises = s.withMediaURLs(ctx, c.Exercises)
	return c, nil
}

func (s *courseService) ListCourses(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.Course, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.courseRepo.ListByUser(ctx, userID, limit)
}

func (s *courseService) submitPersist(c *domain.Course) {
	s.queue.Submit(taskPersistCourse, func(ctx context.Context) error {
		if _, err := s.courseRepo.Create(ctx, c); err != nil {
			return fmt.Errorf("persist course %s: %w", c.ID.Hex(), err)
		}
		return nil
	})
}

func (s *courseService) submitPublish(c *domain.Course) {
	if s.publisher == nil {
		return
	}
	ids := make([]string, len(c.BodyParts))
	for i, bp := range c.BodyParts {
		ids[i] = bp.BodyPartID
	}
	evt := events.CourseGenerated{
		CourseID:             c.ID.Hex(),
		UserID:               c.UserID.Hex(),
		BodyPartIDs:          ids,
		TotalDurationMinutes: c.TotalDurationMinutes,
		ExerciseCount:        len(c.Exercises),
		WarningCount:         len(c.Warnings),
		AutoAdjusted:         c.AutoAdjusted,
		OccurredAt:           c.CreatedAt,
	}
	s.queue.Submit(taskPublishCourse, func(ctx context.Context) error {
		return s.publisher.PublishCourseGenerated(ctx, evt)
	})
}

// withMediaURLs returns a copy of exercises whose media keys are replaced by
// viewable URLs.
func (s *courseService) withMediaURLs(ctx context.Context, exercises []course.Exercise) []course.Exercise {
	out := slices.Clone(exercises)
	for i := range out {
		out[i].ImageURL = resolveMediaURL(ctx, s.fileStorage, out[i].ImageURL, s.mediaExpiry, s.log)
		out[i].GifURL = resolveMediaURL(ctx, s.fileStorage, out[i].GifURL, s.mediaExpiry, s.log)
		out[i].VideoURL = resolveMediaURL(ctx, s.fileStorage, out[i].VideoURL, s.mediaExpiry, s.log)
	}
	return out
}

func parseBodyPartIDs(parts []course.BodyPartSelection) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(parts))
	for _, bp := range parts {
		id, err := primitive.ObjectIDFromHex(bp.BodyPartID)
		if err != nil {
			return nil, fmt.Errorf("%w: body part id %q is malformed", course.ErrInvalidRequest, bp.BodyPartID)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// canonicalNames replaces client-supplied body part names with the catalog
// key, which is what scoring weights are keyed on.
func canonicalNames(selected []course.BodyPartSelection, parts []domain.BodyPart) []course.BodyPartSelection {
	keys := make(map[string]string, len(parts))
	for _, bp := range parts {
		keys[bp.ID.Hex()] = bp.Key
	}
	out := slices.Clone(selected)
	for i := range out {
		if key, ok := keys[out[i].BodyPartID]; ok {
			out[i].BodyPartName = key
		}
	}
	return out
}
