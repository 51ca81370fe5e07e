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
	"alcyxob/rehab-course/internal/course"
	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/observability"
	"alcyxob/rehab-course/internal/repository"
)

var (
	ErrInvalidCompletion   = errors.New("invalid completion log")
	ErrExerciseNotInCourse = errors.New("exercise is not part of this course")
	ErrInvalidPainProfile  = errors.New("invalid pain profile")
)

// AnalysisSettings bound the history windows the analyses look at.
type AnalysisSettings struct {
	PreferenceLookback time.Duration
	IssueLookback      time.Duration
	Location           *time.Location
}

// AnalysisService derives preferences and issues from a user's history and
// records that history. Read failures never surface: the affected analysis
// falls back to its empty default.
type AnalysisService interface {
	Preferences(ctx context.Context, userID primitive.ObjectID) analysis.Preferences
	Issues(ctx context.Context, userID primitive.ObjectID) []analysis.Issue
	// Snapshot runs both analyses over a single history read.
	Snapshot(ctx context.Context, userID primitive.ObjectID) (analysis.Preferences, []analysis.Issue)

	RecordCompletion(ctx context.Context, userID, courseID, templateID primitive.ObjectID, status analysis.Status, painAfter *int) (*domain.CompletionLog, error)
	UpsertPainProfile(ctx context.Context, userID, bodyPartID primitive.ObjectID, painLevel int) (*domain.PainProfile, error)
	ListPainProfiles(ctx context.Context, userID primitive.ObjectID) ([]domain.PainProfile, error)
}

type analysisService struct {
	logRepo     repository.CompletionLogRepository
	profileRepo repository.PainProfileRepository
	courseRepo  repository.CourseRepository
	catalogRepo repository.CatalogRepository
	settings    AnalysisSettings
	now         func() time.Time
	log         *logger.Logger
	metrics     *observability.Metrics
}

// NewAnalysisService creates a new instance of analysisService.
func NewAnalysisService(
	logRepo repository.CompletionLogRepository,
	profileRepo repository.PainProfileRepository,
	courseRepo repository.CourseRepository,
	catalogRepo repository.CatalogRepository,
	settings AnalysisSettings,
	log *logger.Logger,
	metrics *observability.Metrics,
) AnalysisService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &analysisService{
		logRepo:     logRepo,
		profileRepo: profileRepo,
		courseRepo:  courseRepo,
		catalogRepo: catalogRepo,
		settings:    settings,
		now:         time.Now,
		log:         log.With("service", "AnalysisService"),
		metrics:     metrics,
	}
}

func (s *analysisService) Preferences(ctx context.Context, userID primitive.ObjectID) analysis.Preferences {
	logs, err := s.logRepo.ListSince(ctx, userID, s.now().Add(-s.settings.PreferenceLookback))
	if err != nil {
		s.fallback(userID, "preferences", err)
		return analysis.DefaultPreferences()
	}
	return analysis.AnalyzePreferences(toAnalysisLogs(logs, time.Time{}), s.settings.Location)
}

func (s *analysisService) Issues(ctx context.Context, userID primitive.ObjectID) []analysis.Issue {
	var (
		profiles []domain.PainProfile
		logs     []domain.CompletionLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profiles, err = s.profileRepo.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.logRepo.ListSince(gctx, userID, s.now().Add(-s.settings.IssueLookback))
		return err
	})
	if err := g.Wait(); err != nil {
		s.fallback(userID, "issues", err)
		return []analysis.Issue{}
	}
	return analysis.DetectIssues(toAnalysisProfiles(profiles), toAnalysisLogs(logs, time.Time{}))
}

func (s *analysisService) Snapshot(ctx context.Context, userID primitive.ObjectID) (analysis.Preferences, []analysis.Issue) {
	now := s.now()
	prefSince := now.Add(-s.settings.PreferenceLookback)
	issueSince := now.Add(-s.settings.IssueLookback)

	var (
		profiles    []domain.PainProfile
		logs        []domain.CompletionLog
		profilesErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Profiles only feed issue detection; their failure must not cost
		// the preferences.
		profiles, profilesErr = s.profileRepo.ListByUser(gctx, userID)
		return nil
	})
	g.Go(func() error {
		var err error
		logs, err = s.logRepo.ListSince(gctx, userID, earliest(prefSince, issueSince))
		return err
	})
	if err := g.Wait(); err != nil {
		s.fallback(userID, "preferences", err)
		s.fallback(userID, "issues", err)
		return analysis.DefaultPreferences(), []analysis.Issue{}
	}

	prefs := analysis.AnalyzePreferences(toAnalysisLogs(logs, prefSince), s.settings.Location)
	if profilesErr != nil {
		s.fallback(userID, "issues", profilesErr)
		return prefs, []analysis.Issue{}
	}
	return prefs, analysis.DetectIssues(toAnalysisProfiles(profiles), toAnalysisLogs(logs, issueSince))
}

func (s *analysisService) RecordCompletion(ctx context.Context, userID, courseID, templateID primitive.ObjectID, status analysis.Status, painAfter *int) (*domain.CompletionLog, error) {
	if status != analysis.StatusCompleted && status != analysis.StatusSkipped {
		return nil, fmt.Errorf("%w: status must be %q or %q", ErrInvalidCompletion, analysis.StatusCompleted, analysis.StatusSkipped)
	}
	if painAfter != nil && (*painAfter < course.MinPainLevel || *painAfter > course.MaxPainLevel) {
		return nil, fmt.Errorf("%w: pain after must be 1..5", ErrInvalidCompletion)
	}

	c, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrCourseNotFound
	}
	idx := slices.IndexFunc(c.Exercises, func(e course.Exercise) bool {
		return e.TemplateID == templateID.Hex()
	})
	if idx < 0 {
		return nil, ErrExerciseNotInCourse
	}
	ex := c.Exercises[idx]

	entry := &domain.CompletionLog{
		UserID:                userID,
		CourseID:              courseID,
		ExerciseTemplateID:    templateID,
		ExerciseName:          ex.TemplateName,
		Status:                status,
		PainAfter:             painAfter,
		CompletedAt:           s.now().UTC(),
		CourseDurationMinutes: c.TotalDurationMinutes,
	}
	if len(ex.BodyPartIDs) > 0 {
		// Shared exercises are attributed to the first body part they serve.
		if bpID, err := primitive.ObjectIDFromHex(ex.BodyPartIDs[0]); err == nil {
			entry.BodyPartID = bpID
		}
	}

	id, err := s.logRepo.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	return entry, nil
}

func (s *analysisService) UpsertPainProfile(ctx context.Context, userID, bodyPartID primitive.ObjectID, painLevel int) (*domain.PainProfile, error) {
	if painLevel < course.MinPainLevel || painLevel > course.MaxPainLevel {
		return nil, fmt.Errorf("%w: pain level must be 1..5", ErrInvalidPainProfile)
	}
	parts, err := s.catalogRepo.ListBodyParts(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(parts, func(bp domain.BodyPart) bool { return bp.ID == bodyPartID })
	if idx < 0 {
		return nil, ErrBodyPartNotFound
	}

	profile := &domain.PainProfile{
		UserID:       userID,
		BodyPartID:   bodyPartID,
		BodyPartName: parts[idx].DisplayName,
		PainLevel:    painLevel,
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *analysisService) ListPainProfiles(ctx context.Context, userID primitive.ObjectID) ([]domain.PainProfile, error) {
	return s.profileRepo.ListByUser(ctx, userID)
}

func (s *analysisService) fallback(userID primitive.ObjectID, kind string, err error) {
	s.log.Warn("analysis fell back to defaults", "userId", userID.Hex(), "analysis", kind, "error", err)
	s.metrics.AnalysisFallback(kind)
}

// toAnalysisLogs converts logs completed at or after since.
func toAnalysisLogs(logs []domain.CompletionLog, since time.Time) []analysis.Log {
	out := make([]analysis.Log, 0, len(logs))
	for _, l := range logs {
		if l.CompletedAt.Before(since) {
			continue
		}
		out = append(out, l.AnalysisLog())
	}
	return out
}

func toAnalysisProfiles(profiles []domain.PainProfile) []analysis.PainProfile {
	out := make([]analysis.PainProfile, len(profiles))
	for i, p := range profiles {
		out[i] = p.AnalysisProfile()
	}
	return out
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
