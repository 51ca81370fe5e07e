package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/background"
	"alcyxob/rehab-course/internal/cache"
	"alcyxob/rehab-course/internal/course"
	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/repository"
	"alcyxob/rehab-course/internal/storage"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise template not found")
	ErrBodyPartNotFound = errors.New("body part not found")
	ErrValidationFailed = errors.New("catalog validation failed")
	ErrBodyPartExists   = errors.New("body part with this key already exists")
	ErrMappingExists    = errors.New("exercise is already mapped to this body part")
	ErrUploadNotFound   = errors.New("uploaded media object not found")
)

// MediaUpload is a presigned PUT handed to an admin client.
type MediaUpload struct {
	UploadURL string           `json:"uploadUrl"`
	ObjectKey string           `json:"objectKey"`
	Kind      domain.MediaKind `json:"kind"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// CatalogService maintains exercise templates, body parts, mappings and
// contraindications, and serves template media.
type CatalogService interface {
	CreateTemplate(ctx context.Context, t *domain.ExerciseTemplate) (*domain.ExerciseTemplate, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]domain.ExerciseTemplate, error)
	ListBodyParts(ctx context.Context) ([]domain.BodyPart, error)
	CreateBodyPart(ctx context.Context, key, displayName string) (*domain.BodyPart, error)
	CreateMapping(ctx context.Context, m *domain.BodyPartExerciseMapping) (*domain.BodyPartExerciseMapping, error)
	CreateContraindication(ctx context.Context, c *domain.Contraindication) (*domain.Contraindication, error)
	// RequestMediaUpload returns a presigned PUT for a fresh object key in the
	// template's media slot. The template is not changed until the upload is
	// confirmed.
	RequestMediaUpload(ctx context.Context, templateID primitive.ObjectID, kind domain.MediaKind, fileName, contentType string) (*MediaUpload, error)
	// ConfirmMediaUpload points the media slot at an uploaded object and
	// deletes the object it replaces in the background.
	ConfirmMediaUpload(ctx context.Context, templateID primitive.ObjectID, kind domain.MediaKind, objectKey string) (*domain.ExerciseTemplate, error)
	// MediaURLs returns viewable URLs for every populated media slot.
	MediaURLs(ctx context.Context, templateID primitive.ObjectID) (map[domain.MediaKind]string, error)
}

type catalogService struct {
	templateRepo repository.ExerciseTemplateRepository
	catalogRepo  repository.CatalogRepository
	fileStorage  storage.FileStorage
	queue        *background.Queue
	mediaExpiry  time.Duration
	log          *logger.Logger
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(
	templateRepo repository.ExerciseTemplateRepository,
	catalogRepo repository.CatalogRepository,
	fileStorage storage.FileStorage,
	queue *background.Queue,
	mediaExpiry time.Duration,
	log *logger.Logger,
) CatalogService {
	return &catalogService{
		templateRepo: templateRepo,
		catalogRepo:  catalogRepo,
		fileStorage:  fileStorage,
		queue:        queue,
		mediaExpiry:  mediaExpiry,
		log:          log.With("service", "CatalogService"),
	}
}

func (s *catalogService) CreateTemplate(ctx context.Context, t *domain.ExerciseTemplate) (*domain.ExerciseTemplate, error) {
	t.Name = strings.TrimSpace(t.Name)
	switch {
	case t.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	case t.IntensityLevel < 0 || t.IntensityLevel > 4:
		return nil, fmt.Errorf("%w: intensity level must be 1..4", ErrValidationFailed)
	case t.DifficultyScore < 0 || t.DifficultyScore > 10:
		return nil, fmt.Errorf("%w: difficulty score must be 1..10", ErrValidationFailed)
	case t.DurationMinutes < 0 || t.Sets < 0 || t.Reps < 0 || t.RestSeconds < 0:
		return nil, fmt.Errorf("%w: durations and counts cannot be negative", ErrValidationFailed)
	}
	t.Active = true

	id, err := s.templateRepo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.templateRepo.GetByID(ctx, id)
}

func (s *catalogService) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.ExerciseTemplate, error) {
	return s.templateRepo.List(ctx, activeOnly)
}

func (s *catalogService) ListBodyParts(ctx context.Context) ([]domain.BodyPart, error) {
	return s.catalogRepo.ListBodyParts(ctx)
}

func (s *catalogService) CreateBodyPart(ctx context.Context, key, displayName string) (*domain.BodyPart, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrValidationFailed)
	}
	if displayName == "" {
		displayName = key
	}
	bp := &domain.BodyPart{Key: key, DisplayName: displayName, Active: true}
	id, err := s.catalogRepo.CreateBodyPart(ctx, bp)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrBodyPartExists
		}
		return nil, err
	}
	bp.ID = id
	return bp, nil
}

func (s *catalogService) CreateMapping(ctx context.Context, m *domain.BodyPartExerciseMapping) (*domain.BodyPartExerciseMapping, error) {
	if m.Priority < 0 {
		return nil, fmt.Errorf("%w: priority cannot be negative", ErrValidationFailed)
	}
	if m.IntensityLevel < 0 || m.IntensityLevel > 4 {
		return nil, fmt.Errorf("%w: intensity level must be 1..4", ErrValidationFailed)
	}
	if !validPainLevelRange(m.PainLevelRange) {
		return nil, fmt.Errorf("%w: pain level range %q matches no pain level", ErrValidationFailed, m.PainLevelRange)
	}
	if err := s.requireBodyPart(ctx, m.BodyPartID); err != nil {
		return nil, err
	}
	if _, err := s.getTemplate(ctx, m.ExerciseTemplateID); err != nil {
		return nil, err
	}
	m.Active = true

	id, err := s.catalogRepo.CreateMapping(ctx, m)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMappingExists
		}
		return nil, err
	}
	m.ID = id
	return m, nil
}

func (s *catalogService) CreateContraindication(ctx context.Context, c *domain.Contraindication) (*domain.Contraindication, error) {
	if c.Severity != course.SeverityStrict && c.Severity != course.SeverityWarning {
		return nil, fmt.Errorf("%w: severity must be %q or %q", ErrValidationFailed, course.SeverityStrict, course.SeverityWarning)
	}
	if c.PainLevelMin != nil && (*c.PainLevelMin < course.MinPainLevel || *c.PainLevelMin > course.MaxPainLevel) {
		return nil, fmt.Errorf("%w: minimum pain level must be 1..5", ErrValidationFailed)
	}
	if err := s.requireBodyPart(ctx, c.BodyPartID); err != nil {
		return nil, err
	}
	tmpl, err := s.getTemplate(ctx, c.ExerciseTemplateID)
	if err != nil {
		return nil, err
	}
	c.ExerciseName = tmpl.Name
	c.Active = true

	id, err := s.catalogRepo.CreateContraindication(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

func (s *catalogService) RequestMediaUpload(ctx context.Context, templateID primitive.ObjectID, kind domain.MediaKind, fileName, contentType string) (*MediaUpload, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown media kind %q", ErrValidationFailed, kind)
	}
	if fileName == "" || contentType == "" {
		return nil, fmt.Errorf("%w: file name and content type are required", ErrValidationFailed)
	}
	if _, err := s.getTemplate(ctx, templateID); err != nil {
		return nil, err
	}

	objectKey := storage.MediaObjectKey(templateID.Hex(), string(kind), fileName)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, s.mediaExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	s.log.Info("media upload requested", "templateId", templateID.Hex(), "kind", kind, "key", objectKey)
	return &MediaUpload{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		Kind:      kind,
		ExpiresAt: time.Now().Add(s.mediaExpiry),
	}, nil
}

// ConfirmMediaUpload is called after the client has PUT the object with the
// URL from RequestMediaUpload.
func (s *catalogService) ConfirmMediaUpload(ctx context.Context, templateID primitive.ObjectID, kind domain.MediaKind, objectKey string) (*domain.ExerciseTemplate, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown media kind %q", ErrValidationFailed, kind)
	}
	if !strings.HasPrefix(objectKey, storage.MediaKeyPrefix(templateID.Hex(), string(kind))) {
		return nil, fmt.Errorf("%w: object key does not belong to this %s slot", ErrValidationFailed, kind)
	}
	tmpl, err := s.getTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	old := tmpl.MediaKey(kind)
	if old == objectKey {
		return tmpl, nil
	}

	exists, err := s.fileStorage.ObjectExists(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("check uploaded object: %w", err)
	}
	if !exists {
		return nil, ErrUploadNotFound
	}

	if err := s.templateRepo.SetMediaKey(ctx, templateID, kind, objectKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	// Cached catalog entries embed the old key.
	cache.Invalidate(ctx, s.catalogRepo)

	if old != "" && !storage.IsExternalURL(old) {
		s.queue.Submit("media.delete", func(ctx context.Context) error {
			return s.fileStorage.DeleteObject(ctx, old)
		})
	}

	s.log.Info("media upload confirmed", "templateId", templateID.Hex(), "kind", kind, "key", objectKey, "replaced", old)
	return s.templateRepo.GetByID(ctx, templateID)
}

func (s *catalogService) MediaURLs(ctx context.Context, templateID primitive.ObjectID) (map[domain.MediaKind]string, error) {
	tmpl, err := s.getTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	urls := make(map[domain.MediaKind]string, 3)
	for _, kind := range []domain.MediaKind{domain.MediaImage, domain.MediaGif, domain.MediaVideo} {
		if u := resolveMediaURL(ctx, s.fileStorage, tmpl.MediaKey(kind), s.mediaExpiry, s.log); u != "" {
			urls[kind] = u
		}
	}
	return urls, nil
}

func (s *catalogService) getTemplate(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error) {
	if id.IsZero() {
		return nil, ErrExerciseNotFound
	}
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return tmpl, nil
}

func (s *catalogService) requireBodyPart(ctx context.Context, id primitive.ObjectID) error {
	parts, err := s.catalogRepo.ListBodyParts(ctx)
	if err != nil {
		return err
	}
	for _, bp := range parts {
		if bp.ID == id {
			return nil
		}
	}
	return ErrBodyPartNotFound
}

// validPainLevelRange accepts a range that matches at least one pain level.
func validPainLevelRange(r string) bool {
	for p := course.MinPainLevel; p <= course.MaxPainLevel; p++ {
		if course.MatchesPainLevelRange(r, p) {
			return true
		}
	}
	return false
}

// resolveMediaURL turns a stored media reference into a viewable URL.
// External URLs are returned as-is; presign failures yield "".
func resolveMediaURL(ctx context.Context, fs storage.FileStorage, ref string, expiry time.Duration, log *logger.Logger) string {
	if ref == "" || storage.IsExternalURL(ref) {
		return ref
	}
	if fs == nil {
		return ""
	}
	u, err := fs.GeneratePresignedDownloadURL(ctx, ref, expiry)
	if err != nil {
		log.Warn("media presign failed", "key", ref, "error", err)
		return ""
	}
	return u
}
