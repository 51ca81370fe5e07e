package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/events"
	"alcyxob/rehab-course/internal/repository"
)

var errBoom = errors.New("boom")

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	stored := *u
	stored.ID = primitive.NewObjectID()
	r.users[u.Email] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[primitive.ObjectID]*domain.ExerciseTemplate
}

func newFakeTemplateRepo(templates ...domain.ExerciseTemplate) *fakeTemplateRepo {
	r := &fakeTemplateRepo{templates: map[primitive.ObjectID]*domain.ExerciseTemplate{}}
	for i := range templates {
		t := templates[i]
		r.templates[t.ID] = &t
	}
	return r
}

func (r *fakeTemplateRepo) Create(_ context.Context, t *domain.ExerciseTemplate) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	stored.ID = primitive.NewObjectID()
	r.templates[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, activeOnly bool) ([]domain.ExerciseTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ExerciseTemplate{}
	for _, t := range r.templates {
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTemplateRepo) SetMediaKey(_ context.Context, id primitive.ObjectID, kind domain.MediaKind, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch kind {
	case domain.MediaImage:
		t.ImageKey = key
	case domain.MediaGif:
		t.GifKey = key
	case domain.MediaVideo:
		t.VideoKey = key
	}
	return nil
}

type fakeCatalogRepo struct {
	mu       sync.Mutex
	parts    []domain.BodyPart
	entries  []domain.CatalogEntry
	rules    []domain.Contraindication
	mappings []domain.BodyPartExerciseMapping
	err      error
	lastIDs  []primitive.ObjectID
}

func (r *fakeCatalogRepo) ListEntries(_ context.Context, ids []primitive.ObjectID) ([]domain.CatalogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.lastIDs = slices.Clone(ids)
	out := []domain.CatalogEntry{}
	for _, e := range r.entries {
		if slices.Contains(ids, e.Mapping.BodyPartID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListContraindications(_ context.Context, ids []primitive.ObjectID) ([]domain.Contraindication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []domain.Contraindication{}
	for _, c := range r.rules {
		if slices.Contains(ids, c.BodyPartID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListBodyParts(context.Context) ([]domain.BodyPart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return slices.Clone(r.parts), nil
}

func (r *fakeCatalogRepo) CreateBodyPart(_ context.Context, bp *domain.BodyPart) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.parts {
		if p.Key == bp.Key {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	stored := *bp
	stored.ID = primitive.NewObjectID()
	r.parts = append(r.parts, stored)
	return stored.ID, nil
}

func (r *fakeCatalogRepo) CreateMapping(_ context.Context, m *domain.BodyPartExerciseMapping) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *m
	stored.ID = primitive.NewObjectID()
	r.mappings = append(r.mappings, stored)
	return stored.ID, nil
}

func (r *fakeCatalogRepo) CreateContraindication(_ context.Context, c *domain.Contraindication) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *c
	stored.ID = primitive.NewObjectID()
	r.rules = append(r.rules, stored)
	return stored.ID, nil
}

type fakeCourseRepo struct {
	mu      sync.Mutex
	courses map[primitive.ObjectID]domain.Course
}

func newFakeCourseRepo(courses ...domain.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: map[primitive.ObjectID]domain.Course{}}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	return r
}

func (r *fakeCourseRepo) Create(_ context.Context, c *domain.Course) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.courses[c.ID] = *c
	return c.ID, nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *fakeCourseRepo) ListByUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Course{}
	for _, c := range r.courses {
		if c.UserID == userID && int64(len(out)) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) get(id primitive.ObjectID) (domain.Course, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	return c, ok
}

type fakeLogRepo struct {
	mu     sync.Mutex
	logs   []domain.CompletionLog
	err    error
	since  time.Time
	listed int
}

func (r *fakeLogRepo) Create(_ context.Context, l *domain.CompletionLog) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *l
	stored.ID = primitive.NewObjectID()
	r.logs = append(r.logs, stored)
	return stored.ID, nil
}

func (r *fakeLogRepo) ListSince(_ context.Context, userID primitive.ObjectID, since time.Time) ([]domain.CompletionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listed++
	r.since = since
	if r.err != nil {
		return nil, r.err
	}
	out := []domain.CompletionLog{}
	for _, l := range r.logs {
		if l.UserID == userID && !l.CompletedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles []domain.PainProfile
	err      error
}

func (r *fakeProfileRepo) Upsert(_ context.Context, p *domain.PainProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.profiles {
		if existing.UserID == p.UserID && existing.BodyPartID == p.BodyPartID {
			r.profiles[i].PainLevel = p.PainLevel
			return nil
		}
	}
	r.profiles = append(r.profiles, *p)
	return nil
}

func (r *fakeProfileRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.PainProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []domain.PainProfile{}
	for _, p := range r.profiles {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeStorage struct {
	mu       sync.Mutex
	deleted  []string
	uploaded map[string]bool
	failGet  bool
}

// put records an object as if a client had used a presigned PUT.
func (s *fakeStorage) put(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploaded == nil {
		s.uploaded = make(map[string]bool)
	}
	s.uploaded[key] = true
}

func (s *fakeStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded[key], nil
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://s3.test/upload/" + key, nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.failGet {
		return "", errBoom
	}
	return "https://s3.test/" + key, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.CourseGenerated
}

func (p *fakePublisher) PublishCourseGenerated(_ context.Context, evt events.CourseGenerated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}
