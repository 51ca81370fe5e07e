package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/background"
	"alcyxob/rehab-course/internal/course"
	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/logger"
)

type catalogFixture struct {
	svc       CatalogService
	templates *fakeTemplateRepo
	catalog   *fakeCatalogRepo
	storage   *fakeStorage
	queue     *background.Queue
	tmpl      domain.ExerciseTemplate
	knee      domain.BodyPart
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		tmpl: domain.ExerciseTemplate{
			ID:       primitive.NewObjectID(),
			Name:     "Heel slide",
			Active:   true,
			ImageKey: "exercises/old/image/old.png",
			VideoKey: "https://video.example.com/heel-slide.mp4",
		},
		knee:    domain.BodyPart{ID: primitive.NewObjectID(), Key: "knee", DisplayName: "Knee", Active: true},
		storage: &fakeStorage{},
	}
	f.templates = newFakeTemplateRepo(f.tmpl)
	f.catalog = &fakeCatalogRepo{parts: []domain.BodyPart{f.knee}}
	f.queue = background.NewQueue(background.Options{Workers: 1, Size: 4}, logger.NewNop(), nil)
	f.svc = NewCatalogService(f.templates, f.catalog, f.storage, f.queue, time.Minute, logger.NewNop())
	return f
}

func (f *catalogFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.queue.Shutdown(ctx))
}

func TestCreateTemplate(t *testing.T) {
	f := newCatalogFixture()
	defer f.drain(t)

	created, err := f.svc.CreateTemplate(context.Background(), &domain.ExerciseTemplate{Name: " Clamshell ", IntensityLevel: 2, DifficultyScore: 3})
	require.NoError(t, err)
	assert.Equal(t, "Clamshell", created.Name)
	assert.True(t, created.Active)

	_, err = f.svc.CreateTemplate(context.Background(), &domain.ExerciseTemplate{Name: ""})
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = f.svc.CreateTemplate(context.Background(), &domain.ExerciseTemplate{Name: "x", IntensityLevel: 5})
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = f.svc.CreateTemplate(context.Background(), &domain.ExerciseTemplate{Name: "x", DifficultyScore: 11})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCreateBodyPart(t *testing.T) {
	f := newCatalogFixture()
	defer f.drain(t)

	bp, err := f.svc.CreateBodyPart(context.Background(), " Shoulder ", "")
	require.NoError(t, err)
	assert.Equal(t, "shoulder", bp.Key)
	assert.Equal(t, "shoulder", bp.DisplayName)

	_, err = f.svc.CreateBodyPart(context.Background(), "knee", "Knee")
	assert.ErrorIs(t, err, ErrBodyPartExists)
}

func TestCreateMappingValidates(t *testing.T) {
	f := newCatalogFixture()
	defer f.drain(t)
	ctx := context.Background()

	m, err := f.svc.CreateMapping(ctx, &domain.BodyPartExerciseMapping{
		BodyPartID: f.knee.ID, ExerciseTemplateID: f.tmpl.ID, Priority: 1, PainLevelRange: "1-3",
	})
	require.NoError(t, err)
	assert.True(t, m.Active)
	assert.False(t, m.ID.IsZero())

	_, err = f.svc.CreateMapping(ctx, &domain.BodyPartExerciseMapping{BodyPartID: f.knee.ID, ExerciseTemplateID: f.tmpl.ID, PainLevelRange: "7-9"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.svc.CreateMapping(ctx, &domain.BodyPartExerciseMapping{BodyPartID: primitive.NewObjectID(), ExerciseTemplateID: f.tmpl.ID})
	assert.ErrorIs(t, err, ErrBodyPartNotFound)

	_, err = f.svc.CreateMapping(ctx, &domain.BodyPartExerciseMapping{BodyPartID: f.knee.ID, ExerciseTemplateID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestCreateContraindicationCopiesName(t *testing.T) {
	f := newCatalogFixture()
	defer f.drain(t)
	ctx := context.Background()
	four := 4

	c, err := f.svc.CreateContraindication(ctx, &domain.Contraindication{
		BodyPartID: f.knee.ID, ExerciseTemplateID: f.tmpl.ID, PainLevelMin: &four, Severity: course.SeverityStrict,
	})
	require.NoError(t, err)
	assert.Equal(t, "Heel slide", c.ExerciseName)
	assert.Equal(t, "Heel slide", c.Rule().ExerciseTemplateName)

	_, err = f.svc.CreateContraindication(ctx, &domain.Contraindication{
		BodyPartID: f.knee.ID, ExerciseTemplateID: f.tmpl.ID, Severity: course.Severity("soft"),
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRequestMediaUploadLeavesTemplateUntouched(t *testing.T) {
	f := newCatalogFixture()

	up, err := f.svc.RequestMediaUpload(context.Background(), f.tmpl.ID, domain.MediaImage, "front.PNG", "image/png")
	require.NoError(t, err)
	f.drain(t)

	assert.True(t, strings.HasPrefix(up.ObjectKey, "exercises/"+f.tmpl.ID.Hex()+"/image/"))
	assert.True(t, strings.HasSuffix(up.ObjectKey, ".png"))
	assert.Equal(t, "https://s3.test/upload/"+up.ObjectKey, up.UploadURL)

	stored, err := f.templates.GetByID(context.Background(), f.tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "exercises/old/image/old.png", stored.ImageKey)
	assert.Empty(t, f.storage.deleted)
}

func TestConfirmMediaUploadReplacesKey(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	up, err := f.svc.RequestMediaUpload(ctx, f.tmpl.ID, domain.MediaImage, "front.png", "image/png")
	require.NoError(t, err)
	f.storage.put(up.ObjectKey)

	updated, err := f.svc.ConfirmMediaUpload(ctx, f.tmpl.ID, domain.MediaImage, up.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, up.ObjectKey, updated.ImageKey)

	// Confirming twice is harmless.
	_, err = f.svc.ConfirmMediaUpload(ctx, f.tmpl.ID, domain.MediaImage, up.ObjectKey)
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, []string{"exercises/old/image/old.png"}, f.storage.deleted)
}

func TestConfirmMediaUploadKeepsExternalMedia(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	up, err := f.svc.RequestMediaUpload(ctx, f.tmpl.ID, domain.MediaVideo, "demo.mp4", "video/mp4")
	require.NoError(t, err)
	f.storage.put(up.ObjectKey)

	_, err = f.svc.ConfirmMediaUpload(ctx, f.tmpl.ID, domain.MediaVideo, up.ObjectKey)
	require.NoError(t, err)
	f.drain(t)

	assert.Empty(t, f.storage.deleted)
}

func TestConfirmMediaUploadRejects(t *testing.T) {
	f := newCatalogFixture()
	defer f.drain(t)
	ctx := context.Background()

	up, err := f.svc.RequestMediaUpload(ctx, f.tmpl.ID, domain.MediaImage, "front.png", "image/png")
	require.NoError(t, err)

	_, err = f.svc.ConfirmMediaUpload(ctx, f.tmpl.ID, domain.MediaImage, up.ObjectKey)
	assert.ErrorIs(t, err, ErrUploadNotFound)

	f.storage.put(up.ObjectKey)
	_, err = f.svc.ConfirmMediaUpload(ctx, f.tmpl.ID, domain.MediaGif, up.ObjectKey)
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = f.svc.ConfirmMediaUpload(ctx, primitive.NewObjectID(), domain.MediaImage, up.ObjectKey)
	assert.ErrorIs(t, err, ErrValidationFailed)

	stored, err := f.templates.GetByID(ctx, f.tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "exercises/old/image/old.png", stored.ImageKey)
}

func TestRequestMediaUploadValidates(t *testing.T) {
	f := newCatalogFixture()
	defer f.drain(t)

	_, err := f.svc.RequestMediaUpload(context.Background(), f.tmpl.ID, domain.MediaKind("audio"), "a.mp3", "audio/mpeg")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.svc.RequestMediaUpload(context.Background(), primitive.NewObjectID(), domain.MediaGif, "a.gif", "image/gif")
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestMediaURLs(t *testing.T) {
	f := newCatalogFixture()
	defer f.drain(t)

	urls, err := f.svc.MediaURLs(context.Background(), f.tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, map[domain.MediaKind]string{
		domain.MediaImage: "https://s3.test/exercises/old/image/old.png",
		domain.MediaVideo: "https://video.example.com/heel-slide.mp4",
	}, urls)

	f.storage.failGet = true
	urls, err = f.svc.MediaURLs(context.Background(), f.tmpl.ID)
	require.NoError(t, err)
	assert.NotContains(t, urls, domain.MediaImage)
	assert.Contains(t, urls, domain.MediaVideo)
}
