package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/analysis"
	"alcyxob/rehab-course/internal/course"
	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/observability"
	"alcyxob/rehab-course/internal/service"
)

const testSecret = "handler-secret"

type stubCourseService struct {
	service.CourseService
	gotReq        course.Request
	gotAutoAdjust bool
	generateErr   error
	getErr        error
}

func (s *stubCourseService) Generate(_ context.Context, _ primitive.ObjectID, req course.Request, autoAdjust bool) (*service.GeneratedCourse, error) {
	s.gotReq = req
	s.gotAutoAdjust = autoAdjust
	if s.generateErr != nil {
		return nil, s.generateErr
	}
	return &service.GeneratedCourse{
		CourseID: primitive.NewObjectID(),
		Result: course.Result{
			Exercises:     []course.Exercise{{TemplateID: "t1", Section: course.SectionWarmup, DurationMinutes: 10}},
			TotalDuration: 10,
		},
	}, nil
}

func (s *stubCourseService) GetCourse(_ context.Context, userID, courseID primitive.ObjectID) (*domain.Course, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.Course{ID: courseID, UserID: userID}, nil
}

type stubCatalogService struct {
	service.CatalogService
	created    *domain.BodyPart
	confirmErr error
	confirmed  string
}

func (s *stubCatalogService) ConfirmMediaUpload(_ context.Context, templateID primitive.ObjectID, _ domain.MediaKind, objectKey string) (*domain.ExerciseTemplate, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	s.confirmed = objectKey
	return &domain.ExerciseTemplate{ID: templateID, ImageKey: objectKey}, nil
}

func (s *stubCatalogService) CreateBodyPart(_ context.Context, key, displayName string) (*domain.BodyPart, error) {
	s.created = &domain.BodyPart{ID: primitive.NewObjectID(), Key: key, DisplayName: displayName}
	return s.created, nil
}

type stubAnalysisService struct {
	service.AnalysisService
	recordErr error
}

func (s *stubAnalysisService) Issues(context.Context, primitive.ObjectID) []analysis.Issue {
	return []analysis.Issue{}
}

func (s *stubAnalysisService) RecordCompletion(_ context.Context, userID, courseID, templateID primitive.ObjectID, status analysis.Status, painAfter *int) (*domain.CompletionLog, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	return &domain.CompletionLog{UserID: userID, CourseID: courseID, ExerciseTemplateID: templateID, Status: status, PainAfter: painAfter}, nil
}

type testServer struct {
	router   *gin.Engine
	courses  *stubCourseService
	catalog  *stubCatalogService
	analysis *stubAnalysisService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	s := &testServer{
		router:   gin.New(),
		courses:  &stubCourseService{},
		catalog:  &stubCatalogService{},
		analysis: &stubAnalysisService{},
	}
	SetupRoutes(s.router, testSecret, Services{
		Catalog:  s.catalog,
		Course:   s.courses,
		Analysis: s.analysis,
	}, observability.NewMetrics(reg), reg, logger.NewNop())
	return s
}

func token(t *testing.T, role domain.Role) string {
	t.Helper()
	claims := &jwtClaims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func validCourseBody() gin.H {
	return gin.H{
		"bodyParts": []gin.H{
			{"bodyPartId": primitive.NewObjectID().Hex(), "bodyPartName": "waist", "painLevel": 3},
			{"bodyPartId": primitive.NewObjectID().Hex(), "bodyPartName": "knee", "painLevel": 2},
		},
		"equipmentAvailable":   []string{"none"},
		"painLevel":            3,
		"experienceLevel":      "weekly_1_2",
		"totalDurationMinutes": 60,
	}
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/courses", "", validCourseBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/courses", "not-a-token", validCourseBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateCourse(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/courses?autoAdjust=true", token(t, domain.RoleMember), validCourseBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp GenerateCourseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CourseID)
	assert.Len(t, resp.Exercises, 1)
	assert.NotNil(t, resp.Warnings)

	assert.True(t, s.courses.gotAutoAdjust)
	require.Len(t, s.courses.gotReq.BodyParts, 2)
	assert.Equal(t, 2, s.courses.gotReq.BodyParts[1].SelectionOrder)
	assert.Equal(t, course.ExperienceWeekly1to2, s.courses.gotReq.ExperienceLevel)
}

func TestGenerateCourseErrors(t *testing.T) {
	s := newTestServer(t)
	member := token(t, domain.RoleMember)

	rec := s.do(t, http.MethodPost, "/api/v1/courses", member, gin.H{"painLevel": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/courses?autoAdjust=maybe", member, validCourseBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.courses.generateErr = course.ErrInvalidRequest
	rec = s.do(t, http.MethodPost, "/api/v1/courses", member, validCourseBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.courses.generateErr = assert.AnError
	rec = s.do(t, http.MethodPost, "/api/v1/courses", member, validCourseBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestGetCourse(t *testing.T) {
	s := newTestServer(t)
	member := token(t, domain.RoleMember)

	rec := s.do(t, http.MethodGet, "/api/v1/courses/"+primitive.NewObjectID().Hex(), member, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/courses/xyz", member, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.courses.getErr = service.ErrCourseNotFound
	rec = s.do(t, http.MethodGet, "/api/v1/courses/"+primitive.NewObjectID().Hex(), member, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"key": "hip", "displayName": "Hip"}

	rec := s.do(t, http.MethodPost, "/api/v1/admin/body-parts", token(t, domain.RoleMember), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, s.catalog.created)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/body-parts", token(t, domain.RoleAdmin), body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, s.catalog.created)
	assert.Equal(t, "hip", s.catalog.created.Key)
}

func TestRecordCompletion(t *testing.T) {
	s := newTestServer(t)
	member := token(t, domain.RoleMember)
	body := gin.H{
		"courseId":           primitive.NewObjectID().Hex(),
		"exerciseTemplateId": primitive.NewObjectID().Hex(),
		"status":             "completed",
		"painAfter":          2,
	}

	rec := s.do(t, http.MethodPost, "/api/v1/me/completions", member, body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body["status"] = "finished"
	rec = s.do(t, http.MethodPost, "/api/v1/me/completions", member, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body["status"] = "skipped"
	s.analysis.recordErr = service.ErrCourseNotFound
	rec = s.do(t, http.MethodPost, "/api/v1/me/completions", member, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssuesAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/me/issues", token(t, domain.RoleMember), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `rehab_course_http_requests_total{method="GET",route="/api/v1/me/issues",status="200"} 1`))
}

func TestConfirmMediaUpload(t *testing.T) {
	s := newTestServer(t)
	admin := token(t, domain.RoleAdmin)
	path := "/api/v1/admin/exercises/" + primitive.NewObjectID().Hex() + "/media/confirm"
	body := gin.H{"kind": "image", "objectKey": "exercises/x/image/y.png"}

	rec := s.do(t, http.MethodPost, path, admin, body)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "exercises/x/image/y.png", s.catalog.confirmed)

	rec = s.do(t, http.MethodPost, path, admin, gin.H{"kind": "audio", "objectKey": "k"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.catalog.confirmErr = service.ErrUploadNotFound
	rec = s.do(t, http.MethodPost, path, admin, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
