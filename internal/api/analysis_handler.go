package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/analysis"
	"alcyxob/rehab-course/internal/service"
)

// AnalysisHandler exposes the caller's history analyses and history capture.
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

type RecordCompletionRequest struct {
	CourseID           string          `json:"courseId" binding:"required"`
	ExerciseTemplateID string          `json:"exerciseTemplateId" binding:"required"`
	Status             analysis.Status `json:"status" binding:"required,oneof=completed skipped"`
	PainAfter          *int            `json:"painAfter" binding:"omitempty,min=1,max=5"`
}

type UpsertPainProfileRequest struct {
	BodyPartID string `json:"bodyPartId" binding:"required"`
	PainLevel  int    `json:"painLevel" binding:"required,min=1,max=5"`
}

// GetPreferences godoc
// @Summary Preferences derived from the last weeks of history
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analysis.Preferences
// @Router /me/preferences [get]
func (h *AnalysisHandler) GetPreferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.analysisService.Preferences(c.Request.Context(), userID))
}

// GetIssues godoc
// @Summary Problems detected in recent history
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Success 200 {array} analysis.Issue
// @Router /me/issues [get]
func (h *AnalysisHandler) GetIssues(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.analysisService.Issues(c.Request.Context(), userID))
}

// RecordCompletion godoc
// @Summary Log a completed or skipped exercise of a course
// @Tags Analysis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param log body RecordCompletionRequest true "Completion"
// @Success 201 {object} domain.CompletionLog
// @Failure 404 {object} gin.H "Course not found"
// @Router /me/completions [post]
func (h *AnalysisHandler) RecordCompletion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req RecordCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	courseID, err := primitive.ObjectIDFromHex(req.CourseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid courseId format")
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.ExerciseTemplateID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseTemplateId format")
		return
	}

	entry, err := h.analysisService.RecordCompletion(c.Request.Context(), userID, courseID, templateID, req.Status, req.PainAfter)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, entry)
	case errors.Is(err, service.ErrCourseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExerciseNotInCourse), errors.Is(err, service.ErrInvalidCompletion):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithInternal(c, err, "Failed to record completion")
	}
}

// UpsertPainProfile godoc
// @Summary Set the caller's standing pain level for a body part
// @Tags Analysis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpsertPainProfileRequest true "Pain profile"
// @Success 200 {object} domain.PainProfile
// @Router /me/pain-profiles [put]
func (h *AnalysisHandler) UpsertPainProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpsertPainProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	bodyPartID, err := primitive.ObjectIDFromHex(req.BodyPartID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid bodyPartId format")
		return
	}

	profile, err := h.analysisService.UpsertPainProfile(c.Request.Context(), userID, bodyPartID, req.PainLevel)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, profile)
	case errors.Is(err, service.ErrBodyPartNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidPainProfile):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithInternal(c, err, "Failed to save pain profile")
	}
}

// ListPainProfiles godoc
// @Summary The caller's standing pain profiles
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.PainProfile
// @Router /me/pain-profiles [get]
func (h *AnalysisHandler) ListPainProfiles(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profiles, err := h.analysisService.ListPainProfiles(c.Request.Context(), userID)
	if err != nil {
		abortWithInternal(c, err, "Failed to list pain profiles")
		return
	}
	c.JSON(http.StatusOK, profiles)
}
