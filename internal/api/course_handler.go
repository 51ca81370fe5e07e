package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"alcyxob/rehab-course/internal/analysis"
	"alcyxob/rehab-course/internal/course"
	"alcyxob/rehab-course/internal/service"
)

// CourseHandler serves course generation and stored courses.
type CourseHandler struct {
	courseService service.CourseService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// BodyPartInput is one selected body part.
type BodyPartInput struct {
	BodyPartID     string `json:"bodyPartId" binding:"required"`
	BodyPartName   string `json:"bodyPartName"`
	PainLevel      int    `json:"painLevel" binding:"required"`
	SelectionOrder int    `json:"selectionOrder"`
}

// GenerateCourseRequest is the body of POST /courses. Range checks happen in
// the service so every invalid request gets the same error shape.
type GenerateCourseRequest struct {
	BodyParts            []BodyPartInput        `json:"bodyParts" binding:"required,min=1,dive"`
	EquipmentAvailable   []string               `json:"equipmentAvailable"`
	PainLevel            int                    `json:"painLevel" binding:"required"`
	ExperienceLevel      course.ExperienceLevel `json:"experienceLevel" binding:"required"`
	TotalDurationMinutes int                    `json:"totalDurationMinutes" binding:"required"`
}

func (r GenerateCourseRequest) toCourseRequest() course.Request {
	parts := make([]course.BodyPartSelection, len(r.BodyParts))
	for i, bp := range r.BodyParts {
		order := bp.SelectionOrder
		if order == 0 {
			order = i + 1
		}
		parts[i] = course.BodyPartSelection{
			BodyPartID:     bp.BodyPartID,
			BodyPartName:   bp.BodyPartName,
			PainLevel:      bp.PainLevel,
			SelectionOrder: order,
		}
	}
	return course.Request{
		BodyParts:            parts,
		EquipmentAvailable:   r.EquipmentAvailable,
		PainLevel:            r.PainLevel,
		ExperienceLevel:      r.ExperienceLevel,
		TotalDurationMinutes: r.TotalDurationMinutes,
	}
}

// GenerateCourseResponse is the generated course plus any history-based
// adjustment.
type GenerateCourseResponse struct {
	CourseID      string                      `json:"courseId"`
	Exercises     []course.Exercise           `json:"exercises"`
	TotalDuration int                         `json:"totalDuration"`
	Warnings      []string                    `json:"warnings"`
	Stats         *course.Stats               `json:"stats,omitempty"`
	Adjustment    *analysis.RoutineAdjustment `json:"adjustment,omitempty"`
}

// GenerateCourse godoc
// @Summary Generate a rehabilitation course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GenerateCourseRequest true "Course request"
// @Param autoAdjust query bool false "Adapt the request to the user's history"
// @Success 200 {object} GenerateCourseResponse
// @Failure 400 {object} gin.H "Invalid request"
// @Router /courses [post]
func (h *CourseHandler) GenerateCourse(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req GenerateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	autoAdjust, err := strconv.ParseBool(c.DefaultQuery("autoAdjust", "false"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "autoAdjust must be a boolean")
		return
	}

	gen, err := h.courseService.Generate(c.Request.Context(), userID, req.toCourseRequest(), autoAdjust)
	if err != nil {
		if errors.Is(err, course.ErrInvalidRequest) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithInternal(c, err, "Failed to generate course")
		}
		return
	}

	warnings := gen.Result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, GenerateCourseResponse{
		CourseID:      gen.CourseID.Hex(),
		Exercises:     gen.Result.Exercises,
		TotalDuration: gen.Result.TotalDuration,
		Warnings:      warnings,
		Stats:         gen.Result.Stats,
		Adjustment:    gen.Adjustment,
	})
}

// GetCourse godoc
// @Summary Get one of the caller's courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} domain.Course
// @Failure 404 {object} gin.H "Not found"
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	stored, err := h.courseService.GetCourse(c.Request.Context(), userID, courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithInternal(c, err, "Failed to load course")
		}
		return
	}
	c.JSON(http.StatusOK, stored)
}

// ListCourses godoc
// @Summary List the caller's recent courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of courses (default 20)"
// @Success 200 {array} domain.Course
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "limit must be a number")
		return
	}

	courses, err := h.courseService.ListCourses(c.Request.Context(), userID, limit)
	if err != nil {
		abortWithInternal(c, err, "Failed to list courses")
		return
	}
	c.JSON(http.StatusOK, courses)
}
