package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/course"
	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/service"
)

// CatalogHandler serves catalog administration and media lookups.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs ---

type CreateTemplateRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	Instructions    string   `json:"instructions"`
	Precautions     string   `json:"precautions"`
	DurationMinutes int      `json:"durationMinutes" binding:"omitempty,min=1"`
	Sets            int      `json:"sets" binding:"omitempty,min=1"`
	Reps            int      `json:"reps" binding:"omitempty,min=1"`
	RestSeconds     int      `json:"restSeconds" binding:"omitempty,min=0"`
	IntensityLevel  int      `json:"intensityLevel" binding:"omitempty,min=1,max=4"`
	DifficultyScore int      `json:"difficultyScore" binding:"omitempty,min=1,max=10"`
	Equipment       []string `json:"equipment"`
}

type CreateBodyPartRequest struct {
	Key         string `json:"key" binding:"required"`
	DisplayName string `json:"displayName"`
}

type CreateMappingRequest struct {
	BodyPartID         string `json:"bodyPartId" binding:"required"`
	ExerciseTemplateID string `json:"exerciseTemplateId" binding:"required"`
	Priority           int    `json:"priority" binding:"min=0"`
	IntensityLevel     int    `json:"intensityLevel" binding:"omitempty,min=1,max=4"`
	PainLevelRange     string `json:"painLevelRange"`
}

type CreateContraindicationRequest struct {
	BodyPartID         string          `json:"bodyPartId" binding:"required"`
	ExerciseTemplateID string          `json:"exerciseTemplateId" binding:"required"`
	PainLevelMin       *int            `json:"painLevelMin" binding:"omitempty,min=1,max=5"`
	Severity           course.Severity `json:"severity" binding:"required,oneof=warning strict"`
	Reason             string          `json:"reason"`
}

type MediaUploadRequest struct {
	Kind        domain.MediaKind `json:"kind" binding:"required,oneof=image gif video"`
	FileName    string           `json:"fileName" binding:"required"`
	ContentType string           `json:"contentType" binding:"required"`
}

type ConfirmMediaRequest struct {
	Kind      domain.MediaKind `json:"kind" binding:"required,oneof=image gif video"`
	ObjectKey string           `json:"objectKey" binding:"required"`
}

// --- Handler Methods ---

// CreateTemplate godoc
// @Summary Create an exercise template
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body CreateTemplateRequest true "Template"
// @Success 201 {object} domain.ExerciseTemplate
// @Failure 403 {object} gin.H "Forbidden (not an admin)"
// @Router /admin/exercises [post]
func (h *CatalogHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	tmpl, err := h.catalogService.CreateTemplate(c.Request.Context(), &domain.ExerciseTemplate{
		Name:            req.Name,
		Description:     req.Description,
		Instructions:    req.Instructions,
		Precautions:     req.Precautions,
		DurationMinutes: req.DurationMinutes,
		Sets:            req.Sets,
		Reps:            req.Reps,
		RestSeconds:     req.RestSeconds,
		IntensityLevel:  req.IntensityLevel,
		DifficultyScore: req.DifficultyScore,
		Equipment:       req.Equipment,
	})
	if err != nil {
		h.handleError(c, err, "Failed to create exercise template")
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

// ListTemplates godoc
// @Summary List exercise templates
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param activeOnly query bool false "Only active templates"
// @Success 200 {array} domain.ExerciseTemplate
// @Router /admin/exercises [get]
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	activeOnly, err := strconv.ParseBool(c.DefaultQuery("activeOnly", "false"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "activeOnly must be a boolean")
		return
	}
	templates, err := h.catalogService.ListTemplates(c.Request.Context(), activeOnly)
	if err != nil {
		abortWithInternal(c, err, "Failed to list exercise templates")
		return
	}
	c.JSON(http.StatusOK, templates)
}

// ListBodyParts godoc
// @Summary List selectable body parts
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.BodyPart
// @Router /body-parts [get]
func (h *CatalogHandler) ListBodyParts(c *gin.Context) {
	parts, err := h.catalogService.ListBodyParts(c.Request.Context())
	if err != nil {
		abortWithInternal(c, err, "Failed to list body parts")
		return
	}
	c.JSON(http.StatusOK, parts)
}

// CreateBodyPart godoc
// @Summary Create a body part
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bodyPart body CreateBodyPartRequest true "Body part"
// @Success 201 {object} domain.BodyPart
// @Failure 409 {object} gin.H "Key already exists"
// @Router /admin/body-parts [post]
func (h *CatalogHandler) CreateBodyPart(c *gin.Context) {
	var req CreateBodyPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	bp, err := h.catalogService.CreateBodyPart(c.Request.Context(), req.Key, req.DisplayName)
	if err != nil {
		h.handleError(c, err, "Failed to create body part")
		return
	}
	c.JSON(http.StatusCreated, bp)
}

// CreateMapping godoc
// @Summary Map an exercise template to a body part
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param mapping body CreateMappingRequest true "Mapping"
// @Success 201 {object} domain.BodyPartExerciseMapping
// @Router /admin/mappings [post]
func (h *CatalogHandler) CreateMapping(c *gin.Context) {
	var req CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	bodyPartID, templateID, ok := parseCatalogIDs(c, req.BodyPartID, req.ExerciseTemplateID)
	if !ok {
		return
	}

	m, err := h.catalogService.CreateMapping(c.Request.Context(), &domain.BodyPartExerciseMapping{
		BodyPartID:         bodyPartID,
		ExerciseTemplateID: templateID,
		Priority:           req.Priority,
		IntensityLevel:     req.IntensityLevel,
		PainLevelRange:     req.PainLevelRange,
	})
	if err != nil {
		h.handleError(c, err, "Failed to create mapping")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// CreateContraindication godoc
// @Summary Add a contraindication rule
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rule body CreateContraindicationRequest true "Contraindication"
// @Success 201 {object} domain.Contraindication
// @Router /admin/contraindications [post]
func (h *CatalogHandler) CreateContraindication(c *gin.Context) {
	var req CreateContraindicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	bodyPartID, templateID, ok := parseCatalogIDs(c, req.BodyPartID, req.ExerciseTemplateID)
	if !ok {
		return
	}

	rule, err := h.catalogService.CreateContraindication(c.Request.Context(), &domain.Contraindication{
		BodyPartID:         bodyPartID,
		ExerciseTemplateID: templateID,
		PainLevelMin:       req.PainLevelMin,
		Severity:           req.Severity,
		Reason:             req.Reason,
	})
	if err != nil {
		h.handleError(c, err, "Failed to create contraindication")
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// RequestMediaUpload godoc
// @Summary Get a presigned upload URL for template media
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise template ID"
// @Param upload body MediaUploadRequest true "Upload"
// @Success 200 {object} service.MediaUpload
// @Router /admin/exercises/{id}/media [post]
func (h *CatalogHandler) RequestMediaUpload(c *gin.Context) {
	templateID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	var req MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	upload, err := h.catalogService.RequestMediaUpload(c.Request.Context(), templateID, req.Kind, req.FileName, req.ContentType)
	if err != nil {
		h.handleError(c, err, "Failed to prepare media upload")
		return
	}
	c.JSON(http.StatusOK, upload)
}

// ConfirmMediaUpload godoc
// @Summary Attach uploaded media to an exercise template
// @Description Called after the file was PUT to the presigned URL. Replaces the slot's previous object.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise template ID"
// @Param confirm body ConfirmMediaRequest true "Uploaded object"
// @Success 200 {object} domain.ExerciseTemplate
// @Failure 409 {object} gin.H "Object was not uploaded"
// @Router /admin/exercises/{id}/media/confirm [post]
func (h *CatalogHandler) ConfirmMediaUpload(c *gin.Context) {
	templateID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	var req ConfirmMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	tmpl, err := h.catalogService.ConfirmMediaUpload(c.Request.Context(), templateID, req.Kind, req.ObjectKey)
	if err != nil {
		h.handleError(c, err, "Failed to confirm media upload")
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// GetMedia godoc
// @Summary Viewable URLs for an exercise's media
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise template ID"
// @Success 200 {object} map[string]string
// @Router /exercises/{id}/media [get]
func (h *CatalogHandler) GetMedia(c *gin.Context) {
	templateID, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	urls, err := h.catalogService.MediaURLs(c.Request.Context(), templateID)
	if err != nil {
		h.handleError(c, err, "Failed to load media")
		return
	}
	c.JSON(http.StatusOK, urls)
}

func (h *CatalogHandler) handleError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExerciseNotFound), errors.Is(err, service.ErrBodyPartNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBodyPartExists), errors.Is(err, service.ErrMappingExists), errors.Is(err, service.ErrUploadNotFound):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithInternal(c, err, message)
	}
}

func parseCatalogIDs(c *gin.Context, bodyPartHex, templateHex string) (primitive.ObjectID, primitive.ObjectID, bool) {
	bodyPartID, err := primitive.ObjectIDFromHex(bodyPartHex)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid bodyPartId format")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	templateID, err := primitive.ObjectIDFromHex(templateHex)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseTemplateId format")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return bodyPartID, templateID, true
}
