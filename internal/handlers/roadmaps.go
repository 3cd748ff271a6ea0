package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/middleware"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/services"
	"github.com/charlesng35/roadboard/pkg/response"
)

// RoadmapHandler exposes roadmap CRUD for signed-in members.
type RoadmapHandler struct {
	roadmaps *services.RoadmapService
	features *services.FeatureService
}

type createRoadmapRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	IsPublic *bool  `json:"isPublic"`
}

type updateRoadmapRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1,max=200"`
	IsPublic    *bool               `json:"isPublic"`
	EmbedStyles *models.EmbedStyles `json:"embedStyles"`
}

func NewRoadmapHandler(roadmaps *services.RoadmapService, features *services.FeatureService) (*RoadmapHandler, error) {
	if roadmaps == nil || features == nil {
		return nil, errors.New("roadmap handler: services are required")
	}
	return &RoadmapHandler{roadmaps: roadmaps, features: features}, nil
}

// POST /api/roadmap
func (h *RoadmapHandler) Create(c *gin.Context) {
	var body createRoadmapRequest
	if !bindAndValidate(c, &body) {
		return
	}

	roadmap, err := h.roadmaps.Create(requestContext(c), middleware.UserID(c), services.CreateRoadmapInput{
		Name:     body.Name,
		IsPublic: body.IsPublic,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, roadmap)
}

// GET /api/roadmap
func (h *RoadmapHandler) List(c *gin.Context) {
	roadmaps, err := h.roadmaps.List(requestContext(c), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roadmaps)
}

// GET /api/roadmap/:id?featureStatus=
func (h *RoadmapHandler) Get(c *gin.Context) {
	status, ok := parseStatusQuery(c, "featureStatus")
	if !ok {
		return
	}

	roadmap, err := h.roadmaps.Get(requestContext(c), middleware.UserID(c), c.Param("id"), services.GetRoadmapOptions{
		FeatureStatus: status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roadmap)
}

// PATCH /api/roadmap/:id
func (h *RoadmapHandler) Update(c *gin.Context) {
	var body updateRoadmapRequest
	if !bindAndValidate(c, &body) {
		return
	}

	roadmap, err := h.roadmaps.Update(requestContext(c), middleware.UserID(c), c.Param("id"), services.UpdateRoadmapInput{
		Name:        body.Name,
		IsPublic:    body.IsPublic,
		EmbedStyles: body.EmbedStyles,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roadmap)
}

// DELETE /api/roadmap/:id
func (h *RoadmapHandler) Delete(c *gin.Context) {
	if err := h.roadmaps.Delete(requestContext(c), middleware.UserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/roadmap/:id/restore
func (h *RoadmapHandler) Restore(c *gin.Context) {
	roadmap, err := h.roadmaps.Restore(requestContext(c), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roadmap)
}

// GET /api/roadmap/:id/features?status=&deleted=
func (h *RoadmapHandler) Features(c *gin.Context) {
	status, ok := parseStatusQuery(c, "status")
	if !ok {
		return
	}

	features, err := h.features.List(requestContext(c), middleware.UserID(c), c.Param("id"), services.ListFeaturesOptions{
		Deleted: parseBoolQuery(c, "deleted"),
		Status:  status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, features)
}
