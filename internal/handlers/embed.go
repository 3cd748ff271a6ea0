package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/internal/embed"
	"github.com/charlesng35/roadboard/internal/services"
	appErrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/response"
)

var errEmbedNotFound = appErrors.NewNotFound("Roadmap not found or not public")

// EmbedHandler serves the public projection of a roadmap to anonymous visitors.
type EmbedHandler struct {
	roadmaps *services.RoadmapService
	renderer *embed.Renderer
}

type embedResponse struct {
	*services.EmbedData
	DefaultStyles  embed.ResolvedStyles `json:"defaultStyles"`
	ResolvedStyles embed.ResolvedStyles `json:"resolvedStyles"`
}

func NewEmbedHandler(roadmaps *services.RoadmapService, renderer *embed.Renderer) (*EmbedHandler, error) {
	if roadmaps == nil || renderer == nil {
		return nil, errors.New("embed handler: roadmap service and renderer are required")
	}
	return &EmbedHandler{roadmaps: roadmaps, renderer: renderer}, nil
}

// GET /api/roadmap/:id/embed
func (h *EmbedHandler) Data(c *gin.Context) {
	data, err := h.roadmaps.GetEmbedData(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if data == nil {
		response.Error(c, errEmbedNotFound)
		return
	}

	response.Success(c, http.StatusOK, embedResponse{
		EmbedData:      data,
		DefaultStyles:  embed.Defaults(),
		ResolvedStyles: embed.Resolve(data.EmbedStyles),
	})
}

// GET /embed/roadmap/:id
func (h *EmbedHandler) Page(c *gin.Context) {
	data, err := h.roadmaps.GetEmbedData(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if data == nil {
		response.Error(c, errEmbedNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, data); err != nil {
		logger.WithModule("embed").Error("render embed", zap.String("roadmap_id", data.ID), zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
