package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/middleware"
	"github.com/charlesng35/roadboard/internal/realtime"
	"github.com/charlesng35/roadboard/internal/services"
	"github.com/charlesng35/roadboard/pkg/response"
)

// EventsHandler upgrades members of a roadmap into its live event stream.
type EventsHandler struct {
	roadmaps *services.RoadmapService
	hub      *realtime.Hub
}

func NewEventsHandler(roadmaps *services.RoadmapService, hub *realtime.Hub) (*EventsHandler, error) {
	if roadmaps == nil || hub == nil {
		return nil, errors.New("events handler: roadmap service and hub are required")
	}
	return &EventsHandler{roadmaps: roadmaps, hub: hub}, nil
}

// GET /api/roadmap/:id/events
func (h *EventsHandler) Stream(c *gin.Context) {
	userID := middleware.UserID(c)
	roadmap, err := h.roadmaps.Get(requestContext(c), userID, c.Param("id"), services.GetRoadmapOptions{})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.hub.Serve(userID, roadmap.ID, c.Writer, c.Request)
}
