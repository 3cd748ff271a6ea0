package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/charlesng35/roadboard/internal/middleware"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/services"
	appErrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/response"
)

// VoteCookieName identifies anonymous voters that send no session id.
const VoteCookieName = "roadboard_vote"

const voteCookieTTL = 365 * 24 * 60 * 60

// FeatureHandler exposes feature cards and anonymous voting.
type FeatureHandler struct {
	features *services.FeatureService
	votes    *services.VoteService
	secure   bool
}

type createFeatureRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	RoadmapID   string  `json:"roadmapId" validate:"required"`
	Status      string  `json:"status" validate:"required,status"`
}

type updateFeatureRequest struct {
	ID          string         `json:"id"`
	Title       string         `json:"title" validate:"required,max=200"`
	Description nullableString `json:"description"`
	Status      string         `json:"status" validate:"required,status"`
}

type voteRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
}

// NewFeatureHandler constructs a FeatureHandler. secureCookies marks the
// voter cookie Secure.
func NewFeatureHandler(features *services.FeatureService, votes *services.VoteService, secureCookies bool) (*FeatureHandler, error) {
	if features == nil || votes == nil {
		return nil, errors.New("feature handler: services are required")
	}
	return &FeatureHandler{features: features, votes: votes, secure: secureCookies}, nil
}

// POST /api/feature
func (h *FeatureHandler) Create(c *gin.Context) {
	var body createFeatureRequest
	if !bindAndValidate(c, &body) {
		return
	}
	status, _ := models.ParseStatus(body.Status)

	feature, err := h.features.Create(requestContext(c), middleware.UserID(c), services.CreateFeatureInput{
		RoadmapID:   strings.TrimSpace(body.RoadmapID),
		Title:       body.Title,
		Description: body.Description,
		Status:      status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, feature)
}

// GET /api/feature/:id
func (h *FeatureHandler) Get(c *gin.Context) {
	feature, err := h.features.Get(requestContext(c), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, feature)
}

// PATCH /api/feature/:id
func (h *FeatureHandler) Update(c *gin.Context) {
	var body updateFeatureRequest
	if !bindAndValidate(c, &body) {
		return
	}

	id := c.Param("id")
	if body.ID != "" && body.ID != id {
		response.Error(c, appErrors.NewBadRequest("id in body does not match the URL"))
		return
	}
	status, _ := models.ParseStatus(body.Status)

	feature, err := h.features.Update(requestContext(c), middleware.UserID(c), id, services.UpdateFeatureInput{
		Title:          body.Title,
		Description:    body.Description.Value,
		DescriptionSet: body.Description.Set,
		Status:         status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, feature)
}

// DELETE /api/feature/:id
func (h *FeatureHandler) Delete(c *gin.Context) {
	feature, err := h.features.Delete(requestContext(c), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, feature)
}

// POST /api/feature/:id/restore
func (h *FeatureHandler) Restore(c *gin.Context) {
	feature, err := h.features.Restore(requestContext(c), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, feature)
}

// POST /api/feature/:id/vote
//
// Voters are anonymous. Without a sessionId in the body the voter cookie is
// used, and a fresh one is issued on first vote.
func (h *FeatureHandler) Vote(c *gin.Context) {
	var body voteRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}
	if !validate(c, &body) {
		return
	}

	sessionID := strings.TrimSpace(body.SessionID)
	if sessionID == "" {
		if cookie, err := c.Cookie(VoteCookieName); err == nil {
			sessionID = strings.TrimSpace(cookie)
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     VoteCookieName,
			Value:    sessionID,
			Path:     "/",
			MaxAge:   voteCookieTTL,
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	result, err := h.votes.Cast(requestContext(c), c.Param("id"), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.Success(c, status, result)
}
