package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/charlesng35/roadboard/internal/access"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/store"
	apperrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
)

// ErrUserNotFound is returned when the acting or requested user does not exist.
var ErrUserNotFound = apperrors.NewNotFound("User not found")

// CreateRoadmapInput describes a new roadmap. Membership is always the caller.
type CreateRoadmapInput struct {
	Name     string
	IsPublic *bool
}

// UpdateRoadmapInput holds the fields to change; nil fields are left alone.
type UpdateRoadmapInput struct {
	Name        *string
	IsPublic    *bool
	EmbedStyles *models.EmbedStyles
}

// GetRoadmapOptions narrows a single roadmap read.
type GetRoadmapOptions struct {
	// FeatureStatus, when set, only matches roadmaps with a live feature in that status.
	FeatureStatus models.Status
}

// EmbedFeature is the public projection of a feature.
type EmbedFeature struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      models.Status `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	VoteCount   int           `json:"voteCount"`
}

// EmbedData is the public projection of a roadmap.
type EmbedData struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	CreatedAt   time.Time          `json:"createdAt"`
	Features    []EmbedFeature     `json:"features"`
	EmbedStyles models.EmbedStyles `json:"embedStyles"`
}

// RoadmapService manages roadmaps on behalf of their members.
type RoadmapService struct {
	roadmaps store.RoadmapStore
	users    store.UserStore
	access   AccessChecker
	events   BoardPublisher
	log      *zap.Logger
}

// NewRoadmapService constructs a RoadmapService.
func NewRoadmapService(stores *store.Stores, checker AccessChecker, events BoardPublisher) (*RoadmapService, error) {
	if stores == nil {
		return nil, errors.New("roadmap service: stores are required")
	}
	if checker == nil {
		return nil, errors.New("roadmap service: access checker is required")
	}
	return &RoadmapService{
		roadmaps: stores.Roadmaps,
		users:    stores.Users,
		access:   checker,
		events:   ensurePublisher(events),
		log:      logger.WithModule("roadmaps"),
	}, nil
}

// Create stores a roadmap with userID as its only member.
func (s *RoadmapService) Create(ctx context.Context, userID string, input CreateRoadmapInput) (*models.Roadmap, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, storeError("roadmap service", "load creator", err, ErrUserNotFound)
	}

	roadmap := &models.Roadmap{Name: name}
	if input.IsPublic != nil {
		roadmap.IsPublic = *input.IsPublic
	}

	if err := s.roadmaps.Create(ctx, roadmap, []string{userID}); err != nil {
		return nil, storeError("roadmap service", "create roadmap", err, nil)
	}
	s.log.Debug("roadmap created", zap.String("roadmap_id", roadmap.ID), zap.String("user_id", userID))

	return s.board(ctx, roadmap.ID)
}

// List returns the live roadmaps userID belongs to.
func (s *RoadmapService) List(ctx context.Context, userID string) ([]models.Roadmap, error) {
	ctx = ensureContext(ctx)

	roadmaps, err := s.roadmaps.ListForMember(ctx, userID)
	if err != nil {
		return nil, storeError("roadmap service", "list roadmaps", err, nil)
	}
	if roadmaps == nil {
		roadmaps = []models.Roadmap{}
	}
	return roadmaps, nil
}

// Get loads a live roadmap with its board. Non-members are rejected.
func (s *RoadmapService) Get(ctx context.Context, userID, id string, opts GetRoadmapOptions) (*models.Roadmap, error) {
	ctx = ensureContext(ctx)

	roadmap, err := s.board(ctx, id)
	if err != nil {
		return nil, err
	}
	if !roadmap.HasMember(userID) {
		return nil, access.ErrNotMember
	}

	if opts.FeatureStatus != "" {
		ok, err := s.roadmaps.HasFeatureWithStatus(ctx, id, opts.FeatureStatus)
		if err != nil {
			return nil, storeError("roadmap service", "filter by feature status", err, nil)
		}
		if !ok {
			return nil, access.ErrRoadmapNotFound
		}
	}
	return roadmap, nil
}

// Update applies a partial change after the membership check.
func (s *RoadmapService) Update(ctx context.Context, userID, id string, input UpdateRoadmapInput) (*models.Roadmap, error) {
	ctx = ensureContext(ctx)

	if _, err := s.access.Check(ctx, userID, access.Target{RoadmapID: id}); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		fields["name"] = name
	}
	if input.IsPublic != nil {
		fields["is_public"] = *input.IsPublic
	}
	if input.EmbedStyles != nil {
		fields["embed_styles"] = datatypes.NewJSONType(*input.EmbedStyles)
	}

	if err := s.roadmaps.Update(ctx, id, fields); err != nil {
		return nil, storeError("roadmap service", "update roadmap", err, access.ErrRoadmapNotFound)
	}

	roadmap, err := s.board(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.PublishBoardEvent(id, EventRoadmapUpdated, roadmap)
	return roadmap, nil
}

// Delete soft deletes the roadmap.
func (s *RoadmapService) Delete(ctx context.Context, userID, id string) error {
	ctx = ensureContext(ctx)

	if _, err := s.access.Check(ctx, userID, access.Target{RoadmapID: id}); err != nil {
		return err
	}
	if err := s.roadmaps.SoftDelete(ctx, id); err != nil {
		return storeError("roadmap service", "delete roadmap", err, access.ErrRoadmapNotFound)
	}

	s.log.Info("roadmap deleted", zap.String("roadmap_id", id), zap.String("user_id", userID))
	s.events.PublishBoardEvent(id, EventRoadmapDeleted, map[string]string{"id": id})
	return nil
}

// Restore clears the deletion marker of a soft-deleted roadmap.
func (s *RoadmapService) Restore(ctx context.Context, userID, id string) (*models.Roadmap, error) {
	ctx = ensureContext(ctx)

	if _, err := s.access.Check(ctx, userID, access.Target{RoadmapID: id, IncludeDeleted: true}); err != nil {
		return nil, err
	}
	if err := s.roadmaps.Restore(ctx, id); err != nil {
		return nil, storeError("roadmap service", "restore roadmap", err, access.ErrRoadmapNotFound)
	}

	roadmap, err := s.board(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.PublishBoardEvent(id, EventRoadmapRestored, roadmap)
	return roadmap, nil
}

// GetEmbedData returns the public projection of a roadmap, or nil when the
// roadmap is missing, deleted or private.
func (s *RoadmapService) GetEmbedData(ctx context.Context, id string) (*EmbedData, error) {
	ctx = ensureContext(ctx)

	roadmap, err := s.roadmaps.FindBoard(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("roadmap service", "load embed", err, nil)
	}
	if !roadmap.IsPublic {
		return nil, nil
	}
	return projectEmbed(roadmap), nil
}

func projectEmbed(roadmap *models.Roadmap) *EmbedData {
	features := make([]EmbedFeature, 0, len(roadmap.Features))
	for _, f := range roadmap.Features {
		features = append(features, EmbedFeature{
			ID:          f.ID,
			Title:       f.Title,
			Description: f.Description,
			Status:      f.Status,
			CreatedAt:   f.CreatedAt,
			VoteCount:   len(f.Votes),
		})
	}
	return &EmbedData{
		ID:          roadmap.ID,
		Name:        roadmap.Name,
		CreatedAt:   roadmap.CreatedAt,
		Features:    features,
		EmbedStyles: roadmap.EmbedStyles.Data(),
	}
}

func (s *RoadmapService) board(ctx context.Context, id string) (*models.Roadmap, error) {
	roadmap, err := s.roadmaps.FindBoard(ctx, id)
	if err != nil {
		return nil, storeError("roadmap service", "load roadmap", err, access.ErrRoadmapNotFound)
	}
	return roadmap, nil
}
