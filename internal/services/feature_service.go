package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/internal/access"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/store"
	apperrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/metrics"
)

// CreateFeatureInput describes a new feature card.
type CreateFeatureInput struct {
	RoadmapID   string
	Title       string
	Description *string
	Status      models.Status
}

// ListFeaturesOptions narrows a roadmap's feature listing.
type ListFeaturesOptions struct {
	// Deleted lists the soft-deleted features (the trash) instead of live ones.
	Deleted bool
	Status  models.Status
}

// UpdateFeatureInput replaces a feature's editable fields. Description is
// only touched when DescriptionSet is true, so a nil Description clears it.
type UpdateFeatureInput struct {
	Title          string
	Description    *string
	DescriptionSet bool
	Status         models.Status
}

// FeatureService manages feature cards on a roadmap board.
type FeatureService struct {
	features store.FeatureStore
	access   AccessChecker
	events   BoardPublisher
	log      *zap.Logger
}

// NewFeatureService constructs a FeatureService.
func NewFeatureService(stores *store.Stores, checker AccessChecker, events BoardPublisher) (*FeatureService, error) {
	if stores == nil {
		return nil, errors.New("feature service: stores are required")
	}
	if checker == nil {
		return nil, errors.New("feature service: access checker is required")
	}
	return &FeatureService{
		features: stores.Features,
		access:   checker,
		events:   ensurePublisher(events),
		log:      logger.WithModule("features"),
	}, nil
}

// Create adds a feature to a roadmap the caller belongs to. Status defaults to BACKLOG.
func (s *FeatureService) Create(ctx context.Context, userID string, input CreateFeatureInput) (*models.Feature, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	status := input.Status
	if status == "" {
		status = models.StatusBacklog
	}
	if !status.Valid() {
		return nil, apperrors.NewBadRequest("invalid status")
	}
	if strings.TrimSpace(input.RoadmapID) == "" {
		return nil, apperrors.NewBadRequest("roadmapId is required")
	}

	if _, err := s.access.Check(ctx, userID, access.Target{RoadmapID: input.RoadmapID}); err != nil {
		return nil, err
	}

	feature := &models.Feature{
		Title:       title,
		Description: input.Description,
		Status:      status,
		RoadmapID:   input.RoadmapID,
	}
	if err := s.features.Create(ctx, feature); err != nil {
		return nil, storeError("feature service", "create feature", err, nil)
	}

	created, err := s.reload(ctx, feature.ID, store.Live)
	if err != nil {
		return nil, err
	}
	metrics.BoardEvents.WithLabelValues(EventFeatureCreated).Inc()
	s.events.PublishBoardEvent(created.RoadmapID, EventFeatureCreated, created)
	return created, nil
}

// List returns the features of a roadmap the caller belongs to.
func (s *FeatureService) List(ctx context.Context, userID, roadmapID string, opts ListFeaturesOptions) ([]models.Feature, error) {
	ctx = ensureContext(ctx)

	if opts.Status != "" && !opts.Status.Valid() {
		return nil, apperrors.NewBadRequest("invalid status")
	}
	if _, err := s.access.Check(ctx, userID, access.Target{RoadmapID: roadmapID}); err != nil {
		return nil, err
	}

	var (
		features []models.Feature
		err      error
	)
	if opts.Deleted {
		features, err = s.features.FindDeletedByRoadmap(ctx, roadmapID)
	} else {
		features, err = s.features.FindActiveByRoadmap(ctx, roadmapID, opts.Status)
	}
	if err != nil {
		return nil, storeError("feature service", "list features", err, nil)
	}
	if features == nil {
		features = []models.Feature{}
	}
	return features, nil
}

// Get returns a live feature when the caller belongs to its roadmap.
func (s *FeatureService) Get(ctx context.Context, userID, id string) (*models.Feature, error) {
	ctx = ensureContext(ctx)

	grant, err := s.access.Check(ctx, userID, access.Target{FeatureID: id})
	if err != nil {
		return nil, err
	}
	return grant.Feature, nil
}

// Update replaces title, status and optionally description. Concurrent
// edits are last-write-wins.
func (s *FeatureService) Update(ctx context.Context, userID, id string, input UpdateFeatureInput) (*models.Feature, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewBadRequest("invalid status")
	}

	if _, err := s.access.Check(ctx, userID, access.Target{FeatureID: id}); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"title":  title,
		"status": input.Status,
	}
	if input.DescriptionSet {
		fields["description"] = input.Description
	}
	if err := s.features.Update(ctx, id, fields); err != nil {
		return nil, storeError("feature service", "update feature", err, access.ErrFeatureNotFound)
	}

	updated, err := s.reload(ctx, id, store.Live)
	if err != nil {
		return nil, err
	}
	metrics.BoardEvents.WithLabelValues(EventFeatureUpdated).Inc()
	s.events.PublishBoardEvent(updated.RoadmapID, EventFeatureUpdated, updated)
	return updated, nil
}

// Delete soft deletes a feature and returns it with its deletion marker set.
func (s *FeatureService) Delete(ctx context.Context, userID, id string) (*models.Feature, error) {
	ctx = ensureContext(ctx)

	if _, err := s.access.Check(ctx, userID, access.Target{FeatureID: id}); err != nil {
		return nil, err
	}
	if err := s.features.SoftDelete(ctx, id); err != nil {
		return nil, storeError("feature service", "delete feature", err, access.ErrFeatureNotFound)
	}

	deleted, err := s.reload(ctx, id, store.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	metrics.BoardEvents.WithLabelValues(EventFeatureDeleted).Inc()
	s.log.Info("feature deleted", zap.String("feature_id", id), zap.String("user_id", userID))
	s.events.PublishBoardEvent(deleted.RoadmapID, EventFeatureDeleted, deleted)
	return deleted, nil
}

// Restore brings a soft-deleted feature back onto its board.
func (s *FeatureService) Restore(ctx context.Context, userID, id string) (*models.Feature, error) {
	ctx = ensureContext(ctx)

	if _, err := s.access.Check(ctx, userID, access.Target{FeatureID: id, IncludeDeleted: true}); err != nil {
		return nil, err
	}
	if err := s.features.Restore(ctx, id); err != nil {
		return nil, storeError("feature service", "restore feature", err, access.ErrFeatureNotFound)
	}

	restored, err := s.reload(ctx, id, store.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	metrics.BoardEvents.WithLabelValues(EventFeatureRestored).Inc()
	s.events.PublishBoardEvent(restored.RoadmapID, EventFeatureRestored, restored)
	return restored, nil
}

func (s *FeatureService) reload(ctx context.Context, id string, scope store.Scope) (*models.Feature, error) {
	feature, err := s.features.FindByID(ctx, id, scope)
	if err != nil {
		return nil, storeError("feature service", "load feature", err, access.ErrFeatureNotFound)
	}
	return feature, nil
}
