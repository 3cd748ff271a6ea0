package services

import (
	"context"
	"errors"
	"strings"

	"github.com/charlesng35/roadboard/internal/access"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/store"
	apperrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/metrics"
)

// VoteResult is the outcome of a cast.
type VoteResult struct {
	Vote      *models.Vote `json:"vote"`
	Created   bool         `json:"created"`
	VoteCount int64        `json:"voteCount"`
}

// VoteService records anonymous votes on features of public roadmaps.
type VoteService struct {
	features store.FeatureStore
	votes    store.VoteStore
	events   BoardPublisher
}

// NewVoteService constructs a VoteService.
func NewVoteService(stores *store.Stores, events BoardPublisher) (*VoteService, error) {
	if stores == nil {
		return nil, errors.New("vote service: stores are required")
	}
	return &VoteService{
		features: stores.Features,
		votes:    stores.Votes,
		events:   ensurePublisher(events),
	}, nil
}

// Cast records one vote per (featureID, sessionID). Repeated casts return
// the existing vote with Created false. Features of private roadmaps are
// reported as missing.
func (s *VoteService) Cast(ctx context.Context, featureID, sessionID string) (*VoteResult, error) {
	ctx = ensureContext(ctx)

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.NewBadRequest("sessionId is required")
	}

	feature, err := s.features.FindByID(ctx, featureID, store.Live)
	if err != nil {
		return nil, storeError("vote service", "load feature", err, access.ErrFeatureNotFound)
	}
	if feature.Roadmap == nil || !feature.Roadmap.IsPublic {
		return nil, access.ErrFeatureNotFound
	}

	vote, created, err := s.votes.CreateOnce(ctx, feature.ID, sessionID)
	if err != nil {
		return nil, storeError("vote service", "cast vote", err, nil)
	}
	count, err := s.votes.CountByFeature(ctx, feature.ID)
	if err != nil {
		return nil, storeError("vote service", "count votes", err, nil)
	}

	if created {
		metrics.Votes.WithLabelValues("created").Inc()
		s.events.PublishBoardEvent(feature.RoadmapID, EventFeatureVoted, map[string]any{
			"featureId": feature.ID,
			"voteCount": count,
		})
	} else {
		metrics.Votes.WithLabelValues("duplicate").Inc()
	}

	return &VoteResult{Vote: vote, Created: created, VoteCount: count}, nil
}
