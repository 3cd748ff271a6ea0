// Package services implements roadmap, feature, user and vote operations on
// top of the store and the access checker.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/charlesng35/roadboard/internal/access"
	"github.com/charlesng35/roadboard/internal/queue"
	"github.com/charlesng35/roadboard/internal/store"
	apperrors "github.com/charlesng35/roadboard/pkg/errors"
)

// AccessChecker verifies roadmap membership before reads and writes.
type AccessChecker interface {
	Check(ctx context.Context, userID string, target access.Target) (*access.Grant, error)
}

// Board event names published to realtime subscribers.
const (
	EventFeatureCreated  = "feature.created"
	EventFeatureUpdated  = "feature.updated"
	EventFeatureDeleted  = "feature.deleted"
	EventFeatureRestored = "feature.restored"
	EventFeatureVoted    = "feature.voted"
	EventRoadmapUpdated  = "roadmap.updated"
	EventRoadmapDeleted  = "roadmap.deleted"
	EventRoadmapRestored = "roadmap.restored"
)

// BoardPublisher fans board changes out to members watching a roadmap.
type BoardPublisher interface {
	PublishBoardEvent(roadmapID, event string, data any)
}

type nopPublisher struct{}

func (nopPublisher) PublishBoardEvent(string, string, any) {}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func ensurePublisher(p BoardPublisher) BoardPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// storeError maps store failures: ErrNotFound becomes notFound, anything
// else a critical database error.
func storeError(service, op string, err error, notFound *apperrors.AppError) error {
	if errors.Is(err, store.ErrNotFound) && notFound != nil {
		return notFound
	}
	return fmt.Errorf("%s: %s: %w", service, op, apperrors.NewDatabase(op, err))
}

// Services bundles the domain services the HTTP layer depends on.
type Services struct {
	Roadmaps *RoadmapService
	Features *FeatureService
	Users    *UserService
	Votes    *VoteService
}

// NewServices wires every service over the same stores.
func NewServices(stores *store.Stores, checker AccessChecker, events BoardPublisher, jobs queue.Enqueuer) (*Services, error) {
	roadmaps, err := NewRoadmapService(stores, checker, events)
	if err != nil {
		return nil, err
	}
	features, err := NewFeatureService(stores, checker, events)
	if err != nil {
		return nil, err
	}
	users, err := NewUserService(stores, jobs)
	if err != nil {
		return nil, err
	}
	votes, err := NewVoteService(stores, events)
	if err != nil {
		return nil, err
	}
	return &Services{Roadmaps: roadmaps, Features: features, Users: users, Votes: votes}, nil
}
