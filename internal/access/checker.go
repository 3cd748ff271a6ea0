// Package access decides whether a user may act on a roadmap or one of its features.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/store"
	apperrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/metrics"
)

var (
	ErrRoadmapNotFound = apperrors.NewNotFound("Roadmap not found.")
	ErrFeatureNotFound = apperrors.NewNotFound("Feature not found.")
	ErrNotMember       = apperrors.NewUnauthorized("You are not authorized to access this resource.")
)

// Target names the resource being acted on. When both ids are set the
// feature's roadmap decides membership.
type Target struct {
	RoadmapID string
	FeatureID string
	// IncludeDeleted lets restore flows check a soft-deleted roadmap or
	// feature. A feature's parent roadmap must still be live.
	IncludeDeleted bool
}

// Grant is the outcome of a successful check. It carries what was loaded so
// callers do not have to read the same rows again.
type Grant struct {
	Roadmap *models.Roadmap
	Feature *models.Feature
}

// Checker verifies roadmap membership.
type Checker struct {
	roadmaps store.RoadmapStore
	features store.FeatureStore
	log      *zap.Logger
}

// NewChecker constructs a Checker.
func NewChecker(roadmaps store.RoadmapStore, features store.FeatureStore) (*Checker, error) {
	if roadmaps == nil || features == nil {
		return nil, errors.New("access checker: roadmap and feature stores are required")
	}
	return &Checker{
		roadmaps: roadmaps,
		features: features,
		log:      logger.WithModule("access"),
	}, nil
}

// Check returns nil error only when userID belongs to the target roadmap.
// A missing resource yields a NotFound error and a non-member an Unauthorized
// one. A target with neither id always fails.
func (c *Checker) Check(ctx context.Context, userID string, target Target) (*Grant, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	scope := store.Live
	if target.IncludeDeleted {
		scope = store.IncludeDeleted
	}

	var (
		grant      Grant
		authorised []string
		kind       = "none"
	)

	if id := strings.TrimSpace(target.RoadmapID); id != "" {
		kind = "roadmap"
		roadmap, err := c.roadmaps.FindByID(ctx, id, scope)
		if err != nil {
			return nil, c.lookupFailure(kind, err, ErrRoadmapNotFound)
		}
		grant.Roadmap = roadmap
		authorised = roadmap.MemberIDs()
	}

	if id := strings.TrimSpace(target.FeatureID); id != "" {
		kind = "feature"
		feature, err := c.features.FindByID(ctx, id, scope)
		if err != nil {
			return nil, c.lookupFailure(kind, err, ErrFeatureNotFound)
		}
		// Only the feature itself may be soft-deleted. A feature under a
		// deleted roadmap stays unreachable until the roadmap is restored.
		if feature.Roadmap == nil || feature.Roadmap.IsDeleted() {
			metrics.AccessChecks.WithLabelValues(kind, "missing").Inc()
			return nil, ErrRoadmapNotFound
		}
		grant.Feature = feature
		grant.Roadmap = feature.Roadmap
		authorised = feature.Roadmap.MemberIDs()
	}

	if userID == "" || !contains(authorised, userID) {
		metrics.AccessChecks.WithLabelValues(kind, "deny").Inc()
		c.log.Debug("access denied",
			zap.String("user_id", userID),
			zap.String("roadmap_id", target.RoadmapID),
			zap.String("feature_id", target.FeatureID))
		return nil, ErrNotMember
	}

	metrics.AccessChecks.WithLabelValues(kind, "allow").Inc()
	return &grant, nil
}

func (c *Checker) lookupFailure(kind string, err error, notFound *apperrors.AppError) error {
	if errors.Is(err, store.ErrNotFound) {
		metrics.AccessChecks.WithLabelValues(kind, "missing").Inc()
		return notFound
	}
	metrics.AccessChecks.WithLabelValues(kind, "error").Inc()
	return apperrors.NewDatabase(fmt.Sprintf("load %s", kind), err)
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
