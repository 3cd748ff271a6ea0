// Package kanban keeps a client-side roadmap board in sync with the API as
// cards are dropped on status columns or the delete zone.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/pkg/client"
)

// Delete zone identifiers accepted as drop targets.
const (
	DeleteZone    = "delete"
	DeleteZoneAlt = "delete-zone"
)

// ErrUnknownFeature is returned when a drop names a card not on the board.
var ErrUnknownFeature = errors.New("kanban: feature is not on the board")

// Transport performs the server calls behind a drop. *client.Client
// satisfies it.
type Transport interface {
	UpdateFeature(ctx context.Context, id string, input client.FeatureInput) (*models.Feature, error)
	DeleteFeature(ctx context.Context, id string) (*models.Feature, error)
}

// Outcome describes what a drop did.
type Outcome int

const (
	// Ignored means the drop was a no-op and no request was sent.
	Ignored Outcome = iota
	Moved
	Deleted
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Deleted:
		return "deleted"
	default:
		return "ignored"
	}
}

// Drop is a card released over a target. Container is the column holding
// the card under the pointer, used when Target is itself a card id.
type Drop struct {
	FeatureID string
	Target    string
	Container string
}

// Column is one status lane of the board.
type Column struct {
	Status   models.Status
	Features []models.Feature
}

// Board holds the features of one roadmap grouped by status.
type Board struct {
	transport Transport

	mu       sync.RWMutex
	features []models.Feature
}

// NewBoard builds a board over features. Soft-deleted features are skipped.
func NewBoard(transport Transport, features []models.Feature) (*Board, error) {
	if transport == nil {
		return nil, errors.New("kanban: transport is required")
	}
	b := &Board{transport: transport}
	for _, f := range features {
		if f.IsDeleted() {
			continue
		}
		b.features = append(b.features, f)
	}
	return b, nil
}

// Columns returns the four status lanes in board order. Each lane keeps the
// features' original order.
func (b *Board) Columns() []Column {
	b.mu.RLock()
	defer b.mu.RUnlock()

	columns := make([]Column, 0, len(models.Statuses))
	for _, status := range models.Statuses {
		col := Column{Status: status, Features: []models.Feature{}}
		for _, f := range b.features {
			if f.Status == status {
				col.Features = append(col.Features, f)
			}
		}
		columns = append(columns, col)
	}
	return columns
}

// Feature returns the card with id.
func (b *Board) Feature(id string) (models.Feature, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i := b.indexOf(id); i >= 0 {
		return b.features[i], true
	}
	return models.Feature{}, false
}

// Len reports the number of cards on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.features)
}

// ResolveTarget maps a drop target to a status or the delete zone. Status
// names are matched case-insensitively with '-' and ' ' standing for '_'.
func ResolveTarget(target string) (status models.Status, deleteZone bool, ok bool) {
	trimmed := strings.ToLower(strings.TrimSpace(target))
	if trimmed == DeleteZone || trimmed == DeleteZoneAlt {
		return "", true, true
	}
	status, ok = models.ParseStatus(target)
	return status, false, ok
}

// Apply handles a drop. Local state only changes after the server accepts
// the request; on error the board is left as it was.
func (b *Board) Apply(ctx context.Context, drop Drop) (Outcome, error) {
	feature, ok := b.Feature(drop.FeatureID)
	if !ok {
		return Ignored, ErrUnknownFeature
	}

	status, deleteZone, ok := ResolveTarget(drop.Target)
	if !ok && drop.Container != "" {
		status, deleteZone, ok = ResolveTarget(drop.Container)
	}
	if !ok {
		return Ignored, nil
	}

	if deleteZone {
		if _, err := b.transport.DeleteFeature(ctx, feature.ID); err != nil {
			return Ignored, fmt.Errorf("kanban: delete %s: %w", feature.ID, err)
		}
		b.remove(feature.ID)
		return Deleted, nil
	}

	if status == feature.Status {
		return Ignored, nil
	}

	updated, err := b.transport.UpdateFeature(ctx, feature.ID, client.FeatureInput{
		Title:       feature.Title,
		Description: feature.Description,
		Status:      status,
	})
	if err != nil {
		return Ignored, fmt.Errorf("kanban: move %s to %s: %w", feature.ID, status, err)
	}

	next := feature
	next.Status = status
	if updated != nil && updated.ID == feature.ID {
		next = *updated
	}
	b.replace(next)
	return Moved, nil
}

// Upsert applies a feature pushed by the server, e.g. from a realtime event.
func (b *Board) Upsert(feature models.Feature) {
	if feature.IsDeleted() {
		b.remove(feature.ID)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(feature.ID); i >= 0 {
		b.features[i] = feature
		return
	}
	b.features = append(b.features, feature)
}

func (b *Board) replace(feature models.Feature) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(feature.ID); i >= 0 {
		b.features[i] = feature
	}
}

func (b *Board) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		b.features = append(b.features[:i], b.features[i+1:]...)
	}
}

// indexOf must be called with mu held.
func (b *Board) indexOf(id string) int {
	for i := range b.features {
		if b.features[i].ID == id {
			return i
		}
	}
	return -1
}
