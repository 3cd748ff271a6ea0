// Package store holds the persistence layer. Reads exclude soft-deleted rows
// unless the caller asks for IncludeDeleted.
package store

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row in the requested scope.
var ErrNotFound = errors.New("store: record not found")

// Scope selects whether soft-deleted rows are visible to a read.
type Scope int

const (
	// Live hides soft-deleted rows.
	Live Scope = iota
	// IncludeDeleted returns live and soft-deleted rows alike.
	IncludeDeleted
)

func (s Scope) apply(db *gorm.DB) *gorm.DB {
	if s == IncludeDeleted {
		return db.Unscoped()
	}
	return db
}

// Stores bundles the repositories constructed over a single database handle.
type Stores struct {
	Users    UserStore
	Roadmaps RoadmapStore
	Features FeatureStore
	Votes    VoteStore
}

// New constructs gorm-backed repositories.
func New(db *gorm.DB) (*Stores, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	return &Stores{
		Users:    &gormUserStore{db: db},
		Roadmaps: &gormRoadmapStore{db: db},
		Features: &gormFeatureStore{db: db},
		Votes:    &gormVoteStore{db: db},
	}, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// withBoard preloads live members and live features with their votes.
func withBoard(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Users").
		Preload("Features", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("features.created_at ASC")
		}).
		Preload("Features.Votes")
}
