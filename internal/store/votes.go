package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/charlesng35/roadboard/internal/models"
)

// VoteStore persists anonymous votes.
type VoteStore interface {
	// CreateOnce inserts a vote unless (featureID, sessionID) already voted.
	// The returned bool is true when a new row was written.
	CreateOnce(ctx context.Context, featureID, sessionID string) (*models.Vote, bool, error)
	CountByFeature(ctx context.Context, featureID string) (int64, error)
}

type gormVoteStore struct {
	db *gorm.DB
}

func (s *gormVoteStore) CreateOnce(ctx context.Context, featureID, sessionID string) (*models.Vote, bool, error) {
	vote := models.Vote{FeatureID: featureID, SessionID: sessionID}
	err := s.db.WithContext(ctx).Create(&vote).Error
	if err == nil {
		return &vote, true, nil
	}
	if !IsUniqueViolation(err) {
		return nil, false, err
	}

	var existing models.Vote
	if err := s.db.WithContext(ctx).
		Where("feature_id = ? AND session_id = ?", featureID, sessionID).
		First(&existing).Error; err != nil {
		return nil, false, translate(err)
	}
	return &existing, false, nil
}

func (s *gormVoteStore) CountByFeature(ctx context.Context, featureID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).Where("feature_id = ?", featureID).Count(&count).Error
	return count, err
}
