package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/roadboard/internal/models"
)

// FeatureStore persists features.
type FeatureStore interface {
	Create(ctx context.Context, feature *models.Feature) error
	// FindByID loads the feature with its votes and parent roadmap members.
	// In Live scope a feature whose roadmap is soft deleted is not found.
	FindByID(ctx context.Context, id string, scope Scope) (*models.Feature, error)
	// FindActiveByRoadmap lists live features of a roadmap, optionally filtered by status.
	FindActiveByRoadmap(ctx context.Context, roadmapID string, status models.Status) ([]models.Feature, error)
	// FindDeletedByRoadmap lists soft-deleted features of a roadmap.
	FindDeletedByRoadmap(ctx context.Context, roadmapID string) ([]models.Feature, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormFeatureStore struct {
	db *gorm.DB
}

func (s *gormFeatureStore) Create(ctx context.Context, feature *models.Feature) error {
	return s.db.WithContext(ctx).Omit("Roadmap", "Votes").Create(feature).Error
}

func (s *gormFeatureStore) FindByID(ctx context.Context, id string, scope Scope) (*models.Feature, error) {
	var feature models.Feature
	err := scope.apply(s.db.WithContext(ctx)).
		Preload("Votes").
		Preload("Roadmap", func(tx *gorm.DB) *gorm.DB {
			return scope.apply(tx)
		}).
		Preload("Roadmap.Users").
		Where("id = ?", id).
		First(&feature).Error
	if err != nil {
		return nil, translate(err)
	}
	if feature.Roadmap == nil {
		return nil, ErrNotFound
	}
	return &feature, nil
}

func (s *gormFeatureStore) FindActiveByRoadmap(ctx context.Context, roadmapID string, status models.Status) ([]models.Feature, error) {
	query := s.db.WithContext(ctx).Preload("Votes").Where("roadmap_id = ?", roadmapID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var features []models.Feature
	err := query.Order("created_at ASC").Find(&features).Error
	return features, err
}

func (s *gormFeatureStore) FindDeletedByRoadmap(ctx context.Context, roadmapID string) ([]models.Feature, error) {
	var features []models.Feature
	err := s.db.WithContext(ctx).Unscoped().
		Preload("Votes").
		Where("roadmap_id = ? AND deleted_at IS NOT NULL", roadmapID).
		Order("deleted_at DESC").
		Find(&features).Error
	return features, err
}

func (s *gormFeatureStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Feature{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormFeatureStore) SoftDelete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Feature{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormFeatureStore) Restore(ctx context.Context, id string) error {
	return restore(ctx, s.db, &models.Feature{}, id)
}

func (s *gormFeatureStore) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Unscoped().Model(&models.Feature{}).Select("id").
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff)
		if err := tx.Where("feature_id IN (?)", stale).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).Delete(&models.Feature{})
		purged = res.RowsAffected
		return res.Error
	})
	return purged, err
}
