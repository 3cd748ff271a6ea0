package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/roadboard/internal/models"
)

// RoadmapStore persists roadmaps and their membership.
type RoadmapStore interface {
	// Create inserts the roadmap and attaches memberIDs as its users.
	Create(ctx context.Context, roadmap *models.Roadmap, memberIDs []string) error
	// FindByID loads the roadmap with its members.
	FindByID(ctx context.Context, id string, scope Scope) (*models.Roadmap, error)
	// FindBoard loads a live roadmap with members and live features with votes.
	FindBoard(ctx context.Context, id string) (*models.Roadmap, error)
	// ListForMember returns live roadmaps userID belongs to, with their boards.
	ListForMember(ctx context.Context, userID string) ([]models.Roadmap, error)
	HasFeatureWithStatus(ctx context.Context, roadmapID string, status models.Status) (bool, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	// PurgeDeletedBefore permanently removes roadmaps soft deleted before cutoff.
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRoadmapStore struct {
	db *gorm.DB
}

func (s *gormRoadmapStore) Create(ctx context.Context, roadmap *models.Roadmap, memberIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		members := make([]models.User, 0, len(memberIDs))
		if len(memberIDs) > 0 {
			if err := tx.Where("id IN ?", memberIDs).Find(&members).Error; err != nil {
				return err
			}
		}
		roadmap.Users = members
		return tx.Create(roadmap).Error
	})
}

func (s *gormRoadmapStore) FindByID(ctx context.Context, id string, scope Scope) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	err := scope.apply(s.db.WithContext(ctx)).
		Preload("Users").
		Where("id = ?", id).
		First(&roadmap).Error
	if err != nil {
		return nil, translate(err)
	}
	return &roadmap, nil
}

func (s *gormRoadmapStore) FindBoard(ctx context.Context, id string) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	if err := withBoard(s.db.WithContext(ctx)).Where("id = ?", id).First(&roadmap).Error; err != nil {
		return nil, translate(err)
	}
	return &roadmap, nil
}

func (s *gormRoadmapStore) ListForMember(ctx context.Context, userID string) ([]models.Roadmap, error) {
	var roadmaps []models.Roadmap
	err := withBoard(s.db.WithContext(ctx)).
		Where("id IN (?)", s.db.Table("roadmap_users").Select("roadmap_id").Where("user_id = ?", userID)).
		Order("created_at ASC").
		Find(&roadmaps).Error
	return roadmaps, err
}

func (s *gormRoadmapStore) HasFeatureWithStatus(ctx context.Context, roadmapID string, status models.Status) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Feature{}).
		Where("roadmap_id = ? AND status = ?", roadmapID, status).
		Count(&count).Error
	return count > 0, err
}

func (s *gormRoadmapStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Roadmap{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormRoadmapStore) SoftDelete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Roadmap{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormRoadmapStore) Restore(ctx context.Context, id string) error {
	return restore(ctx, s.db, &models.Roadmap{}, id)
}

func (s *gormRoadmapStore) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Unscoped().Model(&models.Roadmap{}).
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		featureIDs := tx.Unscoped().Model(&models.Feature{}).Select("id").Where("roadmap_id IN ?", ids)
		if err := tx.Where("feature_id IN (?)", featureIDs).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("roadmap_id IN ?", ids).Delete(&models.Feature{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM roadmap_users WHERE roadmap_id IN ?", ids).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("id IN ?", ids).Delete(&models.Roadmap{})
		purged = res.RowsAffected
		return res.Error
	})
	return purged, err
}

// restore clears deleted_at on a soft-deleted row.
func restore(ctx context.Context, db *gorm.DB, model any, id string) error {
	res := db.WithContext(ctx).Unscoped().
		Model(model).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.WithContext(ctx).Unscoped().Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}
