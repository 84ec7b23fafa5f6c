package repository

import (
	"context"

	"photoshare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Exists(ctx context.Context, userID, photoID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *likeRepository) Create(ctx context.Context, userID, photoID string) error {
	like := models.Like{UserID: userID, PhotoID: photoID, CreatedAt: nowUTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, photoID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Delete(&models.Like{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) FindByPhotoIDs(ctx context.Context, photoIDs []string) ([]models.Like, error) {
	if len(photoIDs) == 0 {
		return []models.Like{}, nil
	}
	var likes []models.Like
	err := r.db.WithContext(ctx).
		Where("photo_id IN ?", photoIDs).
		Order("created_at ASC").
		Find(&likes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return likes, nil
}

func (r *likeRepository) DeleteByPhoto(ctx context.Context, photoID string) error {
	if err := r.db.WithContext(ctx).Where("photo_id = ?", photoID).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) DeleteByUser(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
