package repository

import (
	"context"
	"errors"

	"photoshare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository returns a new PhotoRepository implementation.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

// withThread preloads comments in thread order.
func withThread(db *gorm.DB) *gorm.DB {
	return db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("date_time ASC")
	})
}

// lockForUpdate adds a row lock where the dialect supports it.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if photo.Mentions == nil {
		photo.Mentions = models.IDList{}
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(photo).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *photoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	var photo models.Photo
	if err := withThread(r.db.WithContext(ctx)).First(&photo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Photo", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &photo, nil
}

func (r *photoRepository) find(ctx context.Context, query interface{}, args ...interface{}) ([]models.Photo, error) {
	var photos []models.Photo
	err := withThread(r.db.WithContext(ctx)).
		Where(query, args...).
		Order("date_time ASC, id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return photos, nil
}

func (r *photoRepository) FindByOwner(ctx context.Context, userID string) ([]models.Photo, error) {
	return r.find(ctx, "user_id = ?", userID)
}

func (r *photoRepository) FindByMention(ctx context.Context, userID string) ([]models.Photo, error) {
	return r.find(ctx, "mentions LIKE ?", `%"`+userID+`"%`)
}

func (r *photoRepository) FindByCommentID(ctx context.Context, commentID string) (*models.Photo, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Select("photo_id").First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, models.NewInternalError(err)
	}
	return r.GetByID(ctx, comment.PhotoID)
}

func (r *photoRepository) FindCommentedBy(ctx context.Context, userID string) ([]models.Photo, error) {
	sub := r.db.WithContext(ctx).Model(&models.Comment{}).Select("photo_id").Where("user_id = ?", userID)
	return r.find(ctx, "id IN (?)", sub)
}

func (r *photoRepository) AddComment(ctx context.Context, photoID string, comment *models.Comment) error {
	comment.PhotoID = photoID
	if comment.Mentions == nil {
		comment.Mentions = models.IDList{}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Photo{}).Where("id = ?", photoID).Count(&n).Error; err != nil {
			return models.NewInternalError(err)
		}
		if n == 0 {
			return models.NewNotFoundError("Photo", photoID)
		}
		if err := tx.Create(comment).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *photoRepository) RemoveComment(ctx context.Context, photoID, commentID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND photo_id = ?", commentID, photoID).Delete(&models.Comment{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}

func (r *photoRepository) RemoveCommentsByUser(ctx context.Context, photoID, userID string) error {
	err := r.db.WithContext(ctx).Where("photo_id = ? AND user_id = ?", photoID, userID).Delete(&models.Comment{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *photoRepository) AddMentions(ctx context.Context, photoID string, ids []string) (models.IDList, error) {
	var merged models.IDList
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var photo models.Photo
		if err := lockForUpdate(tx).Select("id", "mentions").First(&photo, "id = ?", photoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Photo", photoID)
			}
			return models.NewInternalError(err)
		}
		merged = models.UnionIDs(photo.Mentions, ids)
		if err := tx.Model(&models.Photo{}).Where("id = ?", photoID).Update("mentions", merged).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func (r *photoRepository) AddCommentMentions(ctx context.Context, commentID string, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := lockForUpdate(tx).Select("id", "mentions").First(&comment, "id = ?", commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Comment", commentID)
			}
			return models.NewInternalError(err)
		}
		merged := models.IDList(models.UnionIDs(comment.Mentions, ids))
		if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).Update("mentions", merged).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *photoRepository) SetMentions(ctx context.Context, photoID string, ids models.IDList) error {
	if ids == nil {
		ids = models.IDList{}
	}
	err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", photoID).Update("mentions", ids).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *photoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		result := tx.Delete(&models.Photo{}, "id = ?", id)
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Photo", id)
		}
		return nil
	})
}

func (r *photoRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Photo{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
