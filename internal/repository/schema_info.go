package repository

import (
	"context"
	"errors"

	"photoshare/internal/models"

	"gorm.io/gorm"
)

type schemaInfoRepository struct {
	db *gorm.DB
}

// NewSchemaInfoRepository returns a new SchemaInfoRepository implementation.
func NewSchemaInfoRepository(db *gorm.DB) SchemaInfoRepository {
	return &schemaInfoRepository{db: db}
}

func (r *schemaInfoRepository) Get(ctx context.Context) (*models.SchemaInfo, error) {
	var info models.SchemaInfo
	if err := r.db.WithContext(ctx).Order("load_date_time DESC").First(&info).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("SchemaInfo", "")
		}
		return nil, models.NewInternalError(err)
	}
	return &info, nil
}

// Ensure returns the existing record or creates one stamped with version.
func (r *schemaInfoRepository) Ensure(ctx context.Context, version string) (*models.SchemaInfo, error) {
	info, err := r.Get(ctx)
	if err == nil {
		return info, nil
	}
	if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}
	created := &models.SchemaInfo{Version: version, LoadDateTime: nowUTC()}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return created, nil
}

func (r *schemaInfoRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.SchemaInfo{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
