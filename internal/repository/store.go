package repository

import (
	"context"
	"time"

	"photoshare/internal/database"

	"gorm.io/gorm"
)

// NewGormStore wires the SQL repositories over one GORM handle.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:  NewUserRepository(db),
		Photos: NewPhotoRepository(db),
		Likes:  NewLikeRepository(db),
		Schema: NewSchemaInfoRepository(db),
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
		Close: func(context.Context) error {
			return database.Close(db)
		},
		Backend: db.Dialector.Name(),
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
