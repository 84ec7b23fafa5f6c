// Package repository implements the data access layer. Every interface has a
// GORM implementation (Postgres, SQLite) and a MongoDB implementation.
package repository

import (
	"context"
	"strings"

	"photoshare/internal/models"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByLoginName returns nil, nil when no user has the login name.
	GetByLoginName(ctx context.Context, loginName string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// PhotoRepository defines persistence operations for photos and their embedded comments.
// Photos are returned with their comment thread in thread order.
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id string) (*models.Photo, error)
	FindByOwner(ctx context.Context, userID string) ([]models.Photo, error)
	FindByMention(ctx context.Context, userID string) ([]models.Photo, error)
	FindByCommentID(ctx context.Context, commentID string) (*models.Photo, error)
	FindCommentedBy(ctx context.Context, userID string) ([]models.Photo, error)
	// AddComment appends to the thread in a single store operation.
	AddComment(ctx context.Context, photoID string, comment *models.Comment) error
	RemoveComment(ctx context.Context, photoID, commentID string) error
	RemoveCommentsByUser(ctx context.Context, photoID, userID string) error
	// AddMentions unions ids into the photo's mention set atomically and returns the new set.
	AddMentions(ctx context.Context, photoID string, ids []string) (models.IDList, error)
	AddCommentMentions(ctx context.Context, commentID string, ids []string) error
	SetMentions(ctx context.Context, photoID string, ids models.IDList) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	Exists(ctx context.Context, userID, photoID string) (bool, error)
	// Create is a no-op when the like already exists.
	Create(ctx context.Context, userID, photoID string) error
	Delete(ctx context.Context, userID, photoID string) error
	FindByPhotoIDs(ctx context.Context, photoIDs []string) ([]models.Like, error)
	DeleteByPhoto(ctx context.Context, photoID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// SchemaInfoRepository reads the static schema record.
type SchemaInfoRepository interface {
	Get(ctx context.Context) (*models.SchemaInfo, error)
	Ensure(ctx context.Context, version string) (*models.SchemaInfo, error)
	Count(ctx context.Context) (int64, error)
}

// Store bundles the repositories of one storage engine.
type Store struct {
	Users   UserRepository
	Photos  PhotoRepository
	Likes   LikeRepository
	Schema  SchemaInfoRepository
	Ping    func(ctx context.Context) error
	Close   func(ctx context.Context) error
	Backend string
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
