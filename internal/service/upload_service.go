package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"net/http"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/repository"
	"photoshare/internal/storage"

	"go.opentelemetry.io/otel/attribute"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const DefaultMaxUploadSizeMB = 10

type UploadInput struct {
	UserID   string
	FileName string
	Content  []byte
}

type UploadService struct {
	photos             repository.PhotoRepository
	files              storage.PhotoStore
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewUploadService(photos repository.PhotoRepository, files storage.PhotoStore, cfg *config.Config) *UploadService {
	maxBytes := int64(DefaultMaxUploadSizeMB) << 20
	if cfg != nil && cfg.ImageMaxUploadMB > 0 {
		maxBytes = cfg.MaxUploadBytes()
	}
	return &UploadService{
		photos:             photos,
		files:              files,
		maxUploadSizeBytes: maxBytes,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores the image bytes and creates the photo record. The stored file
// is removed again when the record cannot be written.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (photo *models.Photo, err error) {
	ctx, span := observability.StartSpan(ctx, "upload.photo", attribute.Int("upload.bytes", len(in.Content)))
	defer func() {
		observability.EndSpan(span, err)
		result := "ok"
		if err != nil {
			result = "error"
		}
		observability.PhotoUploads.WithLabelValues(result).Inc()
	}()

	if len(in.Content) == 0 {
		return nil, models.NewValidationError("Error: Uploaded photo is empty")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes>>20))
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(in.Content)); err != nil {
		return nil, models.NewValidationError("Error processing photo")
	}

	now := s.now()
	name := storage.GeneratedName(now, in.FileName)
	if err := s.files.Save(ctx, name, in.Content, http.DetectContentType(in.Content)); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to store photo file",
			slog.String("file_name", name),
			slog.String("error", err.Error()))
		return nil, &models.AppError{Code: models.CodeInternal, Message: "Failed to save photo", Err: err}
	}

	photo = &models.Photo{
		UserID:   in.UserID,
		FileName: name,
		DateTime: now,
		Comments: []models.Comment{},
		Mentions: models.IDList{},
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		if delErr := s.files.Delete(ctx, name); delErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove orphaned photo file",
				slog.String("file_name", name),
				slog.String("error", delErr.Error()))
		}
		return nil, &models.AppError{Code: models.CodeInternal, Message: "Failed to save photo to the database", Err: err}
	}
	return photo, nil
}
