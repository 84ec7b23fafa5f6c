// Package storage keeps uploaded photo files, either in a local directory or
// in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound reports a file that is not in the store.
var ErrNotFound = errors.New("photo file not found")

// PhotoStore persists image bytes under a file name.
type PhotoStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	// Delete removes name. Deleting a missing file is not an error.
	Delete(ctx context.Context, name string) error
	// URL returns where clients fetch name from.
	URL(ctx context.Context, name string) (string, error)
}

// GeneratedName returns the stored file name for an upload: "U", the upload
// time in unix milliseconds, then the base of the client supplied name.
func GeneratedName(now time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(original), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "photo"
	}
	return "U" + strconv.FormatInt(now.UnixMilli(), 10) + base
}

// cleanName rejects names that would escape the store.
func cleanName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrNotFound
	}
	return name, nil
}
