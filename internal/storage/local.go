package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// LocalStore writes photos into a directory served under urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates dir when missing and returns a store rooted there.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir returns the directory photos are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(_ context.Context, name string, data []byte, _ string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	return nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(_ context.Context, name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
		return "", ErrNotFound
	}
	return s.urlPrefix + "/" + url.PathEscape(name), nil
}
