package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalMediaPrefix is the URL prefix under which the server exposes the upload directory.
const LocalMediaPrefix = "/media"

// LocalStore keeps images on the local filesystem.
type LocalStore struct {
	root      string
	urlPrefix string
}

// NewLocalStore returns a store rooted at dir whose objects are served under urlPrefix.
func NewLocalStore(dir, urlPrefix string) *LocalStore {
	return &LocalStore{root: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Root returns the directory objects are written to.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *LocalStore) Put(ctx context.Context, key, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// Delete removes the given objects. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		p, err := s.path(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *LocalStore) URL(key string) string {
	return s.urlPrefix + "/" + strings.TrimLeft(key, "/")
}
