package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs under a directory served by the API server's
// /audio route.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/audio/" + key
}

// Dir is the root the HTTP file-serving handler reads from.
func (s *LocalStore) Dir() string { return s.dir }
