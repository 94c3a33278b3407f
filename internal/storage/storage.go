// Package storage abstracts the blob store holding generated audio.
package storage

import "context"

// Store uploads blobs and resolves retrievable URLs for them.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	URL(key string) string
}
