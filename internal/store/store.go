package store

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// Store is a bucket of downloaded months and provenance records.
type Store struct {
	bucket *blob.Bucket
	url    string
}

// Open opens the store at target. Bucket URLs pass through to their blob
// drivers; anything without a scheme is treated as a local directory,
// created when absent.
func Open(ctx context.Context, target string) (*Store, error) {
	bucketURL := target
	if !strings.Contains(target, "://") {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("resolve path %s: %w", target, err)
		}
		u := url.URL{
			Scheme:   "file",
			Path:     abs,
			RawQuery: "create_dir=true&metadata=skip",
		}
		bucketURL = u.String()
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", target, err)
	}
	return &Store{bucket: bucket, url: bucketURL}, nil
}

// Exists reports whether key is already present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return exists, nil
}

// NewWriter opens a writer for key. Nothing becomes visible under key
// until Close returns nil; canceling the writer's context abandons the
// object.
func (s *Store) NewWriter(ctx context.Context, key string) (*blob.Writer, error) {
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("create writer for %s: %w", key, err)
	}
	return w, nil
}

// WriteAll stores data under key in one call.
func (s *Store) WriteAll(ctx context.Context, key string, data []byte) error {
	if err := s.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// ReadAll returns the full contents of key.
func (s *Store) ReadAll(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// URL returns the resolved bucket URL.
func (s *Store) URL() string {
	return s.url
}

// Close releases the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// IsNotExist reports whether err represents a missing object.
func IsNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
