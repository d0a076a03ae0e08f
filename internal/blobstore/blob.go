// Package blobstore stores whole JSON documents in an object store and
// implements the append-by-rewrite collection used for quiz results.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("blob not found")

// Object describes one stored blob.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Bucket is the minimal object-store surface the collection needs.
// Keys are slash-separated and relative to the bucket root.
type Bucket interface {
	// List returns objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Get opens a blob for reading. Missing keys yield ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes a blob, replacing any existing one under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a backend.
type Config struct {
	Backend string      `mapstructure:"backend"` // fs, minio, memory
	Key     string      `mapstructure:"key"`     // logical collection name
	Dir     string      `mapstructure:"dir"`     // fs backend root
	Minio   MinioConfig `mapstructure:"minio"`
}

// DefaultConfig stores quiz-results.json under ./data.
func DefaultConfig() Config {
	return Config{
		Backend: "fs",
		Key:     "quiz-results.json",
		Dir:     "data",
		Minio:   MinioConfig{Bucket: "cazamitos"},
	}
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg Config) (Bucket, error) {
	switch cfg.Backend {
	case "", "fs":
		return NewFSBucket(cfg.Dir)
	case "minio":
		return NewMinioBucket(ctx, cfg.Minio)
	case "memory":
		return NewMemoryBucket(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

// cleanKey normalizes key and rejects parent-directory segments.
func cleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid key %q", key)
		}
	}
	k := strings.TrimPrefix(path.Clean("/"+key), "/")
	if k == "" {
		return "", errors.New("empty key")
	}
	return k, nil
}
