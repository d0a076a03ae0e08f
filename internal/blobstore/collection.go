package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Collection is a JSON array stored as one blob and grown by rewriting it
// whole. Every write lands in a new generation object
// "<stem>-<uuidv7>.json". The lexically greatest generation is current,
// and older ones are deleted only after the new one is written.
//
// Appends are serialized within one process. Separate processes sharing a
// bucket still race: the last writer wins and an intervening append is
// lost.
//
// Nothing is ever stored under the bare logical key: external readers
// must list objects by stem and take the greatest generation rather than
// read "quiz-results.json" directly.
type Collection[T any] struct {
	bucket Bucket
	key    string
	stem   string
	logger *zap.Logger

	mu            sync.Mutex
	newGeneration func() string
}

// NewCollection binds a logical key such as "quiz-results.json" to bucket.
func NewCollection[T any](bucket Bucket, key string, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{
		bucket:        bucket,
		key:           key,
		stem:          strings.TrimSuffix(key, ".json"),
		logger:        logger,
		newGeneration: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Key returns the logical collection name.
func (c *Collection[T]) Key() string { return c.key }

// Load returns the current items. A missing collection is empty; a
// corrupt one is reported as empty with a warning.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	items, _, err := c.load(ctx)
	return items, err
}

// Append adds item and rewrites the collection, returning the new length.
func (c *Collection[T]) Append(ctx context.Context, item T) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, existing, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	items = append(items, item)

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode collection: %w", err)
	}

	next := c.stem + "-" + c.newGeneration() + ".json"
	if err := c.bucket.Put(ctx, next, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return 0, fmt.Errorf("write collection: %w", err)
	}

	for _, old := range existing {
		if err := c.bucket.Delete(ctx, old); err != nil {
			// The new generation already supersedes it.
			c.logger.Warn("failed to delete previous collection generation",
				zap.String("key", old), zap.Error(err))
		}
	}
	return len(items), nil
}

// load reads the newest generation and also returns every generation key
// found, newest included.
func (c *Collection[T]) load(ctx context.Context) ([]T, []string, error) {
	objects, err := c.bucket.List(ctx, c.stem)
	if err != nil {
		return nil, nil, fmt.Errorf("list collection: %w", err)
	}

	var keys []string
	current, currentGen := "", ""
	for _, o := range objects {
		gen, ok := c.generation(o.Key)
		if !ok {
			continue
		}
		keys = append(keys, o.Key)
		if current == "" || gen > currentGen {
			current, currentGen = o.Key, gen
		}
	}
	if current == "" {
		return []T{}, nil, nil
	}

	rc, err := c.bucket.Get(ctx, current)
	if errors.Is(err, ErrNotFound) {
		return []T{}, keys, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read collection: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("read collection: %w", err)
	}

	items := []T{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			c.logger.Warn("collection is not a valid JSON array, starting over",
				zap.String("key", current), zap.Error(err))
			items = []T{}
		}
	}
	return items, keys, nil
}

// generation extracts the generation id from a key belonging to this
// collection. The bare logical key is the oldest possible generation.
func (c *Collection[T]) generation(key string) (string, bool) {
	if key == c.key {
		return "", true
	}
	rest, ok := strings.CutPrefix(key, c.stem+"-")
	if !ok {
		return "", false
	}
	gen, ok := strings.CutSuffix(rest, ".json")
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(gen); err != nil {
		return "", false
	}
	return gen, true
}
