package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestCollection_MissingIsEmpty(t *testing.T) {
	c := NewCollection[entry](NewMemoryBucket(), "quiz-results.json", nil)

	items, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestCollection_SequentialAppendsPreserveOrder(t *testing.T) {
	ctx := context.Background()
	bucket := NewMemoryBucket()
	c := NewCollection[entry](bucket, "quiz-results.json", nil)

	n, err := c.Append(ctx, entry{Name: "Ana", Score: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = c.Append(ctx, entry{Name: "Luis", Score: 9})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entry{{"Ana", 7}, {"Luis", 9}}, items)

	objects, err := bucket.List(ctx, "quiz-results")
	require.NoError(t, err)
	require.Len(t, objects, 1, "old generations must be deleted")
	assert.True(t, strings.HasPrefix(objects[0].Key, "quiz-results-"))

	_, err = bucket.Get(ctx, "quiz-results.json")
	assert.ErrorIs(t, err, ErrNotFound, "readers must list by stem")
}

func TestCollection_AdoptsBareLogicalKey(t *testing.T) {
	ctx := context.Background()
	bucket := NewMemoryBucket()
	legacy := `[{"name":"Estudiante Test API","score":10}]`
	require.NoError(t, bucket.Put(ctx, "quiz-results.json", strings.NewReader(legacy), int64(len(legacy)), "application/json"))

	c := NewCollection[entry](bucket, "quiz-results.json", nil)
	n, err := c.Append(ctx, entry{Name: "Ana", Score: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = bucket.Get(ctx, "quiz-results.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_CorruptContentResets(t *testing.T) {
	ctx := context.Background()
	bucket := NewMemoryBucket()
	require.NoError(t, bucket.Put(ctx, "quiz-results.json", strings.NewReader("{not json"), 9, ""))

	c := NewCollection[entry](bucket, "quiz-results.json", nil)
	items, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	n, err := c.Append(ctx, entry{Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollection_IgnoresUnrelatedKeys(t *testing.T) {
	ctx := context.Background()
	bucket := NewMemoryBucket()
	for _, k := range []string{"quiz-results-archive.json", "quiz-results-backup.txt", "other.json"} {
		require.NoError(t, bucket.Put(ctx, k, strings.NewReader("[]"), 2, ""))
	}

	c := NewCollection[entry](bucket, "quiz-results.json", nil)
	_, err := c.Append(ctx, entry{Name: "Ana"})
	require.NoError(t, err)

	for _, k := range []string{"quiz-results-archive.json", "quiz-results-backup.txt", "other.json"} {
		_, err := bucket.Get(ctx, k)
		assert.NoError(t, err, k)
	}
}

type failingBucket struct {
	*MemoryBucket
	failPut    bool
	failDelete bool
	failList   bool
}

func (f *failingBucket) Put(ctx context.Context, key string, r io.Reader, size int64, ct string) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.MemoryBucket.Put(ctx, key, r, size, ct)
}

func (f *failingBucket) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("permission denied")
	}
	return f.MemoryBucket.Delete(ctx, key)
}

func (f *failingBucket) List(ctx context.Context, prefix string) ([]Object, error) {
	if f.failList {
		return nil, errors.New("unreachable")
	}
	return f.MemoryBucket.List(ctx, prefix)
}

func TestCollection_FailedWriteKeepsPreviousGeneration(t *testing.T) {
	ctx := context.Background()
	bucket := &failingBucket{MemoryBucket: NewMemoryBucket()}
	c := NewCollection[entry](bucket, "quiz-results.json", nil)

	_, err := c.Append(ctx, entry{Name: "Ana"})
	require.NoError(t, err)

	bucket.failPut = true
	_, err = c.Append(ctx, entry{Name: "Luis"})
	require.Error(t, err)

	bucket.failPut = false
	items, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entry{{Name: "Ana"}}, items)
}

func TestCollection_DeleteFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	bucket := &failingBucket{MemoryBucket: NewMemoryBucket()}
	c := NewCollection[entry](bucket, "quiz-results.json", nil)

	_, err := c.Append(ctx, entry{Name: "Ana"})
	require.NoError(t, err)

	bucket.failDelete = true
	n, err := c.Append(ctx, entry{Name: "Luis"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	bucket.failDelete = false
	items, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2, "newest generation wins even when stale ones linger")
}

func TestCollection_ListFailureSurfaces(t *testing.T) {
	bucket := &failingBucket{MemoryBucket: NewMemoryBucket(), failList: true}
	c := NewCollection[entry](bucket, "quiz-results.json", nil)

	_, err := c.Append(context.Background(), entry{})
	assert.Error(t, err)
}

func TestCollection_ConcurrentAppendsInProcess(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[entry](NewMemoryBucket(), "quiz-results.json", nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Append(ctx, entry{Name: fmt.Sprintf("s%d", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 20)
}
