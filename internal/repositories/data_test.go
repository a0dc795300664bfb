package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	dbCtx, err := NewDbContext(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())
	t.Cleanup(func() { _ = dbCtx.Close() })

	return NewStorageRepository(dbCtx.DB)
}

func Test_Storage_SaveOverwritesExistingKey(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, models.StorageItem{Key: "k", Value: []byte(`1`)}))
	require.NoError(t, storage.Save(ctx, models.StorageItem{Key: "k", Value: []byte(`2`)}))

	items, err := storage.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []byte(`2`), items[0].Value)
}

func Test_Storage_ReplaceAll(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, models.StorageItem{Key: "old", Value: []byte(`1`)}))
	require.NoError(t, storage.ReplaceAll(ctx, []models.StorageItem{
		{Key: "a", Value: []byte(`1`)},
		{Key: "b", Value: []byte(`2`)},
	}))

	items, err := storage.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Key)
	assert.Equal(t, "b", items[1].Key)

	require.NoError(t, storage.ReplaceAll(ctx, nil))
	items, err = storage.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func Test_Storage_RemoveExpired(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	now := time.Now()
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	require.NoError(t, storage.Save(ctx, models.StorageItem{Key: "expired", Value: []byte(`1`), ExpiresAt: &past}))
	require.NoError(t, storage.Save(ctx, models.StorageItem{Key: "fresh", Value: []byte(`1`), ExpiresAt: &future}))
	require.NoError(t, storage.Save(ctx, models.StorageItem{Key: "forever", Value: []byte(`1`)}))

	removed, err := storage.RemoveExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, storage.Remove(ctx, "forever"))
	items, err := storage.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].Key)
}
