package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core"
)

func rec(id, createdAt string) core.Record {
	return core.Record{
		ID:            id,
		RecordType:    core.TypeItem,
		Name:          id,
		Category:      core.CategoryHobby,
		PurchasePrice: decimal.NewFromInt(100),
		PurchaseDate:  "2024-05-01",
		Status:        core.StatusInStock,
		CreatedAt:     createdAt,
	}
}

func TestMemoryStoreUpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Upsert(ctx, rec("a", "2024-05-01T00:00:00Z")))
	require.NoError(t, s.Upsert(ctx, rec("b", "2024-06-01T00:00:00Z")))
	updated := rec("a", "2024-05-01T00:00:00Z")
	updated.Name = "renamed"
	require.NoError(t, s.Upsert(ctx, updated))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "renamed", all[1].Name)

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := New(rec("a", "1"), rec("b", "2"))

	require.NoError(t, s.ReplaceAll(ctx, []core.Record{rec("c", "3")}))
	all, _ := s.GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "c", all[0].ID)

	require.NoError(t, s.InsertMany(ctx, []core.Record{rec("d", "4"), rec("c", "3")}))
	all, _ = s.GetAll(ctx)
	assert.Len(t, all, 2)
}

func TestMemoryStoreDataVersion(t *testing.T) {
	ctx := context.Background()
	s := New(rec("a", "1"))

	version := func() uint64 {
		v, err := s.DataVersion(ctx)
		require.NoError(t, err)
		return v
	}

	v := version()
	_, _ = s.GetAll(ctx)
	assert.Equal(t, v, version(), "reads keep the version")

	writes := []func() error{
		func() error { return s.Upsert(ctx, rec("b", "2")) },
		func() error { return s.Delete(ctx, "a") },
		func() error { return s.InsertMany(ctx, []core.Record{rec("c", "3")}) },
		func() error { return s.ReplaceAll(ctx, nil) },
	}
	for i, write := range writes {
		require.NoError(t, write())
		next := version()
		assert.Greater(t, next, v, "write %d", i)
		v = next
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	all, _ := s.GetAll(context.Background())
	assert.Empty(t, all, "missing file gives an empty store")

	content := "id,recordType,name,category,purchasePrice,purchaseDate,miscExpense,consumableExpense,sellingPrice,soldDate,status,memo,createdAt\n" +
		"x1,item,Camera,electronics,30000,2024-01-05,0,0,,,in-stock,,2024-01-05T10:00:00Z\n" +
		",broken\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "records.csv"), []byte(content), 0o644))

	s = NewFromFiles(dir)
	all, _ = s.GetAll(context.Background())
	require.Len(t, all, 1)
	assert.Equal(t, "x1", all[0].ID)
	assert.Equal(t, core.CategoryElectronics, all[0].Category)
}
