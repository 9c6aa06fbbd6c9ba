package memory

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/returns-service/internal/services/returns"
)

var _ returns.Repository = (*ReturnsStore)(nil)

func newReturn(orderID int64, reason string) returns.Return {
	return returns.Return{OrderID: orderID, Reason: reason, Status: returns.StatusCreated}
}

func TestReturnsStore_CreateAssignsSequentialIDs(t *testing.T) {
	store := NewReturnsStore(slog.Default())
	ctx := context.Background()

	first, err := store.Create(ctx, newReturn(7, "damaged"))
	require.NoError(t, err)
	second, err := store.Create(ctx, newReturn(8, "wrong size"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestReturnsStore_GetReturnsCopy(t *testing.T) {
	store := NewReturnsStore(slog.Default())
	ctx := context.Background()

	created, err := store.Create(ctx, newReturn(7, "damaged"))
	require.NoError(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	got.Status = returns.StatusRefunded

	again, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, returns.StatusCreated, again.Status)
}

func TestReturnsStore_NotFound(t *testing.T) {
	store := NewReturnsStore(slog.Default())
	ctx := context.Background()

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, returns.ErrNotFound)

	_, err = store.UpdateStatus(ctx, 42, returns.StatusApproved)
	assert.ErrorIs(t, err, returns.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, 42), returns.ErrNotFound)
}

func TestReturnsStore_ListOrderedByID(t *testing.T) {
	store := NewReturnsStore(slog.Default())
	ctx := context.Background()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for i := range 5 {
		_, err := store.Create(ctx, newReturn(int64(i+1), "damaged"))
		require.NoError(t, err)
	}
	require.NoError(t, store.Delete(ctx, 3))

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i, want := range []int64{1, 2, 4, 5} {
		assert.Equal(t, want, list[i].ID)
	}
}

func TestReturnsStore_UpdateStatus(t *testing.T) {
	store := NewReturnsStore(slog.Default())
	ctx := context.Background()

	created, err := store.Create(ctx, newReturn(7, "damaged"))
	require.NoError(t, err)

	updated, err := store.UpdateStatus(ctx, created.ID, returns.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, returns.StatusApproved, updated.Status)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, returns.StatusApproved, got.Status)
	assert.Equal(t, "damaged", got.Reason)
}

func TestReturnsStore_DeletedIDsNotReused(t *testing.T) {
	store := NewReturnsStore(slog.Default())
	ctx := context.Background()

	first, err := store.Create(ctx, newReturn(7, "damaged"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, first.ID))

	second, err := store.Create(ctx, newReturn(7, "damaged"))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestReturnsStore_ConcurrentCreates(t *testing.T) {
	store := NewReturnsStore(slog.Default())
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(ctx, newReturn(1, "concurrent"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, n)
	for i, ret := range list {
		assert.Equal(t, int64(i+1), ret.ID)
	}
}
