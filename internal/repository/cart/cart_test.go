package cart

import (
	"context"
	"testing"

	"bookstore/internal/db/dbtest"
	"bookstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_GetOrCreateIsStable(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool)

	first, err := repo.GetOrCreateForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", first.UserID)
	assert.Empty(t, first.Items)

	second, err := repo.GetOrCreateForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestPostgres_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool)
	bookID, variantID := dbtest.Book(t, pool, "dune", "Dune", "PAPERBACK", "DUNE-PB", "12.00")

	c, err := repo.GetOrCreateForUser(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, repo.AddItem(ctx, c.ID, AddItemInput{BookID: bookID, VariantID: variantID, Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, c.ID, AddItemInput{BookID: bookID, VariantID: variantID, Quantity: 2}))

	c, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)

	itemID := c.Items[0].ID
	require.NoError(t, repo.SetItemQuantity(ctx, c.ID, itemID, 5))
	c, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Items[0].Quantity)

	assert.ErrorIs(t, repo.SetItemQuantity(ctx, c.ID, "00000000-0000-0000-0000-000000000000", 2), domain.ErrNotFound)

	removed, err := repo.ClearItems(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	c, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestPostgres_ClearItemsInsideRolledBackTx(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	bookID, variantID := dbtest.Book(t, pool, "emma", "Emma", "HARDCOVER", "EMMA-HC", "20.00")

	repo := NewPostgres(pool)
	c, err := repo.GetOrCreateForUser(ctx, "user-2")
	require.NoError(t, err)
	require.NoError(t, repo.AddItem(ctx, c.ID, AddItemInput{BookID: bookID, VariantID: variantID, Quantity: 1}))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	removed, err := NewPostgres(tx).ClearItems(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	require.NoError(t, tx.Rollback(ctx))

	c, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}
