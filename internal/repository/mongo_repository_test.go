package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/MiSArch/shoppingcart/internal/apperror"
	"github.com/MiSArch/shoppingcart/internal/domain"
)

func setupTestDB(t *testing.T) (UserRepository, ProductVariantRepository, func()) {
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	users := NewMongoUserRepository(db)
	variants := NewMongoProductVariantRepository(db)

	err = users.CreateIndexes(ctx)
	require.NoError(t, err)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return users, variants, cleanup
}

func insertTestUser(t *testing.T, users UserRepository) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, users.InsertUser(context.Background(), domain.NewUser(id)))
	return id
}

func appendTestItem(t *testing.T, users UserRepository, ownerID string) domain.ShoppingCartItem {
	t.Helper()
	item := domain.ShoppingCartItem{
		ID:             uuid.NewString(),
		Count:          2,
		AddedAt:        time.Now().UTC().Truncate(time.Millisecond),
		ProductVariant: domain.ProductVariant{ID: uuid.NewString()},
	}
	require.NoError(t, users.AppendItem(context.Background(), ownerID, item, item.AddedAt))
	return item
}

func TestGetCartByOwner_NotFound(t *testing.T) {
	users, _, cleanup := setupTestDB(t)
	defer cleanup()

	cart, err := users.GetCartByOwner(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Nil(t, cart)
}

func TestInsertUser_DuplicateIsNoop(t *testing.T) {
	users, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, users.InsertUser(ctx, domain.NewUser(id)))

	// Redelivered creation event must not fail
	require.NoError(t, users.InsertUser(ctx, domain.NewUser(id)))

	_, total, err := users.ListUsers(ctx, PageArgs{}, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestAppendItem_AndFindItemOwner(t *testing.T) {
	users, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := insertTestUser(t, users)
	item := appendTestItem(t, users, ownerID)

	owner, err := users.FindItemOwner(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, owner.ID)

	// Projection returns exactly the matched element
	require.Len(t, owner.ShoppingCart.Items, 1)
	assert.Equal(t, item.ID, owner.ShoppingCart.Items[0].ID)
	assert.Equal(t, item.ProductVariant.ID, owner.ShoppingCart.Items[0].ProductVariant.ID)
}

func TestFindItemByVariantAndOwner(t *testing.T) {
	users, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := insertTestUser(t, users)
	item := appendTestItem(t, users, ownerID)

	found, err := users.FindItemByVariantAndOwner(ctx, item.ProductVariant.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	_, err = users.FindItemByVariantAndOwner(ctx, uuid.NewString(), ownerID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSetItemCount(t *testing.T) {
	users, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := insertTestUser(t, users)
	item := appendTestItem(t, users, ownerID)

	err := users.SetItemCount(ctx, item.ID, 10)
	require.NoError(t, err)

	owner, err := users.FindItemOwner(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), owner.ShoppingCart.Items[0].Count)
}

func TestRemoveItems_SetSubtraction(t *testing.T) {
	users, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := insertTestUser(t, users)
	itemA := appendTestItem(t, users, ownerID)
	itemB := appendTestItem(t, users, ownerID)
	itemC := appendTestItem(t, users, ownerID)

	err := users.RemoveItems(ctx, ownerID, []string{itemB.ID, itemC.ID})
	require.NoError(t, err)

	cart, err := users.GetCartByOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, itemA.ID, cart.Items[0].ID)

	// Redelivery removes nothing further and does not fail
	err = users.RemoveItems(ctx, ownerID, []string{itemB.ID, itemC.ID})
	require.NoError(t, err)

	cart, err = users.GetCartByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestReplaceCartItems(t *testing.T) {
	users, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := insertTestUser(t, users)
	appendTestItem(t, users, ownerID)

	now := time.Now().UTC().Truncate(time.Millisecond)
	replacement := []domain.ShoppingCartItem{
		{ID: uuid.NewString(), Count: 1, AddedAt: now, ProductVariant: domain.ProductVariant{ID: uuid.NewString()}},
		{ID: uuid.NewString(), Count: 4, AddedAt: now, ProductVariant: domain.ProductVariant{ID: uuid.NewString()}},
	}
	err := users.ReplaceCartItems(ctx, ownerID, replacement, now)
	require.NoError(t, err)

	cart, err := users.GetCartByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, now, cart.LastUpdatedAt.UTC().Truncate(time.Millisecond))
}

func TestProductVariants_InsertAndMissing(t *testing.T) {
	_, variants, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	knownID := uuid.NewString()
	require.NoError(t, variants.InsertProductVariant(ctx, domain.ProductVariant{ID: knownID}))

	// Duplicate stub insert is a no-op
	require.NoError(t, variants.InsertProductVariant(ctx, domain.ProductVariant{ID: knownID}))

	exists, err := variants.VariantExists(ctx, knownID)
	require.NoError(t, err)
	assert.True(t, exists)

	missingID := uuid.NewString()
	missing, absent, err := variants.MissingVariant(ctx, []string{knownID, missingID})
	require.NoError(t, err)
	assert.True(t, absent)
	assert.Equal(t, missingID, missing)
}

func TestContextCancellation(t *testing.T) {
	users, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := users.GetUser(ctx, uuid.NewString())
	assert.Error(t, err)
}
