package repository

import (
	"context"
	"time"

	"github.com/MiSArch/shoppingcart/internal/domain"
)

// PageArgs selects a page of a root-collection listing. A nil First means
// unbounded.
type PageArgs struct {
	First   *int
	Skip    int
	OrderBy domain.ShoppingCartOrder
}

// UserRepository defines the typed operations against the users collection.
// Consumers define this interface, not the MongoDB implementation.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetCartByOwner(ctx context.Context, ownerID string) (*domain.ShoppingCart, error)
	// FindItemOwner locates the user owning the item via an element-match
	// query, projected down to the single matching item.
	FindItemOwner(ctx context.Context, itemID string) (*domain.User, error)
	FindItemByVariantAndOwner(ctx context.Context, variantID, ownerID string) (*domain.ShoppingCartItem, error)
	ReplaceCartItems(ctx context.Context, ownerID string, items []domain.ShoppingCartItem, at time.Time) error
	AppendItem(ctx context.Context, ownerID string, item domain.ShoppingCartItem, at time.Time) error
	SetItemCount(ctx context.Context, itemID string, count uint64) error
	RemoveItem(ctx context.Context, itemID string) error
	RemoveItems(ctx context.Context, ownerID string, itemIDs []string) error
	InsertUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context, args PageArgs, ownerID string) ([]domain.User, int64, error)
	CreateIndexes(ctx context.Context) error
}

// ProductVariantRepository defines the typed operations against the local
// product variant projection.
type ProductVariantRepository interface {
	InsertProductVariant(ctx context.Context, variant domain.ProductVariant) error
	VariantExists(ctx context.Context, id string) (bool, error)
	// MissingVariant checks all ids with a single query and reports the first
	// id absent from the projection.
	MissingVariant(ctx context.Context, ids []string) (string, bool, error)
}
