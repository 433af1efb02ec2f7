package domain

import (
	"sort"
	"time"
)

// User is the aggregate root stored in the users collection. The shopping cart
// is embedded; a user owns exactly one cart for its whole lifetime.
type User struct {
	ID           string       `bson:"_id"`
	ShoppingCart ShoppingCart `bson:"shoppingcart"`
}

func NewUser(id string) *User {
	return &User{
		ID:           id,
		ShoppingCart: NewShoppingCart(),
	}
}

// FirstCartItem extracts the single item left by an element-match projection
// query. ok is false when the projection produced no item.
func (u *User) FirstCartItem() (ShoppingCartItem, bool) {
	items := u.ShoppingCart.Items
	if len(items) == 0 {
		return ShoppingCartItem{}, false
	}
	return items[0], true
}

// ShoppingCart is the embedded cart value of a user. Item ids are unique within
// the set; two items may still reference the same product variant if created
// through separate paths.
type ShoppingCart struct {
	LastUpdatedAt time.Time          `bson:"last_updated_at"`
	Items         []ShoppingCartItem `bson:"internal_shoppingcart_items"`
}

func NewShoppingCart() ShoppingCart {
	return ShoppingCart{
		LastUpdatedAt: time.Now().UTC(),
		Items:         []ShoppingCartItem{},
	}
}

// OwnedCart pairs a cart with the id of its owning user, the shape list
// queries and the GraphQL cart type work with.
type OwnedCart struct {
	UserID string
	ShoppingCart
}

// ShoppingCartItem is a cart entry referencing a product variant by value of
// its id as of insertion time.
type ShoppingCartItem struct {
	ID             string         `bson:"_id"`
	Count          uint64         `bson:"count"`
	AddedAt        time.Time      `bson:"added_at"`
	ProductVariant ProductVariant `bson:"product_variant"`
}

// Less is the natural ordering of items: a total order on id only, used as a
// stable tie-break rather than a semantic sort.
func (i ShoppingCartItem) Less(other ShoppingCartItem) bool {
	return i.ID < other.ID
}

// ShoppingCartItemSpec is the input shape for item creation and cart
// replacement. Counts are not validated to be positive.
type ShoppingCartItemSpec struct {
	Count            uint64
	ProductVariantID string
}

// ProductVariant is a minimal existence projection of an entity owned by the
// catalog service, populated via events and never updated locally.
type ProductVariant struct {
	ID string `bson:"_id"`
}

// SortItems orders items by id according to direction.
func SortItems(items []ShoppingCartItem, order CommonOrder) {
	less := func(a, b ShoppingCartItem) bool { return a.Less(b) }
	if order.DirectionOrDefault() == Descending {
		less = func(a, b ShoppingCartItem) bool { return b.Less(a) }
	}
	sort.Slice(items, func(a, b int) bool { return less(items[a], items[b]) })
}
