package domain

// OrderDirection maps directly to a MongoDB sort spec value.
type OrderDirection int

const (
	Ascending  OrderDirection = 1
	Descending OrderDirection = -1
)

// CommonOrderField enumerates the fields foreign-owned collections can be
// ordered by.
type CommonOrderField int

const (
	CommonOrderFieldID CommonOrderField = iota
)

func (f CommonOrderField) StorageField() string {
	return "_id"
}

// CommonOrder specifies ordering for embedded item sets. The zero value means
// id ascending.
type CommonOrder struct {
	Field     CommonOrderField
	Direction OrderDirection
}

func (o CommonOrder) DirectionOrDefault() OrderDirection {
	if o.Direction == Descending {
		return Descending
	}
	return Ascending
}

// ShoppingCartOrderField enumerates the fields cart listings can be ordered by.
type ShoppingCartOrderField int

const (
	ShoppingCartOrderFieldID ShoppingCartOrderField = iota
	ShoppingCartOrderFieldUserID
	ShoppingCartOrderFieldName
	ShoppingCartOrderFieldCreatedAt
	ShoppingCartOrderFieldLastUpdatedAt
)

func (f ShoppingCartOrderField) StorageField() string {
	switch f {
	case ShoppingCartOrderFieldUserID:
		return "user_id"
	case ShoppingCartOrderFieldName:
		return "name"
	case ShoppingCartOrderFieldCreatedAt:
		return "created_at"
	case ShoppingCartOrderFieldLastUpdatedAt:
		return "last_updated_at"
	default:
		return "_id"
	}
}

// ShoppingCartOrder specifies ordering for cart listings. The zero value means
// id ascending.
type ShoppingCartOrder struct {
	Field     ShoppingCartOrderField
	Direction OrderDirection
}

func (o ShoppingCartOrder) DirectionOrDefault() OrderDirection {
	if o.Direction == Descending {
		return Descending
	}
	return Ascending
}
