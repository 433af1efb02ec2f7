package graphql

import (
	"fmt"
	"os"
	"path/filepath"
)

// FederatedSDL is the schema document the gateway composes against. The
// runtime schema in schema.go must stay in sync with it; the federation
// directives here are what mark User and ShoppingCartItem as entities owned
// or extended by this service.
const FederatedSDL = `extend schema
  @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key", "@shareable"])

scalar UUID
scalar DateTime
scalar _Any

enum OrderDirection {
  ASC
  DESC
}

enum CommonOrderField {
  ID
}

enum ShoppingCartOrderField {
  ID
  USER_ID
  NAME
  CREATED_AT
  LAST_UPDATED_AT
}

input CommonOrderInput {
  field: CommonOrderField
  direction: OrderDirection
}

input ShoppingCartOrderInput {
  field: ShoppingCartOrderField
  direction: OrderDirection
}

type ProductVariant @key(fields: "id", resolvable: false) {
  id: UUID!
}

type ShoppingCartItem @key(fields: "id") {
  id: UUID!
  count: Int!
  addedAt: DateTime!
  productVariant: ProductVariant!
}

type ShoppingCartItemConnection @shareable {
  nodes: [ShoppingCartItem!]!
  hasNextPage: Boolean!
  totalCount: Int!
}

type ShoppingCart {
  userId: UUID!
  lastUpdatedAt: DateTime!
  shoppingcartItems(first: Int, skip: Int, orderBy: CommonOrderInput): ShoppingCartItemConnection!
}

type ShoppingCartConnection @shareable {
  nodes: [ShoppingCart!]!
  hasNextPage: Boolean!
  totalCount: Int!
}

type User @key(fields: "id") {
  id: UUID!
  shoppingcart: ShoppingCart!
}

input ShoppingCartItemInput {
  count: Int!
  productVariantId: UUID!
}

input UpdateShoppingCartInput {
  id: UUID!
  shoppingCartItems: [ShoppingCartItemInput!]
}

input CreateShoppingCartItemInput {
  id: UUID!
  shoppingCartItem: ShoppingCartItemInput!
}

input UpdateShoppingCartItemInput {
  id: UUID!
  count: Int!
}

type Query {
  shoppingcart(userId: UUID!): ShoppingCart!
  shoppingcartItem(id: UUID!): ShoppingCartItem!
  shoppingcarts(first: Int, skip: Int, orderBy: ShoppingCartOrderInput, userId: UUID): ShoppingCartConnection!
}

type Mutation {
  updateShoppingcart(input: UpdateShoppingCartInput!): ShoppingCart!
  createShoppingcartItem(input: CreateShoppingCartItemInput!): ShoppingCartItem!
  updateShoppingcartItem(input: UpdateShoppingCartItemInput!): ShoppingCartItem!
  deleteShoppingcartItem(id: UUID!): Boolean!
}
`

// WriteSchema serializes the federated SDL to path, creating the parent
// directory if needed. Used by the offline schema export mode.
func WriteSchema(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create schema directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(FederatedSDL), 0o644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	return nil
}
