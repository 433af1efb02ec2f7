// Package graphql exposes the typed query/mutation API of the shopping cart
// aggregate, including the federation entity resolvers consumed by the
// gateway. The schema is constructed at runtime; the federated SDL lives in
// sdl.go and is what the gateway composes against.
package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/MiSArch/shoppingcart/internal/domain"
	"github.com/MiSArch/shoppingcart/internal/pagination"
	"github.com/MiSArch/shoppingcart/internal/repository"
	"github.com/MiSArch/shoppingcart/internal/service"
)

// NewSchema builds the executable schema on top of the query and mutation
// services.
func NewSchema(query *service.QueryService, mutation *service.MutationService) (graphql.Schema, error) {
	orderDirectionEnum := graphql.NewEnum(graphql.EnumConfig{
		Name:        "OrderDirection",
		Description: "Direction to sort entities in.",
		Values: graphql.EnumValueConfigMap{
			"ASC":  &graphql.EnumValueConfig{Value: domain.Ascending},
			"DESC": &graphql.EnumValueConfig{Value: domain.Descending},
		},
	})

	commonOrderFieldEnum := graphql.NewEnum(graphql.EnumConfig{
		Name:        "CommonOrderField",
		Description: "Field that foreign-owned entities can be ordered by.",
		Values: graphql.EnumValueConfigMap{
			"ID": &graphql.EnumValueConfig{Value: domain.CommonOrderFieldID},
		},
	})

	shoppingCartOrderFieldEnum := graphql.NewEnum(graphql.EnumConfig{
		Name:        "ShoppingCartOrderField",
		Description: "Field that shopping carts can be ordered by.",
		Values: graphql.EnumValueConfigMap{
			"ID":              &graphql.EnumValueConfig{Value: domain.ShoppingCartOrderFieldID},
			"USER_ID":         &graphql.EnumValueConfig{Value: domain.ShoppingCartOrderFieldUserID},
			"NAME":            &graphql.EnumValueConfig{Value: domain.ShoppingCartOrderFieldName},
			"CREATED_AT":      &graphql.EnumValueConfig{Value: domain.ShoppingCartOrderFieldCreatedAt},
			"LAST_UPDATED_AT": &graphql.EnumValueConfig{Value: domain.ShoppingCartOrderFieldLastUpdatedAt},
		},
	})

	commonOrderInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        "CommonOrderInput",
		Description: "Ordering of foreign-owned entities.",
		Fields: graphql.InputObjectConfigFieldMap{
			"field":     &graphql.InputObjectFieldConfig{Type: commonOrderFieldEnum},
			"direction": &graphql.InputObjectFieldConfig{Type: orderDirectionEnum},
		},
	})

	shoppingCartOrderInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        "ShoppingCartOrderInput",
		Description: "Ordering of shopping carts.",
		Fields: graphql.InputObjectConfigFieldMap{
			"field":     &graphql.InputObjectFieldConfig{Type: shoppingCartOrderFieldEnum},
			"direction": &graphql.InputObjectFieldConfig{Type: orderDirectionEnum},
		},
	})

	productVariantType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "ProductVariant",
		Description: "A product variant, owned by the catalog service.",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(uuidScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.ProductVariant).ID, nil
				},
			},
		},
	})

	shoppingCartItemType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "ShoppingCartItem",
		Description: "A shopping cart item of a user.",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(uuidScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.ShoppingCartItem).ID, nil
				},
			},
			"count": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Int),
				Description: "Count of items in the basket.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return int(p.Source.(*domain.ShoppingCartItem).Count), nil
				},
			},
			"addedAt": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.DateTime),
				Description: "Timestamp when the item was added.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.ShoppingCartItem).AddedAt, nil
				},
			},
			"productVariant": &graphql.Field{
				Type:        graphql.NewNonNull(productVariantType),
				Description: "Product variant the item refers to.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.ShoppingCartItem).ProductVariant, nil
				},
			},
		},
	})

	shoppingCartItemConnectionType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "ShoppingCartItemConnection",
		Description: "A connection of shopping cart items.",
		Fields: graphql.Fields{
			"nodes": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(shoppingCartItemType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					connection := p.Source.(pagination.Connection[domain.ShoppingCartItem])
					nodes := make([]*domain.ShoppingCartItem, len(connection.Nodes))
					for i := range connection.Nodes {
						nodes[i] = &connection.Nodes[i]
					}
					return nodes, nil
				},
			},
			"hasNextPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(pagination.Connection[domain.ShoppingCartItem]).HasNextPage, nil
				},
			},
			"totalCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return int(p.Source.(pagination.Connection[domain.ShoppingCartItem]).TotalCount), nil
				},
			},
		},
	})

	shoppingCartType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "ShoppingCart",
		Description: "The shopping cart of a user.",
		Fields: graphql.Fields{
			"userId": &graphql.Field{
				Type:        graphql.NewNonNull(uuidScalar),
				Description: "UUID of the user owning the shopping cart.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.OwnedCart).UserID, nil
				},
			},
			"lastUpdatedAt": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.DateTime),
				Description: "Timestamp when the shopping cart was last updated.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.OwnedCart).LastUpdatedAt, nil
				},
			},
			"shoppingcartItems": &graphql.Field{
				Type:        graphql.NewNonNull(shoppingCartItemConnectionType),
				Description: "Items in the shopping cart.",
				Args: graphql.FieldConfigArgument{
					"first":   &graphql.ArgumentConfig{Type: graphql.Int},
					"skip":    &graphql.ArgumentConfig{Type: graphql.Int},
					"orderBy": &graphql.ArgumentConfig{Type: commonOrderInput},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cart := p.Source.(*domain.OwnedCart)
					first, skip := pageArgs(p.Args)
					return query.CartItems(&cart.ShoppingCart, first, skip, commonOrder(p.Args)), nil
				},
			},
		},
	})

	shoppingCartConnectionType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "ShoppingCartConnection",
		Description: "A connection of shopping carts.",
		Fields: graphql.Fields{
			"nodes": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(shoppingCartType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					connection := p.Source.(pagination.Connection[domain.OwnedCart])
					nodes := make([]*domain.OwnedCart, len(connection.Nodes))
					for i := range connection.Nodes {
						nodes[i] = &connection.Nodes[i]
					}
					return nodes, nil
				},
			},
			"hasNextPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(pagination.Connection[domain.OwnedCart]).HasNextPage, nil
				},
			},
			"totalCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return int(p.Source.(pagination.Connection[domain.OwnedCart]).TotalCount), nil
				},
			},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "User",
		Description: "A user owning a shopping cart.",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(uuidScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.User).ID, nil
				},
			},
			"shoppingcart": &graphql.Field{
				Type:        graphql.NewNonNull(shoppingCartType),
				Description: "Shopping cart of the user.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user := p.Source.(*domain.User)
					return &domain.OwnedCart{UserID: user.ID, ShoppingCart: user.ShoppingCart}, nil
				},
			},
		},
	})

	shoppingCartItemInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ShoppingCartItemInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"count":            &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"productVariantId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(uuidScalar)},
		},
	})

	updateShoppingCartInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateShoppingCartInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":                &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(uuidScalar)},
			"shoppingCartItems": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(shoppingCartItemInput))},
		},
	})

	createShoppingCartItemInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateShoppingCartItemInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":               &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(uuidScalar)},
			"shoppingCartItem": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(shoppingCartItemInput)},
		},
	})

	updateShoppingCartItemInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateShoppingCartItemInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(uuidScalar)},
			"count": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"shoppingcart": &graphql.Field{
				Type:        graphql.NewNonNull(shoppingCartType),
				Description: "Retrieves the shopping cart of the authenticated user.",
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return query.GetCartByOwner(p.Context, p.Args["userId"].(string))
				},
			},
			"shoppingcartItem": &graphql.Field{
				Type:        graphql.NewNonNull(shoppingCartItemType),
				Description: "Retrieves a shopping cart item of a specific UUID.",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return query.GetCartItem(p.Context, p.Args["id"].(string))
				},
			},
			"shoppingcarts": &graphql.Field{
				Type:        graphql.NewNonNull(shoppingCartConnectionType),
				Description: "Retrieves a page of shopping carts, optionally filtered by owner.",
				Args: graphql.FieldConfigArgument{
					"first":   &graphql.ArgumentConfig{Type: graphql.Int},
					"skip":    &graphql.ArgumentConfig{Type: graphql.Int},
					"orderBy": &graphql.ArgumentConfig{Type: shoppingCartOrderInput},
					"userId":  &graphql.ArgumentConfig{Type: uuidScalar},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					first, skip := pageArgs(p.Args)
					args := repository.PageArgs{
						First:   first,
						Skip:    skip,
						OrderBy: shoppingCartOrder(p.Args),
					}
					if ownerID, ok := p.Args["userId"].(string); ok {
						return query.ListCartsForOwner(p.Context, args, ownerID)
					}
					return query.ListCarts(p.Context, args)
				},
			},
		},
	})

	addFederationFields(queryType, userType, shoppingCartItemType, query)

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"updateShoppingcart": &graphql.Field{
				Type:        graphql.NewNonNull(shoppingCartType),
				Description: "Updates the shopping cart items of a specific shopping cart.",
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateShoppingCartInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input := p.Args["input"].(map[string]interface{})
					specs, err := itemSpecs(input["shoppingCartItems"])
					if err != nil {
						return nil, err
					}
					return mutation.ReplaceCartItems(p.Context, input["id"].(string), specs)
				},
			},
			"createShoppingcartItem": &graphql.Field{
				Type:        graphql.NewNonNull(shoppingCartItemType),
				Description: "Adds a shopping cart item to a shopping cart. Returns the existing item if one references the same product variant.",
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createShoppingCartItemInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input := p.Args["input"].(map[string]interface{})
					spec, err := itemSpec(input["shoppingCartItem"].(map[string]interface{}))
					if err != nil {
						return nil, err
					}
					return mutation.AddCartItem(p.Context, input["id"].(string), spec)
				},
			},
			"updateShoppingcartItem": &graphql.Field{
				Type:        graphql.NewNonNull(shoppingCartItemType),
				Description: "Updates the count of a single shopping cart item.",
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateShoppingCartItemInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input := p.Args["input"].(map[string]interface{})
					count, err := countValue(input["count"])
					if err != nil {
						return nil, err
					}
					return mutation.UpdateItemCount(p.Context, input["id"].(string), count)
				},
			},
			"deleteShoppingcartItem": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Boolean),
				Description: "Deletes a shopping cart item of a specific UUID.",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return mutation.DeleteItem(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// NewHandler wraps the schema into an HTTP handler serving POST requests.
func NewHandler(schema graphql.Schema) *handler.Handler {
	return handler.New(&handler.Config{
		Schema: &schema,
		Pretty: true,
	})
}

func pageArgs(args map[string]interface{}) (*int, int) {
	var first *int
	if v, ok := args["first"].(int); ok {
		first = &v
	}
	skip := 0
	if v, ok := args["skip"].(int); ok {
		skip = v
	}
	return first, skip
}

func commonOrder(args map[string]interface{}) domain.CommonOrder {
	order := domain.CommonOrder{}
	input, ok := args["orderBy"].(map[string]interface{})
	if !ok {
		return order
	}
	if field, ok := input["field"].(domain.CommonOrderField); ok {
		order.Field = field
	}
	if direction, ok := input["direction"].(domain.OrderDirection); ok {
		order.Direction = direction
	}
	return order
}

func shoppingCartOrder(args map[string]interface{}) domain.ShoppingCartOrder {
	order := domain.ShoppingCartOrder{}
	input, ok := args["orderBy"].(map[string]interface{})
	if !ok {
		return order
	}
	if field, ok := input["field"].(domain.ShoppingCartOrderField); ok {
		order.Field = field
	}
	if direction, ok := input["direction"].(domain.OrderDirection); ok {
		order.Direction = direction
	}
	return order
}

// itemSpecs converts the optional shoppingCartItems input list; nil input
// stays nil so the mutation can distinguish "absent" from "empty".
func itemSpecs(value interface{}) ([]domain.ShoppingCartItemSpec, error) {
	raw, ok := value.([]interface{})
	if !ok {
		return nil, nil
	}
	specs := make([]domain.ShoppingCartItemSpec, 0, len(raw))
	for _, entry := range raw {
		spec, err := itemSpec(entry.(map[string]interface{}))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func itemSpec(input map[string]interface{}) (domain.ShoppingCartItemSpec, error) {
	count, err := countValue(input["count"])
	if err != nil {
		return domain.ShoppingCartItemSpec{}, err
	}
	return domain.ShoppingCartItemSpec{
		Count:            count,
		ProductVariantID: input["productVariantId"].(string),
	}, nil
}

func countValue(value interface{}) (uint64, error) {
	count, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("count must be an integer")
	}
	if count < 0 {
		return 0, fmt.Errorf("count must not be negative")
	}
	return uint64(count), nil
}
