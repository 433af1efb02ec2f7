package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/MiSArch/shoppingcart/internal/domain"
	"github.com/MiSArch/shoppingcart/internal/service"
)

// addFederationFields wires the Apollo federation plumbing into the query
// type: the _service field exposing the federated SDL and the _entities field
// resolving opaque keys back into full entities for cross-service graph
// composition. Entity resolution is trusted and intentionally skips the
// caller-identity check applied to direct queries.
func addFederationFields(queryType, userType, shoppingCartItemType *graphql.Object, query *service.QueryService) {
	serviceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "_Service",
		Fields: graphql.Fields{
			"sdl": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return FederatedSDL, nil
				},
			},
		},
	})

	entityUnion := graphql.NewUnion(graphql.UnionConfig{
		Name:  "_Entity",
		Types: []*graphql.Object{userType, shoppingCartItemType},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			switch p.Value.(type) {
			case *domain.User:
				return userType
			case *domain.ShoppingCartItem:
				return shoppingCartItemType
			default:
				return nil
			}
		},
	})

	queryType.AddFieldConfig("_service", &graphql.Field{
		Type: graphql.NewNonNull(serviceType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return struct{}{}, nil
		},
	})

	queryType.AddFieldConfig("_entities", &graphql.Field{
		Type: graphql.NewNonNull(graphql.NewList(entityUnion)),
		Args: graphql.FieldConfigArgument{
			"representations": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(anyScalar))),
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			representations := p.Args["representations"].([]interface{})
			entities := make([]interface{}, 0, len(representations))
			for _, raw := range representations {
				representation, ok := raw.(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("entity representation must be an object")
				}
				entity, err := resolveEntity(p, representation, query)
				if err != nil {
					return nil, err
				}
				entities = append(entities, entity)
			}
			return entities, nil
		},
	})
}

func resolveEntity(p graphql.ResolveParams, representation map[string]interface{}, query *service.QueryService) (interface{}, error) {
	typename, _ := representation["__typename"].(string)
	id, ok := representation["id"].(string)
	if !ok {
		return nil, fmt.Errorf("entity representation of type `%s` is missing an id", typename)
	}

	switch typename {
	case "User":
		return query.ResolveUserEntity(p.Context, id)
	case "ShoppingCartItem":
		return query.ResolveCartItemEntity(p.Context, id)
	default:
		return nil, fmt.Errorf("cannot resolve entities of type `%s`", typename)
	}
}
