package graphql

import (
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// uuidScalar serializes UUIDs as hyphenated lowercase strings and rejects
// anything that does not parse as a UUID.
var uuidScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "UUID",
	Description: "A universally unique identifier, formatted as a hyphenated lowercase string.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			return v
		case uuid.UUID:
			return v.String()
		default:
			return nil
		}
	},
	ParseValue: func(value interface{}) interface{} {
		return parseUUID(value)
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if s, ok := valueAST.(*ast.StringValue); ok {
			return parseUUID(s.Value)
		}
		return nil
	},
})

func parseUUID(value interface{}) interface{} {
	raw, ok := value.(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return id.String()
}

// anyScalar is the federation _Any scalar carrying entity representations.
var anyScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "_Any",
	Description: "The _Any scalar is used to pass representations of entities from the gateway.",
	Serialize: func(value interface{}) interface{} {
		return value
	},
	ParseValue: func(value interface{}) interface{} {
		return value
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if object, ok := valueAST.(*ast.ObjectValue); ok {
			return parseObjectLiteral(object)
		}
		return nil
	},
})

func parseObjectLiteral(object *ast.ObjectValue) map[string]interface{} {
	result := make(map[string]interface{}, len(object.Fields))
	for _, field := range object.Fields {
		switch value := field.Value.(type) {
		case *ast.StringValue:
			result[field.Name.Value] = value.Value
		case *ast.ObjectValue:
			result[field.Name.Value] = parseObjectLiteral(value)
		default:
			result[field.Name.Value] = value.GetValue()
		}
	}
	return result
}
