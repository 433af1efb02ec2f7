package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MiSArch/shoppingcart/internal/apperror"
	"github.com/MiSArch/shoppingcart/internal/domain"
)

type mongoProductVariantRepository struct {
	collection *mongo.Collection
}

func NewMongoProductVariantRepository(db *mongo.Database) ProductVariantRepository {
	return &mongoProductVariantRepository{
		collection: db.Collection("product_variants"),
	}
}

func (m *mongoProductVariantRepository) InsertProductVariant(ctx context.Context, variant domain.ProductVariant) error {
	_, err := m.collection.InsertOne(ctx, variant)
	if mongo.IsDuplicateKeyError(err) {
		// Redelivered creation event, stub already exists.
		return nil
	}
	if err != nil {
		msg := fmt.Sprintf("Adding product variant with UUID: `%s` failed.", variant.ID)
		return apperror.NewStorage(msg, err)
	}
	return nil
}

func (m *mongoProductVariantRepository) VariantExists(ctx context.Context, id string) (bool, error) {
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, apperror.NewStorage("Querying product variants failed.", err)
	}
	return true, nil
}

func (m *mongoProductVariantRepository) MissingVariant(ctx context.Context, ids []string) (string, bool, error) {
	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return "", false, apperror.NewStorage("Querying product variants failed.", err)
	}
	var variants []domain.ProductVariant
	if err := cursor.All(ctx, &variants); err != nil {
		return "", false, apperror.NewStorage("Querying product variants failed.", err)
	}

	present := make(map[string]struct{}, len(variants))
	for _, variant := range variants {
		present[variant.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			return id, true, nil
		}
	}
	return "", false, nil
}
