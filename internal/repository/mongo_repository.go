package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MiSArch/shoppingcart/internal/apperror"
	"github.com/MiSArch/shoppingcart/internal/domain"
)

const itemsField = "shoppingcart.internal_shoppingcart_items"

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		collection: db.Collection("users"),
	}
}

func (m *mongoUserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		// Absent document and transport failure collapse into not-found here.
		return nil, apperror.NewNotFound("User", id)
	}
	return &user, nil
}

func (m *mongoUserRepository) GetCartByOwner(ctx context.Context, ownerID string) (*domain.ShoppingCart, error) {
	var user domain.User
	err := m.collection.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&user)
	if err != nil {
		return nil, apperror.NewNotFound("ShoppingCart", ownerID)
	}
	return &user.ShoppingCart, nil
}

func (m *mongoUserRepository) FindItemOwner(ctx context.Context, itemID string) (*domain.User, error) {
	filter := bson.M{
		itemsField: bson.M{"$elemMatch": bson.M{"_id": itemID}},
	}
	// Positional projection transfers only the matched item, not the whole set.
	opts := options.FindOne().SetProjection(bson.D{
		{Key: itemsField + ".$", Value: 1},
		{Key: "shoppingcart.last_updated_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	var user domain.User
	if err := m.collection.FindOne(ctx, filter, opts).Decode(&user); err != nil {
		return nil, apperror.NewNotFound("ShoppingCartItem", itemID)
	}
	return &user, nil
}

func (m *mongoUserRepository) FindItemByVariantAndOwner(ctx context.Context, variantID, ownerID string) (*domain.ShoppingCartItem, error) {
	notFound := apperror.NewNotFoundMessage(variantID, fmt.Sprintf(
		"ShoppingCartItem referencing product variant of UUID: `%s` in shopping cart of user with UUID: `%s` not found.",
		variantID, ownerID))

	filter := bson.M{
		"_id":      ownerID,
		itemsField: bson.M{"$elemMatch": bson.M{"product_variant._id": variantID}},
	}
	opts := options.FindOne().SetProjection(bson.D{
		{Key: itemsField + ".$", Value: 1},
		{Key: "_id", Value: 0},
	})

	var user domain.User
	if err := m.collection.FindOne(ctx, filter, opts).Decode(&user); err != nil {
		return nil, notFound
	}
	item, ok := user.FirstCartItem()
	if !ok {
		return nil, notFound
	}
	return &item, nil
}

func (m *mongoUserRepository) ReplaceCartItems(ctx context.Context, ownerID string, items []domain.ShoppingCartItem, at time.Time) error {
	update := bson.M{"$set": bson.M{
		itemsField:                     items,
		"shoppingcart.last_updated_at": at,
	}}

	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": ownerID}, update)
	if err != nil {
		msg := fmt.Sprintf("Updating shopping cart items of shopping cart of user with UUID: `%s` failed.", ownerID)
		return apperror.NewStorage(msg, err)
	}
	return nil
}

func (m *mongoUserRepository) AppendItem(ctx context.Context, ownerID string, item domain.ShoppingCartItem, at time.Time) error {
	update := bson.M{
		"$push": bson.M{itemsField: item},
		"$set":  bson.M{"shoppingcart.last_updated_at": at},
	}

	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": ownerID}, update)
	if err != nil {
		msg := fmt.Sprintf("Adding shopping cart item of UUID: `%s` failed.", item.ID)
		return apperror.NewStorage(msg, err)
	}
	return nil
}

func (m *mongoUserRepository) SetItemCount(ctx context.Context, itemID string, count uint64) error {
	filter := bson.M{itemsField + "._id": itemID}
	update := bson.M{"$set": bson.M{
		itemsField + ".$.count":        count,
		"shoppingcart.last_updated_at": time.Now().UTC(),
	}}

	_, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		msg := fmt.Sprintf("Updating count of shopping cart item of UUID: `%s` failed.", itemID)
		return apperror.NewStorage(msg, err)
	}
	return nil
}

func (m *mongoUserRepository) RemoveItem(ctx context.Context, itemID string) error {
	filter := bson.M{itemsField + "._id": itemID}
	update := bson.M{
		"$pull": bson.M{itemsField: bson.M{"_id": itemID}},
		"$set":  bson.M{"shoppingcart.last_updated_at": time.Now().UTC()},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		msg := fmt.Sprintf("Deleting shopping cart item of UUID: `%s` failed.", itemID)
		return apperror.NewStorage(msg, err)
	}
	return nil
}

func (m *mongoUserRepository) RemoveItems(ctx context.Context, ownerID string, itemIDs []string) error {
	// Single filtered pull; ids already absent from the set are skipped
	// silently, which makes event redelivery a no-op.
	update := bson.M{
		"$pull": bson.M{itemsField: bson.M{"_id": bson.M{"$in": itemIDs}}},
		"$set":  bson.M{"shoppingcart.last_updated_at": time.Now().UTC()},
	}

	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": ownerID}, update)
	if err != nil {
		msg := fmt.Sprintf("Removing ordered shopping cart items of user with UUID: `%s` failed.", ownerID)
		return apperror.NewStorage(msg, err)
	}
	return nil
}

func (m *mongoUserRepository) InsertUser(ctx context.Context, user *domain.User) error {
	_, err := m.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		// At-least-once delivery: a redelivered creation event is a no-op.
		return nil
	}
	if err != nil {
		msg := fmt.Sprintf("Adding user with UUID: `%s` failed.", user.ID)
		return apperror.NewStorage(msg, err)
	}
	return nil
}

func (m *mongoUserRepository) ListUsers(ctx context.Context, args PageArgs, ownerID string) ([]domain.User, int64, error) {
	filter := bson.M{}
	if ownerID != "" {
		filter["_id"] = ownerID
	}

	direction := int(args.OrderBy.DirectionOrDefault())
	opts := options.Find().
		SetSort(bson.D{{Key: cartSortField(args.OrderBy.Field), Value: direction}}).
		SetSkip(int64(args.Skip))
	if args.First != nil {
		opts.SetLimit(int64(*args.First))
	}

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperror.NewStorage("Listing shopping carts failed.", err)
	}
	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, apperror.NewStorage("Listing shopping carts failed.", err)
	}

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperror.NewStorage("Counting shopping carts failed.", err)
	}
	return users, total, nil
}

func (m *mongoUserRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: itemsField + "._id", Value: 1}}},
		{Keys: bson.D{{Key: itemsField + ".product_variant._id", Value: 1}}},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// cartSortField resolves a symbolic order field to its path in the users
// collection, where the cart is an embedded document.
func cartSortField(field domain.ShoppingCartOrderField) string {
	switch field.StorageField() {
	case "user_id":
		return "_id"
	case "last_updated_at":
		return "shoppingcart.last_updated_at"
	default:
		return field.StorageField()
	}
}
