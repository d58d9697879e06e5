package catalog

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var ErrProductNotFound = errors.New("catalog: product not found")

// Product is a catalog item document.
type Product struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string        `bson:"name" json:"name"`
	Quantity  int64         `bson:"quantity" json:"quantity"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}

// Store provides access to the products collection.
type Store struct {
	products *mongo.Collection
}

// NewStore creates a store over the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{products: db.Collection("products")}
}

// List returns products ordered by creation time, newest first.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]Product, error) {
	cursor, err := s.products.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit).
			SetSkip(offset),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Get returns a product by id.
func (s *Store) Get(ctx context.Context, id bson.ObjectID) (*Product, error) {
	var product Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product, stamping id and timestamps.
func (s *Store) Create(ctx context.Context, product *Product) error {
	now := time.Now().UTC()
	product.ID = bson.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	_, err := s.products.InsertOne(ctx, product)
	return err
}

// Update replaces the product's name and quantity.
func (s *Store) Update(ctx context.Context, id bson.ObjectID, name string, quantity int64) error {
	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":       name,
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
