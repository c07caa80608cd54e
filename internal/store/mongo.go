package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/likering/backend/internal/models"
)

// ProductStore handles product catalog CRUD in MongoDB.
type ProductStore struct {
	col *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{col: db.Collection("productos")}
}

func (s *ProductStore) Insert(ctx context.Context, p *models.Product) (string, error) {
	p.CreatedAt = time.Now()
	res, err := s.col.InsertOne(ctx, p)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	p.ID = oid
	return oid.Hex(), nil
}

func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	return s.find(ctx, bson.M{})
}

func (s *ProductStore) ListByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

func (s *ProductStore) find(ctx context.Context, filter bson.M) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}
