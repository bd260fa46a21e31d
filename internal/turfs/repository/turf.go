package repository

import (
	"context"
	"errors"
	"fmt"

	"turfbook/pkg/config"
	mongotx "turfbook/pkg/db/mongo"
	"turfbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Turfs"

var (
	ErrNotFound  = errors.New("turf not found")
	ErrInvalidID = errors.New("invalid turf ID format")
)

// TurfRepository is a read-only view of the turf catalogue.
type TurfRepository interface {
	FindByID(ctx context.Context, id string) (*model.Turf, error)
}

type mongoTurfRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTurfRepository(cfg *config.Config) TurfRepository {
	return &mongoTurfRepository{
		cfg:        cfg,
		collection: cfg.Database().Collection(CollectionName),
	}
}

func (r *mongoTurfRepository) FindByID(ctx context.Context, id string) (*model.Turf, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	var turf model.Turf
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&turf); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find turf: %w", err)
	}
	return &turf, nil
}
