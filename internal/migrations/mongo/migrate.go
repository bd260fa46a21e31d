package mongo

import (
	"context"
	"fmt"

	"turfbook/internal/migrations/mongo/validators"
	"turfbook/pkg/logger"
	"turfbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BookingsCollection     = "Bookings"
	PaymentsCollection     = "Payments"
	BookingLocksCollection = "Booking_locks"
)

var (
	BookingsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "turf_id", Value: 1}, {Key: "date", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetName("turf_date_start"),
		},
		// Last line of defence against two confirmed bookings on one slot.
		{
			Keys: bson.D{{Key: "turf_id", Value: 1}, {Key: "date", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().
				SetName("uniq_confirmed_slot").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": model.BookingConfirmed}),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("status_expires"),
		},
	}

	PaymentsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetName("uniq_transaction").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("booking_status"),
		},
	}

	// Locks left behind by crashed requests are reaped by the server.
	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires").SetExpireAfterSeconds(0),
		},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		BookingsCollection: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		PaymentsCollection: {
			Indexes:   PaymentsIndexes,
			Validator: validators.PaymentValidator,
		},
		BookingLocksCollection: {
			Indexes:   BookingLocksIndexes,
			Validator: validators.BookingLockValidator,
		},
	}
}

// RunMigration creates the booking collections with their validators and
// indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
