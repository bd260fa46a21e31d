package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "turfbook/internal/bookings/errors"
	"turfbook/pkg/config"
	mongotx "turfbook/pkg/db/mongo"
	"turfbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository provides operations for advisory slot locks
type BookingLockRepository interface {
	Acquire(ctx context.Context, lock *model.BookingLock) error
	Release(ctx context.Context, lockID, owner string) error
	TakeOverExpired(ctx context.Context, lockID string, now time.Time) (bool, error)
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: cfg.Database().Collection(LockCollectionName),
	}
}

// Acquire inserts the lock. It returns ErrSlotLocked if the lock already exists.
func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrSlotLocked
		}
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return nil
}

// Release removes the lock if it is still owned by owner.
func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrLockNotFound
	}
	return nil
}

// TakeOverExpired deletes the lock only if it expired before now. The TTL
// monitor runs about once a minute, so stale locks can outlive expires_at.
func (r *mongoBookingLockRepository) TakeOverExpired(ctx context.Context, lockID string, now time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "expires_at": bson.M{"$lte": now}})
	if err != nil {
		return false, fmt.Errorf("failed to take over slot lock: %w", err)
	}
	return result.DeletedCount == 1, nil
}
