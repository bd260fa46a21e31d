package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "turfbook/internal/payments/errors"
	"turfbook/pkg/config"
	mongotx "turfbook/pkg/db/mongo"
	"turfbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Payments"

type PaymentRepository interface {
	// SupersedePending cancels the booking's open gateway attempts. They stay
	// findable by transaction id, so a late notification can still settle them.
	SupersedePending(ctx context.Context, bookingID string) (int64, error)
	Create(ctx context.Context, payment *model.Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	MarkSuccess(ctx context.Context, transactionID, validationID string, gatewayData map[string]any) (*model.Payment, error)
	MarkOutcome(ctx context.Context, transactionID, status string, gatewayData map[string]any) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: cfg.Database().Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// unsettled matches attempts that no notification has resolved yet.
func unsettled() bson.M {
	return bson.M{"$nin": []string{model.PaymentStatusSuccess, model.PaymentStatusRefundRequired}}
}

func (r *mongoPaymentRepository) SupersedePending(ctx context.Context, bookingID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"booking_id": bookingID, "status": model.PaymentStatusPending}
	update := bson.M{"$set": bson.M{
		"status":     model.PaymentStatusCancelled,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to supersede pending payments: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	payment.CreatedAt = now
	payment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return paymentserrors.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var payment model.Payment
	err := r.collection.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &payment, nil
}

// MarkSuccess settles the payment only if it is not settled yet, so concurrent
// deliveries of the same notification settle it once.
func (r *mongoPaymentRepository) MarkSuccess(ctx context.Context, transactionID, validationID string, gatewayData map[string]any) (*model.Payment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":        model.PaymentStatusSuccess,
		"validation_id": validationID,
		"gateway_data":  gatewayData,
		"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var payment model.Payment
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"transaction_id": transactionID, "status": unsettled()}, update, opts).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrAlreadySettled
		}
		return nil, fmt.Errorf("failed to settle payment: %w", err)
	}
	return &payment, nil
}

// MarkOutcome records a failed, cancelled or refund-required attempt. Settled
// payments are left alone.
func (r *mongoPaymentRepository) MarkOutcome(ctx context.Context, transactionID, status string, gatewayData map[string]any) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if len(gatewayData) > 0 {
		set["gateway_data"] = gatewayData
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"transaction_id": transactionID, "status": unsettled()}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.MatchedCount == 0 {
		return paymentserrors.ErrAlreadySettled
	}
	return nil
}

func (r *mongoPaymentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
