package service

import (
	"context"
	"net/url"
	"sync"

	bookingserrors "turfbook/internal/bookings/errors"
	bookingrepo "turfbook/internal/bookings/repository"
	paymentserrors "turfbook/internal/payments/errors"
	turfrepo "turfbook/internal/turfs/repository"
	userrepo "turfbook/internal/users/repository"
	mongotx "turfbook/pkg/db/mongo"
	"turfbook/pkg/events"
	"turfbook/pkg/model"
	"turfbook/pkg/sslcommerz"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockPaymentRepository struct {
	supersedeFunc   func(ctx context.Context, bookingID string) (int64, error)
	findByTranFunc  func(ctx context.Context, tranID string) (*model.Payment, error)
	markSuccessFunc func(ctx context.Context, tranID, valID string, data map[string]any) (*model.Payment, error)

	mu           sync.Mutex
	superseded   []string
	created      []*model.Payment
	settled      []string
	outcomes     map[string]string
	transactions int
}

func (m *mockPaymentRepository) SupersedePending(ctx context.Context, bookingID string) (int64, error) {
	m.superseded = append(m.superseded, bookingID)
	if m.supersedeFunc != nil {
		return m.supersedeFunc(ctx, bookingID)
	}
	return 0, nil
}

func (m *mockPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	m.created = append(m.created, p)
	p.ID = "65f1a2b3c4d5e6f708091bbb"
	return nil
}

func (m *mockPaymentRepository) FindByTransactionID(ctx context.Context, tranID string) (*model.Payment, error) {
	if m.findByTranFunc != nil {
		return m.findByTranFunc(ctx, tranID)
	}
	return nil, paymentserrors.ErrNotFound
}

func (m *mockPaymentRepository) MarkSuccess(ctx context.Context, tranID, valID string, data map[string]any) (*model.Payment, error) {
	m.settled = append(m.settled, tranID)
	if m.markSuccessFunc != nil {
		return m.markSuccessFunc(ctx, tranID, valID, data)
	}
	return &model.Payment{TransactionID: tranID, Status: model.PaymentStatusSuccess}, nil
}

func (m *mockPaymentRepository) MarkOutcome(ctx context.Context, tranID, status string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]string{}
	}
	m.outcomes[tranID] = status
	return nil
}

func (m *mockPaymentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.mu.Lock()
	m.transactions++
	m.mu.Unlock()
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockBookingRepository struct {
	bookingrepo.BookingRepository

	findByIDFunc         func(ctx context.Context, id string) (*model.Booking, error)
	findActiveBySlotFunc func(ctx context.Context, turfID, date, start string) ([]*model.Booking, error)

	mu      sync.Mutex
	applied []bookingrepo.StatusChange
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindActiveBySlot(ctx context.Context, turfID, date, start string) ([]*model.Booking, error) {
	if m.findActiveBySlotFunc != nil {
		return m.findActiveBySlotFunc(ctx, turfID, date, start)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) ApplyStatus(ctx context.Context, id, expected string, change bookingrepo.StatusChange) (*model.Booking, error) {
	m.mu.Lock()
	m.applied = append(m.applied, change)
	m.mu.Unlock()

	status := expected
	if change.Status != "" {
		status = change.Status
	}
	return &model.Booking{
		ID:               id,
		TurfID:           turfID,
		Date:             "2030-03-04",
		StartTime:        "18:00",
		Status:           status,
		PaymentStatus:    change.PaymentStatus,
		SettlementMethod: change.SettlementMethod,
	}, nil
}

type mockTurfRepository struct {
	turfs map[string]*model.Turf
}

func (m *mockTurfRepository) FindByID(ctx context.Context, id string) (*model.Turf, error) {
	if t, ok := m.turfs[id]; ok {
		return t, nil
	}
	return nil, turfrepo.ErrNotFound
}

type mockUserRepository struct {
	users map[string]*model.User
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, userrepo.ErrNotFound
}

type mockGateway struct {
	initFunc     func(ctx context.Context, req *sslcommerz.SessionRequest) (*sslcommerz.SessionResponse, error)
	validateFunc func(ctx context.Context, valID string) (*sslcommerz.Validation, error)
	verifyErr    error

	sessions    []*sslcommerz.SessionRequest
	validations int
}

func (m *mockGateway) InitSession(ctx context.Context, req *sslcommerz.SessionRequest) (*sslcommerz.SessionResponse, error) {
	m.sessions = append(m.sessions, req)
	if m.initFunc != nil {
		return m.initFunc(ctx, req)
	}
	return &sslcommerz.SessionResponse{Status: sslcommerz.StatusSuccess, GatewayPageURL: "https://gw.example/pay/" + req.TransactionID}, nil
}

func (m *mockGateway) ValidateTransaction(ctx context.Context, valID string) (*sslcommerz.Validation, error) {
	m.validations++
	if m.validateFunc != nil {
		return m.validateFunc(ctx, valID)
	}
	return nil, sslcommerz.ErrValidationFailed
}

func (m *mockGateway) VerifySignature(url.Values) error {
	return m.verifyErr
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []*model.Booking
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, b *model.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b)
	return nil
}

type recordingPublisher struct {
	events []events.AvailabilityChanged
}

func (p *recordingPublisher) PublishAvailability(ctx context.Context, evt events.AvailabilityChanged) error {
	p.events = append(p.events, evt)
	return nil
}

