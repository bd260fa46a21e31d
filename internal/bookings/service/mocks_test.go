package service

import (
	"context"
	"sync"
	"time"

	bookingserrors "turfbook/internal/bookings/errors"
	"turfbook/internal/bookings/repository"
	turfrepo "turfbook/internal/turfs/repository"
	mongotx "turfbook/pkg/db/mongo"
	"turfbook/pkg/events"
	"turfbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// Mock repositories for testing
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	createFunc           func(ctx context.Context, b *model.Booking) error
	findByIDFunc         func(ctx context.Context, id string) (*model.Booking, error)
	findActiveBySlotFunc func(ctx context.Context, turfID, date, start string) ([]*model.Booking, error)
	findByUserFunc       func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error)
	countByUserFunc      func(ctx context.Context, userID string) (int64, error)
	applyStatusFunc      func(ctx context.Context, id, expected string, change repository.StatusChange) (*model.Booking, error)
	deleteFunc           func(ctx context.Context, id string) error

	mu           sync.Mutex
	created      []*model.Booking
	applied      []repository.StatusChange
	transactions int
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	m.mu.Lock()
	m.created = append(m.created, b)
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	b.ID = "65f1a2b3c4d5e6f708091aaa"
	return nil
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

func (m *mockBookingRepository) FindActiveByTurfAndDate(ctx context.Context, turfID, date string) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByUserFunc != nil {
		return m.findByUserFunc(ctx, userID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	if m.countByUserFunc != nil {
		return m.countByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockBookingRepository) ApplyStatus(ctx context.Context, id, expected string, change repository.StatusChange) (*model.Booking, error) {
	m.mu.Lock()
	m.applied = append(m.applied, change)
	m.mu.Unlock()
	if m.applyStatusFunc != nil {
		return m.applyStatusFunc(ctx, id, expected, change)
	}
	return &model.Booking{ID: id, Status: change.Status}, nil
}

func (m *mockBookingRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.mu.Lock()
	m.transactions++
	m.mu.Unlock()
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockLockRepository struct {
	acquireFunc  func(ctx context.Context, lock *model.BookingLock) error
	takeOverFunc func(ctx context.Context, lockID string, now time.Time) (bool, error)

	acquired []*model.BookingLock
	released []string
}

func (m *mockLockRepository) Acquire(ctx context.Context, lock *model.BookingLock) error {
	m.acquired = append(m.acquired, lock)
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, lock)
	}
	return nil
}

func (m *mockLockRepository) Release(ctx context.Context, lockID, owner string) error {
	m.released = append(m.released, lockID+"/"+owner)
	return nil
}

func (m *mockLockRepository) TakeOverExpired(ctx context.Context, lockID string, now time.Time) (bool, error) {
	if m.takeOverFunc != nil {
		return m.takeOverFunc(ctx, lockID, now)
	}
	return false, nil
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

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AvailabilityChanged
}

func (p *recordingPublisher) PublishAvailability(ctx context.Context, evt events.AvailabilityChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}
