package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/events"
	"turfbook/pkg/logger"
	"turfbook/pkg/model"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAvailabilityService struct {
	calls atomic.Int32
}

func (m *mockAvailabilityService) GetAvailability(ctx context.Context, turfID, date string) (*model.Availability, error) {
	if date == "" {
		return nil, apperrors.InvalidInput("Date query parameter is required")
	}
	n := m.calls.Add(1)
	return &model.Availability{
		TurfID: turfID,
		Date:   date,
		Slots:  []model.Slot{{StartTime: "18:00", EndTime: "19:00", IsAvailable: n == 1}},
	}, nil
}

type fakeSubscriber struct {
	ch chan events.AvailabilityChanged
}

func (f *fakeSubscriber) SubscribeAvailability(ctx context.Context, turfID, date string) (<-chan events.AvailabilityChanged, func(), error) {
	return f.ch, func() {}, nil
}

func newServer(t *testing.T, sub *fakeSubscriber) (*httptest.Server, *mockAvailabilityService) {
	t.Helper()
	svc := &mockAvailabilityService{}
	router := httprouter.New()
	NewAvailabilityHandler(svc, sub, "http://localhost:5173", logger.Discard()).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestGet(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/v1/turfs/t1/availability?date=2030-03-04")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/v1/turfs/t1/availability")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestStream_NotRegisteredWithoutSubscriber(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/v1/turfs/t1/availability/stream?date=2030-03-04")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStream_SendsSnapshotThenUpdates(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan events.AvailabilityChanged, 1)}
	srv, _ := newServer(t, sub)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/turfs/t1/availability/stream?date=2030-03-04"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first streamMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, MessageSnapshot, first.Type)
	require.NotNil(t, first.Data)
	assert.True(t, first.Data.Slots[0].IsAvailable)

	sub.ch <- events.AvailabilityChanged{TurfID: "t1", Date: "2030-03-04", StartTime: "18:00"}

	var second streamMessage
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, MessageSnapshot, second.Type)
	assert.False(t, second.Data.Slots[0].IsAvailable)
}

func TestStream_RejectsForeignOrigin(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan events.AvailabilityChanged)}
	srv, _ := newServer(t, sub)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/turfs/t1/availability/stream?date=2030-03-04"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStream_InvalidDateBeforeUpgrade(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan events.AvailabilityChanged)}
	srv, _ := newServer(t, sub)

	resp, err := http.Get(srv.URL + "/api/v1/turfs/t1/availability/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
