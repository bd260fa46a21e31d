package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"turfbook/internal/payments/service"
	"turfbook/pkg/auth"
	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/logger"
	"turfbook/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPaymentService struct {
	reconcileFunc func(ctx context.Context, values url.Values) error

	received url.Values
	outcome  string
}

func (m *mockPaymentService) Init(ctx context.Context, p *auth.Principal, bookingID string) (*model.PaymentInitResponse, error) {
	if bookingID == "missing" {
		return nil, apperrors.NotFoundWithID("Booking", bookingID)
	}
	return &model.PaymentInitResponse{RedirectURL: "https://gw.example/pay", TransactionID: "turf-booking-1"}, nil
}

func (m *mockPaymentService) Reconcile(ctx context.Context, values url.Values) error {
	m.received = values
	if m.reconcileFunc != nil {
		return m.reconcileFunc(ctx, values)
	}
	return nil
}

func (m *mockPaymentService) Redirect(ctx context.Context, outcome, transactionID string, values url.Values) string {
	m.outcome = outcome
	m.received = values
	return "http://client/booking-" + outcome + "?transactionId=" + transactionID
}

func (m *mockPaymentService) Settle(ctx context.Context, p *auth.Principal, bookingID string) (*model.ManualSettlement, error) {
	return &model.ManualSettlement{
		Booking: &model.Booking{ID: bookingID, Status: model.BookingConfirmed},
		Payment: &model.Payment{TransactionID: "manual-1"},
	}, nil
}

func newRouter(svc service.PaymentService) *httprouter.Router {
	router := httprouter.New()
	NewPaymentHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, req *http.Request, p *auth.Principal) *httptest.ResponseRecorder {
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestInit_Handler(t *testing.T) {
	router := newRouter(&mockPaymentService{})

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/payments/init/b1", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/payments/init/b1", nil), &auth.Principal{ID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data model.PaymentInitResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://gw.example/pay", resp.Data.RedirectURL)

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/payments/init/missing", nil), &auth.Principal{ID: "u1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettle_Handler(t *testing.T) {
	rec := serve(newRouter(&mockPaymentService{}), httptest.NewRequest(http.MethodPost, "/api/v1/payments/manual/b1", nil), &auth.Principal{ID: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data model.ManualSettlement `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.BookingConfirmed, resp.Data.Booking.Status)
	assert.Equal(t, "manual-1", resp.Data.Payment.TransactionID)
}

func TestWebhook_Form(t *testing.T) {
	svc := &mockPaymentService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader("status=VALID&tran_id=t1&val_id=v1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := serve(newRouter(svc), req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", svc.received.Get("tran_id"))
	assert.Equal(t, "v1", svc.received.Get("val_id"))
}

func TestWebhook_JSON(t *testing.T) {
	svc := &mockPaymentService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(`{"status":"VALID","tran_id":"t1","amount":3500.00,"risk_level":0}`))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(newRouter(svc), req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VALID", svc.received.Get("status"))
	assert.Equal(t, "3500.00", svc.received.Get("amount"))
	assert.Equal(t, "0", svc.received.Get("risk_level"))
}

func TestWebhook_Errors(t *testing.T) {
	svc := &mockPaymentService{
		reconcileFunc: func(ctx context.Context, values url.Values) error {
			return apperrors.GatewayValidation("Payment could not be validated with the gateway", nil)
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader("status=VALID"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(router, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeGatewayValidation, resp.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(router, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status=VALID", svc.received.Encode())
}

func TestRedirects(t *testing.T) {
	for _, outcome := range []string{service.OutcomeSuccess, service.OutcomeFail, service.OutcomeCancel} {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			t.Run(outcome+" "+method, func(t *testing.T) {
				svc := &mockPaymentService{}
				req := httptest.NewRequest(method, "/api/v1/payments/"+outcome+"/t1", strings.NewReader("status=FAILED"))
				if method == http.MethodPost {
					req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				}

				rec := serve(newRouter(svc), req, nil)
				assert.Equal(t, http.StatusFound, rec.Code)
				assert.Equal(t, "http://client/booking-"+outcome+"?transactionId=t1", rec.Header().Get("Location"))
				assert.Equal(t, outcome, svc.outcome)
			})
		}
	}
}
