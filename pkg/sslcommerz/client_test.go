package sslcommerz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		StoreID:       "store",
		StorePassword: "secret",
		Timeout:       time.Second,
		BaseURL:       srv.URL,
	})
}

func TestNewClient_BaseURL(t *testing.T) {
	assert.Equal(t, SandboxBaseURL, NewClient(Config{}).http.BaseURL)
	assert.Equal(t, LiveBaseURL, NewClient(Config{IsLive: true}).http.BaseURL)
}

func TestInitSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, initPath, r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "store", r.PostForm.Get("store_id"))
		assert.Equal(t, "secret", r.PostForm.Get("store_passwd"))
		assert.Equal(t, "3500.00", r.PostForm.Get("total_amount"))
		assert.Equal(t, "turf-booking-1", r.PostForm.Get("tran_id"))
		assert.Equal(t, "No", r.PostForm.Get("shipping_method"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"SUCCESS","GatewayPageURL":"https://pay.example/xyz","sessionkey":"abc"}`))
	})

	resp, err := c.InitSession(context.Background(), &SessionRequest{
		TotalAmount:   3500,
		Currency:      "BDT",
		TransactionID: "turf-booking-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/xyz", resp.GatewayPageURL)
}

func TestInitSession_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FAILED","failedreason":"Store Credential Error"}`))
	})

	_, err := c.InitSession(context.Background(), &SessionRequest{TransactionID: "t"})
	assert.ErrorIs(t, err, ErrInitRejected)
}

func TestInitSession_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.InitSession(context.Background(), &SessionRequest{TransactionID: "t"})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestValidateTransaction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, validationPath, r.URL.Path)
		assert.Equal(t, "val-1", r.URL.Query().Get("val_id"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`{"status":"VALID","tran_id":"turf-booking-1","val_id":"val-1","amount":"3500.00","currency":"BDT"}`))
	})

	v, err := c.ValidateTransaction(context.Background(), "val-1")
	require.NoError(t, err)
	assert.True(t, v.IsValid())
	assert.Equal(t, "turf-booking-1", v.TransactionID)

	amount, err := v.AmountValue()
	require.NoError(t, err)
	assert.InDelta(t, 3500.0, amount, 0.001)
}

func TestValidation_IsValid(t *testing.T) {
	assert.True(t, (&Validation{Status: "VALIDATED"}).IsValid())
	assert.False(t, (&Validation{Status: "INVALID_TRANSACTION"}).IsValid())
}

func TestVerifySignature(t *testing.T) {
	c := NewClient(Config{StorePassword: "secret"})

	v := url.Values{}
	v.Set("tran_id", "turf-booking-1")
	v.Set("val_id", "val-1")
	v.Set("amount", "3500.00")
	v.Set("status", "VALID")
	v.Set("verify_key", "amount,status,tran_id,val_id")
	v.Set("verify_sign", Sign(v, "secret"))

	assert.NoError(t, c.VerifySignature(v))

	v.Set("amount", "1.00")
	assert.ErrorIs(t, c.VerifySignature(v), ErrSignatureMismatch)

	unsigned := url.Values{"tran_id": {"x"}}
	assert.NoError(t, c.VerifySignature(unsigned))
}

func TestNotificationFromValues(t *testing.T) {
	v := url.Values{
		"status":       {"VALID"},
		"tran_id":      {"turf-booking-1"},
		"val_id":       {"val-1"},
		"amount":       {"3500.00"},
		"store_passwd": {"leak"},
	}

	n := NotificationFromValues(v)
	assert.True(t, n.IsValid())
	assert.Equal(t, "val-1", n.ValidationID)

	data := GatewayData(v)
	assert.Equal(t, "turf-booking-1", data["tran_id"])
	assert.NotContains(t, data, "store_passwd")
}
