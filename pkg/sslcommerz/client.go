package sslcommerz

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"turfbook/pkg/client"
)

const (
	SandboxBaseURL = "https://sandbox.sslcommerz.com"
	LiveBaseURL    = "https://securepay.sslcommerz.com"

	initPath       = "/gwprocess/v4/api.php"
	validationPath = "/validator/api/validationserverAPI.php"

	StatusSuccess   = "SUCCESS"
	StatusValid     = "VALID"
	StatusValidated = "VALIDATED"
)

var (
	ErrInitRejected      = errors.New("gateway rejected the payment session")
	ErrValidationFailed  = errors.New("gateway did not validate the transaction")
	ErrUnexpectedStatus  = errors.New("unexpected gateway response status")
	ErrSignatureMismatch = errors.New("notification signature mismatch")
)

type Config struct {
	StoreID       string
	StorePassword string
	IsLive        bool
	Timeout       time.Duration
	// BaseURL overrides the sandbox or live host.
	BaseURL string
}

// Gateway is what the payment service needs from SSLCommerz.
type Gateway interface {
	InitSession(ctx context.Context, req *SessionRequest) (*SessionResponse, error)
	ValidateTransaction(ctx context.Context, valID string) (*Validation, error)
	VerifySignature(values url.Values) error
}

type Client struct {
	http          *client.HttpClient
	storeID       string
	storePassword string
}

func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = SandboxBaseURL
		if cfg.IsLive {
			base = LiveBaseURL
		}
	}
	return &Client{
		http:          client.NewHttpClient(base, cfg.Timeout),
		storeID:       cfg.StoreID,
		storePassword: cfg.StorePassword,
	}
}

type SessionRequest struct {
	TotalAmount     float64
	Currency        string
	TransactionID   string
	SuccessURL      string
	FailURL         string
	CancelURL       string
	IPNURL          string
	ProductName     string
	ProductCategory string
	ProductProfile  string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerCity    string
	CustomerCountry string
	CustomerPhone   string
}

func (r *SessionRequest) form() url.Values {
	v := url.Values{}
	v.Set("total_amount", strconv.FormatFloat(r.TotalAmount, 'f', 2, 64))
	v.Set("currency", r.Currency)
	v.Set("tran_id", r.TransactionID)
	v.Set("success_url", r.SuccessURL)
	v.Set("fail_url", r.FailURL)
	v.Set("cancel_url", r.CancelURL)
	v.Set("ipn_url", r.IPNURL)
	v.Set("shipping_method", "No")
	v.Set("product_name", r.ProductName)
	v.Set("product_category", r.ProductCategory)
	v.Set("product_profile", r.ProductProfile)
	v.Set("cus_name", r.CustomerName)
	v.Set("cus_email", r.CustomerEmail)
	v.Set("cus_add1", r.CustomerAddress)
	v.Set("cus_city", r.CustomerCity)
	v.Set("cus_country", r.CustomerCountry)
	v.Set("cus_phone", r.CustomerPhone)
	return v
}

type SessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

func (c *Client) InitSession(ctx context.Context, req *SessionRequest) (*SessionResponse, error) {
	form := req.form()
	form.Set("store_id", c.storeID)
	form.Set("store_passwd", c.storePassword)

	resp, err := c.http.POSTForm(ctx, initPath, form)
	if err != nil {
		return nil, fmt.Errorf("init session: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: http %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var out SessionResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("decode init response: %w", err)
	}
	if !strings.EqualFold(out.Status, StatusSuccess) || out.GatewayPageURL == "" {
		return &out, fmt.Errorf("%w: %s", ErrInitRejected, out.FailedReason)
	}
	return &out, nil
}

// Validation is the validationserverAPI answer for one val_id.
type Validation struct {
	Status        string `json:"status"`
	TransactionID string `json:"tran_id"`
	ValidationID  string `json:"val_id"`
	Amount        string `json:"amount"`
	StoreAmount   string `json:"store_amount"`
	Currency      string `json:"currency"`
	BankTranID    string `json:"bank_tran_id"`
	CardType      string `json:"card_type"`
	TranDate      string `json:"tran_date"`
	RiskLevel     string `json:"risk_level"`
}

func (v *Validation) IsValid() bool {
	return v.Status == StatusValid || v.Status == StatusValidated
}

func (v *Validation) AmountValue() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(v.Amount), 64)
}

func (c *Client) ValidateTransaction(ctx context.Context, valID string) (*Validation, error) {
	query := url.Values{}
	query.Set("val_id", valID)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePassword)
	query.Set("format", "json")

	resp, err := c.http.GET(ctx, validationPath, query)
	if err != nil {
		return nil, fmt.Errorf("validate transaction: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: http %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var out Validation
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("decode validation response: %w", err)
	}
	return &out, nil
}
