package handler

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"turfbook/internal/payments/service"
	"turfbook/pkg/auth"
	apperrors "turfbook/pkg/errors"
	httputil "turfbook/pkg/http"
	"turfbook/pkg/logger"
	"turfbook/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) Init(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())
	resp, err := h.service.Init(r.Context(), principal, ps.ByName("bookingId"))
	if err != nil {
		h.writeError(w, "Init", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Init", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Settle(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())
	settled, err := h.service.Settle(r.Context(), principal, ps.ByName("bookingId"))
	if err != nil {
		h.writeError(w, "Settle", err)
		return
	}

	if err := httputil.WriteSuccess(w, settled); err != nil {
		h.log.Error("failed to write success response", "handler", "Settle", "operation", "WriteSuccess", "error", err)
	}
}

// Webhook receives the gateway's IPN as a form post or a JSON object.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	values, err := notificationValues(r)
	if err != nil {
		h.writeError(w, "Webhook", apperrors.InvalidInput("Malformed payment notification"))
		return
	}

	if err := h.service.Reconcile(r.Context(), values); err != nil {
		h.writeError(w, "Webhook", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"message": "IPN processed"}); err != nil {
		h.log.Error("failed to write success response", "handler", "Webhook", "operation", "WriteSuccess", "error", err)
	}
}

// Redirect returns the browser callback for one gateway outcome.
func (h *PaymentHandler) Redirect(outcome string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		values := url.Values{}
		if err := r.ParseForm(); err == nil {
			values = r.Form
		} else {
			h.log.Warn("Failed to parse gateway redirect form", "outcome", outcome, "error", err)
		}

		target := h.service.Redirect(r.Context(), outcome, ps.ByName("transactionId"), values)
		httputil.WriteRedirect(w, r, target)
	}
}

func notificationValues(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != middleware.ContentTypeJSON {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}

	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}

	values := url.Values{}
	for k, v := range body {
		switch v := v.(type) {
		case nil:
		case string:
			values.Set(k, v)
		default:
			values.Set(k, fmt.Sprint(v))
		}
	}
	return values, nil
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments/init/:bookingId", middleware.RequireAuth(h.Init))
	router.POST("/api/v1/payments/manual/:bookingId", middleware.RequireAuth(h.Settle))
	router.POST("/api/v1/payments/webhook", h.Webhook)

	for _, outcome := range []string{service.OutcomeSuccess, service.OutcomeFail, service.OutcomeCancel} {
		router.GET("/api/v1/payments/"+outcome+"/:transactionId", h.Redirect(outcome))
		router.POST("/api/v1/payments/"+outcome+"/:transactionId", h.Redirect(outcome))
	}
}
