package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"turfbook/internal/availability/service"
	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/events"
	httputil "turfbook/pkg/http"
	"turfbook/pkg/logger"
	"turfbook/pkg/metrics"
	"turfbook/pkg/model"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"

	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

type streamMessage struct {
	Type  string                   `json:"type"`
	Data  *model.Availability      `json:"data,omitempty"`
	Error *apperrors.ErrorResponse `json:"error,omitempty"`
}

type AvailabilityHandler struct {
	service    service.AvailabilityService
	subscriber events.Subscriber
	upgrader   websocket.Upgrader
	log        *logger.Logger
}

// NewAvailabilityHandler serves snapshots and, when subscriber is set, the
// websocket feed. Browser upgrades are accepted only from clientURL's origin.
func NewAvailabilityHandler(svc service.AvailabilityService, subscriber events.Subscriber, clientURL string, log *logger.Logger) *AvailabilityHandler {
	allowed := ""
	if u, err := url.Parse(clientURL); err == nil && u.Host != "" {
		allowed = u.Scheme + "://" + u.Host
	}

	return &AvailabilityHandler{
		service:    svc,
		subscriber: subscriber,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowed
			},
		},
	}
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	availability, err := h.service.GetAvailability(r.Context(), ps.ByName("id"), r.URL.Query().Get("date"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

// Stream upgrades to a websocket, sends the current availability and a fresh
// snapshot after every change published for the turf and date.
func (h *AvailabilityHandler) Stream(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	turfID := ps.ByName("id")
	date := r.URL.Query().Get("date")

	// Bad ids and dates are reported as plain HTTP errors before the upgrade.
	first, err := h.service.GetAvailability(r.Context(), turfID, date)
	if err != nil {
		_ = httputil.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	changes, unsubscribe, err := h.subscriber.SubscribeAvailability(ctx, turfID, date)
	if err != nil {
		h.log.Error("Failed to subscribe to availability", "turf_id", turfID, "date", date, "error", err)
		_ = httputil.WriteError(w, apperrors.Unavailable("Availability feed", err))
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "turf_id", turfID, "error", err)
		return
	}
	defer conn.Close()

	metrics.AvailabilitySubscribers.Inc()
	defer metrics.AvailabilitySubscribers.Dec()
	h.log.Debug("Availability stream opened", "turf_id", turfID, "date", date)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only send control frames; a read error means they went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Debug("Availability stream read error", "turf_id", turfID, "error", err)
				}
				return
			}
		}
	}()

	if err := h.send(conn, streamMessage{Type: MessageSnapshot, Data: first}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			msg := streamMessage{Type: MessageSnapshot}
			if msg.Data, err = h.service.GetAvailability(ctx, turfID, date); err != nil {
				appErr := apperrors.AsAppError(err)
				msg = streamMessage{Type: MessageError, Error: &apperrors.ErrorResponse{Code: appErr.Code, Message: appErr.Message}}
			}
			if err := h.send(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *AvailabilityHandler) send(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug("Availability stream write failed", "error", err)
		return err
	}
	return nil
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/turfs/:id/availability", h.Get)
	if h.subscriber != nil {
		router.GET("/api/v1/turfs/:id/availability/stream", h.Stream)
	}
}
