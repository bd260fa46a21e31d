package handler

import (
	"net/http"

	"turfbook/internal/bookings/service"
	"turfbook/pkg/auth"
	"turfbook/pkg/config"
	httputil "turfbook/pkg/http"
	"turfbook/pkg/logger"
	"turfbook/pkg/middleware"
	"turfbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	principal, _ := auth.FromContext(r.Context())
	created, err := h.service.Create(r.Context(), principal, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())
	booking, err := h.service.GetByID(r.Context(), principal, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	principal, _ := auth.FromContext(r.Context())
	bookings, total, err := h.service.ListMine(r.Context(), principal, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	principal, _ := auth.FromContext(r.Context())
	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), update.Status, principal)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{"booking": booking}); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())
	booking, err := h.service.Cancel(r.Context(), principal, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{"booking": booking}); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", middleware.RequireAuth(h.Create))
	router.GET("/api/v1/bookings/my", middleware.RequireAuth(h.ListMine))
	router.GET("/api/v1/bookings/id/:id", middleware.RequireAuth(h.GetByID))
	router.PATCH("/api/v1/bookings/id/:id/status", middleware.RequireAuth(h.UpdateStatus))
	router.PATCH("/api/v1/bookings/id/:id/cancel", middleware.RequireAuth(h.Cancel))
	router.DELETE("/api/v1/bookings/id/:id", middleware.RequireRole(h.Delete, config.SuperRole))
}
