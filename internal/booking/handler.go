package booking

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/betselot/gojo-bookings/internal"
	bookingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/booking"
	"github.com/betselot/gojo-bookings/internal/payment"
	"github.com/betselot/gojo-bookings/internal/transport"
)

type ServiceAPI interface {
	CreateBooking(req CreateBookingRequest) (*bookingmodel.Booking, error)
	GetBooking(id int64) (*bookingmodel.Booking, error)
	GetBookings(limit, offset int) ([]*bookingmodel.Booking, error)
	InitiatePayment(ctx context.Context, bookingID int64, req payment.InitiatePaymentRequest) (*payment.InitiatePaymentResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Logger  *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Logger:      logger,
	}
}

// CreateBooking handles POST /bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CreateBooking: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	b, err := h.Service.CreateBooking(req)
	if err != nil {
		h.Logger.Error("CreateBooking: service error", "error", err)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ToResponse(b))
}

// GetBooking handles GET /bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := h.bookingID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	b, err := h.Service.GetBooking(id)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(b))
}

// GetBookings handles GET /bookings
func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	bookings, err := h.Service.GetBookings(limit, offset)
	if err != nil {
		h.Logger.Error("GetBookings: service error", "error", err)
		h.HandleError(w, err)
		return
	}

	responses := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, ToResponse(b))
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": responses,
		"limit":    limit,
		"offset":   offset,
	})
}

// InitiatePayment handles POST /bookings/{id}/payment
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := h.bookingID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req payment.InitiatePaymentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.Logger.Error("InitiatePayment: failed to parse request body", "error", err, "booking_id", id)
			h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
			return
		}
	}

	resp, err := h.Service.InitiatePayment(r.Context(), id, req)
	if err != nil {
		h.Logger.Error("InitiatePayment: service error", "error", err, "booking_id", id)
		h.HandleError(w, err)
		return
	}

	h.Logger.Info("InitiatePayment: payment initiated",
		"booking_id", id,
		"reference", resp.Reference)

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) bookingID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("invalid booking id", errors.ErrCodeValidationFailed)
	}
	return id, nil
}
