package payment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	errors "github.com/betselot/gojo-bookings/internal"
	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
	"github.com/betselot/gojo-bookings/internal/transport"
)

// ServiceAPI is what the HTTP layer needs from the payment service.
type ServiceAPI interface {
	VerifyByReference(ctx context.Context, reference string) (*VerifyPaymentResponse, error)
	GetByReference(reference string) (*paymentmodel.Payment, error)
	ApplyClaim(ctx context.Context, claim Claim) (*Outcome, error)
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

// GetPayment handles GET /payments/{reference}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		h.HandleError(w, errors.NewValidationError("reference is required", errors.ErrCodeMissingReference))
		return
	}

	p, err := h.Service.GetByReference(reference)
	if err != nil {
		h.Logger.Error("GetPayment: lookup failed", "reference", reference, "error", err)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(p))
}

// VerifyPayment handles POST /payments/{reference}/verify, the poll channel:
// the service asks the gateway for the transaction state and reconciles it.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		h.HandleError(w, errors.NewValidationError("reference is required", errors.ErrCodeMissingReference))
		return
	}

	resp, err := h.Service.VerifyByReference(r.Context(), reference)
	if err != nil {
		h.Logger.Error("VerifyPayment: verification failed", "reference", reference, "error", err)
		h.HandleError(w, err)
		return
	}

	h.Logger.Info("VerifyPayment: claim evaluated",
		"reference", reference,
		"status", resp.Status,
		"transitioned", resp.Transitioned)

	h.WriteJSON(w, http.StatusOK, resp)
}
