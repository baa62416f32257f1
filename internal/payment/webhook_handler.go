package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/betselot/gojo-bookings/internal"
	"github.com/betselot/gojo-bookings/internal/transport"
)

type WebhookHandler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Logger  *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		Service:     service,
		Logger:      logger,
	}
}

type WebhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleCallback handles POST /payments/webhook, the gateway's out-of-band
// channel. Once a claim has been durably evaluated the response is success,
// including duplicate and conflicting deliveries, so the gateway's retry
// policy is not provoked by normal redelivery. Only malformed input, an
// unknown reference, or store unavailability yield a non-2xx response.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("invalid webhook request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	if err := req.Validate(); err != nil {
		h.Logger.Error("webhook missing transaction reference")
		h.HandleError(w, err)
		return
	}

	h.Logger.Info("received gateway webhook",
		"tx_ref", req.TxRef,
		"status", req.Status,
		"gateway_reference", req.Ref)

	outcome, err := h.Service.ApplyClaim(r.Context(), req.ToClaim())
	if err != nil {
		h.Logger.Error("failed to process webhook claim",
			"tx_ref", req.TxRef,
			"status", req.Status,
			"error", err)
		h.HandleError(w, err)
		return
	}

	h.Logger.Info("webhook claim evaluated",
		"tx_ref", req.TxRef,
		"stored_status", outcome.Status,
		"transitioned", outcome.Transitioned)

	h.WriteJSON(w, http.StatusOK, WebhookResponse{
		Status:  "success",
		Message: "webhook processed successfully",
	})
}
