package payment

import (
	"github.com/betselot/gojo-bookings/internal/core/common/validation"
	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
)

// InitiatePaymentRequest is the caller-supplied payload when starting a
// checkout for a booking.
type InitiatePaymentRequest struct {
	ReturnURL   string `json:"return_url,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type InitiatePaymentResponse struct {
	PaymentID   int64               `json:"payment_id"`
	Reference   string              `json:"reference"`
	Status      paymentmodel.Status `json:"status"`
	CheckoutURL string              `json:"checkout_url"`
}

type VerifyPaymentResponse struct {
	Reference     string              `json:"reference"`
	Status        paymentmodel.Status `json:"payment_status"`
	Transitioned  bool                `json:"transitioned"`
	GatewayTxID   string              `json:"transaction_id,omitempty"`
	PaymentMethod string              `json:"payment_method,omitempty"`
}

func ToVerifyResponse(outcome *Outcome) *VerifyPaymentResponse {
	resp := &VerifyPaymentResponse{
		Reference:    outcome.Payment.BookingReference,
		Status:       outcome.Status,
		Transitioned: outcome.Transitioned,
	}
	if outcome.Payment.GatewayTxID != nil {
		resp.GatewayTxID = *outcome.Payment.GatewayTxID
	}
	if outcome.Payment.PaymentMethod != nil {
		resp.PaymentMethod = *outcome.Payment.PaymentMethod
	}
	return resp
}

// WebhookRequest mirrors the gateway's callback body: tx_ref is our booking
// reference, reference is the gateway's own transaction id.
type WebhookRequest struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
	Ref    string `json:"reference,omitempty"`
	Method string `json:"method,omitempty"`
}

func (r *WebhookRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("tx_ref", r.TxRef).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (r *WebhookRequest) ToClaim() Claim {
	return Claim{
		Reference:     r.TxRef,
		RawStatus:     r.Status,
		GatewayTxID:   r.Ref,
		PaymentMethod: r.Method,
		Source:        SourceWebhook,
	}
}

// PaymentView is the external representation of a stored payment.
type PaymentView struct {
	ID            int64               `json:"id"`
	BookingID     int64               `json:"booking_id"`
	Reference     string              `json:"reference"`
	Amount        int64               `json:"amount"`
	Currency      string              `json:"currency"`
	Status        paymentmodel.Status `json:"status"`
	GatewayTxID   string              `json:"transaction_id,omitempty"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	CheckoutURL   string              `json:"checkout_url,omitempty"`
}

func ToView(p *paymentmodel.Payment) *PaymentView {
	view := &PaymentView{
		ID:        p.ID,
		BookingID: p.BookingID,
		Reference: p.BookingReference,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    p.Status,
	}
	if p.GatewayTxID != nil {
		view.GatewayTxID = *p.GatewayTxID
	}
	if p.PaymentMethod != nil {
		view.PaymentMethod = *p.PaymentMethod
	}
	if p.CheckoutURL != nil {
		view.CheckoutURL = *p.CheckoutURL
	}
	return view
}
