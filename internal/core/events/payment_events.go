package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
)

// PaymentCompletedEvent fires exactly once when a payment transitions
// pending -> completed, from whichever channel won the conditional update.
type PaymentCompletedEvent struct {
	BaseEvent
	PaymentID        int64  `json:"payment_id"`
	BookingID        int64  `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	GatewayTxID      string `json:"gateway_tx_id"`
	PaymentMethod    string `json:"payment_method"`
}

func NewPaymentCompletedEvent(paymentID, bookingID int64, reference string, amount int64, currency, gatewayTxID, paymentMethod string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":        paymentID,
				"booking_id":        bookingID,
				"booking_reference": reference,
				"amount":            amount,
				"currency":          currency,
				"gateway_tx_id":     gatewayTxID,
				"payment_method":    paymentMethod,
			},
		},
		PaymentID:        paymentID,
		BookingID:        bookingID,
		BookingReference: reference,
		Amount:           amount,
		Currency:         currency,
		GatewayTxID:      gatewayTxID,
		PaymentMethod:    paymentMethod,
	}
}

// PaymentFailedEvent fires exactly once when a payment transitions
// pending -> failed.
type PaymentFailedEvent struct {
	BaseEvent
	PaymentID        int64  `json:"payment_id"`
	BookingID        int64  `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	RawGatewayStatus string `json:"raw_gateway_status"`
}

func NewPaymentFailedEvent(paymentID, bookingID int64, reference string, amount int64, currency, rawGatewayStatus string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":         paymentID,
				"booking_id":         bookingID,
				"booking_reference":  reference,
				"amount":             amount,
				"currency":           currency,
				"raw_gateway_status": rawGatewayStatus,
			},
		},
		PaymentID:        paymentID,
		BookingID:        bookingID,
		BookingReference: reference,
		Amount:           amount,
		Currency:         currency,
		RawGatewayStatus: rawGatewayStatus,
	}
}
