package payment

import (
	"time"
)

// Status is the reconciled lifecycle state of a booking payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition is permitted. The first
// terminal write wins; later claims against a terminal payment are discarded.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type Payment struct {
	ID               int64      `json:"id" gorm:"primaryKey"`
	BookingID        int64      `json:"booking_id" gorm:"column:booking_id;not null;uniqueIndex"`
	BookingReference string     `json:"booking_reference" gorm:"column:booking_reference;not null;uniqueIndex"`
	Amount           int64      `json:"amount" gorm:"column:amount;not null"`
	Currency         string     `json:"currency" gorm:"column:currency;not null;default:ETB"`
	Status           Status     `json:"status" gorm:"column:status;default:pending"`
	GatewayTxID      *string    `json:"gateway_tx_id,omitempty" gorm:"column:gateway_tx_id"`
	PaymentMethod    *string    `json:"payment_method,omitempty" gorm:"column:payment_method"`
	CheckoutURL      *string    `json:"checkout_url,omitempty" gorm:"column:checkout_url"`
	CreatedAt        time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"column:updated_at"`
	SettledAt        *time.Time `json:"settled_at,omitempty" gorm:"column:settled_at"`
}

func (Payment) TableName() string {
	return "payments"
}
