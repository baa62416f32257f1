package payment

import (
	"strings"

	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
)

// ClaimSource identifies which inbound channel produced a status claim.
type ClaimSource string

const (
	SourceWebhook ClaimSource = "webhook"
	SourcePoll    ClaimSource = "poll"
)

// Claim is an unverified assertion of a payment's status, as reported by the
// gateway through either channel. It is normalized and evaluated by the
// reconciliation engine, never persisted.
type Claim struct {
	Reference     string
	RawStatus     string
	GatewayTxID   string
	PaymentMethod string
	Source        ClaimSource
}

// NormalizeGatewayStatus maps the gateway's free-text status vocabulary onto
// the internal status set. The gateway is untrusted and its vocabulary may
// drift, so anything unrecognized is treated as not-yet-final rather than an
// error; the raw value is kept in logs only.
func NormalizeGatewayStatus(raw string) paymentmodel.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success":
		return paymentmodel.StatusCompleted
	case "failed":
		return paymentmodel.StatusFailed
	case "cancelled":
		return paymentmodel.StatusCancelled
	case "pending":
		return paymentmodel.StatusPending
	default:
		return paymentmodel.StatusPending
	}
}

// recognizedGatewayStatus reports whether the raw value belongs to the known
// gateway vocabulary, used to log drifting values for audit.
func recognizedGatewayStatus(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "failed", "cancelled", "pending":
		return true
	}
	return false
}

// Outcome reports what Apply decided for a claim. Transitioned is true only
// for the single caller whose conditional update won; everyone else observes
// the settled record with Transitioned false.
type Outcome struct {
	Transitioned bool
	Status       paymentmodel.Status
	Payment      *paymentmodel.Payment
}

// TransitionFields carries the claim attributes persisted alongside a
// transition to completed.
type TransitionFields struct {
	GatewayTxID   *string
	PaymentMethod *string
}

// RepositoryAPI is the payment store contract. Lookups return (nil, nil)
// when no record exists. ConditionalTransition must be atomic: it updates
// the row only if its status still equals expected, and reports whether this
// caller's write took effect.
type RepositoryAPI interface {
	Create(p *paymentmodel.Payment) error
	GetByReference(reference string) (*paymentmodel.Payment, error)
	GetByBookingID(bookingID int64) (*paymentmodel.Payment, error)
	ConditionalTransition(reference string, expected, next paymentmodel.Status, fields TransitionFields) (bool, error)
	UpdateCheckoutURL(reference, checkoutURL string) error
}
