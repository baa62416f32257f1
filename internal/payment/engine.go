package payment

import (
	"context"
	"log/slog"

	errors "github.com/betselot/gojo-bookings/internal"
	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
	"github.com/betselot/gojo-bookings/internal/core/events"
)

// Engine is the single authority over payment status transitions. Both the
// webhook ingress and the verification poll feed their claims through Apply,
// so the two channels can never diverge in guard or transition logic.
type Engine struct {
	repo     RepositoryAPI
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewEngine(repo RepositoryAPI, eventBus *events.EventBus, logger *slog.Logger) *Engine {
	return &Engine{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Apply evaluates a claim against the stored payment and applies the status
// transition if one is warranted. Idempotent: re-applying any claim after the
// payment settles is a no-op. Notification events are published only when
// this call's conditional update won, so the trigger fires at most once per
// transition no matter how many duplicate or racing claims arrive.
func (e *Engine) Apply(ctx context.Context, claim Claim) (*Outcome, error) {
	if claim.Reference == "" {
		return nil, errors.NewValidationError("reference is required", errors.ErrCodeMissingReference)
	}

	current, err := e.repo.GetByReference(claim.Reference)
	if err != nil {
		e.logger.Error("failed to load payment for claim",
			"reference", claim.Reference,
			"source", claim.Source,
			"error", err)
		return nil, errors.NewTransientStoreError(err)
	}
	if current == nil {
		return nil, errors.ErrPaymentNotFound
	}

	candidate := NormalizeGatewayStatus(claim.RawStatus)
	if !recognizedGatewayStatus(claim.RawStatus) {
		e.logger.Warn("unrecognized gateway status treated as pending",
			"reference", claim.Reference,
			"raw_status", claim.RawStatus,
			"source", claim.Source)
	}

	if current.Status.IsTerminal() {
		if candidate != current.Status && candidate.IsTerminal() {
			// A replayed or reordered claim must never revert a settled
			// outcome; the first terminal write wins.
			e.logger.Info("conflicting claim discarded, payment already settled",
				"reference", claim.Reference,
				"stored_status", current.Status,
				"claimed_status", candidate,
				"source", claim.Source)
		}
		return &Outcome{Transitioned: false, Status: current.Status, Payment: current}, nil
	}

	if candidate == paymentmodel.StatusPending {
		return &Outcome{Transitioned: false, Status: current.Status, Payment: current}, nil
	}

	fields := TransitionFields{}
	if candidate == paymentmodel.StatusCompleted {
		if claim.GatewayTxID != "" {
			txID := claim.GatewayTxID
			fields.GatewayTxID = &txID
		}
		if claim.PaymentMethod != "" {
			method := claim.PaymentMethod
			fields.PaymentMethod = &method
		}
	}

	won, err := e.repo.ConditionalTransition(claim.Reference, paymentmodel.StatusPending, candidate, fields)
	if err != nil {
		e.logger.Error("conditional status update failed",
			"reference", claim.Reference,
			"candidate_status", candidate,
			"source", claim.Source,
			"error", err)
		return nil, errors.NewTransientStoreError(err)
	}

	if !won {
		// Another claim settled the payment between our read and write.
		// Re-read and report the now-terminal record as a no-op.
		settled, err := e.repo.GetByReference(claim.Reference)
		if err != nil {
			return nil, errors.NewTransientStoreError(err)
		}
		if settled == nil {
			return nil, errors.ErrPaymentNotFound
		}
		e.logger.Info("lost transition race, claim discarded",
			"reference", claim.Reference,
			"stored_status", settled.Status,
			"claimed_status", candidate,
			"source", claim.Source)
		return &Outcome{Transitioned: false, Status: settled.Status, Payment: settled}, nil
	}

	updated, err := e.repo.GetByReference(claim.Reference)
	if err != nil || updated == nil {
		// The write itself succeeded, so the transition stands; fall back to
		// the pre-write record with the new status for the outcome.
		updated = current
		updated.Status = candidate
	}

	e.logger.Info("payment transitioned",
		"reference", claim.Reference,
		"new_status", candidate,
		"source", claim.Source)

	e.publishTransitionEvent(ctx, updated, candidate, claim)

	return &Outcome{Transitioned: true, Status: candidate, Payment: updated}, nil
}

func (e *Engine) publishTransitionEvent(ctx context.Context, p *paymentmodel.Payment, next paymentmodel.Status, claim Claim) {
	switch next {
	case paymentmodel.StatusCompleted:
		event := events.NewPaymentCompletedEvent(
			p.ID,
			p.BookingID,
			p.BookingReference,
			p.Amount,
			p.Currency,
			claim.GatewayTxID,
			claim.PaymentMethod,
		)
		e.eventBus.Publish(ctx, event)
	case paymentmodel.StatusFailed:
		event := events.NewPaymentFailedEvent(
			p.ID,
			p.BookingID,
			p.BookingReference,
			p.Amount,
			p.Currency,
			claim.RawStatus,
		)
		e.eventBus.Publish(ctx, event)
	}
	// Cancelled transitions do not notify.
}
