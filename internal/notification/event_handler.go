package notification

import (
	"context"
	"fmt"
	"log/slog"

	bookingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/booking"
	"github.com/betselot/gojo-bookings/internal/core/events"
)

// BookingDirectory resolves a booking so the message can address the guest.
type BookingDirectory interface {
	GetByID(id int64) (*bookingmodel.Booking, error)
}

type EventHandler struct {
	dispatcher *Dispatcher
	bookings   BookingDirectory
	logger     *slog.Logger
}

func NewEventHandler(dispatcher *Dispatcher, bookings BookingDirectory, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		bookings:   bookings,
		logger:     logger,
	}
}

func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	b, err := h.lookupBooking(completed.BookingID, completed.BookingReference)
	if err != nil {
		return err
	}

	h.dispatcher.Enqueue(Message{
		Kind:      KindConfirmation,
		Recipient: b.GuestEmail,
		Subject:   fmt.Sprintf("Booking confirmed: %s", completed.BookingReference),
		Body: fmt.Sprintf(
			"Dear %s,\n\nYour payment of %s %s has been received and your booking is confirmed.\n\nReference: %s\nCheck-in: %s\nCheck-out: %s\n\nWe look forward to hosting you.",
			b.GuestName,
			formatAmount(completed.Amount),
			completed.Currency,
			completed.BookingReference,
			b.StartDate.Format("2006-01-02"),
			b.EndDate.Format("2006-01-02"),
		),
	})

	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	b, err := h.lookupBooking(failed.BookingID, failed.BookingReference)
	if err != nil {
		return err
	}

	h.dispatcher.Enqueue(Message{
		Kind:      KindFailure,
		Recipient: b.GuestEmail,
		Subject:   fmt.Sprintf("Payment unsuccessful: %s", failed.BookingReference),
		Body: fmt.Sprintf(
			"Dear %s,\n\nWe could not process your payment of %s %s for booking %s. No funds were collected.\n\nPlease try again or contact support if the problem persists.",
			b.GuestName,
			formatAmount(failed.Amount),
			failed.Currency,
			failed.BookingReference,
		),
	})

	return nil
}

func (h *EventHandler) lookupBooking(bookingID int64, reference string) (*bookingmodel.Booking, error) {
	b, err := h.bookings.GetByID(bookingID)
	if err != nil {
		h.logger.Error("failed to load booking for notification",
			"booking_id", bookingID,
			"booking_reference", reference,
			"error", err)
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	if b == nil {
		h.logger.Error("booking missing for notification",
			"booking_id", bookingID,
			"booking_reference", reference)
		return nil, fmt.Errorf("booking %d not found", bookingID)
	}
	return b, nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypePaymentCompleted, events.EventTypePaymentFailed})
}

// formatAmount renders minor units as a decimal string, e.g. 250000 -> "2500.00".
func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
