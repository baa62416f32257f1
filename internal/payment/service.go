package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/betselot/gojo-bookings/internal"
	bookingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/booking"
	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
	"github.com/betselot/gojo-bookings/internal/gateway"
)

// GatewayAPI is the capability the service needs from the payment gateway
// client: start a checkout and verify a transaction by reference.
type GatewayAPI interface {
	Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResponse, error)
	Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error)
}

// EngineAPI is the reconciliation entry point shared by both channels.
type EngineAPI interface {
	Apply(ctx context.Context, claim Claim) (*Outcome, error)
}

// Service orchestrates payment initiation and the verification poll. All
// status decisions are delegated to the engine.
type Service struct {
	repo    RepositoryAPI
	engine  EngineAPI
	gateway GatewayAPI
	chapa   internal.ChapaConfig
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, engine EngineAPI, gw GatewayAPI, chapa internal.ChapaConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		engine:  engine,
		gateway: gw,
		chapa:   chapa,
		logger:  logger,
	}
}

// InitiateForBooking creates the Pending payment record for a booking and
// starts a gateway checkout. A booking has at most one payment; a second
// initiation attempt is rejected. Gateway failure marks the payment Failed
// immediately, with no retry at this layer.
func (s *Service) InitiateForBooking(ctx context.Context, b *bookingmodel.Booking, req InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	existing, err := s.repo.GetByBookingID(b.ID)
	if err != nil {
		s.logger.Error("failed to check for existing payment", "booking_id", b.ID, "error", err)
		return nil, internal.NewTransientStoreError(err)
	}
	if existing != nil {
		return nil, internal.ErrPaymentExists
	}

	reference := uuid.NewString()
	p := &paymentmodel.Payment{
		BookingID:        b.ID,
		BookingReference: reference,
		Amount:           b.TotalPrice,
		Currency:         b.Currency,
		Status:           paymentmodel.StatusPending,
	}

	if err := s.repo.Create(p); err != nil {
		s.logger.Error("failed to create payment record", "booking_id", b.ID, "error", err)
		return nil, internal.NewTransientStoreError(err)
	}

	s.logger.Info("payment record created",
		"payment_id", p.ID,
		"booking_id", b.ID,
		"reference", reference,
		"amount", p.Amount)

	gwCtx, cancel := internal.WithTimeout(ctx, s.chapa.Timeout)
	defer cancel()

	gwResp, err := s.gateway.Initiate(gwCtx, gateway.InitiateRequest{
		Amount:      p.Amount,
		Currency:    p.Currency,
		Email:       b.GuestEmail,
		FirstName:   b.GuestName,
		TxRef:       reference,
		CallbackURL: s.chapa.CallbackURL,
		ReturnURL:   req.ReturnURL,
		Description: fmt.Sprintf("Payment for booking %d", b.ID),
	})
	if err != nil {
		s.markInitiationFailed(reference)
		s.logger.Error("gateway initiation failed",
			"booking_id", b.ID,
			"reference", reference,
			"error", err)
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, internal.NewExternalError("payment initiation failed", internal.ErrCodeGatewayFailed, err)
	}

	if gwResp.CheckoutURL != "" {
		if err := s.repo.UpdateCheckoutURL(reference, gwResp.CheckoutURL); err != nil {
			// The checkout URL is returned to the caller either way; losing
			// the stored copy is not worth failing the initiation over.
			s.logger.Warn("failed to persist checkout url", "reference", reference, "error", err)
		}
	}

	s.logger.Info("payment initiated",
		"payment_id", p.ID,
		"booking_id", b.ID,
		"reference", reference)

	return &InitiatePaymentResponse{
		PaymentID:   p.ID,
		Reference:   reference,
		Status:      paymentmodel.StatusPending,
		CheckoutURL: gwResp.CheckoutURL,
	}, nil
}

func (s *Service) markInitiationFailed(reference string) {
	won, err := s.repo.ConditionalTransition(reference, paymentmodel.StatusPending, paymentmodel.StatusFailed, TransitionFields{})
	if err != nil {
		s.logger.Error("failed to mark payment failed after gateway error", "reference", reference, "error", err)
		return
	}
	if !won {
		s.logger.Info("payment already settled, initiation failure not recorded", "reference", reference)
	}
}

// VerifyByReference is the poll channel: it asks the gateway for the current
// transaction state and feeds the result through the reconciliation engine.
func (s *Service) VerifyByReference(ctx context.Context, reference string) (*VerifyPaymentResponse, error) {
	p, err := s.repo.GetByReference(reference)
	if err != nil {
		return nil, internal.NewTransientStoreError(err)
	}
	if p == nil {
		return nil, internal.ErrPaymentNotFound
	}

	gwCtx, cancel := internal.WithTimeout(ctx, s.chapa.Timeout)
	defer cancel()

	result, err := s.gateway.Verify(gwCtx, reference)
	if err != nil {
		s.logger.Error("gateway verification failed", "reference", reference, "error", err)
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, internal.NewExternalError("payment verification failed", internal.ErrCodeGatewayFailed, err)
	}

	outcome, err := s.engine.Apply(ctx, Claim{
		Reference:     reference,
		RawStatus:     result.RawStatus,
		GatewayTxID:   result.TransactionID,
		PaymentMethod: result.PaymentMethod,
		Source:        SourcePoll,
	})
	if err != nil {
		return nil, err
	}

	return ToVerifyResponse(outcome), nil
}

// GetByReference returns the stored payment, or a not-found error.
func (s *Service) GetByReference(reference string) (*paymentmodel.Payment, error) {
	p, err := s.repo.GetByReference(reference)
	if err != nil {
		return nil, internal.NewTransientStoreError(err)
	}
	if p == nil {
		return nil, internal.ErrPaymentNotFound
	}
	return p, nil
}

// ApplyClaim exposes the engine to the webhook ingress.
func (s *Service) ApplyClaim(ctx context.Context, claim Claim) (*Outcome, error) {
	return s.engine.Apply(ctx, claim)
}
