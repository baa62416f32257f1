package booking

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/betselot/gojo-bookings/internal"
	bookingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/booking"
	listingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/listing"
	"github.com/betselot/gojo-bookings/internal/payment"
)

// ListingDirectory resolves the listing a booking is made against.
type ListingDirectory interface {
	GetByID(id int64) (*listingmodel.Listing, error)
}

// PaymentInitiator starts the payment lifecycle for a booking.
type PaymentInitiator interface {
	InitiateForBooking(ctx context.Context, b *bookingmodel.Booking, req payment.InitiatePaymentRequest) (*payment.InitiatePaymentResponse, error)
}

type Service struct {
	repo     RepositoryAPI
	listings ListingDirectory
	payments PaymentInitiator
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, listings ListingDirectory, payments PaymentInitiator, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		listings: listings,
		payments: payments,
		logger:   logger,
	}
}

// CreateBooking validates the stay, prices it as nights times the listing's
// nightly rate, and stores the booking.
func (s *Service) CreateBooking(req CreateBookingRequest) (*bookingmodel.Booking, error) {
	start, end, err := req.Parse()
	if err != nil {
		s.logger.Error("booking validation failed", "error", err, "listing_id", req.ListingID)
		return nil, err
	}

	listing, err := s.listings.GetByID(req.ListingID)
	if err != nil {
		s.logger.Error("failed to resolve listing", "listing_id", req.ListingID, "error", err)
		return nil, errors.NewTransientStoreError(err)
	}
	if listing == nil {
		return nil, errors.ErrListingNotFound
	}

	nights := int64(end.Sub(start).Hours() / 24)

	b := &bookingmodel.Booking{
		ListingID:  listing.ID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: nights * listing.PricePerNight,
		Currency:   listing.Currency,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.repo.Create(b); err != nil {
		s.logger.Error("failed to create booking", "listing_id", listing.ID, "error", err)
		return nil, errors.NewTransientStoreError(err)
	}

	s.logger.Info("booking created",
		"booking_id", b.ID,
		"listing_id", listing.ID,
		"nights", nights,
		"total_price", b.TotalPrice)

	return b, nil
}

func (s *Service) GetBooking(id int64) (*bookingmodel.Booking, error) {
	b, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.NewTransientStoreError(err)
	}
	if b == nil {
		return nil, errors.ErrBookingNotFound
	}
	return b, nil
}

func (s *Service) GetBookings(limit, offset int) ([]*bookingmodel.Booking, error) {
	bookings, err := s.repo.GetAll(limit, offset)
	if err != nil {
		return nil, errors.NewTransientStoreError(err)
	}
	return bookings, nil
}

// InitiatePayment looks up the booking and delegates to the payment service.
func (s *Service) InitiatePayment(ctx context.Context, bookingID int64, req payment.InitiatePaymentRequest) (*payment.InitiatePaymentResponse, error) {
	b, err := s.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	return s.payments.InitiateForBooking(ctx, b, req)
}
