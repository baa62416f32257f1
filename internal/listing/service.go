package listing

import (
	"log/slog"
	"time"

	errors "github.com/betselot/gojo-bookings/internal"
	listingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/listing"
)

const defaultCurrency = "ETB"

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAllListings() ([]ListingResponse, error) {
	listings, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to get listings from repository", "error", err)
		return nil, errors.NewTransientStoreError(err)
	}

	responses := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, ToResponse(l))
	}

	return responses, nil
}

func (s *Service) GetByID(id int64) (*listingmodel.Listing, error) {
	return s.repo.GetByID(id)
}

func (s *Service) CreateListing(req CreateListingRequest) (*listingmodel.Listing, error) {
	if err := req.Validate(); err != nil {
		s.logger.Error("listing validation failed", "error", err)
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	l := &listingmodel.Listing{
		Name:          req.Name,
		Description:   req.Description,
		Location:      req.Location,
		PricePerNight: req.PricePerNight,
		Currency:      currency,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := s.repo.Create(l); err != nil {
		s.logger.Error("failed to create listing", "error", err)
		return nil, errors.NewTransientStoreError(err)
	}

	s.logger.Info("listing created", "listing_id", l.ID, "name", l.Name)
	return l, nil
}
