package listing

import (
	errors "github.com/betselot/gojo-bookings/internal"
	"github.com/betselot/gojo-bookings/internal/core/common/validation"
	listingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/listing"
)

type CreateListingRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	PricePerNight int64  `json:"price_per_night"`
	Currency      string `json:"currency,omitempty"`
}

func (r *CreateListingRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("name", r.Name).Required().MaxLength(255)
	validator.Field("location", r.Location).Required().MaxLength(255)
	validator.Field("price_per_night", r.PricePerNight).Required().MinInt(1, errors.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type ListingResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	PricePerNight int64  `json:"price_per_night"`
	Currency      string `json:"currency"`
}

type ListingsResponse struct {
	Listings []ListingResponse `json:"listings"`
}

func ToResponse(l *listingmodel.Listing) ListingResponse {
	return ListingResponse{
		ID:            l.ID,
		Name:          l.Name,
		Description:   l.Description,
		Location:      l.Location,
		PricePerNight: l.PricePerNight,
		Currency:      l.Currency,
	}
}
