package booking

import (
	"time"

	errors "github.com/betselot/gojo-bookings/internal"
	"github.com/betselot/gojo-bookings/internal/core/common/validation"
	bookingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/booking"
)

const dateLayout = "2006-01-02"

type CreateBookingRequest struct {
	ListingID  int64  `json:"listing_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// Parse validates the request and resolves the stay dates. The stay must be
// at least one night.
func (r *CreateBookingRequest) Parse() (start, end time.Time, err error) {
	validator := validation.NewValidator()
	validator.Field("listing_id", r.ListingID).Required()
	validator.Field("guest_name", r.GuestName).Required().MaxLength(255)
	validator.Field("guest_email", r.GuestEmail).Required().MaxLength(255)
	validator.Field("start_date", r.StartDate).Required()
	validator.Field("end_date", r.EndDate).Required()
	if appErr := validator.Validate(); appErr != nil {
		return time.Time{}, time.Time{}, appErr
	}

	start, parseErr := time.Parse(dateLayout, r.StartDate)
	if parseErr != nil {
		return time.Time{}, time.Time{}, errors.NewValidationFieldError("start_date", "start_date must be YYYY-MM-DD", errors.ErrCodeInvalidDates)
	}
	end, parseErr = time.Parse(dateLayout, r.EndDate)
	if parseErr != nil {
		return time.Time{}, time.Time{}, errors.NewValidationFieldError("end_date", "end_date must be YYYY-MM-DD", errors.ErrCodeInvalidDates)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.ErrInvalidDates
	}

	return start, end, nil
}

type BookingResponse struct {
	ID         int64  `json:"id"`
	ListingID  int64  `json:"listing_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Nights     int    `json:"nights"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
}

func ToResponse(b *bookingmodel.Booking) *BookingResponse {
	return &BookingResponse{
		ID:         b.ID,
		ListingID:  b.ListingID,
		GuestName:  b.GuestName,
		GuestEmail: b.GuestEmail,
		StartDate:  b.StartDate.Format(dateLayout),
		EndDate:    b.EndDate.Format(dateLayout),
		Nights:     b.Nights(),
		TotalPrice: b.TotalPrice,
		Currency:   b.Currency,
	}
}
