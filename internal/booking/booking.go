package booking

import (
	bookingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/booking"
)

// RepositoryAPI defines the data access methods for bookings. Lookups return
// (nil, nil) when no record exists.
type RepositoryAPI interface {
	Create(b *bookingmodel.Booking) error
	GetByID(id int64) (*bookingmodel.Booking, error)
	GetAll(limit, offset int) ([]*bookingmodel.Booking, error)
}
