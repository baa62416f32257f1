package listing

import (
	listingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/listing"
)

// RepositoryAPI defines the data access methods for listings. Lookups return
// (nil, nil) when no record exists.
type RepositoryAPI interface {
	GetAll() ([]*listingmodel.Listing, error)
	GetByID(id int64) (*listingmodel.Listing, error)
	Create(l *listingmodel.Listing) error
}
