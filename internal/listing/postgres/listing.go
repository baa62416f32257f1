package postgres

import (
	"gorm.io/gorm"

	listingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/listing"
	listingpkg "github.com/betselot/gojo-bookings/internal/listing"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) listingpkg.RepositoryAPI {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) GetAll() ([]*listingmodel.Listing, error) {
	var listings []*listingmodel.Listing
	err := r.db.Order("name ASC").Find(&listings).Error
	return listings, err
}

func (r *ListingRepository) GetByID(id int64) (*listingmodel.Listing, error) {
	var l listingmodel.Listing
	err := r.db.Where("id = ?", id).First(&l).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepository) Create(l *listingmodel.Listing) error {
	return r.db.Create(l).Error
}
