package postgres

import (
	"gorm.io/gorm"

	bookingpkg "github.com/betselot/gojo-bookings/internal/booking"
	bookingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/booking"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) bookingpkg.RepositoryAPI {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(b *bookingmodel.Booking) error {
	return r.db.Create(b).Error
}

func (r *BookingRepository) GetByID(id int64) (*bookingmodel.Booking, error) {
	var b bookingmodel.Booking
	err := r.db.First(&b, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetAll(limit, offset int) ([]*bookingmodel.Booking, error) {
	var bookings []*bookingmodel.Booking
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&bookings).Error
	return bookings, err
}
