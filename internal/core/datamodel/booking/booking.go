package booking

import (
	"time"
)

type Booking struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	ListingID  int64     `json:"listing_id" gorm:"column:listing_id;not null;index"`
	GuestName  string    `json:"guest_name" gorm:"column:guest_name;not null"`
	GuestEmail string    `json:"guest_email" gorm:"column:guest_email;not null"`
	StartDate  time.Time `json:"start_date" gorm:"column:start_date;not null"`
	EndDate    time.Time `json:"end_date" gorm:"column:end_date;not null"`
	TotalPrice int64     `json:"total_price" gorm:"column:total_price;not null"`
	Currency   string    `json:"currency" gorm:"column:currency;not null;default:ETB"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Nights is the stay length in whole nights.
func (b *Booking) Nights() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}
