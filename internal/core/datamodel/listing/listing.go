package listing

import (
	"time"
)

type Listing struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"column:name;not null"`
	Description   string    `json:"description" gorm:"column:description"`
	Location      string    `json:"location" gorm:"column:location;not null"`
	PricePerNight int64     `json:"price_per_night" gorm:"column:price_per_night;not null"`
	Currency      string    `json:"currency" gorm:"column:currency;not null;default:ETB"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}
