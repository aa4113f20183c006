package models

import "gorm.io/gorm"

// RoomType is a pooled inventory class within a hotel ("Deluxe Double"),
// not an individually numbered room. Retired room types are deactivated,
// never deleted, so historical reservations keep their reference.
type RoomType struct {
	gorm.Model
	HotelID         uint    `json:"hotelID" gorm:"not null;index"`
	Name            string  `json:"name" gorm:"not null"`
	Description     string  `json:"description"`
	BasePrice       float64 `json:"basePrice" gorm:"not null"`
	TotalUnits      int     `json:"totalUnits" gorm:"not null"`
	BaseOccupancy   int     `json:"baseOccupancy" gorm:"default:2"`
	MaxOccupancy    int     `json:"maxOccupancy" gorm:"default:4"`
	ExtraAdultPrice float64 `json:"extraAdultPrice"`
	ExtraChildPrice float64 `json:"extraChildPrice"`
	IsActive        *bool   `json:"isActive" gorm:"default:true"`
	Hotel           Hotel   `json:"-" gorm:"foreignKey:HotelID"`
}
