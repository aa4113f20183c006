package models

import "gorm.io/gorm"

type Hotel struct {
	gorm.Model
	Name      string     `json:"name" gorm:"not null"`
	City      string     `json:"city"`
	Country   string     `json:"country"`
	Currency  string     `json:"currency" gorm:"type:varchar(10);default:'USD'"`
	IsActive  *bool      `json:"isActive" gorm:"default:true"`
	RoomTypes []RoomType `json:"roomTypes" gorm:"foreignKey:HotelID"`
}
