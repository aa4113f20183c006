package models

import (
	"time"

	"gorm.io/gorm"
)

// NightlyRecord is one (room type, calendar date) row of the inventory
// ledger. A date with no row is implicitly at room-type defaults
// (TotalUnits available at BasePrice); rows are created lazily by the
// first bulk revision or booking touching the date and are never
// physically deleted.
type NightlyRecord struct {
	gorm.Model
	RoomTypeID        uint      `json:"roomTypeID" gorm:"not null;uniqueIndex:idx_room_type_date"`
	Date              time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_room_type_date"`
	TotalUnits        int       `json:"totalUnits" gorm:"not null"`
	AvailableUnits    int       `json:"availableUnits" gorm:"not null"`
	BasePrice         float64   `json:"basePrice" gorm:"not null"`
	SeasonMultiplier  float64   `json:"seasonMultiplier" gorm:"default:1"`
	PromotionDiscount float64   `json:"promotionDiscount" gorm:"default:0"`
	FinalPrice        float64   `json:"finalPrice" gorm:"not null"`
	StopSell          bool      `json:"stopSell" gorm:"default:false"`
	MinNights         int       `json:"minNights" gorm:"default:1"`
	RoomType          RoomType  `json:"-" gorm:"foreignKey:RoomTypeID"`
}
