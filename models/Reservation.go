package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReservationStatusPending    = "pending"
	ReservationStatusConfirmed  = "confirmed"
	ReservationStatusCheckedIn  = "checked_in"
	ReservationStatusCheckedOut = "checked_out"
	ReservationStatusCancelled  = "cancelled"
)

// Reservation owns the units it decremented from the ledger for every
// night in [CheckIn, CheckOut) until it is cancelled.
type Reservation struct {
	gorm.Model
	BookingRef   string         `json:"bookingRef" gorm:"type:varchar(36);uniqueIndex"`
	RoomTypeID   uint           `json:"roomTypeID" gorm:"not null;index"`
	CheckIn      time.Time      `json:"checkIn" gorm:"type:date;not null;index"`
	CheckOut     time.Time      `json:"checkOut" gorm:"type:date;not null;index"`
	Units        int            `json:"units" gorm:"not null"`
	Adults       int            `json:"adults" gorm:"default:2"`
	Children     int            `json:"children" gorm:"default:0"`
	GuestName    string         `json:"guestName"`
	GuestEmail   string         `json:"guestEmail"`
	GuestDetails datatypes.JSON `json:"guestDetails"`
	Status       string         `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	TotalPrice   float64        `json:"totalPrice"`
	ExpiresAt    time.Time      `json:"expiresAt"`
	RoomType     RoomType       `json:"roomType" gorm:"foreignKey:RoomTypeID"`
}

// ActiveReservationStatuses are the statuses that still hold units
// against the ledger.
var ActiveReservationStatuses = []string{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusCheckedIn,
}
