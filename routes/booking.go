package routes

import (
	"encoding/json"
	"strconv"

	"hotel-inventory-server/models"
	"hotel-inventory-server/services"
	"hotel-inventory-server/storage"
	"hotel-inventory-server/utils"

	"github.com/kataras/iris/v12"
)

// Booking endpoints. The commit and cancel paths go through the
// reservation coordinator; handlers only translate JSON.

type CreateBookingInput struct {
	HotelID    uint   `json:"hotelId"`
	RoomTypeID uint   `json:"roomTypeId" validate:"required"`
	GuestName  string `json:"guestName" validate:"required"`
	GuestEmail string `json:"guestEmail" validate:"required,email"`
	CheckIn    string `json:"checkIn" validate:"required"`
	CheckOut   string `json:"checkOut" validate:"required"`
	Adults     int    `json:"adults" validate:"required,min=1,lte=16"`
	Children   int    `json:"children" validate:"min=0,lte=16"`
	Units      int    `json:"units" validate:"required,min=1"`
	Note       string `json:"note"`
}

func CreateBooking(ctx iris.Context) {
	var input CreateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, err := utils.ParseDate(input.CheckIn)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
		return
	}
	checkOut, err := utils.ParseDate(input.CheckOut)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
		return
	}

	details, _ := json.Marshal(iris.Map{"note": input.Note})

	coordinator := services.NewReservationService(storage.DB, services.NewQuoteCache(storage.Redis))
	reservation, err := coordinator.Commit(ctx.Request().Context(), services.CommitInput{
		RoomTypeID:   input.RoomTypeID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Units:        input.Units,
		Adults:       input.Adults,
		Children:     input.Children,
		GuestName:    input.GuestName,
		GuestEmail:   input.GuestEmail,
		GuestDetails: details,
	})
	if err != nil {
		handleEngineError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":    true,
		"bookingId":  reservation.ID,
		"bookingRef": reservation.BookingRef,
		"totalPrice": reservation.TotalPrice,
	})
}

func CancelBooking(ctx iris.Context) {
	id := ctx.Params().Get("id")

	coordinator := services.NewReservationService(storage.DB, services.NewQuoteCache(storage.Redis))

	// Accept either the numeric id or the external booking reference.
	if bookingID, err := strconv.ParseUint(id, 10, 32); err == nil {
		err = coordinator.Cancel(ctx.Request().Context(), uint(bookingID))
		if err != nil {
			handleEngineError(err, ctx)
			return
		}
	} else if err := coordinator.CancelByRef(ctx.Request().Context(), id); err != nil {
		handleEngineError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

type UpdateBookingStatusInput struct {
	Status string `json:"status" validate:"required,oneof=confirmed checked_in checked_out cancelled"`
}

func UpdateBookingStatus(ctx iris.Context) {
	id := ctx.Params().Get("id")
	bookingID, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	var input UpdateBookingStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	coordinator := services.NewReservationService(storage.DB, services.NewQuoteCache(storage.Redis))
	reservation, err := coordinator.UpdateStatus(ctx.Request().Context(), uint(bookingID), input.Status)
	if err != nil {
		handleEngineError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    reservation,
	})
}

// ExpirePendingBookings sweeps pending reservations whose hold lapsed,
// releasing their units.
func ExpirePendingBookings(ctx iris.Context) {
	coordinator := services.NewReservationService(storage.DB, services.NewQuoteCache(storage.Redis))
	count, err := coordinator.ExpirePending(ctx.Request().Context())
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"expired": count,
	})
}

func GetBookingsByRoomType(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var reservations []models.Reservation
	res := storage.DB.Preload("RoomType").Where("room_type_id = ?", id).Order("created_at DESC").Find(&reservations)
	if res.Error != nil {
		utils.CreateError(iris.StatusInternalServerError, "Error", res.Error.Error(), ctx)
		return
	}

	ctx.JSON(reservations)
}

// GetHotelBookings returns reservations across all room types of a
// hotel, for dashboards.
func GetHotelBookings(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var reservations []models.Reservation
	res := storage.DB.
		Joins("JOIN room_types rt ON rt.id = reservations.room_type_id").
		Where("rt.hotel_id = ?", id).
		Preload("RoomType").
		Order("reservations.created_at DESC").
		Find(&reservations)
	if res.Error != nil {
		utils.CreateError(iris.StatusInternalServerError, "Error", res.Error.Error(), ctx)
		return
	}

	ctx.JSON(reservations)
}
