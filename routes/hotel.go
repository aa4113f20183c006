package routes

import (
	"strconv"

	"hotel-inventory-server/models"
	"hotel-inventory-server/storage"
	"hotel-inventory-server/utils"

	"github.com/kataras/iris/v12"
)

// Hotel setup and room-type management.

type CreateHotelInput struct {
	Name     string `json:"name" validate:"required"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

func CreateHotel(ctx iris.Context) {
	var input CreateHotelInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Currency == "" {
		input.Currency = "USD"
	}

	hotel := models.Hotel{
		Name:     input.Name,
		City:     input.City,
		Country:  input.Country,
		Currency: input.Currency,
	}
	if err := storage.DB.Create(&hotel).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    hotel,
	})
}

type RoomTypeInput struct {
	Name            string  `json:"name" validate:"required"`
	Description     string  `json:"description"`
	BasePrice       float64 `json:"basePrice" validate:"required,min=0"`
	TotalUnits      int     `json:"totalUnits" validate:"required,min=1"`
	BaseOccupancy   int     `json:"baseOccupancy" validate:"min=1"`
	MaxOccupancy    int     `json:"maxOccupancy" validate:"min=1"`
	ExtraAdultPrice float64 `json:"extraAdultPrice" validate:"min=0"`
	ExtraChildPrice float64 `json:"extraChildPrice" validate:"min=0"`
}

func CreateRoomType(ctx iris.Context) {
	hotelIDStr := ctx.Params().Get("id")
	hotelID, err := strconv.ParseUint(hotelIDStr, 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid hotel ID", ctx)
		return
	}

	var hotel models.Hotel
	if err := storage.DB.First(&hotel, hotelID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Hotel not found", ctx)
		return
	}

	var input RoomTypeInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.BaseOccupancy == 0 {
		input.BaseOccupancy = 2
	}
	if input.MaxOccupancy == 0 {
		input.MaxOccupancy = input.BaseOccupancy + 2
	}
	if input.MaxOccupancy < input.BaseOccupancy {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "maxOccupancy must be at least baseOccupancy", ctx)
		return
	}

	roomType := models.RoomType{
		HotelID:         uint(hotelID),
		Name:            input.Name,
		Description:     input.Description,
		BasePrice:       input.BasePrice,
		TotalUnits:      input.TotalUnits,
		BaseOccupancy:   input.BaseOccupancy,
		MaxOccupancy:    input.MaxOccupancy,
		ExtraAdultPrice: input.ExtraAdultPrice,
		ExtraChildPrice: input.ExtraChildPrice,
	}
	if err := storage.DB.Create(&roomType).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    roomType,
	})
}

type UpdateRoomTypeInput struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	BasePrice       *float64 `json:"basePrice" validate:"omitempty,min=0"`
	TotalUnits      *int     `json:"totalUnits" validate:"omitempty,min=1"`
	BaseOccupancy   *int     `json:"baseOccupancy" validate:"omitempty,min=1"`
	MaxOccupancy    *int     `json:"maxOccupancy" validate:"omitempty,min=1"`
	ExtraAdultPrice *float64 `json:"extraAdultPrice" validate:"omitempty,min=0"`
	ExtraChildPrice *float64 `json:"extraChildPrice" validate:"omitempty,min=0"`
}

func UpdateRoomType(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var roomType models.RoomType
	if err := storage.DB.First(&roomType, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room type not found", ctx)
		return
	}

	var input UpdateRoomTypeInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Name != nil {
		roomType.Name = *input.Name
	}
	if input.Description != nil {
		roomType.Description = *input.Description
	}
	if input.BasePrice != nil {
		roomType.BasePrice = *input.BasePrice
	}
	if input.TotalUnits != nil {
		roomType.TotalUnits = *input.TotalUnits
	}
	if input.BaseOccupancy != nil {
		roomType.BaseOccupancy = *input.BaseOccupancy
	}
	if input.MaxOccupancy != nil {
		roomType.MaxOccupancy = *input.MaxOccupancy
	}
	if input.ExtraAdultPrice != nil {
		roomType.ExtraAdultPrice = *input.ExtraAdultPrice
	}
	if input.ExtraChildPrice != nil {
		roomType.ExtraChildPrice = *input.ExtraChildPrice
	}

	if err := storage.DB.Save(&roomType).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    roomType,
	})
}

// DeactivateRoomType retires a room type. The row stays so historical
// reservations keep their reference; new checks and bookings see
// RoomTypeNotFound.
func DeactivateRoomType(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var roomType models.RoomType
	if err := storage.DB.First(&roomType, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room type not found", ctx)
		return
	}

	inactive := false
	roomType.IsActive = &inactive
	if err := storage.DB.Save(&roomType).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

func GetHotelRoomTypes(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var roomTypes []models.RoomType
	res := storage.DB.Where("hotel_id = ? AND is_active = ?", id, true).Order("id ASC").Find(&roomTypes)
	if res.Error != nil {
		utils.CreateError(iris.StatusInternalServerError, "Error", res.Error.Error(), ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    roomTypes,
	})
}
