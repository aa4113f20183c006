package routes

import (
	"strconv"

	"hotel-inventory-server/services"
	"hotel-inventory-server/storage"
	"hotel-inventory-server/utils"

	"github.com/kataras/iris/v12"
)

// Availability and rate-management routes.

type CheckAvailabilityInput struct {
	HotelID    uint   `json:"hotelId"`
	RoomTypeID uint   `json:"roomTypeId" validate:"required"`
	CheckIn    string `json:"checkIn" validate:"required"`
	CheckOut   string `json:"checkOut" validate:"required"`
	Units      int    `json:"units" validate:"required,min=1"`
	Adults     int    `json:"adults" validate:"min=0"`
	Children   int    `json:"children" validate:"min=0"`
}

type BulkUpdateInput struct {
	RoomTypeID        uint     `json:"roomTypeId" validate:"required"`
	StartDate         string   `json:"startDate" validate:"required"`
	EndDate           string   `json:"endDate" validate:"required"`
	Price             *float64 `json:"price" validate:"omitempty,min=0"`
	SeasonMultiplier  *float64 `json:"seasonMultiplier" validate:"omitempty,min=0"`
	PromotionDiscount *float64 `json:"promotionDiscount" validate:"omitempty,min=0"`
	AvailableUnits    *int     `json:"availableUnits" validate:"omitempty,min=0"`
	StopSell          *bool    `json:"stopSell"`
	MinNights         *int     `json:"minNights" validate:"omitempty,min=1"`
}

func runAvailabilityCheck(ctx iris.Context, input CheckAvailabilityInput) {
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

	cache := services.NewQuoteCache(storage.Redis)
	if cached := cache.GetCheck(ctx.Request().Context(), input.RoomTypeID,
		input.CheckIn, input.CheckOut, input.Units, input.Adults, input.Children); cached != nil {
		ctx.JSON(cached)
		return
	}

	availability := services.NewAvailabilityService(services.NewLedgerService(storage.DB))
	check, err := availability.Check(input.RoomTypeID, checkIn, checkOut, input.Units, input.Adults, input.Children)
	if err != nil {
		handleEngineError(err, ctx)
		return
	}

	cache.SetCheck(ctx.Request().Context(), input.RoomTypeID,
		input.CheckIn, input.CheckOut, input.Units, input.Adults, input.Children, check)
	ctx.JSON(check)
}

// CheckAvailability answers a GET with query parameters.
func CheckAvailability(ctx iris.Context) {
	roomTypeID, err := ctx.URLParamInt("roomTypeId")
	if err != nil || roomTypeID < 1 {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "roomTypeId is required", ctx)
		return
	}

	input := CheckAvailabilityInput{
		RoomTypeID: uint(roomTypeID),
		CheckIn:    ctx.URLParam("checkIn"),
		CheckOut:   ctx.URLParam("checkOut"),
		Units:      ctx.URLParamIntDefault("units", 1),
		Adults:     ctx.URLParamIntDefault("adults", 0),
		Children:   ctx.URLParamIntDefault("children", 0),
	}
	if input.CheckIn == "" || input.CheckOut == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "checkIn and checkOut are required", ctx)
		return
	}
	runAvailabilityCheck(ctx, input)
}

// CheckAvailabilityPost answers the same check from a JSON body.
func CheckAvailabilityPost(ctx iris.Context) {
	var input CheckAvailabilityInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	runAvailabilityCheck(ctx, input)
}

// GetLedgerRange returns the resolved per-night ledger rows for a range,
// defaults filled in, for rate-calendar screens.
func GetLedgerRange(ctx iris.Context) {
	roomTypeIDStr := ctx.Params().Get("roomTypeID")
	roomTypeID, err := strconv.ParseUint(roomTypeIDStr, 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid room type ID", ctx)
		return
	}

	startDate, err := utils.ParseDate(ctx.URLParam("startDate"))
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
		return
	}
	endDate, err := utils.ParseDate(ctx.URLParam("endDate"))
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
		return
	}

	ledger := services.NewLedgerService(storage.DB)
	roomType, err := ledger.RoomType(uint(roomTypeID))
	if err != nil {
		handleEngineError(err, ctx)
		return
	}

	// endDate is inclusive on this endpoint.
	records, err := ledger.ResolveRange(roomType, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		handleEngineError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    records,
	})
}

// BulkUpdateAvailability applies a rate-management patch across a date
// range. endDate is inclusive; the engine's exclusive checkout is one
// day past it.
func BulkUpdateAvailability(ctx iris.Context) {
	var input BulkUpdateInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	startDate, err := utils.ParseDate(input.StartDate)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
		return
	}
	endDate, err := utils.ParseDate(input.EndDate)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
		return
	}

	bulk := services.NewBulkService(storage.DB, services.NewQuoteCache(storage.Redis))
	nights, err := bulk.Apply(ctx.Request().Context(), input.RoomTypeID, startDate, endDate.AddDate(0, 0, 1), services.LedgerPatch{
		Price:             input.Price,
		SeasonMultiplier:  input.SeasonMultiplier,
		PromotionDiscount: input.PromotionDiscount,
		AvailableUnits:    input.AvailableUnits,
		StopSell:          input.StopSell,
		MinNights:         input.MinNights,
	})
	if err != nil {
		handleEngineError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":       true,
		"nightsUpdated": nights,
	})
}
