package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotel-inventory-server/models"
	"hotel-inventory-server/storage"
	"hotel-inventory-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// buildTestApp wires the engine routes onto a fresh in-memory database.
func buildTestApp(t *testing.T) *iris.Application {
	t.Helper()

	dsn := fmt.Sprintf("file:routes_%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Hotel{}, &models.RoomType{}, &models.NightlyRecord{}, &models.Reservation{}))
	storage.DB = db

	app := iris.New()
	app.Validator = validator.New()

	availability := app.Party("/api/availability")
	{
		availability.Get("/check", CheckAvailability)
		availability.Post("/check", CheckAvailabilityPost)
		availability.Post("/bulk", BulkUpdateAvailability)
	}
	booking := app.Party("/api/booking")
	{
		booking.Post("/", CreateBooking)
		booking.Post("/{id}/cancel", CancelBooking)
	}
	require.NoError(t, app.Build())
	return app
}

func futureDateStr(offset int) string {
	return utils.Today().AddDate(0, 0, 30+offset).Format(utils.DateLayout)
}

func seedRoomType(t *testing.T) *models.RoomType {
	t.Helper()

	hotel := models.Hotel{Name: "Harbor View", Currency: "USD"}
	require.NoError(t, storage.DB.Create(&hotel).Error)
	roomType := models.RoomType{
		HotelID:       hotel.ID,
		Name:          "Deluxe Double",
		BasePrice:     1000,
		TotalUnits:    2,
		BaseOccupancy: 2,
		MaxOccupancy:  4,
	}
	require.NoError(t, storage.DB.Create(&roomType).Error)
	return &roomType
}

func TestCheckAvailabilityEndpoint(t *testing.T) {
	app := buildTestApp(t)
	roomType := seedRoomType(t)

	url := fmt.Sprintf("/api/availability/check?roomTypeId=%d&checkIn=2026-10-01&checkOut=2026-10-04&units=2", roomType.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Available      bool    `json:"available"`
		TotalPrice     float64 `json:"total_price"`
		AvailableUnits int     `json:"available_units"`
		NightlyPrices  []struct {
			Date       string  `json:"date"`
			FinalPrice float64 `json:"final_price"`
		} `json:"nightly_prices"`
		RoomType string `json:"room_type"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.True(t, body.Available)
	assert.Equal(t, 6000.0, body.TotalPrice)
	assert.Equal(t, 2, body.AvailableUnits)
	assert.Len(t, body.NightlyPrices, 3)
	assert.Equal(t, "Deluxe Double", body.RoomType)
}

func TestCheckAvailabilityEndpointRejectsMissingParams(t *testing.T) {
	app := buildTestApp(t)
	seedRoomType(t)

	req := httptest.NewRequest(http.MethodGet, "/api/availability/check?roomTypeId=1", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBulkEndpointThenCheckReportsStopSell(t *testing.T) {
	app := buildTestApp(t)
	roomType := seedRoomType(t)

	payload, _ := json.Marshal(iris.Map{
		"roomTypeId": roomType.ID,
		"startDate":  "2025-12-24",
		"endDate":    "2025-12-26",
		"stopSell":   true,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/availability/bulk", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var bulkBody struct {
		Success       bool `json:"success"`
		NightsUpdated int  `json:"nightsUpdated"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &bulkBody))
	assert.True(t, bulkBody.Success)
	assert.Equal(t, 3, bulkBody.NightsUpdated)

	url := fmt.Sprintf("/api/availability/check?roomTypeId=%d&checkIn=2025-12-25&checkOut=2025-12-27&units=1", roomType.ID)
	req = httptest.NewRequest(http.MethodGet, url, nil)
	resp = httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var check struct {
		Available bool   `json:"available"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &check))
	assert.False(t, check.Available)
	assert.Contains(t, check.Message, "2025-12-25")
}

func TestCreateAndCancelBookingEndpoints(t *testing.T) {
	app := buildTestApp(t)
	roomType := seedRoomType(t)

	checkIn := futureDateStr(0)
	checkOut := futureDateStr(3)

	payload, _ := json.Marshal(iris.Map{
		"roomTypeId": roomType.ID,
		"guestName":  "Ada Guest",
		"guestEmail": "ada@example.com",
		"checkIn":    checkIn,
		"checkOut":   checkOut,
		"adults":     2,
		"units":      2,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/booking", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created struct {
		Success    bool    `json:"success"`
		BookingID  uint    `json:"bookingId"`
		TotalPrice float64 `json:"totalPrice"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, 6000.0, created.TotalPrice)
	require.NotZero(t, created.BookingID)

	// Booking the same range again must conflict.
	req = httptest.NewRequest(http.MethodPost, "/api/booking", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())

	// Cancel frees the units and a re-book succeeds.
	cancelURL := fmt.Sprintf("/api/booking/%d/cancel", created.BookingID)
	req = httptest.NewRequest(http.MethodPost, cancelURL, nil)
	resp = httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/booking", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
