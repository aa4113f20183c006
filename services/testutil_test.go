package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"hotel-inventory-server/models"
	"hotel-inventory-server/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// newTestDB opens an isolated in-memory database. The pool is pinned to
// a single connection so the shared-cache database survives for the
// whole test and concurrent goroutines serialize at the driver instead
// of failing with lock errors.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:engine_test_%d?mode=memory&cache=shared&_busy_timeout=5000", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Hotel{},
		&models.RoomType{},
		&models.NightlyRecord{},
		&models.Reservation{},
	))
	return db
}

func createRoomType(t *testing.T, db *gorm.DB, totalUnits int, basePrice float64) *models.RoomType {
	t.Helper()

	hotel := models.Hotel{Name: "Test Hotel", Currency: "USD"}
	require.NoError(t, db.Create(&hotel).Error)

	roomType := models.RoomType{
		HotelID:         hotel.ID,
		Name:            "Deluxe Double",
		BasePrice:       basePrice,
		TotalUnits:      totalUnits,
		BaseOccupancy:   2,
		MaxOccupancy:    4,
		ExtraAdultPrice: 50,
		ExtraChildPrice: 25,
	}
	require.NoError(t, db.Create(&roomType).Error)
	return &roomType
}

func date(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// futureDate returns a date safely in the future, offset in days from
// 30 days out, so commit's past-date guard never interferes.
func futureDate(offset int) time.Time {
	return utils.Today().AddDate(0, 0, 30+offset)
}

// assertConservation checks the ledger invariant for one night:
// available units plus units held by non-cancelled reservations equal
// the night's total.
func assertConservation(t *testing.T, db *gorm.DB, roomType *models.RoomType, night time.Time) {
	t.Helper()

	record, err := NewLedgerService(db).GetOrDefault(roomType.ID, night)
	require.NoError(t, err)

	reserved, err := ReservedUnits(db, roomType.ID, night)
	require.NoError(t, err)

	require.Equal(t, record.TotalUnits, record.AvailableUnits+reserved,
		"conservation violated on %s", night.Format(utils.DateLayout))
}
