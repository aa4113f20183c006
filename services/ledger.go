package services

import (
	"errors"
	"time"

	"hotel-inventory-server/models"
	"hotel-inventory-server/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns the per-(room type, date) inventory ledger. A date
// with no stored row resolves to the room type's defaults: TotalUnits
// available at BasePrice, open for sale, minimum stay of one night.
// Upserts are the only way a date deviates from those defaults.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// LedgerPatch is a partial update to one night. Nil fields are left
// untouched on existing rows and filled from defaults on new rows.
type LedgerPatch struct {
	Price             *float64
	SeasonMultiplier  *float64
	PromotionDiscount *float64
	AvailableUnits    *int
	TotalUnits        *int
	StopSell          *bool
	MinNights         *int
}

// RoomType loads an active room type or reports ErrRoomTypeNotFound.
func (s *LedgerService) RoomType(roomTypeID uint) (*models.RoomType, error) {
	var roomType models.RoomType
	err := s.db.First(&roomType, roomTypeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	if roomType.IsActive != nil && !*roomType.IsActive {
		return nil, ErrRoomTypeNotFound
	}
	return &roomType, nil
}

// DefaultRecord synthesizes the implicit ledger row for a date with no
// stored record.
func DefaultRecord(roomType *models.RoomType, date time.Time) models.NightlyRecord {
	return models.NightlyRecord{
		RoomTypeID:       roomType.ID,
		Date:             utils.DateOnly(date),
		TotalUnits:       roomType.TotalUnits,
		AvailableUnits:   roomType.TotalUnits,
		BasePrice:        roomType.BasePrice,
		SeasonMultiplier: 1,
		FinalPrice:       roomType.BasePrice,
		StopSell:         false,
		MinNights:        1,
	}
}

// GetOrDefault returns the stored record for one night, or the
// synthesized default when no row exists.
func (s *LedgerService) GetOrDefault(roomTypeID uint, date time.Time) (*models.NightlyRecord, error) {
	roomType, err := s.RoomType(roomTypeID)
	if err != nil {
		return nil, err
	}

	var record models.NightlyRecord
	err = s.db.Where("room_type_id = ? AND date = ?", roomTypeID, utils.DateOnly(date)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaulted := DefaultRecord(roomType, date)
		return &defaulted, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ResolveRange returns one record per night in [checkIn, checkOut),
// ascending, with defaults filled in for nights that have no stored
// row. One query per span, not one per night.
func (s *LedgerService) ResolveRange(roomType *models.RoomType, checkIn, checkOut time.Time) ([]models.NightlyRecord, error) {
	checkIn = utils.DateOnly(checkIn)
	checkOut = utils.DateOnly(checkOut)

	var stored []models.NightlyRecord
	err := s.db.
		Where("room_type_id = ? AND date >= ? AND date < ?", roomType.ID, checkIn, checkOut).
		Order("date ASC").
		Find(&stored).Error
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]models.NightlyRecord, len(stored))
	for _, record := range stored {
		byDate[utils.DateOnly(record.Date)] = record
	}

	nights := make([]models.NightlyRecord, 0, utils.NightsBetween(checkIn, checkOut))
	for date := checkIn; date.Before(checkOut); date = date.AddDate(0, 0, 1) {
		if record, ok := byDate[date]; ok {
			nights = append(nights, record)
		} else {
			nights = append(nights, DefaultRecord(roomType, date))
		}
	}
	return nights, nil
}

// EnsureNight creates the default row for a date if absent, leaving an
// existing row untouched. Callers that need to mutate a night call this
// first so the conditional update always has a row to hit.
func (s *LedgerService) EnsureNight(roomType *models.RoomType, date time.Time) error {
	record := DefaultRecord(roomType, date)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_type_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(&record).Error
}

// Upsert applies a partial update to one night, creating the row from
// defaults first when absent. The available-units field is guarded by
// an optimistic compare on the read-time value; a lost race reports a
// concurrent conflict for the caller to retry.
func (s *LedgerService) Upsert(roomType *models.RoomType, date time.Time, patch LedgerPatch) error {
	date = utils.DateOnly(date)

	if err := s.EnsureNight(roomType, date); err != nil {
		return err
	}

	var record models.NightlyRecord
	if err := s.db.Where("room_type_id = ? AND date = ?", roomType.ID, date).First(&record).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{}

	basePrice := record.BasePrice
	multiplier := record.SeasonMultiplier
	discount := record.PromotionDiscount
	repriced := false

	if patch.Price != nil {
		basePrice = *patch.Price
		updates["base_price"] = basePrice
		repriced = true
	}
	if patch.SeasonMultiplier != nil {
		multiplier = *patch.SeasonMultiplier
		updates["season_multiplier"] = multiplier
		repriced = true
	}
	if patch.PromotionDiscount != nil {
		discount = *patch.PromotionDiscount
		updates["promotion_discount"] = discount
		repriced = true
	}
	if repriced {
		updates["final_price"] = NightlyRate(basePrice, multiplier, discount).InexactFloat64()
	}
	if patch.StopSell != nil {
		updates["stop_sell"] = *patch.StopSell
	}
	if patch.MinNights != nil {
		updates["min_nights"] = *patch.MinNights
	}
	if patch.AvailableUnits != nil {
		updates["available_units"] = *patch.AvailableUnits
	}
	if patch.TotalUnits != nil {
		updates["total_units"] = *patch.TotalUnits
	}

	if len(updates) == 0 {
		return nil
	}

	// Compare on the read-time available_units so a booking that lands
	// between our read and this write fails the update instead of being
	// silently overwritten.
	result := s.db.Model(&models.NightlyRecord{}).
		Where("room_type_id = ? AND date = ? AND available_units = ?", roomType.ID, date, record.AvailableUnits).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &concurrentConflictError{Date: date}
	}
	return nil
}

// NightlyRate computes a night's sell rate from its components:
// base price x season multiplier - promotion discount, floored at zero.
func NightlyRate(basePrice, seasonMultiplier, promotionDiscount float64) decimal.Decimal {
	rate := decimal.NewFromFloat(basePrice).
		Mul(decimal.NewFromFloat(seasonMultiplier)).
		Sub(decimal.NewFromFloat(promotionDiscount))
	if rate.IsNegative() {
		return decimal.Zero
	}
	return rate
}
