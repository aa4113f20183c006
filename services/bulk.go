package services

import (
	"context"
	"math/rand"
	"time"

	"hotel-inventory-server/models"
	"hotel-inventory-server/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxBulkAttempts = 4
	bulkBudget      = 5 * time.Second
)

// BulkService applies administrator rate-management revisions across a
// date range: price components, availability overrides, stop-sell flags
// and minimum-stay rules. Upserts are idempotent; re-applying the same
// patch leaves the ledger unchanged.
type BulkService struct {
	db    *gorm.DB
	cache *QuoteCache
	log   *zap.Logger
}

func NewBulkService(db *gorm.DB, cache *QuoteCache) *BulkService {
	return &BulkService{db: db, cache: cache, log: zap.L().Named("bulk")}
}

// Apply upserts the patch onto every night in [checkIn, checkOut) and
// returns the count of nights touched. The whole range applies or none
// of it does.
//
// A patched AvailableUnits value is the night's provisioned unit count:
// the ledger stores it as the override total, with units already held
// by non-cancelled reservations subtracted from the sellable remainder.
// Provisioning below the reserved sum would under-provision booked
// nights and is rejected with the first offending date.
func (s *BulkService) Apply(ctx context.Context, roomTypeID uint, checkIn, checkOut time.Time, patch LedgerPatch) (int, error) {
	checkIn = utils.DateOnly(checkIn)
	checkOut = utils.DateOnly(checkOut)
	if !checkIn.Before(checkOut) {
		return 0, ErrInvalidDateRange
	}
	if patch.AvailableUnits != nil && *patch.AvailableUnits < 0 {
		return 0, ErrInvalidDateRange
	}
	if patch.MinNights != nil && *patch.MinNights < 1 {
		return 0, ErrInvalidDateRange
	}

	deadline := time.Now().Add(bulkBudget)
	nights := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger := NewLedgerService(tx)

		roomType, err := ledger.RoomType(roomTypeID)
		if err != nil {
			return err
		}

		// Ascending date order, same discipline as the commit path.
		for date := checkIn; date.Before(checkOut); date = date.AddDate(0, 0, 1) {
			if err := s.applyNight(tx, ledger, roomType, date, patch, deadline); err != nil {
				return err
			}
			nights++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.cache.Bump(ctx, roomTypeID)
	s.log.Info("bulk revision applied",
		zap.Uint("roomTypeID", roomTypeID),
		zap.String("checkIn", checkIn.Format(utils.DateLayout)),
		zap.String("checkOut", checkOut.Format(utils.DateLayout)),
		zap.Int("nights", nights))
	return nights, nil
}

// applyNight upserts one night, retrying lost optimistic races until
// the wall-clock budget runs out.
func (s *BulkService) applyNight(tx *gorm.DB, ledger *LedgerService, roomType *models.RoomType, date time.Time, patch LedgerPatch, deadline time.Time) error {
	for attempt := 0; attempt < maxBulkAttempts; attempt++ {
		nightPatch := patch

		if patch.AvailableUnits != nil {
			reserved, err := ReservedUnits(tx, roomType.ID, date)
			if err != nil {
				return err
			}
			provisioned := *patch.AvailableUnits
			if provisioned < reserved {
				return newOverscheduledReduction(date, reserved, provisioned)
			}
			sellable := provisioned - reserved
			nightPatch.AvailableUnits = &sellable
			nightPatch.TotalUnits = &provisioned
		}

		err := ledger.Upsert(roomType, date, nightPatch)
		if err == nil {
			return nil
		}
		if !isConcurrentConflict(err) {
			return err
		}
		if time.Now().After(deadline) {
			return ErrConcurrentConflict
		}
		time.Sleep(backoffBase + time.Duration(rand.Int63n(int64(backoffBase))))
	}
	return ErrConcurrentConflict
}
