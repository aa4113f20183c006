package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hotel-inventory-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCoordinator(db *gorm.DB) *ReservationService {
	return NewReservationService(db, NewQuoteCache(nil))
}

func commitInput(roomType *models.RoomType, checkIn, checkOut time.Time, units int) CommitInput {
	return CommitInput{
		RoomTypeID: roomType.ID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Units:      units,
		Adults:     2,
		GuestName:  "Ada Guest",
		GuestEmail: "ada@example.com",
	}
}

func TestCommitDecrementsEveryNight(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 2, 1000)
	coordinator := newCoordinator(db)

	checkIn, checkOut := futureDate(0), futureDate(3)
	reservation, err := coordinator.Commit(context.Background(), commitInput(roomType, checkIn, checkOut, 2))
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusPending, reservation.Status)
	assert.Equal(t, 6000.0, reservation.TotalPrice)
	assert.NotEmpty(t, reservation.BookingRef)

	ledger := NewLedgerService(db)
	for night := checkIn; night.Before(checkOut); night = night.AddDate(0, 0, 1) {
		record, err := ledger.GetOrDefault(roomType.ID, night)
		require.NoError(t, err)
		assert.Equal(t, 0, record.AvailableUnits)
		assertConservation(t, db, roomType, night)
	}
}

func TestCommitFailsWhenUnitsTaken(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 2, 1000)
	coordinator := newCoordinator(db)

	checkIn, checkOut := futureDate(0), futureDate(3)
	_, err := coordinator.Commit(context.Background(), commitInput(roomType, checkIn, checkOut, 2))
	require.NoError(t, err)

	_, err = coordinator.Commit(context.Background(), commitInput(roomType, checkIn, checkOut, 1))
	rule := AsDateRuleError(err)
	require.NotNil(t, rule, "expected a dated rule error, got %v", err)
	assert.Equal(t, RuleInsufficientUnits, rule.Rule)

	// The failed attempt must not have touched any night.
	for night := checkIn; night.Before(checkOut); night = night.AddDate(0, 0, 1) {
		assertConservation(t, db, roomType, night)
	}
}

func TestCommitPartialOverlapRollsBack(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 1, 500)
	coordinator := newCoordinator(db)

	// Book the middle night only, then attempt a span crossing it.
	_, err := coordinator.Commit(context.Background(), commitInput(roomType, futureDate(1), futureDate(2), 1))
	require.NoError(t, err)

	_, err = coordinator.Commit(context.Background(), commitInput(roomType, futureDate(0), futureDate(3), 1))
	rule := AsDateRuleError(err)
	require.NotNil(t, rule)
	assert.Equal(t, RuleInsufficientUnits, rule.Rule)

	// First and last nights must still be fully available.
	ledger := NewLedgerService(db)
	for _, offset := range []int{0, 2} {
		record, err := ledger.GetOrDefault(roomType.ID, futureDate(offset))
		require.NoError(t, err)
		assert.Equal(t, 1, record.AvailableUnits)
	}
}

func TestCommitNoOversellUnderContention(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 1, 100)
	coordinator := newCoordinator(db)

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = coordinator.Commit(context.Background(),
				commitInput(roomType, futureDate(0), futureDate(2), 1))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		rule := AsDateRuleError(err)
		require.NotNil(t, rule, "loser should see insufficient units, got %v", err)
		assert.Equal(t, RuleInsufficientUnits, rule.Rule)
	}
	assert.Equal(t, 1, winners, "exactly one contender may win the last unit")

	for night := futureDate(0); night.Before(futureDate(2)); night = night.AddDate(0, 0, 1) {
		assertConservation(t, db, roomType, night)
	}
}

func TestCommitRejectsPastAndInvalidRanges(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 2, 100)
	coordinator := newCoordinator(db)

	_, err := coordinator.Commit(context.Background(),
		commitInput(roomType, date("2020-01-01"), date("2020-01-03"), 1))
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = coordinator.Commit(context.Background(),
		commitInput(roomType, futureDate(3), futureDate(0), 1))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestCommitRejectsOversizedParty(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 2, 100)
	coordinator := newCoordinator(db)

	input := commitInput(roomType, futureDate(0), futureDate(2), 1)
	input.Adults = 4
	input.Children = 3 // 7 people into one unit with max occupancy 4
	_, err := coordinator.Commit(context.Background(), input)
	assert.ErrorIs(t, err, ErrOccupancyExceeded)
}

func TestCancelRestoresEveryNight(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 2, 1000)
	coordinator := newCoordinator(db)

	checkIn, checkOut := futureDate(0), futureDate(3)
	reservation, err := coordinator.Commit(context.Background(), commitInput(roomType, checkIn, checkOut, 2))
	require.NoError(t, err)

	require.NoError(t, coordinator.Cancel(context.Background(), reservation.ID))

	ledger := NewLedgerService(db)
	for night := checkIn; night.Before(checkOut); night = night.AddDate(0, 0, 1) {
		record, err := ledger.GetOrDefault(roomType.ID, night)
		require.NoError(t, err)
		assert.Equal(t, 2, record.AvailableUnits)
		assertConservation(t, db, roomType, night)
	}

	var reloaded models.Reservation
	require.NoError(t, db.First(&reloaded, reservation.ID).Error)
	assert.Equal(t, models.ReservationStatusCancelled, reloaded.Status)
}

func TestCancelIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 2, 1000)
	coordinator := newCoordinator(db)

	reservation, err := coordinator.Commit(context.Background(),
		commitInput(roomType, futureDate(0), futureDate(2), 1))
	require.NoError(t, err)

	require.NoError(t, coordinator.Cancel(context.Background(), reservation.ID))
	require.NoError(t, coordinator.Cancel(context.Background(), reservation.ID))

	// Double cancel must not double-credit.
	record, err := NewLedgerService(db).GetOrDefault(roomType.ID, futureDate(0))
	require.NoError(t, err)
	assert.Equal(t, 2, record.AvailableUnits)
}

func TestCancelUnknownReservation(t *testing.T) {
	db := newTestDB(t)
	coordinator := newCoordinator(db)
	assert.ErrorIs(t, coordinator.Cancel(context.Background(), 424242), ErrReservationNotFound)
}

func TestStatusMachineIsOneDirectional(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 2, 100)
	coordinator := newCoordinator(db)

	reservation, err := coordinator.Commit(context.Background(),
		commitInput(roomType, futureDate(0), futureDate(2), 1))
	require.NoError(t, err)

	// pending -> checked_in skips a state.
	_, err = coordinator.UpdateStatus(context.Background(), reservation.ID, models.ReservationStatusCheckedIn)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	updated, err := coordinator.UpdateStatus(context.Background(), reservation.ID, models.ReservationStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, updated.Status)

	updated, err = coordinator.UpdateStatus(context.Background(), reservation.ID, models.ReservationStatusCheckedIn)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCheckedIn, updated.Status)

	// checked_in can no longer cancel.
	assert.ErrorIs(t, coordinator.Cancel(context.Background(), reservation.ID), ErrInvalidStatusTransition)

	updated, err = coordinator.UpdateStatus(context.Background(), reservation.ID, models.ReservationStatusCheckedOut)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCheckedOut, updated.Status)

	// checked_out is terminal.
	_, err = coordinator.UpdateStatus(context.Background(), reservation.ID, models.ReservationStatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestExpirePendingReleasesUnits(t *testing.T) {
	db := newTestDB(t)
	roomType := createRoomType(t, db, 2, 100)
	coordinator := newCoordinator(db)

	reservation, err := coordinator.Commit(context.Background(),
		commitInput(roomType, futureDate(0), futureDate(2), 2))
	require.NoError(t, err)

	// Age the hold past its expiry.
	require.NoError(t, db.Model(&models.Reservation{}).
		Where("id = ?", reservation.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	expired, err := coordinator.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	record, err := NewLedgerService(db).GetOrDefault(roomType.ID, futureDate(0))
	require.NoError(t, err)
	assert.Equal(t, 2, record.AvailableUnits)

	// Confirmed reservations are not swept.
	confirmed, err := coordinator.Commit(context.Background(),
		commitInput(roomType, futureDate(0), futureDate(2), 1))
	require.NoError(t, err)
	_, err = coordinator.UpdateStatus(context.Background(), confirmed.ID, models.ReservationStatusConfirmed)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Reservation{}).
		Where("id = ?", confirmed.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	expired, err = coordinator.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
}
