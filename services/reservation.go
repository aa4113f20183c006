package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"hotel-inventory-server/models"
	"hotel-inventory-server/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxCommitAttempts   = 4
	commitBudget        = 3 * time.Second
	backoffBase         = 25 * time.Millisecond
	pendingHoldTTL      = 24 * time.Hour
)

// statusTransitions is the one-directional reservation state machine.
// No transition returns to an earlier state.
var statusTransitions = map[string][]string{
	models.ReservationStatusPending:   {models.ReservationStatusConfirmed, models.ReservationStatusCancelled},
	models.ReservationStatusConfirmed: {models.ReservationStatusCheckedIn, models.ReservationStatusCancelled},
	models.ReservationStatusCheckedIn: {models.ReservationStatusCheckedOut},
}

// ErrInvalidStatusTransition rejects a state-machine move that would go
// backwards or skip a state.
var ErrInvalidStatusTransition = errors.New("invalid reservation status transition")

// CommitInput is a booking request handed to the coordinator.
type CommitInput struct {
	RoomTypeID   uint
	CheckIn      time.Time
	CheckOut     time.Time
	Units        int
	Adults       int
	Children     int
	GuestName    string
	GuestEmail   string
	GuestDetails datatypes.JSON
}

// ReservationService is the only write path into the ledger for
// bookings. Commit re-validates the range and decrements every night
// atomically inside one transaction; a lost race on any night rolls the
// whole attempt back and retries with jittered backoff.
type ReservationService struct {
	db    *gorm.DB
	cache *QuoteCache
	log   *zap.Logger
}

func NewReservationService(db *gorm.DB, cache *QuoteCache) *ReservationService {
	return &ReservationService{db: db, cache: cache, log: zap.L().Named("reservation")}
}

// Commit books units for every night of [checkIn, checkOut), or fails
// without touching anything. Exhausted retries report InsufficientUnits:
// the caller cannot usefully distinguish "sold out" from "lost the race".
func (s *ReservationService) Commit(ctx context.Context, input CommitInput) (*models.Reservation, error) {
	checkIn := utils.DateOnly(input.CheckIn)
	checkOut := utils.DateOnly(input.CheckOut)
	if !checkIn.Before(checkOut) || checkIn.Before(utils.Today()) {
		return nil, ErrInvalidDateRange
	}
	if input.Units < 1 {
		return nil, ErrInvalidDateRange
	}

	deadline := time.Now().Add(commitBudget)
	var lastConflict *concurrentConflictError

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reservation, err := s.tryCommit(input, checkIn, checkOut)
		if err == nil {
			s.cache.Bump(ctx, input.RoomTypeID)
			s.log.Info("reservation committed",
				zap.Uint("roomTypeID", input.RoomTypeID),
				zap.String("bookingRef", reservation.BookingRef),
				zap.Int("units", input.Units))
			return reservation, nil
		}

		if !isConcurrentConflict(err) {
			return nil, err
		}
		errors.As(err, &lastConflict)

		if time.Now().After(deadline) {
			break
		}
		// Jittered backoff before re-reading the ledger.
		sleep := backoffBase<<uint(attempt) + time.Duration(rand.Int63n(int64(backoffBase)))
		s.log.Debug("commit conflict, retrying",
			zap.Uint("roomTypeID", input.RoomTypeID),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", sleep))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}

	date := checkIn
	if lastConflict != nil {
		date = lastConflict.Date
	}
	return nil, &DateRuleError{
		Rule: RuleInsufficientUnits,
		Date: date,
		Msg:  "units no longer available",
	}
}

// tryCommit is a single attempt: validate and decrement inside one
// transaction. Rolling the transaction back undoes every decrement
// already applied, so a partial span is never observable.
func (s *ReservationService) tryCommit(input CommitInput, checkIn, checkOut time.Time) (*models.Reservation, error) {
	var reservation *models.Reservation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger := NewLedgerService(tx)

		roomType, err := ledger.RoomType(input.RoomTypeID)
		if err != nil {
			return err
		}
		if input.Adults+input.Children > roomType.MaxOccupancy*input.Units {
			return ErrOccupancyExceeded
		}

		// Re-run the availability walk inside the transaction; the
		// check-then-act race is exactly what this closes.
		check, err := NewAvailabilityService(ledger).Check(
			input.RoomTypeID, checkIn, checkOut, input.Units, input.Adults, input.Children)
		if err != nil {
			return err
		}
		if check.Violation != nil {
			return check.Violation
		}

		// Nights are touched in ascending date order; the fixed order
		// keeps pessimistic stores deadlock-free.
		for date := checkIn; date.Before(checkOut); date = date.AddDate(0, 0, 1) {
			if err := ledger.EnsureNight(roomType, date); err != nil {
				return err
			}
			result := tx.Model(&models.NightlyRecord{}).
				Where("room_type_id = ? AND date = ? AND available_units >= ?", roomType.ID, date, input.Units).
				Update("available_units", gorm.Expr("available_units - ?", input.Units))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// Someone took the units between the check and this
				// decrement. Roll back and let the caller retry.
				return &concurrentConflictError{Date: date}
			}
		}

		reservation = &models.Reservation{
			BookingRef:   uuid.NewString(),
			RoomTypeID:   roomType.ID,
			CheckIn:      checkIn,
			CheckOut:     checkOut,
			Units:        input.Units,
			Adults:       input.Adults,
			Children:     input.Children,
			GuestName:    input.GuestName,
			GuestEmail:   input.GuestEmail,
			GuestDetails: input.GuestDetails,
			Status:       models.ReservationStatusPending,
			TotalPrice:   check.Quote.TotalPrice(),
			ExpiresAt:    time.Now().Add(pendingHoldTTL),
		}
		return tx.Create(reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// Cancel releases the reservation's units back to every covered night
// and marks it cancelled. Cancelling twice is a no-op, never a double
// credit: the conditional status flip decides exactly one winner.
func (s *ReservationService) Cancel(ctx context.Context, reservationID uint) error {
	var roomTypeID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		if reservation.Status == models.ReservationStatusCancelled {
			return nil
		}
		if reservation.Status != models.ReservationStatusPending &&
			reservation.Status != models.ReservationStatusConfirmed {
			return ErrInvalidStatusTransition
		}

		// Flip the status first, conditionally: if another cancel won
		// the race the update hits zero rows and we credit nothing.
		result := tx.Model(&models.Reservation{}).
			Where("id = ? AND status IN ?", reservation.ID,
				[]string{models.ReservationStatusPending, models.ReservationStatusConfirmed}).
			Update("status", models.ReservationStatusCancelled)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		checkIn := utils.DateOnly(reservation.CheckIn)
		checkOut := utils.DateOnly(reservation.CheckOut)
		for date := checkIn; date.Before(checkOut); date = date.AddDate(0, 0, 1) {
			incr := tx.Model(&models.NightlyRecord{}).
				Where("room_type_id = ? AND date = ?", reservation.RoomTypeID, date).
				Update("available_units", gorm.Expr("available_units + ?", reservation.Units))
			if incr.Error != nil {
				return incr.Error
			}
		}

		roomTypeID = reservation.RoomTypeID
		return nil
	})
	if err != nil {
		return err
	}

	if roomTypeID != 0 {
		s.cache.Bump(ctx, roomTypeID)
		s.log.Info("reservation cancelled", zap.Uint("reservationID", reservationID))
	}
	return nil
}

// CancelByRef cancels by the external booking reference.
func (s *ReservationService) CancelByRef(ctx context.Context, bookingRef string) error {
	var reservation models.Reservation
	err := s.db.Where("booking_ref = ?", bookingRef).First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReservationNotFound
	}
	if err != nil {
		return err
	}
	return s.Cancel(ctx, reservation.ID)
}

// UpdateStatus walks the state machine one step forward.
func (s *ReservationService) UpdateStatus(ctx context.Context, reservationID uint, newStatus string) (*models.Reservation, error) {
	if newStatus == models.ReservationStatusCancelled {
		if err := s.Cancel(ctx, reservationID); err != nil {
			return nil, err
		}
		var reservation models.Reservation
		if err := s.db.First(&reservation, reservationID).Error; err != nil {
			return nil, err
		}
		return &reservation, nil
	}

	var reservation models.Reservation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		allowed := false
		for _, next := range statusTransitions[reservation.Status] {
			if next == newStatus {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidStatusTransition
		}

		reservation.Status = newStatus
		return tx.Model(&reservation).Update("status", newStatus).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ExpirePending cancels pending reservations whose hold has lapsed,
// releasing their units through the same idempotent cancel path.
func (s *ReservationService) ExpirePending(ctx context.Context) (int, error) {
	var expired []models.Reservation
	err := s.db.
		Where("status = ? AND expires_at < ?", models.ReservationStatusPending, time.Now()).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}

	count := 0
	for _, reservation := range expired {
		if err := s.Cancel(ctx, reservation.ID); err != nil {
			s.log.Warn("failed to expire reservation",
				zap.Uint("reservationID", reservation.ID), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}

// ReservedUnits sums the units still held against one night by
// non-cancelled reservations.
func ReservedUnits(tx *gorm.DB, roomTypeID uint, date time.Time) (int, error) {
	date = utils.DateOnly(date)
	var reserved int64
	err := tx.Model(&models.Reservation{}).
		Select("COALESCE(SUM(units), 0)").
		Where("room_type_id = ? AND status IN ? AND check_in <= ? AND check_out > ?",
			roomTypeID, models.ActiveReservationStatuses, date, date).
		Scan(&reserved).Error
	return int(reserved), err
}
