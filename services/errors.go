package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRoomTypeNotFound means the room type id is unknown or the room
	// type has been deactivated.
	ErrRoomTypeNotFound = errors.New("room type not found or inactive")

	// ErrInvalidDateRange means checkIn >= checkOut or a date in the past
	// for a new booking.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrReservationNotFound means the booking id or reference is unknown.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrOccupancyExceeded means the party does not fit the requested
	// units at the room type's maximum occupancy.
	ErrOccupancyExceeded = errors.New("party size exceeds room capacity")

	// ErrConcurrentConflict is surfaced when a bounded write operation
	// ran out of its wall-clock budget while losing optimistic races.
	// It is retryable by the caller; nothing was partially applied.
	ErrConcurrentConflict = errors.New("concurrent conflict, retry the operation")
)

// DateRuleError is a business-rule failure pinned to the first offending
// date, so the caller can explain "no room Dec 24" instead of a generic
// rejection.
type DateRuleError struct {
	Rule string
	Date time.Time
	Msg  string
}

func (e *DateRuleError) Error() string {
	return fmt.Sprintf("%s on %s: %s", e.Rule, e.Date.Format("2006-01-02"), e.Msg)
}

const (
	RuleStopSell          = "stop_sell"
	RuleMinStay           = "min_stay"
	RuleInsufficientUnits = "insufficient_units"
	RuleOverscheduled     = "overscheduled_reduction"
)

func newStopSellViolation(date time.Time) *DateRuleError {
	return &DateRuleError{Rule: RuleStopSell, Date: date, Msg: "sales are closed for this date"}
}

func newMinStayViolation(date time.Time, required, requested int) *DateRuleError {
	return &DateRuleError{
		Rule: RuleMinStay,
		Date: date,
		Msg:  fmt.Sprintf("minimum stay of %d nights required, requested %d", required, requested),
	}
}

func newInsufficientUnits(date time.Time, available, requested int) *DateRuleError {
	return &DateRuleError{
		Rule: RuleInsufficientUnits,
		Date: date,
		Msg:  fmt.Sprintf("%d units available, requested %d", available, requested),
	}
}

func newOverscheduledReduction(date time.Time, reserved, target int) *DateRuleError {
	return &DateRuleError{
		Rule: RuleOverscheduled,
		Date: date,
		Msg:  fmt.Sprintf("%d units already reserved, cannot reduce availability to %d", reserved, target),
	}
}

// AsDateRuleError unwraps err into a DateRuleError, or returns nil.
func AsDateRuleError(err error) *DateRuleError {
	var dre *DateRuleError
	if errors.As(err, &dre) {
		return dre
	}
	return nil
}

// concurrentConflictError marks a lost optimistic-concurrency race. It is
// retried inside the engine and never escapes to a caller: exhausted
// retries degrade to InsufficientUnits, since the caller cannot usefully
// distinguish "sold out" from "lost the race".
type concurrentConflictError struct {
	Date time.Time
}

func (e *concurrentConflictError) Error() string {
	return fmt.Sprintf("concurrent conflict on %s", e.Date.Format("2006-01-02"))
}

func isConcurrentConflict(err error) bool {
	var cce *concurrentConflictError
	return errors.As(err, &cce)
}
