package services

import (
	"fmt"
	"time"

	"hotel-inventory-server/utils"
)

// AvailabilityCheck is the wire shape of an availability answer. When
// the range is unavailable, Message and Violation name the first
// failing date and the rule it broke; AvailableUnits is the minimum
// across the span, the binding constraint on how many units can be
// booked.
type AvailabilityCheck struct {
	Available         bool           `json:"available"`
	TotalPrice        float64        `json:"total_price"`
	AvailableUnits    int            `json:"available_units"`
	MinNightsRequired int            `json:"min_nights_required"`
	NightlyPrices     []NightlyPrice `json:"nightly_prices"`
	RoomType          string         `json:"room_type"`
	CheckIn           string         `json:"check_in"`
	CheckOut          string         `json:"check_out"`
	Units             int            `json:"units"`
	Message           string         `json:"message,omitempty"`

	// Violation is the first failing rule, for callers that need to
	// convert an unavailable answer into a typed error.
	Violation *DateRuleError `json:"-"`

	// Quote is the pricing pass reused from the validation walk.
	Quote *Quote `json:"-"`
}

// AvailabilityService walks a date range against the ledger and answers
// whether a stay fits. It is a pure read; commitment happens in the
// reservation coordinator, which re-runs this check transactionally.
type AvailabilityService struct {
	ledger  *LedgerService
	pricing *PricingService
}

func NewAvailabilityService(ledger *LedgerService) *AvailabilityService {
	return &AvailabilityService{
		ledger:  ledger,
		pricing: NewPricingService(ledger),
	}
}

// Check validates [checkIn, checkOut) for the requested unit count.
// Business-rule failures are reported in-band on the returned struct;
// the error return is reserved for unknown room types, invalid ranges
// and storage faults.
func (s *AvailabilityService) Check(roomTypeID uint, checkIn, checkOut time.Time, units, adults, children int) (*AvailabilityCheck, error) {
	checkIn = utils.DateOnly(checkIn)
	checkOut = utils.DateOnly(checkOut)
	if !checkIn.Before(checkOut) {
		return nil, ErrInvalidDateRange
	}
	if units < 1 {
		return nil, ErrInvalidDateRange
	}

	roomType, err := s.ledger.RoomType(roomTypeID)
	if err != nil {
		return nil, err
	}

	records, err := s.ledger.ResolveRange(roomType, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	stayLength := utils.NightsBetween(checkIn, checkOut)
	check := &AvailabilityCheck{
		Available: true,
		RoomType:  roomType.Name,
		CheckIn:   checkIn.Format(utils.DateLayout),
		CheckOut:  checkOut.Format(utils.DateLayout),
		Units:     units,
	}

	minAvailable := records[0].AvailableUnits
	maxMinNights := 1
	for _, record := range records {
		if record.AvailableUnits < minAvailable {
			minAvailable = record.AvailableUnits
		}
		if record.MinNights > maxMinNights {
			maxMinNights = record.MinNights
		}

		if check.Violation != nil {
			continue
		}
		switch {
		case record.StopSell:
			check.Violation = newStopSellViolation(record.Date)
		case record.MinNights > stayLength:
			check.Violation = newMinStayViolation(record.Date, record.MinNights, stayLength)
		case record.AvailableUnits < units:
			check.Violation = newInsufficientUnits(record.Date, record.AvailableUnits, units)
		}
	}

	check.AvailableUnits = minAvailable
	check.MinNightsRequired = maxMinNights

	quote := QuoteFromRecords(roomType, records, checkIn, checkOut, units, adults, children)
	check.Quote = quote
	check.NightlyPrices = quote.Nights

	if check.Violation != nil {
		check.Available = false
		check.Message = fmt.Sprintf("not available: %s", check.Violation.Error())
		return check, nil
	}

	check.TotalPrice = quote.TotalPrice()
	return check, nil
}
