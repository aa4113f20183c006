package services

import (
	"time"

	"hotel-inventory-server/models"
	"hotel-inventory-server/utils"

	"github.com/shopspring/decimal"
)

// NightlyPrice is the per-night line of a quote.
type NightlyPrice struct {
	Date              string  `json:"date"`
	BasePrice         float64 `json:"base_price"`
	SeasonMultiplier  float64 `json:"season_multiplier"`
	PromotionDiscount float64 `json:"promotion_discount"`
	FinalPrice        float64 `json:"final_price"`
	MinNights         int     `json:"min_nights"`
}

// Quote is an ephemeral price breakdown for one stay. It is computed on
// demand and never persisted; the total is rounded exactly once,
// half-up, after all nights and surcharges are summed.
type Quote struct {
	RoomTypeID     uint
	CheckIn        time.Time
	CheckOut       time.Time
	Units          int
	Nights         []NightlyPrice
	NightsSubtotal decimal.Decimal
	AdultSurcharge decimal.Decimal
	ChildSurcharge decimal.Decimal
	Total          decimal.Decimal
}

// TotalPrice is the rounded grand total as a plain number.
func (q *Quote) TotalPrice() float64 {
	return q.Total.InexactFloat64()
}

// PricingService derives nightly rates and trip totals from the ledger.
// It is a stateless read path; quotes are advisory and carry no
// commitment against inventory.
type PricingService struct {
	ledger *LedgerService
}

func NewPricingService(ledger *LedgerService) *PricingService {
	return &PricingService{ledger: ledger}
}

// Price quotes a stay of [checkIn, checkOut) for the given unit count
// and occupancy. Zero-night ranges are never priced.
func (s *PricingService) Price(roomTypeID uint, checkIn, checkOut time.Time, units, adults, children int) (*Quote, error) {
	if !utils.DateOnly(checkIn).Before(utils.DateOnly(checkOut)) {
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

	return QuoteFromRecords(roomType, records, checkIn, checkOut, units, adults, children), nil
}

// QuoteFromRecords builds a quote from already-resolved ledger rows, so
// the availability check can price the same pass it validates.
func QuoteFromRecords(roomType *models.RoomType, records []models.NightlyRecord, checkIn, checkOut time.Time, units, adults, children int) *Quote {
	quote := &Quote{
		RoomTypeID: roomType.ID,
		CheckIn:    utils.DateOnly(checkIn),
		CheckOut:   utils.DateOnly(checkOut),
		Units:      units,
		Nights:     make([]NightlyPrice, 0, len(records)),
	}

	unitsDec := decimal.NewFromInt(int64(units))
	subtotal := decimal.Zero
	for _, record := range records {
		rate := NightlyRate(record.BasePrice, record.SeasonMultiplier, record.PromotionDiscount)
		subtotal = subtotal.Add(rate.Mul(unitsDec))
		quote.Nights = append(quote.Nights, NightlyPrice{
			Date:              record.Date.Format(utils.DateLayout),
			BasePrice:         record.BasePrice,
			SeasonMultiplier:  record.SeasonMultiplier,
			PromotionDiscount: record.PromotionDiscount,
			FinalPrice:        rate.InexactFloat64(),
			MinNights:         record.MinNights,
		})
	}
	quote.NightsSubtotal = subtotal

	nights := decimal.NewFromInt(int64(len(records)))

	// Extra-adult surcharge applies only beyond the base occupancy;
	// children are always surcharged per head.
	adultSurcharge := decimal.Zero
	if adults > roomType.BaseOccupancy {
		adultSurcharge = decimal.NewFromInt(int64(adults - roomType.BaseOccupancy)).
			Mul(decimal.NewFromFloat(roomType.ExtraAdultPrice)).
			Mul(nights).
			Mul(unitsDec)
	}
	childSurcharge := decimal.Zero
	if children > 0 {
		childSurcharge = decimal.NewFromInt(int64(children)).
			Mul(decimal.NewFromFloat(roomType.ExtraChildPrice)).
			Mul(nights).
			Mul(unitsDec)
	}
	quote.AdultSurcharge = adultSurcharge
	quote.ChildSurcharge = childSurcharge

	// Single rounding point: half-up at the grand total.
	quote.Total = subtotal.Add(adultSurcharge).Add(childSurcharge).Round(2)
	return quote
}
