package domain

import "github.com/shopspring/decimal"

// FeeSchedule prices a delivery as a flat base plus a per-kilometre rate.
type FeeSchedule struct {
	Base  decimal.Decimal
	PerKm decimal.Decimal
}

// DefaultFeeSchedule is 4.99 plus 0.75 per kilometre.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Base:  decimal.RequireFromString("4.99"),
		PerKm: decimal.RequireFromString("0.75"),
	}
}

// Quote returns base + perKm * km at full precision. Without a route only the base applies.
func (f FeeSchedule) Quote(distanceMeters int, routed bool) decimal.Decimal {
	if !routed || distanceMeters <= 0 {
		return f.Base
	}
	km := decimal.NewFromInt(int64(distanceMeters)).Div(decimal.NewFromInt(1000))
	return f.Base.Add(f.PerKm.Mul(km))
}
