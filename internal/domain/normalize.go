package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativeTemperature marks a record whose normalized temperature falls
// below zero Kelvin. Such records are physically impossible and are dropped
// by the pipeline.
var ErrNegativeTemperature = errors.New("normalized temperature below zero kelvin")

var (
	celsiusOffset    = decimal.RequireFromString("273.15")
	fahrenheitOffset = decimal.RequireFromString("459.67")
	five             = decimal.NewFromInt(5)
	nine             = decimal.NewFromInt(9)
)

// Kelvin converts a temperature from the observatory's native unit to Kelvin.
func (o Observatory) Kelvin(t decimal.Decimal) decimal.Decimal {
	switch o {
	case AU:
		return t.Add(celsiusOffset)
	case US:
		return t.Add(fahrenheitOffset).Mul(five).Div(nine)
	default:
		// FR and unrecognized observatories already report Kelvin.
		return t
	}
}

// Meters converts a single location coordinate from the observatory's native
// unit to meters. The mile conversion uses the integer factor 1609; sub-meter
// precision is not preserved.
func (o Observatory) Meters(v int64) int64 {
	switch o {
	case US:
		return v * 1609
	case FR:
		return v
	default:
		// AU and unrecognized observatories report kilometers.
		return v * 1000
	}
}

// Normalize returns a copy of rec in canonical units: temperature in Kelvin
// and location in meters. It returns ErrNegativeTemperature when the
// converted temperature is below zero Kelvin; callers drop the record and
// continue.
func Normalize(rec Record) (Record, error) {
	k := rec.Observatory.Kelvin(rec.Temperature)
	if k.IsNegative() {
		return Record{}, ErrNegativeTemperature
	}
	rec.Temperature = k
	rec.Location = Location{
		X: rec.Observatory.Meters(rec.Location.X),
		Y: rec.Observatory.Meters(rec.Location.Y),
	}
	return rec, nil
}
