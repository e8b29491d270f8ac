package domain

import (
	"errors"
	"iter"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoRecords is returned when the aggregator is given an empty record
// sequence. There is no valid zero-record FlightStats, so this failure is
// fatal to the run.
var ErrNoRecords = errors.New("no records to aggregate")

// FlightStats is the running summary of a flight's normalized observations.
// Temperatures are Kelvin, distance is whole meters. The accumulator is owned
// by a single fold and never shared.
type FlightStats struct {
	MinTemp  decimal.Decimal
	MaxTemp  decimal.Decimal
	MeanTemp decimal.Decimal

	// Observations counts records per observatory display name.
	Observations map[string]int

	// Distance is the cumulative travel distance in meters. Each leg is
	// rounded individually; the running total itself is exact.
	Distance *big.Int

	LastLocation    Location
	NumberOfRecords int64

	ComputedAt time.Time
}

// CalculateFlightStats folds an ordered sequence of normalized records into
// flight statistics, seeded from the first record. Order is significant: the
// mean follows the recurrence mean' = (mean·n + t)/(n+1) and the distance is
// accumulated leg by leg, so reordering the input changes the result. An
// empty sequence returns ErrNoRecords.
func CalculateFlightStats(records iter.Seq[Record]) (*FlightStats, error) {
	var stats *FlightStats
	for rec := range records {
		if stats == nil {
			stats = seedFlightStats(rec)
			continue
		}
		stats.fold(rec)
	}
	if stats == nil {
		return nil, ErrNoRecords
	}
	stats.ComputedAt = clock.Now()
	return stats, nil
}

func seedFlightStats(rec Record) *FlightStats {
	return &FlightStats{
		MinTemp:         rec.Temperature,
		MaxTemp:         rec.Temperature,
		MeanTemp:        rec.Temperature,
		Observations:    map[string]int{rec.Observatory.DisplayName(): 1},
		Distance:        big.NewInt(0),
		LastLocation:    rec.Location,
		NumberOfRecords: 1,
	}
}

func (s *FlightStats) fold(rec Record) {
	s.Observations[rec.Observatory.DisplayName()]++

	if rec.Temperature.LessThan(s.MinTemp) {
		s.MinTemp = rec.Temperature
	}
	if rec.Temperature.GreaterThan(s.MaxTemp) {
		s.MaxTemp = rec.Temperature
	}

	// Incremental mean, not sum-then-divide: the per-step rounding of the
	// recurrence is part of the contract.
	n := decimal.NewFromInt(s.NumberOfRecords)
	s.MeanTemp = s.MeanTemp.Mul(n).Add(rec.Temperature).Div(n.Add(decimal.NewFromInt(1)))

	s.Distance.Add(s.Distance, legDistance(s.LastLocation, rec.Location))
	s.LastLocation = rec.Location
	s.NumberOfRecords++
}

// legDistance is the euclidean distance between two locations, computed in
// floating point and rounded to the nearest whole meter. Only the single leg
// is floating point; accumulation stays in integer arithmetic.
func legDistance(from, to Location) *big.Int {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	rounded := math.Round(math.Sqrt(dx*dx + dy*dy))
	leg, _ := big.NewFloat(rounded).Int(nil)
	return leg
}
