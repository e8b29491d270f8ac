package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location is an integer coordinate pair. Its units depend on the pipeline
// stage: observatory-native before normalization, meters after.
type Location struct {
	X int64
	Y int64
}

// Record is a single weather observation from a balloon flight log. Records
// are created only by [ParseLine]; [Normalize] derives a new Record in
// canonical units. A raw record and a normalized one must never be mixed in
// the same pipeline stage.
type Record struct {
	Timestamp   time.Time
	Location    Location
	Temperature decimal.Decimal
	Observatory Observatory
}
