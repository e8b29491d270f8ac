// Package domain models balloon flight weather observations.
//
// # Input Format
//
// Each observation is one pipe-delimited line of UTF-8 text:
//
//	<timestamp>|<x>,<y>|<temperature>|<observatory>
//	e.g. 2014-12-31T13:44|10,5|243|AU
//
// Fields tolerate leading and trailing whitespace, and the timestamp
// additionally tolerates whitespace at its internal token boundaries
// ("2014-12-31T13:  44" is valid). A field is never truncated to a valid
// prefix: trailing unconsumed characters fail the whole field, and any field
// failure, missing field, or extra field fails the whole line.
//
// # Observatory Units
//
// The observatory code determines the units of the raw measurements:
//
//	code   temperature   location
//	AU     celsius       kilometers
//	US     fahrenheit    miles
//	FR     kelvin        meters
//	other  kelvin        kilometers
//
// Codes are matched case-insensitively. Unrecognized alphanumeric codes are
// never an error; they are carried through as open variants so per-code
// observation counts survive aggregation.
//
// # Normalization
//
// [Normalize] converts a parsed record to canonical units: temperature in
// Kelvin, location coordinates in meters. Records whose normalized
// temperature falls below zero Kelvin are physically impossible and are
// rejected with [ErrNegativeTemperature].
//
// # Aggregation
//
// [CalculateFlightStats] folds an ordered sequence of normalized records into
// [FlightStats]. The fold is order-sensitive on purpose: the mean follows the
// incremental recurrence mean' = (mean·n + t)/(n+1), and the travelled
// distance is summed leg by leg with each leg rounded to whole meters before
// it joins the exact integer running total.
package domain
