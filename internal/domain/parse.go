package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const fieldDelimiter = "|"

// ParseLine parses one observation-log line of the form
//
//	<timestamp>|<x>,<y>|<temperature>|<observatory>
//
// The line must split into exactly four fields and every field must parse in
// that fixed order. Failures are per-line and non-fatal: callers skip the
// line and continue with the next one.
func ParseLine(raw string) (Record, error) {
	fields := strings.Split(raw, fieldDelimiter)
	if len(fields) != 4 {
		return Record{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}

	ts, err := parseTimestamp(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("parse timestamp: %w", err)
	}
	loc, err := parseLocation(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("parse location: %w", err)
	}
	temp, err := parseTemperature(fields[2])
	if err != nil {
		return Record{}, fmt.Errorf("parse temperature: %w", err)
	}
	obs, err := parseObservatory(fields[3])
	if err != nil {
		return Record{}, fmt.Errorf("parse observatory: %w", err)
	}

	return Record{
		Timestamp:   ts,
		Location:    loc,
		Temperature: temp,
		Observatory: obs,
	}, nil
}

// fieldScanner walks a single delimiter-separated field byte by byte. Field
// parsers built on it must consume the whole field; trailing unconsumed
// characters are a failure, never a truncation.
type fieldScanner struct {
	s   string
	pos int
}

func (sc *fieldScanner) skipSpaces() {
	for sc.pos < len(sc.s) && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *fieldScanner) expect(c byte) error {
	if sc.pos >= len(sc.s) || sc.s[sc.pos] != c {
		return fmt.Errorf("expected %q at offset %d", string(c), sc.pos)
	}
	sc.pos++
	return nil
}

func (sc *fieldScanner) peek(c byte) bool {
	return sc.pos < len(sc.s) && sc.s[sc.pos] == c
}

// digits consumes between minLen and maxLen consecutive digits and returns
// their integer value.
func (sc *fieldScanner) digits(minLen, maxLen int) (int, error) {
	start := sc.pos
	for sc.pos < len(sc.s) && sc.pos-start < maxLen && isDigit(sc.s[sc.pos]) {
		sc.pos++
	}
	if sc.pos-start < minLen {
		return 0, fmt.Errorf("expected digits at offset %d", start)
	}
	return strconv.Atoi(sc.s[start:sc.pos])
}

// signedInt consumes an optional sign followed by digits as an int64.
func (sc *fieldScanner) signedInt() (int64, error) {
	start := sc.pos
	if sc.peek('+') || sc.peek('-') {
		sc.pos++
	}
	digitsStart := sc.pos
	for sc.pos < len(sc.s) && isDigit(sc.s[sc.pos]) {
		sc.pos++
	}
	if sc.pos == digitsStart {
		return 0, fmt.Errorf("expected integer at offset %d", start)
	}
	v, err := strconv.ParseInt(sc.s[start:sc.pos], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("integer out of range: %w", err)
	}
	return v, nil
}

func (sc *fieldScanner) end() error {
	if sc.pos != len(sc.s) {
		return fmt.Errorf("trailing content %q", sc.s[sc.pos:])
	}
	return nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseTimestamp parses a local date-time such as "2014-12-31T13:44", with an
// optional seconds component. Whitespace is tolerated around the field and at
// the token boundaries inside it, so "2014-12-31T13:  44" still parses. The
// calendar is validated strictly: real month and day (including leap years),
// hour 0-23, minute 0-59, second 0-59. Leap seconds are not supported.
func parseTimestamp(field string) (time.Time, error) {
	sc := &fieldScanner{s: field}
	sc.skipSpaces()

	year, err := sc.digits(4, 4)
	if err != nil {
		return time.Time{}, fmt.Errorf("year: %w", err)
	}
	sc.skipSpaces()
	if err := sc.expect('-'); err != nil {
		return time.Time{}, err
	}
	sc.skipSpaces()
	month, err := sc.digits(1, 2)
	if err != nil {
		return time.Time{}, fmt.Errorf("month: %w", err)
	}
	sc.skipSpaces()
	if err := sc.expect('-'); err != nil {
		return time.Time{}, err
	}
	sc.skipSpaces()
	day, err := sc.digits(1, 2)
	if err != nil {
		return time.Time{}, fmt.Errorf("day: %w", err)
	}
	sc.skipSpaces()
	if err := sc.expect('T'); err != nil {
		return time.Time{}, err
	}
	sc.skipSpaces()
	hour, err := sc.digits(1, 2)
	if err != nil {
		return time.Time{}, fmt.Errorf("hour: %w", err)
	}
	sc.skipSpaces()
	if err := sc.expect(':'); err != nil {
		return time.Time{}, err
	}
	sc.skipSpaces()
	minute, err := sc.digits(1, 2)
	if err != nil {
		return time.Time{}, fmt.Errorf("minute: %w", err)
	}

	second := 0
	sc.skipSpaces()
	if sc.peek(':') {
		sc.pos++
		sc.skipSpaces()
		second, err = sc.digits(1, 2)
		if err != nil {
			return time.Time{}, fmt.Errorf("second: %w", err)
		}
		sc.skipSpaces()
	}
	if err := sc.end(); err != nil {
		return time.Time{}, err
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	if day < 1 || day > daysInMonth(year, month) {
		return time.Time{}, fmt.Errorf("day %d out of range for %04d-%02d", day, year, month)
	}
	if hour > 23 {
		return time.Time{}, fmt.Errorf("hour %d out of range", hour)
	}
	if minute > 59 {
		return time.Time{}, fmt.Errorf("minute %d out of range", minute)
	}
	if second > 59 {
		return time.Time{}, fmt.Errorf("second %d out of range", second)
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

func daysInMonth(year, month int) int {
	switch time.Month(month) {
	case time.April, time.June, time.September, time.November:
		return 30
	case time.February:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

// parseLocation parses "<x>,<y>" with both coordinates signed 64-bit
// integers. Whitespace is tolerated around each coordinate and the comma.
func parseLocation(field string) (Location, error) {
	sc := &fieldScanner{s: field}
	sc.skipSpaces()
	x, err := sc.signedInt()
	if err != nil {
		return Location{}, fmt.Errorf("x: %w", err)
	}
	sc.skipSpaces()
	if err := sc.expect(','); err != nil {
		return Location{}, err
	}
	sc.skipSpaces()
	y, err := sc.signedInt()
	if err != nil {
		return Location{}, fmt.Errorf("y: %w", err)
	}
	sc.skipSpaces()
	if err := sc.end(); err != nil {
		return Location{}, err
	}
	return Location{X: x, Y: y}, nil
}

// parseTemperature parses a signed integer temperature in the observatory's
// native unit. Only surrounding whitespace is tolerated; whitespace splitting
// the digits ("1  2") fails.
func parseTemperature(field string) (decimal.Decimal, error) {
	sc := &fieldScanner{s: field}
	sc.skipSpaces()
	v, err := sc.signedInt()
	if err != nil {
		return decimal.Decimal{}, err
	}
	sc.skipSpaces()
	if err := sc.end(); err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromInt(v), nil
}

// parseObservatory parses a single alphanumeric observatory code and maps it
// through [ObservatoryFromCode]. Unknown codes are not an error; empty input
// and multi-token input are.
func parseObservatory(field string) (Observatory, error) {
	sc := &fieldScanner{s: field}
	sc.skipSpaces()
	start := sc.pos
	for sc.pos < len(sc.s) && isAlnum(sc.s[sc.pos]) {
		sc.pos++
	}
	if sc.pos == start {
		return Observatory{}, errors.New("expected observatory code")
	}
	code := sc.s[start:sc.pos]
	sc.skipSpaces()
	if err := sc.end(); err != nil {
		return Observatory{}, err
	}
	return ObservatoryFromCode(code), nil
}
