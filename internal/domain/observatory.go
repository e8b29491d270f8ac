package domain

import "strings"

// Observatory identifies the station network that produced an observation and
// therefore the units its raw measurements use. AU, US and FR are the
// recognized networks; every other alphanumeric code becomes the open variant
// built by [Other]. The zero value is not a valid observatory.
type Observatory struct {
	code string
}

var (
	// AU reports temperature in celsius and location in kilometers.
	AU = Observatory{"AU"}
	// US reports temperature in fahrenheit and location in miles.
	US = Observatory{"US"}
	// FR reports temperature in kelvin and location in meters.
	FR = Observatory{"FR"}
)

// Other returns the open observatory variant for an unrecognized code.
// The code is uppercased, so Other("de") and Other("DE") are equal while
// Other("DE") and Other("RU") are not.
func Other(code string) Observatory {
	return Observatory{strings.ToUpper(code)}
}

// ObservatoryFromCode maps a raw code literal to its Observatory. The mapping
// is case-insensitive and total over alphanumeric literals: anything that is
// not AU, US or FR becomes an open variant.
func ObservatoryFromCode(code string) Observatory {
	switch strings.ToUpper(code) {
	case "AU":
		return AU
	case "US":
		return US
	case "FR":
		return FR
	default:
		return Other(code)
	}
}

// DisplayName returns the code used as the observation-count key in
// [FlightStats].
func (o Observatory) DisplayName() string {
	return o.code
}

func (o Observatory) String() string {
	return o.code
}
