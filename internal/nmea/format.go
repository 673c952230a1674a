package nmea

import (
	"fmt"
	"math"
	"strconv"
)

// CoordFormat selects the human-readable coordinate style.
type CoordFormat string

const (
	// FormatDDM renders degrees and decimal minutes: 40° 26.767' N.
	FormatDDM CoordFormat = "ddm"
	// FormatDD renders decimal degrees: 40.446117° N.
	FormatDD CoordFormat = "dd"
	// FormatDMS renders degrees, minutes, seconds: 40° 26' 46" N.
	FormatDMS CoordFormat = "dms"
)

// DateStyle selects the layout used by DateString.
type DateStyle string

const (
	DateShortMDY DateStyle = "s_mdy" // 01/11/2014
	DateShortDMY DateStyle = "s_dmy" // 11/01/2014
	DateISO      DateStyle = "iso"   // 2014-01-11
	DateLongDMY  DateStyle = "l_dmy" // 11 January 2014
	DateLong     DateStyle = "long"  // January 11th, 2014
)

// SpeedUnit selects the unit used by SpeedString.
type SpeedUnit string

const (
	UnitKPH   SpeedUnit = "kph"
	UnitMPH   SpeedUnit = "mph"
	UnitKnots SpeedUnit = "knot"
)

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// CompassDirection maps the current course onto a 16-point compass rose.
func (f *Fix) CompassDirection() string {
	// Rotate by half a point so each point owns 22.5 degrees centered on
	// its heading.
	offset := math.Mod(f.course+11.25, 360)
	idx := int(offset / 22.5)
	if idx > 15 {
		idx = 15
	}
	return compassPoints[idx]
}

// LatitudeString renders the latitude in the configured coordinate format.
func (f *Fix) LatitudeString() string {
	return formatCoordinate(f.lat, f.coordFormat)
}

// LongitudeString renders the longitude in the configured coordinate format.
func (f *Fix) LongitudeString() string {
	return formatCoordinate(f.lon, f.coordFormat)
}

func formatCoordinate(c Coordinate, format CoordFormat) string {
	switch format {
	case FormatDD:
		return fmt.Sprintf("%.6f° %c", c.DecimalDegrees(), c.Hemisphere)
	case FormatDMS:
		deg, min, sec := c.DMS()
		return fmt.Sprintf("%d° %d' %d\" %c", deg, min, sec, c.Hemisphere)
	default:
		return fmt.Sprintf("%d° %s' %c", c.Degrees,
			strconv.FormatFloat(c.Minutes, 'f', -1, 64), c.Hemisphere)
	}
}

// SpeedString renders the current ground speed in the given unit.
func (f *Fix) SpeedString(unit SpeedUnit) string {
	switch unit {
	case UnitMPH:
		return fmt.Sprintf("%.1f mph", f.speed.MPH)
	case UnitKnots:
		if f.speed.Knots == 1 {
			return "1.0 knot"
		}
		return fmt.Sprintf("%.1f knots", f.speed.Knots)
	default:
		return fmt.Sprintf("%.1f km/h", f.speed.KPH)
	}
}

// TimeString renders the current timestamp, 24-hour or am/pm.
func (f *Fix) TimeString(format24 bool) string {
	h, m, s := f.timestamp.Hour, f.timestamp.Minute, int(f.timestamp.Second)
	if format24 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	ampm := "am"
	if h >= 12 {
		ampm = "pm"
	}
	h12 := h % 12
	if h == 0 || h == 12 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d:%02d %s", h12, m, s, ampm)
}

// DateString renders the current date in the given style.
func (f *Fix) DateString(style DateStyle) string {
	d := f.date
	switch style {
	case DateLong:
		return fmt.Sprintf("%s %s, %d", monthName(d.Month), ordinal(d.Day), d.Year)
	case DateLongDMY:
		return fmt.Sprintf("%d %s %d", d.Day, monthName(d.Month), d.Year)
	case DateISO:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case DateShortDMY:
		return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
	default:
		return fmt.Sprintf("%02d/%02d/%04d", d.Month, d.Day, d.Year)
	}
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return "?"
	}
	return monthNames[m-1]
}

func ordinal(n int) string {
	if n >= 4 && n <= 20 {
		return fmt.Sprintf("%dth", n)
	}
	switch n % 10 {
	case 1:
		return fmt.Sprintf("%dst", n)
	case 2:
		return fmt.Sprintf("%dnd", n)
	case 3:
		return fmt.Sprintf("%drd", n)
	default:
		return fmt.Sprintf("%dth", n)
	}
}
