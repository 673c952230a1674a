package feed

import (
	"math"
	"time"

	"gnssfeed/internal/nmea"
)

// Snapshot is a JSON-friendly view of the fix state for web/MQTT
// consumers. DOP pointers are nil while no sentence has supplied a
// value (the parser holds +Inf, which JSON cannot carry).
type Snapshot struct {
	Source string `json:"source,omitempty"`
	Device string `json:"device,omitempty"`
	Baud   int    `json:"baud,omitempty"`

	Valid   bool `json:"valid"`
	FixType int  `json:"fix_type,omitempty"`
	FixStat int  `json:"fix_stat,omitempty"`

	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
	// Latitude/Longitude are the configured display-format strings.
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`

	SpeedKnots float64 `json:"speed_knots"`
	SpeedKPH   float64 `json:"speed_kph"`
	CourseDeg  float64 `json:"course_deg"`
	Compass    string  `json:"compass,omitempty"`

	AltitudeM    float64 `json:"altitude_m"`
	GeoidHeightM float64 `json:"geoid_height_m"`

	Time string `json:"time,omitempty"`
	Date string `json:"date,omitempty"`

	SatellitesInUse  int              `json:"satellites_in_use"`
	SatellitesInView int              `json:"satellites_in_view"`
	SatellitesUsed   map[string][]int `json:"satellites_used,omitempty"`

	HDOP *float64 `json:"hdop,omitempty"`
	PDOP *float64 `json:"pdop,omitempty"`
	VDOP *float64 `json:"vdop,omitempty"`

	FixAgeSec *float64 `json:"fix_age_sec,omitempty"`

	Stats nmea.Stats `json:"stats"`

	LastError string `json:"last_error,omitempty"`
}

func buildSnapshot(p *nmea.Parser, source, device string, baud int) Snapshot {
	fix := p.Fix()
	snap := Snapshot{
		Source:  source,
		Device:  device,
		Baud:    baud,
		Valid:   fix.Valid(),
		FixType: fix.FixType(),
		FixStat: fix.FixStat(),

		LatDeg:    fix.Latitude().Signed(),
		LonDeg:    fix.Longitude().Signed(),
		Latitude:  fix.LatitudeString(),
		Longitude: fix.LongitudeString(),

		SpeedKnots: fix.Speed().Knots,
		SpeedKPH:   fix.Speed().KPH,
		CourseDeg:  fix.Course(),
		Compass:    fix.CompassDirection(),

		AltitudeM:    fix.Altitude(),
		GeoidHeightM: fix.GeoidHeight(),

		Time: fix.TimeString(true),
		Date: fix.DateString(nmea.DateISO),

		SatellitesInUse:  fix.SatellitesInUse(),
		SatellitesInView: fix.SatellitesInView(),
		SatellitesUsed:   fix.SatellitesUsed(),

		Stats: p.Stats(),
	}

	snap.HDOP = finiteOrNil(fix.HDOP())
	snap.PDOP = finiteOrNil(fix.PDOP())
	snap.VDOP = finiteOrNil(fix.VDOP())

	if age, ok := fix.TimeSinceFix(); ok {
		v := age.Round(time.Millisecond).Seconds()
		snap.FixAgeSec = &v
	}
	return snap
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
