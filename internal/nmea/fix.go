package nmea

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// Fix type reported by GSA.
const (
	FixNone = 1
	Fix2D   = 2
	Fix3D   = 3
)

// Coordinate is a latitude or longitude in NMEA's native separated form:
// whole degrees plus decimal minutes. Keeping the degree component as an
// integer preserves the receiver's precision; derived forms are computed
// on read.
type Coordinate struct {
	Degrees    int     `json:"degrees"`
	Minutes    float64 `json:"minutes"`
	Hemisphere byte    `json:"hemisphere"`
}

// DecimalDegrees returns the unsigned decimal-degrees form.
func (c Coordinate) DecimalDegrees() float64 {
	return float64(c.Degrees) + c.Minutes/60
}

// Signed returns decimal degrees with S/W negative, the convention most
// mapping consumers expect.
func (c Coordinate) Signed() float64 {
	d := c.DecimalDegrees()
	if c.Hemisphere == 'S' || c.Hemisphere == 'W' {
		return -d
	}
	return d
}

// DMS returns whole degrees, whole minutes, and rounded seconds.
func (c Coordinate) DMS() (deg, min, sec int) {
	frac, whole := math.Modf(c.Minutes)
	return c.Degrees, int(whole), int(math.Round(frac * 60))
}

// Timestamp is an NMEA UTC time already shifted to the configured local
// offset.
type Timestamp struct {
	Hour   int     `json:"hour"`
	Minute int     `json:"minute"`
	Second float64 `json:"second"`
}

// Date is a calendar date with a full four-digit year.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Speed is ground speed in the three common units, derived once from the
// knots value a sentence carries.
type Speed struct {
	Knots float64 `json:"knots"`
	MPH   float64 `json:"mph"`
	KPH   float64 `json:"kph"`
}

func speedFromKnots(knots float64) Speed {
	return Speed{Knots: knots, MPH: knots * 1.151, KPH: knots * 1.852}
}

// SatelliteInfo is per-satellite telemetry from GSV. Fields are nil when
// the receiver is not yet tracking the satellite.
type SatelliteInfo struct {
	Elevation *int `json:"elevation"`
	Azimuth   *int `json:"azimuth"`
	SNR       *int `json:"snr"`
}

// Fix is the aggregate GNSS state mutated by sentence decoders and read
// by presentation code. It is owned by its Parser and must only be
// accessed from the goroutine driving Update.
type Fix struct {
	offsetSeconds float64
	coordFormat   CoordFormat
	century       int

	timestamp Timestamp
	date      Date

	lat    Coordinate
	lon    Coordinate
	speed  Speed
	course float64

	altitude    float64
	geoidHeight float64

	satellitesInView int
	satellitesInUse  int
	// satellitesUsed holds the PRNs in the active fix solution, keyed by
	// normalized talker.
	satellitesUsed map[string]map[int]struct{}
	// satelliteData is talker -> signal ID -> PRN -> telemetry, merged
	// incrementally across a numbered GSV sequence.
	satelliteData    map[string]map[int]map[int]SatelliteInfo
	lastSVSentence   int
	totalSVSentences int

	hdop float64
	pdop float64
	vdop float64

	valid   bool
	fixStat int
	fixType int

	dgpsAge     *float64
	dgpsStation *float64

	fixTime time.Time
	now     func() time.Time
}

func (f *Fix) init(cfg Config) {
	if cfg.Century == 0 {
		cfg.Century = 20
	}
	if cfg.CoordFormat == "" {
		cfg.CoordFormat = FormatDDM
	}
	f.offsetSeconds = cfg.UTCOffsetHours * 3600
	f.coordFormat = cfg.CoordFormat
	f.century = cfg.Century

	f.lat = Coordinate{Hemisphere: 'N'}
	f.lon = Coordinate{Hemisphere: 'W'}
	f.satellitesUsed = make(map[string]map[int]struct{})
	f.satelliteData = make(map[string]map[int]map[int]SatelliteInfo)
	f.hdop = math.Inf(1)
	f.pdop = math.Inf(1)
	f.vdop = math.Inf(1)
	f.fixType = FixNone
	f.now = time.Now
}

// parseTime applies the configured offset and stores the timestamp. An
// empty field resets the timestamp rather than failing: many receivers
// emit sentences before they have time lock.
func (f *Fix) parseTime(s string) bool {
	if s == "" {
		f.timestamp = Timestamp{}
		return true
	}
	if len(s) < 5 {
		return false
	}
	hour, err := strconv.Atoi(s[0:2])
	if err != nil {
		return false
	}
	minute, err := strconv.Atoi(s[2:4])
	if err != nil {
		return false
	}
	sec, err := strconv.ParseFloat(s[4:], 64)
	if err != nil {
		return false
	}

	if f.offsetSeconds != 0 {
		total := math.Mod(float64(hour)*3600+float64(minute)*60+sec+f.offsetSeconds, 86400)
		if total < 0 {
			total += 86400
		}
		hour = int(total / 3600)
		minute = int(math.Mod(total, 3600) / 60)
		sec = math.Mod(total, 60)
	}
	f.timestamp = Timestamp{Hour: hour, Minute: minute, Second: sec}
	return true
}

// parseCoordinate splits ddmm.mmmm (or dddmm.mmmm for longitude) into
// separated degrees and minutes and validates the hemisphere letter.
func parseCoordinate(value, hemi string, degDigits int) (Coordinate, bool) {
	if len(value) <= degDigits {
		return Coordinate{}, false
	}
	deg, err := strconv.Atoi(value[:degDigits])
	if err != nil {
		return Coordinate{}, false
	}
	min, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil {
		return Coordinate{}, false
	}
	if len(hemi) != 1 {
		return Coordinate{}, false
	}
	switch hemi[0] {
	case 'N', 'S', 'E', 'W':
	default:
		return Coordinate{}, false
	}
	return Coordinate{Degrees: deg, Minutes: min, Hemisphere: hemi[0]}, true
}

// newFixTime stamps the monotonic fix clock; called whenever a sentence
// reports a usable fix.
func (f *Fix) newFixTime() {
	f.fixTime = f.now()
}

// TimeSinceFix returns the elapsed time since the last usable fix. ok is
// false when no fix has ever been recorded.
func (f *Fix) TimeSinceFix() (time.Duration, bool) {
	if f.fixTime.IsZero() {
		return 0, false
	}
	return f.now().Sub(f.fixTime), true
}

// Accessors. Derived coordinate forms are computed here, never stored.

func (f *Fix) Timestamp() Timestamp { return f.timestamp }
func (f *Fix) Date() Date           { return f.date }
func (f *Fix) Latitude() Coordinate { return f.lat }
func (f *Fix) Longitude() Coordinate {
	return f.lon
}
func (f *Fix) Speed() Speed         { return f.speed }
func (f *Fix) Course() float64      { return f.course }
func (f *Fix) Altitude() float64    { return f.altitude }
func (f *Fix) GeoidHeight() float64 { return f.geoidHeight }

func (f *Fix) SatellitesInUse() int  { return f.satellitesInUse }
func (f *Fix) SatellitesInView() int { return f.satellitesInView }

func (f *Fix) HDOP() float64 { return f.hdop }
func (f *Fix) PDOP() float64 { return f.pdop }
func (f *Fix) VDOP() float64 { return f.vdop }

func (f *Fix) Valid() bool  { return f.valid }
func (f *Fix) FixType() int { return f.fixType }
func (f *Fix) FixStat() int { return f.fixStat }

func (f *Fix) DGPSAge() (float64, bool) {
	if f.dgpsAge == nil {
		return 0, false
	}
	return *f.dgpsAge, true
}

func (f *Fix) DGPSStation() (float64, bool) {
	if f.dgpsStation == nil {
		return 0, false
	}
	return *f.dgpsStation, true
}

// SatellitesUsed returns the PRNs in the current fix solution per talker,
// sorted, as a copy safe to retain.
func (f *Fix) SatellitesUsed() map[string][]int {
	out := make(map[string][]int, len(f.satellitesUsed))
	for talker, set := range f.satellitesUsed {
		prns := make([]int, 0, len(set))
		for prn := range set {
			prns = append(prns, prn)
		}
		sort.Ints(prns)
		out[talker] = prns
	}
	return out
}

// SatellitesVisible returns the PRNs currently visible per talker across
// all signals, sorted, as a copy safe to retain.
func (f *Fix) SatellitesVisible() map[string][]int {
	out := make(map[string][]int, len(f.satelliteData))
	for talker, signals := range f.satelliteData {
		seen := map[int]struct{}{}
		for _, sats := range signals {
			for prn := range sats {
				seen[prn] = struct{}{}
			}
		}
		prns := make([]int, 0, len(seen))
		for prn := range seen {
			prns = append(prns, prn)
		}
		sort.Ints(prns)
		out[talker] = prns
	}
	return out
}

// SatelliteData returns a copy of the full talker -> signal -> PRN
// telemetry map.
func (f *Fix) SatelliteData() map[string]map[int]map[int]SatelliteInfo {
	out := make(map[string]map[int]map[int]SatelliteInfo, len(f.satelliteData))
	for talker, signals := range f.satelliteData {
		sc := make(map[int]map[int]SatelliteInfo, len(signals))
		for sig, sats := range signals {
			bc := make(map[int]SatelliteInfo, len(sats))
			for prn, info := range sats {
				bc[prn] = info
			}
			sc[sig] = bc
		}
		out[talker] = sc
	}
	return out
}

// SatelliteDataUpdated reports whether every sentence of the current GSV
// sequence has been read, i.e. the in-view data is complete.
func (f *Fix) SatelliteDataUpdated() bool {
	return f.totalSVSentences > 0 && f.totalSVSentences == f.lastSVSentence
}

// ClearSatelliteDataUpdated marks the GSV data as consumed so the next
// sequence reads as fresh.
func (f *Fix) ClearSatelliteDataUpdated() {
	f.lastSVSentence = 0
}
