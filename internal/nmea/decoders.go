package nmea

import (
	"math"
	"strconv"
	"strings"
)

// decode applies one checksum-valid sentence to the fix state. It returns
// false when a required field failed to parse; per-sentence rules govern
// how much state was already committed by then.
func (f *Fix) decode(kind messageKind, talker string, fields []string) bool {
	switch kind {
	case msgRMC:
		return f.decodeRMC(fields)
	case msgGGA:
		return f.decodeGGA(fields)
	case msgVTG:
		return f.decodeVTG(fields)
	case msgGSA:
		return f.decodeGSA(talker, fields)
	case msgGSV:
		return f.decodeGSV(talker, fields)
	case msgGLL:
		return f.decodeGLL(fields)
	case msgZDA:
		return f.decodeZDA(fields)
	case msgGNS:
		return f.decodeGNS(fields)
	}
	return false
}

// decodeRMC handles Recommended Minimum data: time, date, position,
// speed, course, and receiver validity.
//
// Position, speed, and course commit all-or-nothing: any bad numeric or
// hemisphere aborts before the first of them is touched. A void status
// (V) deliberately clears them and drops validity.
func (f *Fix) decodeRMC(fields []string) bool {
	if len(fields) < 10 {
		return false
	}
	if !f.parseTime(fields[1]) {
		return false
	}

	if ds := fields[9]; ds != "" {
		if len(ds) < 6 {
			return false
		}
		day, err := strconv.Atoi(ds[0:2])
		if err != nil {
			return false
		}
		month, err := strconv.Atoi(ds[2:4])
		if err != nil {
			return false
		}
		year, err := strconv.Atoi(ds[4:6])
		if err != nil {
			return false
		}
		f.date = Date{Day: day, Month: month, Year: year + 100*f.century}
	} else {
		f.date = Date{}
	}

	if fields[2] == "A" {
		lat, ok := parseCoordinate(fields[3], fields[4], 2)
		if !ok {
			return false
		}
		lon, ok := parseCoordinate(fields[5], fields[6], 3)
		if !ok {
			return false
		}
		knots, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return false
		}
		course := 0.0
		if fields[8] != "" {
			course, err = strconv.ParseFloat(fields[8], 64)
			if err != nil {
				return false
			}
		}

		f.lat = lat
		f.lon = lon
		f.speed = speedFromKnots(knots)
		f.course = course
		f.valid = true
		f.newFixTime()
	} else {
		// Void fix: clear position data rather than keep a stale one.
		f.lat = Coordinate{Hemisphere: 'N'}
		f.lon = Coordinate{Hemisphere: 'W'}
		f.speed = Speed{}
		f.course = 0
		f.valid = false
	}
	return true
}

// decodeGLL handles Geographic Position: the position-only subset of RMC
// with the same all-or-nothing commit and void-clearing behavior.
func (f *Fix) decodeGLL(fields []string) bool {
	if len(fields) < 7 {
		return false
	}
	if !f.parseTime(fields[5]) {
		return false
	}

	if fields[6] == "A" {
		lat, ok := parseCoordinate(fields[1], fields[2], 2)
		if !ok {
			return false
		}
		lon, ok := parseCoordinate(fields[3], fields[4], 3)
		if !ok {
			return false
		}

		f.lat = lat
		f.lon = lon
		f.valid = true
		f.newFixTime()
	} else {
		f.lat = Coordinate{Hemisphere: 'N'}
		f.lon = Coordinate{Hemisphere: 'W'}
		f.valid = false
	}
	return true
}

// decodeVTG handles Track Made Good and Ground Speed. Empty fields read
// as zero; non-numeric non-empty fields abort.
func (f *Fix) decodeVTG(fields []string) bool {
	if len(fields) < 6 {
		return false
	}
	course := 0.0
	if fields[1] != "" {
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return false
		}
		course = v
	}
	knots := 0.0
	if fields[5] != "" {
		v, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return false
		}
		knots = v
	}

	f.speed = speedFromKnots(knots)
	f.course = course
	return true
}

// decodeGGA handles GPS Fix Data: time, position, fix status, satellites
// in use, HDOP, altitude, and geoid separation.
//
// Position and altitude only commit when the fix status is nonzero. A
// failed altitude/geoid parse defaults both to zero instead of aborting.
func (f *Fix) decodeGGA(fields []string) bool {
	if len(fields) < 12 {
		return false
	}
	if !f.parseTime(fields[1]) {
		return false
	}

	satellitesInUse, err := strconv.Atoi(fields[7])
	if err != nil {
		return false
	}
	fixStat, err := strconv.Atoi(fields[6])
	if err != nil {
		return false
	}

	hdop, err := strconv.ParseFloat(fields[8], 64)
	if err != nil {
		hdop = math.Inf(1)
	}

	if fixStat != 0 {
		lat, ok := parseCoordinate(fields[2], fields[3], 2)
		if !ok {
			return false
		}
		lon, ok := parseCoordinate(fields[4], fields[5], 3)
		if !ok {
			return false
		}

		altitude, aerr := strconv.ParseFloat(fields[9], 64)
		geoidHeight, gerr := strconv.ParseFloat(fields[11], 64)
		if aerr != nil || gerr != nil {
			altitude = 0
			geoidHeight = 0
		}

		f.lat = lat
		f.lon = lon
		f.altitude = altitude
		f.geoidHeight = geoidHeight
	}

	// NMEA caps the GGA satellite count at 12. When a GNS sentence has
	// already reported a true count above 12, don't let GGA's clamped
	// value override it. The asymmetric threshold is deliberate.
	if f.satellitesInUse <= 12 || satellitesInUse > 12 {
		f.satellitesInUse = satellitesInUse
	}

	f.hdop = hdop
	f.fixStat = fixStat

	if fixStat != 0 {
		f.newFixTime()
	}
	return true
}

// decodeGSA handles DOP and Active Satellites: fix type, the PRN set in
// the fix solution, and the three DOP values.
//
// NMEA 4.1x sentences carry a trailing system ID that routes the used-set
// to that system's talker regardless of the sentence's own talker prefix.
// Older sentences fall back to the sentence talker, evicting satellites
// that the talker's in-view data shows overlap with the new set before
// unioning it in.
func (f *Fix) decodeGSA(talker string, fields []string) bool {
	if len(fields) < 18 {
		return false
	}
	fixType, err := strconv.Atoi(fields[2])
	if err != nil {
		return false
	}

	satsUsed := make(map[int]struct{})
	for i := 0; i < 12; i++ {
		s := fields[3+i]
		if s == "" {
			break
		}
		prn, err := strconv.Atoi(s)
		if err != nil {
			return false
		}
		satsUsed[prn] = struct{}{}
	}

	pdop, err := strconv.ParseFloat(fields[15], 64)
	if err != nil {
		return false
	}
	hdop, err := strconv.ParseFloat(fields[16], 64)
	if err != nil {
		return false
	}
	vdop, err := strconv.ParseFloat(fields[17], 64)
	if err != nil {
		return false
	}

	f.fixType = fixType
	if fixType > FixNone {
		f.newFixTime()
	}

	if len(fields) >= 20 {
		systemID := 1
		if v, err := strconv.ParseInt(fields[18], 16, 32); err == nil {
			systemID = int(v)
		}
		f.satellitesUsed[systemIDTalker(systemID)] = satsUsed
	} else {
		used := f.satellitesUsed[talker]
		if used == nil {
			used = make(map[int]struct{})
			f.satellitesUsed[talker] = used
		}
		// Evict stale entries: any in-view satellite group that overlaps
		// the new set gets removed wholesale before the union below.
		for _, signals := range f.satelliteData {
			for _, inView := range signals {
				if overlaps(inView, satsUsed) {
					for prn := range inView {
						delete(used, prn)
					}
				}
			}
		}
		for prn := range satsUsed {
			used[prn] = struct{}{}
		}
	}

	f.hdop = hdop
	f.vdop = vdop
	f.pdop = pdop
	return true
}

func overlaps(sats map[int]SatelliteInfo, set map[int]struct{}) bool {
	for prn := range sats {
		if _, ok := set[prn]; ok {
			return true
		}
	}
	return false
}

// decodeGSV handles Satellites in View. One reporting cycle spans a
// numbered sequence of sentences; sentence 1 resets the talker's data and
// later sentences merge into the signal bucket. The in-view total is only
// recomputed when the final sentence of the sequence lands.
func (f *Fix) decodeGSV(talker string, fields []string) bool {
	if len(fields) < 4 {
		return false
	}
	numSentences, err := strconv.Atoi(fields[1])
	if err != nil {
		return false
	}
	current, err := strconv.Atoi(fields[2])
	if err != nil {
		return false
	}
	if _, err := strconv.Atoi(fields[3]); err != nil {
		return false
	}

	sats := make(map[int]SatelliteInfo)
	limit := 4 * (len(fields) / 4)
	for i := 4; i < limit; i += 4 {
		// No PRN means the sentence has no more satellites to read.
		if fields[i] == "" {
			break
		}
		prn, err := strconv.Atoi(fields[i])
		if err != nil {
			return false
		}
		// Elevation/azimuth/SNR are null individually while the receiver
		// is not tracking the satellite.
		sats[prn] = SatelliteInfo{
			Elevation: optionalInt(fields[i+1]),
			Azimuth:   optionalInt(fields[i+2]),
			SNR:       optionalInt(fields[i+3]),
		}
	}

	f.totalSVSentences = numSentences
	f.lastSVSentence = current

	// NMEA 4.1x appends a signal ID after the last satellite group.
	signal := 1
	if len(fields)%4 != 1 {
		pos := (len(fields) / 4) * 4
		if pos < len(fields) {
			if v, err := strconv.ParseInt(fields[pos], 16, 32); err == nil {
				signal = int(v)
			}
		}
	}

	if f.satelliteData[talker] == nil {
		f.satelliteData[talker] = make(map[int]map[int]SatelliteInfo)
	}
	if current == 1 {
		f.satelliteData[talker] = map[int]map[int]SatelliteInfo{signal: sats}
	} else if bucket, ok := f.satelliteData[talker][signal]; ok {
		for prn, info := range sats {
			bucket[prn] = info
		}
	} else {
		f.satelliteData[talker][signal] = sats
	}

	if current == numSentences {
		total := 0
		for _, signals := range f.satelliteData {
			for _, bucket := range signals {
				total += len(bucket)
			}
		}
		f.satellitesInView = total
	}
	return true
}

func optionalInt(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// decodeZDA handles Time and Date. The four-digit year permanently
// overrides the configured default century for later RMC dates.
func (f *Fix) decodeZDA(fields []string) bool {
	if len(fields) < 5 {
		return false
	}
	if !f.parseTime(fields[1]) {
		return false
	}

	day, err := strconv.Atoi(fields[2])
	if err != nil {
		return false
	}
	month, err := strconv.Atoi(fields[3])
	if err != nil {
		return false
	}
	year, err := strconv.Atoi(fields[4])
	if err != nil {
		return false
	}

	f.century = year / 100
	f.date = Date{Day: day, Month: month, Year: year}
	return true
}

// validGNSModes are the per-system positioning mode letters that indicate
// a usable GNS fix (estimated, float RTK, RTK, autonomous, differential).
const validGNSModes = "EFRAD"

// decodeGNS handles multi-constellation fix data. Position, altitude, and
// geoid only commit when the mode string contains a valid-fix letter; a
// bad lat/lon aborts just the position portion. The remaining fields are
// committed independently with per-field fallbacks.
func (f *Fix) decodeGNS(fields []string) bool {
	if len(fields) < 13 {
		return false
	}
	if !f.parseTime(fields[1]) {
		return false
	}

	if strings.ContainsAny(fields[6], validGNSModes) {
		// A bad lat/lon skips only the position portion; the independent
		// fields below still commit.
		lat, latOK := parseCoordinate(fields[2], fields[3], 2)
		lon, lonOK := parseCoordinate(fields[4], fields[5], 3)
		if latOK && lonOK {
			altitude, aerr := strconv.ParseFloat(fields[9], 64)
			geoidHeight, gerr := strconv.ParseFloat(fields[10], 64)
			if aerr != nil || gerr != nil {
				altitude = 0
				geoidHeight = 0
			}

			f.lat = lat
			f.lon = lon
			f.altitude = altitude
			f.geoidHeight = geoidHeight
			f.newFixTime()
		}
	}

	// GNS reports the true satellite count, uncapped; see the GGA guard.
	if v, err := strconv.Atoi(fields[7]); err == nil {
		f.satellitesInUse = v
	}

	if v, err := strconv.ParseFloat(fields[8], 64); err == nil {
		f.hdop = v
	} else {
		f.hdop = 0
	}

	if v, err := strconv.ParseFloat(fields[11], 64); err == nil {
		f.dgpsAge = &v
	} else {
		f.dgpsAge = nil
	}
	if v, err := strconv.ParseFloat(fields[12], 64); err == nil {
		f.dgpsStation = &v
	} else {
		f.dgpsStation = nil
	}
	return true
}
