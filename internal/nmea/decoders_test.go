package nmea

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func mustDecode(t *testing.T, p *Parser, payload string) {
	t.Helper()
	if _, ok := feed(p, sentence(payload)); !ok {
		t.Fatalf("sentence did not decode: %s", payload)
	}
}

func mustReject(t *testing.T, p *Parser, payload string) {
	t.Helper()
	if _, ok := feed(p, sentence(payload)); ok {
		t.Fatalf("sentence unexpectedly decoded: %s", payload)
	}
}

func TestRMC_ActiveFix(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230324,003.1,W")

	fix := p.Fix()
	if !fix.Valid() {
		t.Fatalf("expected valid fix")
	}
	lat := fix.Latitude()
	if lat.Degrees != 48 || math.Abs(lat.Minutes-7.038) > 1e-9 || lat.Hemisphere != 'N' {
		t.Fatalf("latitude = %+v", lat)
	}
	lon := fix.Longitude()
	if lon.Degrees != 11 || math.Abs(lon.Minutes-31.0) > 1e-9 || lon.Hemisphere != 'E' {
		t.Fatalf("longitude = %+v", lon)
	}
	spd := fix.Speed()
	if math.Abs(spd.Knots-22.4) > 1e-9 {
		t.Fatalf("knots = %v", spd.Knots)
	}
	if math.Abs(spd.MPH-22.4*1.151) > 1e-9 || math.Abs(spd.KPH-22.4*1.852) > 1e-9 {
		t.Fatalf("speed triple = %+v", spd)
	}
	if math.Abs(fix.Course()-84.4) > 1e-9 {
		t.Fatalf("course = %v", fix.Course())
	}
	if d := fix.Date(); d.Day != 23 || d.Month != 3 || d.Year != 2024 {
		t.Fatalf("date = %+v, want 23/03/2024", d)
	}
	if _, ok := fix.TimeSinceFix(); !ok {
		t.Fatalf("expected fix time to be recorded")
	}
}

func TestRMC_VoidClearsPosition(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230324,003.1,W")
	mustDecode(t, p, "GPRMC,123520,V,,,,,,,230324,,")

	fix := p.Fix()
	if fix.Valid() {
		t.Fatalf("void status must clear validity")
	}
	if lat := fix.Latitude(); lat.Degrees != 0 || lat.Minutes != 0 || lat.Hemisphere != 'N' {
		t.Fatalf("latitude not cleared: %+v", lat)
	}
	if lon := fix.Longitude(); lon.Degrees != 0 || lon.Minutes != 0 || lon.Hemisphere != 'W' {
		t.Fatalf("longitude not cleared: %+v", lon)
	}
	if spd := fix.Speed(); spd != (Speed{}) {
		t.Fatalf("speed not cleared: %+v", spd)
	}
	if fix.Course() != 0 {
		t.Fatalf("course not cleared: %v", fix.Course())
	}
}

func TestRMC_VoidThenActiveRestoresFix(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPRMC,123519,V,,,,,,,230324,,")
	if p.Fix().Valid() {
		t.Fatalf("void alone must not be valid")
	}
	mustDecode(t, p, "GPRMC,123520,A,4807.038,N,01131.000,E,022.4,084.4,230324,003.1,W")
	fix := p.Fix()
	if !fix.Valid() {
		t.Fatalf("expected valid fix")
	}
	if lat := fix.Latitude(); lat.Degrees != 48 {
		t.Fatalf("latitude = %+v", lat)
	}
}

func TestRMC_BadFieldsAbortBeforePosition(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230324,003.1,W")
	before := p.Fix().Latitude()

	// Bad speed numeric with otherwise good position: all-or-nothing.
	mustReject(t, p, "GPRMC,123520,A,5807.038,N,01131.000,E,abc,084.4,230324,003.1,W")
	if got := p.Fix().Latitude(); got != before {
		t.Fatalf("latitude mutated on aborted sentence: %+v", got)
	}

	// Bad date numerics abort too.
	mustReject(t, p, "GPRMC,123520,A,5807.038,N,01131.000,E,022.4,084.4,23xx24,003.1,W")
	if got := p.Fix().Latitude(); got != before {
		t.Fatalf("latitude mutated on aborted sentence: %+v", got)
	}
}

func TestGLL_PositionSubset(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPGLL,4916.45,N,12311.12,W,225444,A")

	fix := p.Fix()
	if !fix.Valid() {
		t.Fatalf("expected valid fix")
	}
	if lat := fix.Latitude(); lat.Degrees != 49 || math.Abs(lat.Minutes-16.45) > 1e-9 {
		t.Fatalf("latitude = %+v", lat)
	}
	if ts := fix.Timestamp(); ts.Hour != 22 || ts.Minute != 54 || ts.Second != 44 {
		t.Fatalf("timestamp = %+v", ts)
	}

	// Void GLL clears position and validity but not speed.
	mustDecode(t, p, "GPVTG,054.7,T,034.4,M,005.5,N,010.2,K")
	mustDecode(t, p, "GPGLL,,,,,225445,V")
	if fix.Valid() {
		t.Fatalf("void must clear validity")
	}
	if spd := fix.Speed(); math.Abs(spd.Knots-5.5) > 1e-9 {
		t.Fatalf("void GLL must not clear speed: %+v", spd)
	}
}

func TestVTG_EmptyFieldsDefaultZero(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPVTG,,T,,M,,N,,K")
	fix := p.Fix()
	if fix.Speed() != (Speed{}) || fix.Course() != 0 {
		t.Fatalf("speed=%+v course=%v", fix.Speed(), fix.Course())
	}

	mustReject(t, p, "GPVTG,bad,T,,M,005.5,N,,K")
}

func TestGGA_NoFixSkipsPosition(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	mustDecode(t, p, "GPGGA,123520,5907.038,N,02131.000,E,0,03,9.9,100.0,M,40.0,M,,")

	fix := p.Fix()
	// Status 0: position/altitude retained from the earlier fix.
	if lat := fix.Latitude(); lat.Degrees != 48 {
		t.Fatalf("latitude overwritten on fixless GGA: %+v", lat)
	}
	if math.Abs(fix.Altitude()-545.4) > 1e-9 {
		t.Fatalf("altitude overwritten: %v", fix.Altitude())
	}
	// Sat count, HDOP, and status still update.
	if fix.SatellitesInUse() != 3 {
		t.Fatalf("satellites in use = %d, want 3", fix.SatellitesInUse())
	}
	if math.Abs(fix.HDOP()-9.9) > 1e-9 {
		t.Fatalf("hdop = %v", fix.HDOP())
	}
	if fix.FixStat() != 0 {
		t.Fatalf("fix stat = %d, want 0", fix.FixStat())
	}
}

func TestGGA_MissingAltitudeDefaultsZero(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,,M,,M,,")
	fix := p.Fix()
	if fix.Altitude() != 0 || fix.GeoidHeight() != 0 {
		t.Fatalf("altitude=%v geoid=%v, want zeros", fix.Altitude(), fix.GeoidHeight())
	}
	if lat := fix.Latitude(); lat.Degrees != 48 {
		t.Fatalf("position must still commit: %+v", lat)
	}
}

func TestGGA_MissingHDOPIsInfinite(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPGGA,123519,4807.038,N,01131.000,E,1,08,,545.4,M,46.9,M,,")
	if !math.IsInf(p.Fix().HDOP(), 1) {
		t.Fatalf("hdop = %v, want +Inf", p.Fix().HDOP())
	}
}

func TestGGA_SatelliteCountCapGuard(t *testing.T) {
	p := New(Config{})
	// GNS reports the true (uncapped) count.
	mustDecode(t, p, "GNGNS,103600.01,5114.51176,N,00012.29380,W,ANNN,14,1.18,111.5,45.6,,")
	if got := p.Fix().SatellitesInUse(); got != 14 {
		t.Fatalf("satellites in use = %d, want 14", got)
	}

	// GGA clamped at 12 must not override the larger true value.
	mustDecode(t, p, "GPGGA,123519,4807.038,N,01131.000,E,1,12,0.9,545.4,M,46.9,M,,")
	if got := p.Fix().SatellitesInUse(); got != 14 {
		t.Fatalf("satellites in use = %d, want 14 (12-sat cap guard)", got)
	}

	// A GGA value above 12 is a true count and does override.
	mustDecode(t, p, "GPGGA,123519,4807.038,N,01131.000,E,1,13,0.9,545.4,M,46.9,M,,")
	if got := p.Fix().SatellitesInUse(); got != 13 {
		t.Fatalf("satellites in use = %d, want 13", got)
	}

	// While the held value is above 12, clamped GGA counts keep losing:
	// the guard's asymmetry is sticky until something reports <= 12
	// through an uncapped path.
	mustDecode(t, p, "GPGGA,123519,4807.038,N,01131.000,E,1,05,0.9,545.4,M,46.9,M,,")
	if got := p.Fix().SatellitesInUse(); got != 13 {
		t.Fatalf("satellites in use = %d, want 13", got)
	}
	mustDecode(t, p, "GNGNS,103600.01,5114.51176,N,00012.29380,W,ANNN,08,1.18,111.5,45.6,,")
	mustDecode(t, p, "GPGGA,123519,4807.038,N,01131.000,E,1,05,0.9,545.4,M,46.9,M,,")
	if got := p.Fix().SatellitesInUse(); got != 5 {
		t.Fatalf("satellites in use = %d, want 5", got)
	}
}

func TestGSA_UpdatesDOPsAndFixType(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPGSA,A,3,04,05,09,12,,,,,,,,,2.5,1.3,2.1")

	fix := p.Fix()
	if fix.FixType() != Fix3D {
		t.Fatalf("fix type = %d, want 3", fix.FixType())
	}
	if math.Abs(fix.PDOP()-2.5) > 1e-9 || math.Abs(fix.HDOP()-1.3) > 1e-9 || math.Abs(fix.VDOP()-2.1) > 1e-9 {
		t.Fatalf("dops = %v %v %v", fix.PDOP(), fix.HDOP(), fix.VDOP())
	}
	want := map[string][]int{"GP": {4, 5, 9, 12}}
	if got := fix.SatellitesUsed(); !reflect.DeepEqual(got, want) {
		t.Fatalf("satellites used = %v, want %v", got, want)
	}
	if _, ok := fix.TimeSinceFix(); !ok {
		t.Fatalf("3D fix must refresh fix time")
	}
}

func TestGSA_BadPRNAborts(t *testing.T) {
	p := New(Config{})
	mustReject(t, p, "GPGSA,A,3,04,xx,09,12,,,,,,,,,2.5,1.3,2.1")
	if len(p.Fix().SatellitesUsed()) != 0 {
		t.Fatalf("aborted GSA must not touch the used set")
	}
}

func TestGSA_SystemIDRoutesTalker(t *testing.T) {
	p := New(Config{})
	// NMEA 4.1x GSA carries a trailing system ID; 2 is GLONASS. The
	// sentence's own GN talker must not receive the update.
	mustDecode(t, p, "GNGSA,A,3,65,66,75,,,,,,,,,,2.5,1.3,2.1,2")

	used := p.Fix().SatellitesUsed()
	if _, ok := used["GN"]; ok {
		t.Fatalf("GN must not hold the set: %v", used)
	}
	if got := used["GL"]; !reflect.DeepEqual(got, []int{65, 66, 75}) {
		t.Fatalf("GL = %v, want [65 66 75]", got)
	}

	// A replacement for the same system overwrites wholesale.
	mustDecode(t, p, "GNGSA,A,3,70,71,,,,,,,,,,,2.5,1.3,2.1,2")
	if got := p.Fix().SatellitesUsed()["GL"]; !reflect.DeepEqual(got, []int{70, 71}) {
		t.Fatalf("GL = %v, want [70 71]", got)
	}
}

func TestGSA_StaleSatelliteEviction(t *testing.T) {
	p := New(Config{})
	// In-view data for GP: PRNs 4,5,9,12 in one signal group.
	mustDecode(t, p, "GPGSV,1,1,04,04,15,270,31,05,40,100,33,09,70,000,40,12,20,190,28")
	// First fix solution uses 4,5,9.
	mustDecode(t, p, "GPGSA,A,3,04,05,09,,,,,,,,,,2.5,1.3,2.1")
	// A later solution from the same group drops 9, picks up 12. All
	// entries from the overlapping group are evicted before the union,
	// so 9 must disappear.
	mustDecode(t, p, "GPGSA,A,3,04,05,12,,,,,,,,,,2.5,1.3,2.1")

	if got := p.Fix().SatellitesUsed()["GP"]; !reflect.DeepEqual(got, []int{4, 5, 12}) {
		t.Fatalf("GP = %v, want [4 5 12]", got)
	}
}

func TestGSV_SequenceMerge(t *testing.T) {
	p := New(Config{})
	seq := []string{
		"GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00",
		"GPGSV,3,2,11,14,25,170,00,16,57,208,39,18,67,296,40,19,40,246,00",
		"GPGSV,3,3,11,22,42,067,42,24,14,311,43,27,05,244,00,,,,",
	}

	mustDecode(t, p, seq[0])
	fix := p.Fix()
	// In-view total is only finalized on the last sentence of the cycle.
	if got := fix.SatellitesInView(); got != 0 {
		t.Fatalf("satellites in view = %d before sequence end, want 0", got)
	}
	if fix.SatelliteDataUpdated() {
		t.Fatalf("data must not read complete mid-sequence")
	}

	mustDecode(t, p, seq[1])
	mustDecode(t, p, seq[2])

	if got := fix.SatellitesInView(); got != 11 {
		t.Fatalf("satellites in view = %d, want 11", got)
	}
	if !fix.SatelliteDataUpdated() {
		t.Fatalf("data must read complete after final sentence")
	}

	want := []int{3, 4, 6, 13, 14, 16, 18, 19, 22, 24, 27}
	if got := fix.SatellitesVisible()["GP"]; !reflect.DeepEqual(got, want) {
		t.Fatalf("visible = %v, want %v", got, want)
	}

	// Telemetry spot check: PRN 16 at 57°/208°/39dB.
	info := fix.SatelliteData()["GP"][1][16]
	if info.Elevation == nil || *info.Elevation != 57 ||
		info.Azimuth == nil || *info.Azimuth != 208 ||
		info.SNR == nil || *info.SNR != 39 {
		t.Fatalf("prn 16 telemetry = %+v", info)
	}

	fix.ClearSatelliteDataUpdated()
	if fix.SatelliteDataUpdated() {
		t.Fatalf("clear must reset the read marker")
	}
}

func TestGSV_FirstSentenceResetsTalker(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPGSV,1,1,02,03,03,111,00,04,15,270,00")
	mustDecode(t, p, "GPGSV,1,1,01,22,42,067,42")

	if got := p.Fix().SatellitesVisible()["GP"]; !reflect.DeepEqual(got, []int{22}) {
		t.Fatalf("visible = %v, want [22]", got)
	}
	if got := p.Fix().SatellitesInView(); got != 1 {
		t.Fatalf("in view = %d, want 1", got)
	}
}

func TestGSV_MissingTelemetryTolerated(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPGSV,1,1,01,03,,,")
	info := p.Fix().SatelliteData()["GP"][1][3]
	if info.Elevation != nil || info.Azimuth != nil || info.SNR != nil {
		t.Fatalf("telemetry = %+v, want all nil", info)
	}

	// A missing PRN is different: it ends the satellite list; a bad PRN
	// aborts.
	mustReject(t, p, "GPGSV,1,1,01,xx,10,100,20")
}

func TestGSV_SignalBuckets(t *testing.T) {
	p := New(Config{})
	// NMEA 4.1x sentences append a hex signal ID.
	mustDecode(t, p, "GAGSV,2,1,04,05,65,144,41,04,52,100,43,,,,,7")
	mustDecode(t, p, "GAGSV,2,2,04,09,27,144,20,36,60,000,30,,,,,1")

	data := p.Fix().SatelliteData()["GA"]
	if len(data[7]) != 2 || len(data[1]) != 2 {
		t.Fatalf("signal buckets = %v", data)
	}
	if got := p.Fix().SatellitesInView(); got != 4 {
		t.Fatalf("in view = %d, want 4", got)
	}
}

func TestZDA_OverridesCentury(t *testing.T) {
	p := New(Config{})
	mustDecode(t, p, "GPZDA,201530.00,04,07,1999,00,00")

	fix := p.Fix()
	if d := fix.Date(); d.Day != 4 || d.Month != 7 || d.Year != 1999 {
		t.Fatalf("date = %+v", d)
	}
	if ts := fix.Timestamp(); ts.Hour != 20 || ts.Minute != 15 || ts.Second != 30 {
		t.Fatalf("timestamp = %+v", ts)
	}

	// The ZDA year re-bases two-digit RMC years permanently.
	mustDecode(t, p, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	if d := fix.Date(); d.Year != 1994 {
		t.Fatalf("year = %d, want 1994 after ZDA century override", d.Year)
	}
}

func TestGNS_ModeGatesPosition(t *testing.T) {
	p := New(Config{})
	// No valid-fix letters in the mode string: position untouched.
	mustDecode(t, p, "GNGNS,103600.01,5114.51176,N,00012.29380,W,NNNN,07,1.18,111.5,45.6,,")
	fix := p.Fix()
	if lat := fix.Latitude(); lat.Degrees != 0 {
		t.Fatalf("position must not commit on NNNN: %+v", lat)
	}
	// Sat count and HDOP still commit.
	if fix.SatellitesInUse() != 7 {
		t.Fatalf("satellites in use = %d, want 7", fix.SatellitesInUse())
	}
	if math.Abs(fix.HDOP()-1.18) > 1e-9 {
		t.Fatalf("hdop = %v", fix.HDOP())
	}

	mustDecode(t, p, "GNGNS,103601.01,5114.51176,N,00012.29380,W,RRNN,07,1.18,111.5,45.6,2.0,0531")
	if lat := fix.Latitude(); lat.Degrees != 51 {
		t.Fatalf("position must commit on RTK mode: %+v", lat)
	}
	if age, ok := fix.DGPSAge(); !ok || math.Abs(age-2.0) > 1e-9 {
		t.Fatalf("dgps age = %v %v", age, ok)
	}
	if station, ok := fix.DGPSStation(); !ok || station != 531 {
		t.Fatalf("dgps station = %v %v", station, ok)
	}
}

func TestGNS_BadPositionCommitsRest(t *testing.T) {
	p := New(Config{})
	// Unparseable latitude: the position portion is skipped, the
	// independent fields still land.
	mustDecode(t, p, "GNGNS,103600.01,badlat,N,00012.29380,W,AANN,09,1.18,111.5,45.6,,")
	fix := p.Fix()
	if lat := fix.Latitude(); lat.Degrees != 0 {
		t.Fatalf("position must not commit: %+v", lat)
	}
	if fix.SatellitesInUse() != 9 {
		t.Fatalf("satellites in use = %d, want 9", fix.SatellitesInUse())
	}
}

func TestTimeSinceFix(t *testing.T) {
	p := New(Config{})
	fix := p.Fix()
	if _, ok := fix.TimeSinceFix(); ok {
		t.Fatalf("no fix yet: ok must be false")
	}

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	fix.now = func() time.Time { return now }

	mustDecode(t, p, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230324,003.1,W")
	now = base.Add(1500 * time.Millisecond)

	d, ok := fix.TimeSinceFix()
	if !ok || d != 1500*time.Millisecond {
		t.Fatalf("time since fix = %v %v", d, ok)
	}
}
