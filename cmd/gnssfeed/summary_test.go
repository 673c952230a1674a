package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gnssfeed/internal/config"
	"gnssfeed/internal/feed"
	"gnssfeed/internal/nmea"
)

const (
	ggaLine = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n"
	rmcLine = "$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62\r\n"
)

func TestSummarizeCapture(t *testing.T) {
	var capture strings.Builder
	capture.WriteString(ggaLine)
	capture.WriteString(ggaLine)
	capture.WriteString(rmcLine)
	// Well-formed checksum that does not match the payload.
	capture.WriteString("$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*00\r\n")
	// Valid checksum but an unsupported sentence type.
	capture.WriteString("$GPXTE,A,A,0.67,L,N*6F\r\n")

	s, err := summarizeCapture(strings.NewReader(capture.String()))
	if err != nil {
		t.Fatalf("summarizeCapture() error: %v", err)
	}
	if s.Parsed != 3 {
		t.Fatalf("parsed=%d want 3", s.Parsed)
	}
	if s.Clean != 4 {
		t.Fatalf("clean=%d want 4", s.Clean)
	}
	if s.CRCFails != 1 {
		t.Fatalf("crc_fails=%d want 1", s.CRCFails)
	}
	if s.HeaderCounts["GPGGA"] != 2 {
		t.Fatalf("count[GPGGA]=%d want 2", s.HeaderCounts["GPGGA"])
	}
	if s.HeaderCounts["GPRMC"] != 1 {
		t.Fatalf("count[GPRMC]=%d want 1", s.HeaderCounts["GPRMC"])
	}
}

func TestPrintCaptureSummary_PrintsExpectedFields(t *testing.T) {
	tmp := t.TempDir()
	capPath := filepath.Join(tmp, "nmea.log")
	if err := os.WriteFile(capPath, []byte(ggaLine+rmcLine), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	oldStdout := os.Stdout
	r, wpipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe() error: %v", err)
	}
	os.Stdout = wpipe

	printErr := printCaptureSummary(capPath)

	_ = wpipe.Close()
	os.Stdout = oldStdout

	if printErr != nil {
		_ = r.Close()
		t.Fatalf("printCaptureSummary() error: %v", printErr)
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()
	out := buf.String()

	if !strings.Contains(out, "path: ") {
		t.Fatalf("missing path in output: %q", out)
	}
	if !strings.Contains(out, "parsed_sentences: 2") {
		t.Fatalf("missing parsed count in output: %q", out)
	}
	if !strings.Contains(out, "GPGGA: 1") {
		t.Fatalf("missing GPGGA count in output: %q", out)
	}
	if !strings.Contains(out, "GPRMC: 1") {
		t.Fatalf("missing GPRMC count in output: %q", out)
	}
}

func TestParserConfigMapping(t *testing.T) {
	cfg := parserConfig(config.ParserConfig{UTCOffsetHours: -5, CoordFormat: "dms", Century: 19})
	if cfg.UTCOffsetHours != -5 || cfg.Century != 19 || cfg.CoordFormat != nmea.FormatDMS {
		t.Fatalf("parserConfig() = %+v", cfg)
	}
	if got := parserConfig(config.ParserConfig{}).CoordFormat; got != nmea.FormatDDM {
		t.Fatalf("default coord format = %v", got)
	}
}

func TestStatusLine(t *testing.T) {
	snap := feed.Snapshot{
		Valid:            true,
		LatDeg:           48.1173,
		LonDeg:           11.5167,
		AltitudeM:        545.4,
		SatellitesInUse:  8,
		SatellitesInView: 11,
		Stats:            nmea.Stats{CleanSentences: 10, ParsedSentences: 9, CRCFails: 1},
	}
	line := statusLine(snap)
	if !strings.Contains(line, "valid=true") || !strings.Contains(line, "sats=8/11") {
		t.Fatalf("statusLine() = %q", line)
	}
	if !strings.Contains(line, "pos=48.11730,11.51670") {
		t.Fatalf("statusLine() = %q", line)
	}
	if !strings.Contains(line, "clean=10 parsed=9 crc_fails=1") {
		t.Fatalf("statusLine() = %q", line)
	}

	invalid := statusLine(feed.Snapshot{})
	if strings.Contains(invalid, "pos=") {
		t.Fatalf("statusLine() without fix = %q", invalid)
	}
}
