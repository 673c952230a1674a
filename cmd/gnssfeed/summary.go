package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gnssfeed/internal/feed"
	"gnssfeed/internal/nmea"
)

type captureSummary struct {
	Bytes        int
	Clean        uint64
	Parsed       uint64
	CRCFails     uint64
	HeaderCounts map[string]int
}

// summarizeCapture runs a raw NMEA byte stream through the parser and
// tallies decoded sentences by header ("GPGGA", "GNRMC", ...).
func summarizeCapture(r io.Reader) (captureSummary, error) {
	s := captureSummary{HeaderCounts: map[string]int{}}
	p := nmea.New(nmea.Config{})

	br := bufio.NewReader(r)
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return s, err
		}
		s.Bytes++
		if header, ok := p.Update(c); ok {
			s.HeaderCounts[header]++
		}
	}

	stats := p.Stats()
	s.Clean = stats.CleanSentences
	s.Parsed = stats.ParsedSentences
	s.CRCFails = stats.CRCFails
	return s, nil
}

func printCaptureSummary(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := summarizeCapture(f)
	if err != nil {
		return err
	}

	fmt.Printf("path: %s\n", path)
	fmt.Printf("bytes: %d\n", s.Bytes)
	fmt.Printf("clean_sentences: %d\n", s.Clean)
	fmt.Printf("parsed_sentences: %d\n", s.Parsed)
	fmt.Printf("crc_fails: %d\n", s.CRCFails)

	headers := make([]string, 0, len(s.HeaderCounts))
	for h := range s.HeaderCounts {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	fmt.Printf("header_counts:\n")
	for _, h := range headers {
		fmt.Printf("  %s: %d\n", h, s.HeaderCounts[h])
	}
	return nil
}

func statusLine(snap feed.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "status valid=%t sats=%d/%d", snap.Valid, snap.SatellitesInUse, snap.SatellitesInView)
	if snap.Valid {
		fmt.Fprintf(&b, " pos=%.5f,%.5f alt=%.1fm", snap.LatDeg, snap.LonDeg, snap.AltitudeM)
	}
	fmt.Fprintf(&b, " clean=%d parsed=%d crc_fails=%d",
		snap.Stats.CleanSentences, snap.Stats.ParsedSentences, snap.Stats.CRCFails)
	return b.String()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
