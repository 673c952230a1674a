//go:build !linux || (!arm && !arm64)

package pps

import "fmt"

// Stub implementation for non-Linux and/or non-ARM platforms.
func openPPSLine(pin int, onPulse func()) (ppsLine, error) {
	return nil, fmt.Errorf("pps: gpio unsupported on this platform")
}
