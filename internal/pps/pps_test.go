package pps

import (
	"testing"
	"time"
)

func TestPulseUpdatesSnapshot(t *testing.T) {
	m := New(Config{GPIOPin: 18})
	base := time.Date(2024, 3, 23, 12, 35, 19, 0, time.UTC)
	m.now = func() time.Time { return base }

	if snap := m.Snapshot(); snap.Pulses != 0 || snap.AgeSec != nil || snap.LastPulseUTC != "" {
		t.Fatalf("initial snapshot = %+v", snap)
	}

	m.pulse()
	m.pulse()

	m.now = func() time.Time { return base.Add(700 * time.Millisecond) }
	snap := m.Snapshot()
	if snap.Pulses != 2 {
		t.Fatalf("pulses = %d, want 2", snap.Pulses)
	}
	if snap.LastPulseUTC != "2024-03-23T12:35:19Z" {
		t.Fatalf("last pulse = %q", snap.LastPulseUTC)
	}
	if snap.AgeSec == nil || *snap.AgeSec != 0.7 {
		t.Fatalf("age = %v", snap.AgeSec)
	}
}

func TestCloseWithoutStart(t *testing.T) {
	m := New(Config{GPIOPin: 18})
	m.Close() // must not panic
}
