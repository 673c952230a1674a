// Package pps counts pulse-per-second edges from a GNSS receiver's PPS
// output on a GPIO line. The pulse train is a hardware heartbeat: a
// receiver with a fix raises the line once per second on the UTC second
// boundary, so pulse age is a cheap fix-health signal independent of
// the serial stream.
package pps

import (
	"context"
	"sync"
	"time"

	"gnssfeed/internal/metrics"
)

type Config struct {
	GPIOPin int
}

type Snapshot struct {
	Pulses       uint64   `json:"pulses"`
	LastPulseUTC string   `json:"last_pulse_utc,omitempty"`
	AgeSec       *float64 `json:"age_sec,omitempty"`
}

// Monitor watches a single GPIO line for rising edges.
type Monitor struct {
	cfg Config

	mu        sync.Mutex
	pulses    uint64
	lastPulse time.Time
	line      ppsLine

	now func() time.Time
}

// ppsLine is the platform hook. The Linux backend drives it from the
// GPIO character device; elsewhere Start fails.
type ppsLine interface {
	Close() error
}

func New(cfg Config) *Monitor {
	return &Monitor{cfg: cfg, now: time.Now}
}

func (m *Monitor) Start(ctx context.Context) error {
	line, err := openPPSLine(m.cfg.GPIOPin, m.pulse)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.line = line
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.Close()
	}()
	return nil
}

// pulse records one rising edge. Called from the GPIO event goroutine.
func (m *Monitor) pulse() {
	m.mu.Lock()
	m.pulses++
	m.lastPulse = m.now()
	m.mu.Unlock()
	metrics.PPSPulses.Inc()
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{Pulses: m.pulses}
	if !m.lastPulse.IsZero() {
		snap.LastPulseUTC = m.lastPulse.UTC().Format(time.RFC3339Nano)
		age := m.now().Sub(m.lastPulse).Seconds()
		snap.AgeSec = &age
	}
	return snap
}

func (m *Monitor) Close() {
	m.mu.Lock()
	line := m.line
	m.line = nil
	m.mu.Unlock()
	if line != nil {
		_ = line.Close()
	}
}
