// Package feed runs the byte-stream reader that drives the NMEA parser.
//
// It owns the single goroutine allowed to touch the parser, tees raw
// characters to an optional capture log, and publishes read-only
// snapshots for the web/MQTT layers.
package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"gnssfeed/internal/metrics"
	"gnssfeed/internal/nmea"
)

// Config controls the feed service.
//
// Source selects how NMEA characters are ingested: "serial" (direct
// device), "file" (capture replay), or "stdin". Device may be empty for
// serial to auto-detect a /dev/ttyACM* or /dev/ttyUSB* receiver.
type Config struct {
	Source string
	Device string
	Baud   int
	Path   string

	Parser nmea.Config

	RawLogPath string
	RawLogMode string // "append" or "new"
}

// SentenceSink receives each successfully decoded sentence, re-framed
// with NMEA's $...*HH envelope. Implementations must not block for long;
// they run on the read loop.
type SentenceSink interface {
	Send(payload []byte) error
}

type Service struct {
	cfg  Config
	sink SentenceSink

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last atomic.Value // Snapshot

	mu     sync.Mutex
	closer io.Closer
	rawLog *os.File
}

func New(cfg Config, sink SentenceSink) *Service {
	s := &Service{cfg: cfg, sink: sink}
	src := strings.ToLower(strings.TrimSpace(cfg.Source))
	if src == "" {
		src = "serial"
	}
	s.cfg.Source = src
	s.last.Store(Snapshot{Source: src, Device: cfg.Device, Baud: cfg.Baud})
	return s
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("feed service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	var (
		rc     io.ReadCloser
		device string
		err    error
	)
	switch s.cfg.Source {
	case "file":
		rc, err = os.Open(s.cfg.Path)
		device = s.cfg.Path
	case "stdin":
		rc = io.NopCloser(os.Stdin)
		device = "stdin"
	default:
		device = strings.TrimSpace(s.cfg.Device)
		if device == "" {
			device = autoDetectDevice()
			if device == "" {
				return fmt.Errorf("serial auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
			}
		}
		baud := s.cfg.Baud
		if baud == 0 {
			baud = 9600
		}
		rc, err = openSerial(device, baud)
	}
	if err != nil {
		return fmt.Errorf("feed open failed: %w", err)
	}
	s.closer = rc

	if s.cfg.RawLogPath != "" {
		f, err := openRawLog(s.cfg.RawLogPath, s.cfg.RawLogMode)
		if err != nil {
			_ = rc.Close()
			s.closer = nil
			return err
		}
		s.rawLog = f
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = rc.Close() }()

		log.Printf("feed enabled source=%s device=%s", s.cfg.Source, device)
		s.run(childCtx, rc, device, s.rawLog)
	}()

	s.last.Store(Snapshot{Source: s.cfg.Source, Device: device, Baud: s.cfg.Baud})
	return nil
}

// run is the read loop: one byte at a time into the parser, snapshots on
// every decoded sentence. It returns when the reader ends or ctx is
// canceled.
func (s *Service) run(ctx context.Context, r io.Reader, device string, rawLog io.Writer) {
	p := nmea.New(s.cfg.Parser)

	br := bufio.NewReaderSize(r, 512)

	// raw accumulates the bytes of the in-flight sentence so a decoded
	// one can be re-framed for the sink without the parser retaining
	// its input.
	raw := make([]byte, 0, 128)
	prev := p.Stats()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c, err := br.ReadByte()
		if err != nil {
			if err != io.EOF {
				s.setError(fmt.Sprintf("feed read stopped: %v", err))
			}
			// Publish the final state before exiting so file replays
			// leave their result visible.
			s.publish(p, device)
			return
		}
		metrics.BytesRead.Inc()

		if rawLog != nil && c >= 10 && c <= 126 {
			_, _ = rawLog.Write([]byte{c})
		}

		if c == '$' {
			raw = raw[:0]
		}
		if len(raw) < cap(raw) {
			raw = append(raw, c)
		}

		_, ok := p.Update(c)

		cur := p.Stats()
		if d := cur.CleanSentences - prev.CleanSentences; d > 0 {
			metrics.CleanSentences.Add(float64(d))
		}
		if d := cur.CRCFails - prev.CRCFails; d > 0 {
			metrics.ChecksumFailures.Add(float64(d))
		}
		prev = cur

		if !ok {
			continue
		}
		metrics.DecodedSentences.Inc()

		if s.sink != nil {
			if err := s.sink.Send(append(raw, '\r', '\n')); err != nil {
				metrics.ForwardErrors.Inc()
			}
		}
		s.publish(p, device)
	}
}

func (s *Service) publish(p *nmea.Parser, device string) {
	snap := buildSnapshot(p, s.cfg.Source, device, s.cfg.Baud)
	if prev, ok := s.last.Load().(Snapshot); ok && prev.LastError != "" {
		snap.LastError = prev.LastError
	}
	s.last.Store(snap)
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	rawLog := s.rawLog
	s.cancel = nil
	s.closer = nil
	s.rawLog = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
	if rawLog != nil {
		_ = rawLog.Close()
	}
}

// Snapshot returns the most recently published fix snapshot.
func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	return v.(Snapshot)
}

func (s *Service) setError(msg string) {
	cur := s.Snapshot()
	cur.LastError = msg
	s.last.Store(cur)
}

func autoDetectDevice() string {
	candidates := []string{}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func openRawLog(path, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if mode == "new" {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rawlog open failed: %w", err)
	}
	return f, nil
}
