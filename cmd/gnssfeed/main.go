package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gnssfeed/internal/config"
	"gnssfeed/internal/feed"
	"gnssfeed/internal/nmea"
	"gnssfeed/internal/pps"
	"gnssfeed/internal/publish"
	"gnssfeed/internal/udp"
	"gnssfeed/internal/web"
)

func main() {
	var configPath string
	var summarizePath string
	flag.StringVar(&configPath, "config", "./gnssfeed.yaml", "Path to YAML config")
	flag.StringVar(&summarizePath, "summarize", "", "Summarize an NMEA capture file and exit")
	flag.Parse()

	if summarizePath != "" {
		if err := printCaptureSummary(summarizePath); err != nil {
			log.Fatalf("summarize failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var sink feed.SentenceSink
	if cfg.Forward.Enable {
		fwd, err := udp.NewForwarder(cfg.Forward.Dest)
		if err != nil {
			log.Fatalf("udp forwarder init failed: %v", err)
		}
		defer fwd.Close()
		sink = fwd
		log.Printf("forward enabled dest=%s", cfg.Forward.Dest)
	}

	feedCfg := feed.Config{
		Source: cfg.Input.Source,
		Device: cfg.Input.Device,
		Baud:   cfg.Input.Baud,
		Path:   cfg.Input.Path,
		Parser: parserConfig(cfg.Parser),
	}
	if cfg.RawLog.Enable {
		feedCfg.RawLogPath = cfg.RawLog.Path
		feedCfg.RawLogMode = cfg.RawLog.Mode
	}

	svc := feed.New(feedCfg, sink)
	if err := svc.Start(ctx); err != nil {
		log.Fatalf("feed start failed: %v", err)
	}
	defer svc.Close()

	var ppsMon *pps.Monitor
	if cfg.PPS.Enable {
		ppsMon = pps.New(pps.Config{GPIOPin: cfg.PPS.GPIOPin})
		if err := ppsMon.Start(ctx); err != nil {
			// PPS is an enhancement, not a prerequisite for position data.
			log.Printf("pps unavailable: %v", err)
			ppsMon = nil
		} else {
			log.Printf("pps enabled gpio=%d", cfg.PPS.GPIOPin)
		}
	}

	var live *web.LiveBroadcaster
	if cfg.Web.Enable {
		live = web.NewLiveBroadcaster()
		go func() {
			err := web.Serve(ctx, cfg.Web.Listen, svc, live, ppsMon)
			if err != nil && ctx.Err() == nil {
				log.Printf("web server stopped: %v", err)
				cancel()
			}
		}()
		log.Printf("web enabled listen=%s", cfg.Web.Listen)
	}

	if cfg.MQTT.Enable {
		pub := publish.New(publish.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			Interval: cfg.MQTT.Interval,
		}, svc)
		if err := pub.Start(ctx); err != nil {
			log.Fatalf("mqtt start failed: %v", err)
		}
		defer pub.Close()
	}

	go statusLoop(ctx, svc, live, ppsMon)

	log.Printf("gnssfeed starting source=%s", feedCfg.Source)
	<-ctx.Done()
	log.Printf("gnssfeed stopping")
}

func parserConfig(pc config.ParserConfig) nmea.Config {
	cfg := nmea.Config{
		UTCOffsetHours: pc.UTCOffsetHours,
		Century:        pc.Century,
	}
	switch pc.CoordFormat {
	case "dd":
		cfg.CoordFormat = nmea.FormatDD
	case "dms":
		cfg.CoordFormat = nmea.FormatDMS
	default:
		cfg.CoordFormat = nmea.FormatDDM
	}
	return cfg
}

// statusLoop feeds the live WebSocket broadcaster once a second and
// writes a one-line summary to the log once a minute.
func statusLoop(ctx context.Context, svc *feed.Service, live *web.LiveBroadcaster, ppsMon *pps.Monitor) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var tick int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := svc.Snapshot()
		live.Publish(snap)

		tick++
		if tick%60 != 0 {
			continue
		}
		line := statusLine(snap)
		if ppsMon != nil {
			ps := ppsMon.Snapshot()
			line += " pps_pulses=" + formatUint(ps.Pulses)
		}
		log.Print(line)
	}
}
