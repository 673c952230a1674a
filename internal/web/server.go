package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gnssfeed/internal/feed"
	"gnssfeed/internal/pps"
)

// SnapshotSource supplies the current decoded position state.
// Implementations must be safe to call concurrently.
type SnapshotSource interface {
	Snapshot() feed.Snapshot
}

// statusResponse is the /api/status payload: the fix snapshot plus the
// PPS heartbeat when a monitor is running.
type statusResponse struct {
	feed.Snapshot
	PPS *pps.Snapshot `json:"pps,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local appliance, no cross-origin concerns
	},
}

func Handler(source SnapshotSource, live *LiveBroadcaster, ppsMon *pps.Monitor) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		resp := statusResponse{Snapshot: source.Snapshot()}
		if ppsMon != nil {
			ps := ppsMon.Snapshot()
			resp.PPS = &ps
		}
		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	mux.HandleFunc("/api/live", func(w http.ResponseWriter, r *http.Request) {
		if live == nil {
			http.Error(w, "live stream unavailable", http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		id, ch := live.Subscribe(4)
		defer live.Unsubscribe(id)

		// Drain (and discard) client frames so close handshakes are noticed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case snap, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(snap); err != nil {
					return
				}
			case <-done:
				return
			case <-r.Context().Done():
				return
			}
		}
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := source.Snapshot()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>gnssfeed</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>gnssfeed</h1>")
		_, _ = fmt.Fprintf(w, "<p>See <a href=\"/api/status\">/api/status</a> and <a href=\"/metrics\">/metrics</a>.</p>")
		_, _ = fmt.Fprintf(w, "<pre>device=%s\nvalid=%t\nlatitude=%s\nlongitude=%s\nsatellites_in_use=%d</pre>",
			snap.Device, snap.Valid, snap.Latitude, snap.Longitude, snap.SatellitesInUse,
		)
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

func Serve(ctx context.Context, listenAddr string, source SnapshotSource, live *LiveBroadcaster, ppsMon *pps.Monitor) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           Handler(source, live, ppsMon),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
