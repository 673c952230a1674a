// Package publish pushes decoded fix snapshots to an MQTT broker so
// other systems on the network can consume position data without
// speaking NMEA.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gnssfeed/internal/feed"
	"gnssfeed/internal/metrics"
)

// SnapshotSource supplies the current decoded position state.
type SnapshotSource interface {
	Snapshot() feed.Snapshot
}

type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Interval time.Duration
}

// Publisher periodically serializes the fix snapshot as JSON and
// publishes it at QoS 0 with the retained flag set, so late subscribers
// see the last known position immediately.
type Publisher struct {
	cfg    Config
	source SnapshotSource
	client mqtt.Client

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(cfg Config, source SnapshotSource) *Publisher {
	return &Publisher{cfg: cfg, source: source}
}

func (p *Publisher) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(p.cfg.Broker).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", p.cfg.Broker, token.Error())
	}
	p.client = client
	log.Printf("mqtt: connected to %s, publishing to %s every %s", p.cfg.Broker, p.cfg.Topic, p.cfg.Interval)

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run(ctx)
	return nil
}

func (p *Publisher) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishOnce()
		}
	}
}

func (p *Publisher) publishOnce() {
	snap := p.source.Snapshot()
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("mqtt: marshal error: %v", err)
		metrics.MQTTPublishErrors.Inc()
		return
	}
	token := p.client.Publish(p.cfg.Topic, 0, true, payload)
	token.Wait()
	if token.Error() != nil {
		log.Printf("mqtt: publish error: %v", token.Error())
		metrics.MQTTPublishErrors.Inc()
		return
	}
	metrics.MQTTPublishes.Inc()
}

func (p *Publisher) Close() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	if p.client != nil {
		p.client.Disconnect(250)
	}
}
