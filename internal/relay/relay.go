// Package relay pushes monitor events to NATS so external consumers can
// follow a stream without holding an HTTP connection open.
package relay

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"redistics/internal/config"
	"redistics/internal/model"
)

// Publisher publishes monitor events to per-server NATS subjects.
type Publisher struct {
	nc     *nats.Conn
	prefix string
}

// NewPublisher connects to the configured NATS server.
func NewPublisher(cfg config.RelayConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, prefix: cfg.SubjectPrefix}, nil
}

// Subject returns the subject carrying one server's event stream.
func (p *Publisher) Subject(serverID string) string {
	return fmt.Sprintf("%s.monitor.%s", p.prefix, serverID)
}

// Publish sends one event as JSON to the server's subject.
func (p *Publisher) Publish(serverID string, ev model.MonitorEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.nc.Publish(p.Subject(serverID), data)
}

// Sink adapts the publisher to the engine's sink interface for one server.
// Publish failures are logged, never propagated into the stream.
func (p *Publisher) Sink(serverID string) model.EventSink {
	return model.SinkFunc(func(ev model.MonitorEvent) {
		if err := p.Publish(serverID, ev); err != nil {
			log.Printf("relay: publish to %s: %v", p.Subject(serverID), err)
		}
	})
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
