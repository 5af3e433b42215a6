// Package notify publishes rebuild events over NATS so downstream
// consumers (CDN invalidators, site deploy hooks) can react to fresh
// artifacts without polling the output tree.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/contentsync/internal/config"
	"git.home.luguber.info/inful/contentsync/internal/logfields"
)

// RebuildEvent is the payload published after each completed build.
type RebuildEvent struct {
	BuildID          string    `json:"build_id"`
	Timestamp        time.Time `json:"timestamp"`
	ArtifactsWritten int       `json:"artifacts_written"`
	WriteFailures    int       `json:"write_failures"`
	ArticlesIndexed  int       `json:"articles_indexed"`
	Outcome          string    `json:"outcome"`
}

// Publisher wraps a NATS connection scoped to a single subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the configured NATS server. Callers must check
// cfg.Enabled before constructing one.
func NewPublisher(cfg *config.NotifyConfig) (*Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notify config is required")
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("contentsync"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("Rebuild notifications enabled",
		logfields.URL(cfg.NATSURL),
		logfields.Subject(cfg.Subject))

	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// PublishRebuild publishes a rebuild event. The event timestamp is stamped
// here so callers only describe the build.
func (p *Publisher) PublishRebuild(event RebuildEvent) error {
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal rebuild event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish rebuild event: %w", err)
	}

	slog.Debug("Published rebuild event",
		logfields.BuildID(event.BuildID),
		logfields.Subject(p.subject))

	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if p.conn != nil {
		if err := p.conn.Flush(); err != nil {
			p.conn.Close()
			return fmt.Errorf("failed to flush NATS connection: %w", err)
		}
		p.conn.Close()
	}
	return nil
}
