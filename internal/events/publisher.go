package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectEntryStored is published after every successful ingestion insert.
const SubjectEntryStored = "trial.entry.stored"

// EntryStoredEvent notifies downstream consumers (trial dashboards, site
// coordinators) that a new check-in landed.
type EntryStoredEvent struct {
	EntryID   int64  `json:"entry_id"`
	PatientID string `json:"patient_id"`
	Source    string `json:"source"`
	TraceID   string `json:"trace_id"`
	Timestamp string `json:"timestamp"`
}

// Publisher wraps a NATS connection. A nil *Publisher is valid and publishes
// nothing: event delivery is optional configuration, not a requirement.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func Connect(url string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, logger: logger}, nil
}

func (p *Publisher) EntryStored(evt EntryStoredEvent) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(SubjectEntryStored, payload)
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
