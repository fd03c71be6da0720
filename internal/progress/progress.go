// Package progress publishes pipeline progress updates over NATS.
package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Status represents the execution status of a generator
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Progress represents a progress update for a generator
type Progress struct {
	RunID     string `json:"runId"`
	Generator string `json:"generator"`
	Status    Status `json:"status"`
	Files     int    `json:"files"`
	Message   string `json:"message,omitempty"`
}

// Reporter receives progress updates
type Reporter interface {
	Report(p Progress)
	Close()
}

// Subject returns the NATS subject updates of a run are published on
func Subject(runID string) string {
	return fmt.Sprintf("aot.run.%s.progress", runID)
}

// NATSReporter sends progress updates via NATS
type NATSReporter struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewReporter creates a NATS based progress reporter. Reporting is best
// effort: without a URL, or if the connection fails, a no-op reporter is
// returned and the run goes on.
func NewReporter(natsURL, runID string, logger zerolog.Logger) Reporter {
	if natsURL == "" {
		return Noop{logger: logger}
	}
	subject := Subject(runID)

	nc, err := nats.Connect(natsURL, nats.Timeout(2*time.Second), nats.Name("aot-"+runID))
	if err != nil {
		logger.Warn().Err(err).Str("url", natsURL).Msg("NATS connection failed, progress reporting disabled")
		return Noop{logger: logger}
	}

	logger.Info().Str("subject", subject).Msg("NATS connected, publishing progress")
	return &NATSReporter{conn: nc, subject: subject, logger: logger}
}

// Report publishes p
func (r *NATSReporter) Report(p Progress) {
	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error().Err(err).Msg("progress marshal error")
		return
	}
	if err := r.conn.Publish(r.subject, data); err != nil {
		r.logger.Error().Err(err).Msg("progress publish error")
	}
}

// Close drains and closes the NATS connection
func (r *NATSReporter) Close() {
	if err := r.conn.Drain(); err != nil {
		r.logger.Error().Err(err).Msg("NATS drain error")
	}
}

// Noop only logs updates
type Noop struct {
	logger zerolog.Logger
}

func (n Noop) Report(p Progress) {
	n.logger.Debug().
		Str("generator", p.Generator).
		Str("status", string(p.Status)).
		Int("files", p.Files).
		Msg("progress (no-op)")
}

func (Noop) Close() {}
