// Package audit records who ran which mutating command.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Entry is one audited command.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger persists audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// DigestJSON is the SHA-256 hex digest of a metadata payload, or "" when empty.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// complete fills the id, timestamp and digest left empty by the caller.
func (e Entry) complete(now time.Time) Entry {
	if e.ID == "" {
		e.ID = "audit-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if e.PayloadDigest == "" {
		e.PayloadDigest = DigestJSON(e.Metadata)
	}
	return e
}

// LogLogger writes entries as structured log lines. The memory store uses it.
type LogLogger struct {
	logger zerolog.Logger
}

// NewLogLogger constructs a LogLogger.
func NewLogLogger(logger zerolog.Logger) *LogLogger {
	return &LogLogger{logger: logger.With().Str("component", "audit").Logger()}
}

// Log writes entry at info level.
func (l *LogLogger) Log(_ context.Context, entry Entry) error {
	entry = entry.complete(time.Now())
	event := l.logger.Info().
		Str("audit_id", entry.ID).
		Str("actor", entry.Actor).
		Str("role", entry.Role).
		Str("action", entry.Action).
		Str("resource", entry.ResourceType+"/"+entry.ResourceID).
		Str("payload_digest", entry.PayloadDigest).
		Str("ip", entry.IP).
		Time("at", entry.CreatedAt)
	if len(entry.Metadata) > 0 && json.Valid(entry.Metadata) {
		event = event.RawJSON("metadata", entry.Metadata)
	}
	event.Msg("audit")
	return nil
}
