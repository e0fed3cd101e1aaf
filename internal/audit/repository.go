package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository stores entries in the audit_logs table.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository on db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Log inserts entry. Metadata is stored as JSONB, NULL when empty.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit: nil db")
	}
	entry = entry.complete(time.Now())
	var metadata []byte
	if len(entry.Metadata) > 0 {
		metadata = entry.Metadata
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (id, actor, role, action, resource_type, resource_id, metadata, payload_digest, ip, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID,
		metadata, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt); err != nil {
		return fmt.Errorf("audit: insert %s: %w", entry.Action, err)
	}
	return nil
}
