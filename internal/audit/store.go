// internal/audit/store.go
package audit

import (
	"context"
	"database/sql"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"
)

// Record is one row of the notification audit trail.
type Record struct {
	EventID    string
	EventType  string
	Recipient  string
	TemplateID string
	Status     string
	Reason     string
	CreatedAt  time.Time
}

// Store persists dispatch outcomes to Postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertAuditSQL = `INSERT INTO notification_audit
	(event_id, event_type, recipient, template_id, status, reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Write records the outcomes of one event's dispatch batch.
func (s *Store) Write(ctx context.Context, eventID string, eventType models.EventType, results []models.DispatchResult) error {
	now := time.Now().UTC()
	for _, r := range results {
		_, err := s.db.ExecContext(ctx, insertAuditSQL,
			eventID, string(eventType), r.Recipient, r.TemplateID, string(r.Status), r.Reason, now)
		if err != nil {
			return errors.NewAuditWriteFailedError(err)
		}
	}
	return nil
}
