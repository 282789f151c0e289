package pg

import (
	"context"
	"database/sql"
	"encoding/json"

	"paddock.events/internal/audit"
	"paddock.events/internal/ids"
)

// AuditStore appends immutable entries. No update or delete statements exist
// on the audit_log table.
type AuditStore struct{ db *sql.DB }

var _ audit.Store = (*AuditStore)(nil)

func (s *AuditStore) Append(ctx context.Context, entry *audit.Entry) error {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		// Keep the row; record what went wrong in place of the payload.
		details, _ = json.Marshal(map[string]string{"marshal_error": err.Error()})
	}
	_, err = s.db.ExecContext(ctx,
		`insert into audit_log(id, occurred_at, actor_id, action, resource_type, resource_id, details, outcome)
		 values($1,$2,nullif($3,''),$4,$5,$6,$7,$8)`,
		entry.ID, entry.OccurredAt, entry.ActorID, entry.Action,
		entry.ResourceType, entry.ResourceID, details, string(entry.Outcome),
	)
	return err
}
