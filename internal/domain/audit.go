// internal/domain/audit.go
package domain

import (
	"encoding/json"
	"time"
)

const (
	AuditTableCoreBanking = "core_banking"
	AuditChangedBySystem  = "system"
)

// AuditLogEntry is an append-only row of audit_logs.
type AuditLogEntry struct {
	ID        string          `json:"id" db:"id"`
	TableName string          `json:"table_name" db:"table_name"`
	RecordID  string          `json:"record_id" db:"record_id"`
	Operation string          `json:"operation" db:"operation"`
	OldData   json.RawMessage `json:"old_data,omitempty" db:"old_data"`
	NewData   json.RawMessage `json:"new_data" db:"new_data"`
	ChangedBy string          `json:"changed_by" db:"changed_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
