// internal/repository/audit_repo.go
package repository

import (
	"context"
	"fmt"

	"core-banking-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditLogEntry) error
}

type auditRepo struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Insert(ctx context.Context, entry *domain.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (
			table_name, record_id, operation, old_data, new_data, changed_by
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at
	`

	err := r.db.QueryRow(ctx, query,
		entry.TableName,
		entry.RecordID,
		entry.Operation,
		entry.OldData,
		entry.NewData,
		entry.ChangedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
