// internal/repository/reconciliation_repo.go
package repository

import (
	"context"
	"fmt"
	"time"

	"core-banking-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ReconciliationRepository interface {
	Create(ctx context.Context, task *domain.ReconciliationTask) error
	MarkConfirmed(ctx context.Context, id, confirmationNumber string) error
	MarkFailed(ctx context.Context, id, reason string) error
	MarkApplied(ctx context.Context, id string) error
	// RecordAttempt bumps the attempt counter and keeps the last apply error.
	RecordAttempt(ctx context.Context, id, lastError string) error
	ListConfirmed(ctx context.Context, limit int) ([]*domain.ReconciliationTask, error)
	CountStalePending(ctx context.Context, olderThan time.Time) (int, error)
}

type reconciliationRepo struct {
	db *pgxpool.Pool
}

func NewReconciliationRepository(db *pgxpool.Pool) ReconciliationRepository {
	return &reconciliationRepo{db: db}
}

func (r *reconciliationRepo) Create(ctx context.Context, task *domain.ReconciliationTask) error {
	query := `
		INSERT INTO core_banking_reconciliations (
			id, operation, loan_id, amount, message_id, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		task.ID,
		task.Operation,
		task.LoanID,
		task.Amount,
		task.MessageID,
		task.Status,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reconciliation task %s already exists: %w", task.ID, err)
		}
		return fmt.Errorf("insert reconciliation task: %w", err)
	}
	return nil
}

func (r *reconciliationRepo) MarkConfirmed(ctx context.Context, id, confirmationNumber string) error {
	query := `
		UPDATE core_banking_reconciliations
		SET status = $2, confirmation_number = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`
	return r.exec(ctx, "confirm", query, id, domain.ReconConfirmed, confirmationNumber, domain.ReconPending)
}

func (r *reconciliationRepo) MarkFailed(ctx context.Context, id, reason string) error {
	query := `
		UPDATE core_banking_reconciliations
		SET status = $2, last_error = $3, updated_at = NOW()
		WHERE id = $1 AND status IN ($4, $5)
	`
	return r.exec(ctx, "fail", query, id, domain.ReconFailed, reason, domain.ReconPending, domain.ReconConfirmed)
}

func (r *reconciliationRepo) MarkApplied(ctx context.Context, id string) error {
	query := `
		UPDATE core_banking_reconciliations
		SET status = $2, attempts = attempts + 1, last_error = NULL,
		    applied_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
	`
	return r.exec(ctx, "apply", query, id, domain.ReconApplied, domain.ReconConfirmed)
}

func (r *reconciliationRepo) RecordAttempt(ctx context.Context, id, lastError string) error {
	query := `
		UPDATE core_banking_reconciliations
		SET attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "record attempt on", query, id, lastError)
}

func (r *reconciliationRepo) exec(ctx context.Context, action, query string, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s reconciliation task %v: %w", action, args[0], err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s reconciliation task %v: %w", action, args[0], domain.ErrTaskNotFound)
	}
	return nil
}

func (r *reconciliationRepo) ListConfirmed(ctx context.Context, limit int) ([]*domain.ReconciliationTask, error) {
	query := `
		SELECT
			id, operation, loan_id, amount::text, message_id, confirmation_number,
			status, attempts, last_error, created_at, updated_at, applied_at
		FROM core_banking_reconciliations
		WHERE status = $1
		ORDER BY id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, domain.ReconConfirmed, limit)
	if err != nil {
		return nil, fmt.Errorf("list confirmed reconciliation tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.ReconciliationTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliation tasks: %w", err)
	}
	return tasks, nil
}

func (r *reconciliationRepo) CountStalePending(ctx context.Context, olderThan time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM core_banking_reconciliations
		WHERE status = $1 AND created_at < $2
	`
	var n int
	if err := r.db.QueryRow(ctx, query, domain.ReconPending, olderThan).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stale reconciliation tasks: %w", err)
	}
	return n, nil
}

func scanTask(row pgx.Row) (*domain.ReconciliationTask, error) {
	var (
		task   domain.ReconciliationTask
		amount string
	)
	err := row.Scan(
		&task.ID,
		&task.Operation,
		&task.LoanID,
		&amount,
		&task.MessageID,
		&task.ConfirmationNumber,
		&task.Status,
		&task.Attempts,
		&task.LastError,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.AppliedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan reconciliation task: %w", err)
	}
	if task.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount of task %s: %w", task.ID, err)
	}
	return &task, nil
}
