// internal/repository/loan_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"core-banking-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LoanRepository interface {
	// MarkDisbursed activates a loan with the core confirmation. changed is
	// false when the loan was already active with the same confirmation.
	MarkDisbursed(ctx context.Context, d *domain.LoanDisbursement) (changed bool, err error)
}

type loanRepo struct {
	db *pgxpool.Pool
}

func NewLoanRepository(db *pgxpool.Pool) LoanRepository {
	return &loanRepo{db: db}
}

func (r *loanRepo) MarkDisbursed(ctx context.Context, d *domain.LoanDisbursement) (bool, error) {
	query := `
		UPDATE loans
		SET status = $2,
		    core_confirmation = $3,
		    disbursed_at = $4
		WHERE id = $1
		  AND status <> $2
	`

	tag, err := r.db.Exec(ctx, query,
		d.LoanID,
		string(domain.LoanStatusActive),
		d.ConfirmationNumber,
		d.DisbursedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update loan %s: %w", d.LoanID, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var confirmation *string
	err = r.db.QueryRow(ctx, `SELECT core_confirmation FROM loans WHERE id = $1`, d.LoanID).Scan(&confirmation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrLoanNotFound
		}
		return false, fmt.Errorf("get loan %s: %w", d.LoanID, err)
	}
	if confirmation != nil && *confirmation == d.ConfirmationNumber {
		return false, nil
	}
	return false, domain.ErrLoanAlreadyActive
}
