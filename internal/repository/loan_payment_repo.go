// internal/repository/loan_payment_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"core-banking-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LoanPaymentRepository interface {
	// Create inserts the payment unless one with the same confirmation number
	// exists. created is false for the duplicate case.
	Create(ctx context.Context, payment *domain.LoanPayment) (created bool, err error)
}

type loanPaymentRepo struct {
	db *pgxpool.Pool
}

func NewLoanPaymentRepository(db *pgxpool.Pool) LoanPaymentRepository {
	return &loanPaymentRepo{db: db}
}

func (r *loanPaymentRepo) Create(ctx context.Context, payment *domain.LoanPayment) (bool, error) {
	query := `
		INSERT INTO loan_payments (
			loan_id, amount, payment_date, payment_method, confirmation_number
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (confirmation_number) DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		payment.LoanID,
		payment.Amount,
		payment.PaymentDate,
		payment.PaymentMethod,
		payment.ConfirmationNumber,
	).Scan(&payment.ID, &payment.CreatedAt)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err):
		return false, nil
	default:
		return false, fmt.Errorf("insert loan payment %s: %w", payment.ConfirmationNumber, err)
	}
}
