// internal/domain/loan.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPendingDisbursement LoanStatus = "pending_disbursement"
	LoanStatusActive              LoanStatus = "active"
)

const PaymentMethodCoreBanking = "core_banking"

// LoanPayment is a row of the portal's loan_payments table.
type LoanPayment struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	LoanID             uuid.UUID       `json:"loan_id" db:"loan_id"`
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate        time.Time       `json:"payment_date" db:"payment_date"`
	PaymentMethod      string          `json:"payment_method" db:"payment_method"`
	ConfirmationNumber string          `json:"confirmation_number" db:"confirmation_number"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// LoanDisbursement carries what is stamped on a loan once the core confirms it.
type LoanDisbursement struct {
	LoanID             uuid.UUID
	ConfirmationNumber string
	DisbursedAt        time.Time
}
