// internal/domain/reconciliation.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReconciliationStatus string

const (
	// ReconPending: recorded before the core call, outcome not known yet.
	ReconPending ReconciliationStatus = "pending"
	// ReconConfirmed: core confirmed, portal tables not updated yet.
	ReconConfirmed ReconciliationStatus = "confirmed"
	ReconApplied   ReconciliationStatus = "applied"
	ReconFailed    ReconciliationStatus = "failed"
)

// ReconciliationTask is the durable intent to apply a core banking side
// effect to the portal tables. It outlives the request so a crash between
// the core call and the portal write can be repaired by the sweeper.
type ReconciliationTask struct {
	ID                 string               `json:"id" db:"id"`
	Operation          Operation            `json:"operation" db:"operation"`
	LoanID             uuid.UUID            `json:"loan_id" db:"loan_id"`
	Amount             decimal.Decimal      `json:"amount" db:"amount"`
	MessageID          string               `json:"message_id" db:"message_id"`
	ConfirmationNumber *string              `json:"confirmation_number,omitempty" db:"confirmation_number"`
	Status             ReconciliationStatus `json:"status" db:"status"`
	Attempts           int                  `json:"attempts" db:"attempts"`
	LastError          *string              `json:"last_error,omitempty" db:"last_error"`
	CreatedAt          time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at" db:"updated_at"`
	AppliedAt          *time.Time           `json:"applied_at,omitempty" db:"applied_at"`
}

// Confirmation returns the confirmation number or "" when not confirmed yet.
func (t *ReconciliationTask) Confirmation() string {
	if t.ConfirmationNumber == nil {
		return ""
	}
	return *t.ConfirmationNumber
}
