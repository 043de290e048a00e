// internal/domain/event.go
package domain

import "time"

const (
	EventLoanDisbursed       = "loan.disbursed"
	EventLoanPaymentRecorded = "loan.payment_recorded"
)

// CoreBankingEvent is published once a confirmed core operation has been
// reconciled into the portal tables.
type CoreBankingEvent struct {
	EventType          string    `json:"event_type"`
	LoanID             string    `json:"loan_id"`
	ConfirmationNumber string    `json:"confirmation_number"`
	Amount             string    `json:"amount,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}
