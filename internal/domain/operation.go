// internal/domain/operation.go
package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Operation string

const (
	OpNewLoan         Operation = "newLoan"
	OpMakeLoanPayment Operation = "makeLoanPayment"
	OpGetAccountInfo  Operation = "getAccountInfo"
	OpTransferFunds   Operation = "transferFunds"
	OpSyncBalances    Operation = "syncBalances"
)

// Valid reports whether o is one of the operations the bridge understands.
func (o Operation) Valid() bool {
	switch o {
	case OpNewLoan, OpMakeLoanPayment, OpGetAccountInfo, OpTransferFunds, OpSyncBalances:
		return true
	}
	return false
}

// CoreBankingRequest is the JSON envelope posted by the portal.
type CoreBankingRequest struct {
	Operation Operation       `json:"operation"`
	Data      json.RawMessage `json:"data"`
}

// DecodeData unmarshals the operation payload into dst.
func (r *CoreBankingRequest) DecodeData(dst interface{}) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return fmt.Errorf("%w: data is required", ErrInvalidPayload)
	}
	if err := json.Unmarshal(r.Data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// LoanRef is an optional reference to a portal loan row. JSON null, a missing
// field and "" all mean no reference.
type LoanRef struct {
	ID    uuid.UUID
	Valid bool
}

func (r *LoanRef) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*r = LoanRef{}
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*s))
	if err != nil {
		return err
	}
	*r = LoanRef{ID: id, Valid: true}
	return nil
}

func (r LoanRef) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID.String())
}

// Ptr returns the id, or nil when there is no reference.
func (r LoanRef) Ptr() *uuid.UUID {
	if !r.Valid {
		return nil
	}
	id := r.ID
	return &id
}

// ============================================
// OPERATION PAYLOADS
// ============================================

type NewLoanRequest struct {
	AccountNumber string              `json:"accountNumber"`
	LoanID        string              `json:"loanId"`
	TotalAmount   decimal.NullDecimal `json:"totalAmount"`
	CheckAmount   decimal.NullDecimal `json:"checkAmount"`
	PayeeName     string              `json:"payeeName,omitempty"`
	Comment       string              `json:"comment,omitempty"`

	// Portal loan row to activate once the core confirms the disbursement.
	LoanApplicationID LoanRef `json:"loanApplicationId"`
}

func (r *NewLoanRequest) Validate() error {
	if r.AccountNumber == "" {
		return missing("accountNumber")
	}
	if r.LoanID == "" {
		return missing("loanId")
	}
	if err := requireAmount("totalAmount", r.TotalAmount); err != nil {
		return err
	}
	return requireAmount("checkAmount", r.CheckAmount)
}

type MakeLoanPaymentRequest struct {
	AccountNumber string              `json:"accountNumber"`
	LoanID        string              `json:"loanId"`
	PaymentAmount decimal.NullDecimal `json:"paymentAmount"`
	SourceShareID string              `json:"sourceShareId"`

	// Member home banking credentials. Both must be set for the payment to
	// be posted under the member's identity.
	UserID   string `json:"userId,omitempty"`
	Password string `json:"password,omitempty"`

	// Portal loan row that receives the payment record.
	SupabaseLoanID LoanRef `json:"supabaseLoanId"`
}

func (r *MakeLoanPaymentRequest) Validate() error {
	if r.AccountNumber == "" {
		return missing("accountNumber")
	}
	if r.LoanID == "" {
		return missing("loanId")
	}
	if r.SourceShareID == "" {
		return missing("sourceShareId")
	}
	return requireAmount("paymentAmount", r.PaymentAmount)
}

// HomeBanking returns the member credentials when both halves are present.
func (r *MakeLoanPaymentRequest) HomeBanking() (userID, password string, ok bool) {
	if r.UserID != "" && r.Password != "" {
		return r.UserID, r.Password, true
	}
	return "", "", false
}

type GetAccountInfoRequest struct {
	AccountNumber string `json:"accountNumber"`
	IncludeLoans  *bool  `json:"includeLoans,omitempty"`
	IncludeShares *bool  `json:"includeShares,omitempty"`
}

func (r *GetAccountInfoRequest) Validate() error {
	if r.AccountNumber == "" {
		return missing("accountNumber")
	}
	return nil
}

// WantLoans defaults to true when the flag is omitted.
func (r *GetAccountInfoRequest) WantLoans() bool {
	return r.IncludeLoans == nil || *r.IncludeLoans
}

// WantShares defaults to true when the flag is omitted.
func (r *GetAccountInfoRequest) WantShares() bool {
	return r.IncludeShares == nil || *r.IncludeShares
}

type TransferFundsRequest struct {
	FromAccountNumber string              `json:"fromAccountNumber"`
	ToAccountNumber   string              `json:"toAccountNumber"`
	FromShareID       string              `json:"fromShareId"`
	ToShareID         string              `json:"toShareId"`
	Amount            decimal.NullDecimal `json:"amount"`
	Comment           string              `json:"comment,omitempty"`
}

func (r *TransferFundsRequest) Validate() error {
	switch {
	case r.FromAccountNumber == "":
		return missing("fromAccountNumber")
	case r.ToAccountNumber == "":
		return missing("toAccountNumber")
	case r.FromShareID == "":
		return missing("fromShareId")
	case r.ToShareID == "":
		return missing("toShareId")
	}
	return requireAmount("amount", r.Amount)
}

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidPayload, field)
}

func requireAmount(field string, amount decimal.NullDecimal) error {
	if !amount.Valid {
		return missing(field)
	}
	if amount.Decimal.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidPayload, field)
	}
	return nil
}
