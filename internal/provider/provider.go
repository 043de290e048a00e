// internal/provider/provider.go
package provider

import (
	"context"

	"core-banking-service/internal/domain"
)

// CoreBankingProvider defines what the bridge needs from a core banking system
type CoreBankingProvider interface {
	// GetName returns the provider name
	GetName() string

	// BuildNewLoan builds a loan disbursement request
	BuildNewLoan(req *domain.NewLoanRequest) (*Request, error)

	// BuildLoanPayment builds a loan payment request
	BuildLoanPayment(req *domain.MakeLoanPaymentRequest) (*Request, error)

	// BuildAccountInquiry builds an account inquiry request
	BuildAccountInquiry(req *domain.GetAccountInfoRequest) (*Request, error)

	// BuildTransfer builds a funds transfer request
	BuildTransfer(req *domain.TransferFundsRequest) (*Request, error)

	// Send delivers a built request. Transport and protocol failures are
	// reported in the result, never as an error.
	Send(ctx context.Context, req *Request) *domain.Result
}

// Request is a fully built call, ready to be sent.
type Request struct {
	Operation   domain.Operation
	MessageID   string
	ServicePath string
	Body        []byte
}
