// internal/provider/symxchange/requests.go
package symxchange

import (
	"strconv"

	"core-banking-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	defaultLoanComment     = "Loan Disbursement"
	defaultTransferComment = "Fund Transfer"
)

// Message id prefixes, one per operation.
const (
	prefixNewLoan        = "newLoan"
	prefixLoanPayment    = "loanPayment"
	prefixAccountInquiry = "accountInquiry"
	prefixTransfer       = "transfer"
)

// ============================================
// TRANSACTIONS SERVICE
// ============================================

func buildNewLoan(req *domain.NewLoanRequest, creds Credentials, checkIssuer, messageID string) ([]byte, error) {
	env := newEnvelope("tran:newLoan", messageID)
	r := env.request

	creds.render(r)
	field(r, "dto:AccountNumber", req.AccountNumber)
	field(r, "dto:LoanId", req.LoanID)

	amounts := r.CreateElement("LoanAmounts")
	field(amounts, "dto:TotalAmount", money(req.TotalAmount.Decimal))
	field(amounts, "CheckAmount", money(req.CheckAmount.Decimal))

	field(r, "dto:CheckIssuer", checkIssuer)
	field(r, "dto:Comment", orDefault(req.Comment, defaultLoanComment))

	if req.PayeeName != "" {
		line := r.CreateElement("dto:Payee").CreateElement("PayeeLine")
		line.CreateAttr("dto:PayeeLineNumber", "1")
		field(line, "LineValue", req.PayeeName)
	}

	return env.bytes()
}

func buildLoanPayment(req *domain.MakeLoanPaymentRequest, creds Credentials, messageID string) ([]byte, error) {
	env := newEnvelope("tran:makeLoanPayment", messageID)
	r := env.request

	creds.render(r)
	field(r, "dto:AccountNumber", req.AccountNumber)
	field(r, "dto:LoanId", req.LoanID)
	field(r, "dto:PaymentAmount", money(req.PaymentAmount.Decimal))
	field(r, "dto:SourceShareId", req.SourceShareID)

	return env.bytes()
}

func buildTransfer(req *domain.TransferFundsRequest, creds Credentials, messageID string) ([]byte, error) {
	env := newEnvelope("tran:transferFunds", messageID)
	r := env.request

	creds.render(r)
	field(r, "dto:FromAccountNumber", req.FromAccountNumber)
	field(r, "dto:ToAccountNumber", req.ToAccountNumber)
	field(r, "dto:FromShareId", req.FromShareID)
	field(r, "dto:ToShareId", req.ToShareID)
	field(r, "dto:Amount", money(req.Amount.Decimal))
	field(r, "dto:Comment", orDefault(req.Comment, defaultTransferComment))

	return env.bytes()
}

// ============================================
// INQUIRY SERVICE
// ============================================

func buildAccountInquiry(req *domain.GetAccountInfoRequest, creds Credentials, messageID string) ([]byte, error) {
	env := newEnvelope("inq:getAccountInfo", messageID)
	r := env.request

	creds.render(r)
	field(r, "dto:AccountNumber", req.AccountNumber)
	field(r, "IncludeLoans", strconv.FormatBool(req.WantLoans()))
	field(r, "IncludeShares", strconv.FormatBool(req.WantShares()))

	return env.bytes()
}

// money formats an amount with exactly two fraction digits.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
