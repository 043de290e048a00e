package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"core-banking-service/config"
	"core-banking-service/internal/domain"
	"core-banking-service/internal/provider/symxchange"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func request(op domain.Operation, data string) *domain.CoreBankingRequest {
	return &domain.CoreBankingRequest{Operation: op, Data: json.RawMessage(data)}
}

func TestExecute_NewLoanActivatesLoan(t *testing.T) {
	loanID := uuid.New()
	h := newHarness(confirmed("C-100"), loanID)

	res, err := h.uc.Execute(context.Background(), request(domain.OpNewLoan,
		`{"accountNumber":"12345","loanId":"0042","totalAmount":1500,"checkAmount":1500,"loanApplicationId":"`+loanID.String()+`"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success || res.ConfirmationNumber != "C-100" {
		t.Fatalf("result = %+v", res)
	}

	loan := h.loans.loans[loanID]
	if loan.status != domain.LoanStatusActive || loan.confirmation != "C-100" || loan.disbursedAt.IsZero() {
		t.Errorf("loan = %+v", loan)
	}
	if task := h.tasks.only(); task == nil || task.Status != domain.ReconApplied {
		t.Errorf("task = %+v", task)
	}
	if len(h.publisher.events) != 1 || h.publisher.events[0].EventType != domain.EventLoanDisbursed {
		t.Errorf("events = %+v", h.publisher.events)
	}
	if len(h.audits.entries) != 1 || h.audits.entries[0].RecordID != "C-100" {
		t.Errorf("audit entries = %+v", h.audits.entries)
	}
}

func TestExecute_NewLoanWithoutApplicationIDTouchesNothing(t *testing.T) {
	h := newHarness(confirmed("C-101"))

	res, err := h.uc.Execute(context.Background(), request(domain.OpNewLoan,
		`{"accountNumber":"12345","loanId":"0042","totalAmount":10,"checkAmount":10}`))
	if err != nil || !res.Success {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	if len(h.tasks.tasks) != 0 || len(h.publisher.events) != 0 {
		t.Error("no reconciliation expected without a loan reference")
	}
	if len(h.audits.entries) != 1 {
		t.Errorf("audit entries = %d", len(h.audits.entries))
	}
}

func TestExecute_LoanPaymentRecordedOncePerConfirmation(t *testing.T) {
	loanID := uuid.New()
	h := newHarness(confirmed("C-200"), loanID)
	body := `{"accountNumber":"12345","loanId":"0042","paymentAmount":"250.5","sourceShareId":"0001","supabaseLoanId":"` + loanID.String() + `"}`

	for i := 0; i < 2; i++ {
		if _, err := h.uc.Execute(context.Background(), request(domain.OpMakeLoanPayment, body)); err != nil {
			t.Fatalf("Execute #%d: %v", i, err)
		}
	}

	if len(h.payments.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(h.payments.payments))
	}
	p := h.payments.payments["C-200"]
	if p.LoanID != loanID || p.Amount.StringFixed(2) != "250.50" || p.PaymentMethod != domain.PaymentMethodCoreBanking {
		t.Errorf("payment = %+v", p)
	}
	if p.PaymentDate.Hour() != 0 || p.PaymentDate.Location().String() != "UTC" {
		t.Errorf("payment date = %v, want a UTC date", p.PaymentDate)
	}
	if len(h.publisher.events) != 1 {
		t.Errorf("events = %d, want 1", len(h.publisher.events))
	}
	if len(h.audits.entries) != 2 {
		t.Errorf("audit entries = %d, want 2", len(h.audits.entries))
	}
}

func TestExecute_DistinctConfirmationsProduceDistinctPayments(t *testing.T) {
	loanID := uuid.New()
	h := newHarness(confirmed("C-1"), loanID)
	body := `{"accountNumber":"1","loanId":"1","paymentAmount":5,"sourceShareId":"S","supabaseLoanId":"` + loanID.String() + `"}`

	_, _ = h.uc.Execute(context.Background(), request(domain.OpMakeLoanPayment, body))
	h.provider.result = confirmed("C-2")
	_, _ = h.uc.Execute(context.Background(), request(domain.OpMakeLoanPayment, body))

	if len(h.payments.payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(h.payments.payments))
	}
}

func TestExecute_BankingFailureSkipsReconciliation(t *testing.T) {
	loanID := uuid.New()
	h := newHarness(domain.Failure(17, "Error code: 17"), loanID)
	body := `{"accountNumber":"1","loanId":"1","paymentAmount":5,"sourceShareId":"S","supabaseLoanId":"` + loanID.String() + `"}`

	res, err := h.uc.Execute(context.Background(), request(domain.OpMakeLoanPayment, body))
	if err != nil {
		t.Fatalf("banking failures are not errors: %v", err)
	}
	if res.Success || res.StatusCode != 17 {
		t.Fatalf("result = %+v", res)
	}
	if len(h.payments.payments) != 0 {
		t.Error("payment recorded for a failed call")
	}
	if task := h.tasks.only(); task.Status != domain.ReconFailed {
		t.Errorf("task status = %s", task.Status)
	}
	if rid := h.audits.entries[0].RecordID; !strings.HasPrefix(rid, "makeLoanPayment-") {
		t.Errorf("record id = %q", rid)
	}
}

func TestExecute_UnknownOperation(t *testing.T) {
	h := newHarness(confirmed("C-1"))

	res, err := h.uc.Execute(context.Background(), request("closeAccount", `{}`))
	if !errors.Is(err, domain.ErrUnknownOperation) {
		t.Fatalf("err = %v", err)
	}
	if res.Success || res.StatusCode != domain.StatusUnknown || res.Message != "Unknown operation: closeAccount" {
		t.Errorf("result = %+v", res)
	}
	if len(h.provider.sent) != 0 {
		t.Error("provider called for unknown operation")
	}
	if len(h.audits.entries) != 1 || h.audits.entries[0].Operation != "closeAccount" {
		t.Errorf("audit entries = %+v", h.audits.entries)
	}
}

func TestExecute_InvalidPayload(t *testing.T) {
	h := newHarness(confirmed("C-1"))

	res, err := h.uc.Execute(context.Background(), request(domain.OpGetAccountInfo, `{"includeLoans":true}`))
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("err = %v", err)
	}
	if res.Message != "Invalid request: accountNumber is required" || res.StatusCode != domain.StatusUnknown {
		t.Errorf("result = %+v", res)
	}
	if len(h.provider.sent) != 0 {
		t.Error("provider called for invalid payload")
	}
	if len(h.audits.entries) != 1 {
		t.Errorf("audit entries = %d", len(h.audits.entries))
	}
}

func TestExecute_SyncBalancesIsNoop(t *testing.T) {
	h := newHarness(confirmed("C-1"))

	res, err := h.uc.Execute(context.Background(), request(domain.OpSyncBalances, `{}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.StatusCode != 0 || res.Message != syncBalancesMessage {
		t.Errorf("result = %+v", res)
	}
	if len(h.provider.sent) != 0 {
		t.Error("syncBalances must not call the core")
	}
	if len(h.audits.entries) != 1 {
		t.Errorf("audit entries = %d", len(h.audits.entries))
	}
}

func TestExecute_TransferHasNoSideEffects(t *testing.T) {
	h := newHarness(confirmed("T-9"))

	res, err := h.uc.Execute(context.Background(), request(domain.OpTransferFunds,
		`{"fromAccountNumber":"1","toAccountNumber":"2","fromShareId":"S1","toShareId":"S2","amount":100}`))
	if err != nil || !res.Success {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	if len(h.tasks.tasks) != 0 || len(h.payments.payments) != 0 {
		t.Error("transfer must not reconcile")
	}
}

func TestExecute_PanicIsRecoveredAndAudited(t *testing.T) {
	h := newHarness(confirmed("C-1"))
	h.provider.panicOn = domain.OpGetAccountInfo

	res, err := h.uc.Execute(context.Background(), request(domain.OpGetAccountInfo, `{"accountNumber":"1"}`))
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("err = %v", err)
	}
	if res.Success || res.StatusCode != domain.StatusUnknown || !strings.HasPrefix(res.Message, "Internal error: ") {
		t.Errorf("result = %+v", res)
	}
	if len(h.audits.entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(h.audits.entries))
	}
}

func TestExecute_AuditFailureIsNotSurfaced(t *testing.T) {
	h := newHarness(confirmed("C-1"))
	h.audits.err = errors.New("audit_logs is read-only")

	res, err := h.uc.Execute(context.Background(), request(domain.OpGetAccountInfo, `{"accountNumber":"1"}`))
	if err != nil || !res.Success {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
}

func TestReject_AuditsMalformedBody(t *testing.T) {
	h := newHarness(confirmed("C-1"))

	res := h.uc.Reject(context.Background(), errors.New("unexpected EOF"))
	if res.Success || res.Message != "Invalid request: unexpected EOF" {
		t.Errorf("result = %+v", res)
	}
	if len(h.audits.entries) != 1 || h.audits.entries[0].Operation != OperationMalformedRequest {
		t.Errorf("audit entries = %+v", h.audits.entries)
	}
}

func TestExecute_MockModePaymentsAreNotMerged(t *testing.T) {
	loanID := uuid.New()
	h := newHarness(nil, loanID)
	logger := zap.NewNop()
	mock := symxchange.NewClient(config.SymXchangeConfig{}, logger)
	uc := NewBridgeUsecase(mock, h.recon, NewAuditLogger(h.audits, logger), logger)

	body := `{"accountNumber":"1","loanId":"1","paymentAmount":5,"sourceShareId":"S","supabaseLoanId":"` + loanID.String() + `"}`
	var confirmations []string
	for i := 0; i < 2; i++ {
		res, err := uc.Execute(context.Background(), request(domain.OpMakeLoanPayment, body))
		if err != nil || !res.Success {
			t.Fatalf("res = %+v, err = %v", res, err)
		}
		confirmations = append(confirmations, res.ConfirmationNumber)
	}

	if confirmations[0] == confirmations[1] {
		t.Fatalf("confirmations collide: %v", confirmations)
	}
	if len(h.payments.payments) != 2 {
		t.Errorf("payments = %d, want 2", len(h.payments.payments))
	}
}

func TestExecute_BlankLoanReferenceStillCallsCore(t *testing.T) {
	h := newHarness(confirmed("C-600"))

	res, err := h.uc.Execute(context.Background(), request(domain.OpMakeLoanPayment,
		`{"accountNumber":"1","loanId":"1","paymentAmount":5,"sourceShareId":"S","supabaseLoanId":""}`))
	if err != nil || !res.Success {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	if len(h.provider.sent) != 1 {
		t.Errorf("sent = %d, want 1", len(h.provider.sent))
	}
	if len(h.tasks.tasks) != 0 || len(h.payments.payments) != 0 {
		t.Error("blank reference must not reconcile")
	}
}
