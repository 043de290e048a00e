package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"core-banking-service/config"
	"core-banking-service/internal/domain"
	"core-banking-service/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================
// PROVIDER
// ============================================

type fakeProvider struct {
	result  *domain.Result
	panicOn domain.Operation
	sent    []*provider.Request
}

func (p *fakeProvider) GetName() string { return "fake" }

func (p *fakeProvider) build(op domain.Operation) *provider.Request {
	return &provider.Request{Operation: op, MessageID: string(op) + "-01", ServicePath: "/Fake"}
}

func (p *fakeProvider) BuildNewLoan(*domain.NewLoanRequest) (*provider.Request, error) {
	return p.build(domain.OpNewLoan), nil
}

func (p *fakeProvider) BuildLoanPayment(*domain.MakeLoanPaymentRequest) (*provider.Request, error) {
	return p.build(domain.OpMakeLoanPayment), nil
}

func (p *fakeProvider) BuildAccountInquiry(*domain.GetAccountInfoRequest) (*provider.Request, error) {
	return p.build(domain.OpGetAccountInfo), nil
}

func (p *fakeProvider) BuildTransfer(*domain.TransferFundsRequest) (*provider.Request, error) {
	return p.build(domain.OpTransferFunds), nil
}

func (p *fakeProvider) Send(_ context.Context, req *provider.Request) *domain.Result {
	if req.Operation == p.panicOn {
		panic("core exploded")
	}
	p.sent = append(p.sent, req)
	out := *p.result
	return &out
}

// ============================================
// REPOSITORIES
// ============================================

type loanRow struct {
	status       domain.LoanStatus
	confirmation string
	disbursedAt  time.Time
}

type fakeLoanRepo struct {
	mu    sync.Mutex
	loans map[uuid.UUID]*loanRow
}

func newFakeLoanRepo(ids ...uuid.UUID) *fakeLoanRepo {
	r := &fakeLoanRepo{loans: map[uuid.UUID]*loanRow{}}
	for _, id := range ids {
		r.loans[id] = &loanRow{status: domain.LoanStatusPendingDisbursement}
	}
	return r
}

// MarkDisbursed mirrors loanRepo: the UPDATE only matches
// "WHERE id = $1 AND status <> 'active'"; on no match an active loan with the
// same core_confirmation is unchanged, any other is ErrLoanAlreadyActive.
func (r *fakeLoanRepo) MarkDisbursed(_ context.Context, d *domain.LoanDisbursement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[d.LoanID]
	if !ok {
		return false, domain.ErrLoanNotFound
	}
	if loan.status != domain.LoanStatusActive {
		loan.status = domain.LoanStatusActive
		loan.confirmation = d.ConfirmationNumber
		loan.disbursedAt = d.DisbursedAt
		return true, nil
	}
	if loan.confirmation == d.ConfirmationNumber {
		return false, nil
	}
	return false, domain.ErrLoanAlreadyActive
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*domain.LoanPayment
	failures int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[string]*domain.LoanPayment{}}
}

// Create mirrors loanPaymentRepo: "ON CONFLICT (confirmation_number) DO
// NOTHING", so a known confirmation returns created=false and no error.
func (r *fakePaymentRepo) Create(_ context.Context, p *domain.LoanPayment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return false, errors.New("connection reset by peer")
	}
	if _, ok := r.payments[p.ConfirmationNumber]; ok {
		return false, nil
	}
	p.ID = uuid.New()
	r.payments[p.ConfirmationNumber] = p
	return true, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLogEntry
	err     error
}

func (r *fakeAuditRepo) Insert(ctx context.Context, e *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

type fakeTaskRepo struct {
	mu        sync.Mutex
	tasks     map[string]*domain.ReconciliationTask
	createErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*domain.ReconciliationTask{}}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.ReconciliationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	stored := *task
	stored.CreatedAt = time.Now()
	r.tasks[task.ID] = &stored
	return nil
}

func (r *fakeTaskRepo) update(id string, from []domain.ReconciliationStatus, fn func(t *domain.ReconciliationTask)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if from != nil {
		allowed := false
		for _, s := range from {
			allowed = allowed || t.Status == s
		}
		if !allowed {
			return domain.ErrTaskNotFound
		}
	}
	fn(t)
	return nil
}

func (r *fakeTaskRepo) MarkConfirmed(_ context.Context, id, confirmation string) error {
	return r.update(id, []domain.ReconciliationStatus{domain.ReconPending}, func(t *domain.ReconciliationTask) {
		t.Status = domain.ReconConfirmed
		t.ConfirmationNumber = &confirmation
	})
}

func (r *fakeTaskRepo) MarkFailed(_ context.Context, id, reason string) error {
	return r.update(id, []domain.ReconciliationStatus{domain.ReconPending, domain.ReconConfirmed}, func(t *domain.ReconciliationTask) {
		t.Status = domain.ReconFailed
		t.LastError = &reason
	})
}

func (r *fakeTaskRepo) MarkApplied(_ context.Context, id string) error {
	return r.update(id, []domain.ReconciliationStatus{domain.ReconConfirmed}, func(t *domain.ReconciliationTask) {
		t.Status = domain.ReconApplied
		t.Attempts++
	})
}

func (r *fakeTaskRepo) RecordAttempt(_ context.Context, id, lastError string) error {
	return r.update(id, nil, func(t *domain.ReconciliationTask) {
		t.Attempts++
		t.LastError = &lastError
	})
}

func (r *fakeTaskRepo) ListConfirmed(_ context.Context, limit int) ([]*domain.ReconciliationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ReconciliationTask
	for _, t := range r.tasks {
		if t.Status == domain.ReconConfirmed && len(out) < limit {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) CountStalePending(_ context.Context, olderThan time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tasks {
		if t.Status == domain.ReconPending && t.CreatedAt.Before(olderThan) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTaskRepo) only() *domain.ReconciliationTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		return t
	}
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*domain.CoreBankingEvent
}

func (p *fakePublisher) PublishCoreBankingEvent(_ context.Context, e *domain.CoreBankingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// ============================================
// WIRING
// ============================================

type harness struct {
	provider  *fakeProvider
	loans     *fakeLoanRepo
	payments  *fakePaymentRepo
	tasks     *fakeTaskRepo
	audits    *fakeAuditRepo
	publisher *fakePublisher
	recon     *Reconciler
	uc        *BridgeUsecase
}

func newHarness(result *domain.Result, loanIDs ...uuid.UUID) *harness {
	h := &harness{
		provider:  &fakeProvider{result: result},
		loans:     newFakeLoanRepo(loanIDs...),
		payments:  newFakePaymentRepo(),
		tasks:     newFakeTaskRepo(),
		audits:    &fakeAuditRepo{},
		publisher: &fakePublisher{},
	}
	logger := zap.NewNop()
	h.recon = NewReconciler(h.loans, h.payments, h.tasks, h.publisher,
		config.ReconciliationConfig{Interval: time.Minute, BatchSize: 10}, logger)
	h.uc = NewBridgeUsecase(h.provider, h.recon, NewAuditLogger(h.audits, logger), logger)
	return h
}

func confirmed(confirmation string) *domain.Result {
	return &domain.Result{
		Success:            true,
		ConfirmationNumber: confirmation,
		StatusCode:         0,
		Message:            "Success",
		Data:               map[string]interface{}{domain.DataKeyRawResponse: "<Response/>"},
	}
}
