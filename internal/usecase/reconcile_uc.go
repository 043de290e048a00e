// internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"core-banking-service/config"
	"core-banking-service/internal/domain"
	"core-banking-service/internal/repository"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EventPublisher interface {
	PublishCoreBankingEvent(ctx context.Context, event *domain.CoreBankingEvent) error
}

// Reconciler mirrors confirmed core operations into the portal tables
// (loans, loan_payments) through the core_banking_reconciliations outbox.
type Reconciler struct {
	loanRepo    repository.LoanRepository
	paymentRepo repository.LoanPaymentRepository
	taskRepo    repository.ReconciliationRepository
	publisher   EventPublisher
	config      config.ReconciliationConfig
	logger      *zap.Logger
	now         func() time.Time
}

func NewReconciler(
	loanRepo repository.LoanRepository,
	paymentRepo repository.LoanPaymentRepository,
	taskRepo repository.ReconciliationRepository,
	publisher EventPublisher,
	cfg config.ReconciliationConfig,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		taskRepo:    taskRepo,
		publisher:   publisher,
		config:      cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// NewTask builds the pending intent for a call that will touch loanID.
func NewTask(op domain.Operation, loanID uuid.UUID, amount decimal.Decimal, messageID string) *domain.ReconciliationTask {
	return &domain.ReconciliationTask{
		ID:        ulid.Make().String(),
		Operation: op,
		LoanID:    loanID,
		Amount:    amount,
		MessageID: messageID,
		Status:    domain.ReconPending,
	}
}

// Begin stores the task before the core call. It reports whether the task is
// durable; a failed write is logged and the call goes ahead anyway.
func (r *Reconciler) Begin(ctx context.Context, task *domain.ReconciliationTask) bool {
	if err := r.taskRepo.Create(ctx, task); err != nil {
		r.logger.Error("failed to record reconciliation intent, continuing without outbox",
			zap.String("task_id", task.ID),
			zap.String("operation", string(task.Operation)),
			zap.String("loan_id", task.LoanID.String()),
			zap.String("message_id", task.MessageID),
			zap.Error(err))
		return false
	}
	return true
}

// Settle records the core outcome and, on success, applies it. Errors are
// logged and counted; the banking result is never altered.
func (r *Reconciler) Settle(ctx context.Context, task *domain.ReconciliationTask, durable bool, res *domain.Result) {
	// The core has answered; finish the bookkeeping even if the client left.
	ctx = context.WithoutCancel(ctx)

	if !res.Success {
		task.Status = domain.ReconFailed
		if durable {
			if err := r.taskRepo.MarkFailed(ctx, task.ID, res.Message); err != nil {
				r.logger.Warn("failed to mark reconciliation task failed",
					zap.String("task_id", task.ID),
					zap.Error(err))
			}
		}
		return
	}

	confirmation := res.ConfirmationNumber
	if confirmation == "" {
		// A success without Confirmation still needs a unique key.
		confirmation = task.MessageID
		r.logger.Warn("core confirmed without a confirmation number, keying by message id",
			zap.String("operation", string(task.Operation)),
			zap.String("message_id", task.MessageID))
	}
	task.ConfirmationNumber = &confirmation
	task.Status = domain.ReconConfirmed

	if durable {
		if err := r.taskRepo.MarkConfirmed(ctx, task.ID, confirmation); err != nil {
			r.logger.Error("failed to mark reconciliation task confirmed",
				zap.String("task_id", task.ID),
				zap.String("confirmation", confirmation),
				zap.Error(err))
			// Without the confirmed row the sweeper cannot retry this one.
			durable = false
		}
	}

	_ = r.apply(ctx, task, durable)
}

// apply performs the portal side effect of a confirmed task.
func (r *Reconciler) apply(ctx context.Context, task *domain.ReconciliationTask, durable bool) error {
	confirmation := task.Confirmation()
	var (
		event *domain.CoreBankingEvent
		err   error
	)

	switch task.Operation {
	case domain.OpNewLoan:
		var changed bool
		changed, err = r.loanRepo.MarkDisbursed(ctx, &domain.LoanDisbursement{
			LoanID:             task.LoanID,
			ConfirmationNumber: confirmation,
			DisbursedAt:        r.now().UTC(),
		})
		if err == nil && changed {
			event = &domain.CoreBankingEvent{
				EventType:          domain.EventLoanDisbursed,
				LoanID:             task.LoanID.String(),
				ConfirmationNumber: confirmation,
				Amount:             task.Amount.StringFixed(2),
			}
		}
		if err == nil && !changed {
			r.logger.Info("loan already active with this confirmation",
				zap.String("loan_id", task.LoanID.String()),
				zap.String("confirmation", confirmation))
		}

	case domain.OpMakeLoanPayment:
		var created bool
		created, err = r.paymentRepo.Create(ctx, &domain.LoanPayment{
			LoanID:             task.LoanID,
			Amount:             task.Amount,
			PaymentDate:        paymentDate(r.now()),
			PaymentMethod:      domain.PaymentMethodCoreBanking,
			ConfirmationNumber: confirmation,
		})
		if err == nil && created {
			event = &domain.CoreBankingEvent{
				EventType:          domain.EventLoanPaymentRecorded,
				LoanID:             task.LoanID.String(),
				ConfirmationNumber: confirmation,
				Amount:             task.Amount.StringFixed(2),
			}
		}
		if err == nil && !created {
			r.logger.Info("loan payment already recorded for confirmation",
				zap.String("loan_id", task.LoanID.String()),
				zap.String("confirmation", confirmation))
		}

	default:
		r.logger.Warn("reconciliation task for operation without side effects",
			zap.String("task_id", task.ID),
			zap.String("operation", string(task.Operation)))
	}

	if err != nil {
		r.applyFailed(ctx, task, durable, err)
		return err
	}

	task.Status = domain.ReconApplied
	if durable {
		if err := r.taskRepo.MarkApplied(ctx, task.ID); err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
			r.logger.Warn("failed to mark reconciliation task applied",
				zap.String("task_id", task.ID),
				zap.Error(err))
		}
	}

	r.logger.Info("core banking operation reconciled",
		zap.String("operation", string(task.Operation)),
		zap.String("loan_id", task.LoanID.String()),
		zap.String("confirmation", confirmation))

	if event != nil {
		if err := r.publisher.PublishCoreBankingEvent(ctx, event); err != nil {
			r.logger.Warn("failed to publish core banking event",
				zap.String("event_type", event.EventType),
				zap.String("loan_id", event.LoanID),
				zap.Error(err))
		}
	}
	return nil
}

func (r *Reconciler) applyFailed(ctx context.Context, task *domain.ReconciliationTask, durable bool, err error) {
	reconciliationFailures.WithLabelValues(string(task.Operation)).Inc()

	permanent := errors.Is(err, domain.ErrLoanNotFound) || errors.Is(err, domain.ErrLoanAlreadyActive)

	r.logger.Error("failed to reconcile core banking operation",
		zap.String("task_id", task.ID),
		zap.String("operation", string(task.Operation)),
		zap.String("loan_id", task.LoanID.String()),
		zap.String("confirmation", task.Confirmation()),
		zap.Bool("permanent", permanent),
		zap.Error(err))

	if !durable {
		return
	}

	var markErr error
	if permanent {
		task.Status = domain.ReconFailed
		markErr = r.taskRepo.MarkFailed(ctx, task.ID, err.Error())
	} else {
		markErr = r.taskRepo.RecordAttempt(ctx, task.ID, err.Error())
	}
	if markErr != nil {
		r.logger.Warn("failed to update reconciliation task",
			zap.String("task_id", task.ID),
			zap.Error(markErr))
	}
}

// ============================================
// SWEEPER
// ============================================

// Sweep re-applies confirmed tasks and reports tasks stuck in pending.
// It returns the number of tasks applied.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	tasks, err := r.taskRepo.ListConfirmed(ctx, r.config.BatchSize)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		if err := r.apply(ctx, task, true); err == nil {
			applied++
		}
	}

	stale, err := r.taskRepo.CountStalePending(ctx, r.now().Add(-r.config.Interval))
	if err != nil {
		return applied, err
	}
	stalePendingTasks.Set(float64(stale))
	if stale > 0 {
		r.logger.Warn("reconciliation tasks pending without a core outcome, manual review needed",
			zap.Int("count", stale))
	}

	return applied, nil
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciliation sweeper started",
		zap.Duration("interval", r.config.Interval),
		zap.Int("batch_size", r.config.BatchSize))

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		r.sweepOnce(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info("reconciliation sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (r *Reconciler) sweepOnce(ctx context.Context) {
	applied, err := r.Sweep(ctx)
	if err != nil && ctx.Err() == nil {
		r.logger.Error("reconciliation sweep failed", zap.Error(err))
		return
	}
	if applied > 0 {
		r.logger.Info("reconciliation sweep applied tasks", zap.Int("applied", applied))
	}
}

// paymentDate is the UTC calendar date of t.
func paymentDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
