// internal/usecase/bridge_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"core-banking-service/internal/domain"
	"core-banking-service/internal/provider"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	syncBalancesMessage = "Balance sync not yet implemented - requires account list"

	// Audit operation name for bodies that never decoded into a request.
	OperationMalformedRequest = "malformedRequest"
)

type BridgeUsecase struct {
	provider   provider.CoreBankingProvider
	reconciler *Reconciler
	audit      *AuditLogger
	logger     *zap.Logger
}

func NewBridgeUsecase(
	coreProvider provider.CoreBankingProvider,
	reconciler *Reconciler,
	audit *AuditLogger,
	logger *zap.Logger,
) *BridgeUsecase {
	return &BridgeUsecase{
		provider:   coreProvider,
		reconciler: reconciler,
		audit:      audit,
		logger:     logger,
	}
}

// Execute runs one portal request: validate, build, send, reconcile, audit.
//
// The result is never nil. Banking failures are reported in the result with
// a nil error; the error only classifies requests the bridge refused
// (domain.ErrUnknownOperation, domain.ErrInvalidPayload) or could not finish
// (domain.ErrInternal). Every call writes exactly one audit row.
func (uc *BridgeUsecase) Execute(ctx context.Context, req *domain.CoreBankingRequest) (res *domain.Result, err error) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			uc.logger.Error("panic while executing core banking operation",
				zap.String("operation", string(req.Operation)),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			res = domain.Failure(domain.StatusUnknown, fmt.Sprintf("Internal error: %v", rec))
			err = domain.ErrInternal
		}
		uc.audit.Record(ctx, string(req.Operation), requestFields(req.Data), res)
		observeOperation(req.Operation, res, err, time.Since(start))
	}()

	uc.logger.Info("executing core banking operation",
		zap.String("operation", string(req.Operation)),
		zap.String("provider", uc.provider.GetName()))

	return uc.dispatch(ctx, req)
}

// Reject answers a body that could not be decoded at all. It is audited like
// any other request.
func (uc *BridgeUsecase) Reject(ctx context.Context, cause error) *domain.Result {
	res := invalidRequest(cause)

	uc.logger.Warn("rejecting malformed core banking request", zap.Error(cause))
	uc.audit.Record(ctx, OperationMalformedRequest, nil, res)
	observeOperation(domain.Operation(OperationMalformedRequest), res, domain.ErrInvalidPayload, 0)

	return res
}

func (uc *BridgeUsecase) dispatch(ctx context.Context, req *domain.CoreBankingRequest) (*domain.Result, error) {
	switch req.Operation {
	case domain.OpNewLoan:
		return uc.newLoan(ctx, req)
	case domain.OpMakeLoanPayment:
		return uc.makeLoanPayment(ctx, req)
	case domain.OpGetAccountInfo:
		return uc.getAccountInfo(ctx, req)
	case domain.OpTransferFunds:
		return uc.transferFunds(ctx, req)
	case domain.OpSyncBalances:
		return &domain.Result{Success: true, StatusCode: 0, Message: syncBalancesMessage}, nil
	default:
		uc.logger.Warn("unknown core banking operation", zap.String("operation", string(req.Operation)))
		return domain.Failure(domain.StatusUnknown, fmt.Sprintf("Unknown operation: %s", req.Operation)),
			domain.ErrUnknownOperation
	}
}

// ============================================
// OPERATIONS
// ============================================

func (uc *BridgeUsecase) newLoan(ctx context.Context, req *domain.CoreBankingRequest) (*domain.Result, error) {
	var p domain.NewLoanRequest
	if err := decode(req, &p); err != nil {
		return invalidRequest(err), err
	}

	built, err := uc.provider.BuildNewLoan(&p)
	if err != nil {
		return uc.buildFailed(req.Operation, err)
	}

	return uc.send(ctx, built, p.LoanApplicationID.Ptr(), p.TotalAmount.Decimal), nil
}

func (uc *BridgeUsecase) makeLoanPayment(ctx context.Context, req *domain.CoreBankingRequest) (*domain.Result, error) {
	var p domain.MakeLoanPaymentRequest
	if err := decode(req, &p); err != nil {
		return invalidRequest(err), err
	}

	built, err := uc.provider.BuildLoanPayment(&p)
	if err != nil {
		return uc.buildFailed(req.Operation, err)
	}

	return uc.send(ctx, built, p.SupabaseLoanID.Ptr(), p.PaymentAmount.Decimal), nil
}

func (uc *BridgeUsecase) getAccountInfo(ctx context.Context, req *domain.CoreBankingRequest) (*domain.Result, error) {
	var p domain.GetAccountInfoRequest
	if err := decode(req, &p); err != nil {
		return invalidRequest(err), err
	}

	built, err := uc.provider.BuildAccountInquiry(&p)
	if err != nil {
		return uc.buildFailed(req.Operation, err)
	}

	return uc.send(ctx, built, nil, decimal.Zero), nil
}

func (uc *BridgeUsecase) transferFunds(ctx context.Context, req *domain.CoreBankingRequest) (*domain.Result, error) {
	var p domain.TransferFundsRequest
	if err := decode(req, &p); err != nil {
		return invalidRequest(err), err
	}

	built, err := uc.provider.BuildTransfer(&p)
	if err != nil {
		return uc.buildFailed(req.Operation, err)
	}

	return uc.send(ctx, built, nil, decimal.Zero), nil
}

// send delivers a built request. With a portal loan reference the call is
// wrapped in a reconciliation task.
func (uc *BridgeUsecase) send(ctx context.Context, built *provider.Request, loanID *uuid.UUID, amount decimal.Decimal) *domain.Result {
	if loanID == nil {
		return uc.provider.Send(ctx, built)
	}

	task := NewTask(built.Operation, *loanID, amount, built.MessageID)
	durable := uc.reconciler.Begin(ctx, task)

	res := uc.provider.Send(ctx, built)

	uc.reconciler.Settle(ctx, task, durable, res)
	return res
}

func (uc *BridgeUsecase) buildFailed(op domain.Operation, err error) (*domain.Result, error) {
	uc.logger.Error("failed to build core banking request",
		zap.String("operation", string(op)),
		zap.Error(err))
	return domain.Failure(domain.StatusUnknown, fmt.Sprintf("Internal error: %v", err)),
		fmt.Errorf("%w: %v", domain.ErrInternal, err)
}

// ============================================
// HELPERS
// ============================================

type validator interface {
	Validate() error
}

func decode(req *domain.CoreBankingRequest, dst validator) error {
	if err := req.DecodeData(dst); err != nil {
		return err
	}
	return dst.Validate()
}

func invalidRequest(err error) *domain.Result {
	reason := err.Error()
	if errors.Is(err, domain.ErrInvalidPayload) {
		reason = strings.TrimPrefix(reason, domain.ErrInvalidPayload.Error()+": ")
	}
	return domain.Failure(domain.StatusUnknown, "Invalid request: "+reason)
}

// requestFields is the request payload as a generic object for the audit log.
// Anything that is not a JSON object is logged as an empty request.
func requestFields(data json.RawMessage) map[string]interface{} {
	var fields map[string]interface{}
	if len(data) == 0 || json.Unmarshal(data, &fields) != nil {
		return nil
	}
	return fields
}
