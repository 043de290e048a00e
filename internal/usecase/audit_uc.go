// internal/usecase/audit_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"core-banking-service/internal/domain"
	"core-banking-service/internal/repository"
	"core-banking-service/pkg/security"

	"go.uber.org/zap"
)

const auditWriteTimeout = 5 * time.Second

type AuditLogger struct {
	auditRepo repository.AuditRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuditLogger(auditRepo repository.AuditRepository, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		auditRepo: auditRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// Record writes one audit_logs row for a finished invocation. The request is
// stored with every password redacted. Write failures are logged and counted,
// the caller never sees them.
func (a *AuditLogger) Record(ctx context.Context, operation string, request map[string]interface{}, res *domain.Result) {
	// The client may already be gone; the audit row is still owed.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	entry, err := a.entry(operation, request, res)
	if err == nil {
		err = a.auditRepo.Insert(ctx, entry)
	}
	if err != nil {
		auditFailures.Inc()
		a.logger.Error("failed to write audit log",
			zap.String("operation", operation),
			zap.String("confirmation", res.ConfirmationNumber),
			zap.Error(err))
		return
	}

	a.logger.Debug("audit log written",
		zap.String("operation", operation),
		zap.String("record_id", entry.RecordID))
}

func (a *AuditLogger) entry(operation string, request map[string]interface{}, res *domain.Result) (*domain.AuditLogEntry, error) {
	logged := security.Redact(request)
	if logged == nil {
		logged = map[string]interface{}{}
	}
	logged["password"] = security.RedactedValue

	newData, err := json.Marshal(map[string]interface{}{
		"request":  logged,
		"response": res.Summary(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit data: %w", err)
	}

	recordID := res.ConfirmationNumber
	if recordID == "" {
		recordID = fmt.Sprintf("%s-%d", operation, a.now().UnixMilli())
	}

	return &domain.AuditLogEntry{
		TableName: domain.AuditTableCoreBanking,
		RecordID:  recordID,
		Operation: operation,
		NewData:   newData,
		ChangedBy: domain.AuditChangedBySystem,
	}, nil
}
