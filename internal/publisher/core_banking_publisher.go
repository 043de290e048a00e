// internal/publisher/core_banking_publisher.go
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"core-banking-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CoreBankingEventsChannel = "core_banking_events"
)

type CoreBankingEventPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewCoreBankingEventPublisher(rdb *redis.Client, logger *zap.Logger) *CoreBankingEventPublisher {
	return &CoreBankingEventPublisher{rdb: rdb, logger: logger, now: time.Now}
}

// PublishCoreBankingEvent publishes a reconciliation event to Redis
func (p *CoreBankingEventPublisher) PublishCoreBankingEvent(ctx context.Context, event *domain.CoreBankingEvent) error {
	payload, err := encodeEvent(event, p.now)
	if err != nil {
		return err
	}

	if err := p.rdb.Publish(ctx, CoreBankingEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("core banking event published",
		zap.String("event_type", event.EventType),
		zap.String("loan_id", event.LoanID),
		zap.String("confirmation", event.ConfirmationNumber))

	return nil
}

// NopPublisher drops events. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishCoreBankingEvent(context.Context, *domain.CoreBankingEvent) error {
	return nil
}

func encodeEvent(event *domain.CoreBankingEvent, now func() time.Time) ([]byte, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}
