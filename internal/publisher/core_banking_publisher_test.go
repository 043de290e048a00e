package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"core-banking-service/internal/domain"
)

func TestEncodeEvent_StampsTimestamp(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &domain.CoreBankingEvent{
		EventType:          domain.EventLoanPaymentRecorded,
		LoanID:             "6f1d3c4e-8a8b-4d64-9d7e-0a4f1c2b3d4e",
		ConfirmationNumber: "C-1",
		Amount:             "250.00",
	}

	payload, err := encodeEvent(event, func() time.Time { return fixed })
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatal(err)
	}
	if got["event_type"] != "loan.payment_recorded" || got["amount"] != "250.00" {
		t.Errorf("payload = %s", payload)
	}
	if got["timestamp"] != "2024-03-01T12:00:00Z" {
		t.Errorf("timestamp = %v", got["timestamp"])
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (NopPublisher{}).PublishCoreBankingEvent(context.Background(), &domain.CoreBankingEvent{}); err != nil {
		t.Fatal(err)
	}
}
