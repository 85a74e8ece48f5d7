package services

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
)

// EventPublisher receives ledger events after a mutation commits. The AMQP
// client implements it; a nil publisher disables emission.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, evt *amqp.LedgerEvent) error
}

// publishEvent emits a ledger event after a successful commit. Publishing
// is best-effort: a failure is logged and never fails the operation.
func publishEvent(ctx context.Context, p EventPublisher, kind string, entityID, userID int64, date time.Time) {
	if p == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping event", "kind", kind)
		return
	}

	evt := amqp.NewLedgerEvent(kind, entityID, userID, date.Year(), int(date.Month()))
	if err := p.PublishLedgerEvent(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind,
			"entity_id", entityID,
			"error", err)
	}
}
