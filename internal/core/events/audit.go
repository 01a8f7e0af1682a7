package events

import (
	"context"
	"log/slog"
)

// AuditHandler writes one structured log line per event.
func AuditHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		logger.InfoContext(ctx, "audit",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}
}

// RegisterAudit subscribes the audit handler to every expense lifecycle event.
func RegisterAudit(bus *EventBus, logger *slog.Logger) {
	bus.SubscribeMany(ExpenseEventTypes, AuditHandler(logger.With("component", "audit")))
}
