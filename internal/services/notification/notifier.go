package notification

import (
	"context"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// NopNotifier drops status events. It is used when the broker is disabled.
type NopNotifier struct {
	logger *logger.Logger
}

// NewNopNotifier creates a notifier that only logs events
func NewNopNotifier(log *logger.Logger) *NopNotifier {
	return &NopNotifier{logger: log}
}

// PublishDinnerEvent logs the event at debug level and reports success
func (n *NopNotifier) PublishDinnerEvent(ctx context.Context, event *models.DinnerStatusEvent) error {
	n.logger.Debug("event_skipped", "Event publishing disabled", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"dinner_id":  event.DinnerID,
		"new_status": event.NewStatus,
	})
	return nil
}
