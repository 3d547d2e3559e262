package dinner

import (
	"context"
	"time"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// Service implements draft admission, the dinner lifecycle and receipts
type Service struct {
	store    Store
	dishes   DishReader
	renderer Renderer
	notifier Notifier
	logger   *logger.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for lifecycle timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new dinner service
func NewService(store Store, dishes DishReader, renderer Renderer, notifier Notifier, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		dishes:   dishes,
		renderer: renderer,
		notifier: notifier,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notify publishes a status change after it has been committed. Delivery
// failures are logged and never undo the transition.
func (s *Service) notify(ctx context.Context, dinner *models.Dinner, oldStatus models.DinnerStatus, changedBy string) {
	if s.notifier == nil || dinner.Status == oldStatus {
		return
	}

	event := models.NewDinnerStatusEvent(dinner, oldStatus, changedBy)
	event.Timestamp = s.now()

	if err := s.notifier.PublishDinnerEvent(ctx, event); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish dinner status event", logger.RequestIDFromContext(ctx), err, map[string]interface{}{
			"dinner_id":  dinner.ID,
			"old_status": oldStatus,
			"new_status": dinner.Status,
		})
	}
}
