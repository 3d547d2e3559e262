package notification

import (
	"context"
	"errors"
	"fmt"
	"io"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/messaging"
	"restaurant-orders/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// EventSource delivers raw event bodies to a handler
type EventSource interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Subscriber prints a line for every dinner status event
type Subscriber struct {
	source EventSource
	logger *logger.Logger
	out    io.Writer
}

// NewSubscriber creates a new notification subscriber writing to out
func NewSubscriber(source EventSource, log *logger.Logger, out io.Writer) *Subscriber {
	return &Subscriber{
		source: source,
		logger: log,
		out:    out,
	}
}

// Run consumes events until ctx is cancelled
func (s *Subscriber) Run(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.source.StartConsuming(ctx, s.handleNotification)

	s.logger.Info("graceful_shutdown", "Stopping notification subscriber", requestID, nil)
	if closeErr := s.source.Close(); closeErr != nil {
		s.logger.Error("consumer_close_failed", "Failed to close consumer", requestID, closeErr, nil)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleNotification decodes one status event and displays it
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	var event models.DinnerStatusEvent
	if err := messaging.ParseMessage(body, &event); err != nil {
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	if _, err := fmt.Fprintln(s.out, formatNotification(&event)); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}

	s.logger.Info("notification_displayed", "Dinner status notification displayed", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"dinner_id":  event.DinnerID,
		"old_status": event.OldStatus,
		"new_status": event.NewStatus,
		"changed_by": event.ChangedBy,
		"timestamp":  event.Timestamp.Format(timestampLayout),
	})
	return nil
}

// formatNotification renders a human-readable line for an event
func formatNotification(event *models.DinnerStatusEvent) string {
	timestamp := event.Timestamp.Format(timestampLayout)

	switch event.NewStatus {
	case models.DinnerFormed:
		return fmt.Sprintf("[%s] Dinner %d for table %d was formed by %s and awaits a moderator.",
			timestamp, event.DinnerID, event.TableNumber, event.ChangedBy)
	case models.DinnerCompleted:
		if event.TotalCost != nil {
			return fmt.Sprintf("[%s] Dinner %d for table %d was completed by %s. Total: %d.",
				timestamp, event.DinnerID, event.TableNumber, event.ChangedBy, *event.TotalCost)
		}
		return fmt.Sprintf("[%s] Dinner %d for table %d was completed by %s.",
			timestamp, event.DinnerID, event.TableNumber, event.ChangedBy)
	case models.DinnerRejected:
		return fmt.Sprintf("[%s] Dinner %d for table %d was rejected by %s.",
			timestamp, event.DinnerID, event.TableNumber, event.ChangedBy)
	case models.DinnerDeleted:
		return fmt.Sprintf("[%s] Dinner %d was deleted by %s.",
			timestamp, event.DinnerID, event.ChangedBy)
	default:
		return fmt.Sprintf("[%s] Dinner %d status changed from '%s' to '%s' by %s.",
			timestamp, event.DinnerID, event.OldStatus, event.NewStatus, event.ChangedBy)
	}
}
