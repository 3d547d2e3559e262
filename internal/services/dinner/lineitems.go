package dinner

import (
	"context"
	"fmt"
	"strings"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/models"
)

const maxGuestLabelLength = 100

// UpdateLineItem changes the guest label or portion count of a line item
func (s *Service) UpdateLineItem(ctx context.Context, caller *auth.Identity, dinnerID, dishID int64, req *models.UpdateLineItemRequest) (*models.LineItem, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	if req.Count != nil && *req.Count < 1 {
		return nil, apperror.Validation("count", "must be at least 1")
	}
	if req.User != nil {
		label := strings.TrimSpace(*req.User)
		if label == "" {
			return nil, apperror.Validation("user", "must not be empty")
		}
		if len(label) > maxGuestLabelLength {
			return nil, apperror.Validation("user", fmt.Sprintf("must be at most %d characters", maxGuestLabelLength))
		}
	}

	return s.store.UpdateLineItem(ctx, dinnerID, dishID, func(d *models.Dinner, item *models.LineItem) error {
		if err := requireEditable(d); err != nil {
			return err
		}
		if req.User != nil {
			item.User = strings.TrimSpace(*req.User)
		}
		if req.Count != nil {
			item.Count = *req.Count
		}
		return nil
	})
}

// DeleteLineItem removes a dish from a dinner
func (s *Service) DeleteLineItem(ctx context.Context, caller *auth.Identity, dinnerID, dishID int64) error {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return err
	}
	return s.store.DeleteLineItem(ctx, dinnerID, dishID, requireEditable)
}

func requireEditable(d *models.Dinner) error {
	if d.Status.IsFrozen() {
		return apperror.Conflict(fmt.Sprintf("line items of a %s dinner cannot be changed", d.Status))
	}
	return nil
}
