package dinner

import (
	"context"
	"errors"
	"fmt"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// GetOrCreateDraft returns the caller's draft dinner, creating one if none exists.
// Concurrent calls for the same caller all observe the same draft: a lost insert
// race surfaces as a conflict on the draft index and the winner's row is re-read.
func (s *Service) GetOrCreateDraft(ctx context.Context, caller *auth.Identity) (*models.Dinner, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	draft, err := s.store.FindDraft(ctx, caller.UserID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("failed to find draft: %w", err)
	}

	created, err := s.store.CreateDinner(ctx, &models.Dinner{
		TableNumber:  models.DefaultDraftTableNumber,
		Status:       models.DinnerDraft,
		CreatedAt:    s.now(),
		CreatorID:    caller.UserID,
		CreatorEmail: caller.Label(),
	})
	if err == nil {
		s.logger.Info("draft_created", "Draft dinner created", logger.RequestIDFromContext(ctx), map[string]interface{}{
			"dinner_id":  created.ID,
			"creator_id": caller.UserID,
		})
		return created, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	draft, err = s.store.FindDraft(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read draft after conflict: %w", err)
	}
	return draft, nil
}

// CurrentDraftID returns the id of the caller's draft, or nil when the caller is
// anonymous or has no draft. It never creates one.
func (s *Service) CurrentDraftID(ctx context.Context, caller *auth.Identity) (*int64, error) {
	if caller == nil {
		return nil, nil
	}

	draft, err := s.store.FindDraft(ctx, caller.UserID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find draft: %w", err)
	}
	return &draft.ID, nil
}

// requireOpenDraft rejects an insert into a draft that was formed or deleted
// after it was resolved
func requireOpenDraft(dinner *models.Dinner) error {
	if dinner.Status != models.DinnerDraft {
		return apperror.Conflict(fmt.Sprintf("dinner %d is no longer a draft", dinner.ID))
	}
	return nil
}

// AddDishToDraft puts one portion of an active dish into the caller's draft,
// labelled with the caller. A dish already in the draft is rejected.
func (s *Service) AddDishToDraft(ctx context.Context, caller *auth.Identity, dishID int64) (*models.DinnerDish, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	dish, err := s.dishes.GetDish(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if !dish.IsActive() {
		return nil, apperror.NotFound(fmt.Sprintf("dish %d is not available", dishID))
	}

	draft, err := s.GetOrCreateDraft(ctx, caller)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.LineItemExists(ctx, draft.ID, dishID)
	if err != nil {
		return nil, fmt.Errorf("failed to check line item: %w", err)
	}
	if exists {
		return nil, apperror.Conflict("dish is already in the draft")
	}

	item, err := s.store.AddLineItem(ctx, &models.DinnerDish{
		DinnerID: draft.ID,
		DishID:   dishID,
		User:     caller.Label(),
		Count:    1,
	}, requireOpenDraft)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("dish_added_to_draft", "Dish added to draft", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"dinner_id": draft.ID,
		"dish_id":   dishID,
	})
	return item, nil
}
