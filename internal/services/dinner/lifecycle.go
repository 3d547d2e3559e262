package dinner

import (
	"context"
	"fmt"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// Form moves the caller's draft to formed and assigns its table
func (s *Service) Form(ctx context.Context, caller *auth.Identity, dinnerID int64, req *models.TransitionRequest) (*models.Dinner, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	var oldStatus models.DinnerStatus
	dinner, err := s.store.UpdateDinner(ctx, dinnerID, func(d *models.Dinner, _ []models.LineItem) error {
		if err := auth.RequireCreator(caller, d); err != nil {
			return err
		}
		if req.TableNumber == nil {
			return apperror.Validation("table_number", "field is required")
		}
		if *req.TableNumber < 1 {
			return apperror.Validation("table_number", "must be a positive number")
		}
		if req.Status == nil || *req.Status != models.DinnerFormed {
			return apperror.Validation("status", "creator may only form the dinner")
		}
		if d.Status != models.DinnerDraft {
			return apperror.Forbidden(fmt.Sprintf("only a draft can be formed, dinner is %s", d.Status))
		}

		now := s.now()
		oldStatus = d.Status
		d.TableNumber = *req.TableNumber
		d.Status = models.DinnerFormed
		d.FormedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dinner_formed", "Dinner formed", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"dinner_id":    dinner.ID,
		"table_number": dinner.TableNumber,
	})
	s.notify(ctx, dinner, oldStatus, caller.Label())
	return dinner, nil
}

// CompleteOrReject lets a moderator close a formed dinner. Completion stamps
// the completion time and freezes the total cost.
func (s *Service) CompleteOrReject(ctx context.Context, caller *auth.Identity, dinnerID int64, req *models.TransitionRequest) (*models.Dinner, error) {
	if err := auth.RequireModerator(caller); err != nil {
		return nil, err
	}
	if req.Status == nil || (*req.Status != models.DinnerCompleted && *req.Status != models.DinnerRejected) {
		return nil, apperror.Validation("status", "moderator may only complete or reject the dinner")
	}
	target := *req.Status

	var oldStatus models.DinnerStatus
	dinner, err := s.store.UpdateDinner(ctx, dinnerID, func(d *models.Dinner, items []models.LineItem) error {
		if d.Status != models.DinnerFormed {
			return apperror.Forbidden("dinner must be formed first")
		}

		oldStatus = d.Status
		d.Status = target
		if target == models.DinnerCompleted {
			now := s.now()
			total := TotalCost(items)
			d.CompletedAt = &now
			d.TotalCost = &total
		}

		moderatorID, moderatorEmail := caller.UserID, caller.Label()
		d.ModeratorID = &moderatorID
		d.ModeratorEmail = &moderatorEmail
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dinner_closed", fmt.Sprintf("Dinner %s", dinner.Status), logger.RequestIDFromContext(ctx), map[string]interface{}{
		"dinner_id":    dinner.ID,
		"status":       dinner.Status,
		"moderator_id": caller.UserID,
	})
	s.notify(ctx, dinner, oldStatus, caller.Label())
	return dinner, nil
}

// Edit applies an unrestricted partial update to a dinner
func (s *Service) Edit(ctx context.Context, caller *auth.Identity, dinnerID int64, req *models.EditDinnerRequest) (*models.Dinner, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	if req.TableNumber != nil && *req.TableNumber < 1 {
		return nil, apperror.Validation("table_number", "must be a positive number")
	}
	if req.Status != nil {
		if _, err := models.ParseDinnerStatus(string(*req.Status)); err != nil {
			return nil, apperror.Validation("status", err.Error())
		}
	}
	if req.TotalCost != nil && *req.TotalCost < 0 {
		return nil, apperror.Validation("total_cost", "must not be negative")
	}

	var oldStatus models.DinnerStatus
	dinner, err := s.store.UpdateDinner(ctx, dinnerID, func(d *models.Dinner, _ []models.LineItem) error {
		oldStatus = d.Status
		if req.TableNumber != nil {
			d.TableNumber = *req.TableNumber
		}
		if req.Status != nil {
			d.Status = *req.Status
		}
		if req.TotalCost != nil {
			total := *req.TotalCost
			d.TotalCost = &total
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, dinner, oldStatus, caller.Label())
	return dinner, nil
}

// SoftDelete marks a dinner deleted. The row and its line items are kept.
func (s *Service) SoftDelete(ctx context.Context, caller *auth.Identity, dinnerID int64) (*models.Dinner, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	var oldStatus models.DinnerStatus
	dinner, err := s.store.UpdateDinner(ctx, dinnerID, func(d *models.Dinner, _ []models.LineItem) error {
		oldStatus = d.Status
		d.Status = models.DinnerDeleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dinner_deleted", "Dinner deleted", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"dinner_id": dinner.ID,
		"by":        caller.UserID,
	})
	s.notify(ctx, dinner, oldStatus, caller.Label())
	return dinner, nil
}

// Upsert lets admins and moderators create a dinner directly or update the
// table and status of an existing one.
func (s *Service) Upsert(ctx context.Context, caller *auth.Identity, req *models.UpsertDinnerRequest) (*models.Dinner, error) {
	if err := auth.RequireAdminOrModerator(caller); err != nil {
		return nil, err
	}
	if req.TableNumber == nil {
		return nil, apperror.Validation("table_number", "field is required")
	}
	if *req.TableNumber < 1 {
		return nil, apperror.Validation("table_number", "must be a positive number")
	}
	if req.Status != nil {
		if _, err := models.ParseDinnerStatus(string(*req.Status)); err != nil {
			return nil, apperror.Validation("status", err.Error())
		}
	}

	if req.ID == nil {
		status := models.DinnerDraft
		if req.Status != nil {
			status = *req.Status
		}
		dinner, err := s.store.CreateDinner(ctx, &models.Dinner{
			TableNumber:  *req.TableNumber,
			Status:       status,
			CreatedAt:    s.now(),
			CreatorID:    caller.UserID,
			CreatorEmail: caller.Label(),
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("dinner_created", "Dinner created by staff", logger.RequestIDFromContext(ctx), map[string]interface{}{
			"dinner_id": dinner.ID,
			"status":    dinner.Status,
		})
		return dinner, nil
	}

	var oldStatus models.DinnerStatus
	dinner, err := s.store.UpdateDinner(ctx, *req.ID, func(d *models.Dinner, _ []models.LineItem) error {
		oldStatus = d.Status
		d.TableNumber = *req.TableNumber
		if req.Status != nil {
			d.Status = *req.Status
		}
		moderatorID, moderatorEmail := caller.UserID, caller.Label()
		d.ModeratorID = &moderatorID
		d.ModeratorEmail = &moderatorEmail
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, dinner, oldStatus, caller.Label())
	return dinner, nil
}

// List returns dinners visible to the caller. Staff see everything; other
// callers see their own dinners except drafts and deleted ones.
func (s *Service) List(ctx context.Context, caller *auth.Identity, filter models.DinnerFilter) ([]models.Dinner, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	if !caller.HasStaffAccess() {
		creatorID := caller.UserID
		filter.CreatorID = &creatorID
		filter.ExcludeStatuses = []models.DinnerStatus{models.DinnerDraft, models.DinnerDeleted}
	}

	dinners, err := s.store.ListDinners(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list dinners: %w", err)
	}
	return dinners, nil
}

// Get returns a dinner with its line items and total portion count
func (s *Service) Get(ctx context.Context, caller *auth.Identity, dinnerID int64) (*models.DinnerDetail, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	dinner, err := s.store.GetDinner(ctx, dinnerID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListLineItems(ctx, dinnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}

	count, err := s.store.SumDishCount(ctx, dinnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count dishes: %w", err)
	}

	if items == nil {
		items = []models.LineItem{}
	}
	return &models.DinnerDetail{Dinner: *dinner, Dishes: items, DishCount: count}, nil
}
