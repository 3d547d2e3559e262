package catalog

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// Service manages the dish catalog and dish photos
type Service struct {
	dishes DishStore
	photos PhotoStore
	drafts DraftLookup
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new catalog service
func NewService(dishes DishStore, photos PhotoStore, drafts DraftLookup, log *logger.Logger) *Service {
	return &Service{
		dishes: dishes,
		photos: photos,
		drafts: drafts,
		logger: log,
		now:    time.Now,
	}
}

// List returns active dishes in the price range together with the caller's draft id
func (s *Service) List(ctx context.Context, caller *auth.Identity, filter models.DishFilter) (*models.DishListResponse, error) {
	if err := ValidatePriceRange(filter); err != nil {
		return nil, err
	}

	dishes, err := s.dishes.ListDishes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	if dishes == nil {
		dishes = []models.Dish{}
	}

	draftID, err := s.drafts.CurrentDraftID(ctx, caller)
	if err != nil {
		return nil, err
	}

	return &models.DishListResponse{Dishes: dishes, DraftDinnerID: draftID}, nil
}

// Get returns a dish, including soft-deleted ones
func (s *Service) Get(ctx context.Context, id int64) (*models.Dish, error) {
	return s.dishes.GetDish(ctx, id)
}

// Create adds an active dish to the catalog. Photos are set only by upload.
func (s *Service) Create(ctx context.Context, caller *auth.Identity, req *models.CreateDishRequest) (*models.Dish, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	if err := ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	dish, err := s.dishes.CreateDish(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("dish_created", "Dish added to catalog", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"dish_id": dish.ID,
		"name":    dish.Name,
		"price":   dish.Price,
	})
	return dish, nil
}

// Update applies a partial update to a dish
func (s *Service) Update(ctx context.Context, caller *auth.Identity, id int64, req *models.UpdateDishRequest) (*models.Dish, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	if err := ValidateUpdateRequest(req); err != nil {
		return nil, err
	}

	return s.dishes.UpdateDish(ctx, id, func(dish *models.Dish) error {
		if req.Name != nil {
			dish.Name = strings.TrimSpace(*req.Name)
		}
		if req.Type != nil {
			dish.Type = req.Type
		}
		if req.Description != nil {
			dish.Description = *req.Description
		}
		if req.Price != nil {
			dish.Price = *req.Price
		}
		if req.Weight != nil {
			dish.Weight = *req.Weight
		}
		if req.Status != nil {
			dish.Status = *req.Status
		}
		return nil
	})
}

// Delete soft-deletes a dish and clears its photo. The photo object is removed
// after the row is committed; a failed removal leaves an orphan that is logged.
func (s *Service) Delete(ctx context.Context, caller *auth.Identity, id int64) (*models.Dish, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}

	var oldPhoto *string
	dish, err := s.dishes.UpdateDish(ctx, id, func(dish *models.Dish) error {
		oldPhoto = dish.Photo
		dish.Photo = nil
		dish.Status = models.DishDeleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	requestID := logger.RequestIDFromContext(ctx)
	if oldPhoto != nil {
		key := s.photos.KeyFromURL(*oldPhoto)
		if err := s.photos.Remove(ctx, key); err != nil {
			s.logger.Error("photo_remove_failed", "Failed to remove photo of deleted dish", requestID, err, map[string]interface{}{
				"dish_id":    id,
				"orphan_key": key,
			})
		}
	}

	s.logger.Info("dish_deleted", "Dish removed from catalog", requestID, map[string]interface{}{
		"dish_id": id,
	})
	return dish, nil
}

// ReplacePhoto stores a new photo under a fresh key, points the dish at it and
// only then removes the previous object. Failing to remove the old object
// leaves an orphan, reported as a warning.
func (s *Service) ReplacePhoto(ctx context.Context, caller *auth.Identity, id int64, photo []byte, contentType, filename string) (*models.PhotoUploadResponse, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	if len(photo) == 0 {
		return nil, apperror.Validation("photo", "photo is required")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.Validation("photo", "photo must be an image")
	}

	if _, err := s.dishes.GetDish(ctx, id); err != nil {
		return nil, err
	}

	requestID := logger.RequestIDFromContext(ctx)
	key := fmt.Sprintf("dishes/%d-%d%s", id, s.now().UnixNano(), photoExtension(filename, contentType))

	url, err := s.photos.Put(ctx, key, photo, contentType)
	if err != nil {
		s.logger.Error("photo_upload_failed", "Failed to upload dish photo", requestID, err, map[string]interface{}{
			"dish_id": id,
			"key":     key,
		})
		return nil, apperror.Transport("failed to upload photo", err)
	}

	var previous *string
	_, err = s.dishes.UpdateDish(ctx, id, func(dish *models.Dish) error {
		previous = dish.Photo
		dish.Photo = &url
		return nil
	})
	if err != nil {
		if rmErr := s.photos.Remove(ctx, key); rmErr != nil {
			s.logger.Error("photo_remove_failed", "Failed to remove unused photo", requestID, rmErr, map[string]interface{}{
				"dish_id": id,
				"key":     key,
			})
		}
		return nil, err
	}

	resp := &models.PhotoUploadResponse{Message: "photo uploaded", PhotoURL: url}
	if previous != nil && *previous != url {
		oldKey := s.photos.KeyFromURL(*previous)
		if err := s.photos.Remove(ctx, oldKey); err != nil {
			s.logger.Error("photo_remove_failed", "Failed to remove previous dish photo", requestID, err, map[string]interface{}{
				"dish_id":      id,
				"orphaned_key": oldKey,
			})
			resp.Warning = "previous photo could not be removed"
		}
	}

	s.logger.Info("photo_uploaded", "Dish photo replaced", requestID, map[string]interface{}{
		"dish_id": id,
		"key":     key,
	})
	return resp, nil
}

func photoExtension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
