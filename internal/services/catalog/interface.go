package catalog

import (
	"context"

	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/models"
)

// DishStore persists catalog dishes. UpdateDish runs mutate with the row locked.
type DishStore interface {
	ListDishes(ctx context.Context, filter models.DishFilter) ([]models.Dish, error)
	GetDish(ctx context.Context, id int64) (*models.Dish, error)
	CreateDish(ctx context.Context, req *models.CreateDishRequest) (*models.Dish, error)
	UpdateDish(ctx context.Context, id int64, mutate func(dish *models.Dish) error) (*models.Dish, error)
}

// PhotoStore keeps dish photos in an object store
type PhotoStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

// DraftLookup reports the caller's open draft without creating one
type DraftLookup interface {
	CurrentDraftID(ctx context.Context, caller *auth.Identity) (*int64, error)
}
