package dinner

import (
	"context"

	"restaurant-orders/internal/models"
)

// Store persists dinners and their line items. Mutating methods take a callback
// that runs while the dinner row is locked.
type Store interface {
	FindDraft(ctx context.Context, creatorID int64) (*models.Dinner, error)
	CreateDinner(ctx context.Context, dinner *models.Dinner) (*models.Dinner, error)
	GetDinner(ctx context.Context, id int64) (*models.Dinner, error)
	ListDinners(ctx context.Context, filter models.DinnerFilter) ([]models.Dinner, error)
	UpdateDinner(ctx context.Context, id int64, mutate func(dinner *models.Dinner, items []models.LineItem) error) (*models.Dinner, error)

	ListLineItems(ctx context.Context, dinnerID int64) ([]models.LineItem, error)
	SumDishCount(ctx context.Context, dinnerID int64) (int64, error)
	LineItemExists(ctx context.Context, dinnerID, dishID int64) (bool, error)
	AddLineItem(ctx context.Context, item *models.DinnerDish, check func(dinner *models.Dinner) error) (*models.DinnerDish, error)
	UpdateLineItem(ctx context.Context, dinnerID, dishID int64, mutate func(dinner *models.Dinner, item *models.LineItem) error) (*models.LineItem, error)
	DeleteLineItem(ctx context.Context, dinnerID, dishID int64, check func(dinner *models.Dinner) error) error
}

// DishReader resolves catalog dishes, including deleted ones
type DishReader interface {
	GetDish(ctx context.Context, id int64) (*models.Dish, error)
}

// Renderer turns receipt text into a PNG image
type Renderer interface {
	Render(text string) ([]byte, error)
}

// Notifier announces dinner status changes
type Notifier interface {
	PublishDinnerEvent(ctx context.Context, event *models.DinnerStatusEvent) error
}
