package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/database"
	"restaurant-orders/internal/models"
)

// DishRepo stores catalog dishes in PostgreSQL
type DishRepo struct {
	db *database.DB
}

// NewDishRepo creates a new dish repository
func NewDishRepo(db *database.DB) *DishRepo {
	return &DishRepo{db: db}
}

// ListDishes returns active dishes within the optional price range, cheapest first
func (r *DishRepo) ListDishes(ctx context.Context, filter models.DishFilter) ([]models.Dish, error) {
	conditions := []string{"status = 'active'"}
	var args []interface{}

	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}

	query := database.SelectDishesSQL + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY price ASC, id ASC"
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dishes: %w", err)
	}
	defer rows.Close()

	dishes := []models.Dish{}
	for rows.Next() {
		dish, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		dishes = append(dishes, *dish)
	}
	return dishes, rows.Err()
}

// GetDish returns a dish by id regardless of its status
func (r *DishRepo) GetDish(ctx context.Context, id int64) (*models.Dish, error) {
	dish, err := scanDish(r.db.QueryRow(ctx, database.GetDishByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound(fmt.Sprintf("dish %d not found", id))
		}
		return nil, fmt.Errorf("failed to query dish: %w", err)
	}
	return dish, nil
}

// CreateDish inserts a new active dish
func (r *DishRepo) CreateDish(ctx context.Context, req *models.CreateDishRequest) (*models.Dish, error) {
	dish, err := scanDish(r.db.QueryRow(ctx, database.InsertDishSQL,
		req.Name, req.Type, req.Description, req.Price, req.Weight))
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, apperror.Conflict("dish already exists")
		}
		return nil, fmt.Errorf("failed to insert dish: %w", err)
	}
	return dish, nil
}

// UpdateDish locks the dish row, applies mutate and persists the result atomically
func (r *DishRepo) UpdateDish(ctx context.Context, id int64, mutate func(dish *models.Dish) error) (*models.Dish, error) {
	var updated *models.Dish

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		dish, err := scanDish(tx.QueryRow(ctx, database.GetDishForUpdateSQL, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperror.NotFound(fmt.Sprintf("dish %d not found", id))
			}
			return fmt.Errorf("failed to lock dish: %w", err)
		}

		if err := mutate(dish); err != nil {
			return err
		}

		updated, err = scanDish(tx.QueryRow(ctx, database.UpdateDishSQL,
			dish.ID, dish.Name, dish.Type, dish.Description, dish.Price, dish.Weight, dish.Photo, string(dish.Status)))
		if err != nil {
			return fmt.Errorf("failed to update dish: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanDish(row pgx.Row) (*models.Dish, error) {
	var dish models.Dish
	var status string
	err := row.Scan(
		&dish.ID,
		&dish.Name,
		&dish.Type,
		&dish.Description,
		&dish.Price,
		&dish.Weight,
		&dish.Photo,
		&status,
	)
	if err != nil {
		return nil, err
	}
	dish.Status = models.DishStatus(status)
	return &dish, nil
}
