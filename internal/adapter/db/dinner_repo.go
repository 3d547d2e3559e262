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

// DinnerRepo stores dinners and their line items in PostgreSQL
type DinnerRepo struct {
	db *database.DB
}

// NewDinnerRepo creates a new dinner repository
func NewDinnerRepo(db *database.DB) *DinnerRepo {
	return &DinnerRepo{db: db}
}

// FindDraft returns the caller's draft dinner
func (r *DinnerRepo) FindDraft(ctx context.Context, creatorID int64) (*models.Dinner, error) {
	dinner, err := scanDinner(r.db.QueryRow(ctx, database.GetDraftByCreatorSQL, creatorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("no draft dinner")
		}
		return nil, fmt.Errorf("failed to query draft: %w", err)
	}
	return dinner, nil
}

// CreateDinner inserts a dinner. A second draft for the same creator is a Conflict.
func (r *DinnerRepo) CreateDinner(ctx context.Context, dinner *models.Dinner) (*models.Dinner, error) {
	created, err := scanDinner(r.db.QueryRow(ctx, database.InsertDinnerSQL,
		dinner.TableNumber, string(dinner.Status), dinner.CreatedAt, dinner.CreatorID, dinner.CreatorEmail))
	if err != nil {
		if database.IsUniqueViolation(err, database.UniqueDraftPerUser) {
			return nil, apperror.Conflict("a draft dinner already exists for this user")
		}
		return nil, fmt.Errorf("failed to insert dinner: %w", err)
	}
	return created, nil
}

// GetDinner returns a dinner by id
func (r *DinnerRepo) GetDinner(ctx context.Context, id int64) (*models.Dinner, error) {
	dinner, err := scanDinner(r.db.QueryRow(ctx, database.GetDinnerByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dinnerNotFound(id)
		}
		return nil, fmt.Errorf("failed to query dinner: %w", err)
	}
	return dinner, nil
}

// ListDinners returns the dinners matching every condition of filter, newest first
func (r *DinnerRepo) ListDinners(ctx context.Context, filter models.DinnerFilter) ([]models.Dinner, error) {
	var conditions []string
	var args []interface{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		conditions = append(conditions, fmt.Sprintf("creator_id = $%d", len(args)))
	}
	if len(filter.ExcludeStatuses) > 0 {
		statuses := make([]string, 0, len(filter.ExcludeStatuses))
		for _, s := range filter.ExcludeStatuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("NOT (status = ANY($%d))", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := database.SelectDinnersSQL
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dinners: %w", err)
	}
	defer rows.Close()

	dinners := []models.Dinner{}
	for rows.Next() {
		dinner, err := scanDinner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dinner: %w", err)
		}
		dinners = append(dinners, *dinner)
	}
	return dinners, rows.Err()
}

// UpdateDinner locks the dinner row, hands it with its line items to mutate and
// persists the mutated dinner in the same transaction. An error from mutate
// rolls everything back.
func (r *DinnerRepo) UpdateDinner(ctx context.Context, id int64, mutate func(dinner *models.Dinner, items []models.LineItem) error) (*models.Dinner, error) {
	var updated *models.Dinner

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		dinner, err := lockDinner(ctx, tx, id)
		if err != nil {
			return err
		}

		items, err := listLineItems(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := mutate(dinner, items); err != nil {
			return err
		}

		updated, err = scanDinner(tx.QueryRow(ctx, database.UpdateDinnerSQL,
			dinner.ID,
			dinner.TableNumber,
			string(dinner.Status),
			dinner.FormedAt,
			dinner.CompletedAt,
			dinner.ModeratorID,
			dinner.ModeratorEmail,
			dinner.TotalCost,
		))
		if err != nil {
			if database.IsUniqueViolation(err, database.UniqueDraftPerUser) {
				return apperror.Conflict("a draft dinner already exists for this user")
			}
			return fmt.Errorf("failed to update dinner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListLineItems returns the line items of a dinner joined with their dishes
func (r *DinnerRepo) ListLineItems(ctx context.Context, dinnerID int64) ([]models.LineItem, error) {
	return listLineItems(ctx, r.db.Pool, dinnerID)
}

// SumDishCount returns the total quantity of dishes ordered in a dinner
func (r *DinnerRepo) SumDishCount(ctx context.Context, dinnerID int64) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, database.SumDishCountSQL, dinnerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to sum dish count: %w", err)
	}
	return count, nil
}

// LineItemExists reports whether the dish is already part of the dinner
func (r *DinnerRepo) LineItemExists(ctx context.Context, dinnerID, dishID int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, database.LineItemExistsSQL, dinnerID, dishID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check line item: %w", err)
	}
	return exists, nil
}

// AddLineItem locks the parent dinner, runs check and inserts the line item.
// A second line for the same dish is a Conflict.
func (r *DinnerRepo) AddLineItem(ctx context.Context, item *models.DinnerDish, check func(dinner *models.Dinner) error) (*models.DinnerDish, error) {
	var created models.DinnerDish

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		dinner, err := lockDinner(ctx, tx, item.DinnerID)
		if err != nil {
			return err
		}
		if err := check(dinner); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, database.InsertLineItemSQL, item.DinnerID, item.DishID, item.User, item.Count).Scan(
			&created.ID,
			&created.DinnerID,
			&created.DishID,
			&created.User,
			&created.Count,
		)
		if err != nil {
			if database.IsUniqueViolation(err, database.UniqueDinnerDish) {
				return apperror.Conflict("dish is already in the draft")
			}
			return fmt.Errorf("failed to insert line item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateLineItem locks the parent dinner, applies mutate to the line item and persists it
func (r *DinnerRepo) UpdateLineItem(ctx context.Context, dinnerID, dishID int64, mutate func(dinner *models.Dinner, item *models.LineItem) error) (*models.LineItem, error) {
	var result *models.LineItem

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		dinner, err := lockDinner(ctx, tx, dinnerID)
		if err != nil {
			return err
		}

		item, err := scanLineItem(tx.QueryRow(ctx, database.GetLineItemSQL, dinnerID, dishID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return lineItemNotFound(dinnerID, dishID)
			}
			return fmt.Errorf("failed to query line item: %w", err)
		}

		if err := mutate(dinner, item); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, database.UpdateLineItemSQL, dinnerID, dishID, item.User, item.Count); err != nil {
			return fmt.Errorf("failed to update line item: %w", err)
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteLineItem locks the parent dinner, runs check and removes the line item
func (r *DinnerRepo) DeleteLineItem(ctx context.Context, dinnerID, dishID int64, check func(dinner *models.Dinner) error) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		dinner, err := lockDinner(ctx, tx, dinnerID)
		if err != nil {
			return err
		}
		if err := check(dinner); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, database.DeleteLineItemSQL, dinnerID, dishID)
		if err != nil {
			return fmt.Errorf("failed to delete line item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return lineItemNotFound(dinnerID, dishID)
		}
		return nil
	})
}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func lockDinner(ctx context.Context, tx pgx.Tx, id int64) (*models.Dinner, error) {
	dinner, err := scanDinner(tx.QueryRow(ctx, database.GetDinnerForUpdateSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dinnerNotFound(id)
		}
		return nil, fmt.Errorf("failed to lock dinner: %w", err)
	}
	return dinner, nil
}

func listLineItems(ctx context.Context, q querier, dinnerID int64) ([]models.LineItem, error) {
	rows, err := q.Query(ctx, database.ListLineItemsSQL, dinnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	items := []models.LineItem{}
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanDinner(row pgx.Row) (*models.Dinner, error) {
	var dinner models.Dinner
	var status string
	err := row.Scan(
		&dinner.ID,
		&dinner.TableNumber,
		&status,
		&dinner.CreatedAt,
		&dinner.FormedAt,
		&dinner.CompletedAt,
		&dinner.CreatorID,
		&dinner.CreatorEmail,
		&dinner.ModeratorID,
		&dinner.ModeratorEmail,
		&dinner.TotalCost,
	)
	if err != nil {
		return nil, err
	}
	dinner.Status = models.DinnerStatus(status)
	return &dinner, nil
}

func scanLineItem(row pgx.Row) (*models.LineItem, error) {
	var item models.LineItem
	err := row.Scan(
		&item.ID,
		&item.DinnerID,
		&item.DishID,
		&item.User,
		&item.Count,
		&item.DishName,
		&item.DishPrice,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func dinnerNotFound(id int64) error {
	return apperror.NotFound(fmt.Sprintf("dinner %d not found", id))
}

func lineItemNotFound(dinnerID, dishID int64) error {
	return apperror.NotFound(fmt.Sprintf("dish %d is not part of dinner %d", dishID, dinnerID))
}
