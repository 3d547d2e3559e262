package database

// Constraint names referenced when translating unique violations
const (
	UniqueDraftPerUser = "unique_draft_per_user"
	UniqueDinnerDish   = "unique_dinner_dish"
)

// Migration bookkeeping queries
const (
	CreateMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`

	SelectAppliedMigrationsSQL = `SELECT migration_name FROM schema_migrations`

	InsertMigrationSQL = `INSERT INTO schema_migrations (migration_name) VALUES ($1)`
)

// Dish queries
const (
	DishColumns = `id, name, type, description, price, weight, photo, status`

	SelectDishesSQL = `SELECT ` + DishColumns + ` FROM dishes`

	GetDishByIDSQL = SelectDishesSQL + ` WHERE id = $1`

	InsertDishSQL = `
		INSERT INTO dishes (name, type, description, price, weight, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING ` + DishColumns

	UpdateDishSQL = `
		UPDATE dishes SET name = $2, type = $3, description = $4, price = $5, weight = $6, photo = $7, status = $8
		WHERE id = $1
		RETURNING ` + DishColumns

	GetDishForUpdateSQL = GetDishByIDSQL + ` FOR UPDATE`
)

// Dinner queries
const (
	DinnerColumns = `id, table_number, status, created_at, formed_at, completed_at,
		creator_id, creator_email, moderator_id, moderator_email, total_cost`

	SelectDinnersSQL = `SELECT ` + DinnerColumns + ` FROM dinners`

	GetDinnerByIDSQL = SelectDinnersSQL + ` WHERE id = $1`

	GetDinnerForUpdateSQL = GetDinnerByIDSQL + ` FOR UPDATE`

	GetDraftByCreatorSQL = SelectDinnersSQL + ` WHERE creator_id = $1 AND status = 'draft'`

	InsertDinnerSQL = `
		INSERT INTO dinners (table_number, status, created_at, creator_id, creator_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + DinnerColumns

	UpdateDinnerSQL = `
		UPDATE dinners SET table_number = $2, status = $3, formed_at = $4, completed_at = $5,
			moderator_id = $6, moderator_email = $7, total_cost = $8
		WHERE id = $1
		RETURNING ` + DinnerColumns
)

// Line item queries
const (
	LineItemColumns = `dd.id, dd.dinner_id, dd.dish_id, dd.user_label, dd.count, d.name, d.price`

	ListLineItemsSQL = `
		SELECT ` + LineItemColumns + `
		FROM dinner_dishes dd
		JOIN dishes d ON d.id = dd.dish_id
		WHERE dd.dinner_id = $1
		ORDER BY dd.id ASC`

	GetLineItemSQL = `
		SELECT ` + LineItemColumns + `
		FROM dinner_dishes dd
		JOIN dishes d ON d.id = dd.dish_id
		WHERE dd.dinner_id = $1 AND dd.dish_id = $2`

	LineItemExistsSQL = `SELECT EXISTS(SELECT 1 FROM dinner_dishes WHERE dinner_id = $1 AND dish_id = $2)`

	InsertLineItemSQL = `
		INSERT INTO dinner_dishes (dinner_id, dish_id, user_label, count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, dinner_id, dish_id, user_label, count`

	UpdateLineItemSQL = `
		UPDATE dinner_dishes SET user_label = $3, count = $4
		WHERE dinner_id = $1 AND dish_id = $2`

	DeleteLineItemSQL = `DELETE FROM dinner_dishes WHERE dinner_id = $1 AND dish_id = $2`

	SumDishCountSQL = `SELECT COALESCE(SUM(count), 0) FROM dinner_dishes WHERE dinner_id = $1`
)
