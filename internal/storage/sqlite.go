// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mcp-nutrition-tracker/internal/models"
)

// ErrNotFound is returned when a meal id does not exist for the owner.
var ErrNotFound = errors.New("not found")

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS meals (
        id TEXT PRIMARY KEY,
        owner_id TEXT NOT NULL,
        date TEXT NOT NULL,
        meal_type TEXT NOT NULL,
        calories REAL NOT NULL,
        protein REAL NOT NULL,
        carbs REAL NOT NULL,
        fat REAL NOT NULL,
        fiber REAL,
        sugar REAL,
        sodium REAL,
        notes TEXT NOT NULL DEFAULT '',
        source TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS foods (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        meal_id TEXT NOT NULL,
        external_food_id TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL,
        servings REAL NOT NULL,
        serving_size REAL NOT NULL DEFAULT 0,
        serving_size_unit TEXT NOT NULL DEFAULT '',
        calories REAL NOT NULL,
        protein REAL NOT NULL,
        carbs REAL NOT NULL,
        fat REAL NOT NULL,
        fiber REAL,
        sugar REAL,
        sodium REAL,
        FOREIGN KEY (meal_id) REFERENCES meals(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS goals (
        owner_id TEXT PRIMARY KEY,
        daily_calories REAL NOT NULL,
        protein REAL,
        carbs REAL,
        fat REAL,
        fiber REAL,
        updated_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_meals_owner_date ON meals(owner_id, date);
    CREATE INDEX IF NOT EXISTS idx_foods_meal_id ON foods(meal_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func optToNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullToOpt(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}

func (s *SQLiteStorage) SaveMeal(meal *models.Meal) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	mealQuery := `
        INSERT INTO meals (id, owner_id, date, meal_type, calories, protein, carbs, fat,
                           fiber, sugar, sodium, notes, source, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = tx.Exec(mealQuery,
		meal.ID, meal.OwnerID, meal.Date.String(), string(meal.MealType),
		meal.Totals.Calories, meal.Totals.Protein, meal.Totals.Carbs, meal.Totals.Fat,
		optToNull(meal.Totals.Fiber), optToNull(meal.Totals.Sugar), optToNull(meal.Totals.Sodium),
		meal.Notes, meal.Source,
		meal.CreatedAt.Format(time.RFC3339), meal.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}

	if err := insertFoods(tx, meal.ID, meal.Foods); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateMeal replaces a meal's mutable fields and its food rows. Totals
// are taken from the given meal, so callers recompute them first.
func (s *SQLiteStorage) UpdateMeal(meal *models.Meal) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	mealQuery := `
        UPDATE meals
        SET meal_type = ?, calories = ?, protein = ?, carbs = ?, fat = ?,
            fiber = ?, sugar = ?, sodium = ?, notes = ?, updated_at = ?
        WHERE id = ? AND owner_id = ?
    `
	res, err := tx.Exec(mealQuery,
		string(meal.MealType),
		meal.Totals.Calories, meal.Totals.Protein, meal.Totals.Carbs, meal.Totals.Fat,
		optToNull(meal.Totals.Fiber), optToNull(meal.Totals.Sugar), optToNull(meal.Totals.Sodium),
		meal.Notes, meal.UpdatedAt.Format(time.RFC3339),
		meal.ID, meal.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update meal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("meal %s: %w", meal.ID, ErrNotFound)
	}

	if _, err := tx.Exec(`DELETE FROM foods WHERE meal_id = ?`, meal.ID); err != nil {
		return fmt.Errorf("failed to delete old foods: %w", err)
	}
	if err := insertFoods(tx, meal.ID, meal.Foods); err != nil {
		return err
	}

	return tx.Commit()
}

func insertFoods(tx *sql.Tx, mealID string, foods []models.FoodEntry) error {
	foodQuery := `
        INSERT INTO foods (meal_id, external_food_id, description, servings,
                           serving_size, serving_size_unit,
                           calories, protein, carbs, fat, fiber, sugar, sodium)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	for _, food := range foods {
		_, err := tx.Exec(foodQuery,
			mealID, food.ExternalFoodID, food.Description, food.Servings,
			food.ServingSize, food.ServingSizeUnit,
			food.Nutrition.Calories, food.Nutrition.Protein, food.Nutrition.Carbs, food.Nutrition.Fat,
			optToNull(food.Nutrition.Fiber), optToNull(food.Nutrition.Sugar), optToNull(food.Nutrition.Sodium))
		if err != nil {
			return fmt.Errorf("failed to insert food: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) DeleteMeal(ownerID, mealID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM meals WHERE id = ? AND owner_id = ?`, mealID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("meal %s: %w", mealID, ErrNotFound)
	}
	if _, err := tx.Exec(`DELETE FROM foods WHERE meal_id = ?`, mealID); err != nil {
		return fmt.Errorf("failed to delete foods: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStorage) GetMeal(ownerID, mealID string) (*models.Meal, error) {
	meals, err := s.queryMeals(`WHERE id = ? AND owner_id = ?`, mealID, ownerID)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("meal %s: %w", mealID, ErrNotFound)
	}
	return meals[0], nil
}

// MealsForDate returns all of an owner's meals for one calendar day in
// insertion order.
func (s *SQLiteStorage) MealsForDate(ownerID string, date models.Date) ([]*models.Meal, error) {
	return s.queryMeals(`WHERE owner_id = ? AND date = ? ORDER BY created_at, id`,
		ownerID, date.String())
}

// MealsForDateRange returns all of an owner's meals with start <= date
// <= end, ordered by date then insertion order.
func (s *SQLiteStorage) MealsForDateRange(ownerID string, start, end models.Date) ([]*models.Meal, error) {
	return s.queryMeals(`WHERE owner_id = ? AND date >= ? AND date <= ? ORDER BY date, created_at, id`,
		ownerID, start.String(), end.String())
}

func (s *SQLiteStorage) queryMeals(where string, args ...interface{}) ([]*models.Meal, error) {
	query := `
        SELECT id, owner_id, date, meal_type, calories, protein, carbs, fat,
               fiber, sugar, sodium, notes, source, created_at, updated_at
        FROM meals ` + where

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []*models.Meal
	for rows.Next() {
		meal := &models.Meal{}
		var dateStr, mealTypeStr, createdAtStr, updatedAtStr string
		var fiber, sugar, sodium sql.NullFloat64

		err := rows.Scan(
			&meal.ID, &meal.OwnerID, &dateStr, &mealTypeStr,
			&meal.Totals.Calories, &meal.Totals.Protein, &meal.Totals.Carbs, &meal.Totals.Fat,
			&fiber, &sugar, &sodium,
			&meal.Notes, &meal.Source, &createdAtStr, &updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}

		if meal.Date, err = models.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		if meal.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if meal.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		meal.MealType = models.MealType(mealTypeStr)
		meal.Totals.Fiber = nullToOpt(fiber)
		meal.Totals.Sugar = nullToOpt(sugar)
		meal.Totals.Sodium = nullToOpt(sodium)

		if err := s.loadFoodsForMeal(meal); err != nil {
			return nil, fmt.Errorf("failed to load foods for meal %s: %w", meal.ID, err)
		}

		meals = append(meals, meal)
	}

	return meals, rows.Err()
}

func (s *SQLiteStorage) loadFoodsForMeal(meal *models.Meal) error {
	query := `
        SELECT external_food_id, description, servings, serving_size, serving_size_unit,
               calories, protein, carbs, fat, fiber, sugar, sodium
        FROM foods
        WHERE meal_id = ?
        ORDER BY id
    `

	rows, err := s.db.Query(query, meal.ID)
	if err != nil {
		return fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	var foods []models.FoodEntry
	for rows.Next() {
		food := models.FoodEntry{}
		var fiber, sugar, sodium sql.NullFloat64

		err := rows.Scan(
			&food.ExternalFoodID, &food.Description, &food.Servings,
			&food.ServingSize, &food.ServingSizeUnit,
			&food.Nutrition.Calories, &food.Nutrition.Protein, &food.Nutrition.Carbs, &food.Nutrition.Fat,
			&fiber, &sugar, &sodium)
		if err != nil {
			return fmt.Errorf("failed to scan food: %w", err)
		}

		food.Nutrition.Fiber = nullToOpt(fiber)
		food.Nutrition.Sugar = nullToOpt(sugar)
		food.Nutrition.Sodium = nullToOpt(sodium)
		foods = append(foods, food)
	}

	meal.Foods = foods
	return rows.Err()
}

// SaveGoals upserts the owner's single goal set.
func (s *SQLiteStorage) SaveGoals(goals *models.GoalSet) error {
	query := `
        INSERT INTO goals (owner_id, daily_calories, protein, carbs, fat, fiber, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(owner_id) DO UPDATE SET
            daily_calories = excluded.daily_calories,
            protein = excluded.protein,
            carbs = excluded.carbs,
            fat = excluded.fat,
            fiber = excluded.fiber,
            updated_at = excluded.updated_at
    `
	_, err := s.db.Exec(query,
		goals.OwnerID, goals.DailyCalories,
		optToNull(goals.Protein), optToNull(goals.Carbs), optToNull(goals.Fat), optToNull(goals.Fiber),
		goals.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save goals: %w", err)
	}
	return nil
}

// GetGoals returns the owner's goal set, or nil when none is configured.
// Substituting defaults for the nil case is the caller's decision.
func (s *SQLiteStorage) GetGoals(ownerID string) (*models.GoalSet, error) {
	query := `
        SELECT owner_id, daily_calories, protein, carbs, fat, fiber, updated_at
        FROM goals
        WHERE owner_id = ?
    `
	goals := &models.GoalSet{}
	var protein, carbs, fat, fiber sql.NullFloat64
	var updatedAtStr string

	err := s.db.QueryRow(query, ownerID).Scan(
		&goals.OwnerID, &goals.DailyCalories, &protein, &carbs, &fat, &fiber, &updatedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}

	if goals.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	goals.Protein = nullToOpt(protein)
	goals.Carbs = nullToOpt(carbs)
	goals.Fat = nullToOpt(fat)
	goals.Fiber = nullToOpt(fiber)
	return goals, nil
}
