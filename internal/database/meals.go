package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

// MealRepository handles meal database operations
type MealRepository struct {
	db *DB
}

// NewMealRepository creates a new meal repository
func NewMealRepository(db *DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create creates a new meal
func (r *MealRepository) Create(ctx context.Context, meal *models.Meal) error {
	query := `
		INSERT INTO meals (id, family_id, recipe_id, meal_type_id, scheduled_date, servings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		meal.ID,
		meal.FamilyID,
		meal.RecipeID,
		meal.MealTypeID,
		meal.ScheduledDate,
		nullableInt(meal.Servings),
		now,
		now,
	).Scan(&meal.CreatedAt, &meal.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create meal: %w", err)
	}

	return nil
}

// GetByID retrieves a meal by ID
func (r *MealRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	query := `
		SELECT id, family_id, recipe_id, meal_type_id, scheduled_date, servings, created_at, updated_at
		FROM meals
		WHERE id = $1
	`

	meal, err := scanMeal(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("meal not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}

	return meal, nil
}

// ListByFamily retrieves all meals for a family scheduled within the
// inclusive [from, to] date range. Returns an empty slice when no meals
// exist.
func (r *MealRepository) ListByFamily(ctx context.Context, familyID uuid.UUID, from, to time.Time) ([]models.Meal, error) {
	query := `
		SELECT id, family_id, recipe_id, meal_type_id, scheduled_date, servings, created_at, updated_at
		FROM meals
		WHERE family_id = $1 AND scheduled_date >= $2 AND scheduled_date <= $3
		ORDER BY scheduled_date ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, familyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	meals := []models.Meal{}
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, *meal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}

	return meals, nil
}

// Update updates an existing meal
func (r *MealRepository) Update(ctx context.Context, meal *models.Meal) error {
	query := `
		UPDATE meals
		SET recipe_id = $2, meal_type_id = $3, scheduled_date = $4, servings = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		meal.ID,
		meal.RecipeID,
		meal.MealTypeID,
		meal.ScheduledDate,
		nullableInt(meal.Servings),
		time.Now(),
	).Scan(&meal.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("meal not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update meal: %w", err)
	}

	return nil
}

// Delete deletes a meal by ID
func (r *MealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("meal not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*models.Meal, error) {
	meal := &models.Meal{}
	var servings sql.NullInt64

	err := row.Scan(
		&meal.ID,
		&meal.FamilyID,
		&meal.RecipeID,
		&meal.MealTypeID,
		&meal.ScheduledDate,
		&servings,
		&meal.CreatedAt,
		&meal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if servings.Valid {
		v := int(servings.Int64)
		meal.Servings = &v
	}

	return meal, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
