package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

// MealTypeRepository handles the global meal type catalog
type MealTypeRepository struct {
	db *DB
}

// NewMealTypeRepository creates a new meal type repository
func NewMealTypeRepository(db *DB) *MealTypeRepository {
	return &MealTypeRepository{db: db}
}

// List retrieves the full meal type catalog ordered for display.
// Returns an empty slice when the catalog is empty.
func (r *MealTypeRepository) List(ctx context.Context) ([]models.MealType, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, sort_order, created_at
		FROM meal_types
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal types: %w", err)
	}
	defer rows.Close()

	mealTypes := []models.MealType{}
	for rows.Next() {
		mt := models.MealType{}
		if err := rows.Scan(&mt.ID, &mt.Name, &mt.SortOrder, &mt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal type: %w", err)
		}
		mealTypes = append(mealTypes, mt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meal types: %w", err)
	}

	return mealTypes, nil
}

// GetByID retrieves a meal type by ID
func (r *MealTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MealType, error) {
	mt := &models.MealType{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, sort_order, created_at
		FROM meal_types
		WHERE id = $1
	`, id).Scan(&mt.ID, &mt.Name, &mt.SortOrder, &mt.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("meal type not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal type: %w", err)
	}

	return mt, nil
}

// Create creates a new meal type catalog entry
func (r *MealTypeRepository) Create(ctx context.Context, mt *models.MealType) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO meal_types (id, name, sort_order, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, mt.ID, mt.Name, mt.SortOrder, time.Now()).Scan(&mt.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create meal type: %w", err)
	}

	return nil
}
