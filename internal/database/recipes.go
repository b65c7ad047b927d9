package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

// RecipeRepository handles recipe database operations
type RecipeRepository struct {
	db *DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create creates a new recipe. Tags are stored as a JSONB column.
func (r *RecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	query := `
		INSERT INTO recipes (id, family_id, name, image_url, prep_minutes, cook_minutes, tags, servings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	tagsJSON, err := json.Marshal(recipe.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		recipe.ID,
		recipe.FamilyID,
		recipe.Name,
		recipe.ImageURL,
		nullableInt(recipe.PrepMinutes),
		nullableInt(recipe.CookMinutes),
		tagsJSON,
		recipe.Servings,
		now,
		now,
	).Scan(&recipe.CreatedAt, &recipe.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	return nil
}

// GetByID retrieves a recipe by ID
func (r *RecipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	query := `
		SELECT id, family_id, name, image_url, prep_minutes, cook_minutes, tags, servings, created_at, updated_at
		FROM recipes
		WHERE id = $1
	`

	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recipe not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	return recipe, nil
}

// ListByFamily retrieves all recipes owned by a family. Returns an
// empty slice when the family has no recipes.
func (r *RecipeRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.Recipe, error) {
	query := `
		SELECT id, family_id, name, image_url, prep_minutes, cook_minutes, tags, servings, created_at, updated_at
		FROM recipes
		WHERE family_id = $1
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, *recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	return recipes, nil
}

// Update updates an existing recipe
func (r *RecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	query := `
		UPDATE recipes
		SET name = $2, image_url = $3, prep_minutes = $4, cook_minutes = $5, tags = $6, servings = $7, updated_at = $8
		WHERE id = $1
		RETURNING updated_at
	`

	tagsJSON, err := json.Marshal(recipe.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		recipe.ID,
		recipe.Name,
		recipe.ImageURL,
		nullableInt(recipe.PrepMinutes),
		nullableInt(recipe.CookMinutes),
		tagsJSON,
		recipe.Servings,
		time.Now(),
	).Scan(&recipe.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("recipe not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	return nil
}

// Delete deletes a recipe by ID. Meals referencing it are left in
// place; the dashboard drops them at display time.
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("recipe not found")
	}

	return nil
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	var imageURL sql.NullString
	var prep, cook sql.NullInt64
	var tagsJSON []byte

	err := row.Scan(
		&recipe.ID,
		&recipe.FamilyID,
		&recipe.Name,
		&imageURL,
		&prep,
		&cook,
		&tagsJSON,
		&recipe.Servings,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if imageURL.Valid {
		recipe.ImageURL = &imageURL.String
	}
	if prep.Valid {
		v := int(prep.Int64)
		recipe.PrepMinutes = &v
	}
	if cook.Valid {
		v := int(cook.Int64)
		recipe.CookMinutes = &v
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &recipe.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}

	return recipe, nil
}
