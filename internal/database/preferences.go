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

// PreferencesRepository handles family dietary preferences
type PreferencesRepository struct {
	db *DB
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// GetByFamilyID retrieves preferences for a family, or nil when the
// family has not set any.
func (r *PreferencesRepository) GetByFamilyID(ctx context.Context, familyID uuid.UUID) (*models.FamilyPreferences, error) {
	prefs := &models.FamilyPreferences{}
	var diet sql.NullString
	var allergiesJSON, dislikesJSON []byte

	query := `
		SELECT id, family_id, diet, allergies, dislikes, notes, created_at, updated_at
		FROM family_preferences
		WHERE family_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, familyID).Scan(
		&prefs.ID,
		&prefs.FamilyID,
		&diet,
		&allergiesJSON,
		&dislikesJSON,
		&prefs.Notes,
		&prefs.CreatedAt,
		&prefs.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family preferences: %w", err)
	}

	if diet.Valid {
		prefs.Diet = &diet.String
	}
	if len(allergiesJSON) > 0 {
		if err := json.Unmarshal(allergiesJSON, &prefs.Allergies); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allergies: %w", err)
		}
	}
	if len(dislikesJSON) > 0 {
		if err := json.Unmarshal(dislikesJSON, &prefs.Dislikes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dislikes: %w", err)
		}
	}

	return prefs, nil
}

// Upsert creates or replaces a family's preferences
func (r *PreferencesRepository) Upsert(ctx context.Context, prefs *models.FamilyPreferences) error {
	allergiesJSON, err := json.Marshal(prefs.Allergies)
	if err != nil {
		return fmt.Errorf("failed to marshal allergies: %w", err)
	}
	dislikesJSON, err := json.Marshal(prefs.Dislikes)
	if err != nil {
		return fmt.Errorf("failed to marshal dislikes: %w", err)
	}

	query := `
		INSERT INTO family_preferences (id, family_id, diet, allergies, dislikes, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (family_id) DO UPDATE
		SET diet = EXCLUDED.diet,
		    allergies = EXCLUDED.allergies,
		    dislikes = EXCLUDED.dislikes,
		    notes = EXCLUDED.notes,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		prefs.ID,
		prefs.FamilyID,
		prefs.Diet,
		allergiesJSON,
		dislikesJSON,
		prefs.Notes,
		now,
		now,
	).Scan(&prefs.CreatedAt, &prefs.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert family preferences: %w", err)
	}

	return nil
}
