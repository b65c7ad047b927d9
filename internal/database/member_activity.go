package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

// MemberActivityRepository handles member activity database operations
type MemberActivityRepository struct {
	db *DB
}

// NewMemberActivityRepository creates a new member activity repository
func NewMemberActivityRepository(db *DB) *MemberActivityRepository {
	return &MemberActivityRepository{db: db}
}

// GetByUserID retrieves activity by user ID
func (r *MemberActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.MemberActivity, error) {
	activity := &models.MemberActivity{}

	query := `
		SELECT user_id, last_api_interaction, created_at, updated_at
		FROM member_activity
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&activity.UserID,
		&activity.LastAPIInteraction,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get member activity: %w", err)
	}

	return activity, nil
}

// UpdateLastInteraction records that a member just touched the API
func (r *MemberActivityRepository) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO member_activity (user_id, last_api_interaction, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET last_api_interaction = EXCLUDED.last_api_interaction,
		    updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, userID, now, now)
	if err != nil {
		return fmt.Errorf("failed to update last interaction: %w", err)
	}

	return nil
}
