package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

// FamilyRepository handles family and membership database operations
type FamilyRepository struct {
	db *DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// Create creates a new family and records the creating user as owner.
func (r *FamilyRepository) Create(ctx context.Context, family *models.Family, ownerID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO families (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, family.ID, family.Name, now, now).Scan(&family.CreatedAt, &family.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create family: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO family_members (family_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, family.ID, ownerID, models.FamilyRoleOwner, now)
	if err != nil {
		return fmt.Errorf("failed to add owner membership: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET family_id = $2, updated_at = $3 WHERE id = $1
	`, ownerID, family.ID, now)
	if err != nil {
		return fmt.Errorf("failed to select family for owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit family creation: %w", err)
	}

	return nil
}

// GetByID retrieves a family by ID
func (r *FamilyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Family, error) {
	family := &models.Family{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM families
		WHERE id = $1
	`, id).Scan(&family.ID, &family.Name, &family.CreatedAt, &family.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("family not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}

	return family, nil
}

// AddMember adds a user to a family and selects it as their current family.
func (r *FamilyRepository) AddMember(ctx context.Context, familyID, userID uuid.UUID, role models.FamilyRole) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO family_members (family_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (family_id, user_id) DO NOTHING
	`, familyID, userID, role, now)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET family_id = $2, updated_at = $3 WHERE id = $1
	`, userID, familyID, now)
	if err != nil {
		return fmt.Errorf("failed to select family for member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit membership: %w", err)
	}

	return nil
}

// GetMembership retrieves a user's membership in a family, or nil when
// the user is not a member.
func (r *FamilyRepository) GetMembership(ctx context.Context, familyID, userID uuid.UUID) (*models.FamilyMembership, error) {
	m := &models.FamilyMembership{}
	err := r.db.QueryRowContext(ctx, `
		SELECT family_id, user_id, role, created_at
		FROM family_members
		WHERE family_id = $1 AND user_id = $2
	`, familyID, userID).Scan(&m.FamilyID, &m.UserID, &m.Role, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return m, nil
}

// ListActiveFamilyIDs returns families with at least one member active
// since the cutoff. The refresher worker uses this to decide which
// dashboard snapshots to keep warm.
func (r *FamilyRepository) ListActiveFamilyIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT fm.family_id
		FROM family_members fm
		JOIN member_activity ma ON ma.user_id = fm.user_id
		WHERE ma.last_api_interaction >= $1
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active families: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan family id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active families: %w", err)
	}

	return ids, nil
}
