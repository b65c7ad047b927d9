package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

// MealRepositoryInterface defines the meal repository operations the
// handlers and workers depend on. It enables fake implementations in
// tests.
type MealRepositoryInterface interface {
	Create(ctx context.Context, meal *models.Meal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Meal, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID, from, to time.Time) ([]models.Meal, error)
	Update(ctx context.Context, meal *models.Meal) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecipeRepositoryInterface defines the recipe repository operations
type RecipeRepositoryInterface interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MealTypeRepositoryInterface defines the meal type catalog operations
type MealTypeRepositoryInterface interface {
	List(ctx context.Context) ([]models.MealType, error)
}

// PreferencesRepositoryInterface defines the family preferences operations
type PreferencesRepositoryInterface interface {
	GetByFamilyID(ctx context.Context, familyID uuid.UUID) (*models.FamilyPreferences, error)
	Upsert(ctx context.Context, prefs *models.FamilyPreferences) error
}

// FamilyRepositoryInterface defines the family and membership operations
type FamilyRepositoryInterface interface {
	Create(ctx context.Context, family *models.Family, ownerID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Family, error)
	AddMember(ctx context.Context, familyID, userID uuid.UUID, role models.FamilyRole) error
	GetMembership(ctx context.Context, familyID, userID uuid.UUID) (*models.FamilyMembership, error)
	ListActiveFamilyIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// UserRepositoryInterface defines the user operations the handlers depend on
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// Ensure concrete types implement the interfaces
var (
	_ MealRepositoryInterface        = (*MealRepository)(nil)
	_ RecipeRepositoryInterface      = (*RecipeRepository)(nil)
	_ MealTypeRepositoryInterface    = (*MealTypeRepository)(nil)
	_ PreferencesRepositoryInterface = (*PreferencesRepository)(nil)
	_ FamilyRepositoryInterface      = (*FamilyRepository)(nil)
	_ UserRepositoryInterface        = (*UserRepository)(nil)
)
