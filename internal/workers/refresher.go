package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/dashboard"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/queue"
	"github.com/plateful/plateful-api/internal/services/suggest"
	"go.uber.org/zap"
)

// SnapshotUpcomingLimit is how many upcoming meals a warm snapshot
// holds. Larger than the dashboard card's three so a snapshot can also
// answer slightly wider widget queries.
const SnapshotUpcomingLimit = 7

// SnapshotStore is the cache surface the workers write to
type SnapshotStore interface {
	SetUpcoming(ctx context.Context, familyID uuid.UUID, meals []dashboard.DisplayMeal) error
	SetSuggestions(ctx context.Context, familyID uuid.UUID, suggestions []suggest.Suggestion) error
}

// Refresher processes dashboard refresh jobs: it re-derives a family's
// upcoming-meals view from the repositories and stores the result as a
// warm snapshot. The derivation itself stays in the dashboard package;
// the worker only moves data.
type Refresher struct {
	mealRepo     database.MealRepositoryInterface
	recipeRepo   database.RecipeRepositoryInterface
	mealTypeRepo database.MealTypeRepositoryInterface
	snapshots    SnapshotStore
	windowDays   int
	logger       *zap.Logger
}

// NewRefresher creates a new refresher
func NewRefresher(
	mealRepo database.MealRepositoryInterface,
	recipeRepo database.RecipeRepositoryInterface,
	mealTypeRepo database.MealTypeRepositoryInterface,
	snapshots SnapshotStore,
	windowDays int,
	logger *zap.Logger,
) *Refresher {
	if windowDays < 1 {
		windowDays = 30
	}
	return &Refresher{
		mealRepo:     mealRepo,
		recipeRepo:   recipeRepo,
		mealTypeRepo: mealTypeRepo,
		snapshots:    snapshots,
		windowDays:   windowDays,
		logger:       logger,
	}
}

// ProcessDashboardRefreshJob rebuilds one family's upcoming-meals snapshot
func (r *Refresher) ProcessDashboardRefreshJob(ctx context.Context, job *queue.Job) error {
	if job.FamilyID == uuid.Nil {
		return fmt.Errorf("family_id is required for dashboard refresh job")
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, r.windowDays)

	meals, err := r.mealRepo.ListByFamily(ctx, job.FamilyID, from, to)
	if err != nil {
		return fmt.Errorf("failed to list meals: %w", err)
	}

	recipes, err := r.recipeRepo.ListByFamily(ctx, job.FamilyID)
	if err != nil {
		return fmt.Errorf("failed to list recipes: %w", err)
	}

	mealTypes, err := r.mealTypeRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list meal types: %w", err)
	}

	display := dashboard.BuildUpcomingMeals(meals, recipes, mealTypes, now, SnapshotUpcomingLimit)

	if err := r.snapshots.SetUpcoming(ctx, job.FamilyID, display); err != nil {
		return fmt.Errorf("failed to store upcoming snapshot: %w", err)
	}

	r.logger.Info("refreshed_dashboard_snapshot",
		zap.String("family_id", job.FamilyID.String()),
		zap.Int("meal_count", len(meals)),
		zap.Int("display_count", len(display)),
	)
	return nil
}
