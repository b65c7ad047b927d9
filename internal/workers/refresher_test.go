package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/queue"
	"go.uber.org/zap"
)

func day(offset int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestRefresher_ProcessDashboardRefreshJob(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	recipeID := uuid.New()

	mealRepo := &fakeMealRepo{meals: []models.Meal{
		{ID: uuid.New(), FamilyID: familyID, RecipeID: recipeID, ScheduledDate: day(1)},
		{ID: uuid.New(), FamilyID: familyID, RecipeID: uuid.New(), ScheduledDate: day(2)}, // orphaned
	}}
	recipeRepo := &fakeRecipeRepo{recipes: []models.Recipe{
		{ID: recipeID, FamilyID: familyID, Name: "Pasta", Servings: 4},
	}}
	mealTypeRepo := &fakeMealTypeRepo{}
	snapshots := newFakeSnapshotStore()

	refresher := NewRefresher(mealRepo, recipeRepo, mealTypeRepo, snapshots, 30, zap.NewNop())

	job := queue.NewJob(queue.JobTypeDashboardRefresh, familyID)
	if err := refresher.ProcessDashboardRefreshJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessDashboardRefreshJob() error = %v", err)
	}

	stored, ok := snapshots.upcoming[familyID]
	if !ok {
		t.Fatal("Expected snapshot to be stored")
	}
	if len(stored) != 1 {
		t.Fatalf("Expected 1 displayable meal in snapshot, got %d", len(stored))
	}
	if stored[0].RecipeName != "Pasta" {
		t.Errorf("Expected Pasta in snapshot, got %s", stored[0].RecipeName)
	}
}

func TestRefresher_RequiresFamilyID(t *testing.T) {
	t.Parallel()

	refresher := NewRefresher(&fakeMealRepo{}, &fakeRecipeRepo{}, &fakeMealTypeRepo{}, newFakeSnapshotStore(), 30, zap.NewNop())

	job := &queue.Job{ID: uuid.New(), Type: queue.JobTypeDashboardRefresh}
	if err := refresher.ProcessDashboardRefreshJob(context.Background(), job); err == nil {
		t.Error("Expected error for job without family ID")
	}
}

func TestRefresher_RepositoryErrorPropagates(t *testing.T) {
	t.Parallel()

	refresher := NewRefresher(
		&fakeMealRepo{err: errors.New("db down")},
		&fakeRecipeRepo{},
		&fakeMealTypeRepo{},
		newFakeSnapshotStore(),
		30,
		zap.NewNop(),
	)

	job := queue.NewJob(queue.JobTypeDashboardRefresh, uuid.New())
	if err := refresher.ProcessDashboardRefreshJob(context.Background(), job); err == nil {
		t.Error("Expected repository error to propagate")
	}
}

func TestRefresher_EmptyFamilyStoresEmptySnapshot(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	snapshots := newFakeSnapshotStore()
	refresher := NewRefresher(&fakeMealRepo{}, &fakeRecipeRepo{}, &fakeMealTypeRepo{}, snapshots, 30, zap.NewNop())

	job := queue.NewJob(queue.JobTypeDashboardRefresh, familyID)
	if err := refresher.ProcessDashboardRefreshJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessDashboardRefreshJob() error = %v", err)
	}

	stored, ok := snapshots.upcoming[familyID]
	if !ok {
		t.Fatal("Expected an empty snapshot to be stored")
	}
	if len(stored) != 0 {
		t.Errorf("Expected empty snapshot, got %d entries", len(stored))
	}
}
