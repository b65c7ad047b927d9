package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/queue"
	"github.com/plateful/plateful-api/internal/services/suggest"
	"go.uber.org/zap"
)

// SuggestionHorizonDays is how far ahead the suggester looks for
// unplanned days.
const SuggestionHorizonDays = 7

// Suggester processes meal suggestion jobs: it finds the family's
// unplanned days over the coming week, asks the suggestion service for
// proposals, and stores them as a warm snapshot for the suggestions
// endpoint.
type Suggester struct {
	mealRepo   database.MealRepositoryInterface
	recipeRepo database.RecipeRepositoryInterface
	prefsRepo  database.PreferencesRepositoryInterface
	service    *suggest.Service
	snapshots  SnapshotStore
	logger     *zap.Logger
}

// NewSuggester creates a new suggester
func NewSuggester(
	mealRepo database.MealRepositoryInterface,
	recipeRepo database.RecipeRepositoryInterface,
	prefsRepo database.PreferencesRepositoryInterface,
	service *suggest.Service,
	snapshots SnapshotStore,
	logger *zap.Logger,
) *Suggester {
	return &Suggester{
		mealRepo:   mealRepo,
		recipeRepo: recipeRepo,
		prefsRepo:  prefsRepo,
		service:    service,
		snapshots:  snapshots,
		logger:     logger,
	}
}

// ProcessMealSuggestionsJob precomputes suggestions for one family
func (s *Suggester) ProcessMealSuggestionsJob(ctx context.Context, job *queue.Job) error {
	if job.FamilyID == uuid.Nil {
		return fmt.Errorf("family_id is required for meal suggestions job")
	}
	if s.service == nil {
		return fmt.Errorf("no suggestion service configured")
	}

	days, err := s.unplannedDays(ctx, job.FamilyID, time.Now())
	if err != nil {
		return err
	}

	if len(days) == 0 {
		// Fully planned week: an empty snapshot is still worth storing
		// so the endpoint does not recompute on every request.
		if err := s.snapshots.SetSuggestions(ctx, job.FamilyID, []suggest.Suggestion{}); err != nil {
			return fmt.Errorf("failed to store empty suggestions snapshot: %w", err)
		}
		return nil
	}

	recipes, err := s.recipeRepo.ListByFamily(ctx, job.FamilyID)
	if err != nil {
		return fmt.Errorf("failed to list recipes: %w", err)
	}

	prefs, err := s.prefsRepo.GetByFamilyID(ctx, job.FamilyID)
	if err != nil {
		// Preferences are optional context; suggest without them.
		s.logger.Warn("failed_to_load_family_preferences",
			zap.String("family_id", job.FamilyID.String()),
			zap.Error(err),
		)
		prefs = nil
	}

	suggestions, err := s.service.SuggestMeals(ctx, recipes, prefs, days, suggest.DefaultSuggestionCount)
	if err != nil {
		return fmt.Errorf("failed to compute suggestions: %w", err)
	}

	if err := s.snapshots.SetSuggestions(ctx, job.FamilyID, suggestions); err != nil {
		return fmt.Errorf("failed to store suggestions snapshot: %w", err)
	}

	s.logger.Info("precomputed_meal_suggestions",
		zap.String("family_id", job.FamilyID.String()),
		zap.Int("unplanned_days", len(days)),
		zap.Int("suggestion_count", len(suggestions)),
	)
	return nil
}

// unplannedDays returns the calendar days within the horizon that have
// no meal planned, in chronological order.
func (s *Suggester) unplannedDays(ctx context.Context, familyID uuid.UUID, now time.Time) ([]string, error) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, SuggestionHorizonDays-1)

	meals, err := s.mealRepo.ListByFamily(ctx, familyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}

	planned := make(map[string]bool, len(meals))
	for i := range meals {
		planned[meals[i].ScheduledDay()] = true
	}

	days := make([]string, 0, SuggestionHorizonDays)
	for i := 0; i < SuggestionHorizonDays; i++ {
		day := from.AddDate(0, 0, i).Format(models.DateLayout)
		if !planned[day] {
			days = append(days, day)
		}
	}
	return days, nil
}
