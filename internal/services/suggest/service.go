package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/plateful/plateful-api/internal/models"
	"go.uber.org/zap"
)

// DefaultSuggestionCount is how many suggestions one request yields.
const DefaultSuggestionCount = 3

// MaxSuggestionDays caps how many unplanned days are sent to the provider.
const MaxSuggestionDays = 7

// Service turns a family's catalog, preferences and planning gaps into
// meal suggestions via a Provider. The suggestion plane is optional:
// callers are expected to treat an error as "no suggestions", never as
// a dashboard failure.
type Service struct {
	provider Provider
	logger   *zap.Logger
}

// NewService creates a new suggestion service
func NewService(provider Provider, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// SuggestMeals asks the provider for meals covering the given
// unplanned days and resolves returned recipe names against the
// family's catalog. Suggestions for days that were not requested are
// discarded, and the result is clamped to count entries.
func (s *Service) SuggestMeals(ctx context.Context, recipes []models.Recipe, prefs *models.FamilyPreferences, days []string, count int) ([]Suggestion, error) {
	if count <= 0 {
		count = DefaultSuggestionCount
	}
	if len(days) == 0 {
		return []Suggestion{}, nil
	}
	if len(days) > MaxSuggestionDays {
		days = days[:MaxSuggestionDays]
	}

	suggestions, err := s.provider.SuggestMeals(ctx, Request{
		Recipes:     recipes,
		Preferences: prefs,
		Days:        days,
		Count:       count,
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion provider failed: %w", err)
	}

	requested := make(map[string]bool, len(days))
	for _, d := range days {
		requested[d] = true
	}

	catalog := make(map[string]*models.Recipe, len(recipes))
	for i := range recipes {
		catalog[normalizeRecipeName(recipes[i].Name)] = &recipes[i]
	}

	resolved := make([]Suggestion, 0, count)
	for _, sg := range suggestions {
		if !requested[sg.Date] {
			if s.logger != nil {
				s.logger.Debug("dropping_suggestion_for_unrequested_day",
					zap.String("date", sg.Date),
				)
			}
			continue
		}
		if recipe, ok := catalog[normalizeRecipeName(sg.RecipeName)]; ok {
			id := recipe.ID
			sg.RecipeID = &id
			sg.RecipeName = recipe.Name
		}
		resolved = append(resolved, sg)
		if len(resolved) == count {
			break
		}
	}

	return resolved, nil
}

func normalizeRecipeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
