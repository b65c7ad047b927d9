package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/middleware"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/queue"
	"github.com/plateful/plateful-api/internal/services/suggest"
)

// Shared fakes and request helpers for handler tests.

var errRepo = errors.New("repository failure")

// authedRequest builds a request carrying a user who has selected the
// given family.
func authedRequest(method, target string, body io.Reader, familyID uuid.UUID) *http.Request {
	r := httptest.NewRequest(method, target, body)
	user := &models.User{
		ID:       uuid.New(),
		Email:    "member@example.com",
		FamilyID: &familyID,
	}
	return r.WithContext(middleware.SetUserInContext(r.Context(), user))
}

type fakeMealRepo struct {
	meals   map[uuid.UUID]*models.Meal
	listErr error
	err     error
}

func newFakeMealRepo() *fakeMealRepo {
	return &fakeMealRepo{meals: make(map[uuid.UUID]*models.Meal)}
}

func (f *fakeMealRepo) Create(ctx context.Context, meal *models.Meal) error {
	if f.err != nil {
		return f.err
	}
	now := time.Now()
	meal.CreatedAt = now
	meal.UpdatedAt = now
	f.meals[meal.ID] = meal
	return nil
}

func (f *fakeMealRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	if f.err != nil {
		return nil, f.err
	}
	meal, ok := f.meals[id]
	if !ok {
		return nil, errors.New("meal not found")
	}
	copied := *meal
	return &copied, nil
}

func (f *fakeMealRepo) ListByFamily(ctx context.Context, familyID uuid.UUID, from, to time.Time) ([]models.Meal, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := []models.Meal{}
	for _, meal := range f.meals {
		if meal.FamilyID != familyID {
			continue
		}
		if meal.ScheduledDate.Before(from) || meal.ScheduledDate.After(to) {
			continue
		}
		result = append(result, *meal)
	}
	return result, nil
}

func (f *fakeMealRepo) Update(ctx context.Context, meal *models.Meal) error {
	if f.err != nil {
		return f.err
	}
	f.meals[meal.ID] = meal
	return nil
}

func (f *fakeMealRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	delete(f.meals, id)
	return nil
}

type fakeRecipeRepo struct {
	recipes map[uuid.UUID]*models.Recipe
	err     error
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: make(map[uuid.UUID]*models.Recipe)}
}

func (f *fakeRecipeRepo) Create(ctx context.Context, recipe *models.Recipe) error {
	if f.err != nil {
		return f.err
	}
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, errors.New("recipe not found")
	}
	copied := *recipe
	return &copied, nil
}

func (f *fakeRecipeRepo) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := []models.Recipe{}
	for _, recipe := range f.recipes {
		if recipe.FamilyID == familyID {
			result = append(result, *recipe)
		}
	}
	return result, nil
}

func (f *fakeRecipeRepo) Update(ctx context.Context, recipe *models.Recipe) error {
	if f.err != nil {
		return f.err
	}
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	delete(f.recipes, id)
	return nil
}

type fakeMealTypeRepo struct {
	mealTypes []models.MealType
	err       error
}

func (f *fakeMealTypeRepo) List(ctx context.Context) ([]models.MealType, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.mealTypes, nil
}

type fakePrefsRepo struct {
	prefs    *models.FamilyPreferences
	upserted *models.FamilyPreferences
	err      error
}

func (f *fakePrefsRepo) GetByFamilyID(ctx context.Context, familyID uuid.UUID) (*models.FamilyPreferences, error) {
	return f.prefs, f.err
}

func (f *fakePrefsRepo) Upsert(ctx context.Context, prefs *models.FamilyPreferences) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = prefs
	return nil
}

type fakeFamilyRepo struct {
	families    map[uuid.UUID]*models.Family
	memberships map[uuid.UUID]*models.FamilyMembership
	err         error
}

func newFakeFamilyRepo() *fakeFamilyRepo {
	return &fakeFamilyRepo{
		families:    make(map[uuid.UUID]*models.Family),
		memberships: make(map[uuid.UUID]*models.FamilyMembership),
	}
}

func (f *fakeFamilyRepo) Create(ctx context.Context, family *models.Family, ownerID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	now := time.Now()
	family.CreatedAt = now
	family.UpdatedAt = now
	f.families[family.ID] = family
	f.memberships[ownerID] = &models.FamilyMembership{
		FamilyID: family.ID,
		UserID:   ownerID,
		Role:     models.FamilyRoleOwner,
	}
	return nil
}

func (f *fakeFamilyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Family, error) {
	if f.err != nil {
		return nil, f.err
	}
	family, ok := f.families[id]
	if !ok {
		return nil, errors.New("family not found")
	}
	return family, nil
}

func (f *fakeFamilyRepo) AddMember(ctx context.Context, familyID, userID uuid.UUID, role models.FamilyRole) error {
	if f.err != nil {
		return f.err
	}
	f.memberships[userID] = &models.FamilyMembership{
		FamilyID: familyID,
		UserID:   userID,
		Role:     role,
	}
	return nil
}

func (f *fakeFamilyRepo) GetMembership(ctx context.Context, familyID, userID uuid.UUID) (*models.FamilyMembership, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.memberships[userID]
	if !ok || m.FamilyID != familyID {
		return nil, nil
	}
	return m, nil
}

func (f *fakeFamilyRepo) ListActiveFamilyIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	return nil, f.err
}

type fakeJobQueue struct {
	enqueued   []*queue.Job
	enqueueErr error
}

func (f *fakeJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}
func (f *fakeJobQueue) Dequeue(ctx context.Context) (*queue.Message, error) { return nil, nil }
func (f *fakeJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}
func (f *fakeJobQueue) Close() error                          { return nil }
func (f *fakeJobQueue) HealthCheck(ctx context.Context) error { return nil }

type fakeSuggestionSnapshots struct {
	suggestions map[uuid.UUID][]suggest.Suggestion
	err         error
}

func (f *fakeSuggestionSnapshots) GetSuggestions(ctx context.Context, familyID uuid.UUID) ([]suggest.Suggestion, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	suggestions, ok := f.suggestions[familyID]
	return suggestions, ok, nil
}
