package workers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/dashboard"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/queue"
	"github.com/plateful/plateful-api/internal/services/suggest"
)

// Shared fakes for worker tests.

var errTest = errors.New("test failure")

type fakeMealRepo struct {
	meals []models.Meal
	err   error
}

func (f *fakeMealRepo) Create(ctx context.Context, meal *models.Meal) error { return f.err }
func (f *fakeMealRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	return nil, f.err
}
func (f *fakeMealRepo) ListByFamily(ctx context.Context, familyID uuid.UUID, from, to time.Time) ([]models.Meal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.meals, nil
}
func (f *fakeMealRepo) Update(ctx context.Context, meal *models.Meal) error { return f.err }
func (f *fakeMealRepo) Delete(ctx context.Context, id uuid.UUID) error      { return f.err }

type fakeRecipeRepo struct {
	recipes []models.Recipe
	err     error
}

func (f *fakeRecipeRepo) Create(ctx context.Context, recipe *models.Recipe) error { return f.err }
func (f *fakeRecipeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	return nil, f.err
}
func (f *fakeRecipeRepo) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recipes, nil
}
func (f *fakeRecipeRepo) Update(ctx context.Context, recipe *models.Recipe) error { return f.err }
func (f *fakeRecipeRepo) Delete(ctx context.Context, id uuid.UUID) error          { return f.err }

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
	prefs *models.FamilyPreferences
	err   error
}

func (f *fakePrefsRepo) GetByFamilyID(ctx context.Context, familyID uuid.UUID) (*models.FamilyPreferences, error) {
	return f.prefs, f.err
}
func (f *fakePrefsRepo) Upsert(ctx context.Context, prefs *models.FamilyPreferences) error {
	return f.err
}

type fakeSnapshotStore struct {
	upcoming    map[uuid.UUID][]dashboard.DisplayMeal
	suggestions map[uuid.UUID][]suggest.Suggestion
	upcomingErr error
	suggestErr  error
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{
		upcoming:    make(map[uuid.UUID][]dashboard.DisplayMeal),
		suggestions: make(map[uuid.UUID][]suggest.Suggestion),
	}
}

func (f *fakeSnapshotStore) SetUpcoming(ctx context.Context, familyID uuid.UUID, meals []dashboard.DisplayMeal) error {
	if f.upcomingErr != nil {
		return f.upcomingErr
	}
	f.upcoming[familyID] = meals
	return nil
}

func (f *fakeSnapshotStore) SetSuggestions(ctx context.Context, familyID uuid.UUID, suggestions []suggest.Suggestion) error {
	if f.suggestErr != nil {
		return f.suggestErr
	}
	f.suggestions[familyID] = suggestions
	return nil
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

type fakeMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeMessage) Ack() error { f.acked = true; return nil }
func (f *fakeMessage) Nack(requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}
func (f *fakeMessage) GetJob() *queue.Job { return f.job }

type fakeFamilyRepo struct {
	activeIDs []uuid.UUID
	err       error
}

func (f *fakeFamilyRepo) Create(ctx context.Context, family *models.Family, ownerID uuid.UUID) error {
	return f.err
}
func (f *fakeFamilyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Family, error) {
	return nil, f.err
}
func (f *fakeFamilyRepo) AddMember(ctx context.Context, familyID, userID uuid.UUID, role models.FamilyRole) error {
	return f.err
}
func (f *fakeFamilyRepo) GetMembership(ctx context.Context, familyID, userID uuid.UUID) (*models.FamilyMembership, error) {
	return nil, f.err
}
func (f *fakeFamilyRepo) ListActiveFamilyIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.activeIDs, nil
}

type fakeSuggestProvider struct {
	suggestions []suggest.Suggestion
	err         error
	lastReq     suggest.Request
	calls       int
}

func (f *fakeSuggestProvider) SuggestMeals(ctx context.Context, req suggest.Request) ([]suggest.Suggestion, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestions, nil
}
