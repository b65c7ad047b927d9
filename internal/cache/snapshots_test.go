package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/dashboard"
	"github.com/plateful/plateful-api/internal/services/suggest"
	"github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory stand-in for the redis client subset the
// snapshot store uses.
type fakeRedis struct {
	data    map[string][]byte
	lastTTL time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	payload, ok := value.([]byte)
	if !ok {
		return redis.NewStatusResult("", redis.ErrClosed)
	}
	f.data[key] = payload
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestSnapshots_UpcomingRoundTrip(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	snapshots := NewWithClient(client, time.Minute)
	familyID := uuid.New()

	meals := []dashboard.DisplayMeal{
		{ID: uuid.New(), DayLabel: "Today", Date: "Jun 10", ScheduledDate: "2024-06-10", RecipeName: "Pasta", Servings: 4},
	}

	if err := snapshots.SetUpcoming(context.Background(), familyID, meals); err != nil {
		t.Fatalf("SetUpcoming() error = %v", err)
	}
	if client.lastTTL != time.Minute {
		t.Errorf("Expected TTL of 1m, got %v", client.lastTTL)
	}

	got, found, err := snapshots.GetUpcoming(context.Background(), familyID)
	if err != nil {
		t.Fatalf("GetUpcoming() error = %v", err)
	}
	if !found {
		t.Fatal("Expected snapshot to be found")
	}
	if len(got) != 1 || got[0].RecipeName != "Pasta" || got[0].DayLabel != "Today" {
		t.Errorf("Snapshot round trip mismatch: %+v", got)
	}
}

func TestSnapshots_MissingIsNotAnError(t *testing.T) {
	t.Parallel()

	snapshots := NewWithClient(newFakeRedis(), 0)

	_, found, err := snapshots.GetUpcoming(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetUpcoming() error = %v", err)
	}
	if found {
		t.Error("Expected miss for unknown family")
	}
}

func TestSnapshots_CorruptSnapshotIsAMiss(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	familyID := uuid.New()
	client.data[upcomingKey(familyID)] = []byte("not json")
	snapshots := NewWithClient(client, 0)

	_, found, err := snapshots.GetUpcoming(context.Background(), familyID)
	if err != nil {
		t.Fatalf("GetUpcoming() error = %v", err)
	}
	if found {
		t.Error("Expected corrupt snapshot to read as a miss")
	}
}

func TestSnapshots_SuggestionsRoundTrip(t *testing.T) {
	t.Parallel()

	snapshots := NewWithClient(newFakeRedis(), 0)
	familyID := uuid.New()
	recipeID := uuid.New()

	suggestions := []suggest.Suggestion{
		{Date: "2024-06-10", RecipeID: &recipeID, RecipeName: "Pasta", MealType: "Dinner"},
	}

	if err := snapshots.SetSuggestions(context.Background(), familyID, suggestions); err != nil {
		t.Fatalf("SetSuggestions() error = %v", err)
	}

	got, found, err := snapshots.GetSuggestions(context.Background(), familyID)
	if err != nil {
		t.Fatalf("GetSuggestions() error = %v", err)
	}
	if !found {
		t.Fatal("Expected suggestions to be found")
	}
	if len(got) != 1 || got[0].RecipeName != "Pasta" || got[0].RecipeID == nil || *got[0].RecipeID != recipeID {
		t.Errorf("Suggestions round trip mismatch: %+v", got)
	}
}

func TestSnapshots_Invalidate(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	snapshots := NewWithClient(client, 0)
	familyID := uuid.New()

	if err := snapshots.SetUpcoming(context.Background(), familyID, []dashboard.DisplayMeal{}); err != nil {
		t.Fatalf("SetUpcoming() error = %v", err)
	}
	if err := snapshots.SetSuggestions(context.Background(), familyID, []suggest.Suggestion{}); err != nil {
		t.Fatalf("SetSuggestions() error = %v", err)
	}

	if err := snapshots.Invalidate(context.Background(), familyID); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	if _, found, _ := snapshots.GetUpcoming(context.Background(), familyID); found {
		t.Error("Expected upcoming snapshot to be gone")
	}
	if _, found, _ := snapshots.GetSuggestions(context.Background(), familyID); found {
		t.Error("Expected suggestions snapshot to be gone")
	}
}
