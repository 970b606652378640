package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/abhisek/mathportal/internal/kv"
)

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("quota exceeded")
}

func (failingStorage) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("12", "pythagoras"); got != "progress:12:pythagoras" {
		t.Errorf("CacheKey = %q", got)
	}
	if got := CacheKey("", "pythagoras"); got != "progress:guest:pythagoras" {
		t.Errorf("CacheKey(guest) = %q", got)
	}
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewCache(kv.NewMemory(), zerolog.Nop())

	st := NewState()
	st.Completed[0] = true
	st.Completed[2] = true
	st.Partial[1] = 0.25
	st.Percent = 53
	st.TimeSpent = 95
	st.Revision = 4

	c.Save(ctx, "u1", "lesson-a", *st)

	got, ok := c.Load(ctx, "u1", "lesson-a")
	if !ok {
		t.Fatal("expected cached state")
	}
	if ids := got.CompletedIDs(); len(ids) != 2 || ids[0] != 0 || ids[1] != 2 {
		t.Errorf("CompletedIDs = %v, want [0 2]", ids)
	}
	if got.Percent != 53 {
		t.Errorf("Percent = %d, want 53", got.Percent)
	}
	if got.Partial[1] != 0.25 {
		t.Errorf("Partial[1] = %v, want 0.25", got.Partial[1])
	}
	if got.TimeSpent != 95 || got.Revision != 4 {
		t.Errorf("TimeSpent/Revision = %d/%d, want 95/4", got.TimeSpent, got.Revision)
	}
}

func TestCache_Absent(t *testing.T) {
	c := NewCache(kv.NewMemory(), zerolog.Nop())
	if _, ok := c.Load(context.Background(), "u1", "nope"); ok {
		t.Error("expected absent")
	}
}

func TestCache_CorruptIsAbsent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"wrong shape", `{"completedSections": "0,1", "percent": 10, "savedAt": "2024-01-01T00:00:00Z"}`},
		{"missing percent", `{"completedSections": [0], "savedAt": "2024-01-01T00:00:00Z"}`},
		{"percent out of range", `{"completedSections": [], "percent": 140, "savedAt": "2024-01-01T00:00:00Z"}`},
		{"negative section", `{"completedSections": [-1], "percent": 10, "savedAt": "2024-01-01T00:00:00Z"}`},
		{"bad partial key", `{"completedSections": [], "percent": 0, "savedAt": "2024-01-01T00:00:00Z", "partialCredit": {"video": 0.5}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kv.NewMemory()
			if err := store.Set(ctx, CacheKey("u", "l"), []byte(tt.raw)); err != nil {
				t.Fatal(err)
			}
			c := NewCache(store, zerolog.Nop())
			if st, ok := c.Load(ctx, "u", "l"); ok {
				t.Errorf("Load = %+v, want absent", st)
			}
		})
	}
}

func TestCache_LegacyPayload(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	raw := `{"completedSections":[0,1],"percent":40,"savedAt":"2024-05-01T10:00:00.000Z"}`
	if err := store.Set(ctx, CacheKey("u", "l"), []byte(raw)); err != nil {
		t.Fatal(err)
	}

	st, ok := NewCache(store, zerolog.Nop()).Load(ctx, "u", "l")
	if !ok {
		t.Fatal("expected legacy payload to load")
	}
	if st.Percent != 40 || !st.Completed[0] || !st.Completed[1] {
		t.Errorf("state = %+v", st)
	}
}

func TestCache_StorageErrorsSwallowed(t *testing.T) {
	c := NewCache(failingStorage{}, zerolog.Nop())
	c.Save(context.Background(), "u", "l", *NewState())
	if _, ok := c.Load(context.Background(), "u", "l"); ok {
		t.Error("expected absent on storage error")
	}
}
