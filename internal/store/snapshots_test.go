package store

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/canisense/internal/cache"
	"github.com/ppiankov/canisense/internal/model"
)

func TestSnapshots_CachesUntilInvalidated(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	c := cache.NewMemoryCache[model.Snapshot](time.Minute, time.Minute)
	snaps := NewSnapshots(st, c, 5, cache.DefaultExpiration)

	if err := snaps.SaveProfile(ctx, model.Profile{Name: "Rex", Energy: 6}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	first, err := snaps.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first.Profile.Energy != 6 {
		t.Fatalf("energy = %d, want 6", first.Profile.Energy)
	}

	// Writing behind the wrapper's back leaves the cached value in place
	if err := st.SaveProfile(ctx, model.Profile{Name: "Rex", Energy: 9}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	cached, _ := snaps.Get(ctx)
	if cached.Profile.Energy != 6 {
		t.Errorf("expected cached energy 6, got %d", cached.Profile.Energy)
	}

	if err := snaps.SaveHistory(ctx, entry("h1", time.Now(), model.StateStress)); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}
	fresh, _ := snaps.Get(ctx)
	if fresh.Profile.Energy != 9 || len(fresh.Recent) != 1 {
		t.Errorf("expected fresh snapshot after invalidation, got %+v", fresh)
	}
}

func TestSnapshots_NoCache(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	snaps := NewSnapshots(st, nil, 5, 0)

	if err := st.SaveProfile(ctx, model.Profile{Energy: 2}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	got, err := snaps.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Profile.Energy != 2 {
		t.Errorf("energy = %d, want 2", got.Profile.Energy)
	}
}
