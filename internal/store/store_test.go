package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/canisense/internal/engine"
	"github.com/ppiankov/canisense/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func entry(id string, at time.Time, state model.SyntheticState) model.HistoryEntry {
	return model.HistoryEntry{
		ID:          id,
		Date:        at,
		State:       state,
		Explanation: "explication " + id,
		Confidence:  0.6,
	}
}

func TestOpen(t *testing.T) {
	st := openTest(t)

	for _, table := range []string{"history", "profile", "feedback"} {
		var name string
		err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("%s table not created: %v", table, err)
		}
	}
}

func TestOpen_FileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "canisense.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", path, err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.SaveHistory(ctx, entry("a", time.Now(), model.StateCalm)); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}
}

func TestHistory_RoundTripAndOrder(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, state := range []model.SyntheticState{model.StateCalm, model.StateStress, model.StateExcited} {
		id := string(rune('a' + i))
		if err := st.SaveHistory(ctx, entry(id, base.Add(time.Duration(i)*time.Hour), state)); err != nil {
			t.Fatalf("SaveHistory(%s) failed: %v", id, err)
		}
	}

	got, err := st.RecentHistory(ctx, 2)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("expected newest first [c b], got [%s %s]", got[0].ID, got[1].ID)
	}
	if got[0].State != model.StateExcited {
		t.Errorf("state = %s, want %s", got[0].State, model.StateExcited)
	}
	if !got[0].Date.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("date = %v, want %v", got[0].Date, base.Add(2*time.Hour))
	}

	one, err := st.GetHistory(ctx, "a")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if one.Explanation != "explication a" || one.Confidence != 0.6 {
		t.Errorf("unexpected entry: %+v", one)
	}
}

func TestHistory_Errors(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	if _, err := st.GetHistory(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := st.SaveHistory(ctx, model.HistoryEntry{}); err == nil {
		t.Error("expected error for entry without id")
	}
	if got, err := st.RecentHistory(ctx, 0); err != nil || len(got) != 0 {
		t.Errorf("RecentHistory(0) = %v, %v", got, err)
	}
}

func TestProfile(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	p, err := st.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if p != (model.Profile{}) {
		t.Errorf("expected zero profile, got %+v", p)
	}
	if p.EffectiveEnergy() != model.DefaultEnergy {
		t.Errorf("effective energy = %d, want %d", p.EffectiveEnergy(), model.DefaultEnergy)
	}

	want := model.Profile{Name: "Rex", Age: 4, Energy: 8}
	if err := st.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	want.Energy = 3
	if err := st.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile (update) failed: %v", err)
	}

	got, err := st.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if got != want {
		t.Errorf("profile = %+v, want %+v", got, want)
	}
}

func TestFeedback(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := st.SaveFeedback(ctx, model.Feedback{AnalysisID: "nope", Timestamp: now, Correct: true})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown analysis, got %v", err)
	}

	if err := st.SaveHistory(ctx, entry("a1", now, model.StateStress)); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}
	fb := model.Feedback{AnalysisID: "a1", Timestamp: now, Correct: false, Comment: "il jouait"}
	if err := st.SaveFeedback(ctx, fb); err != nil {
		t.Fatalf("SaveFeedback failed: %v", err)
	}

	got, err := st.GetFeedback(ctx, "a1")
	if err != nil {
		t.Fatalf("GetFeedback failed: %v", err)
	}
	if got.Correct || got.Comment != "il jouait" || !got.Timestamp.Equal(now) {
		t.Errorf("unexpected feedback: %+v", got)
	}

	if _, err := st.GetFeedback(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		id := string(rune('a' + i))
		if err := st.SaveHistory(ctx, entry(id, base.Add(time.Duration(i)*time.Minute), model.StateStress)); err != nil {
			t.Fatalf("SaveHistory failed: %v", err)
		}
	}
	if err := st.SaveProfile(ctx, model.Profile{Name: "Rex", Energy: 7}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	snap, err := st.Snapshot(ctx, 5)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Recent) != 5 {
		t.Errorf("expected 5 recent entries, got %d", len(snap.Recent))
	}
	if snap.Profile.Energy != 7 {
		t.Errorf("profile energy = %d, want 7", snap.Profile.Energy)
	}
}

func TestConcurrentAccess(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			if err := st.SaveHistory(ctx, entry(id, now, model.StateCalm)); err != nil {
				t.Errorf("SaveHistory failed: %v", err)
			}
			if _, err := st.Snapshot(ctx, 5); err != nil {
				t.Errorf("Snapshot failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := st.RecentHistory(ctx, 20)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("expected 10 entries, got %d", len(got))
	}
}

func TestSnapshot_RecentHistoryUsesNewestEntries(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		state := model.StateCalm
		if i >= 5 {
			state = model.StateStress
		}
		id := string(rune('a' + i))
		if err := st.SaveHistory(ctx, entry(id, base.Add(time.Duration(i)*time.Hour), state)); err != nil {
			t.Fatalf("SaveHistory(%s) failed: %v", id, err)
		}
	}

	snap, err := st.Snapshot(ctx, 10)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Recent) != 10 || snap.Recent[0].ID != "j" {
		t.Fatalf("expected 10 entries newest first, got %d starting at %q", len(snap.Recent), snap.Recent[0].ID)
	}

	e := engine.NewRecentHistoryEngine(snap, false)
	out := e.Process(ctx, model.NewContextSignal(nil, base.Add(10*time.Hour).UnixMilli()))
	if len(out) != 1 {
		t.Fatalf("expected one metric, got %d", len(out))
	}
	if out[0].Value != 1 {
		t.Errorf("averageRecentStress = %v, want 1 (the five newest are stressed)", out[0].Value)
	}
}
