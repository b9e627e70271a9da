package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"stepquest/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "stepquest.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCounterRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.LoadCounter(ctx); err != nil || ok {
		t.Fatalf("LoadCounter on empty store = ok=%v err=%v; want absent", ok, err)
	}

	if err := s.SaveCounter(ctx, domain.CounterState{DayKey: "2026-08-30", Steps: 4200}); err != nil {
		t.Fatalf("SaveCounter: %v", err)
	}
	state, ok, err := s.LoadCounter(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadCounter = ok=%v err=%v", ok, err)
	}
	if state.DayKey != "2026-08-30" || state.Steps != 4200 {
		t.Fatalf("state = %+v", state)
	}

	// Saving again replaces the single row, never adds a second.
	if err := s.SaveCounter(ctx, domain.CounterState{DayKey: "2026-08-31", Steps: 10}); err != nil {
		t.Fatalf("SaveCounter: %v", err)
	}
	state, _, _ = s.LoadCounter(ctx)
	if state.DayKey != "2026-08-31" || state.Steps != 10 {
		t.Fatalf("state after overwrite = %+v", state)
	}
}

func TestSaveCounterRejectsNegative(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveCounter(context.Background(), domain.CounterState{DayKey: "2026-08-30", Steps: -1}); err == nil {
		t.Fatal("negative steps accepted")
	}
}

func TestKVRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "session.current", `{"userId":"u1"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "session.current")
	if err != nil || !ok || v != `{"userId":"u1"}` {
		t.Fatalf("Get = %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Set(ctx, "session.current", `{"userId":"u2"}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, _, _ = s.Get(ctx, "session.current")
	if v != `{"userId":"u2"}` {
		t.Fatalf("value after overwrite = %q", v)
	}

	if err := s.Delete(ctx, "session.current"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "session.current"); ok {
		t.Fatal("value survived Delete")
	}
	if err := s.Delete(ctx, "session.current"); err != nil {
		t.Fatalf("Delete of absent key: %v", err)
	}
}

func TestReopenKeepsState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stepquest.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SaveCounter(ctx, domain.CounterState{DayKey: "2026-08-30", Steps: 777}); err != nil {
		t.Fatalf("SaveCounter: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	state, ok, err := s2.LoadCounter(ctx)
	if err != nil || !ok || state.Steps != 777 {
		t.Fatalf("state after reopen = %+v ok=%v err=%v", state, ok, err)
	}
}
