package persistence

import (
	"fmt"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/talgya/torus-coding/internal/engine"
	"github.com/talgya/torus-coding/internal/torus"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "torus.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func finishedTwoFifths(t *testing.T) engine.Snapshot {
	t.Helper()
	cfg := torus.DefaultConfig()
	cfg.UseRatio = true
	sim := engine.NewSimulation(cfg)
	sim.Start()
	for i := 0; i < 10000 && sim.Running(); i++ {
		sim.Tick()
	}
	return sim.Snapshot()
}

func TestArchiveAndGetRun(t *testing.T) {
	db := openTestDB(t)
	snap := finishedTwoFifths(t)

	run, err := db.Archive(snap)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("run has no ID")
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Sequence != "11011" || !got.CompletedCycle || !got.UseRatio {
		t.Errorf("run = %+v", got)
	}
	if got.RatioP != 2 || got.RatioQ != 5 || got.Slope() != 0.4 {
		t.Errorf("ratio = %d/%d", got.RatioP, got.RatioQ)
	}
	if got.WordCount != 3 || !slices.Equal(got.Words(), []string{"01", "10", "11"}) {
		t.Errorf("words = %v (%d)", got.Words(), got.WordCount)
	}
	if got.T != snap.T {
		t.Errorf("t = %v, want %v", got.T, snap.T)
	}

	cfg, ok, err := db.LoadConfig()
	if err != nil || !ok {
		t.Fatalf("LoadConfig: ok=%v err=%v", ok, err)
	}
	if cfg != snap.Config {
		t.Errorf("config = %+v, want %+v", cfg, snap.Config)
	}
}

func TestSaveRunReplacesCheckpoint(t *testing.T) {
	db := openTestDB(t)
	snap := finishedTwoFifths(t)

	first := RunFromSnapshot(snap, time.Now())
	first.Sequence = "110"
	if err := db.SaveRun(first); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveRun(RunFromSnapshot(snap, time.Now())); err != nil {
		t.Fatal(err)
	}

	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Sequence != "11011" || runs[0].ID != snap.RunID {
		t.Errorf("runs = %+v", runs)
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetRun("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	snap := finishedTwoFifths(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		r := RunFromSnapshot(snap, base.Add(time.Duration(i)*time.Minute))
		r.ID = fmt.Sprintf("run-%d", i)
		if err := db.SaveRun(r); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		ids = append(ids, r.ID)
	}

	runs, err := db.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestLoadConfigEmpty(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if ok {
		t.Error("expected no stored config")
	}
}

func TestEventsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	events := []engine.Event{
		{Tick: 1, Category: engine.CategoryControl, Description: "started"},
		{Tick: 629, Category: engine.CategoryCycle, Description: "cycle complete"},
	}
	if err := db.SaveEvents(events); err != nil {
		t.Fatalf("SaveEvents failed: %v", err)
	}
	if err := db.SaveEvents(nil); err != nil {
		t.Fatalf("SaveEvents(nil) failed: %v", err)
	}

	got, err := db.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents failed: %v", err)
	}
	if len(got) != 2 || got[0] != events[1] || got[1] != events[0] {
		t.Errorf("events = %+v", got)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("k", "v2"); err != nil {
		t.Fatal(err)
	}
	if v, err := db.GetMeta("k"); err != nil || v != "v2" {
		t.Errorf("GetMeta = %q, %v", v, err)
	}
}
