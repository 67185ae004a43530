package baseline

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalize_FormattingInvariant(t *testing.T) {
	a := Normalize("SELECT id, name FROM users WHERE id = 7")
	b := Normalize("select   id,\n  name\nfrom users\nwhere id = 7")
	if a != b {
		t.Errorf("equivalent statements normalize differently:\n%q\n%q", a, b)
	}
}

func TestNormalize_UnparsableFallsBackToLexical(t *testing.T) {
	got := Normalize("  SELECT    ???bogus   FROM ")
	if got != "select ???bogus from" {
		t.Errorf("lexical fallback = %q", got)
	}
}

func TestQueryHash(t *testing.T) {
	h := QueryHash("SELECT * FROM orders WHERE id = 1")
	if len(h) != 16 {
		t.Fatalf("hash length = %d, want 16", len(h))
	}
	if h != QueryHash("select * from orders where id = 1") {
		t.Error("hash must be stable across formatting")
	}
	if h == QueryHash("SELECT * FROM orders WHERE id = 2") {
		t.Error("different statements must hash differently")
	}
}

func entryAt(ts time.Time, grade string, score float64) Entry {
	return Entry{
		Timestamp:      ts,
		Metrics:        map[string]float64{"execution_time_ms": 1.5},
		Grade:          grade,
		CompositeScore: score,
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := NewStore(t.TempDir(), 0, nil)
	hash := QueryHash("SELECT 1")

	e, err := s.Load(hash)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e != nil {
		t.Fatal("fresh store should have no history")
	}

	now := time.Now()
	if err := s.Save(hash, entryAt(now.Add(-time.Hour), "B", 80)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(hash, entryAt(now, "A", 95)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e, err = s.Load(hash)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e == nil || e.Grade != "A" {
		t.Fatalf("Load should return the most recent snapshot, got %+v", e)
	}
	if e.Metrics["execution_time_ms"] != 1.5 {
		t.Errorf("metrics round trip = %v", e.Metrics)
	}
}

func TestStore_History(t *testing.T) {
	s := NewStore(t.TempDir(), 0, nil)
	hash := QueryHash("SELECT 2")

	base := time.Now().Add(-10 * time.Minute)
	for i := 0; i < 5; i++ {
		if err := s.Save(hash, entryAt(base.Add(time.Duration(i)*time.Minute), "B", float64(80+i))); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	all, err := s.History(hash, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("full history = %d entries, want 5", len(all))
	}
	if all[0].CompositeScore != 80 || all[4].CompositeScore != 84 {
		t.Error("history should be oldest first")
	}

	last2, err := s.History(hash, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(last2) != 2 || last2[0].CompositeScore != 83 {
		t.Errorf("limited history = %+v", last2)
	}
}

func TestStore_TrimsToMaxSnapshots(t *testing.T) {
	s := NewStore(t.TempDir(), 3, nil)
	hash := QueryHash("SELECT 3")

	for i := 0; i < 5; i++ {
		if err := s.Save(hash, entryAt(time.Now(), "C", float64(i))); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	all, err := s.History(hash, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("history = %d entries, want trim to 3", len(all))
	}
	if all[0].CompositeScore != 2 {
		t.Errorf("oldest kept score = %v, want 2", all[0].CompositeScore)
	}
}

func TestStore_CorruptFileResets(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 0, nil)
	hash := QueryHash("SELECT 4")

	if err := os.WriteFile(filepath.Join(dir, hash+".json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := s.Load(hash)
	if err != nil {
		t.Fatalf("Load on corrupt file: %v", err)
	}
	if e != nil {
		t.Error("corrupt history reads as empty")
	}

	if err := s.Save(hash, entryAt(time.Now(), "A", 90)); err != nil {
		t.Fatalf("Save over corrupt file: %v", err)
	}
	e, err = s.Load(hash)
	if err != nil || e == nil || e.Grade != "A" {
		t.Fatalf("recovered history = %+v, err = %v", e, err)
	}
}

func TestStore_Prune(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 0, nil)
	oldHash := QueryHash("SELECT 5")
	mixedHash := QueryHash("SELECT 6")

	stale := time.Now().AddDate(0, 0, -60)
	fresh := time.Now()

	if err := s.Save(oldHash, entryAt(stale, "D", 30)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(mixedHash, entryAt(stale, "C", 60)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(mixedHash, entryAt(fresh, "B", 80)); err != nil {
		t.Fatal(err)
	}

	if err := s.Prune(30); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, oldHash+".json")); !os.IsNotExist(err) {
		t.Error("fully stale file should be removed")
	}

	kept, err := s.History(mixedHash, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(kept) != 1 || kept[0].Grade != "B" {
		t.Errorf("mixed history after prune = %+v", kept)
	}
}

func TestStore_PruneMissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "never-created"), 0, nil)
	if err := s.Prune(30); err != nil {
		t.Errorf("pruning a missing dir should be a no-op, got %v", err)
	}
}
