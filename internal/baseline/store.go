package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/querylens/querylens/internal/logger"
)

// DefaultMaxSnapshots bounds per-query history.
const DefaultMaxSnapshots = 50

// DefaultMaxAgeDays is the pruning horizon.
const DefaultMaxAgeDays = 30

// Entry is one persisted metric snapshot.
type Entry struct {
	Timestamp      time.Time          `json:"timestamp"`
	Metrics        map[string]float64 `json:"metrics"`
	Grade          string             `json:"grade"`
	CompositeScore float64            `json:"composite_score"`
}

type snapshotFile struct {
	Snapshots []Entry `json:"snapshots"`
}

// Store keeps one JSON file per query hash under a directory created on
// demand. Concurrent updates to the same hash are serialized with an
// in-process per-hash mutex; cross-process writers are not coordinated.
type Store struct {
	dir          string
	maxSnapshots int
	log          logger.Interface

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore builds a store rooted at dir. maxSnapshots ≤ 0 selects the
// default.
func NewStore(dir string, maxSnapshots int, log logger.Interface) *Store {
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Store{
		dir:          dir,
		maxSnapshots: maxSnapshots,
		log:          log,
		locks:        map[string]*sync.Mutex{},
	}
}

func (s *Store) hashLock(hash string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[hash]
	if !ok {
		l = &sync.Mutex{}
		s.locks[hash] = l
	}
	return l
}

func (s *Store) path(hash string) string {
	return filepath.Join(s.dir, hash+".json")
}

// Save appends a snapshot, trimming history to maxSnapshots.
func (s *Store) Save(hash string, e Entry) error {
	l := s.hashLock(hash)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating baseline dir: %w", err)
	}

	file, err := s.read(hash)
	if err != nil {
		return err
	}
	file.Snapshots = append(file.Snapshots, e)
	if excess := len(file.Snapshots) - s.maxSnapshots; excess > 0 {
		file.Snapshots = file.Snapshots[excess:]
	}
	return s.write(hash, file)
}

// Load returns the most recent snapshot, or nil when the query has no
// history.
func (s *Store) Load(hash string) (*Entry, error) {
	l := s.hashLock(hash)
	l.Lock()
	defer l.Unlock()

	file, err := s.read(hash)
	if err != nil {
		return nil, err
	}
	if len(file.Snapshots) == 0 {
		return nil, nil
	}
	e := file.Snapshots[len(file.Snapshots)-1]
	return &e, nil
}

// History returns the most recent limit snapshots, oldest first. limit ≤ 0
// returns everything.
func (s *Store) History(hash string, limit int) ([]Entry, error) {
	l := s.hashLock(hash)
	l.Lock()
	defer l.Unlock()

	file, err := s.read(hash)
	if err != nil {
		return nil, err
	}
	snaps := file.Snapshots
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[len(snaps)-limit:]
	}
	return snaps, nil
}

// Prune drops snapshots older than maxAgeDays across every stored hash and
// deletes files that become empty.
func (s *Store) Prune(maxAgeDays int) error {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading baseline dir: %w", err)
	}

	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		hash := name[:len(name)-len(".json")]
		if err := s.pruneHash(hash, cutoff); err != nil {
			s.log.Warn("pruning baseline file failed", logger.Err(err), "hash", hash)
		}
	}
	return nil
}

func (s *Store) pruneHash(hash string, cutoff time.Time) error {
	l := s.hashLock(hash)
	l.Lock()
	defer l.Unlock()

	file, err := s.read(hash)
	if err != nil {
		return err
	}
	kept := file.Snapshots[:0]
	for _, e := range file.Snapshots {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		err := os.Remove(s.path(hash))
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	file.Snapshots = kept
	return s.write(hash, file)
}

func (s *Store) read(hash string) (*snapshotFile, error) {
	data, err := os.ReadFile(s.path(hash))
	if os.IsNotExist(err) {
		return &snapshotFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading baseline %s: %w", hash, err)
	}
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		// A corrupt file must not wedge the pipeline; start a fresh history.
		s.log.Warn("baseline file corrupt, resetting", "hash", hash, logger.Err(err))
		return &snapshotFile{}, nil
	}
	return &file, nil
}

func (s *Store) write(hash string, file *snapshotFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(hash), data, 0o644); err != nil {
		return fmt.Errorf("writing baseline %s: %w", hash, err)
	}
	return nil
}
