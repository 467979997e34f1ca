package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gradebook/gradebook/internal/slot"
	"github.com/gradebook/gradebook/pkg/types"
)

// IDLayout is the timestamp format of record ids.
const IDLayout = "2006-01-02T15:04:05.000Z07:00"

// Store is the record list kept in one slot. It is safe for concurrent use
// within a process; separate processes sharing a slot are not coordinated.
type Store struct {
	slot slot.Slot

	mu   sync.Mutex
	last time.Time
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store over s.
func New(s slot.Slot) *Store {
	return &Store{slot: s, now: time.Now}
}

// GenerateID returns a fresh id that is later than every id this Store has
// issued before.
func (s *Store) GenerateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID(nil)
}

// LoadAll returns every stored record in save order. Any read or decode
// failure yields an empty list.
func (s *Store) LoadAll(ctx context.Context) []types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) int {
	return len(s.LoadAll(ctx))
}

// Save appends res under a new id and persists the whole list.
func (s *Store) Save(ctx context.Context, res types.CalculationResult) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	rec := types.Record{ID: s.nextID(list), CalculationResult: res}
	list = append(list, rec)

	if err := s.persist(ctx, list); err != nil {
		return types.Record{}, err
	}
	slog.Debug("record: saved", "id", rec.ID, "count", len(list))
	return rec, nil
}

// FindByID returns the first record with the given id.
func (s *Store) FindByID(ctx context.Context, id string) (types.Record, bool) {
	for _, r := range s.LoadAll(ctx) {
		if r.ID == id {
			return r, true
		}
	}
	return types.Record{}, false
}

// DeleteByID removes every record with the given id, persists the result and
// returns it. An unknown id leaves the list as it was.
func (s *Store) DeleteByID(ctx context.Context, id string) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	kept := make([]types.Record, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			kept = append(kept, r)
		}
	}

	if err := s.persist(ctx, kept); err != nil {
		return nil, err
	}
	if removed := len(list) - len(kept); removed > 0 {
		slog.Debug("record: deleted", "id", id, "removed", removed, "count", len(kept))
	}
	return kept, nil
}

// --- internal ---------------------------------------------------------------

// load reads and decodes the slot. Callers must hold s.mu.
func (s *Store) load(ctx context.Context) []types.Record {
	data, err := s.slot.Get(ctx)
	if errors.Is(err, slot.ErrEmpty) {
		return []types.Record{}
	}
	if err != nil {
		slog.Warn("record: slot read failed, treating as empty", "key", s.slot.Key(), "err", err)
		return []types.Record{}
	}

	var list []types.Record
	if err := json.Unmarshal(data, &list); err != nil {
		slog.Warn("record: stored list unreadable, treating as empty", "key", s.slot.Key(), "err", err)
		return []types.Record{}
	}
	if list == nil {
		// A literal "null" blob.
		return []types.Record{}
	}
	return list
}

// persist writes the whole list. Callers must hold s.mu.
func (s *Store) persist(ctx context.Context, list []types.Record) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("record: encode list: %w", err)
	}
	if err := s.slot.Put(ctx, data); err != nil {
		return fmt.Errorf("record: persist %q: %w", s.slot.Key(), err)
	}
	return nil
}

// nextID issues a timestamp id strictly after the last one issued and not
// present in existing. Callers must hold s.mu.
func (s *Store) nextID(existing []types.Record) string {
	taken := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		taken[r.ID] = struct{}{}
	}

	t := s.now().UTC().Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	id := t.Format(IDLayout)
	for {
		if _, dup := taken[id]; !dup {
			break
		}
		t = t.Add(time.Millisecond)
		id = t.Format(IDLayout)
	}
	s.last = t
	return id
}
