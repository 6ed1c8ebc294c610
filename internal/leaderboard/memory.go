package leaderboard

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	nextID  uint
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Submit(_ context.Context, name string, score int) (Entry, error) {
	name, err := Validate(name, score)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	e := Entry{ID: s.nextID, Name: name, Score: score, CreatedAt: s.now().UTC()}
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *MemoryStore) Top(_ context.Context, limit int) ([]Entry, error) {
	limit = clampLimit(limit)

	s.mu.Lock()
	out := append([]Entry(nil), s.entries...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
