package store

import (
	"context"
	"strconv"
	"time"

	"github.com/ppiankov/canisense/internal/cache"
	"github.com/ppiankov/canisense/internal/model"
)

// Snapshots serves context snapshots through a cache so that creating many
// pipelines in a short window does not hit the database each time
type Snapshots struct {
	store  *Store
	cache  cache.Cache[model.Snapshot]
	recent int
	ttl    time.Duration
}

// NewSnapshots wraps st. A nil cache disables caching.
func NewSnapshots(st *Store, c cache.Cache[model.Snapshot], recent int, ttl time.Duration) *Snapshots {
	return &Snapshots{store: st, cache: c, recent: recent, ttl: ttl}
}

func (s *Snapshots) key() string {
	return cache.Key("snapshot", strconv.Itoa(s.recent))
}

// Get returns the current snapshot
func (s *Snapshots) Get(ctx context.Context) (model.Snapshot, error) {
	if s.cache == nil {
		return s.store.Snapshot(ctx, s.recent)
	}
	return cache.GetOrLoad(s.cache, s.key(), s.ttl, func() (model.Snapshot, error) {
		return s.store.Snapshot(ctx, s.recent)
	})
}

// Invalidate drops the cached snapshot. Call after writing history or the profile.
func (s *Snapshots) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(s.key())
	}
}

// SaveHistory writes the entry and invalidates the cached snapshot
func (s *Snapshots) SaveHistory(ctx context.Context, e model.HistoryEntry) error {
	if err := s.store.SaveHistory(ctx, e); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// SaveProfile writes the profile and invalidates the cached snapshot
func (s *Snapshots) SaveProfile(ctx context.Context, p model.Profile) error {
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}
