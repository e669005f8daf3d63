package repository

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/guardiansos/internal/domain"
)

const presenceShards = 64

// MemoryPresenceStore is the single-process presence store. Entries live in
// a go-cache; read-modify-write of one user is serialized by the shard lock
// that user hashes to.
type MemoryPresenceStore struct {
	cache  *cache.Cache
	shards [presenceShards]sync.Mutex
	now    func() time.Time
}

func NewMemoryPresenceStore() *MemoryPresenceStore {
	return &MemoryPresenceStore{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
		now:   time.Now,
	}
}

func (s *MemoryPresenceStore) lock(userID string) *sync.Mutex {
	return &s.shards[xxh3.HashString(userID)%presenceShards]
}

func (s *MemoryPresenceStore) update(userID string, fn func(p *domain.Presence)) {
	mu := s.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	p := domain.Presence{UserID: userID}
	if x, found := s.cache.Get(presenceKey(userID)); found {
		p = x.(domain.Presence)
	}
	fn(&p)
	p.UpdatedAt = s.now()
	s.cache.Set(presenceKey(userID), p, cache.NoExpiration)
}

func (s *MemoryPresenceStore) SetOnline(ctx context.Context, userID string, online bool) error {
	s.update(userID, func(p *domain.Presence) {
		p.IsOnline = online
	})
	return nil
}

func (s *MemoryPresenceStore) UpdateTelemetry(ctx context.Context, userID string, telemetry domain.Telemetry) error {
	s.update(userID, telemetry.Apply)
	return nil
}

func (s *MemoryPresenceStore) Get(ctx context.Context, userID string) (domain.Presence, error) {
	x, found := s.cache.Get(presenceKey(userID))
	if !found {
		return domain.Presence{}, domain.NotFoundError{Resource: "presence"}
	}
	return x.(domain.Presence), nil
}
