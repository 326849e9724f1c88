package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// TimetableProposal is a generated timetable awaiting a save.
type TimetableProposal struct {
	ID        string               `json:"id"`
	SchoolID  string               `json:"schoolId"`
	ClassID   string               `json:"classId"`
	Entries   []timetable.Entry    `json:"entries"`
	Conflicts []timetable.Conflict `json:"conflicts"`
	Names     timetable.Names      `json:"names"`
	CreatedAt time.Time            `json:"createdAt"`
}

// ProposalStore keeps proposals between the generate and save calls.
type ProposalStore interface {
	Put(ctx context.Context, p TimetableProposal) error
	Get(ctx context.Context, id string) (TimetableProposal, bool, error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

// MemoryProposalStore holds proposals in process memory. Proposals are lost on
// restart and are not shared between replicas.
type MemoryProposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]TimetableProposal
}

// NewMemoryProposalStore builds an in-memory store.
func NewMemoryProposalStore(ttl time.Duration) *MemoryProposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryProposalStore{ttl: ttl, now: time.Now, items: make(map[string]TimetableProposal)}
}

func (s *MemoryProposalStore) Put(_ context.Context, p TimetableProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.ID] = p
	s.evictLocked()
	return nil
}

func (s *MemoryProposalStore) Get(ctx context.Context, id string) (TimetableProposal, bool, error) {
	s.mu.RLock()
	p, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return TimetableProposal{}, false, nil
	}
	if s.now().Sub(p.CreatedAt) > s.ttl {
		_ = s.Delete(ctx, id)
		return TimetableProposal{}, false, nil
	}
	return p, true, nil
}

func (s *MemoryProposalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryProposalStore) TTL() time.Duration { return s.ttl }

func (s *MemoryProposalStore) evictLocked() {
	now := s.now()
	for id, p := range s.items {
		if now.Sub(p.CreatedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}

// RedisProposalStore shares proposals between replicas through Redis and lets
// Redis expire them.
type RedisProposalStore struct {
	repo CacheRepository
	ttl  time.Duration
}

// NewRedisProposalStore builds a store on top of the cache repository.
func NewRedisProposalStore(repo CacheRepository, ttl time.Duration) *RedisProposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisProposalStore{repo: repo, ttl: ttl}
}

func proposalKey(id string) string {
	return cache.Key("proposal", id)
}

func (s *RedisProposalStore) Put(ctx context.Context, p TimetableProposal) error {
	return s.repo.Set(ctx, proposalKey(p.ID), p, s.ttl)
}

func (s *RedisProposalStore) Get(ctx context.Context, id string) (TimetableProposal, bool, error) {
	var p TimetableProposal
	err := s.repo.Get(ctx, proposalKey(id), &p)
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return TimetableProposal{}, false, nil
	}
	if err != nil {
		return TimetableProposal{}, false, err
	}
	return p, true, nil
}

func (s *RedisProposalStore) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, proposalKey(id))
}

func (s *RedisProposalStore) TTL() time.Duration { return s.ttl }
