package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/domain"
)

// MemoryStore keeps the whole table in a map. It honors the same contract as
// PlayerRepository: the mutex makes each max-merge atomic, so the monotonic
// best-score invariant holds under concurrent writers. Used by tests and as
// the STORE_BACKEND=memory option for ephemeral deployments.
type MemoryStore struct {
	mu      sync.Mutex
	players map[string]domain.PlayerRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[string]domain.PlayerRecord)}
}

var _ PlayerStore = (*MemoryStore)(nil)

func (s *MemoryStore) UpsertMax(ctx context.Context, token string, score int64, name string, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[token]
	if !ok {
		rec = domain.PlayerRecord{Token: token, BestScore: score}
	} else if score > rec.BestScore {
		rec.BestScore = score
	}
	if name != "" {
		rec.Name = name
	}
	rec.UpdatedAt = at
	s.players[token] = rec

	return rec.BestScore, nil
}

func (s *MemoryStore) TopN(ctx context.Context, n int) ([]domain.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	records := make([]domain.PlayerRecord, 0, len(s.players))
	for _, rec := range s.players {
		records = append(records, rec)
	}
	s.mu.Unlock()

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].BestScore != records[j].BestScore {
			return records[i].BestScore > records[j].BestScore
		}
		return records[i].UpdatedAt.Before(records[j].UpdatedAt)
	})

	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}

func (s *MemoryStore) GetByToken(ctx context.Context, token string) (*domain.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[token]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
