package repository

import (
	"context"
	"time"

	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/domain"
)

// PlayerStore is the durable-storage contract the leaderboard runs on.
// UpsertMax must be atomic with respect to concurrent calls for the same
// token: the stored best only ever moves up, no matter how writers interleave.
type PlayerStore interface {
	// UpsertMax creates the record for token or merges a candidate score into
	// it, keeping the maximum. A non-empty name overwrites the stored one; an
	// empty name leaves it alone. updated_at is touched either way. Returns
	// the best score after the merge.
	UpsertMax(ctx context.Context, token string, score int64, name string, at time.Time) (int64, error)

	// TopN returns at most n records ordered by best score descending, ties
	// broken by earliest updated_at first.
	TopN(ctx context.Context, n int) ([]domain.PlayerRecord, error)

	// GetByToken returns (nil, nil) when no record exists for token.
	GetByToken(ctx context.Context, token string) (*domain.PlayerRecord, error)
}
