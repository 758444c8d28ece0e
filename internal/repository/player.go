package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

var _ PlayerStore = (*PlayerRepository)(nil)

// upsertMaxQuery is the whole concurrency story: create-or-max-merge as one
// conditional statement, so two racing submits for the same token can never
// lose an update to a read-then-write gap. SQLite serializes the writes and
// each one re-evaluates MAX against the row as it then stands.
const upsertMaxQuery = `
INSERT INTO players (token, name, best_score, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (token) DO UPDATE SET
    best_score = MAX(players.best_score, excluded.best_score),
    name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE players.name END,
    updated_at = excluded.updated_at
RETURNING best_score
`

func (r *PlayerRepository) UpsertMax(ctx context.Context, token string, score int64, name string, at time.Time) (int64, error) {
	var best int64
	err := r.db.QueryRowContext(ctx, upsertMaxQuery, token, name, score, at).Scan(&best)
	if err != nil {
		r.logger.Error().Err(err).Str("token", token).Msg("failed to upsert score")
		return 0, fmt.Errorf("failed to upsert score: %w", err)
	}
	return best, nil
}

const topNQuery = `
SELECT token, name, best_score, updated_at
FROM players
ORDER BY best_score DESC, updated_at ASC
LIMIT ?
`

func (r *PlayerRepository) TopN(ctx context.Context, n int) ([]domain.PlayerRecord, error) {
	rows, err := r.db.QueryContext(ctx, topNQuery, n)
	if err != nil {
		r.logger.Error().Err(err).Int("limit", n).Msg("failed to query leaderboard")
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var records []domain.PlayerRecord
	for rows.Next() {
		var rec domain.PlayerRecord
		if err := rows.Scan(&rec.Token, &rec.Name, &rec.BestScore, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}
	return records, nil
}

const getByTokenQuery = `
SELECT token, name, best_score, updated_at
FROM players
WHERE token = ?
`

func (r *PlayerRepository) GetByToken(ctx context.Context, token string) (*domain.PlayerRecord, error) {
	var rec domain.PlayerRecord
	err := r.db.QueryRowContext(ctx, getByTokenQuery, token).Scan(&rec.Token, &rec.Name, &rec.BestScore, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("token", token).Msg("failed to get player")
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &rec, nil
}
