package service

import (
	"context"
	"time"

	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/constants"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/domain"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// LeaderboardService holds the score-tracking rules: tokens are opaque and
// trusted as-is, the stored best never goes down, and an unknown player is a
// zero-score player rather than an error.
type LeaderboardService struct {
	store  repository.PlayerStore
	logger zerolog.Logger
}

func NewLeaderboardService(store repository.PlayerStore, logger zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{store: store, logger: logger}
}

// SubmitScore records score for token and returns the resulting best. A score
// at or below the stored best is still a successful submission: it touches
// updated_at but leaves the best alone. An empty name preserves whatever name
// the player set before.
func (s *LeaderboardService) SubmitScore(ctx context.Context, token string, score int64, name string) (int64, error) {
	if token == "" {
		return 0, domain.ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	submissionID, _ := gonanoid.New()

	best, err := s.store.UpsertMax(ctx, token, score, name, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).
			Str("submission_id", submissionID).
			Str("token", token).
			Int64("score", score).
			Msg("failed to submit score")
		return 0, err
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("token", token).
		Int64("score", score).
		Int64("best", best).
		Msg("score submitted")

	return best, nil
}

// ListTop returns the leaderboard page. The limit is clamped into
// [MinTopLimit, MaxTopLimit]; callers that want the default page size pass
// constants.DefaultTopLimit themselves.
func (s *LeaderboardService) ListTop(ctx context.Context, limit int) ([]domain.PlayerRecord, error) {
	if limit < constants.MinTopLimit {
		limit = constants.MinTopLimit
	}
	if limit > constants.MaxTopLimit {
		limit = constants.MaxTopLimit
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	records, err := s.store.TopN(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Int("limit", limit).Msg("failed to list leaderboard")
		return nil, err
	}

	s.logger.Debug().Int("limit", limit).Int("count", len(records)).Msg("leaderboard listed")
	return records, nil
}

// GetPlayer returns the record for token, or a synthetic zero record when the
// token has never submitted. Absence is not an error in this domain.
func (s *LeaderboardService) GetPlayer(ctx context.Context, token string) (*domain.PlayerRecord, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rec, err := s.store.GetByToken(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Str("token", token).Msg("failed to get player")
		return nil, err
	}
	if rec == nil {
		return &domain.PlayerRecord{Token: token}, nil
	}
	return rec, nil
}
