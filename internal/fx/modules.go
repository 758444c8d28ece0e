package fx

import (
	"database/sql"

	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/config"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/database"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/logger"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/repository"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/server"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type StoreResult struct {
	fx.Out

	Store repository.PlayerStore
	// DB is nil for the memory backend; the shutdown hook checks before closing.
	DB *sql.DB
}

func ProvideStore(cfg *config.Config, log zerolog.Logger) (StoreResult, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Info().Msg("using in-memory store")
		return StoreResult{Store: repository.NewMemoryStore()}, nil
	}

	db, err := database.New(cfg, log)
	if err != nil {
		return StoreResult{}, err
	}
	return StoreResult{Store: repository.NewPlayerRepository(db, log), DB: db}, nil
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	// store
	fx.Provide(ProvideStore),
	// svc
	fx.Provide(service.NewLeaderboardService),
	// server
	fx.Provide(server.NewLeaderboardServer),
)
