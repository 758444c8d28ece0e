package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/config"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/constants"
	fxmodules "github.com/klassnyjkot-crypto/flappy-leaderboard/internal/fx"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/middleware"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/server"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	leaderboardServer *server.LeaderboardServer,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()
	leaderboardServer.Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	requestIDMiddleware := middleware.RequestID(logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: requestIDMiddleware(c.Handler(mux)),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if db != nil {
				if err := db.Close(); err != nil {
					logger.Warn().Err(err).Msg("error closing database connection")
				}
			}

			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
