package constants

import "time"

const (
	// DefaultTopLimit is used when a leaderboard request does not name a limit.
	DefaultTopLimit = 10
	// MaxTopLimit bounds every leaderboard page regardless of what the caller asks for.
	MaxTopLimit = 100
	MinTopLimit = 1
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
