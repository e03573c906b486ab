package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultSnapshotLimit = 20
	MaxSnapshotLimit     = 100
	// snapshots kept per feed; older rows are pruned after each insert
	SnapshotRetention = 200
)

const (
	DefaultRapidAPIHost = "cricbuzz-cricket.p.rapidapi.com"
	DefaultServerPort   = "5000"
)
