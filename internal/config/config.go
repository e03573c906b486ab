package config

import (
	"fmt"
	"os"
	"strings"

	"cricket-tracker/internal/constants"
	"cricket-tracker/internal/domain"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	RapidAPIKey  string
	RapidAPIHost string
	BaseURL      string
	ServerPort   string
	DBPath       string
	StaticDir    string
	// upstream path per feed, relative to BaseURL
	Feeds map[domain.Feed]string
}

func DefaultFeeds() map[domain.Feed]string {
	return map[domain.Feed]string{
		domain.FeedLive:     "/matches/v1/live",
		domain.FeedUpcoming: "/matches/v1/upcoming",
		domain.FeedRecent:   "/matches/v1/recent",
	}
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	host := getEnv("RAPIDAPI_HOST", constants.DefaultRapidAPIHost)
	cfg := &Config{
		RapidAPIKey:  getEnv("RAPIDAPI_KEY", ""),
		RapidAPIHost: host,
		BaseURL:      strings.TrimRight(getEnv("RAPIDAPI_BASE_URL", "https://"+host), "/"),
		ServerPort:   getEnv("PORT", constants.DefaultServerPort),
		DBPath:       getEnv("DB_PATH", "cricket.db"),
		StaticDir:    getEnv("STATIC_DIR", "../Frontend/dist"),
		Feeds:        DefaultFeeds(),
	}

	if cfg.RapidAPIKey == "" {
		return nil, fmt.Errorf("RAPIDAPI_KEY is required")
	}

	if path := os.Getenv("FEEDS_FILE"); path != "" {
		overrides, err := LoadFeeds(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load feeds file: %w", err)
		}
		for feed, upstream := range overrides {
			cfg.Feeds[feed] = upstream
		}
		logger.Info().Str("path", path).Int("overrides", len(overrides)).Msg("feed overrides loaded")
	}

	logger.Info().
		Str("rapidapi_host", cfg.RapidAPIHost).
		Str("base_url", cfg.BaseURL).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("static_dir", cfg.StaticDir).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
