package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LeafletAssets is the pinned Leaflet 1.9.4 bundle with its published SRI
// hashes.
var LeafletAssets = []string{
	"https://unpkg.com/leaflet@1.9.4/dist/leaflet.css#sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY=",
	"https://unpkg.com/leaflet@1.9.4/dist/leaflet.js#sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV1lvTlZBo=",
}

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/attractions.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`
	SeedDemo bool       `env:"SEED_DEMO" envDefault:"true"`

	// RedisURL enables the asset cache when set.
	RedisURL string `env:"REDIS_URL"`

	MapTileURL       string        `env:"MAP_TILE_URL" envDefault:"https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"`
	MapAssets        []string      `env:"MAP_ASSETS"`
	MapAssetTimeout  time.Duration `env:"MAP_ASSET_TIMEOUT" envDefault:"15s"`
	MapAssetCacheTTL time.Duration `env:"MAP_ASSET_CACHE_TTL" envDefault:"24h"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if len(cfg.MapAssets) == 0 {
		cfg.MapAssets = LeafletAssets
	}
	return &cfg, nil
}
