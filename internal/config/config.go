package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port               int           `envconfig:"PORT" default:"8080"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL        string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL           string        `envconfig:"REDIS_URL" default:""`
	Version            string        `envconfig:"VERSION" default:"dev"`
	BcryptCost         int           `envconfig:"BCRYPT_COST" default:"12"`
	AutoMigrate        bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	SeedFile           string        `envconfig:"SEED_FILE" default:""`
	SweepSchedule      string        `envconfig:"SWEEP_SCHEDULE" default:"@every 1m"`
	ActiveBoostTTL     time.Duration `envconfig:"ACTIVE_BOOST_CACHE_TTL" default:"1m"`
	ApplyLockTTL       time.Duration `envconfig:"APPLY_LOCK_TTL" default:"2m"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RedisEnabled reports whether a Redis URL was configured. Cache, lock and
// rate limiting fall back to no-ops without it.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}
