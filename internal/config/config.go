package config

import (
	"encoding/json"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Worker   *workerConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     uint   `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"drafts"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass" json:"-"`
}

type svcConfig struct {
	LogLevel   string `envconfig:"DRAFT_SERVICE_LOG_LEVEL" default:"info"`
	EventTopic string `envconfig:"DRAFT_SERVICE_EVENT_TOPIC" default:"bidready.drafts.events"`
}

type workerConfig struct {
	// Identity written into locked_by on every claim. Injected rather than
	// derived from the pid so runs are reproducible and logs attributable.
	ID               string        `envconfig:"DRAFT_WORKER_ID" default:"draft-worker-1"`
	PollInterval     time.Duration `envconfig:"DRAFT_WORKER_POLL_INTERVAL" default:"500ms"`
	BatchSize        int           `envconfig:"DRAFT_WORKER_BATCH_SIZE" default:"5"`
	LeaseDuration    time.Duration `envconfig:"DRAFT_WORKER_LEASE_DURATION" default:"2m"`
	MaxAttempts      int           `envconfig:"DRAFT_WORKER_MAX_ATTEMPTS" default:"5"`
	MarketMultiplier float64       `envconfig:"DRAFT_WORKER_MARKET_MULTIPLIER" default:"1.0"`
}

func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewDefault returns a config suitable for tests: an in-memory sqlite store
// shared across the connection pool.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			LogLevel:   "info",
			EventTopic: "bidready.drafts.events",
		},
		Worker: &workerConfig{
			ID:               "draft-worker-1",
			PollInterval:     500 * time.Millisecond,
			BatchSize:        5,
			LeaseDuration:    2 * time.Minute,
			MaxAttempts:      5,
			MarketMultiplier: 1.0,
		},
	}
}

func (c *Config) String() string {
	val, err := json.Marshal(c)
	if err != nil {
		return "unable to marshal config"
	}
	return string(val)
}
