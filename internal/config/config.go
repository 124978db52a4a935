package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded from config.yaml with
// environment-variable overrides for deployment-sensitive values.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Tracker     TrackerConfig     `mapstructure:"tracker"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug/release/test
}

type DatabaseConfig struct {
	// DSN is a postgres URL in production; empty or a file path selects
	// the sqlite driver.
	DSN string `mapstructure:"dsn"`
}

type MarketplaceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RequestPacing is the minimum spacing between outbound requests.
	RequestPacing time.Duration `mapstructure:"request_pacing"`
	HitFeedLimit  int           `mapstructure:"hit_feed_limit"`
}

// TargetSeries names one pack product to track, as it appears on the
// categories endpoint. Matching is case-insensitive.
type TargetSeries struct {
	Category string `mapstructure:"category"`
	Series   string `mapstructure:"series"`
}

type TrackerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// RetryInterval is the wait after a failed categories fetch before the
	// next sweep attempt.
	RetryInterval time.Duration  `mapstructure:"retry_interval"`
	Targets       []TargetSeries `mapstructure:"targets"`
	// VerificationTiers is the allow-list of tiers whose disappearances
	// must be corroborated by the hit feed before counting as sold.
	VerificationTiers []string `mapstructure:"verification_tiers"`
	// StaticPackCostsCents maps category label to the nominal pack cost.
	StaticPackCostsCents map[string]int64 `mapstructure:"static_pack_costs_cents"`
}

// StaticPackCost resolves the nominal cost for a category label. Upstream is
// inconsistent about trailing dots ("Misc." vs "Misc"), so lookup retries
// with the dot toggled. ok is false when the category is unknown.
func (t TrackerConfig) StaticPackCost(category string) (cents int64, ok bool) {
	if category == "" {
		return 0, false
	}
	if cents, ok = t.StaticPackCostsCents[category]; ok {
		return cents, true
	}
	if strings.HasSuffix(category, ".") {
		cents, ok = t.StaticPackCostsCents[strings.TrimSuffix(category, ".")]
	} else {
		cents, ok = t.StaticPackCostsCents[category+"."]
	}
	return cents, ok
}

// IsVerificationTier reports whether a tier requires hit-feed verification.
func (t TrackerConfig) IsVerificationTier(tier string) bool {
	for _, v := range t.VerificationTiers {
		if v == tier {
			return true
		}
	}
	return false
}

// Load reads config.yaml (optional; defaults cover every key) and applies
// environment overrides. A .env file is honored for local development.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env may not exist

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MARKETPLACE_BASE_URL"); v != "" {
		cfg.Marketplace.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
}

func (c *Config) validate() error {
	if len(c.Tracker.Targets) == 0 {
		return fmt.Errorf("no target series configured")
	}
	if c.Tracker.PollInterval <= 0 {
		return fmt.Errorf("tracker.poll_interval must be positive")
	}
	if c.Marketplace.BaseURL == "" {
		return fmt.Errorf("marketplace.base_url is required")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("marketplace.base_url", "https://api.arenaclub.com/v2")
	viper.SetDefault("marketplace.request_timeout", "30s")
	viper.SetDefault("marketplace.request_pacing", "2s")
	viper.SetDefault("marketplace.hit_feed_limit", 50)
	viper.SetDefault("tracker.poll_interval", "5s")
	viper.SetDefault("tracker.retry_interval", "60s")
	viper.SetDefault("tracker.verification_tiers", []string{"Grail", "Chase"})
	viper.SetDefault("tracker.static_pack_costs_cents", map[string]int64{
		"Diamond": 100000,
		"Emerald": 50000,
		"Ruby":    25000,
		"Gold":    10000,
		"Silver":  5000,
		"Misc.":   2500,
	})
	viper.SetDefault("tracker.targets", defaultTargets())
}

func defaultTargets() []map[string]string {
	targets := []map[string]string{
		{"category": "Diamond", "series": "Multi-Sport"},
		{"category": "Diamond", "series": "Pokemon"},
		{"category": "Misc.", "series": "Multi-Sport"},
		{"category": "Misc.", "series": "Pokemon"},
	}
	for _, category := range []string{"Emerald", "Ruby", "Gold", "Silver"} {
		for _, series := range []string{"Baseball", "Basketball", "Football", "Pokemon"} {
			targets = append(targets, map[string]string{"category": category, "series": series})
		}
	}
	return targets
}
