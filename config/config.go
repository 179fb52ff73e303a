// backend/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type GovAPIConfig struct {
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"` // overridden by GOV_API_KEY
	TimeoutMs        int    `yaml:"timeout_ms"`
	MaxRetries       int    `yaml:"max_retries"`
	RetryBaseDelayMs int    `yaml:"retry_base_delay_ms"`
	RecordLimit      int    `yaml:"record_limit"`
	// Public report portal, scraped to discover the latest published period.
	// Optional; sync falls back to the wall-clock current period.
	PortalURL            string `yaml:"portal_url"`
	PortalPeriodSelector string `yaml:"portal_period_selector"`
}

type CacheConfig struct {
	DefaultTTLSeconds    int `yaml:"default_ttl_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	HotTTLSeconds        int `yaml:"hot_ttl_seconds"`
	HistoricalTTLSeconds int `yaml:"historical_ttl_seconds"`
	DistrictsTTLSeconds  int `yaml:"districts_ttl_seconds"`
	LocationTTLSeconds   int `yaml:"location_ttl_seconds"`
	ComparisonTTLSeconds int `yaml:"comparison_ttl_seconds"`
	// Adaptive warming thresholds: warm when hit rate is below
	// WarmHitRatePercent and fewer than WarmMaxKeys keys are cached.
	WarmHitRatePercent float64 `yaml:"warm_hit_rate_percent"`
	WarmMaxKeys        int     `yaml:"warm_max_keys"`
	WarmTopDistricts   int     `yaml:"warm_top_districts"`
}

type DataFreshnessConfig struct {
	RefreshDays      int `yaml:"refresh_days"`
	CleanupDays      int `yaml:"cleanup_days"`
	SyncDelayMs      int `yaml:"sync_delay_ms"`
	ActiveWindowDays int `yaml:"active_window_days"`
	ActiveLimit      int `yaml:"active_limit"`
}

type RateLimitConfig struct {
	WindowMinutes int `yaml:"window_minutes"`
	MaxRequests   int `yaml:"max_requests"`
}

type JobsConfig struct {
	Enabled             bool   `yaml:"enabled"`
	RefreshIntervalStr  string `yaml:"refresh_interval"`
	WarmIntervalStr     string `yaml:"warm_interval"`
	CleanupIntervalStr  string `yaml:"cleanup_interval"`
	RefreshInterval     time.Duration
	WarmInterval        time.Duration
	CleanupInterval     time.Duration
}

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	GovAPI        GovAPIConfig        `yaml:"gov_api"`
	Cache         CacheConfig         `yaml:"cache"`
	DataFreshness DataFreshnessConfig `yaml:"data_freshness"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Jobs          JobsConfig          `yaml:"jobs"`
}

var AppConfig Config

// LoadConfig reads configuration from the yaml file at configPath, applies
// defaults for anything unset, and lets a few environment variables override
// secrets so they never have to live in the file.
func LoadConfig(configPath string) error {
	if configPath == "" {
		for _, p := range []string{"config/config.yaml", "backend/config/config.yaml"} {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
		if configPath == "" {
			return fmt.Errorf("config.yaml not found in standard locations")
		}
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(file, &AppConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Environment overrides for secrets and deploy-time knobs.
	if v := os.Getenv("GOV_API_KEY"); v != "" {
		AppConfig.GovAPI.APIKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		AppConfig.Database.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		AppConfig.Server.Port = v
	}

	applyDefaults(&AppConfig)

	// Parse job intervals.
	var perr error
	if AppConfig.Jobs.RefreshInterval, perr = parseDurationDefault(AppConfig.Jobs.RefreshIntervalStr, 24*time.Hour); perr != nil {
		return fmt.Errorf("failed to parse refresh_interval: %w", perr)
	}
	if AppConfig.Jobs.WarmInterval, perr = parseDurationDefault(AppConfig.Jobs.WarmIntervalStr, 10*time.Minute); perr != nil {
		return fmt.Errorf("failed to parse warm_interval: %w", perr)
	}
	if AppConfig.Jobs.CleanupInterval, perr = parseDurationDefault(AppConfig.Jobs.CleanupIntervalStr, 24*time.Hour); perr != nil {
		return fmt.Errorf("failed to parse cleanup_interval: %w", perr)
	}

	return nil
}

func parseDurationDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func applyDefaults(c *Config) {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.GovAPI.TimeoutMs == 0 {
		c.GovAPI.TimeoutMs = 10000
	}
	if c.GovAPI.MaxRetries == 0 {
		c.GovAPI.MaxRetries = 3
	}
	if c.GovAPI.RetryBaseDelayMs == 0 {
		c.GovAPI.RetryBaseDelayMs = 1000
	}
	if c.GovAPI.RecordLimit == 0 {
		c.GovAPI.RecordLimit = 1000
	}
	if c.Cache.DefaultTTLSeconds == 0 {
		c.Cache.DefaultTTLSeconds = 300
	}
	if c.Cache.SweepIntervalSeconds == 0 {
		c.Cache.SweepIntervalSeconds = 120
	}
	if c.Cache.HotTTLSeconds == 0 {
		c.Cache.HotTTLSeconds = 300
	}
	if c.Cache.HistoricalTTLSeconds == 0 {
		c.Cache.HistoricalTTLSeconds = 3600
	}
	if c.Cache.DistrictsTTLSeconds == 0 {
		c.Cache.DistrictsTTLSeconds = 86400
	}
	if c.Cache.LocationTTLSeconds == 0 {
		c.Cache.LocationTTLSeconds = 604800
	}
	if c.Cache.ComparisonTTLSeconds == 0 {
		c.Cache.ComparisonTTLSeconds = 1800
	}
	if c.Cache.WarmHitRatePercent == 0 {
		c.Cache.WarmHitRatePercent = 50
	}
	if c.Cache.WarmMaxKeys == 0 {
		c.Cache.WarmMaxKeys = 50
	}
	if c.Cache.WarmTopDistricts == 0 {
		c.Cache.WarmTopDistricts = 20
	}
	if c.DataFreshness.RefreshDays == 0 {
		c.DataFreshness.RefreshDays = 20
	}
	if c.DataFreshness.CleanupDays == 0 {
		c.DataFreshness.CleanupDays = 3 * 365
	}
	if c.DataFreshness.SyncDelayMs == 0 {
		c.DataFreshness.SyncDelayMs = 1000
	}
	if c.DataFreshness.ActiveWindowDays == 0 {
		c.DataFreshness.ActiveWindowDays = 30
	}
	if c.DataFreshness.ActiveLimit == 0 {
		c.DataFreshness.ActiveLimit = 100
	}
	if c.RateLimit.WindowMinutes == 0 {
		c.RateLimit.WindowMinutes = 15
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 100
	}
}
