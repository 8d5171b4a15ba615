package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Verify    VerifyConfig    `mapstructure:"verify"`
	Evidence  EvidenceConfig  `mapstructure:"evidence"`
	WebSearch WebSearchConfig `mapstructure:"websearch"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Run       RunConfig       `mapstructure:"run"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// VerifyConfig holds verification behavior configuration
type VerifyConfig struct {
	WebSearchEnabled   bool                `mapstructure:"web_search_enabled"`
	WebSearchBudget    int                 `mapstructure:"web_search_budget"`
	ApplyCorrections   bool                `mapstructure:"apply_corrections"`
	NeedsResearchRatio float64             `mapstructure:"needs_research_ratio"`
	Deadline           time.Duration       `mapstructure:"deadline"`
	SportKeywords      map[string][]string `mapstructure:"sport_keywords"`
}

// EvidenceConfig holds the locations of pre-fetched evidence
type EvidenceConfig struct {
	LiveEventsFile string           `mapstructure:"live_events_file"`
	RSSFile        string           `mapstructure:"rss_file"`
	SportDataDir   string           `mapstructure:"sport_data_dir"`
	Scoreboard     ScoreboardConfig `mapstructure:"scoreboard"`
}

// ScoreboardConfig holds the optional live scoreboard fetcher configuration
type ScoreboardConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	BaseURL        string            `mapstructure:"base_url"`
	Sports         map[string]string `mapstructure:"sports"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	MaxRetries     int               `mapstructure:"max_retries"`
	RetryDelayBase time.Duration     `mapstructure:"retry_delay_base"`
}

// WebSearchConfig holds the HTTP search backend configuration
type WebSearchConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	GroupsDir       string      `mapstructure:"groups_dir"`
	HistoryBackend  string      `mapstructure:"history_backend"`
	HistoryPath     string      `mapstructure:"history_path"`
	HistoryMaxRuns  int         `mapstructure:"history_max_runs"`
	HintsPath       string      `mapstructure:"hints_path"`
	IssuesPath      string      `mapstructure:"issues_path"`
	FilePermissions os.FileMode `mapstructure:"file_permissions"`
	DirPermissions  os.FileMode `mapstructure:"dir_permissions"`
}

// MetricsConfig holds Prometheus textfile export configuration
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TextfilePath string `mapstructure:"textfile_path"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// RunConfig controls one-shot versus interval operation
type RunConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("FIXTURE_VERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Verify defaults
	v.SetDefault("verify.web_search_enabled", false)
	v.SetDefault("verify.web_search_budget", 3)
	v.SetDefault("verify.apply_corrections", true)
	v.SetDefault("verify.needs_research_ratio", 0.5)
	v.SetDefault("verify.deadline", "55s")

	// Evidence defaults
	v.SetDefault("evidence.live_events_file", "./data/evidence/live-events.json")
	v.SetDefault("evidence.rss_file", "./data/evidence/rss-digest.json")
	v.SetDefault("evidence.sport_data_dir", "./data/sports")
	v.SetDefault("evidence.scoreboard.enabled", false)
	v.SetDefault("evidence.scoreboard.timeout", "10s")
	v.SetDefault("evidence.scoreboard.max_retries", 3)
	v.SetDefault("evidence.scoreboard.retry_delay_base", "1s")

	// Web search defaults
	v.SetDefault("websearch.timeout", "15s")
	v.SetDefault("websearch.requests_per_second", 1.0)

	// Storage defaults
	v.SetDefault("storage.groups_dir", "./data/groups")
	v.SetDefault("storage.history_backend", "json")
	v.SetDefault("storage.history_path", "./data/verification-history.json")
	v.SetDefault("storage.history_max_runs", 50)
	v.SetDefault("storage.hints_path", "./data/verification-hints.json")
	v.SetDefault("storage.issues_path", "./data/verification-issues.yaml")
	v.SetDefault("storage.file_permissions", 0644)
	v.SetDefault("storage.dir_permissions", 0755)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile_path", "./data/fixtureverify.prom")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Run defaults
	v.SetDefault("run.interval", "0s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Verify config
	if c.Verify.WebSearchBudget < 0 {
		return fmt.Errorf("verify.web_search_budget must not be negative")
	}
	if c.Verify.NeedsResearchRatio <= 0.0 || c.Verify.NeedsResearchRatio > 1.0 {
		return fmt.Errorf("verify.needs_research_ratio must be in (0.0, 1.0]")
	}
	if c.Verify.Deadline < 1*time.Second {
		return fmt.Errorf("verify.deadline must be at least 1 second")
	}
	if c.Verify.WebSearchEnabled && c.WebSearch.BaseURL == "" {
		return fmt.Errorf("websearch.base_url is required when web search is enabled")
	}

	// Validate Evidence config
	if c.Evidence.Scoreboard.Enabled {
		if c.Evidence.Scoreboard.BaseURL == "" {
			return fmt.Errorf("evidence.scoreboard.base_url is required when the scoreboard is enabled")
		}
		if len(c.Evidence.Scoreboard.Sports) == 0 {
			return fmt.Errorf("evidence.scoreboard.sports must contain at least one sport")
		}
		if c.Evidence.Scoreboard.Timeout <= 0 {
			return fmt.Errorf("evidence.scoreboard.timeout must be positive")
		}
	}

	// Validate WebSearch config
	if c.Verify.WebSearchEnabled && c.WebSearch.RequestsPerSecond <= 0 {
		return fmt.Errorf("websearch.requests_per_second must be positive")
	}

	// Validate Storage config
	if c.Storage.GroupsDir == "" {
		return fmt.Errorf("storage.groups_dir is required")
	}
	validBackends := map[string]bool{"json": true, "sqlite": true}
	if !validBackends[c.Storage.HistoryBackend] {
		return fmt.Errorf("storage.history_backend must be one of: json, sqlite")
	}
	if c.Storage.HistoryPath == "" {
		return fmt.Errorf("storage.history_path is required")
	}
	if c.Storage.HistoryMaxRuns < 1 || c.Storage.HistoryMaxRuns > 50 {
		return fmt.Errorf("storage.history_max_runs must be between 1 and 50")
	}

	// Validate Metrics config
	if c.Metrics.Enabled && c.Metrics.TextfilePath == "" {
		return fmt.Errorf("metrics.textfile_path is required when metrics are enabled")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Run config
	if c.Run.Interval < 0 {
		return fmt.Errorf("run.interval must not be negative")
	}
	if c.Run.Interval > 0 && c.Run.Interval < 1*time.Minute {
		return fmt.Errorf("run.interval must be 0 or at least 1 minute")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
