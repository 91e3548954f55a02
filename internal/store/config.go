package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode     string `yaml:"mode"`      // DRY_RUN or LIVE
	StateDir string `yaml:"state_dir"` // root for state.json, plan.md, strategy.md, logs/
	Timezone string `yaml:"timezone"`

	// Loop mode cadence. Cron deployments ignore this and run the binary
	// once per schedule instead.
	PollMinutes int `yaml:"poll_minutes"`

	Watchlist  []string `yaml:"watchlist"`
	SectorETFs []string `yaml:"sector_etfs"`

	// Prompt/history sizing
	HistoryLimit  int `yaml:"history_limit"`  // actions kept in state.json
	RecentActions int `yaml:"recent_actions"` // actions included in the prompt

	LLM struct {
		Binary         string `yaml:"binary"` // CLI path; "none" disables LLM invocation
		MCPConfig      string `yaml:"mcp_config"`
		WorkDir        string `yaml:"work_dir"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		MaxOutputBytes int    `yaml:"max_output_bytes"`
	} `yaml:"llm"`

	Broker struct {
		BaseURL           string  `yaml:"base_url"`
		StreamURL         string  `yaml:"stream_url"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		RetryMaxSeconds   int     `yaml:"retry_max_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"broker"`

	News struct {
		Enabled      bool `yaml:"enabled"`
		MaxArticles  int  `yaml:"max_articles"`
		CacheMinutes int  `yaml:"cache_minutes"`
	} `yaml:"news"`

	Log struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"log"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir cannot be empty")
	}
	if c.PollMinutes <= 0 {
		return fmt.Errorf("poll_minutes must be positive, got %d", c.PollMinutes)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm.timeout_seconds must be positive, got %d", c.LLM.TimeoutSeconds)
	}
	if c.Broker.BaseURL == "" {
		return fmt.Errorf("broker.base_url cannot be empty")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	// Deployment overrides mirror the container environment.
	if v := os.Getenv("STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("TZ"); v != "" {
		c.Timezone = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.StateDir == "" {
		c.StateDir = "/data/alpaca-bot"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.PollMinutes == 0 {
		c.PollMinutes = 15
	}
	if len(c.Watchlist) == 0 {
		c.Watchlist = []string{"AAPL", "MSFT", "NVDA", "TSLA", "COIN", "MARA"}
	}
	if len(c.SectorETFs) == 0 {
		c.SectorETFs = []string{"SPY", "QQQ", "XLF", "XLE", "XLK"}
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 50
	}
	if c.RecentActions == 0 {
		c.RecentActions = 10
	}
	if c.LLM.Binary == "" {
		c.LLM.Binary = "claude"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 300
	}
	if c.LLM.MaxOutputBytes == 0 {
		c.LLM.MaxOutputBytes = 2000
	}
	if c.Broker.BaseURL == "" {
		c.Broker.BaseURL = "https://paper-api.alpaca.markets"
	}
	if c.Broker.StreamURL == "" {
		c.Broker.StreamURL = "wss://paper-api.alpaca.markets/stream"
	}
	if c.Broker.TimeoutSeconds == 0 {
		c.Broker.TimeoutSeconds = 10
	}
	if c.Broker.RetryMaxSeconds == 0 {
		c.Broker.RetryMaxSeconds = 30
	}
	if c.Broker.RequestsPerSecond == 0 {
		c.Broker.RequestsPerSecond = 3
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 12
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 60
	}
}

// Location resolves the configured timezone, falling back to UTC when the
// zone database does not know it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
