package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeWindow is a start/end time-of-day pair in "15:04" form.
type TimeWindow struct {
	StartTime string `yaml:"start_time"`
	EndTime   string `yaml:"end_time"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	DataDir  string   `yaml:"data_dir"`
	Timezone string   `yaml:"timezone"`
	Admins   []string `yaml:"admins"`
	Window   struct {
		StartTime string                `yaml:"start_time"`
		EndTime   string                `yaml:"end_time"`
		Users     map[string]TimeWindow `yaml:"users"`
		Groups    map[string]TimeWindow `yaml:"groups"`
	} `yaml:"window"`
	Calendar struct {
		Holidays []string `yaml:"holidays"` // "2006-01-02" exchange closures
	} `yaml:"calendar"`
	LLM struct {
		Enabled bool   `yaml:"enabled"`
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`
	Schedule struct {
		BroadcastCron string `yaml:"broadcast_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Pre-set before unmarshal: absent keys keep these values.
	cfg.LLM.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("CRON_BROADCAST"); v != "" {
		cfg.Schedule.BroadcastCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataDir == "" {
		cfg.DataDir = "data/checkins"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Shanghai"
	}
	if cfg.Window.StartTime == "" {
		cfg.Window.StartTime = "15:00"
	}
	if cfg.Window.EndTime == "" {
		cfg.Window.EndTime = "09:00"
	}
	if cfg.Schedule.BroadcastCron == "" {
		cfg.Schedule.BroadcastCron = "0 0 9 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/fupan.db"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well-formed.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if _, err := time.Parse("15:04", c.Window.StartTime); err != nil {
		return fmt.Errorf("window.start_time %q: %w", c.Window.StartTime, err)
	}
	if _, err := time.Parse("15:04", c.Window.EndTime); err != nil {
		return fmt.Errorf("window.end_time %q: %w", c.Window.EndTime, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	for _, h := range c.Calendar.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("calendar.holidays entry %q: %w", h, err)
		}
	}
	return nil
}
