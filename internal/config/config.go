package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envSummarizerKey = "ABSTRACT_LENS_SUMMARIZER_KEY"
	envRedisAddr     = "ABSTRACT_LENS_REDIS_ADDR"
	envHistoryDSN    = "ABSTRACT_LENS_HISTORY_DSN"
)

type Config struct {
	Analysis   AnalysisConfig `yaml:"analysis"`
	Summarizer LLMConfig      `yaml:"summarizer"`
	Embedding  LLMConfig      `yaml:"embedding"`
	Cache      CacheConfig    `yaml:"cache"`
	History    HistoryConfig  `yaml:"history"`
	Server     ServerConfig   `yaml:"server"`
	Report     ReportConfig   `yaml:"report"`
	Logging    LoggingConfig  `yaml:"logging"`
}

type AnalysisConfig struct {
	TopK              int `yaml:"top_k"`
	DisplayLimit      int `yaml:"display_limit"`
	SummaryInputChars int `yaml:"summary_input_chars"`
}

// LLMConfig describes a model backend. Provider is one of
// disabled, ollama, langchain, openai or gemini.
type LLMConfig struct {
	Provider   string        `yaml:"provider"`
	BaseURL    string        `yaml:"base_url"`
	Key        string        `yaml:"key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	MinLength  int           `yaml:"min_length"`
	MaxLength  int           `yaml:"max_length"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
}

type HistoryConfig struct {
	// Driver is "pgdriver" (default) or "postgres" for lib/pq.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ReportConfig struct {
	MinFontSize float64 `yaml:"min_font_size"`
	MaxFontSize float64 `yaml:"max_font_size"`
	// FontPath is a TrueType font for reports with non-Latin terms.
	FontPath string `yaml:"font_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads the YAML file at path. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envSummarizerKey); v != "" {
		c.Summarizer.Key = v
	}
	if v := os.Getenv(envRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(envHistoryDSN); v != "" {
		c.History.DSN = v
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Analysis.TopK <= 0 {
		c.Analysis.TopK = 20
	}
	if c.Analysis.DisplayLimit <= 0 {
		c.Analysis.DisplayLimit = 5
	}
	if c.Analysis.SummaryInputChars <= 0 {
		c.Analysis.SummaryInputChars = 1000
	}
	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = "disabled"
	}
	if c.Summarizer.Timeout <= 0 {
		c.Summarizer.Timeout = 60 * time.Second
	}
	if c.Summarizer.MinLength <= 0 {
		c.Summarizer.MinLength = 30
	}
	if c.Summarizer.MaxLength <= 0 {
		c.Summarizer.MaxLength = 100
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "disabled"
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.History.Driver == "" {
		c.History.Driver = "pgdriver"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Report.MinFontSize <= 0 {
		c.Report.MinFontSize = 10
	}
	if c.Report.MaxFontSize <= c.Report.MinFontSize {
		c.Report.MaxFontSize = c.Report.MinFontSize + 26
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
