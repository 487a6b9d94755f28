package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultWebhookURL is the collector used until an operator saves another one.
const DefaultWebhookURL = "https://script.google.com/macros/s/AKfycbwLi4Ly833wiK0ql5zTBD1YHrjxl0hVQzujOF6BSskxoBjrphJ4-zXNHVKXBFVnXUtA/exec"

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		// DrainTimeout bounds how long shutdown waits for finished attempts.
		DrainTimeout string `yaml:"drainTimeout"`
	} `yaml:"server"`
	Storage struct {
		// Driver is one of sqlite, memory, redis, postgres.
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		Bank            string `yaml:"bank"`
		TTL             string `yaml:"ttl"`
		TimePerQuestion int    `yaml:"timePerQuestion"`
		TickInterval    string `yaml:"tickInterval"`
	} `yaml:"quiz"`
	Webhook struct {
		URL      string `yaml:"url"`
		Platform string `yaml:"platform"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"webhook"`
	Feedback struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"apiKey"`
		BaseURL  string `yaml:"baseURL"`
	} `yaml:"feedback"`
	Admin struct {
		AccessCode string `yaml:"accessCode"`
		Contact    string `yaml:"contact"`
	} `yaml:"admin"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.DrainTimeout = "1m"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLitePath = "./data/assessment.db"
	cfg.Redis.TTL = "30m"
	cfg.Quiz.Bank = "izyshow"
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.TickInterval = "1s"
	cfg.Webhook.URL = DefaultWebhookURL
	cfg.Webhook.Platform = "IZYSHOW-Assessment"
	cfg.Webhook.Timeout = "15s"
	cfg.Feedback.Provider = "gemini"
	cfg.Admin.AccessCode = "IZY"
	cfg.Admin.Contact = "contact@izyshow.com"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ASSESSMENT_WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("ASSESSMENT_ADMIN_CODE"); v != "" {
		c.Admin.AccessCode = v
	}
	if c.Feedback.APIKey == "" {
		switch strings.ToLower(c.Feedback.Provider) {
		case "", "gemini":
			c.Feedback.APIKey = firstEnv("GEMINI_API_KEY", "API_KEY")
		case "openai":
			c.Feedback.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			c.Feedback.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
