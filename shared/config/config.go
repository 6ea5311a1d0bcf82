package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	Email      EmailConfig      `yaml:"email"`
}

type YouTubeConfig struct {
	// APIKey enables the Data API source; required unless Source is "scrape".
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	// Source selects the retrieval adapter: "api" or "scrape".
	Source string `yaml:"source"`
	// ScrapeRequestsPerSecond throttles the scraping adapter.
	ScrapeRequestsPerSecond float64 `yaml:"scrape_requests_per_second"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type PipelineConfig struct {
	// VideoWorkers bounds concurrent per-video enrichment units.
	VideoWorkers int `yaml:"video_workers"`
	// CommentWorkers bounds concurrent sentiment calls within one video.
	CommentWorkers int `yaml:"comment_workers"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// TrackingConfig drives the optional scheduled competitor-tracking runs.
// With no channels configured the scheduler never starts.
type TrackingConfig struct {
	Schedule string   `yaml:"schedule"`
	Channels []string `yaml:"channels"`
}

// EmailConfig is optional; tracking reports are emailed only when a
// destination address is configured.
type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.YouTube.Source == "" {
		c.YouTube.Source = "api"
	}
	if c.YouTube.ScrapeRequestsPerSecond == 0 {
		c.YouTube.ScrapeRequestsPerSecond = 2
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Pipeline.VideoWorkers == 0 {
		c.Pipeline.VideoWorkers = 4
	}
	if c.Pipeline.CommentWorkers == 0 {
		c.Pipeline.CommentWorkers = 8
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/content_strategy.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8081
	}
	if c.Tracking.Schedule == "" {
		c.Tracking.Schedule = "0 0 6 * * *" // Daily at 6 AM
	}
}

func (c *Config) validate() error {
	switch c.YouTube.Source {
	case "api":
		if c.YouTube.APIKey == "" {
			return fmt.Errorf("YouTube API key is required for the api source (set YOUTUBE_API_KEY or youtube.api_key)")
		}
	case "scrape":
	default:
		return fmt.Errorf("youtube.source must be \"api\" or \"scrape\", got %q", c.YouTube.Source)
	}

	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Pipeline.VideoWorkers < 1 {
		return fmt.Errorf("pipeline.video_workers must be at least 1")
	}
	if c.Pipeline.CommentWorkers < 1 {
		return fmt.Errorf("pipeline.comment_workers must be at least 1")
	}

	if c.Email.ToEmail != "" {
		if c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("email credentials are required when email.to_email is set")
		}
	}
	return nil
}
