package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hook-screener/shared/logging"
	"hook-screener/shared/moderation"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Screener   ScreenerConfig   `yaml:"screener"`
	AI         AIConfig         `yaml:"ai"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Email      EmailConfig      `yaml:"email"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    logging.Config   `yaml:"logging"`
}

type ScreenerConfig struct {
	Profile          string        `yaml:"profile"`
	CorpusPreset     string        `yaml:"corpus_preset"`
	FallbackPreset   string        `yaml:"fallback_preset"`
	Creators         []string      `yaml:"creators"`
	VideosPerCreator int64         `yaml:"videos_per_creator"`
	Concurrency      int           `yaml:"concurrency"`
	SampleTimeout    time.Duration `yaml:"sample_timeout"`
	SkipWindow       time.Duration `yaml:"skip_window"`
	DataDir          string        `yaml:"data_dir"`
	Schedule         string        `yaml:"schedule"`
	RefusalPhrases   []string      `yaml:"refusal_phrases"`
	MaxSuggestions   int           `yaml:"max_suggestions"`
}

type AIConfig struct {
	GeminiAPIKey       string  `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model              string  `yaml:"model"`
	SemanticValidation bool    `yaml:"semantic_validation"`
	MinConfidence      float64 `yaml:"min_confidence"`
}

type YouTubeConfig struct {
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether a digest should be mailed.
func (e EmailConfig) Enabled() bool { return e.SMTPServer != "" }

type StorageConfig struct {
	Path       string `yaml:"path"`
	SeedPreset string `yaml:"seed_preset"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type NATSConfig struct {
	URL           string `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

func (n NATSConfig) Enabled() bool { return n.URL != "" }

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Load reads .env, the YAML file named by CONFIG_FILE (default config.yaml),
// env overrides and defaults, then validates. A missing default file is not an
// error so offline commands work without one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	override(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	override(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	override(&c.YouTube.ClientID, "GOOGLE_CLIENT_ID")
	override(&c.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET")
	override(&c.Email.Username, "EMAIL_USERNAME")
	override(&c.Email.Password, "EMAIL_PASSWORD")
	override(&c.Redis.Password, "REDIS_PASSWORD")
	override(&c.NATS.URL, "NATS_URL")
}

func (c *Config) applyDefaults() {
	s := &c.Screener
	if s.Profile == "" {
		s.Profile = "batch"
	}
	if s.CorpusPreset == "" {
		s.CorpusPreset = "scraper"
	}
	if s.FallbackPreset == "" {
		s.FallbackPreset = "fallback"
	}
	if s.VideosPerCreator == 0 {
		s.VideosPerCreator = 5
	}
	if s.Concurrency == 0 {
		s.Concurrency = 4
	}
	if s.SampleTimeout == 0 {
		s.SampleTimeout = 2 * time.Minute
	}
	if s.SkipWindow == 0 {
		s.SkipWindow = 7 * 24 * time.Hour
	}
	if s.DataDir == "" {
		s.DataDir = "data"
	}
	if s.Schedule == "" {
		s.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if len(s.RefusalPhrases) == 0 {
		s.RefusalPhrases = []string{"I'm sorry, I can't assist with that"}
	}
	if s.MaxSuggestions == 0 {
		s.MaxSuggestions = 4
	}

	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.MinConfidence == 0 {
		c.AI.MinConfidence = 0.5
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(s.DataDir, "screener.db")
	}
	if c.Storage.SeedPreset == "" {
		c.Storage.SeedPreset = s.CorpusPreset
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 10 * time.Minute
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "verdicts"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}

	def := logging.DefaultConfig()
	l := &c.Logging
	if l.Level == "" {
		l.Level = def.Level
	}
	if l.Format == "" {
		l.Format = def.Format
	}
	if l.Output == "" {
		l.Output = def.Output
	}
	if l.FilePath == "" {
		l.FilePath = def.FilePath
	}
	if l.MaxSize == 0 {
		l.MaxSize = def.MaxSize
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = def.MaxBackups
	}
	if l.MaxAge == 0 {
		l.MaxAge = def.MaxAge
	}
}

// Validate checks what every command needs.
func (c *Config) Validate() error {
	s := c.Screener
	if _, err := moderation.ProfileByName(s.Profile); err != nil {
		return fmt.Errorf("screener.profile: %w (available: %s)", err, strings.Join(moderation.ProfileNames(), ", "))
	}
	if _, err := moderation.Preset(s.CorpusPreset); err != nil {
		return fmt.Errorf("screener.corpus_preset: %w", err)
	}
	if _, err := moderation.Preset(s.FallbackPreset); err != nil {
		return fmt.Errorf("screener.fallback_preset: %w", err)
	}
	if _, err := moderation.Preset(c.Storage.SeedPreset); err != nil {
		return fmt.Errorf("storage.seed_preset: %w", err)
	}
	if s.VideosPerCreator < 1 {
		return fmt.Errorf("screener.videos_per_creator must be positive, got %d", s.VideosPerCreator)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("screener.concurrency must be positive, got %d", s.Concurrency)
	}
	if s.SampleTimeout < 0 || s.SkipWindow < 0 {
		return fmt.Errorf("screener timeouts must not be negative")
	}
	if s.MaxSuggestions < 1 {
		return fmt.Errorf("screener.max_suggestions must be positive, got %d", s.MaxSuggestions)
	}
	if c.AI.MinConfidence < 0 || c.AI.MinConfidence > 1 {
		return fmt.Errorf("ai.min_confidence must be within [0,1], got %v", c.AI.MinConfidence)
	}
	if c.AI.SemanticValidation && c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required for semantic validation (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	return nil
}

// ValidateBatch additionally checks what the scheduled screener needs.
func (c *Config) ValidateBatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Screener.Creators) == 0 {
		return fmt.Errorf("at least one creator handle is required (screener.creators)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY, or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	if c.Email.Enabled() {
		if c.Email.Username == "" {
			return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
		}
		if c.Email.Password == "" {
			return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
		}
		if c.Email.ToEmail == "" {
			return fmt.Errorf("email.to_email is required when email is enabled")
		}
	}
	return nil
}
