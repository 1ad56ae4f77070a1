package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// Config is read from NOTO_* environment variables.
type Config struct {
	Mode Mode `envconfig:"MODE" default:"local"`

	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	GCPProjectID string `envconfig:"GCP_PROJECT"`
	GCPLocation  string `envconfig:"GCP_LOCATION" default:"us-central1"`
	ModelName    string `envconfig:"MODEL_NAME" default:"gemini-2.5-flash"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// "gemini", "mock" or "auto" (mock in local mode)
	LLMBackend string `envconfig:"LLM" default:"auto"`
	// "generative", "rules" or "auto" (rules when the LLM is mocked)
	Resolver string `envconfig:"RESOLVER" default:"auto"`

	StorageBackend   string `envconfig:"STORAGE_BACKEND" default:"memory"` // memory, sqlite or firestore
	SQLitePath       string `envconfig:"SQLITE_PATH" default:"noto.db"`
	CollectionSuffix string `envconfig:"COLLECTION_SUFFIX"`

	HistoryLimit int           `envconfig:"HISTORY_LIMIT" default:"10"`
	BatchWindow  time.Duration `envconfig:"BATCH_WINDOW" default:"2s"`
	Timezone     string        `envconfig:"TIMEZONE" default:"UTC"`

	ProactiveEnabled     bool    `envconfig:"PROACTIVE_ENABLED" default:"true"`
	WakeStartHour        int     `envconfig:"WAKE_START_HOUR" default:"8"`
	WakeEndHour          int     `envconfig:"WAKE_END_HOUR" default:"22"`
	ProactiveBaseHours   float64 `envconfig:"PROACTIVE_BASE_HOURS" default:"6"`
	ProactiveJitterHours float64 `envconfig:"PROACTIVE_JITTER_HOURS" default:"6"`

	CronSecret string `envconfig:"CRON_SECRET"`
	PolicyFile string `envconfig:"POLICY_FILE"`

	Policy   Policy         `ignored:"true"`
	Location *time.Location `ignored:"true"`
}

// Policy holds the tunables that live in the optional YAML policy file.
type Policy struct {
	Categories []string `yaml:"categories"`
	Persona    string   `yaml:"persona"`
	Openers    []string `yaml:"openers"`
}

// Load reads all env vars and builds the config
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("NOTO", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if cfg.PolicyFile != "" {
		p, err := LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		cfg.Policy = *p
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadPolicy parses a YAML policy file.
func LoadPolicy(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing policy file %s: %w", path, err)
	}
	return &p, nil
}

// ResolveDefaults derives "auto" settings and validates the rest.
func (c *Config) ResolveDefaults() error {
	switch c.Mode {
	case ModeLocal, ModeGCP:
	default:
		return fmt.Errorf("unsupported NOTO_MODE: %s", c.Mode)
	}

	switch c.LLMBackend {
	case "", "auto":
		c.LLMBackend = "gemini"
		if c.Mode == ModeLocal {
			c.LLMBackend = "mock"
		}
	case "gemini", "mock":
	default:
		return fmt.Errorf("unsupported NOTO_LLM: %s", c.LLMBackend)
	}

	switch c.Resolver {
	case "", "auto":
		c.Resolver = "generative"
		if c.LLMBackend == "mock" {
			c.Resolver = "rules"
		}
	case "generative", "rules":
	default:
		return fmt.Errorf("unsupported NOTO_RESOLVER: %s", c.Resolver)
	}

	switch c.StorageBackend {
	case "memory", "sqlite", "firestore":
	default:
		return fmt.Errorf("unsupported NOTO_STORAGE_BACKEND: %s", c.StorageBackend)
	}

	needsProject := c.StorageBackend == "firestore" ||
		(c.LLMBackend == "gemini" && c.GeminiAPIKey == "")
	if needsProject && c.GCPProjectID == "" {
		return fmt.Errorf("NOTO_GCP_PROJECT must be set for firestore storage or Vertex AI")
	}

	if c.WakeStartHour < 0 || c.WakeEndHour > 24 || c.WakeStartHour >= c.WakeEndHour {
		return fmt.Errorf("invalid wake window %d-%d", c.WakeStartHour, c.WakeEndHour)
	}
	if c.ProactiveBaseHours <= 0 || c.ProactiveJitterHours < 0 {
		return fmt.Errorf("invalid proactive interval base=%v jitter=%v", c.ProactiveBaseHours, c.ProactiveJitterHours)
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 10
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("loading NOTO_TIMEZONE: %w", err)
	}
	c.Location = loc

	if len(c.Policy.Categories) == 0 {
		c.Policy.Categories = domain.DefaultCategories
	}
	return nil
}

// NewForTesting returns a resolved local config with the mock LLM and memory storage.
func NewForTesting() *Config {
	cfg := &Config{
		Mode:                 ModeLocal,
		Port:                 "8080",
		LogLevel:             "debug",
		LLMBackend:           "mock",
		Resolver:             "rules",
		StorageBackend:       "memory",
		HistoryLimit:         10,
		Timezone:             "UTC",
		ProactiveEnabled:     true,
		WakeStartHour:        8,
		WakeEndHour:          22,
		ProactiveBaseHours:   6,
		ProactiveJitterHours: 6,
	}
	if err := cfg.ResolveDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// ProactiveBase is the minimum interval between proactive openers.
func (c *Config) ProactiveBase() time.Duration {
	return time.Duration(c.ProactiveBaseHours * float64(time.Hour))
}

// ProactiveJitter is the maximum random extension of ProactiveBase.
func (c *Config) ProactiveJitter() time.Duration {
	return time.Duration(c.ProactiveJitterHours * float64(time.Hour))
}
