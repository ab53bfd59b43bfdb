package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for pdharvest
type Config struct {
	// PeopleDoc service endpoints and protocol constants
	PeopleDoc PeopleDocConfig `yaml:"peopledoc" json:"peopledoc"`

	// CAPTCHA solver settings
	Captcha CaptchaConfig `yaml:"captcha" json:"captcha"`

	// Two-factor code retrieval
	TwoFactor TwoFactorConfig `yaml:"twofactor" json:"twofactor"`

	// Session persistence
	Session SessionConfig `yaml:"session" json:"session"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PeopleDocConfig holds service-specific configuration
type PeopleDocConfig struct {
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	SiteKey    string        `yaml:"site_key" json:"site_key"`
	APIVersion string        `yaml:"api_version" json:"api_version"`
	PageSize   int           `yaml:"page_size" json:"page_size"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent"`
}

// CaptchaConfig selects and configures the CAPTCHA solver
type CaptchaConfig struct {
	// Provider is "anticaptcha" or "manual"
	Provider     string        `yaml:"provider" json:"provider"`
	APIKey       string        `yaml:"api_key" json:"api_key"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// TwoFactorConfig holds two-factor code retrieval configuration
type TwoFactorConfig struct {
	// Mode is "interactive" or "production"
	Mode string `yaml:"mode" json:"mode"`
	// CodeFile is watched for the code in production mode
	CodeFile string `yaml:"code_file" json:"code_file"`
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	// Store is "file" or "keyring"
	Store string `yaml:"store" json:"store"`
	Path  string `yaml:"path" json:"path"`
}

// RateLimitConfig paces outgoing requests
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	IndexPath     string `yaml:"index_path" json:"index_path"`
	WriteManifest bool   `yaml:"write_manifest" json:"write_manifest"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		PeopleDoc: PeopleDocConfig{
			BaseURL:    "https://www.mypeopledoc.com",
			SiteKey:    "6LeIGcYbAAAAAEbeaSXsiS5Yk4qTfY7GjdF7wDxA",
			APIVersion: "8103",
			PageSize:   1000,
			Timeout:    60 * time.Second,
			UserAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Captcha: CaptchaConfig{
			Provider:     "anticaptcha",
			Endpoint:     "https://api.anti-captcha.com",
			PollInterval: 5 * time.Second,
		},
		TwoFactor: TwoFactorConfig{
			Mode: "production",
		},
		Session: SessionConfig{
			Store: "file",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             1,
		},
		Output: OutputConfig{
			BaseDirectory: "./downloads",
			WriteManifest: true,
		},
		Download: DownloadConfig{
			Timeout:     2 * time.Minute,
			MaxAttempts: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("PDHARVEST_BASE_URL"); v != "" {
		c.PeopleDoc.BaseURL = v
	}
	if v := os.Getenv("PDHARVEST_USER_AGENT"); v != "" {
		c.PeopleDoc.UserAgent = v
	}
	if v := os.Getenv("PDHARVEST_CAPTCHA_PROVIDER"); v != "" {
		c.Captcha.Provider = v
	}
	if v := os.Getenv("PDHARVEST_CAPTCHA_API_KEY"); v != "" {
		c.Captcha.APIKey = v
	}
	if v := os.Getenv("PDHARVEST_MODE"); v != "" {
		c.TwoFactor.Mode = v
	}
	if v := os.Getenv("PDHARVEST_CODE_FILE"); v != "" {
		c.TwoFactor.CodeFile = v
	}
	if v := os.Getenv("PDHARVEST_SESSION_STORE"); v != "" {
		c.Session.Store = v
	}
	if v := os.Getenv("PDHARVEST_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("PDHARVEST_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PDHARVEST_REQUESTS_PER_SECOND %q: %w", v, err)
		}
		c.RateLimit.RequestsPerSecond = rps
	}
	if v := os.Getenv("PDHARVEST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile returns the first config file found in the standard
// locations, or "" when there is none
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".pdharvest.yaml",
		".pdharvest.yml",
		filepath.Join(home, ".config", "pdharvest", "config.yaml"),
		filepath.Join(home, ".pdharvest.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.PeopleDoc.BaseURL == "" {
		errs = append(errs, errors.New("peopledoc base URL is required"))
	}
	if c.PeopleDoc.SiteKey == "" {
		errs = append(errs, errors.New("captcha site key is required"))
	}
	if c.PeopleDoc.PageSize <= 0 || c.PeopleDoc.PageSize > 1000 {
		errs = append(errs, errors.New("page size must be between 1 and 1000"))
	}
	if c.PeopleDoc.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	switch strings.ToLower(c.Captcha.Provider) {
	case "anticaptcha":
		if c.Captcha.Endpoint == "" {
			errs = append(errs, errors.New("captcha endpoint is required for anticaptcha"))
		}
	case "manual":
	default:
		errs = append(errs, fmt.Errorf("invalid captcha provider %q", c.Captcha.Provider))
	}

	switch strings.ToLower(c.TwoFactor.Mode) {
	case "interactive", "production", "standalone", "development":
	default:
		errs = append(errs, fmt.Errorf("invalid two-factor mode %q", c.TwoFactor.Mode))
	}

	switch strings.ToLower(c.Session.Store) {
	case "file", "keyring":
	default:
		errs = append(errs, fmt.Errorf("invalid session store %q", c.Session.Store))
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.MaxAttempts < 1 {
		errs = append(errs, errors.New("download max attempts must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["mode"].(string); ok && v != "" {
		c.TwoFactor.Mode = v
	}
	if v, ok := flags["captcha-provider"].(string); ok && v != "" {
		c.Captcha.Provider = v
	}
	if v, ok := flags["session-store"].(string); ok && v != "" {
		c.Session.Store = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Download.MaxAttempts = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pdharvest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
