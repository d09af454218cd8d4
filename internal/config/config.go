package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Submission SubmissionConfig `yaml:"submission"`
	Forge      ForgeConfig      `yaml:"forge"`
	Generation GenerationConfig `yaml:"generation"`
	Notify     NotifyConfig     `yaml:"notify"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	State      StateConfig      `yaml:"state"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the listen addresses for the API and admin endpoints.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	AdminAddr string `yaml:"admin_addr"`
}

// SubmissionConfig holds the shared secret inbound requests must present.
type SubmissionConfig struct {
	Secret string `yaml:"secret"`
}

// ForgeConfig holds hosting-platform access and identity settings.
type ForgeConfig struct {
	Token          string `yaml:"token"`
	APIURL         string `yaml:"api_url"`
	BaseURL        string `yaml:"base_url"`
	PagesHost      string `yaml:"pages_host"`
	CommitterName  string `yaml:"committer_name"`
	CommitterEmail string `yaml:"committer_email"`
}

// GenerationConfig holds text-generation service settings.
type GenerationConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// NotifyConfig bounds the evaluator webhook delivery.
type NotifyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// WorkspaceConfig controls scratch directory placement and cleanup.
type WorkspaceConfig struct {
	Root            string        `yaml:"root"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	MaxAge          time.Duration `yaml:"max_age"`
}

// StateConfig locates the publication journal database.
type StateConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads configuration from the specified file. A missing file is not an
// error: the service can run entirely from defaults plus environment
// variables, matching the deployment shape this automation tool targets.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if data, err := os.ReadFile(configPath); err == nil {
		// Expand ${VAR} references so secrets stay out of the file itself.
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills secrets from the environment when the file left them empty.
func (c *Config) applyEnv() {
	if c.Submission.Secret == "" {
		c.Submission.Secret = os.Getenv("SUBMISSION_SECRET")
	}
	if c.Forge.Token == "" {
		c.Forge.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.AdminAddr == "" {
		c.Server.AdminAddr = ":9090"
	}
	if c.Forge.APIURL == "" {
		c.Forge.APIURL = "https://api.github.com"
	}
	if c.Forge.BaseURL == "" {
		c.Forge.BaseURL = "https://github.com"
	}
	if c.Forge.PagesHost == "" {
		c.Forge.PagesHost = "github.io"
	}
	if c.Forge.CommitterName == "" {
		c.Forge.CommitterName = "AppForge Bot"
	}
	if c.Forge.CommitterEmail == "" {
		c.Forge.CommitterEmail = "bot@appforge.invalid"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gemini-2.0-flash"
	}
	if c.Notify.Timeout <= 0 {
		c.Notify.Timeout = 15 * time.Second
	}
	if c.Workspace.Root == "" {
		c.Workspace.Root = filepath.Join(os.TempDir(), "appforge")
	}
	if c.Workspace.JanitorInterval <= 0 {
		c.Workspace.JanitorInterval = 10 * time.Minute
	}
	if c.Workspace.MaxAge <= 0 {
		c.Workspace.MaxAge = time.Hour
	}
	if c.State.Path == "" {
		c.State.Path = "appforge.db"
	}
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures. Credentials are deliberately not required here: a missing
// forge token is reported per request (500) per the API contract, and the
// submission secret check happens at serve startup.
func (c *Config) Validate() error {
	if c.Server.Addr == c.Server.AdminAddr {
		return fmt.Errorf("server.addr and server.admin_addr must differ (both %q)", c.Server.Addr)
	}
	if c.Notify.Timeout > 5*time.Minute {
		return fmt.Errorf("notify.timeout %s exceeds the 5m ceiling", c.Notify.Timeout)
	}
	return nil
}
