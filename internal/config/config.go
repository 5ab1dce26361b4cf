package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// Server settings (notes preview)
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	// Mailbox settings
	MailboxPath  string `yaml:"mailbox_path"`
	ProcessedDir string `yaml:"processed_dir"`
	FetchLimit   int    `yaml:"fetch_limit"`

	// Subject handling: strip leading Re:/Fwd: prefixes before resolving
	// the target note. Applied by the engine, never by the resolver itself.
	StripSubjectPrefixes bool `yaml:"strip_subject_prefixes"`

	// Rendering settings, immutable for the duration of a run
	InternalDomains []string `yaml:"internal_domains"`
	ProjectNames    []string `yaml:"project_names"`

	// Store settings
	StoreBackend string      `yaml:"store_backend"`
	DBPath       string      `yaml:"db_path"`
	Drive        DriveConfig `yaml:"drive"`

	// Summarizer settings
	Summarizer SummarizerConfig `yaml:"summarizer"`
}

// DriveConfig holds Google Drive store settings
type DriveConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	FolderName      string `yaml:"folder_name"`
	FolderID        string `yaml:"folder_id"`
	Impersonate     string `yaml:"impersonate"`
}

// SummarizerConfig holds settings for the OpenAI-compatible summarizer
type SummarizerConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	// APIKey is taken from the environment only, never from the config file
	APIKey string `yaml:"-"`
}

// Default returns default configuration
func Default() *Config {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Use ~/.mailnotes for data directory
	dataDir := filepath.Join(homeDir, ".mailnotes")

	return &Config{
		Host:                 "localhost",
		Port:                 "8080",
		MailboxPath:          "./mailbox",
		FetchLimit:           25,
		StripSubjectPrefixes: true,
		StoreBackend:         "sqlite",
		DBPath:               filepath.Join(dataDir, "notes.db"),
		Drive: DriveConfig{
			FolderName: "Email Summaries",
		},
		Summarizer: SummarizerConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variable overrides, in that order
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides configuration fields from environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv("MAILNOTES_MAILBOX_PATH"); v != "" {
		c.MailboxPath = v
	}
	if v := os.Getenv("MAILNOTES_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("MAILNOTES_STORE_BACKEND"); v != "" {
		c.StoreBackend = v
	}
	if v := os.Getenv("MAILNOTES_FETCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.FetchLimit = n
		}
	}
	if v := os.Getenv("STRIP_SUBJECT_PREFIXES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StripSubjectPrefixes = b
		}
	}
	if v := os.Getenv("INTERNAL_EMAIL_DOMAINS"); v != "" {
		c.InternalDomains = SplitList(v)
	}
	if v := os.Getenv("PROJECT_NAMES"); v != "" {
		c.ProjectNames = SplitList(v)
	}
	if v := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"); v != "" {
		c.Drive.CredentialsFile = v
	}
	if v := os.Getenv("DRIVE_FOLDER_NAME"); v != "" {
		c.Drive.FolderName = v
	}
	if v := os.Getenv("DRIVE_FOLDER_ID"); v != "" {
		c.Drive.FolderID = v
	}
	if v := os.Getenv("GOOGLE_DELEGATED_USER"); v != "" {
		c.Drive.Impersonate = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Summarizer.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Summarizer.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Summarizer.Model = v
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite", "drive", "memory":
	default:
		return fmt.Errorf("unknown store backend %q (expected sqlite, drive or memory)", c.StoreBackend)
	}
	if c.StoreBackend == "drive" && c.Drive.CredentialsFile == "" {
		return fmt.Errorf("drive store requires a service account credentials file")
	}
	return nil
}

// SplitList splits a comma or newline separated list into trimmed,
// non-empty items
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	var items []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			items = append(items, f)
		}
	}
	return items
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}
