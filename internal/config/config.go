// Package config loads the harvester configuration from an optional
// TOML file with environment-variable overrides for secrets and the
// resume cursor.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/msc-search/harvester/internal/core/domain"
)

// Environment variables recognised at load time. GIT_SECRET and APIKey
// are the legacy names the original deployment used.
const (
	EnvGitHubToken       = "GITHUB_TOKEN"
	EnvGitHubTokenLegacy = "GIT_SECRET"
	EnvIndexHost         = "MEILI_HOST"
	EnvIndexAPIKey       = "MEILI_API_KEY"
	EnvIndexAPIKeyLegacy = "APIKey"
	EnvResumeCursor      = "PREV_CURSOR"
)

// Duration is a time.Duration that unmarshals from a TOML string like
// "150ms" or "5s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the standard-library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// GitHubConfig configures the source side of the pipeline.
type GitHubConfig struct {
	// Token comes from the environment, never the config file.
	Token string `toml:"-"`

	Owner            string   `toml:"owner"`
	Repo             string   `toml:"repo"`
	PageSize         int      `toml:"page_size"`
	MaxRetries       int      `toml:"max_retries"`
	CommentPageDelay Duration `toml:"comment_page_delay"`
	ProactiveRate    float64  `toml:"proactive_rate"`
	MinRemaining     int      `toml:"min_remaining"`
}

// SettingsConfig is the administrative attribute configuration pushed
// by the configure command.
type SettingsConfig struct {
	Displayed  []string            `toml:"displayed"`
	Searchable []string            `toml:"searchable"`
	Filterable []string            `toml:"filterable"`
	Sortable   []string            `toml:"sortable"`
	Synonyms   map[string][]string `toml:"synonyms"`
}

// IndexConfig configures the search index side of the pipeline.
type IndexConfig struct {
	// APIKey comes from the environment, never the config file.
	APIKey string `toml:"-"`

	Host     string         `toml:"host"`
	Name     string         `toml:"name"`
	Settings SettingsConfig `toml:"settings"`
}

// WriterConfig configures the batch index writer.
type WriterConfig struct {
	Mode         string   `toml:"mode"`
	ChunkSize    int      `toml:"chunk_size"`
	ChunkDelay   Duration `toml:"chunk_delay"`
	PollInterval Duration `toml:"poll_interval"`
	PollAttempts int      `toml:"poll_attempts"`
}

// HarvestConfig configures run behaviour.
type HarvestConfig struct {
	// Cursor resumes the listing; overridden by PREV_CURSOR.
	Cursor string `toml:"cursor"`

	FanOut  int    `toml:"fan_out"`
	DataDir string `toml:"data_dir"`
}

// Config is the full harvester configuration.
type Config struct {
	GitHub  GitHubConfig  `toml:"github"`
	Index   IndexConfig   `toml:"index"`
	Writer  WriterConfig  `toml:"writer"`
	Harvest HarvestConfig `toml:"harvest"`
}

// Default returns the configuration the original deployment ran with.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			Owner:            "matrix-org",
			Repo:             "matrix-spec-proposals",
			PageSize:         100,
			MaxRetries:       5,
			CommentPageDelay: Duration(150 * time.Millisecond),
			ProactiveRate:    1.2,
			MinRemaining:     100,
		},
		Index: IndexConfig{
			Host: "http://127.0.0.1:7700",
			Name: "MSC_development",
			Settings: SettingsConfig{
				Displayed: []string{
					"author", "body", "closed", "closedAt", "createdAt",
					"merged", "mergedAt", "number", "permalink", "title",
					"state", "updatedAt",
				},
				Searchable: []string{"title", "author", "body", "number", "state"},
				Filterable: []string{
					"author", "state", "merged", "closed", "closedAt",
					"createdAt", "mergedAt", "updatedAt", "labels",
				},
				Sortable: []string{"closedAt", "createdAt", "mergedAt", "updatedAt"},
				Synonyms: map[string][]string{
					"ara4n":     {"Matthew"},
					"turt2live": {"Travis", "TravisR"},
				},
			},
		},
		Writer: WriterConfig{
			Mode:         "batched",
			ChunkSize:    1000,
			ChunkDelay:   Duration(5 * time.Second),
			PollInterval: Duration(2 * time.Second),
			PollAttempts: 30,
		},
		Harvest: HarvestConfig{
			FanOut: 8,
		},
	}
}

// Load reads the configuration: defaults, then the optional TOML file,
// then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := firstEnv(EnvGitHubToken, EnvGitHubTokenLegacy); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv(EnvIndexHost); v != "" {
		c.Index.Host = v
	}
	if v := firstEnv(EnvIndexAPIKey, EnvIndexAPIKeyLegacy); v != "" {
		c.Index.APIKey = v
	}
	if v := os.Getenv(EnvResumeCursor); v != "" {
		c.Harvest.Cursor = v
	}
}

// Validate checks the configuration is usable for a harvest.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("%w: missing GitHub token (set %s)", domain.ErrInvalidConfig, EnvGitHubToken)
	}
	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		return fmt.Errorf("%w: missing repository owner/name", domain.ErrInvalidConfig)
	}
	if c.Index.Name == "" {
		return fmt.Errorf("%w: missing index name", domain.ErrInvalidConfig)
	}
	if c.Writer.Mode != "batched" && c.Writer.Mode != "single" {
		return fmt.Errorf("%w: writer mode must be batched or single, got %q", domain.ErrInvalidConfig, c.Writer.Mode)
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
