// Package config defines the content pipeline configuration: source and
// output locations, the locale table, the fixed entity set with its default
// records, and the optional watch/notify/monitoring surfaces.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the unified configuration for build and watch modes.
type Config struct {
	Version    string            `yaml:"version"`
	Content    ContentConfig     `yaml:"content"`
	Locales    LocaleConfig      `yaml:"locales,omitempty"`
	News       NewsConfig        `yaml:"news,omitempty"`
	Output     OutputConfig      `yaml:"output"`
	Watch      *WatchConfig      `yaml:"watch,omitempty"`
	Notify     *NotifyConfig     `yaml:"notify,omitempty"`
	Monitoring *MonitoringConfig `yaml:"monitoring,omitempty"`
	BuildLog   BuildLogConfig    `yaml:"build_log,omitempty"`
}

// ContentConfig locates the source document tree. When RepoURL is set the
// build first clones/updates that repository into Dir.
type ContentConfig struct {
	Dir          string `yaml:"dir"`
	RepoURL      string `yaml:"repo_url,omitempty"`
	Branch       string `yaml:"branch,omitempty"`
	ShallowDepth int    `yaml:"shallow_depth,omitempty"` // 0 = full history
}

// LocaleConfig enumerates the supported locales. Default synthesis applies
// only to the primary locale; secondary-locale artifacts exist iff a source
// document exists.
type LocaleConfig struct {
	Primary   string   `yaml:"primary"`
	Secondary []string `yaml:"secondary,omitempty"`
}

// NewsConfig tunes the news indexer.
type NewsConfig struct {
	Dir               string   `yaml:"dir,omitempty"`            // relative to content dir
	DefaultAuthor     string   `yaml:"default_author,omitempty"` // substituted when metadata omits author
	DefaultCategory   string   `yaml:"default_category,omitempty"`
	SummaryLength     int      `yaml:"summary_length,omitempty"` // runes of body used for derived summaries
	PublishedStatuses []string `yaml:"published_statuses,omitempty"`
}

// OutputConfig locates the artifact tree (the content-API root).
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// WatchConfig configures daemon mode rebuild triggers.
type WatchConfig struct {
	DebounceSeconds int    `yaml:"debounce_seconds,omitempty"`
	Schedule        string `yaml:"schedule,omitempty"` // optional cron expression for forced rebuilds
}

// NotifyConfig configures rebuild event publishing over NATS.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MonitoringConfig represents metrics and logging configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration for the preview server.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  string `yaml:"level,omitempty"`  // debug|info|warn|error
	Format string `yaml:"format,omitempty"` // text|json
}

// BuildLogConfig locates the sqlite build-run history.
type BuildLogConfig struct {
	Path string `yaml:"path,omitempty"` // empty disables history
}

// Load loads a configuration file, expanding ${VAR} references after loading
// .env/.env.local into the process environment.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist.
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads environment variables from the first .env/.env.local file
// present. Existing process environment variables are never overwritten by
// godotenv.Load.
func loadEnvFile() error {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		return nil
	}
	return fmt.Errorf("no .env file found")
}

// ApplyDefaults fills zero values with the documented defaults. Exposed so
// tests can construct configs without a file on disk.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "content"
	}
	if c.Content.Branch == "" && c.Content.RepoURL != "" {
		c.Content.Branch = "main"
	}
	if c.Locales.Primary == "" {
		c.Locales.Primary = DefaultPrimaryLocale
	}
	if c.Locales.Secondary == nil {
		c.Locales.Secondary = append([]string(nil), DefaultSecondaryLocales...)
	}
	if c.News.Dir == "" {
		c.News.Dir = "news"
	}
	if c.News.DefaultAuthor == "" {
		c.News.DefaultAuthor = DefaultArticleAuthor
	}
	if c.News.DefaultCategory == "" {
		c.News.DefaultCategory = DefaultArticleCategory
	}
	if c.News.SummaryLength <= 0 {
		c.News.SummaryLength = DefaultSummaryLength
	}
	if len(c.News.PublishedStatuses) == 0 {
		c.News.PublishedStatuses = defaultPublishedStatuses()
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "public/content"
	}
	if c.Watch != nil && c.Watch.DebounceSeconds <= 0 {
		c.Watch.DebounceSeconds = 2
	}
	if c.Notify != nil && c.Notify.Subject == "" {
		c.Notify.Subject = "contentsync.rebuilt"
	}
	if c.Monitoring != nil && c.Monitoring.Metrics.Path == "" {
		c.Monitoring.Metrics.Path = "/metrics"
	}
}

// Validate rejects configurations the pipeline cannot act on.
func (c *Config) Validate() error {
	if c.Content.Dir == "" {
		return fmt.Errorf("content.dir is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Locales.Primary == "" {
		return fmt.Errorf("locales.primary is required")
	}
	for _, loc := range c.Locales.Secondary {
		if strings.TrimSpace(loc) == "" {
			return fmt.Errorf("locales.secondary contains an empty locale code")
		}
		if loc == c.Locales.Primary {
			return fmt.Errorf("locale %q listed as both primary and secondary", loc)
		}
	}
	if c.Notify != nil && c.Notify.Enabled && c.Notify.NATSURL == "" {
		return fmt.Errorf("notify.nats_url is required when notify is enabled")
	}
	return nil
}
