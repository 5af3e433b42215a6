package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Version: "1",
		Content: ContentConfig{
			Dir:     "./content",
			RepoURL: "https://git.example.com/marketing/site-content.git",
			Branch:  "main",
		},
		Locales: LocaleConfig{
			Primary:   DefaultPrimaryLocale,
			Secondary: DefaultSecondaryLocales,
		},
		News: NewsConfig{
			Dir:           "news",
			DefaultAuthor: DefaultArticleAuthor,
			SummaryLength: DefaultSummaryLength,
		},
		Output: OutputConfig{
			Dir: "./public/data",
		},
		Watch: &WatchConfig{
			DebounceSeconds: 2,
		},
		Notify: &NotifyConfig{
			Enabled: false,
			NATSURL: "nats://localhost:4222",
		},
		Monitoring: &MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: false, Path: "/metrics"},
			Logging: MonitoringLogging{Level: "info", Format: "text"},
		},
		BuildLog: BuildLogConfig{
			Path: "./contentsync.db",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
