// Package config loads and validates runtime configuration from a YAML
// file and LEADSWEEP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of the runtime configuration tree.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Extract ExtractConfig `mapstructure:"extract"`
	Mail    MailConfig    `mapstructure:"mail"`
	Output  OutputConfig  `mapstructure:"output"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlerConfig controls how sites are visited and when pages get
// promoted to a headless render.
type CrawlerConfig struct {
	UserAgent          string   `mapstructure:"user_agent"`
	DelaySeconds       float64  `mapstructure:"delay_seconds"`
	ContactPaths       []string `mapstructure:"contact_paths"`
	RenderEnabled      bool     `mapstructure:"render_enabled"`
	Headless           bool     `mapstructure:"headless"`
	NavTimeoutSeconds  int      `mapstructure:"nav_timeout_seconds"`
	SettleWaitMs       int      `mapstructure:"settle_wait_ms"`
	PromotionThreshold int      `mapstructure:"promotion_threshold"`
}

type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type ExtractConfig struct {
	PriorityLocals  []string `mapstructure:"priority_locals"`
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
}

// MailConfig configures the Gmail sender. Credentials and token paths
// are resolved relative to the working directory.
type MailConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	Subject         string `mapstructure:"subject"`
	BodyFile        string `mapstructure:"body_file"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file (optional) and the
// environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEADSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("leadsweep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)

	v.SetDefault("crawler.user_agent", "leadsweep/1.0")
	v.SetDefault("crawler.delay_seconds", 1.0)
	v.SetDefault("crawler.render_enabled", true)
	v.SetDefault("crawler.headless", true)
	v.SetDefault("crawler.nav_timeout_seconds", 30)
	v.SetDefault("crawler.settle_wait_ms", 2000)
	v.SetDefault("crawler.promotion_threshold", 2048)

	v.SetDefault("http.timeout_seconds", 15)

	v.SetDefault("mail.enabled", true)
	v.SetDefault("mail.credentials_file", "credentials.json")
	v.SetDefault("mail.token_file", "token.json")
	v.SetDefault("mail.max_retries", 3)

	v.SetDefault("output.dir", "results")
	v.SetDefault("output.format", "all")
}

// Validate checks the structural invariants that Unmarshal cannot.
func (c *Config) Validate() error {
	if c.Crawler.DelaySeconds < 0 {
		return fmt.Errorf("crawler.delay_seconds must not be negative, got %v", c.Crawler.DelaySeconds)
	}
	if c.Crawler.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.nav_timeout_seconds must be positive, got %d", c.Crawler.NavTimeoutSeconds)
	}
	if c.Crawler.SettleWaitMs < 0 {
		return fmt.Errorf("crawler.settle_wait_ms must not be negative, got %d", c.Crawler.SettleWaitMs)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.Mail.MaxRetries < 1 {
		return fmt.Errorf("mail.max_retries must be at least 1, got %d", c.Mail.MaxRetries)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	return nil
}

// Delay returns the pause between consecutive companies.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Crawler.DelaySeconds * float64(time.Second))
}

// NavTimeout returns the page navigation budget for headless fetches.
func (c *Config) NavTimeout() time.Duration {
	return time.Duration(c.Crawler.NavTimeoutSeconds) * time.Second
}

// SettleWait returns how long a rendered page is allowed to settle
// before its DOM is captured.
func (c *Config) SettleWait() time.Duration {
	return time.Duration(c.Crawler.SettleWaitMs) * time.Millisecond
}

// HTTPTimeout returns the per-request budget for static fetches.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
