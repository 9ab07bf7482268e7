package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Site being mirrored
	Site SiteConfig `mapstructure:"site"`

	// Crawler configuration
	Crawler CrawlerConfig `mapstructure:"crawler"`

	// Mirror output configuration
	Mirror MirrorConfig `mapstructure:"mirror"`

	// Final report configuration
	Report ReportConfig `mapstructure:"report"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// SiteConfig identifies the mirrored site
type SiteConfig struct {
	// Origins are the accepted URL prefixes, e.g. the http and https
	// variants of one host, each ending in "/".
	Origins    []string `mapstructure:"origins"`
	SitemapURL string   `mapstructure:"sitemap_url"`
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	UserAgent        string        `mapstructure:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
	AllowedSuffixes  []string      `mapstructure:"allowed_suffixes"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

// MirrorConfig holds persister configuration
type MirrorConfig struct {
	OutputDir string     `mapstructure:"output_dir"`
	PathRules []PathRule `mapstructure:"path_rules"`
}

// PathRule renames a remote path suffix before it is written locally
type PathRule struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"` // "gob", "json" or "sqlite"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "json" or "text"
	OutputPath string `mapstructure:"output_path"`
}

const (
	DefaultHost       = "www.titanus.com.br"
	DefaultSitemapURL = "https://" + DefaultHost + "/sitemap.xml"
)

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.sitemirror")
	}

	setDefaults(v)
	bindEnvVars(v)

	// Config file not found is not an error, we use defaults and env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Site defaults
	v.SetDefault("site.origins", []string{"https://" + DefaultHost + "/", "http://" + DefaultHost + "/"})
	v.SetDefault("site.sitemap_url", DefaultSitemapURL)

	// Crawler defaults
	v.SetDefault("crawler.user_agent", "sitemirror/1.0")
	v.SetDefault("crawler.timeout", "30s")
	v.SetDefault("crawler.max_retries", 2)
	v.SetDefault("crawler.retry_backoff", "200ms")
	v.SetDefault("crawler.max_body_bytes", 64<<20)
	v.SetDefault("crawler.allowed_suffixes", []string{
		".xml", "/", ".jpg", ".css", ".png", ".js", ".html", ".htm", ".php", ".woff", ".woff2", ".ttf",
	})
	v.SetDefault("crawler.progress_interval", "2s")

	// Mirror defaults
	v.SetDefault("mirror.output_dir", "./output")
	v.SetDefault("mirror.path_rules", []map[string]string{
		{
			"from": "wp-content/themes/california-wp/css/master-min.php",
			"to":   "wp-content/themes/california-wp/css/master-min.css",
		},
	})

	// Report defaults
	v.SetDefault("report.file", "report.gob")
	v.SetDefault("report.format", "gob")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output_path", "stderr")
}

// bindEnvVars binds environment variables
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("SITEMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Site.Origins) == 0 {
		return fmt.Errorf("site.origins must not be empty")
	}
	for _, origin := range c.Site.Origins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("site.origins: %q is not an http(s) prefix", origin)
		}
		if !strings.HasSuffix(origin, "/") {
			return fmt.Errorf("site.origins: %q must end with /", origin)
		}
	}
	if c.Site.SitemapURL == "" {
		return fmt.Errorf("site.sitemap_url must be set")
	}
	if !c.InOrigin(c.Site.SitemapURL) {
		return fmt.Errorf("site.sitemap_url %q is outside every origin", c.Site.SitemapURL)
	}
	if c.Crawler.Timeout <= 0 {
		return fmt.Errorf("crawler.timeout must be positive")
	}
	if c.Crawler.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must not be negative")
	}
	if c.Crawler.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawler.max_body_bytes must be positive")
	}
	if len(c.Crawler.AllowedSuffixes) == 0 {
		return fmt.Errorf("crawler.allowed_suffixes must not be empty")
	}
	if c.Mirror.OutputDir == "" {
		return fmt.Errorf("mirror.output_dir must be set")
	}
	for i, rule := range c.Mirror.PathRules {
		if rule.From == "" || rule.To == "" {
			return fmt.Errorf("mirror.path_rules[%d]: from and to are required", i)
		}
	}
	switch c.Report.Format {
	case "gob", "json", "sqlite":
	default:
		return fmt.Errorf("report.format %q is not one of gob, json, sqlite", c.Report.Format)
	}
	if c.Report.File == "" {
		return fmt.Errorf("report.file must be set")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format %q is not one of json, text", c.Logging.Format)
	}
	return nil
}

// InOrigin reports whether rawURL starts with one of the configured origins
func (c *Config) InOrigin(rawURL string) bool {
	for _, origin := range c.Site.Origins {
		if strings.HasPrefix(rawURL, origin) {
			return true
		}
	}
	return false
}
