// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"gamesniff/internal/feed"
	"gamesniff/internal/session"
)

// EnvPrefix prefixes environment overrides, e.g. GAMESNIFF_FEED_CAPACITY.
const EnvPrefix = "GAMESNIFF"

// Config is the top-level configuration.
type Config struct {
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Web     WebConfig     `mapstructure:"web" yaml:"web"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Kafka   KafkaConfig   `mapstructure:"kafka" yaml:"kafka"`
}

// FeedConfig sizes the record store.
type FeedConfig struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// CaptureConfig controls the simulated capture timers.
type CaptureConfig struct {
	TickPeriod   time.Duration `mapstructure:"tick_period" yaml:"tick_period"`
	ResetOnStart bool          `mapstructure:"reset_on_start" yaml:"reset_on_start"`
	ImportDelay  time.Duration `mapstructure:"import_delay" yaml:"import_delay"`
	ImportBatch  int           `mapstructure:"import_batch" yaml:"import_batch"`
}

// WebConfig configures the browser host.
type WebConfig struct {
	Listen          string        `mapstructure:"listen" yaml:"listen"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
}

// ExportConfig sets where exported files land.
type ExportConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `mapstructure:"level" yaml:"level"`   // debug / info / warn / error
	Format string        `mapstructure:"format" yaml:"format"` // text / json
	File   LogFileConfig `mapstructure:"file" yaml:"file"`
}

// LogFileConfig configures rotated file output. An empty Path disables it.
type LogFileConfig struct {
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// KafkaConfig configures the optional record mirror.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic" yaml:"topic"`
}

// Session converts the capture settings into a session.Config.
func (c *Config) Session() session.Config {
	return session.Config{
		Capacity:     c.Feed.Capacity,
		TickPeriod:   c.Capture.TickPeriod,
		ResetOnStart: c.Capture.ResetOnStart,
		ImportDelay:  c.Capture.ImportDelay,
		ImportBatch:  c.Capture.ImportBatch,
	}
}

// Load reads configuration. An empty path uses defaults and environment
// overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := session.DefaultConfig()

	v.SetDefault("feed.capacity", feed.DefaultCapacity)

	v.SetDefault("capture.tick_period", def.TickPeriod)
	v.SetDefault("capture.reset_on_start", def.ResetOnStart)
	v.SetDefault("capture.import_delay", def.ImportDelay)
	v.SetDefault("capture.import_batch", def.ImportBatch)

	v.SetDefault("web.listen", "127.0.0.1:8080")
	v.SetDefault("web.refresh_interval", 250*time.Millisecond)

	v.SetDefault("export.dir", ".")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", 10)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age_days", 7)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "gamesniff.packets")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Feed.Capacity < 1 {
		return fmt.Errorf("feed.capacity must be at least 1, got %d", c.Feed.Capacity)
	}
	if c.Capture.TickPeriod <= 0 {
		return fmt.Errorf("capture.tick_period must be positive, got %s", c.Capture.TickPeriod)
	}
	if c.Capture.ImportDelay < 0 {
		return fmt.Errorf("capture.import_delay must not be negative, got %s", c.Capture.ImportDelay)
	}
	if c.Capture.ImportBatch < 1 {
		return fmt.Errorf("capture.import_batch must be at least 1, got %d", c.Capture.ImportBatch)
	}
	if c.Web.RefreshInterval <= 0 {
		return fmt.Errorf("web.refresh_interval must be positive, got %s", c.Web.RefreshInterval)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s (must be json or text)", c.Log.Format)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}
