package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/angas/strompris-go/logging"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
	// If not assigned, the server will serve embedded files.
	// If assigned, the server will serve files from the directory,
	// that must contain a "static" and "templates" directory.
	// This is useful for development.
	WwwDir *string `mapstructure:"www_dir"`
	// Directory with built documentation, served under /help when it exists.
	DocsDir *string `mapstructure:"docs_dir"`
}

func (a AppConfigApi) GetPort() int16 {
	if a.Port == 0 {
		return 5000
	}
	return a.Port
}

func (a AppConfigApi) GetDocsDir() string {
	if a.DocsDir == nil {
		return "docs/_build/html"
	}
	return *a.DocsDir
}

type AppConfigUpstream struct {
	// Base URL of the price API, default: https://www.hvakosterstrommen.no
	BaseURL string `mapstructure:"base_url"`
	// Timeout for a single upstream request in seconds, default: 30
	TimeoutSeconds *int `mapstructure:"timeout_seconds"`
	// Max number of concurrent upstream requests per aggregation, default: 4
	Concurrency *int `mapstructure:"concurrency"`
	// Upstream request rate limit, 0 disables limiting, default: 10
	RequestsPerSecond *float64 `mapstructure:"requests_per_second"`
}

func (u AppConfigUpstream) GetTimeout() time.Duration {
	if u.TimeoutSeconds == nil {
		return 30 * time.Second
	}
	return time.Duration(*u.TimeoutSeconds) * time.Second
}

func (u AppConfigUpstream) GetConcurrency() int {
	if u.Concurrency == nil {
		return 4
	}
	return *u.Concurrency
}

func (u AppConfigUpstream) GetRequestsPerSecond() float64 {
	if u.RequestsPerSecond == nil {
		return 10
	}
	return *u.RequestsPerSecond
}

type AppConfigCache struct {
	// SQLite file for cached upstream responses and the log table.
	// When empty, responses are cached in memory and logs go to console only.
	Path string
	// Minutes before a cached response is refetched, 0 keeps entries forever, default: 60
	TTLMinutes *int `mapstructure:"ttl_minutes"`
	// Cron spec for purging expired entries, default: "30 2 * * *"
	PurgeAt *string `mapstructure:"purge_at"`
}

func (c AppConfigCache) GetTTL() time.Duration {
	if c.TTLMinutes == nil {
		return time.Hour
	}
	return time.Duration(*c.TTLMinutes) * time.Minute
}

func (c AppConfigCache) GetPurgeAt() string {
	if c.PurgeAt == nil {
		return "30 2 * * *"
	}
	return *c.PurgeAt
}

type AppConfigWarmup struct {
	// Cron spec for prefetching today's and tomorrow's prices, empty disables it.
	// Tomorrow's prices are usually published around 13:00 CET.
	RunAt string `mapstructure:"run_at"`
}

type AppConfigGui struct {
	// Reference timezone for "today" and all displayed times, default: Europe/Oslo
	Timezone *string `mapstructure:"timezone"`
}

func (g AppConfigGui) GetTimezone() string {
	if g.Timezone == nil {
		return "Europe/Oslo"
	}
	return *g.Timezone
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api      AppConfigApi      `mapstructure:"api"`
	Upstream AppConfigUpstream `mapstructure:"upstream"`
	Cache    AppConfigCache    `mapstructure:"cache"`
	Warmup   AppConfigWarmup   `mapstructure:"warmup"`
	Gui      AppConfigGui      `mapstructure:"gui"`
	Logging  AppConfigLogging  `mapstructure:"logging"`
}

// Load reads the config file at path, or config/config.yaml when path is
// empty. A missing default config file is not an error, every setting has a
// default. Environment variables override file values, e.g. API_PORT.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvs(v)

	var c AppConfig

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}

// AutomaticEnv only applies to keys viper already knows about, so every key
// is registered up front.
func bindEnvs(v *viper.Viper) {
	for _, key := range []string{
		"api.address", "api.port", "api.www_dir", "api.docs_dir",
		"upstream.base_url", "upstream.timeout_seconds", "upstream.concurrency", "upstream.requests_per_second",
		"cache.path", "cache.ttl_minutes", "cache.purge_at",
		"warmup.run_at",
		"gui.timezone",
		"logging.db_level", "logging.db_attrs_format", "logging.db_max_entries", "logging.console_level",
	} {
		v.BindEnv(key)
	}
}
