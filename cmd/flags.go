package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quickdict/quickdict/cmd/util"
	"github.com/quickdict/quickdict/pkg/cache"
	"github.com/quickdict/quickdict/pkg/dictionary"
)

// CacheConfig tunes the shared response cache.
type CacheConfig struct {
	Enabled bool
	MaxCost int64
	TTL     time.Duration
}

// LogConfig tunes the logger shared by all components.
type LogConfig struct {
	Format string
	Level  string
}

// Config collects the settings shared by the lookup and search commands.
type Config struct {
	// SourcesPath points at the YAML sources file. Empty means the default
	// locations are probed.
	SourcesPath string

	// Timeout bounds one whole command invocation.
	Timeout time.Duration

	// MaxInFlight caps concurrent network calls across all dictionaries.
	MaxInFlight int64

	Cache CacheConfig
	Log   LogConfig
}

// DefaultConfig returns the config with the default values.
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		MaxInFlight: 16,
		Cache: CacheConfig{
			Enabled: true,
			MaxCost: cache.DefaultMaxCost,
			TTL:     cache.DefaultTTL,
		},
		Log: LogConfig{Format: "text", Level: "info"},
	}
}

// BindCommonFlags binds the cobra cmd flags to the equivalent config value
// being managed by viper. This bridges the config between cobra flags and
// viper flags.
func BindCommonFlags(command *cobra.Command) {
	defaultConfig := DefaultConfig()
	flags := command.Flags()

	flags.String("sources", defaultConfig.SourcesPath, "the path to the YAML file describing the dictionary sources")
	util.MustBindPFlag("sources", flags.Lookup("sources"))
	util.MustBindEnv("sources", "QUICKDICT_SOURCES")

	flags.Duration("timeout", defaultConfig.Timeout, "the maximum time to wait for remote lookups before cancelling them")
	util.MustBindPFlag("timeout", flags.Lookup("timeout"))
	util.MustBindEnv("timeout", "QUICKDICT_TIMEOUT")

	flags.Int64("max-inflight", defaultConfig.MaxInFlight, "the maximum number of concurrent network calls")
	util.MustBindPFlag("network.maxInFlight", flags.Lookup("max-inflight"))
	util.MustBindEnv("network.maxInFlight", "QUICKDICT_MAX_INFLIGHT")

	flags.Bool("cache-enabled", defaultConfig.Cache.Enabled, "enable/disable the in-memory response cache")
	util.MustBindPFlag("cache.enabled", flags.Lookup("cache-enabled"))
	util.MustBindEnv("cache.enabled", "QUICKDICT_CACHE_ENABLED")

	flags.Int64("cache-max-cost", defaultConfig.Cache.MaxCost, "the total byte budget of the response cache")
	util.MustBindPFlag("cache.maxCost", flags.Lookup("cache-max-cost"))
	util.MustBindEnv("cache.maxCost", "QUICKDICT_CACHE_MAX_COST")

	flags.Duration("cache-ttl", defaultConfig.Cache.TTL, "how long a cached response stays valid")
	util.MustBindPFlag("cache.ttl", flags.Lookup("cache-ttl"))
	util.MustBindEnv("cache.ttl", "QUICKDICT_CACHE_TTL")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in ('text' or 'json')")
	util.MustBindPFlag("log.format", flags.Lookup("log-format"))
	util.MustBindEnv("log.format", "QUICKDICT_LOG_FORMAT")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use (e.g. 'debug', 'info', 'warn', 'error')")
	util.MustBindPFlag("log.level", flags.Lookup("log-level"))
	util.MustBindEnv("log.level", "QUICKDICT_LOG_LEVEL")
}

// ReadConfig reads the common config values managed by viper.
func ReadConfig() Config {
	cfg := DefaultConfig()

	cfg.SourcesPath = viper.GetString("sources")
	cfg.Timeout = viper.GetDuration("timeout")
	cfg.MaxInFlight = viper.GetInt64("network.maxInFlight")
	cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	cfg.Cache.MaxCost = viper.GetInt64("cache.maxCost")
	cfg.Cache.TTL = viper.GetDuration("cache.ttl")
	cfg.Log.Format = viper.GetString("log.format")
	cfg.Log.Level = viper.GetString("log.level")

	return cfg
}

// LoadSources resolves the sources configuration: an explicit path must
// load, the default locations are probed in order, and with no file at all
// the built-in defaults apply.
func LoadSources(path string) (*dictionary.SourcesConfig, error) {
	if path != "" {
		return dictionary.LoadSources(path)
	}

	probe := []string{
		"./sources.yaml",
		os.ExpandEnv("$HOME/.quickdict/sources.yaml"),
		"/etc/quickdict/sources.yaml",
	}
	for _, p := range probe {
		if _, err := os.Stat(p); err == nil {
			return dictionary.LoadSources(p)
		}
	}
	return dictionary.DefaultSources(), nil
}
