package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".tsfold"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for tsfold settings.
const envPrefix = "TSFOLD"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or env var is set.
func Default() *Config {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	var cfg Config

	// Defaults always decode.
	_ = viperCfg.Unmarshal(&cfg)

	return &cfg
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("model.method", DefaultMethod)
	viperCfg.SetDefault("model.direction", DefaultDirection)

	viperCfg.SetDefault("cut.selector", DefaultSelector)
	viperCfg.SetDefault("cut.max_depth", DefaultMaxDepth)
	viperCfg.SetDefault("cut.exhaustive_max_leaves", DefaultExhaustiveMaxLeaves)

	viperCfg.SetDefault("intervals.mode", DefaultIntervalsMode)
	viperCfg.SetDefault("intervals.chunk_size", DefaultChunkSize)

	viperCfg.SetDefault("input.time_column", DefaultTimeColumn)
	viperCfg.SetDefault("input.value_columns", []string{})
	viperCfg.SetDefault("input.date_from", "")
	viperCfg.SetDefault("input.date_to", "")
	viperCfg.SetDefault("input.date_layout", DefaultDateLayout)

	viperCfg.SetDefault("influx.url", "")
	viperCfg.SetDefault("influx.token", "")
	viperCfg.SetDefault("influx.org", "")
	viperCfg.SetDefault("influx.bucket", "")
	viperCfg.SetDefault("influx.measurement", "")
	viperCfg.SetDefault("influx.field", DefaultInfluxField)
	viperCfg.SetDefault("influx.range", DefaultInfluxRange)
	viperCfg.SetDefault("influx.stop", "")

	viperCfg.SetDefault("output.dir", DefaultOutputDir)
	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.theme", DefaultOutputTheme)

	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.rate_limit", DefaultRateLimit)
	viperCfg.SetDefault("server.burst", DefaultBurst)
	viperCfg.SetDefault("server.read_timeout", DefaultReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultWriteTimeout)
	viperCfg.SetDefault("server.max_body_bytes", DefaultMaxBodyBytes)
	viperCfg.SetDefault("server.shutdown_grace", DefaultShutdownGrace)

	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
	viperCfg.SetDefault("observability.log_json", false)
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.debug_trace", false)
}
