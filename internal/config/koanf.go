// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/affinity/config.yaml",
	"/etc/affinity/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. These are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8889,
			Timeout: 30 * time.Second,
		},
		Graph: GraphConfig{
			URI:          "bolt://127.0.0.1:7687",
			Username:     "",
			Password:     "",
			QueryTimeout: 10 * time.Second,
			MaxPoolSize:  100,
		},
		Security: SecurityConfig{
			RSAPublicKey:    "",
			AuthDisabled:    false,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Feed: FeedConfig{
			TopK: 15,
		},
		Analytics: AnalyticsConfig{
			Enabled:    true,
			JobTimeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
// defaults, then an optional YAML file, then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables have the highest priority.
	// GRAPH_URL -> graph.uri, RSA_PUBLIC_KEY -> security.rsa_public_key
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unrecognized variables are ignored so unrelated process environment
// cannot clobber configuration keys.
func envTransformFunc(key string) string {
	mappings := map[string]string{
		"HOST":                  "server.host",
		"PORT":                  "server.port",
		"RECOMMENDATION_PORT":   "server.port",
		"SERVER_TIMEOUT":        "server.timeout",
		"GRAPH_URL":             "graph.uri",
		"GRAPH_USERNAME":        "graph.username",
		"GRAPH_PASSWORD":        "graph.password",
		"GRAPH_QUERY_TIMEOUT":   "graph.query_timeout",
		"GRAPH_MAX_POOL_SIZE":   "graph.max_pool_size",
		"RSA_PUBLIC_KEY":        "security.rsa_public_key",
		"AUTH_DISABLED":         "security.auth_disabled",
		"RATE_LIMIT_REQS":       "security.rate_limit_reqs",
		"RATE_LIMIT_WINDOW":     "security.rate_limit_window",
		"FEED_TOP_K":            "feed.top_k",
		"ANALYTICS_ENABLED":     "analytics.enabled",
		"ANALYTICS_JOB_TIMEOUT": "analytics.job_timeout",
		"LOG_LEVEL":             "logging.level",
		"LOG_FORMAT":            "logging.format",
		"LOG_CALLER":            "logging.caller",
	}

	if path, ok := mappings[strings.ToUpper(key)]; ok {
		return path
	}
	return ""
}
