// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

// Package config provides centralized configuration for Affinity.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml)
//  3. Environment variables
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Graph     GraphConfig     `koanf:"graph"`
	Security  SecurityConfig  `koanf:"security"`
	Feed      FeedConfig      `koanf:"feed"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// GraphConfig holds Bolt connection settings for the graph backend
// (Memgraph or Neo4j).
//
// Environment Variables:
//   - GRAPH_URL: Bolt URI (default: bolt://127.0.0.1:7687)
//   - GRAPH_USERNAME / GRAPH_PASSWORD: credentials (empty for no auth)
//   - GRAPH_QUERY_TIMEOUT: per-query deadline (default: 10s)
type GraphConfig struct {
	URI          string        `koanf:"uri"`
	Username     string        `koanf:"username"`
	Password     string        `koanf:"password"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
	MaxPoolSize  int           `koanf:"max_pool_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
//
// Identity tokens are RS256 JWTs minted by the platform's auth service;
// this service only verifies them against the shared public key.
type SecurityConfig struct {
	// RSAPublicKey is the PEM-encoded RSA public key used to verify
	// identity tokens. Required unless AuthDisabled is set.
	RSAPublicKey string `koanf:"rsa_public_key"`

	// AuthDisabled turns off token verification. Development only.
	AuthDisabled bool `koanf:"auth_disabled"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// FeedConfig holds feed pipeline settings.
type FeedConfig struct {
	// TopK bounds the number of ranked items returned per request.
	// The reference behavior uses 15; change with care.
	TopK int `koanf:"top_k"`
}

// AnalyticsConfig holds background recomputation settings.
type AnalyticsConfig struct {
	// Enabled controls whether the hourly analytics scheduler runs.
	Enabled bool `koanf:"enabled"`

	// JobTimeout bounds a single recomputation job.
	JobTimeout time.Duration `koanf:"job_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for inconsistent or missing values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Graph.URI == "" {
		return fmt.Errorf("graph.uri is required")
	}
	if c.Graph.QueryTimeout <= 0 {
		return fmt.Errorf("graph.query_timeout must be positive, got %s", c.Graph.QueryTimeout)
	}
	if !c.Security.AuthDisabled && c.Security.RSAPublicKey == "" {
		return fmt.Errorf("security.rsa_public_key is required when authentication is enabled")
	}
	if c.Feed.TopK <= 0 {
		return fmt.Errorf("feed.top_k must be positive, got %d", c.Feed.TopK)
	}
	if c.Analytics.JobTimeout <= 0 {
		return fmt.Errorf("analytics.job_timeout must be positive, got %s", c.Analytics.JobTimeout)
	}
	return nil
}
