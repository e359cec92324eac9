// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package config provides centralized configuration for all Embarq
// components: the HTTP server, the vision extraction capability, the
// flight-schedule provider, caching, uploads, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Vision     VisionConfig     `koanf:"vision"`
	FlightData FlightDataConfig `koanf:"flightdata"`
	Cache      CacheConfig      `koanf:"cache"`
	Upload     UploadConfig     `koanf:"upload"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development" or "production"
}

// VisionConfig holds the vision extraction capability settings.
//
// Environment Variables:
//   - VISION_API_KEY (legacy alias: ANTHROPIC_API_KEY)
//   - VISION_MODEL: model identifier (default: claude-3-opus-20240229)
//   - VISION_MAX_RETRIES: retry budget for transient overload (default: 3)
type VisionConfig struct {
	APIKey     string        `koanf:"api_key"`
	BaseURL    string        `koanf:"base_url"`
	Model      string        `koanf:"model"`
	MaxTokens  int           `koanf:"max_tokens"`
	MaxRetries int           `koanf:"max_retries"`
	Timeout    time.Duration `koanf:"timeout"`
}

// FlightDataConfig holds the flight-schedule provider settings.
//
// Environment Variables:
//   - FLIGHTDATA_CLIENT_ID (legacy alias: AMADEUS_CLIENT_ID)
//   - FLIGHTDATA_CLIENT_SECRET (legacy alias: AMADEUS_CLIENT_SECRET)
type FlightDataConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
}

// CacheConfig holds TTLs for the two pipeline caches. Extraction results
// live longer than reconciliation results: the AI call is the expensive
// one and image content never changes.
type CacheConfig struct {
	ExtractionTTL     time.Duration `koanf:"extraction_ttl"`
	ReconciliationTTL time.Duration `koanf:"reconciliation_ttl"`
}

// UploadConfig holds ticket-image upload limits.
type UploadConfig struct {
	MaxSize int64 `koanf:"max_size"` // bytes
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log level and output format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks that required settings are present and well-formed.
// Provider credentials are mandatory: without them the pipeline cannot
// reach either external capability.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Vision.APIKey == "" {
		return fmt.Errorf("vision API key is required (set VISION_API_KEY or ANTHROPIC_API_KEY)")
	}
	if c.Vision.MaxRetries < 1 {
		return fmt.Errorf("vision max retries must be at least 1, got %d", c.Vision.MaxRetries)
	}

	if c.FlightData.ClientID == "" || c.FlightData.ClientSecret == "" {
		return fmt.Errorf("flight data credentials are incomplete (set FLIGHTDATA_CLIENT_ID and FLIGHTDATA_CLIENT_SECRET)")
	}

	if c.Cache.ExtractionTTL <= 0 || c.Cache.ReconciliationTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload max size must be positive, got %d", c.Upload.MaxSize)
	}

	return nil
}
