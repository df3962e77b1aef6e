package main

import (
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"
)

// GetEnv returns the environment variable or fallback when it is unset
func GetEnv(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// GetKeyDBURL returns KeyDB URL with the following priority:
// 1. KEYDB_URL environment variable
// 2. CACHE_KEYDB_URL_FILE file content
// 3. keydb.url from the configuration
// 4. Default value
func GetKeyDBURL(configured string, logger *zap.Logger) string {
	if keydbURL := os.Getenv("KEYDB_URL"); keydbURL != "" {
		logger.Debug("Using KeyDB URL from environment variable")
		return keydbURL
	}

	connectionFile := GetEnv("CACHE_KEYDB_URL_FILE", "/app/.keydb-url")
	if content, err := os.ReadFile(connectionFile); err == nil {
		keydbURL := strings.TrimSpace(string(content))
		if len(keydbURL) > 0 {
			logger.Debug("Using KeyDB URL from connection file", zap.String("file", connectionFile))
			return keydbURL
		}
	} else {
		logger.Debug("KeyDB connection file not found or empty", zap.String("file", connectionFile))
	}

	if configured != "" {
		logger.Debug("Using KeyDB URL from configuration")
		return configured
	}

	logger.Debug("Using default KeyDB URL")
	return "redis://keydb:6379"
}

// RedactURL hides the password of a connection URL for logging
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return parsed.Redacted()
}
