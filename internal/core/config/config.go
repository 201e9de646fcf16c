// Package config provides configuration management for the audit services.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds configuration for the HTTP audit API service.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	DataDir        string
	DatabaseURL    string
	CrawlerBaseURL string
	CrawlerTimeout time.Duration
}

// DefaultServerConfig returns configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		RequestTimeout: 30 * time.Second,
		DataDir:        "./data",
		DatabaseURL:    "sqlite://gradaudit.db",
		CrawlerBaseURL: "https://class-qry.acad.ncku.edu.tw/crm/course_map/",
		CrawlerTimeout: 20 * time.Second,
	}
}

// validateConfig checks port range and positive timeouts.
func validateConfig(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.CrawlerTimeout <= 0 {
		return fmt.Errorf("crawler_timeout must be positive, got %v", cfg.CrawlerTimeout)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url must not be empty")
	}
	return nil
}
