package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultServerConfig
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.database_url", "sqlite://gradaudit.db")
	v.SetDefault("crawler.base_url", "https://class-qry.acad.ncku.edu.tw/crm/course_map/")
	v.SetDefault("crawler.timeout", "20s")

	// Bind environment variables with GA_ prefix
	v.SetEnvPrefix("GA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &ServerConfig{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		RequestTimeout: v.GetDuration("server.request_timeout"),
		DataDir:        v.GetString("server.data_dir"),
		DatabaseURL:    v.GetString("server.database_url"),
		CrawlerBaseURL: v.GetString("crawler.base_url"),
		CrawlerTimeout: v.GetDuration("crawler.timeout"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
