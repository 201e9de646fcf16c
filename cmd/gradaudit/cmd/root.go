package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ncku-csie/gradaudit/internal/core/config"
	"github.com/ncku-csie/gradaudit/internal/core/db"
	"github.com/ncku-csie/gradaudit/internal/core/store"
)

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "gradaudit",
	Short: "Graduation requirement audit service",
	Long: `Gradaudit evaluates student transcripts against versioned graduation
rule trees: major, double-major and minor requirements per department
and admission year.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// setupLogging installs the process-wide slog default from the root flags.
func setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch logFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid --log-format %q (want json or text)", logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadServerConfig reads the config file and environment, then applies the
// --db-url flag override on top.
func loadServerConfig() (*config.ServerConfig, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	return cfg, nil
}

// openQueries connects to the configured database and prepares the named
// query set. The caller must Close the returned handle.
func openQueries(cfg *config.ServerConfig) (*db.Queries, error) {
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return queries, nil
}

// requireMigrations fails when any embedded migration has not been applied,
// pointing the user at the migrate command.
func requireMigrations(queries *db.Queries) error {
	statuses, err := db.MigrateStatus(queries.DB())
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, st := range statuses {
		if !st.Applied {
			return fmt.Errorf("migration %s not applied - run 'gradaudit migrate' first", st.ID)
		}
	}
	return nil
}

// rulesDir and departmentsPath fix the on-disk layout under the data dir.
func rulesDir(cfg *config.ServerConfig) string {
	return filepath.Join(cfg.DataDir, "rules")
}

func departmentsPath(cfg *config.ServerConfig) string {
	return filepath.Join(cfg.DataDir, "departments_info.json")
}

func loadDepartments(cfg *config.ServerConfig) (store.Departments, error) {
	departments, err := store.LoadDepartments(departmentsPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}
	return departments, nil
}
