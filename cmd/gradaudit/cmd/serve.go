package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ncku-csie/gradaudit/internal/core/api"
	"github.com/ncku-csie/gradaudit/internal/core/review"
	"github.com/ncku-csie/gradaudit/internal/core/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP audit API service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "HTTP server host (overrides config)")
	serveCmd.Flags().Int("port", 0, "HTTP server port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Port = port
	}

	queries, err := openQueries(cfg)
	if err != nil {
		return err
	}
	defer queries.DB().Close()

	if err := requireMigrations(queries); err != nil {
		return err
	}

	departments, err := loadDepartments(cfg)
	if err != nil {
		return err
	}

	ruleStore := store.NewRuleStore(rulesDir(cfg), slog.Default())
	studentStore := store.NewStudentStore(queries)
	resultStore := store.NewResultStore(queries)
	reviewService := review.NewService(ruleStore, departments, resultStore, slog.Default())

	handlers := api.NewHandlers(ruleStore, departments, studentStore, resultStore, reviewService)
	server, err := api.NewServer(cfg, handlers)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("starting gradaudit API",
		"version", api.ServiceVersion, "host", cfg.Host, "port", cfg.Port)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		slog.Info("shutting down", "signal", sig.String())
		return server.Shutdown(context.Background())
	}
}
