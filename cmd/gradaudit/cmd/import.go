package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ncku-csie/gradaudit/internal/core/store"
	"github.com/ncku-csie/gradaudit/internal/roster"
)

var importCmd = &cobra.Command{
	Use:   "import <roster.xlsx>",
	Short: "Import a registrar transcript export into the student store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("major", "", "override the derived major for every imported student")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}
	queries, err := openQueries(cfg)
	if err != nil {
		return err
	}
	defer queries.DB().Close()

	if err := requireMigrations(queries); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	students, err := roster.NewImporter(slog.Default()).Read(f)
	if err != nil {
		return fmt.Errorf("failed to read roster: %w", err)
	}

	major, _ := cmd.Flags().GetString("major")

	studentStore := store.NewStudentStore(queries)
	imported := 0
	for _, student := range students {
		if major != "" {
			student.Major = major
		}
		if err := studentStore.Put(student); err != nil {
			slog.Warn("skipping student", "student_id", student.ID, "error", err)
			continue
		}
		imported++
	}
	fmt.Printf("imported %d of %d students\n", imported, len(students))
	return nil
}
