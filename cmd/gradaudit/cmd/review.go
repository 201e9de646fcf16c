package cmd

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ncku-csie/gradaudit/internal/core/review"
	"github.com/ncku-csie/gradaudit/internal/core/store"
	"github.com/ncku-csie/gradaudit/internal/types"
)

var reviewCmd = &cobra.Command{
	Use:   "review <student-id>",
	Short: "Run a graduation audit for one student",
	Args:  cobra.ExactArgs(1),
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().String("major", "", "override the student's major department code")
	reviewCmd.Flags().String("double-major", "", "double-major department code")
	reviewCmd.Flags().StringArray("minor", nil, "minor department code (repeatable)")
	reviewCmd.Flags().Bool("save", false, "persist the audit result")
}

var (
	stylePass   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleFail   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleHeader = lipgloss.NewStyle().Bold(true).Underline(true)
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleCourse = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

func runReview(cmd *cobra.Command, args []string) error {
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

	departments, err := loadDepartments(cfg)
	if err != nil {
		return err
	}

	studentStore := store.NewStudentStore(queries)
	student, err := studentStore.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to load student %s: %w", args[0], err)
	}

	var resultStore *store.ResultStore
	if save, _ := cmd.Flags().GetBool("save"); save {
		resultStore = store.NewResultStore(queries)
	}
	ruleStore := store.NewRuleStore(rulesDir(cfg), slog.Default())
	service := review.NewService(ruleStore, departments, resultStore, slog.Default())

	opts := review.Options{}
	opts.Major, _ = cmd.Flags().GetString("major")
	opts.DoubleMajor, _ = cmd.Flags().GetString("double-major")
	opts.Minors, _ = cmd.Flags().GetStringArray("minor")

	outcome, err := service.Review(student, opts)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	fmt.Printf("%s  %s (%s, %d)\n\n",
		styleHeader.Render(student.ID), student.Name, student.Major, student.AdmissionYear)
	for _, key := range outcomeKeys(outcome) {
		fmt.Println(styleHeader.Render(key))
		result := outcome[key]
		if result == nil {
			fmt.Println(styleMuted.Render("  no applicable rule"))
			continue
		}
		fmt.Print(renderResult(result, 1))
		fmt.Println()
	}
	return nil
}

// outcomeKeys orders the audit sections: main requirement first, the rest
// alphabetically.
func outcomeKeys(outcome review.Outcome) []string {
	keys := make([]string, 0, len(outcome))
	for key := range outcome {
		if key != "main" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if _, ok := outcome["main"]; ok {
		keys = append([]string{"main"}, keys...)
	}
	return keys
}

// renderResult draws the result tree with two-space indentation per level.
func renderResult(result types.Result, depth int) string {
	indent := strings.Repeat("  ", depth)
	var b strings.Builder

	switch r := result.(type) {
	case *types.SetResult:
		fmt.Fprintf(&b, "%s%s %s %s\n",
			indent, validityMark(r.IsValid), r.Name,
			styleMuted.Render(fmt.Sprintf("(%s, %.1f credits)", r.SubRuleLogic, r.EarnedCredits)))
		for _, sub := range r.SubResults {
			b.WriteString(renderResult(sub, depth+1))
		}
	case *types.AllResult:
		fmt.Fprintf(&b, "%s%s %s %s\n",
			indent, validityMark(r.IsValid), r.Name,
			styleMuted.Render(fmt.Sprintf("(%.1f credits)", r.EarnedCredits)))
		matched := make(map[string]bool, len(r.FinishedCourseList))
		for _, course := range r.FinishedCourseList {
			matched[course.CourseName] = true
			fmt.Fprintf(&b, "%s  %s\n", indent,
				styleCourse.Render(fmt.Sprintf("%s %.1f [%s]",
					course.CourseName, course.Credit, course.Status)))
		}
		// RequiredCourseList carries the rule's full list; only names
		// without a matched course are outstanding.
		for _, name := range r.RequiredCourseList {
			if matched[name] {
				continue
			}
			fmt.Fprintf(&b, "%s  %s\n", indent,
				styleFail.Render(fmt.Sprintf("%s [%s]", name, types.StatusNotTaken)))
		}
	}
	return b.String()
}

func validityMark(valid bool) string {
	if valid {
		return stylePass.Render("✓")
	}
	return styleFail.Render("✗")
}
