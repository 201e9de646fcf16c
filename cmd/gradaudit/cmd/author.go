package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ncku-csie/gradaudit/internal/catalog"
	"github.com/ncku-csie/gradaudit/internal/core/store"
	"github.com/ncku-csie/gradaudit/internal/types"
)

// Leaf kinds offered by the authoring flow. "total credits" is the final
// aggregate rule: it counts every course the earlier leaves left unclaimed,
// and a rule set must contain exactly one of them, in last position.
const (
	leafKindRequired  = "required"
	leafKindPrereq    = "prerequisite"
	leafKindThreshold = "threshold"
	leafKindAggregate = "aggregate"
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Interactively author a graduation rule",
	Long: `Author builds a rule document through an interactive form flow:
one composite rule with required-course, prerequisite and credit-threshold
groups, closed by exactly one total-credit rule that sweeps up everything
the earlier groups did not claim.`,
	RunE: runAuthor,
}

func init() {
	rootCmd.AddCommand(authorCmd)
	authorCmd.Flags().String("dept", "", "department code the rule belongs to")
	authorCmd.Flags().Int("year", 0, "first admission year the rule applies to")
	authorCmd.Flags().String("category", "major", "rule category (major, minor, double_major)")
	authorCmd.Flags().String("output", "", "write the rule JSON to a file instead of the rule store")
	authorCmd.Flags().Bool("overwrite", false, "replace an existing stored rule")
	authorCmd.Flags().Bool("lookup", false, "look up course codes and credits in the course catalog")
	authorCmd.MarkFlagRequired("dept")
	authorCmd.MarkFlagRequired("year")
}

func runAuthor(cmd *cobra.Command, args []string) error {
	dept, _ := cmd.Flags().GetString("dept")
	year, _ := cmd.Flags().GetInt("year")
	categoryFlag, _ := cmd.Flags().GetString("category")
	output, _ := cmd.Flags().GetString("output")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	lookup, _ := cmd.Flags().GetBool("lookup")

	category := store.RuleCategory(categoryFlag)
	if !category.Valid() {
		return fmt.Errorf("invalid --category %q", categoryFlag)
	}

	rule, err := collectRule(dept, category)
	if err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("authored rule is invalid: %w", err)
	}

	if lookup {
		cfg, err := loadServerConfig()
		if err != nil {
			return err
		}
		crawler := catalog.NewCrawler(cfg.CrawlerBaseURL, cfg.CrawlerTimeout, slog.Default())
		if err := printCatalogLookup(cmd.Context(), crawler, dept, rule); err != nil {
			slog.Warn("catalog lookup failed", "error", err)
		}
	}

	doc, err := json.MarshalIndent(rule, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode rule: %w", err)
	}

	if output != "" {
		if err := os.WriteFile(output, doc, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		fmt.Printf("wrote %s\n", output)
		return nil
	}

	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}
	ruleStore := store.NewRuleStore(rulesDir(cfg), slog.Default())
	if err := ruleStore.Save(dept, year, category, rule, overwrite); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	fmt.Printf("saved rule %s/%d_%s\n", dept, year, category)
	return nil
}

// collectRule drives the form flow and assembles the composite rule.
func collectRule(dept string, category store.RuleCategory) (types.Rule, error) {
	name := fmt.Sprintf("%s %s", dept, category)
	description := ""
	logic := types.LogicAnd

	head := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Rule name").
			Value(&name).
			Validate(nonEmpty("rule name")),
		huh.NewInput().
			Title("Description (optional)").
			Value(&description),
		huh.NewSelect[string]().
			Title("Combinator between groups").
			Options(
				huh.NewOption("AND - every group must pass", types.LogicAnd),
				huh.NewOption("OR - one passing group suffices", types.LogicOr),
			).
			Value(&logic),
	))
	if err := head.Run(); err != nil {
		return nil, err
	}

	var leaves []types.Rule
	for {
		addMore := true
		prompt := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Add a requirement group?").
				Value(&addMore),
		))
		if err := prompt.Run(); err != nil {
			return nil, err
		}
		if !addMore {
			break
		}
		leaf, err := collectLeaf(len(leaves) + 1)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, leaf)
	}

	if err := checkAggregate(leaves); err != nil {
		return nil, err
	}

	return &types.RuleSet{
		Name:         name,
		Description:  description,
		SubRules:     leaves,
		Requirement:  types.Requirement{Type: types.RequirementAll},
		SubRuleLogic: logic,
	}, nil
}

// collectLeaf builds one leaf rule from a kind-specific form.
func collectLeaf(ordinal int) (types.Rule, error) {
	name := ""
	kind := leafKindRequired

	head := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("Group %d name", ordinal)).
			Value(&name).
			Validate(nonEmpty("group name")),
		huh.NewSelect[string]().
			Title("Group kind").
			Options(
				huh.NewOption("Required courses - every listed course must pass", leafKindRequired),
				huh.NewOption("Prerequisite - listed courses must pass, credits not counted", leafKindPrereq),
				huh.NewOption("Credit threshold - minimum credits over matching courses", leafKindThreshold),
				huh.NewOption("Total credits - final sweep over everything left", leafKindAggregate),
			).
			Value(&kind),
	))
	if err := head.Run(); err != nil {
		return nil, err
	}

	switch kind {
	case leafKindRequired, leafKindPrereq:
		courses, err := collectCourseList()
		if err != nil {
			return nil, err
		}
		reqType := types.RequirementAll
		if kind == leafKindPrereq {
			reqType = types.RequirementPrerequisite
		}
		return &types.RuleAll{
			Name:        name,
			CourseList:  courses,
			Requirement: types.Requirement{Type: reqType},
		}, nil

	case leafKindThreshold:
		criteria, err := collectCriteria()
		if err != nil {
			return nil, err
		}
		min, err := collectMinCredits()
		if err != nil {
			return nil, err
		}
		return &types.RuleAll{
			Name:           name,
			CourseCriteria: *criteria,
			Requirement: types.Requirement{
				Type:       types.RequirementMinCredits,
				MinCredits: &min,
			},
		}, nil

	case leafKindAggregate:
		min, err := collectMinCredits()
		if err != nil {
			return nil, err
		}
		return &types.RuleAll{
			Name: name,
			Requirement: types.Requirement{
				Type:       types.RequirementMinCredits,
				MinCredits: &min,
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown group kind %q", kind)
}

func collectCourseList() ([]string, error) {
	raw := ""
	form := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("Course names, one per line").
			Value(&raw).
			Validate(func(s string) error {
				if len(splitLines(s)) == 0 {
					return fmt.Errorf("at least one course name required")
				}
				return nil
			}),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}
	return splitLines(raw), nil
}

func collectCriteria() (*types.CourseCriteria, error) {
	deptCodes := ""
	namePattern := ""
	var courseTypes []int

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Department codes, comma separated (empty for any)").
			Value(&deptCodes),
		huh.NewInput().
			Title("Course name pattern, RE2 (empty for any)").
			Value(&namePattern),
		huh.NewMultiSelect[int]().
			Title("Course types (empty for any)").
			Options(
				huh.NewOption("required for major", types.CourseTypeRequiredMajor),
				huh.NewOption("required", types.CourseTypeRequired),
				huh.NewOption("elective", types.CourseTypeElective),
				huh.NewOption("general education", types.CourseTypeGeneral),
			).
			Value(&courseTypes),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}

	return &types.CourseCriteria{
		DepartmentCodes:   splitCodes(deptCodes),
		CourseNamePattern: namePattern,
		CourseTypes:       courseTypes,
	}, nil
}

func collectMinCredits() (float64, error) {
	raw := ""
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Minimum credits").
			Value(&raw).
			Validate(func(s string) error {
				v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil || v < 0 {
					return fmt.Errorf("enter a non-negative number")
				}
				return nil
			}),
	))
	if err := form.Run(); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// checkAggregate enforces the final-rule shape: exactly one aggregate leaf
// (no course list, no criteria) and it must come last, so every other group
// claims its courses before the sweep.
func checkAggregate(leaves []types.Rule) error {
	aggregates := 0
	last := -1
	for i, leaf := range leaves {
		all, ok := leaf.(*types.RuleAll)
		if !ok {
			continue
		}
		if isAggregateLeaf(all) {
			aggregates++
			last = i
		}
	}
	if aggregates != 1 {
		return fmt.Errorf("rule needs exactly one total-credit group, got %d", aggregates)
	}
	if last != len(leaves)-1 {
		return fmt.Errorf("the total-credit group must be the last group")
	}
	return nil
}

// isAggregateLeaf reports whether a leaf matches every unclaimed course:
// no course list and an unconstrained criteria.
func isAggregateLeaf(r *types.RuleAll) bool {
	c := r.CourseCriteria
	return r.CourseList == nil &&
		c.CourseCodePattern == "" && c.CourseNamePattern == "" &&
		len(c.DepartmentCodes) == 0 && len(c.ExcludeDepartmentCodes) == 0 &&
		len(c.BlacklistCourses) == 0 && len(c.WhitelistCourses) == 0 &&
		len(c.CourseTypes) == 0 && len(c.Categories) == 0 && len(c.Tags) == 0
}

// printCatalogLookup resolves every listed course name against the catalog
// and prints the codes and credits it found.
func printCatalogLookup(ctx context.Context, crawler *catalog.Crawler, dept string, rule types.Rule) error {
	names := listedCourses(rule)
	if len(names) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := crawler.Lookup(ctx, dept, names)
	if err != nil {
		return err
	}
	fmt.Println("catalog lookup:")
	for _, entry := range entries {
		if len(entry.CourseCodes) == 0 {
			fmt.Printf("  %-20s not found\n", entry.Name)
			continue
		}
		fmt.Printf("  %-20s %.1f credits  %s\n",
			entry.Name, entry.Credits, strings.Join(entry.CourseCodes, ", "))
	}
	return nil
}

// listedCourses collects course-list names across the rule tree, deduplicated
// in first-seen order.
func listedCourses(rule types.Rule) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(types.Rule)
	walk = func(r types.Rule) {
		switch r := r.(type) {
		case *types.RuleAll:
			for _, name := range r.CourseList {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		case *types.RuleSet:
			for _, sub := range r.SubRules {
				walk(sub)
			}
		}
	}
	walk(rule)
	return names
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitCodes(s string) []string {
	var out []string
	for _, code := range strings.Split(s, ",") {
		if code = strings.TrimSpace(code); code != "" {
			out = append(out, code)
		}
	}
	return out
}

func nonEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s must not be empty", what)
		}
		return nil
	}
}
