// Package store provides the data suppliers behind the audit service: rule
// documents on disk, department metadata, and student/result persistence.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ncku-csie/gradaudit/internal/types"
)

// RuleCategory selects which curriculum a rule file describes.
type RuleCategory string

const (
	CategoryMajor       RuleCategory = "major"
	CategoryMinor       RuleCategory = "minor"
	CategoryDoubleMajor RuleCategory = "double_major"
)

// Valid reports whether the category is one of the three known kinds.
func (c RuleCategory) Valid() bool {
	switch c {
	case CategoryMajor, CategoryMinor, CategoryDoubleMajor:
		return true
	}
	return false
}

// ruleFileName matches "<year>_<category>" rule file stems.
var ruleFileName = regexp.MustCompile(`^(\d{2,3})_(major|minor|double_major)$`)

// RuleInfo identifies one stored rule document without its content.
type RuleInfo struct {
	DepartmentCode string       `json:"department_code"`
	AdmissionYear  int          `json:"admission_year"`
	Category       RuleCategory `json:"category"`
}

// RuleStore reads and writes rule documents laid out as
// <dir>/<department>/<year>_<category>.json. Rule files are the source of
// truth: nothing is cached, so edits on disk take effect immediately.
type RuleStore struct {
	dir    string
	logger *slog.Logger
}

// NewRuleStore returns a store rooted at dir (typically <data>/rules).
func NewRuleStore(dir string, logger *slog.Logger) *RuleStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleStore{dir: dir, logger: logger}
}

func (s *RuleStore) path(dept string, year int, category RuleCategory) string {
	return filepath.Join(s.dir, dept, fmt.Sprintf("%d_%s.json", year, category))
}

// Select finds the rule governing a student: among the department's files of
// the requested category, the one with the largest year not exceeding the
// admission year. Students admitted after the last curriculum revision keep
// using the revision in force when they enrolled.
func (s *RuleStore) Select(dept string, admissionYear int, category RuleCategory) (types.Rule, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("invalid rule category %q", category)
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, dept))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("department %q: %w", dept, types.ErrRuleNotFound)
		}
		return nil, fmt.Errorf("reading rules for %q: %w", dept, err)
	}

	bestYear := -1
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		stem := entry.Name()[:len(entry.Name())-len(".json")]
		m := ruleFileName.FindStringSubmatch(stem)
		if m == nil || RuleCategory(m[2]) != category {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if year <= admissionYear && year > bestYear {
			bestYear = year
		}
	}
	if bestYear < 0 {
		return nil, fmt.Errorf("no %s rule for %q admitted in %d: %w",
			category, dept, admissionYear, types.ErrRuleNotFound)
	}

	return s.Get(dept, bestYear, category)
}

// Get loads and validates one exact rule document.
func (s *RuleStore) Get(dept string, year int, category RuleCategory) (types.Rule, error) {
	data, err := os.ReadFile(s.path(dept, year, category))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%d_%s: %w", dept, year, category, types.ErrRuleNotFound)
		}
		return nil, err
	}
	rule, err := types.ParseRule(data)
	if err != nil {
		return nil, fmt.Errorf("rule %s/%d_%s: %w", dept, year, category, err)
	}
	return rule, nil
}

// List enumerates every parseable rule file under the store. Files with
// unrecognized names are logged and skipped, never fatal.
func (s *RuleStore) List() ([]RuleInfo, error) {
	deptDirs, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []RuleInfo{}, nil
		}
		return nil, err
	}

	infos := []RuleInfo{}
	for _, deptDir := range deptDirs {
		if !deptDir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dir, deptDir.Name()))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
				continue
			}
			stem := file.Name()[:len(file.Name())-len(".json")]
			m := ruleFileName.FindStringSubmatch(stem)
			if m == nil {
				s.logger.Warn("skipping rule file with unrecognized name",
					"department", deptDir.Name(), "file", file.Name())
				continue
			}
			year, _ := strconv.Atoi(m[1])
			infos = append(infos, RuleInfo{
				DepartmentCode: deptDir.Name(),
				AdmissionYear:  year,
				Category:       RuleCategory(m[2]),
			})
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].DepartmentCode != infos[j].DepartmentCode {
			return infos[i].DepartmentCode < infos[j].DepartmentCode
		}
		if infos[i].AdmissionYear != infos[j].AdmissionYear {
			return infos[i].AdmissionYear < infos[j].AdmissionYear
		}
		return infos[i].Category < infos[j].Category
	})
	return infos, nil
}

// Save writes a validated rule document. With overwrite false an existing
// file is an error (create); with true the file must already exist (update).
func (s *RuleStore) Save(dept string, year int, category RuleCategory, rule types.Rule, overwrite bool) error {
	if !category.Valid() {
		return fmt.Errorf("invalid rule category %q", category)
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	path := s.path(dept, year, category)
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !overwrite {
		return fmt.Errorf("%s/%d_%s: %w", dept, year, category, types.ErrRuleExists)
	}
	if !exists && overwrite {
		return fmt.Errorf("%s/%d_%s: %w", dept, year, category, types.ErrRuleNotFound)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rule, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Delete removes one rule document.
func (s *RuleStore) Delete(dept string, year int, category RuleCategory) error {
	err := os.Remove(s.path(dept, year, category))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s/%d_%s: %w", dept, year, category, types.ErrRuleNotFound)
	}
	return err
}
