// Package review orchestrates a full graduation audit: rule selection per
// curriculum, the undeclared-major rewrite, evaluation, and persistence.
package review

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ncku-csie/gradaudit/internal/core/store"
	"github.com/ncku-csie/gradaudit/internal/rules"
	"github.com/ncku-csie/gradaudit/internal/types"
)

// UndeclaredMajor is the department code of students admitted without a
// declared major. Their audit replaces part of the major rule with the
// chosen specialty department's minor rule.
const UndeclaredMajor = "AN"

// Options selects which curricula to audit beyond the student's own major.
type Options struct {
	// Major overrides the student's recorded major department.
	Major string

	// DoubleMajor audits a second department's double_major rule.
	DoubleMajor string

	// Minors audits each department's minor rule. For undeclared-major
	// students the first entry names the specialty department and is
	// consumed by the major audit instead.
	Minors []string
}

// Outcome is one complete audit: a result tree per reviewed category, or
// nil where a category's rule file was missing. Keys are "main",
// "double_major_<dept>" and "minor_<dept>".
type Outcome map[string]types.Result

// Service wires the rule supplier, department metadata, evaluator and
// result sink together.
type Service struct {
	rules       *store.RuleStore
	departments store.Departments
	evaluator   *rules.Evaluator
	results     *store.ResultStore
	logger      *slog.Logger
}

// NewService builds a review service. results may be nil when persistence
// is not wanted (CLI dry runs).
func NewService(ruleStore *store.RuleStore, departments store.Departments, results *store.ResultStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		rules:       ruleStore,
		departments: departments,
		evaluator:   rules.NewEvaluator(),
		results:     results,
		logger:      logger,
	}
}

// Review audits one student. The main audit is mandatory and its failure
// aborts the review; double-major and minor audits with missing rule files
// are logged and recorded as nil entries so one missing curriculum does not
// sink the whole report.
func (s *Service) Review(student *types.Student, opts Options) (Outcome, error) {
	if err := student.Validate(); err != nil {
		return nil, err
	}

	dept := student.Major
	if opts.Major != "" {
		dept = opts.Major
	}

	mainRule, err := s.rules.Select(dept, student.AdmissionYear, store.CategoryMajor)
	if err != nil {
		return nil, fmt.Errorf("selecting major rule: %w", err)
	}

	minors := append([]string(nil), opts.Minors...)
	if dept == UndeclaredMajor {
		if len(minors) == 0 {
			return nil, fmt.Errorf("undeclared-major student %s needs at least one minor department", student.ID)
		}
		mainRule, err = s.rewriteUndeclared(mainRule, minors[0], student.AdmissionYear)
		if err != nil {
			return nil, err
		}
		minors = minors[1:]
	}

	outcome := Outcome{}
	outcome["main"], err = s.evaluate(mainRule, student)
	if err != nil {
		return nil, fmt.Errorf("main audit: %w", err)
	}

	if opts.DoubleMajor != "" {
		key := "double_major_" + opts.DoubleMajor
		rule, err := s.rules.Select(opts.DoubleMajor, student.AdmissionYear, store.CategoryDoubleMajor)
		if err != nil {
			s.logger.Warn("no double-major rule, skipping",
				"student", student.ID, "department", opts.DoubleMajor, "error", err)
			outcome[key] = nil
		} else {
			outcome[key], err = s.evaluate(rule, student)
			if err != nil {
				return nil, fmt.Errorf("double-major audit %s: %w", opts.DoubleMajor, err)
			}
		}
	}

	for _, minor := range minors {
		key := "minor_" + minor
		rule, err := s.rules.Select(minor, student.AdmissionYear, store.CategoryMinor)
		if err != nil {
			s.logger.Warn("no minor rule, skipping",
				"student", student.ID, "department", minor, "error", err)
			outcome[key] = nil
			continue
		}
		outcome[key], err = s.evaluate(rule, student)
		if err != nil {
			return nil, fmt.Errorf("minor audit %s: %w", minor, err)
		}
	}

	if s.results != nil {
		if err := s.persist(student, outcome); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// rewriteUndeclared adapts the AN major rule to the chosen specialty: the
// first child becomes that department's minor rule, and every remaining
// leaf child is widened to accept any department in the specialty's
// college.
func (s *Service) rewriteUndeclared(mainRule types.Rule, specialty string, admissionYear int) (types.Rule, error) {
	set, ok := mainRule.(*types.RuleSet)
	if !ok {
		return mainRule, nil
	}

	minorRule, err := s.rules.Select(specialty, admissionYear, store.CategoryMinor)
	if err != nil {
		return nil, fmt.Errorf("selecting specialty minor rule for %q: %w", specialty, err)
	}
	collegeCodes, err := s.departments.ExpandCollege(specialty)
	if err != nil {
		return nil, err
	}

	set.SubRules[0] = minorRule
	for _, sub := range set.SubRules[1:] {
		if leaf, ok := sub.(*types.RuleAll); ok {
			leaf.CourseCriteria.DepartmentCodes = collegeCodes
		}
	}
	return set, nil
}

// evaluate runs one category's audit on a private copy of the course list,
// so concurrent reviews of the same student never share recognized flags.
func (s *Service) evaluate(rule types.Rule, student *types.Student) (types.Result, error) {
	courses := make([]*types.StudentCourse, len(student.Courses))
	for i, c := range student.Courses {
		copied := *c
		courses[i] = &copied
	}
	return s.evaluator.Evaluate(rule, courses)
}

// reviewDocument is the persisted shape: student identity plus one entry
// per reviewed category.
type reviewDocument struct {
	StudentID     string                     `json:"student_id"`
	Name          string                     `json:"name"`
	Major         string                     `json:"major"`
	AdmissionYear int                        `json:"admission_year"`
	Results       map[string]json.RawMessage `json:"results"`
}

func (s *Service) persist(student *types.Student, outcome Outcome) error {
	doc := reviewDocument{
		StudentID:     student.ID,
		Name:          student.Name,
		Major:         student.Major,
		AdmissionYear: student.AdmissionYear,
		Results:       make(map[string]json.RawMessage, len(outcome)),
	}
	for key, result := range outcome {
		if result == nil {
			doc.Results[key] = json.RawMessage("null")
			continue
		}
		encoded, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encoding %s result: %w", key, err)
		}
		doc.Results[key] = encoded
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	id, err := s.results.Save(student.ID, "review", data)
	if err != nil {
		return err
	}
	s.logger.Info("review stored", "student", student.ID, "result_id", id)
	return nil
}
