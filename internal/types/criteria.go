package types

import (
	"fmt"
	"regexp"
)

// CourseCriteria is the predicate a leaf rule applies to a single transcript
// line. All fields are optional; an empty criteria matches any course with an
// acceptable grade.
//
// ExcludeSameName and SeriesCourses are part of the stored rule format but
// are never evaluated by the matcher: both need cross-course context (the
// full transcript, the series structure) that a single-course predicate does
// not see. Callers wanting their effect must pre-filter the course list
// before evaluation.
type CourseCriteria struct {
	CourseCodePattern      string   `json:"course_code_pattern,omitempty"`
	CourseNamePattern      string   `json:"course_name_pattern,omitempty"`
	DepartmentCodes        []string `json:"department_codes,omitempty"`
	ExcludeDepartmentCodes []string `json:"exclude_department_codes,omitempty"`
	BlacklistCourses       []string `json:"blacklist_courses,omitempty"`
	WhitelistCourses       []string `json:"whitelist_courses,omitempty"`
	CourseTypes            []int    `json:"course_types,omitempty"`
	Categories             []string `json:"categories,omitempty"`
	Tags                   []string `json:"tags,omitempty"`

	// AllowFail accepts courses in the attempted-but-failed band (0-59).
	AllowFail bool `json:"allow_fail,omitempty"`

	// AllowExternalSubstituteAfterFail enables crediting a failed
	// in-department course through a later passing same-named course taken
	// outside the department.
	AllowExternalSubstituteAfterFail bool `json:"allow_external_substitute_after_fail,omitempty"`

	ExcludeSameName bool `json:"exclude_same_name,omitempty"`
	SeriesCourses   bool `json:"series_courses,omitempty"`
}

// Validate compiles the regex patterns so malformed criteria fail at data
// load time instead of silently matching nothing during evaluation.
func (c *CourseCriteria) Validate() error {
	if c.CourseCodePattern != "" {
		if _, err := regexp.Compile(c.CourseCodePattern); err != nil {
			return fmt.Errorf("invalid course_code_pattern: %w", err)
		}
	}
	if c.CourseNamePattern != "" {
		if _, err := regexp.Compile(c.CourseNamePattern); err != nil {
			return fmt.Errorf("invalid course_name_pattern: %w", err)
		}
	}
	return nil
}
