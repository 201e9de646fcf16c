// internal/rules/matcher.go
package rules

import (
	"regexp"
	"strings"

	"github.com/ncku-csie/gradaudit/internal/types"
)

/*
 * Course criteria matching.
 *
 * MatchCriteria is the single-course predicate behind every leaf rule. The
 * checks run in a fixed order and short-circuit on the first failure:
 *
 *   1. course_code_pattern: every code must match (anchored at start)
 *   2. course_name_pattern: name must match (anchored at start)
 *   3. department_codes: some code must carry an allowed prefix; when it
 *      does, blacklist_courses can still veto by name
 *   4. exclude_department_codes: a code with an excluded prefix fails the
 *      course unless whitelist_courses names it
 *   5. course_types / categories membership
 *   6. tags: every required tag must be present
 *   7. grade acceptability
 *
 * The blacklist/whitelist asymmetry (blacklist only consulted inside the
 * included branch, whitelist only inside the excluded branch) is part of the
 * stored-rule contract and is preserved as-is.
 *
 * Grade acceptability: 60-100, waived (555), and in-progress (999) always
 * pass. allow_fail additionally accepts the attempted-but-failed band 0-59;
 * withdrawn (111) and dropped (777) never qualify even with allow_fail.
 *
 * Why function-based: a predicate over two small structs doesn't warrant an
 * interface hierarchy. One function with ordered guards keeps the matching
 * precedence readable and testable.
 */

// MatchCriteria reports whether a single transcript line satisfies the
// criteria. Pure: neither argument is mutated.
func MatchCriteria(course *types.StudentCourse, criteria *types.CourseCriteria) bool {
	if criteria.CourseCodePattern != "" {
		for _, code := range course.CourseCodes {
			if !matchAtStart(criteria.CourseCodePattern, code) {
				return false
			}
		}
	}

	if criteria.CourseNamePattern != "" {
		if !matchAtStart(criteria.CourseNamePattern, course.CourseName) {
			return false
		}
	}

	if len(criteria.DepartmentCodes) > 0 {
		if !anyCodeHasPrefix(course.CourseCodes, criteria.DepartmentCodes) {
			return false
		}
		if len(criteria.BlacklistCourses) > 0 && containsString(criteria.BlacklistCourses, course.CourseName) {
			return false
		}
	}

	if len(criteria.ExcludeDepartmentCodes) > 0 {
		if anyCodeHasPrefix(course.CourseCodes, criteria.ExcludeDepartmentCodes) {
			if len(criteria.WhitelistCourses) > 0 {
				if !containsString(criteria.WhitelistCourses, course.CourseName) {
					return false
				}
			} else {
				return false
			}
		}
	}

	if len(criteria.CourseTypes) > 0 && !containsInt(criteria.CourseTypes, course.CourseType) {
		return false
	}

	if len(criteria.Categories) > 0 && !containsString(criteria.Categories, course.Category) {
		return false
	}

	if len(criteria.Tags) > 0 {
		for _, tag := range criteria.Tags {
			if !containsString(course.Tag, tag) {
				return false
			}
		}
	}

	// ExcludeSameName and SeriesCourses need transcript-wide context and are
	// handled by callers before evaluation; see types.CourseCriteria.

	if !types.GradePassing(course.Grade) {
		if !criteria.AllowFail {
			return false
		}
		if course.Grade < 0 || course.Grade >= types.PassingGrade {
			return false
		}
	}

	return true
}

// matchAtStart applies match-from-start semantics: the pattern must match a
// prefix of the input, not necessarily the whole string. Patterns are
// validated at rule load time, so a compile failure here means corrupted
// in-memory state; treat it as a non-match.
func matchAtStart(pattern, s string) bool {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// anyCodeHasPrefix reports whether any course code starts with any of the
// department prefixes.
func anyCodeHasPrefix(codes, prefixes []string) bool {
	for _, code := range codes {
		for _, prefix := range prefixes {
			if strings.HasPrefix(code, prefix) {
				return true
			}
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsInt(haystack []int, needle int) bool {
	for _, n := range haystack {
		if n == needle {
			return true
		}
	}
	return false
}
