// internal/rules/leaf.go
package rules

import (
	"fmt"
	"sort"

	"github.com/ncku-csie/gradaudit/internal/types"
)

/*
 * Leaf rule evaluation.
 *
 * Candidate selection: with no explicit course list, every not-yet-counted
 * transcript line is a candidate; with a list, only uncounted lines whose
 * name equals a listed name (the list narrows by name only, criteria are
 * applied during the sweep).
 *
 * Candidates are sorted by (name, year, semester, grade) ascending before a
 * single left-to-right sweep. The sort is what makes the run deterministic
 * and what lets the substitution scan find all later attempts of the same
 * course as a contiguous group.
 *
 * External substitution: when a candidate fails its grade check with a score
 * below 60 and the rule allows substitution, the sweep collects the
 * same-name group that follows it, picks the passing member with the highest
 * grade, and re-tests the original candidate with its grade clamped to
 * exactly 60. The clamp answers "would this course qualify if only it had
 * passed" without letting the substitute's department or type leak into the
 * check. On success the original's credit is earned (not the substitute's),
 * the whole group is marked counted, and the sweep jumps past the group.
 *
 * Unmatched candidates are a policy outcome, not an error: they simply do
 * not count, and the requirement decides what that means for validity.
 */

// RuleAllEvaluator evaluates leaf rules.
type RuleAllEvaluator struct{}

// Evaluate runs the candidate sweep for one leaf rule and applies its
// requirement. Matched courses are marked recognized on the shared course
// objects so sibling rules cannot claim them again.
func (ev *RuleAllEvaluator) Evaluate(rule types.Rule, courses []*types.StudentCourse) (types.Result, error) {
	leaf, ok := rule.(*types.RuleAll)
	if !ok {
		return nil, fmt.Errorf("leaf evaluator got %s rule %q", rule.RuleType(), rule.RuleName())
	}

	result := &types.AllResult{
		Name:               leaf.Name,
		Description:        leaf.Description,
		RequiredCourseList: leaf.CourseList,
	}

	candidates := selectCandidates(leaf, courses)
	sortCandidates(candidates)

	matched := sweep(leaf, candidates)
	result.FinishedCourseList = matched

	totalCredits := 0.0
	for _, rc := range matched {
		totalCredits += rc.Credit
	}

	valid, credits, err := ApplyRequirement(&leaf.Requirement, totalCredits, len(matched), len(leaf.CourseList))
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", leaf.Name, err)
	}
	result.IsValid = valid
	result.EarnedCredits = credits
	return result, nil
}

// selectCandidates picks the uncounted courses the sweep will consider.
func selectCandidates(leaf *types.RuleAll, courses []*types.StudentCourse) []*types.StudentCourse {
	var candidates []*types.StudentCourse
	if leaf.CourseList == nil {
		for _, sc := range courses {
			if !sc.Recognized {
				candidates = append(candidates, sc)
			}
		}
		return candidates
	}
	for _, name := range leaf.CourseList {
		for _, sc := range courses {
			if !sc.Recognized && sc.CourseName == name {
				candidates = append(candidates, sc)
			}
		}
	}
	return candidates
}

// sortCandidates fixes processing order: (name, year, semester, grade)
// ascending. Stable so equal tuples keep transcript order.
func sortCandidates(candidates []*types.StudentCourse) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.CourseName != b.CourseName {
			return a.CourseName < b.CourseName
		}
		if a.YearTaken != b.YearTaken {
			return a.YearTaken < b.YearTaken
		}
		if a.SemesterTaken != b.SemesterTaken {
			return a.SemesterTaken < b.SemesterTaken
		}
		return a.Grade < b.Grade
	})
}

// sweep walks the sorted candidates once, claiming matches and applying the
// external-substitution fallback for failed attempts.
func sweep(leaf *types.RuleAll, candidates []*types.StudentCourse) []types.ResultCourse {
	matched := []types.ResultCourse{}
	criteria := &leaf.CourseCriteria

	i := 0
	for i < len(candidates) {
		current := candidates[i]

		if MatchCriteria(current, criteria) {
			matched = append(matched, resultCourse(current, GradeStatus(current.Grade)))
			current.Recognized = true
			i++
			continue
		}

		if criteria.AllowExternalSubstituteAfterFail && current.Grade < types.PassingGrade {
			group, next := sameNameGroup(candidates, i)
			if substituteMatches(current, group, criteria) {
				matched = append(matched, resultCourse(current, types.StatusExternalSubstitute))
				current.Recognized = true
				for _, c := range group {
					c.Recognized = true
				}
				i = next
				continue
			}
		}

		i++
	}

	return matched
}

// sameNameGroup collects the candidates after index i that share its course
// name, returning the group and the index just past it.
func sameNameGroup(candidates []*types.StudentCourse, i int) ([]*types.StudentCourse, int) {
	var group []*types.StudentCourse
	j := i + 1
	for j < len(candidates) && candidates[j].CourseName == candidates[i].CourseName {
		group = append(group, candidates[j])
		j++
	}
	return group, j
}

// substituteMatches reports whether a failed candidate can be credited
// through a later passing attempt: some group member must have passed, and
// the original must match the criteria with its grade clamped to exactly the
// passing threshold.
func substituteMatches(current *types.StudentCourse, group []*types.StudentCourse, criteria *types.CourseCriteria) bool {
	var best *types.StudentCourse
	for _, c := range group {
		if c.Grade >= types.PassingGrade && (best == nil || c.Grade > best.Grade) {
			best = c
		}
	}
	if best == nil {
		return false
	}

	simulated := *current
	simulated.Grade = types.PassingGrade
	return MatchCriteria(&simulated, criteria)
}

func resultCourse(sc *types.StudentCourse, status string) types.ResultCourse {
	return types.ResultCourse{
		BaseCourse:    sc.BaseCourse,
		Status:        status,
		YearTaken:     sc.YearTaken,
		SemesterTaken: sc.SemesterTaken,
	}
}
