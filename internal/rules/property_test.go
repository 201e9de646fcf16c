package rules

import (
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ncku-csie/gradaudit/internal/types"
)

// genTranscript builds a deterministic transcript from a seed: course names
// cycle through a small pool so repeated attempts and name collisions occur.
func genTranscript(size, seed int) []*types.StudentCourse {
	names := []string{"資料結構", "演算法", "作業系統", "熱力學", "微積分（一）"}
	depts := []string{"E2", "N2", "F7"}
	courses := make([]*types.StudentCourse, size)
	for i := 0; i < size; i++ {
		k := (seed + i*7) % 101
		courses[i] = &types.StudentCourse{
			BaseCourse: types.BaseCourse{
				CourseName:  names[(seed+i)%len(names)],
				CourseCodes: []string{depts[(seed+i)%len(depts)] + "10000"},
				Credit:      float64(1 + k%4),
				CourseType:  k % 4,
			},
			Grade:         k,
			Category:      " ",
			YearTaken:     110 + i%3,
			SemesterTaken: 1 + i%2,
		}
	}
	return courses
}

// Property-based test: aggregate credits equal the sum of child credits
func TestEvaluate_PropertyCreditAdditivity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("composite credits are the exact child sum", prop.ForAll(
		func(size, seed int, useOr bool) bool {
			logic := types.LogicAnd
			if useOr {
				logic = types.LogicOr
			}
			set := &types.RuleSet{
				Name:         "degree",
				SubRuleLogic: logic,
				SubRules: []types.Rule{
					creditLeaf("a", "E2", 6),
					creditLeaf("b", "N2", 6),
					creditLeaf("c", "F7", 6),
				},
			}

			result, err := NewEvaluator().Evaluate(set, genTranscript(size, seed))
			if err != nil {
				return false
			}
			agg := result.(*types.SetResult)
			sum := 0.0
			for _, sub := range agg.SubResults {
				sum += sub.Credits()
			}
			return math.Abs(sum-agg.EarnedCredits) < 1e-9
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 100),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property-based test: AND/OR validity folds over child validity
func TestEvaluate_PropertyLogicFold(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("composite validity is the fold of child validity", prop.ForAll(
		func(size, seed int, useOr bool) bool {
			logic := types.LogicAnd
			if useOr {
				logic = types.LogicOr
			}
			set := &types.RuleSet{
				Name:         "degree",
				SubRuleLogic: logic,
				SubRules: []types.Rule{
					creditLeaf("a", "E2", 3),
					creditLeaf("b", "N2", 3),
				},
			}

			result, err := NewEvaluator().Evaluate(set, genTranscript(size, seed))
			if err != nil {
				return false
			}
			agg := result.(*types.SetResult)
			want := !useOr
			for _, sub := range agg.SubResults {
				if useOr {
					want = want || sub.Valid()
				} else {
					want = want && sub.Valid()
				}
			}
			return agg.IsValid == want
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 100),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property-based test: repeated evaluation is idempotent
func TestEvaluate_PropertyIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("evaluating twice yields identical results", prop.ForAll(
		func(size, seed int) bool {
			set := &types.RuleSet{
				Name:         "degree",
				SubRuleLogic: types.LogicAnd,
				SubRules: []types.Rule{
					creditLeaf("a", "E2", 6),
					creditLeaf("b", "N2", 6),
				},
			}
			courses := genTranscript(size, seed)

			ev := NewEvaluator()
			first, err := ev.Evaluate(set, courses)
			if err != nil {
				return false
			}
			second, err := ev.Evaluate(set, courses)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(first, second)
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// Property-based test: no course counts twice within one run
func TestEvaluate_PropertyAtMostOnce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("matches across the tree never exceed the transcript", prop.ForAll(
		func(size, seed int) bool {
			openLeaf := func(name string) *types.RuleAll {
				return &types.RuleAll{
					Name:        name,
					Requirement: types.Requirement{Type: types.RequirementMinCredits, MinCredits: floatPtr(0)},
				}
			}
			set := &types.RuleSet{
				Name:         "greedy",
				SubRuleLogic: types.LogicAnd,
				SubRules:     []types.Rule{openLeaf("a"), openLeaf("b"), openLeaf("c")},
			}
			courses := genTranscript(size, seed)

			result, err := NewEvaluator().Evaluate(set, courses)
			if err != nil {
				return false
			}
			total := 0
			for _, sub := range result.(*types.SetResult).SubResults {
				total += len(sub.(*types.AllResult).FinishedCourseList)
			}
			return total <= size
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
