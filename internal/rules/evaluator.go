// internal/rules/evaluator.go
package rules

import (
	"github.com/ncku-csie/gradaudit/internal/types"
)

/*
 * Evaluation dispatch.
 *
 * Evaluator maps rule discriminator tags to evaluator implementations
 * through an explicit table built once in NewEvaluator; nothing registers
 * itself as a side effect of being imported.
 *
 * A top-level Evaluate call resolves the root tag BEFORE touching any
 * course, so an unknown tag aborts with no state change at all. Once
 * dispatch succeeds, every course's recognized flag is reset to false; each
 * call therefore starts from a clean slate regardless of what previous runs
 * left behind, and calling Evaluate twice with the same inputs yields
 * identical results.
 *
 * The recursion depth equals the rule-tree depth. Trees arriving through
 * types.ParseRule are finite by construction; programmatic trees are cycle
 * checked by Rule.Validate.
 */

// RuleEvaluator evaluates one rule variant against a student's courses.
type RuleEvaluator interface {
	Evaluate(rule types.Rule, courses []*types.StudentCourse) (types.Result, error)
}

// Evaluator walks a rule tree against a transcript and returns the parallel
// result tree. Safe for concurrent use as long as each call gets its own
// course slice; the rule tree itself is never mutated.
type Evaluator struct {
	evaluators map[string]RuleEvaluator
}

// NewEvaluator builds the dispatch table for the two rule variants.
func NewEvaluator() *Evaluator {
	e := &Evaluator{}
	e.evaluators = map[string]RuleEvaluator{
		types.RuleTypeAll: &RuleAllEvaluator{},
		types.RuleTypeSet: &RuleSetEvaluator{registry: e},
	}
	return e
}

// Evaluate resets every course's recognized flag and evaluates the rule
// tree. On an unknown root tag it fails before any flag is touched and
// returns no partial result.
func (e *Evaluator) Evaluate(rule types.Rule, courses []*types.StudentCourse) (types.Result, error) {
	ev, ok := e.evaluators[rule.RuleType()]
	if !ok {
		return nil, &types.UnknownRuleTypeError{Tag: rule.RuleType()}
	}

	for _, course := range courses {
		course.Recognized = false
	}

	return ev.Evaluate(rule, courses)
}

// dispatch routes a child rule to its evaluator without resetting flags;
// recognized state accumulates across siblings within one run.
func (e *Evaluator) dispatch(rule types.Rule, courses []*types.StudentCourse) (types.Result, error) {
	ev, ok := e.evaluators[rule.RuleType()]
	if !ok {
		return nil, &types.UnknownRuleTypeError{Tag: rule.RuleType()}
	}
	return ev.Evaluate(rule, courses)
}
