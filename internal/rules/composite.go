// internal/rules/composite.go
package rules

import (
	"fmt"

	"github.com/ncku-csie/gradaudit/internal/types"
)

// RuleSetEvaluator evaluates composite rules by dispatching each child in
// declared order and folding their outcomes.
//
// A composite's validity is purely the AND/OR of its children; the
// requirement field on RuleSet is carried through the data model but not
// applied to the aggregate. Earned credits are the exact sum of the
// children's reported credits.
type RuleSetEvaluator struct {
	registry *Evaluator
}

// Evaluate recurses into every child through the dispatcher, so arbitrarily
// nested rule sets evaluate depth-first in declaration order.
func (ev *RuleSetEvaluator) Evaluate(rule types.Rule, courses []*types.StudentCourse) (types.Result, error) {
	set, ok := rule.(*types.RuleSet)
	if !ok {
		return nil, fmt.Errorf("composite evaluator got %s rule %q", rule.RuleType(), rule.RuleName())
	}

	result := &types.SetResult{
		Name:         set.Name,
		Description:  set.Description,
		SubRuleLogic: set.SubRuleLogic,
		SubResults:   make([]types.Result, 0, len(set.SubRules)),
	}

	for _, sub := range set.SubRules {
		subResult, err := ev.registry.dispatch(sub, courses)
		if err != nil {
			return nil, err
		}
		result.SubResults = append(result.SubResults, subResult)
	}

	if set.SubRuleLogic == types.LogicAnd {
		result.IsValid = true
		for _, sub := range result.SubResults {
			if !sub.Valid() {
				result.IsValid = false
				break
			}
		}
	} else {
		result.IsValid = false
		for _, sub := range result.SubResults {
			if sub.Valid() {
				result.IsValid = true
				break
			}
		}
	}

	for _, sub := range result.SubResults {
		result.EarnedCredits += sub.Credits()
	}

	return result, nil
}
