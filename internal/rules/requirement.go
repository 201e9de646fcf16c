// internal/rules/requirement.go
package rules

import (
	"github.com/ncku-csie/gradaudit/internal/types"
)

/*
 * Requirement policy.
 *
 * Converts the raw accumulator of a rule node (total matched credits, total
 * matched count) into the node's final validity and reported credits.
 *
 * Capping requirements (max_credits, max_courses, credit_range) adjust the
 * reported credit value without removing recorded matches: the result still
 * lists every matched course, the excess simply stops counting toward the
 * total. max_courses triggers on the course count but caps the credit value,
 * mirroring max_credits.
 *
 * prerequisite mirrors all's completion check but always reports 0 credits:
 * prerequisite courses gate later rules, they do not earn toward the total.
 *
 * credit_range bounds are enforced at rule construction; the re-check here
 * fails loudly instead of defaulting so corrupted stored data cannot slip
 * through as a silent pass.
 */

// ApplyRequirement computes validity and reported credits for a node.
// requiredCount is the length of the leaf's explicit course list; it is only
// consulted by the all and prerequisite variants.
func ApplyRequirement(req *types.Requirement, totalCredits float64, matchedCount, requiredCount int) (bool, float64, error) {
	switch req.Type {
	case types.RequirementAll:
		return matchedCount == requiredCount, totalCredits, nil

	case types.RequirementMinCredits:
		return totalCredits >= *req.MinCredits, totalCredits, nil

	case types.RequirementMaxCredits:
		if totalCredits > *req.MaxCredits {
			return true, *req.MaxCredits, nil
		}
		return true, totalCredits, nil

	case types.RequirementMinCourses:
		return matchedCount >= *req.MinCourses, totalCredits, nil

	case types.RequirementMaxCourses:
		if matchedCount > *req.MaxCourses {
			return true, min(totalCredits, float64(*req.MaxCourses)), nil
		}
		return true, totalCredits, nil

	case types.RequirementPrerequisite:
		return matchedCount == requiredCount, 0, nil

	case types.RequirementCreditRange:
		if req.MinCredits == nil || req.MaxCredits == nil {
			return false, 0, types.ErrCreditRangeBounds
		}
		valid := totalCredits >= *req.MinCredits && totalCredits <= *req.MaxCredits
		return valid, clamp(totalCredits, *req.MinCredits, *req.MaxCredits), nil

	default:
		return false, 0, &types.UnknownRequirementTypeError{Tag: string(req.Type)}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
