package rules

import "github.com/ncku-csie/gradaudit/internal/types"

// GradeStatus maps a grade to the human-readable status recorded on matched
// result courses. Withdrawn and dropped sentinels fall through to unknown;
// they never reach a matched entry because the matcher rejects them.
func GradeStatus(grade int) string {
	switch {
	case grade == types.GradeInProgress:
		return types.StatusInProgress
	case grade == types.GradeWaived:
		return types.StatusCreditWaived
	case grade >= types.PassingGrade && grade <= 100:
		return types.StatusPassed
	case grade >= 0 && grade < types.PassingGrade:
		return types.StatusFailed
	default:
		return types.StatusUnknown
	}
}
