package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for gradaudit data validation and lookup.
var (
	// ErrEmptyCourseName indicates a course without a name.
	ErrEmptyCourseName = errors.New("course name must not be empty")

	// ErrEmptyCourseCodes indicates a course without any course code.
	ErrEmptyCourseCodes = errors.New("course code list must not be empty")

	// ErrDuplicateCourseCode indicates a repeated code within one course.
	ErrDuplicateCourseCode = errors.New("course code list contains duplicates")

	// ErrNegativeCredit indicates a credit value below zero.
	ErrNegativeCredit = errors.New("credit must not be negative")

	// ErrInvalidCourseType indicates a course_type outside 0..3.
	ErrInvalidCourseType = errors.New("course type must be 0, 1, 2 or 3")

	// ErrInvalidGrade indicates a grade outside 0-100 and the sentinel set.
	ErrInvalidGrade = errors.New("grade must be 0-100 or one of 111, 555, 777, 999")

	// ErrInvalidCategory indicates an unknown credit-transfer category code.
	ErrInvalidCategory = errors.New("invalid credit-transfer category")

	// ErrInvalidSemester indicates a semester_taken outside 0..2.
	ErrInvalidSemester = errors.New("semester must be 0, 1 or 2")

	// ErrEmptyStudentName indicates a student without a name.
	ErrEmptyStudentName = errors.New("student name must not be empty")

	// ErrEmptyStudentID indicates a student without an identifier.
	ErrEmptyStudentID = errors.New("student id must not be empty")

	// ErrEmptyRuleName indicates a rule without a name.
	ErrEmptyRuleName = errors.New("rule name must not be empty")

	// ErrEmptyCourseList indicates an explicit course list with no entries.
	ErrEmptyCourseList = errors.New("course list must not be empty")

	// ErrEmptySubRules indicates a composite rule with no children.
	ErrEmptySubRules = errors.New("sub rule list must not be empty")

	// ErrInvalidSubRuleLogic indicates a combinator other than AND/OR.
	ErrInvalidSubRuleLogic = errors.New("sub rule logic must be AND or OR")

	// ErrRuleCycle indicates a rule tree that contains itself.
	ErrRuleCycle = errors.New("rule tree contains a cycle")

	// ErrRequirementFields indicates fields set that do not belong to the
	// requirement's declared variant.
	ErrRequirementFields = errors.New("requirement fields do not match its type")

	// ErrCreditRangeBounds indicates a credit_range requirement missing min
	// or max. Re-checked by the policy at evaluation time to fail loudly on
	// corrupted data instead of defaulting.
	ErrCreditRangeBounds = errors.New("credit range requires both min_credits and max_credits")

	// ErrRuleNotFound indicates no stored rule matched dept/year/category.
	ErrRuleNotFound = errors.New("no applicable rule found")

	// ErrRuleExists indicates a create over an already stored rule.
	ErrRuleExists = errors.New("rule already exists")

	// ErrStudentNotFound indicates an unknown student identifier.
	ErrStudentNotFound = errors.New("student not found")

	// ErrResultNotFound indicates an unknown stored result identifier.
	ErrResultNotFound = errors.New("result not found")

	// ErrDepartmentNotFound indicates an unknown department code.
	ErrDepartmentNotFound = errors.New("department not found")
)

// UnknownRuleTypeError reports a rule discriminator tag with no registered
// evaluator, or an unknown tag encountered during decoding. It carries the
// offending tag for diagnostics.
type UnknownRuleTypeError struct {
	Tag string
}

func (e *UnknownRuleTypeError) Error() string {
	return fmt.Sprintf("unknown rule type: %q", e.Tag)
}

// UnknownRequirementTypeError reports an unrecognized requirement type tag.
type UnknownRequirementTypeError struct {
	Tag string
}

func (e *UnknownRequirementTypeError) Error() string {
	return fmt.Sprintf("unknown requirement type: %q", e.Tag)
}
