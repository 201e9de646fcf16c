package rules

import (
	"testing"

	"github.com/ncku-csie/gradaudit/internal/types"
)

func transcriptCourse(name, code string, credit float64, grade, year, semester int) *types.StudentCourse {
	return &types.StudentCourse{
		BaseCourse: types.BaseCourse{
			CourseName:  name,
			CourseCodes: []string{code},
			Credit:      credit,
			CourseType:  types.CourseTypeRequired,
		},
		Grade:         grade,
		Category:      " ",
		YearTaken:     year,
		SemesterTaken: semester,
	}
}

func TestLeaf_MinCreditsShort(t *testing.T) {
	// Three in-department 3-credit passes plus one out-of-department course:
	// only the in-department credits count, 9 < 12.
	rule := &types.RuleAll{
		Name:           "dept electives",
		CourseCriteria: types.CourseCriteria{DepartmentCodes: []string{"E2"}},
		Requirement:    types.Requirement{Type: types.RequirementMinCredits, MinCredits: floatPtr(12)},
	}
	courses := []*types.StudentCourse{
		transcriptCourse("資料結構", "E210001", 3, 70, 110, 1),
		transcriptCourse("演算法", "E210002", 3, 70, 110, 2),
		transcriptCourse("作業系統", "E210003", 3, 70, 111, 1),
		transcriptCourse("熱力學", "N210001", 3, 80, 111, 1),
	}

	result, err := NewEvaluator().Evaluate(rule, courses)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	leaf, ok := result.(*types.AllResult)
	if !ok {
		t.Fatalf("result type = %T, want *AllResult", result)
	}
	if leaf.IsValid {
		t.Errorf("IsValid = true, want false")
	}
	if leaf.EarnedCredits != 9 {
		t.Errorf("EarnedCredits = %v, want 9", leaf.EarnedCredits)
	}
	if len(leaf.FinishedCourseList) != 3 {
		t.Errorf("matched %d courses, want 3", len(leaf.FinishedCourseList))
	}
}

func TestLeaf_MinCreditsMet(t *testing.T) {
	rule := &types.RuleAll{
		Name:           "dept electives",
		CourseCriteria: types.CourseCriteria{DepartmentCodes: []string{"E2"}},
		Requirement:    types.Requirement{Type: types.RequirementMinCredits, MinCredits: floatPtr(12)},
	}
	courses := []*types.StudentCourse{
		transcriptCourse("資料結構", "E210001", 3, 70, 110, 1),
		transcriptCourse("演算法", "E210002", 3, 70, 110, 2),
		transcriptCourse("作業系統", "E210003", 3, 70, 111, 1),
		transcriptCourse("編譯器", "E210004", 3, 75, 111, 2),
		transcriptCourse("熱力學", "N210001", 3, 80, 111, 1),
	}

	result, err := NewEvaluator().Evaluate(rule, courses)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	if !result.Valid() {
		t.Errorf("Valid() = false, want true")
	}
	if result.Credits() != 12 {
		t.Errorf("Credits() = %v, want 12", result.Credits())
	}
}

func TestLeaf_ExternalSubstitution(t *testing.T) {
	// Failed in-department attempt, later passing out-of-department attempt
	// with the same name: the original is credited as external-substitute
	// with the original's credit, and both attempts are consumed.
	rule := &types.RuleAll{
		Name:       "required core",
		CourseList: []string{"電路學"},
		CourseCriteria: types.CourseCriteria{
			DepartmentCodes:                  []string{"E2"},
			AllowExternalSubstituteAfterFail: true,
		},
		Requirement: types.Requirement{Type: types.RequirementAll},
	}
	failed := transcriptCourse("電路學", "E220001", 3, 55, 110, 1)
	substitute := transcriptCourse("電路學", "N220001", 2, 80, 110, 2)
	courses := []*types.StudentCourse{failed, substitute}

	result, err := NewEvaluator().Evaluate(rule, courses)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	leaf := result.(*types.AllResult)

	if len(leaf.FinishedCourseList) != 1 {
		t.Fatalf("matched %d courses, want 1", len(leaf.FinishedCourseList))
	}
	rc := leaf.FinishedCourseList[0]
	if rc.Status != types.StatusExternalSubstitute {
		t.Errorf("Status = %q, want %q", rc.Status, types.StatusExternalSubstitute)
	}
	if rc.Credit != 3 {
		t.Errorf("Credit = %v, want the failing course's 3", rc.Credit)
	}
	if rc.CourseCodes[0] != "E220001" {
		t.Errorf("CourseCodes = %v, want the failing course's codes", rc.CourseCodes)
	}
	if !failed.Recognized || !substitute.Recognized {
		t.Errorf("Recognized = (%v, %v), want both true", failed.Recognized, substitute.Recognized)
	}
	if !leaf.IsValid {
		t.Errorf("IsValid = false, want true")
	}
	if leaf.EarnedCredits != 3 {
		t.Errorf("EarnedCredits = %v, want 3", leaf.EarnedCredits)
	}
}

func TestLeaf_SubstitutionNeedsPassingAttempt(t *testing.T) {
	rule := &types.RuleAll{
		Name:       "required core",
		CourseList: []string{"電路學"},
		CourseCriteria: types.CourseCriteria{
			DepartmentCodes:                  []string{"E2"},
			AllowExternalSubstituteAfterFail: true,
		},
		Requirement: types.Requirement{Type: types.RequirementAll},
	}
	courses := []*types.StudentCourse{
		transcriptCourse("電路學", "E220001", 3, 55, 110, 1),
		transcriptCourse("電路學", "N220001", 3, 40, 110, 2),
	}

	result, err := NewEvaluator().Evaluate(rule, courses)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	leaf := result.(*types.AllResult)
	if len(leaf.FinishedCourseList) != 0 {
		t.Errorf("matched %d courses, want 0", len(leaf.FinishedCourseList))
	}
	if leaf.IsValid {
		t.Errorf("IsValid = true, want false")
	}
}

func TestLeaf_SubstitutionSimulationStillChecksCriteria(t *testing.T) {
	// The failed attempt is outside the required department: clamping its
	// grade to 60 cannot fix the department check, so no substitution.
	rule := &types.RuleAll{
		Name:       "required core",
		CourseList: []string{"電路學"},
		CourseCriteria: types.CourseCriteria{
			DepartmentCodes:                  []string{"E2"},
			AllowExternalSubstituteAfterFail: true,
		},
		Requirement: types.Requirement{Type: types.RequirementAll},
	}
	courses := []*types.StudentCourse{
		transcriptCourse("電路學", "N220001", 3, 55, 110, 1),
		transcriptCourse("電路學", "N220002", 3, 80, 110, 2),
	}

	result, err := NewEvaluator().Evaluate(rule, courses)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	leaf := result.(*types.AllResult)
	if len(leaf.FinishedCourseList) != 0 {
		t.Errorf("matched %d courses, want 0", len(leaf.FinishedCourseList))
	}
}

func TestLeaf_PrerequisiteReportsZeroCredits(t *testing.T) {
	rule := &types.RuleAll{
		Name:           "prerequisites",
		CourseList:     []string{"微積分（一）", "微積分（二）"},
		CourseCriteria: types.CourseCriteria{},
		Requirement:    types.Requirement{Type: types.RequirementPrerequisite},
	}
	courses := []*types.StudentCourse{
		transcriptCourse("微積分（一）", "E210010", 4, 82, 110, 1),
	}

	result, err := NewEvaluator().Evaluate(rule, courses)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	leaf := result.(*types.AllResult)
	if leaf.IsValid {
		t.Errorf("IsValid = true, want false with 1 of 2 matched")
	}
	if leaf.EarnedCredits != 0 {
		t.Errorf("EarnedCredits = %v, want 0", leaf.EarnedCredits)
	}
	if len(leaf.FinishedCourseList) != 1 {
		t.Errorf("matched %d courses, want 1", len(leaf.FinishedCourseList))
	}
}

func TestLeaf_ListedNameWithNoCandidates(t *testing.T) {
	// A listed name nobody took contributes nothing; the requirement's
	// count check is the only signal.
	rule := &types.RuleAll{
		Name:           "required core",
		CourseList:     []string{"線性代數"},
		CourseCriteria: types.CourseCriteria{},
		Requirement:    types.Requirement{Type: types.RequirementAll},
	}

	result, err := NewEvaluator().Evaluate(rule, []*types.StudentCourse{
		transcriptCourse("普通物理", "E210020", 3, 90, 110, 1),
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	leaf := result.(*types.AllResult)
	if leaf.IsValid {
		t.Errorf("IsValid = true, want false")
	}
	if len(leaf.FinishedCourseList) != 0 {
		t.Errorf("matched %d courses, want 0", len(leaf.FinishedCourseList))
	}
	if leaf.RequiredCourseList == nil || leaf.RequiredCourseList[0] != "線性代數" {
		t.Errorf("RequiredCourseList = %v, want the rule's list", leaf.RequiredCourseList)
	}
}

func TestLeaf_StatusDerivation(t *testing.T) {
	rule := &types.RuleAll{
		Name:           "anything",
		CourseCriteria: types.CourseCriteria{},
		Requirement:    types.Requirement{Type: types.RequirementMinCredits, MinCredits: floatPtr(0)},
	}
	courses := []*types.StudentCourse{
		transcriptCourse("修課中課程", "E210030", 3, types.GradeInProgress, 112, 1),
		transcriptCourse("抵免課程", "E210031", 2, types.GradeWaived, 110, 0),
		transcriptCourse("及格課程", "E210032", 3, 61, 111, 2),
	}

	result, err := NewEvaluator().Evaluate(rule, courses)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	leaf := result.(*types.AllResult)
	want := map[string]string{
		"修課中課程": types.StatusInProgress,
		"抵免課程":  types.StatusCreditWaived,
		"及格課程":  types.StatusPassed,
	}
	for _, rc := range leaf.FinishedCourseList {
		if rc.Status != want[rc.CourseName] {
			t.Errorf("%s status = %q, want %q", rc.CourseName, rc.Status, want[rc.CourseName])
		}
	}
}
