// Package types provides domain models shared across gradaudit components.
//
// Zero-dependency design: course, rule, and result types use only
// encoding/json so the evaluation engine stays free of storage and transport
// concerns. ID utilities in ids.go import uuid but are isolated for selective
// inclusion.
//
// Rule and Result are closed sum types: decoding rejects unknown
// discriminator tags instead of deferring the failure to evaluation time.
package types

import "strings"

// Grade sentinel values used by the registrar in place of a 0-100 score.
const (
	// GradeWithdrawn marks a course the student withdrew from.
	GradeWithdrawn = 111

	// GradeWaived marks a course credited through transfer or exemption.
	GradeWaived = 555

	// GradeDropped marks a course dropped mid-term.
	GradeDropped = 777

	// GradeInProgress marks a course still being taken this term.
	GradeInProgress = 999
)

// PassingGrade is the lowest score that counts as a pass.
const PassingGrade = 60

// Course type values (course_type field). 0 and 1 are the two required
// flavors the registrar distinguishes, 2 is elective, 3 is general education.
const (
	CourseTypeRequiredMajor = 0
	CourseTypeRequired      = 1
	CourseTypeElective      = 2
	CourseTypeGeneral       = 3
)

// validCategories holds the single-character credit-transfer classification
// codes accepted on a transcript line. A space means no classification.
const validCategories = " ABDEFJKLNPQRSTUXYZ"

// BaseCourse is immutable catalog reference data embedded inside rules.
type BaseCourse struct {
	CourseName  string   `json:"course_name"`
	CourseCodes []string `json:"course_codes"`
	Credit      float64  `json:"credit"`
	CourseType  int      `json:"course_type"`
	Tag         []string `json:"tag"`
}

// Validate checks the catalog-course invariants: non-empty name, at least
// one unique code, non-negative credit, known course type.
func (c *BaseCourse) Validate() error {
	if strings.TrimSpace(c.CourseName) == "" {
		return ErrEmptyCourseName
	}
	if len(c.CourseCodes) == 0 {
		return ErrEmptyCourseCodes
	}
	seen := make(map[string]bool, len(c.CourseCodes))
	for _, code := range c.CourseCodes {
		if seen[code] {
			return ErrDuplicateCourseCode
		}
		seen[code] = true
	}
	if c.Credit < 0 {
		return ErrNegativeCredit
	}
	if c.CourseType < 0 || c.CourseType > 3 {
		return ErrInvalidCourseType
	}
	return nil
}

// StudentCourse is one transcript line: a completed (or in-progress)
// instance of a course.
//
// Recognized is a per-evaluation-run marker: true once some rule has claimed
// this course during the current Evaluator.Evaluate call. The evaluator
// resets it to false at the start of every run, so it never carries state
// between calls. It is serialized for parity with stored student files but
// its persisted value is ignored.
type StudentCourse struct {
	BaseCourse
	Grade         int    `json:"grade"`
	Category      string `json:"category"`
	YearTaken     int    `json:"year_taken"`
	SemesterTaken int    `json:"semester_taken"`
	Recognized    bool   `json:"recognized"`
}

// Validate checks the transcript-line invariants on top of the catalog ones.
func (c *StudentCourse) Validate() error {
	if err := c.BaseCourse.Validate(); err != nil {
		return err
	}
	if (c.Grade < 0 || c.Grade > 100) &&
		c.Grade != GradeWithdrawn && c.Grade != GradeWaived &&
		c.Grade != GradeDropped && c.Grade != GradeInProgress {
		return ErrInvalidGrade
	}
	if len(c.Category) != 1 || !strings.Contains(validCategories, c.Category) {
		return ErrInvalidCategory
	}
	if c.SemesterTaken < 0 || c.SemesterTaken > 2 {
		return ErrInvalidSemester
	}
	return nil
}

// GradePassing reports whether a grade counts as acceptable for matching:
// a real pass (60-100), a waived credit, or an in-progress course.
func GradePassing(grade int) bool {
	if grade >= PassingGrade && grade <= 100 {
		return true
	}
	return grade == GradeWaived || grade == GradeInProgress
}

// Student is identity plus transcript. Courses are pointers on purpose: one
// evaluation run mutates the Recognized flag on the exact course objects the
// caller passed in (sequential calls are safe, concurrent calls sharing a
// slice are not).
type Student struct {
	Name          string           `json:"name"`
	ID            string           `json:"id"`
	Major         string           `json:"major"`
	AdmissionYear int              `json:"admission_year"`
	Courses       []*StudentCourse `json:"courses"`
}

// Validate checks student identity and every transcript line.
func (s *Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyStudentName
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyStudentID
	}
	for _, c := range s.Courses {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
