// Package roster reads the registrar's transcript export (one spreadsheet
// row per course taken) and turns it into student documents. The export uses
// a fixed set of Chinese column headers; rows that fail validation are
// skipped with a warning rather than aborting the whole import.
package roster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ncku-csie/gradaudit/internal/types"
)

// Column headers of the registrar export. The importer locates columns by
// header text, so column order in the file does not matter.
const (
	colStudentID  = "學號"
	colName       = "姓名"
	colCourseName = "課程名稱"
	colCourseCode = "課程碼"
	colCredit     = "學分數"
	colGrade      = "成績"
	colCategory   = "承抵課程別"
	colCourseType = "選必修(0,1必修，2選修)"
	colYear       = "學年"
	colSemester   = "學期"
)

// requiredColumns must all be present in the header row.
var requiredColumns = []string{
	colStudentID, colName, colCourseName, colCourseCode,
	colCredit, colGrade, colCourseType, colYear, colSemester,
}

// ErrNoHeaderRow indicates a sheet without any rows.
var ErrNoHeaderRow = errors.New("roster sheet has no header row")

// Importer converts registrar spreadsheets into students.
type Importer struct {
	logger *slog.Logger
}

// NewImporter returns an Importer logging skipped rows to the given logger.
func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{logger: logger}
}

// Read parses an xlsx export from r. It groups rows by student id, in
// first-seen order, and derives each student's major and admission year
// from the id itself (department prefix and the three-digit year after the
// degree digit, e.g. F7-4-112-9040). Rows that cannot be parsed or fail
// validation are logged and skipped; a missing required header is fatal.
func (im *Importer) Read(r io.Reader) ([]*types.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening roster workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeaderRow
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*types.Student)
	var order []string
	for i, row := range rows[1:] {
		rowNum := i + 2
		id := cell(row, cols[colStudentID])
		if id == "" {
			im.logger.Warn("skipping roster row with empty student id", "row", rowNum)
			continue
		}
		course, err := parseCourseRow(row, cols)
		if err != nil {
			im.logger.Warn("skipping roster row",
				"row", rowNum, "student_id", id, "error", err)
			continue
		}

		student, ok := byID[id]
		if !ok {
			student = &types.Student{
				Name:          cell(row, cols[colName]),
				ID:            id,
				Major:         majorFromID(id),
				AdmissionYear: admissionYearFromID(id),
			}
			byID[id] = student
			order = append(order, id)
		}
		student.Courses = append(student.Courses, course)
	}

	students := make([]*types.Student, 0, len(order))
	for _, id := range order {
		student := byID[id]
		if err := student.Validate(); err != nil {
			im.logger.Warn("skipping invalid student",
				"student_id", id, "error", err)
			continue
		}
		students = append(students, student)
	}
	return students, nil
}

// headerIndex maps header text to column index and checks that every
// required column exists. The category column is optional: older exports
// omit it and every line then counts as unclassified.
func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("roster header missing column %q", name)
		}
	}
	if _, ok := cols[colCategory]; !ok {
		cols[colCategory] = -1
	}
	return cols, nil
}

// parseCourseRow builds one transcript line. A blank grade means the course
// is still in progress.
func parseCourseRow(row []string, cols map[string]int) (*types.StudentCourse, error) {
	name := cell(row, cols[colCourseName])
	code := cell(row, cols[colCourseCode])
	credit, err := strconv.ParseFloat(cell(row, cols[colCredit]), 64)
	if err != nil {
		return nil, fmt.Errorf("parsing credit: %w", err)
	}

	grade := types.GradeInProgress
	if g := cell(row, cols[colGrade]); g != "" {
		grade, err = strconv.Atoi(g)
		if err != nil {
			return nil, fmt.Errorf("parsing grade: %w", err)
		}
	}

	courseType, err := strconv.Atoi(cell(row, cols[colCourseType]))
	if err != nil {
		return nil, fmt.Errorf("parsing course type: %w", err)
	}
	year, err := strconv.Atoi(cell(row, cols[colYear]))
	if err != nil {
		return nil, fmt.Errorf("parsing year: %w", err)
	}
	semester, err := strconv.Atoi(cell(row, cols[colSemester]))
	if err != nil {
		return nil, fmt.Errorf("parsing semester: %w", err)
	}

	category := cell(row, cols[colCategory])
	if category == "" {
		category = " "
	}

	course := &types.StudentCourse{
		BaseCourse: types.BaseCourse{
			CourseName:  name,
			CourseCodes: []string{code},
			Credit:      credit,
			CourseType:  courseType,
		},
		Grade:         grade,
		Category:      category,
		YearTaken:     year,
		SemesterTaken: semester,
	}
	if err := course.Validate(); err != nil {
		return nil, err
	}
	return course, nil
}

// cell returns the trimmed value at index i, or "" when the row is shorter
// than the header (trailing empty cells are dropped by the xlsx reader).
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// majorFromID extracts the department prefix from a student id: the leading
// run of one letter plus digits-or-letters up to the degree digit, which in
// practice is the first two characters.
func majorFromID(id string) string {
	if len(id) < 2 {
		return ""
	}
	return id[:2]
}

// admissionYearFromID extracts the three-digit admission year that follows
// the department prefix and degree digit (e.g. F74112040 -> 112). Returns 0
// when the id is too short or not numeric there.
func admissionYearFromID(id string) int {
	if len(id) < 6 {
		return 0
	}
	year, err := strconv.Atoi(id[3:6])
	if err != nil {
		return 0
	}
	return year
}
