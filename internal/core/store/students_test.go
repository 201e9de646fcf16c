package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ncku-csie/gradaudit/internal/core/db"
	"github.com/ncku-csie/gradaudit/internal/types"
)

func openTestQueries(t *testing.T) *db.Queries {
	t.Helper()
	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "store_test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	q, err := db.LoadQueries(conn)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v", err)
	}
	return q
}

func sampleStudent() *types.Student {
	return &types.Student{
		ID:            "F74109040",
		Name:          "王小明",
		Major:         "F7",
		AdmissionYear: 110,
		Courses: []*types.StudentCourse{{
			BaseCourse: types.BaseCourse{
				CourseName:  "資料結構",
				CourseCodes: []string{"F710001"},
				Credit:      3,
				CourseType:  types.CourseTypeRequired,
			},
			Grade:         85,
			Category:      " ",
			YearTaken:     110,
			SemesterTaken: 1,
		}},
	}
}

func TestStudentStore_RoundTrip(t *testing.T) {
	students := NewStudentStore(openTestQueries(t))

	if err := students.Put(sampleStudent()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := students.Get("F74109040")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "王小明" || len(got.Courses) != 1 {
		t.Errorf("Get() = %+v, want the stored student with 1 course", got)
	}
	if got.Courses[0].CourseName != "資料結構" {
		t.Errorf("course name = %q", got.Courses[0].CourseName)
	}

	list, err := students.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != "F74109040" {
		t.Errorf("List() = %+v, want 1 entry", list)
	}
}

func TestStudentStore_GetMissing(t *testing.T) {
	students := NewStudentStore(openTestQueries(t))
	if _, err := students.Get("nobody"); !errors.Is(err, types.ErrStudentNotFound) {
		t.Errorf("Get() error = %v, want ErrStudentNotFound", err)
	}
}

func TestStudentStore_PutRejectsInvalid(t *testing.T) {
	students := NewStudentStore(openTestQueries(t))
	s := sampleStudent()
	s.ID = ""
	if err := students.Put(s); !errors.Is(err, types.ErrEmptyStudentID) {
		t.Errorf("Put() error = %v, want ErrEmptyStudentID", err)
	}
}

func TestResultStore_SaveAndList(t *testing.T) {
	q := openTestQueries(t)
	students := NewStudentStore(q)
	results := NewResultStore(q)

	if err := students.Put(sampleStudent()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	doc := json.RawMessage(`{"main": {"result_type": "rule_all", "name": "core", "is_valid": true}}`)
	id, err := results.Save("F74109040", "main", doc)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := results.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.StudentID != "F74109040" || got.Category != "main" {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := results.Save("F74109040", "main", doc); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	list, err := results.ListForStudent("F74109040")
	if err != nil {
		t.Fatalf("ListForStudent() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("ListForStudent() returned %d results, want 2", len(list))
	}
}

func TestResultStore_GetMissing(t *testing.T) {
	results := NewResultStore(openTestQueries(t))
	if _, err := results.Get(types.NewResultID()); !errors.Is(err, types.ErrResultNotFound) {
		t.Errorf("Get() error = %v, want ErrResultNotFound", err)
	}
}

func TestStudentStore_DeleteCascades(t *testing.T) {
	q := openTestQueries(t)
	students := NewStudentStore(q)
	results := NewResultStore(q)

	if err := students.Put(sampleStudent()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := results.Save("F74109040", "main", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := students.Delete("F74109040"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := students.Get("F74109040"); !errors.Is(err, types.ErrStudentNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrStudentNotFound", err)
	}
	list, err := results.ListForStudent("F74109040")
	if err != nil {
		t.Fatalf("ListForStudent() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("results not deleted with student: %d remain", len(list))
	}
}
