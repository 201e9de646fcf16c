package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ncku-csie/gradaudit/internal/core/db"
	"github.com/ncku-csie/gradaudit/internal/types"
)

// StudentStore persists students as JSON documents. The relational columns
// duplicate the fields needed for listing; the data column holds the whole
// record including the course list.
type StudentStore struct {
	queries *db.Queries
}

// NewStudentStore wraps the loaded query set.
func NewStudentStore(queries *db.Queries) *StudentStore {
	return &StudentStore{queries: queries}
}

type studentRow struct {
	StudentID     string `db:"student_id"`
	Name          string `db:"name"`
	Major         string `db:"major"`
	AdmissionYear int    `db:"admission_year"`
	Data          string `db:"data"`
	UpdatedAt     string `db:"updated_at"`
}

// Put validates and upserts one student record.
func (s *StudentStore) Put(student *types.Student) error {
	if err := student.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(student)
	if err != nil {
		return err
	}
	_, err = s.queries.Exec("upsert-student",
		student.ID, student.Name, student.Major, student.AdmissionYear,
		string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing student %s: %w", student.ID, err)
	}
	return nil
}

// Get loads one student, courses included.
func (s *StudentStore) Get(id string) (*types.Student, error) {
	var row studentRow
	if err := s.queries.Get("get-student", &row, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("student %s: %w", id, types.ErrStudentNotFound)
		}
		return nil, err
	}
	var student types.Student
	if err := json.Unmarshal([]byte(row.Data), &student); err != nil {
		return nil, fmt.Errorf("decoding student %s: %w", id, err)
	}
	return &student, nil
}

// List returns every stored student without course lists; callers wanting
// the transcript use Get.
func (s *StudentStore) List() ([]types.Student, error) {
	var rows []studentRow
	if err := s.queries.Select("list-students", &rows); err != nil {
		return nil, err
	}
	students := make([]types.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, types.Student{
			ID:            row.StudentID,
			Name:          row.Name,
			Major:         row.Major,
			AdmissionYear: row.AdmissionYear,
		})
	}
	return students, nil
}

// Delete removes a student and their stored results.
func (s *StudentStore) Delete(id string) error {
	if _, err := s.queries.Exec("delete-results-for-student", id); err != nil {
		return err
	}
	res, err := s.queries.Exec("delete-student", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("student %s: %w", id, types.ErrStudentNotFound)
	}
	return nil
}
