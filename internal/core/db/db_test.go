package db

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *Queries {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := Open("sqlite://" + path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	q, err := LoadQueries(conn)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v", err)
	}
	return q
}

func TestOpen_RejectsUnknownScheme(t *testing.T) {
	_, err := Open("mysql://localhost/gradaudit")
	if err == nil || !strings.Contains(err.Error(), "unsupported database scheme") {
		t.Fatalf("Open() error = %v, want unsupported scheme", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := Open("sqlite://" + path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("first MigrateUp() error = %v", err)
	}
	if err := MigrateUp(conn); err != nil {
		t.Fatalf("second MigrateUp() error = %v", err)
	}

	statuses, err := MigrateStatus(conn)
	if err != nil {
		t.Fatalf("MigrateStatus() error = %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("no migrations found")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %s not applied", s.ID)
		}
	}
}

func TestQueries_StudentRoundTrip(t *testing.T) {
	q := openTestDB(t)

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := q.Exec("upsert-student", "F74109040", "王小明", "F7", 110, `{"courses":[]}`, now)
	if err != nil {
		t.Fatalf("upsert-student error = %v", err)
	}

	// Upsert again with a new major; the row must be replaced, not duplicated.
	_, err = q.Exec("upsert-student", "F74109040", "王小明", "E2", 110, `{"courses":[]}`, now)
	if err != nil {
		t.Fatalf("second upsert-student error = %v", err)
	}

	var row struct {
		StudentID     string `db:"student_id"`
		Name          string `db:"name"`
		Major         string `db:"major"`
		AdmissionYear int    `db:"admission_year"`
		Data          string `db:"data"`
		UpdatedAt     string `db:"updated_at"`
	}
	if err := q.Get("get-student", &row, "F74109040"); err != nil {
		t.Fatalf("get-student error = %v", err)
	}
	if row.Major != "E2" {
		t.Errorf("Major = %q, want E2 after upsert", row.Major)
	}

	var rows []struct {
		StudentID     string `db:"student_id"`
		Name          string `db:"name"`
		Major         string `db:"major"`
		AdmissionYear int    `db:"admission_year"`
		Data          string `db:"data"`
		UpdatedAt     string `db:"updated_at"`
	}
	if err := q.Select("list-students", &rows); err != nil {
		t.Fatalf("list-students error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d students, want 1", len(rows))
	}
}

func TestQueries_UnknownName(t *testing.T) {
	q := openTestDB(t)
	if _, err := q.Exec("no-such-query"); err == nil {
		t.Error("Exec() with unknown query name succeeded, want error")
	}
}
