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

// StoredResult is one persisted audit outcome. Data holds the full review
// document: one entry per reviewed category ("main", "double_major_<dept>",
// "minor_<dept>"), each a result tree or null.
type StoredResult struct {
	ResultID  types.ResultID  `json:"result_id"`
	StudentID string          `json:"student_id"`
	Category  string          `json:"category"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// ResultStore persists audit outcomes keyed by UUIDv7, so rows for one
// student cluster in insertion order.
type ResultStore struct {
	queries *db.Queries
}

// NewResultStore wraps the loaded query set.
func NewResultStore(queries *db.Queries) *ResultStore {
	return &ResultStore{queries: queries}
}

type resultRow struct {
	ResultID  string `db:"result_id"`
	StudentID string `db:"student_id"`
	Category  string `db:"category"`
	Data      string `db:"data"`
	CreatedAt string `db:"created_at"`
}

// Save stores one review document and returns its generated ID.
func (s *ResultStore) Save(studentID, category string, doc json.RawMessage) (types.ResultID, error) {
	id := types.NewResultID()
	_, err := s.queries.Exec("insert-result",
		string(id), studentID, category, string(doc),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("storing result for %s: %w", studentID, err)
	}
	return id, nil
}

// Get loads one stored result by ID.
func (s *ResultStore) Get(id types.ResultID) (*StoredResult, error) {
	var row resultRow
	if err := s.queries.Get("get-result", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("result %s: %w", id, types.ErrResultNotFound)
		}
		return nil, err
	}
	return decodeResultRow(row)
}

// ListForStudent returns a student's stored results, newest first.
func (s *ResultStore) ListForStudent(studentID string) ([]*StoredResult, error) {
	var rows []resultRow
	if err := s.queries.Select("list-results-for-student", &rows, studentID); err != nil {
		return nil, err
	}
	results := make([]*StoredResult, 0, len(rows))
	for _, row := range rows {
		sr, err := decodeResultRow(row)
		if err != nil {
			return nil, err
		}
		results = append(results, sr)
	}
	return results, nil
}

func decodeResultRow(row resultRow) (*StoredResult, error) {
	id, err := types.ParseResultID(row.ResultID)
	if err != nil {
		return nil, fmt.Errorf("stored result has malformed id %q: %w", row.ResultID, err)
	}
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("stored result %s has malformed timestamp: %w", row.ResultID, err)
	}
	return &StoredResult{
		ResultID:  id,
		StudentID: row.StudentID,
		Category:  row.Category,
		Data:      json.RawMessage(row.Data),
		CreatedAt: createdAt,
	}, nil
}
