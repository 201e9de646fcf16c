package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ncku-csie/gradaudit/internal/core/db"
	"github.com/ncku-csie/gradaudit/internal/core/review"
	"github.com/ncku-csie/gradaudit/internal/core/store"
	"github.com/ncku-csie/gradaudit/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testRuleDoc = `{
	"rule_type": "rule_all",
	"name": "dept electives",
	"course_list": null,
	"course_criteria": {"department_codes": ["F7"]},
	"requirement": {"type": "min_credits", "min_credits": 3}
}`

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dataDir := t.TempDir()
	rulesDir := filepath.Join(dataDir, "rules")

	deptDir := filepath.Join(rulesDir, "F7")
	if err := os.MkdirAll(deptDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(deptDir, "110_major.json"), []byte(testRuleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	conn, err := db.Open("sqlite://" + filepath.Join(dataDir, "api_test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	queries, err := db.LoadQueries(conn)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v", err)
	}

	depts := store.Departments{
		"F7": {Name: "資訊工程學系", College: "電機資訊學院"},
		"E6": {Name: "電機工程學系", College: "電機資訊學院"},
	}
	ruleStore := store.NewRuleStore(rulesDir, nil)
	students := store.NewStudentStore(queries)
	results := store.NewResultStore(queries)
	reviews := review.NewService(ruleStore, depts, results, nil)

	if err := students.Put(&types.Student{
		ID:            "F74109040",
		Name:          "王小明",
		Major:         "F7",
		AdmissionYear: 112,
		Courses: []*types.StudentCourse{{
			BaseCourse: types.BaseCourse{
				CourseName:  "資料結構",
				CourseCodes: []string{"F710001"},
				Credit:      3,
				CourseType:  types.CourseTypeRequired,
			},
			Grade: 85, Category: " ", YearTaken: 112, SemesterTaken: 1,
		}},
	}); err != nil {
		t.Fatalf("seeding student failed: %v", err)
	}

	return NewRouter(NewHandlers(ruleStore, depts, students, results, reviews))
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_HandleHealth(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Status != "healthy" || resp.Version != ServiceVersion {
		t.Errorf("unexpected health body: %+v", resp)
	}
}

func TestHandlers_RuleCRUD(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "GET", "/v1/rules", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list rules status = %d", w.Code)
	}
	var list RuleListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(list.Rules))
	}

	w = doRequest(t, router, "GET", "/v1/rules/F7/110/major", "")
	if w.Code != http.StatusOK {
		t.Errorf("get rule status = %d", w.Code)
	}

	w = doRequest(t, router, "GET", "/v1/rules/F7/109/major", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing rule status = %d, want 404", w.Code)
	}

	// Create a minor rule, then conflict on re-create.
	w = doRequest(t, router, "POST", "/v1/rules/F7/112/minor", testRuleDoc)
	if w.Code != http.StatusCreated {
		t.Errorf("create rule status = %d, want 201: %s", w.Code, w.Body.String())
	}
	w = doRequest(t, router, "POST", "/v1/rules/F7/112/minor", testRuleDoc)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", w.Code)
	}

	w = doRequest(t, router, "PUT", "/v1/rules/F7/112/minor", testRuleDoc)
	if w.Code != http.StatusOK {
		t.Errorf("update rule status = %d, want 200", w.Code)
	}

	w = doRequest(t, router, "DELETE", "/v1/rules/F7/112/minor", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete rule status = %d, want 204", w.Code)
	}

	// Validation failures.
	w = doRequest(t, router, "POST", "/v1/rules/F7/112/bachelor", testRuleDoc)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad category status = %d, want 400", w.Code)
	}
	w = doRequest(t, router, "POST", "/v1/rules/ZZ/112/minor", testRuleDoc)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown department status = %d, want 400", w.Code)
	}
	w = doRequest(t, router, "POST", "/v1/rules/F7/113/minor", `{"rule_type": "rule_ccep"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown rule tag status = %d, want 400", w.Code)
	}
}

func TestHandlers_CreateRuleStoreFailure(t *testing.T) {
	rulesDir := t.TempDir()
	// A plain file where the department directory should go makes every
	// write under it fail.
	if err := os.WriteFile(filepath.Join(rulesDir, "E6"), []byte("blocked"), 0o644); err != nil {
		t.Fatal(err)
	}
	depts := store.Departments{"E6": {Name: "電機工程學系", College: "電機資訊學院"}}
	router := NewRouter(NewHandlers(store.NewRuleStore(rulesDir, nil), depts, nil, nil, nil))

	w := doRequest(t, router, "POST", "/v1/rules/E6/112/minor", testRuleDoc)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("create with failing store status = %d, want 500: %s", w.Code, w.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Code != "SAVE_FAILED" {
		t.Errorf("error code = %q, want SAVE_FAILED", resp.Code)
	}
}

func TestHandlers_Students(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "GET", "/v1/students/F74109040", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get student status = %d", w.Code)
	}
	var student types.Student
	if err := json.Unmarshal(w.Body.Bytes(), &student); err != nil {
		t.Fatal(err)
	}
	if student.Name != "王小明" || len(student.Courses) != 1 {
		t.Errorf("unexpected student: %+v", student)
	}

	w = doRequest(t, router, "GET", "/v1/students/nobody", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing student status = %d, want 404", w.Code)
	}

	w = doRequest(t, router, "PUT", "/v1/students/other", `{"id": "F74109040"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("mismatched id status = %d, want 400", w.Code)
	}

	w = doRequest(t, router, "DELETE", "/v1/students/F74109040", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete student status = %d, want 204", w.Code)
	}
}

func TestHandlers_ReviewFlow(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "POST", "/v1/review/F74109040", "")
	if w.Code != http.StatusOK {
		t.Fatalf("review status = %d: %s", w.Code, w.Body.String())
	}
	var resp ReviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	main, ok := resp.Results["main"]
	if !ok {
		t.Fatalf("review response missing main: %v", resp.Results)
	}
	decoded, err := types.UnmarshalResult(main)
	if err != nil {
		t.Fatalf("decoding main result: %v", err)
	}
	if !decoded.Valid() || decoded.Credits() != 3 {
		t.Errorf("main result = (valid=%v, credits=%v), want (true, 3)", decoded.Valid(), decoded.Credits())
	}

	// The review was persisted; list it back.
	w = doRequest(t, router, "GET", "/v1/students/F74109040/results", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list results status = %d", w.Code)
	}
	var listResp ResultListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatal(err)
	}
	if len(listResp.Results) != 1 {
		t.Fatalf("got %d stored results, want 1", len(listResp.Results))
	}

	w = doRequest(t, router, "GET", "/v1/results/"+string(listResp.Results[0].ResultID), "")
	if w.Code != http.StatusOK {
		t.Errorf("get result status = %d", w.Code)
	}

	w = doRequest(t, router, "GET", "/v1/results/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed result id status = %d, want 400", w.Code)
	}
}

func TestHandlers_ReviewUnknownStudent(t *testing.T) {
	router := setupTestRouter(t)
	w := doRequest(t, router, "POST", "/v1/review/nobody", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("review of unknown student status = %d, want 404", w.Code)
	}
}
