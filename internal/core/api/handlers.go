// Package api exposes the audit system over HTTP: rule CRUD, department
// metadata, student records, and review execution.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ncku-csie/gradaudit/internal/core/review"
	"github.com/ncku-csie/gradaudit/internal/core/store"
	"github.com/ncku-csie/gradaudit/internal/types"
)

// Handlers contains the HTTP handlers for the audit service.
type Handlers struct {
	rules       *store.RuleStore
	departments store.Departments
	students    *store.StudentStore
	results     *store.ResultStore
	reviews     *review.Service
}

// NewHandlers wires the handlers to their stores and the review service.
func NewHandlers(rules *store.RuleStore, departments store.Departments, students *store.StudentStore, results *store.ResultStore, reviews *review.Service) *Handlers {
	return &Handlers{
		rules:       rules,
		departments: departments,
		students:    students,
		results:     results,
		reviews:     reviews,
	}
}

func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: ServiceVersion})
}

// HandleListRules handles GET /v1/rules.
func (h *Handlers) HandleListRules(c *gin.Context) {
	infos, err := h.rules.List()
	if err != nil {
		slog.Error("listing rules failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "LIST_FAILED"})
		return
	}
	c.JSON(http.StatusOK, RuleListResponse{Rules: infos})
}

// ruleKey extracts and validates the :dept/:year/:category path triple.
func ruleKey(c *gin.Context) (dept string, year int, category store.RuleCategory, ok bool) {
	dept = c.Param("dept")
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "year must be a positive integer", Code: "INVALID_YEAR"})
		return "", 0, "", false
	}
	category = store.RuleCategory(c.Param("category"))
	if !category.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "category must be major, minor or double_major", Code: "INVALID_CATEGORY"})
		return "", 0, "", false
	}
	return dept, year, category, true
}

// HandleGetRule handles GET /v1/rules/:dept/:year/:category.
func (h *Handlers) HandleGetRule(c *gin.Context) {
	dept, year, category, ok := ruleKey(c)
	if !ok {
		return
	}
	rule, err := h.rules.Get(dept, year, category)
	if err != nil {
		if errors.Is(err, types.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "RULE_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "LOAD_FAILED"})
		return
	}
	encoded, err := json.Marshal(rule)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "ENCODE_FAILED"})
		return
	}
	c.JSON(http.StatusOK, RuleDetailResponse{
		Info: store.RuleInfo{DepartmentCode: dept, AdmissionYear: year, Category: category},
		Rule: encoded,
	})
}

// saveRule backs both create (POST, overwrite false) and update (PUT,
// overwrite true).
func (h *Handlers) saveRule(c *gin.Context, overwrite bool) {
	dept, year, category, ok := ruleKey(c)
	if !ok {
		return
	}
	if _, err := h.departments.Get(dept); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "UNKNOWN_DEPARTMENT"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	rule, err := types.ParseRule(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_RULE"})
		return
	}

	if err := h.rules.Save(dept, year, category, rule, overwrite); err != nil {
		switch {
		case errors.Is(err, types.ErrRuleNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "RULE_NOT_FOUND"})
		case errors.Is(err, types.ErrRuleExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "RULE_EXISTS"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SAVE_FAILED"})
		}
		return
	}

	status := http.StatusOK
	if !overwrite {
		status = http.StatusCreated
	}
	c.JSON(status, store.RuleInfo{DepartmentCode: dept, AdmissionYear: year, Category: category})
}

// HandleCreateRule handles POST /v1/rules/:dept/:year/:category.
func (h *Handlers) HandleCreateRule(c *gin.Context) { h.saveRule(c, false) }

// HandleUpdateRule handles PUT /v1/rules/:dept/:year/:category.
func (h *Handlers) HandleUpdateRule(c *gin.Context) { h.saveRule(c, true) }

// HandleDeleteRule handles DELETE /v1/rules/:dept/:year/:category.
func (h *Handlers) HandleDeleteRule(c *gin.Context) {
	dept, year, category, ok := ruleKey(c)
	if !ok {
		return
	}
	if err := h.rules.Delete(dept, year, category); err != nil {
		if errors.Is(err, types.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "RULE_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "DELETE_FAILED"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleListDepartments handles GET /v1/departments.
func (h *Handlers) HandleListDepartments(c *gin.Context) {
	entries := make([]DepartmentEntry, 0, len(h.departments))
	for code, info := range h.departments {
		entries = append(entries, DepartmentEntry{Code: code, Name: info.Name, College: info.College})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
	c.JSON(http.StatusOK, gin.H{"departments": entries})
}

// HandleListStudents handles GET /v1/students.
func (h *Handlers) HandleListStudents(c *gin.Context) {
	students, err := h.students.List()
	if err != nil {
		slog.Error("listing students failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "LIST_FAILED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// HandleGetStudent handles GET /v1/students/:id.
func (h *Handlers) HandleGetStudent(c *gin.Context) {
	student, err := h.students.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, types.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "STUDENT_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "LOAD_FAILED"})
		return
	}
	c.JSON(http.StatusOK, student)
}

// HandlePutStudent handles PUT /v1/students/:id.
func (h *Handlers) HandlePutStudent(c *gin.Context) {
	var student types.Student
	if err := c.ShouldBindJSON(&student); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if student.ID != c.Param("id") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "body id does not match path id", Code: "ID_MISMATCH"})
		return
	}
	if err := h.students.Put(&student); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_STUDENT"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student_id": student.ID})
}

// HandleDeleteStudent handles DELETE /v1/students/:id.
func (h *Handlers) HandleDeleteStudent(c *gin.Context) {
	if err := h.students.Delete(c.Param("id")); err != nil {
		if errors.Is(err, types.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "STUDENT_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "DELETE_FAILED"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleReview handles POST /v1/review/:id.
// Query parameters: major (override), double_major, minor (repeatable).
func (h *Handlers) HandleReview(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleReview")

	student, err := h.students.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, types.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "STUDENT_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "LOAD_FAILED"})
		return
	}

	opts := review.Options{
		Major:       c.Query("major"),
		DoubleMajor: c.Query("double_major"),
		Minors:      c.QueryArray("minor"),
	}

	logger.Info("starting review", "student", student.ID,
		"double_major", opts.DoubleMajor, "minors", opts.Minors)

	outcome, err := h.reviews.Review(student, opts)
	if err != nil {
		status := http.StatusInternalServerError
		code := "REVIEW_FAILED"
		if errors.Is(err, types.ErrRuleNotFound) {
			status = http.StatusNotFound
			code = "RULE_NOT_FOUND"
		}
		logger.Error("review failed", "error", err)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	resp := ReviewResponse{
		StudentID: student.ID,
		Results:   make(map[string]json.RawMessage, len(outcome)),
	}
	for key, result := range outcome {
		if result == nil {
			resp.Results[key] = json.RawMessage("null")
			continue
		}
		encoded, err := json.Marshal(result)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "ENCODE_FAILED"})
			return
		}
		resp.Results[key] = encoded
	}
	c.JSON(http.StatusOK, resp)
}

// HandleListResults handles GET /v1/students/:id/results.
func (h *Handlers) HandleListResults(c *gin.Context) {
	results, err := h.results.ListForStudent(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "LIST_FAILED"})
		return
	}
	c.JSON(http.StatusOK, ResultListResponse{Results: results})
}

// HandleGetResult handles GET /v1/results/:id.
func (h *Handlers) HandleGetResult(c *gin.Context) {
	id, err := types.ParseResultID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed result id", Code: "INVALID_ID"})
		return
	}
	result, err := h.results.Get(id)
	if err != nil {
		if errors.Is(err, types.ErrResultNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "RESULT_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "LOAD_FAILED"})
		return
	}
	c.JSON(http.StatusOK, result)
}
