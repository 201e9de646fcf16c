package api

import (
	"encoding/json"

	"github.com/ncku-csie/gradaudit/internal/core/store"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "1.0.0"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RuleListResponse is the response for GET /v1/rules.
type RuleListResponse struct {
	Rules []store.RuleInfo `json:"rules"`
}

// RuleDetailResponse is the response for GET /v1/rules/:dept/:year/:category.
type RuleDetailResponse struct {
	Info store.RuleInfo  `json:"info"`
	Rule json.RawMessage `json:"rule"`
}

// DepartmentEntry is one row of the departments listing.
type DepartmentEntry struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	College string `json:"college"`
}

// ReviewResponse is the response for POST /v1/review/:id. Each entry is a
// result tree or null where a curriculum's rule was missing.
type ReviewResponse struct {
	StudentID string                     `json:"student_id"`
	Results   map[string]json.RawMessage `json:"results"`
}

// ResultListResponse is the response for GET /v1/students/:id/results.
type ResultListResponse struct {
	Results []*store.StoredResult `json:"results"`
}
