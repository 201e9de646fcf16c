package types

import (
	"encoding/json"
)

// Result discriminator tags, mirroring the rule tags. Part of the stored
// result format.
const (
	ResultTypeAll = "rule_all"
	ResultTypeSet = "rule_set"
)

// Human-readable course statuses recorded on ResultCourse entries.
const (
	StatusPassed             = "passed"
	StatusFailed             = "failed"
	StatusInProgress         = "in-progress"
	StatusCreditWaived       = "credit-waived"
	StatusExternalSubstitute = "external-substitute"
	StatusNotTaken           = "not-taken"
	StatusUnknown            = "unknown"
)

// ResultCourse records one matched (or attempted) course in a leaf result.
type ResultCourse struct {
	BaseCourse
	Status        string `json:"status"`
	YearTaken     int    `json:"year_taken"`
	SemesterTaken int    `json:"semester_taken"`
}

// Result is a closed sum over AllResult and SetResult: the evaluation output
// tree mirroring the rule tree shape. Newly allocated on every evaluation;
// owned by the caller after return.
type Result interface {
	// ResultType returns the discriminator tag.
	ResultType() string

	// Valid reports whether the rule this node mirrors was satisfied.
	Valid() bool

	// Credits returns the earned credits reported for this node.
	Credits() float64

	isResult()
}

// AllResult mirrors a RuleAll leaf.
type AllResult struct {
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	IsValid            bool           `json:"is_valid"`
	EarnedCredits      float64        `json:"earned_credits"`
	FinishedCourseList []ResultCourse `json:"finished_course_list"`
	RequiredCourseList []string       `json:"required_course_list"`
}

func (r *AllResult) ResultType() string { return ResultTypeAll }
func (r *AllResult) Valid() bool        { return r.IsValid }
func (r *AllResult) Credits() float64   { return r.EarnedCredits }
func (r *AllResult) isResult()          {}

// MarshalJSON emits the result_type discriminator alongside the leaf fields.
func (r *AllResult) MarshalJSON() ([]byte, error) {
	type plain AllResult
	return json.Marshal(struct {
		ResultType string `json:"result_type"`
		*plain
	}{ResultTypeAll, (*plain)(r)})
}

// SetResult mirrors a RuleSet composite.
type SetResult struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	IsValid       bool     `json:"is_valid"`
	EarnedCredits float64  `json:"earned_credits"`
	SubResults    []Result `json:"sub_results"`
	SubRuleLogic  string   `json:"sub_rule_logic"`
}

func (r *SetResult) ResultType() string { return ResultTypeSet }
func (r *SetResult) Valid() bool        { return r.IsValid }
func (r *SetResult) Credits() float64   { return r.EarnedCredits }
func (r *SetResult) isResult()          {}

// MarshalJSON emits the result_type discriminator alongside the composite
// fields.
func (r *SetResult) MarshalJSON() ([]byte, error) {
	type plain SetResult
	return json.Marshal(struct {
		ResultType string `json:"result_type"`
		*plain
	}{ResultTypeSet, (*plain)(r)})
}

// UnmarshalJSON decodes children through UnmarshalResult so nested
// discriminators are resolved.
func (r *SetResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          string            `json:"name"`
		Description   string            `json:"description"`
		IsValid       bool              `json:"is_valid"`
		EarnedCredits float64           `json:"earned_credits"`
		SubResults    []json.RawMessage `json:"sub_results"`
		SubRuleLogic  string            `json:"sub_rule_logic"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = raw.Name
	r.Description = raw.Description
	r.IsValid = raw.IsValid
	r.EarnedCredits = raw.EarnedCredits
	r.SubRuleLogic = raw.SubRuleLogic
	r.SubResults = make([]Result, 0, len(raw.SubResults))
	for _, sub := range raw.SubResults {
		decoded, err := UnmarshalResult(sub)
		if err != nil {
			return err
		}
		r.SubResults = append(r.SubResults, decoded)
	}
	return nil
}

// UnmarshalResult decodes one result of either variant by its result_type
// tag. Used when reading stored result documents back for display.
func UnmarshalResult(data []byte) (Result, error) {
	var envelope struct {
		ResultType string `json:"result_type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	switch envelope.ResultType {
	case ResultTypeAll:
		var r AllResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return &r, nil
	case ResultTypeSet:
		var r SetResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, &UnknownRuleTypeError{Tag: envelope.ResultType}
	}
}
