package types

import (
	"encoding/json"
	"fmt"
)

// Rule discriminator tags. Part of the stored rule format.
const (
	RuleTypeAll = "rule_all"
	RuleTypeSet = "rule_set"
)

// Sub-rule combinators for composite rules.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// Rule is a closed sum over RuleAll and RuleSet. The unexported tree-walk
// method seals the interface: no package outside types can add a variant,
// so evaluators may match exhaustively on the tag.
type Rule interface {
	// RuleType returns the discriminator tag ("rule_all" or "rule_set").
	RuleType() string

	// RuleName returns the human-readable rule name.
	RuleName() string

	// Validate checks all construction invariants of the rule tree,
	// including acyclicity for programmatically built trees.
	Validate() error

	validateTree(visited map[Rule]bool) error
}

// RuleAll is a leaf rule: an optional explicit course name list, a matching
// criteria, and a requirement converting matches into pass/fail.
//
// A nil CourseList means "any course not yet counted"; a non-nil list
// narrows candidates by exact name only (criteria are still applied during
// the sweep, not during candidate selection).
type RuleAll struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	CourseList     []string       `json:"course_list"`
	CourseCriteria CourseCriteria `json:"course_criteria"`
	Requirement    Requirement    `json:"requirement"`
}

func (r *RuleAll) RuleType() string { return RuleTypeAll }
func (r *RuleAll) RuleName() string { return r.Name }

// Validate checks leaf invariants. Requirement types that compare the
// matched count against a required list (all, prerequisite) demand an
// explicit course list.
func (r *RuleAll) Validate() error {
	return r.validateTree(make(map[Rule]bool))
}

func (r *RuleAll) validateTree(visited map[Rule]bool) error {
	if r.Name == "" {
		return ErrEmptyRuleName
	}
	if err := r.CourseCriteria.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	if err := r.Requirement.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	listRequired := r.Requirement.Type == RequirementAll || r.Requirement.Type == RequirementPrerequisite
	if r.CourseList == nil && listRequired {
		return fmt.Errorf("rule %q: %w", r.Name, ErrEmptyCourseList)
	}
	if r.CourseList != nil && len(r.CourseList) == 0 {
		return fmt.Errorf("rule %q: %w", r.Name, ErrEmptyCourseList)
	}
	return nil
}

// MarshalJSON emits the rule_type discriminator alongside the leaf fields.
func (r *RuleAll) MarshalJSON() ([]byte, error) {
	type plain RuleAll
	return json.Marshal(struct {
		RuleType string `json:"rule_type"`
		*plain
	}{RuleTypeAll, (*plain)(r)})
}

// RuleSet is a composite rule: ordered children combined with AND/OR.
//
// Requirement is carried in the stored format but is not applied to the
// aggregate during evaluation; a composite's validity is purely the
// combinator over its children. The field is validated and preserved so
// round-tripping stored rules is lossless.
type RuleSet struct {
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	SubRules     []Rule      `json:"sub_rules"`
	Requirement  Requirement `json:"requirement"`
	SubRuleLogic string      `json:"sub_rule_logic"`
}

func (r *RuleSet) RuleType() string { return RuleTypeSet }
func (r *RuleSet) RuleName() string { return r.Name }

// Validate checks composite invariants and walks the whole tree, rejecting
// cycles in programmatically built rule graphs.
func (r *RuleSet) Validate() error {
	return r.validateTree(make(map[Rule]bool))
}

func (r *RuleSet) validateTree(visited map[Rule]bool) error {
	if visited[r] {
		return fmt.Errorf("rule %q: %w", r.Name, ErrRuleCycle)
	}
	visited[r] = true
	defer delete(visited, r)

	if r.Name == "" {
		return ErrEmptyRuleName
	}
	if r.SubRuleLogic != LogicAnd && r.SubRuleLogic != LogicOr {
		return fmt.Errorf("rule %q: %w", r.Name, ErrInvalidSubRuleLogic)
	}
	if len(r.SubRules) == 0 {
		return fmt.Errorf("rule %q: %w", r.Name, ErrEmptySubRules)
	}
	if err := r.Requirement.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	for _, sub := range r.SubRules {
		if err := sub.validateTree(visited); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON emits the rule_type discriminator alongside the composite
// fields.
func (r *RuleSet) MarshalJSON() ([]byte, error) {
	type plain RuleSet
	return json.Marshal(struct {
		RuleType string `json:"rule_type"`
		*plain
	}{RuleTypeSet, (*plain)(r)})
}

// UnmarshalJSON decodes children through UnmarshalRule so nested
// discriminators are resolved and unknown tags rejected.
func (r *RuleSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name         string            `json:"name"`
		Description  string            `json:"description"`
		SubRules     []json.RawMessage `json:"sub_rules"`
		Requirement  Requirement       `json:"requirement"`
		SubRuleLogic string            `json:"sub_rule_logic"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = raw.Name
	r.Description = raw.Description
	r.Requirement = raw.Requirement
	r.SubRuleLogic = raw.SubRuleLogic
	r.SubRules = make([]Rule, 0, len(raw.SubRules))
	for _, sub := range raw.SubRules {
		decoded, err := UnmarshalRule(sub)
		if err != nil {
			return err
		}
		r.SubRules = append(r.SubRules, decoded)
	}
	return nil
}

// UnmarshalRule decodes one rule of either variant by its rule_type tag.
// Unknown tags fail here, at deserialization time, not at dispatch time.
func UnmarshalRule(data []byte) (Rule, error) {
	var envelope struct {
		RuleType string `json:"rule_type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	switch envelope.RuleType {
	case RuleTypeAll:
		var r RuleAll
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return &r, nil
	case RuleTypeSet:
		var r RuleSet
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, &UnknownRuleTypeError{Tag: envelope.RuleType}
	}
}

// ParseRule decodes and validates a stored rule document in one step.
// Every load path goes through this so malformed rules surface before any
// evaluation begins.
func ParseRule(data []byte) (Rule, error) {
	rule, err := UnmarshalRule(data)
	if err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}
