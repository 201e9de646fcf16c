package types

// RequirementType tags the requirement variant. The string values are part
// of the stored rule format.
type RequirementType string

const (
	RequirementAll          RequirementType = "all"
	RequirementMinCredits   RequirementType = "min_credits"
	RequirementMaxCredits   RequirementType = "max_credits"
	RequirementMinCourses   RequirementType = "min_courses"
	RequirementMaxCourses   RequirementType = "max_courses"
	RequirementPrerequisite RequirementType = "prerequisite"
	RequirementCreditRange  RequirementType = "credit_range"
)

// Requirement is the numeric/logical threshold that converts raw course
// matches into pass/fail. Exactly the fields relevant to the declared type
// may be set; anything else is a construction error.
type Requirement struct {
	Type       RequirementType `json:"type"`
	MinCredits *float64        `json:"min_credits,omitempty"`
	MaxCredits *float64        `json:"max_credits,omitempty"`
	MinCourses *int            `json:"min_courses,omitempty"`
	MaxCourses *int            `json:"max_courses,omitempty"`
}

// Validate enforces the variant field invariant at construction time.
func (r *Requirement) Validate() error {
	switch r.Type {
	case RequirementAll, RequirementPrerequisite:
		if r.MinCredits != nil || r.MaxCredits != nil || r.MinCourses != nil || r.MaxCourses != nil {
			return ErrRequirementFields
		}
	case RequirementMinCredits:
		if r.MinCredits == nil || r.MaxCredits != nil || r.MinCourses != nil || r.MaxCourses != nil {
			return ErrRequirementFields
		}
		if *r.MinCredits < 0 {
			return ErrNegativeCredit
		}
	case RequirementMaxCredits:
		if r.MaxCredits == nil || r.MinCredits != nil || r.MinCourses != nil || r.MaxCourses != nil {
			return ErrRequirementFields
		}
		if *r.MaxCredits < 0 {
			return ErrNegativeCredit
		}
	case RequirementMinCourses:
		if r.MinCourses == nil || r.MinCredits != nil || r.MaxCredits != nil || r.MaxCourses != nil {
			return ErrRequirementFields
		}
		if *r.MinCourses < 0 {
			return ErrRequirementFields
		}
	case RequirementMaxCourses:
		if r.MaxCourses == nil || r.MinCredits != nil || r.MaxCredits != nil || r.MinCourses != nil {
			return ErrRequirementFields
		}
		if *r.MaxCourses < 0 {
			return ErrRequirementFields
		}
	case RequirementCreditRange:
		if r.MinCredits == nil || r.MaxCredits == nil {
			return ErrCreditRangeBounds
		}
		if r.MinCourses != nil || r.MaxCourses != nil {
			return ErrRequirementFields
		}
		if *r.MinCredits < 0 || *r.MaxCredits < *r.MinCredits {
			return ErrRequirementFields
		}
	default:
		return &UnknownRequirementTypeError{Tag: string(r.Type)}
	}
	return nil
}
