package models

// FindingKind classifies an entry in a record's audit trail.
type FindingKind string

const (
	FindingMergeConflict      FindingKind = "merge_conflict"
	FindingPlausibility       FindingKind = "plausibility"
	FindingMagnitude          FindingKind = "magnitude"
	FindingRevenueIdentity    FindingKind = "revenue_identity"
	FindingAccountingIdentity FindingKind = "accounting_identity"
	FindingSignNormalization  FindingKind = "sign_normalization"
	FindingDerivation         FindingKind = "derivation"
	FindingMisclassification  FindingKind = "misclassification"
)

// Action is what the engine did about a finding.
type Action string

const (
	ActionKeptHigherPriority Action = "kept_higher_priority"
	ActionRejected           Action = "rejected"
	ActionCorrected          Action = "corrected"
	ActionDerived            Action = "derived"
	ActionNormalized         Action = "normalized"
	ActionFlagged            Action = "flagged"
)

// ValidationFinding records one check or correction with its before/after values.
type ValidationFinding struct {
	Kind     FindingKind `json:"kind"`
	Field    FieldID     `json:"field,omitempty"`
	Expected *float64    `json:"expected,omitempty"`
	Actual   *float64    `json:"actual,omitempty"`
	Before   *float64    `json:"before,omitempty"`
	After    *float64    `json:"after,omitempty"`
	Action   Action      `json:"action"`
	Message  string      `json:"message"`
}

// Float returns a pointer to v for the optional finding values.
func Float(v float64) *float64 {
	return &v
}
