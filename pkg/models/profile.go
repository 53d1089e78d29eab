// Package models defines the shared data types for ArthAstra:
// applicant profiles, pipeline stage results, and the enums used by
// the deterministic metrics toolkit.
package models

import "time"

// EmploymentType buckets for Indian loan applicants.
const (
	EmploymentSalaried     = "salaried"
	EmploymentSelfEmployed = "self_employed"
	EmploymentFreelancer   = "freelancer"
	EmploymentStudent      = "student"
)

// Employment tenure buckets as collected by the onboarding flow.
const (
	TenureUnder6Months = "<6_months"
	Tenure6MonthsTo1Yr = "6m-1yr"
	Tenure1To2Yr       = "1-2yr"
	Tenure2To5Yr       = "2-5yr"
	TenureOver5Yr      = "5+yr"
)

// UserProfile is the applicant record supplied by the caller on every
// pipeline invocation. All fields are optional; numeric zero values mean
// "not provided" (a zero CreditScore means no credit history). The core
// never mutates or persists a profile.
type UserProfile struct {
	MonthlyIncome      float64 `json:"monthlyIncome,omitempty"`
	ExistingEMI        float64 `json:"existingEMI,omitempty"`
	MonthlyExpenses    float64 `json:"monthlyExpenses,omitempty"`
	CreditScore        int     `json:"creditScore,omitempty"`
	EmploymentType     string  `json:"employmentType,omitempty"`
	EmploymentTenure   string  `json:"employmentTenure,omitempty"`
	Savings            string  `json:"savings,omitempty"` // bucket, e.g. "0-50k"
	LoanAmount         float64 `json:"loanAmount,omitempty"`
	TenureYears        int     `json:"tenureYears,omitempty"`
	IsJointApplication bool    `json:"isJointApplication,omitempty"`
	CoborrowerIncome   float64 `json:"coborrowerIncome,omitempty"`
}

// EmploymentTypeOrDefault returns the employment type, defaulting to salaried.
func (p UserProfile) EmploymentTypeOrDefault() string {
	if p.EmploymentType == "" {
		return EmploymentSalaried
	}
	return p.EmploymentType
}

// EmploymentTenureOrDefault returns the tenure bucket, defaulting to 1-2yr.
func (p UserProfile) EmploymentTenureOrDefault() string {
	if p.EmploymentTenure == "" {
		return Tenure1To2Yr
	}
	return p.EmploymentTenure
}

// CreditScoreOrDefault returns the credit score, substituting the lender
// convention of 650 when the applicant has no reported history.
func (p UserProfile) CreditScoreOrDefault() int {
	if p.CreditScore == 0 {
		return 650
	}
	return p.CreditScore
}

// PipelineStatus summarizes how a pipeline run degraded, if at all.
type PipelineStatus string

const (
	// StatusOK means every stage produced a model-backed result.
	StatusOK PipelineStatus = "ok"
	// StatusPartial means at least one stage fell back to its default.
	StatusPartial PipelineStatus = "partial"
	// StatusFallback means every stage fell back (or the deadline expired).
	StatusFallback PipelineStatus = "fallback"
)

// StageResult is the structured output of one agent step. Data is always
// well-formed JSON-compatible content: either the parsed model output or the
// step's declared fallback, never raw unparsed text.
type StageResult struct {
	Step     string         `json:"step"`
	Data     map[string]any `json:"data"`
	Degraded bool           `json:"degraded,omitempty"`
	Reason   string         `json:"reason,omitempty"` // why the stage degraded
	Duration time.Duration  `json:"duration,omitempty"`
}

// PipelineResult is the ordered collection of stage results from one
// pipeline invocation. It is created once per run and never persisted here;
// durability is the caller's concern.
type PipelineResult struct {
	Pipeline string                 `json:"pipeline"`
	Status   PipelineStatus         `json:"status"`
	Order    []string               `json:"order"`
	Stages   map[string]StageResult `json:"stages"`
	Duration time.Duration          `json:"duration"`
}

// Stage returns the named stage result, if present.
func (r *PipelineResult) Stage(name string) (StageResult, bool) {
	s, ok := r.Stages[name]
	return s, ok
}

// DegradedCount returns the number of stages that used their fallback.
func (r *PipelineResult) DegradedCount() int {
	n := 0
	for _, s := range r.Stages {
		if s.Degraded {
			n++
		}
	}
	return n
}
