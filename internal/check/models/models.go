// Package models holds the core background-check domain types shared by the
// sources, aggregate, scoring, store, and service packages.
package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "backcheck/pkg/domain-errors"
)

// Category identifies an external record source.
type Category string

const (
	CategoryCriminal   Category = "criminal"
	CategoryFinancial  Category = "financial"
	CategoryEmployment Category = "employment"
)

// Categories lists all known categories in their canonical order. Bundle
// assembly and scoring iterate this slice so output is deterministic
// regardless of fetcher completion order.
var Categories = []Category{CategoryCriminal, CategoryFinancial, CategoryEmployment}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryCriminal, CategoryFinancial, CategoryEmployment:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Subject is the person being checked. Input only; the personal number is an
// opaque identifier and is not format-validated here.
type Subject struct {
	Name           string `json:"name"`
	PersonalNumber string `json:"personal_number"`
}

// CriminalRecord is one entry from the criminal records source.
type CriminalRecord struct {
	Offense string `json:"offense"`
	Date    string `json:"date"`
}

// FinancialRecord is the financial source's summary for a subject.
type FinancialRecord struct {
	CreditScore  int `json:"credit_score"`
	Bankruptcies int `json:"bankruptcies"`
}

// EmploymentRecord is one entry from the employment history source.
// A nil EndDate means the employment is ongoing.
type EmploymentRecord struct {
	Employer  string  `json:"employer"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// Ongoing reports whether this record describes a current employment.
func (r EmploymentRecord) Ongoing() bool {
	return r.EndDate == nil
}

// SourceStatus tags each bundle category as gathered or failed. A failed
// source is never silently substituted with empty data, which scoring could
// not distinguish from a true negative.
type SourceStatus string

const (
	SourceAvailable   SourceStatus = "available"
	SourceUnavailable SourceStatus = "unavailable"
)

// SourceError records one fetcher failure in a bundle.
type SourceError struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// EvidenceBundle is the union of per-category records gathered for one
// subject. Assembled exactly once per check; treated as immutable after
// assembly. A partial bundle (some sources unavailable) is a valid state.
type EvidenceBundle struct {
	Criminal   []CriminalRecord   `json:"criminal"`
	Financial  *FinancialRecord   `json:"financial"`
	Employment []EmploymentRecord `json:"employment"`

	Statuses     map[Category]SourceStatus `json:"statuses"`
	SourceErrors []SourceError             `json:"source_errors,omitempty"`

	GatheredAt time.Time `json:"gathered_at"`
}

// Available reports whether the given category was gathered successfully.
func (b *EvidenceBundle) Available(c Category) bool {
	return b.Statuses[c] == SourceAvailable
}

// Partial reports whether any category failed to gather.
func (b *EvidenceBundle) Partial() bool {
	for _, c := range Categories {
		if b.Statuses[c] != SourceAvailable {
			return true
		}
	}
	return false
}

// Validate checks the bundle for structural defects. Empty data is always
// legitimate; only malformed values fail.
func (b *EvidenceBundle) Validate() error {
	if b == nil {
		return dErrors.New(dErrors.CodeValidation, "evidence bundle is required")
	}
	if b.Financial != nil {
		if b.Financial.Bankruptcies < 0 {
			return dErrors.New(dErrors.CodeValidation, "bankruptcies cannot be negative")
		}
		if b.Financial.CreditScore < 0 {
			return dErrors.New(dErrors.CodeValidation, "credit score cannot be negative")
		}
	}
	for _, rec := range b.Employment {
		if rec.Employer == "" {
			return dErrors.New(dErrors.CodeValidation, "employment record has empty employer")
		}
	}
	return nil
}

// RiskAssessment is the derived risk result for one evidence bundle.
// Flags preserve insertion order for display; never mutated after creation.
type RiskAssessment struct {
	RiskScore       float64            `json:"risk_score"`
	Flags           []string           `json:"flags"`
	Recommendations []string           `json:"recommendations"`
	Categories      map[string]float64 `json:"categories"`

	// Partial marks assessments derived from a bundle with unavailable
	// sources. Such assessments are excluded from aggregate statistics.
	Partial bool `json:"partial"`
}

// CheckStatus is the lifecycle state of a check record.
type CheckStatus string

const (
	StatusPending   CheckStatus = "pending"
	StatusCompleted CheckStatus = "completed"
	StatusFailed    CheckStatus = "failed"
)

// IsValid checks if the status is one of the supported enum values.
func (s CheckStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s CheckStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CheckRecord is one submitted background check. Created pending; moves to
// completed (assessment attached) or failed (error recorded) exactly once.
// A re-check produces a new record, never an in-place recompute.
type CheckRecord struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Status      CheckStatus     `json:"status"`
	Subject     Subject         `json:"subject"`
	Assessment  *RiskAssessment `json:"assessment,omitempty"`
	Error       string          `json:"error,omitempty"`
	InitiatedAt time.Time       `json:"initiated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Notification is the message emitted to the notification sink when a check
// completes. Delivery channel is the sink's concern.
type Notification struct {
	OwnerID string `json:"owner_id"`
	Text    string `json:"text"`
}

// Stats summarizes completed checks for one owner. Buckets follow the
// dashboard convention: low < 30, medium < 70, high otherwise. Partial
// assessments are excluded.
type Stats struct {
	LowRisk          int      `json:"low_risk"`
	MediumRisk       int      `json:"medium_risk"`
	HighRisk         int      `json:"high_risk"`
	AverageRiskScore *float64 `json:"average_risk_score"`
}
