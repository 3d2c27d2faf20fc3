// Package scoring derives a risk assessment from an evidence bundle.
// This is pure domain logic - no I/O, no side effects: identical bundles
// always produce identical assessments.
package scoring

import (
	"backcheck/internal/check/models"
	dErrors "backcheck/pkg/domain-errors"
)

// Scoring policy. The weights are policy, not incidental; tests pin the
// exact values.
const (
	baselineScore        = 50.0
	criminalRecordWeight = 10.0
	creditScorePivot     = 700.0
	creditScoreDivisor   = 10.0
	bankruptcyWeight     = 15.0
	unemployedWeight     = 10.0

	lowCreditThreshold = 600
)

// Flag and recommendation texts, paired by predicate and emitted in this
// order.
const (
	FlagCriminalRecord = "Criminal record found"
	FlagLowCredit      = "Credit score below 600"
	FlagBankruptcy     = "Bankruptcy on record"
	FlagNoEmployment   = "No ongoing employment"

	recCriminalRecord = "Conduct in-depth interview about criminal history"
	recLowCredit      = "Require financial background explanation"
	recBankruptcy     = "Review bankruptcy history before proceeding"
	recNoEmployment   = "Verify recent employment references"
)

// Score maps an evidence bundle to a risk assessment.
//
// An unavailable source contributes no adjustment, no flag, and no category
// entry; the assessment is marked partial instead. This keeps "the source
// answered with nothing" distinct from "the source never answered": only the
// former may lower or raise the score.
//
// It fails only on structurally malformed input; empty records are a
// legitimate value.
func Score(bundle *models.EvidenceBundle) (*models.RiskAssessment, error) {
	if err := bundle.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid evidence bundle")
	}

	assessment := &models.RiskAssessment{
		Flags:           []string{},
		Recommendations: []string{},
		Categories:      make(map[string]float64),
		Partial:         bundle.Partial(),
	}

	score := baselineScore

	if bundle.Available(models.CategoryCriminal) {
		adj := criminalRecordWeight * float64(len(bundle.Criminal))
		score += adj
		assessment.Categories[models.CategoryCriminal.String()] = adj
		if len(bundle.Criminal) > 0 {
			flag(assessment, FlagCriminalRecord, recCriminalRecord)
		}
	}

	if bundle.Available(models.CategoryFinancial) && bundle.Financial != nil {
		adj := (creditScorePivot - float64(bundle.Financial.CreditScore)) / creditScoreDivisor
		adj += bankruptcyWeight * float64(bundle.Financial.Bankruptcies)
		score += adj
		assessment.Categories[models.CategoryFinancial.String()] = adj
		if bundle.Financial.CreditScore < lowCreditThreshold {
			flag(assessment, FlagLowCredit, recLowCredit)
		}
		if bundle.Financial.Bankruptcies > 0 {
			flag(assessment, FlagBankruptcy, recBankruptcy)
		}
	}

	if bundle.Available(models.CategoryEmployment) {
		var adj float64
		if !anyOngoing(bundle.Employment) {
			adj = unemployedWeight
			flag(assessment, FlagNoEmployment, recNoEmployment)
		}
		score += adj
		assessment.Categories[models.CategoryEmployment.String()] = adj
	}

	// Clamp once, after all adjustments.
	assessment.RiskScore = clamp(score, 0, 100)

	return assessment, nil
}

func flag(a *models.RiskAssessment, flagText, recommendation string) {
	a.Flags = append(a.Flags, flagText)
	a.Recommendations = append(a.Recommendations, recommendation)
}

func anyOngoing(records []models.EmploymentRecord) bool {
	for _, rec := range records {
		if rec.Ongoing() {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
