package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck/internal/check/models"
	dErrors "backcheck/pkg/domain-errors"
)

func allAvailable() map[models.Category]models.SourceStatus {
	return map[models.Category]models.SourceStatus{
		models.CategoryCriminal:   models.SourceAvailable,
		models.CategoryFinancial:  models.SourceAvailable,
		models.CategoryEmployment: models.SourceAvailable,
	}
}

func ongoing() *string { return nil }

func ended(date string) *string { return &date }

func cleanBundle() *models.EvidenceBundle {
	return &models.EvidenceBundle{
		Financial: &models.FinancialRecord{CreditScore: 700},
		Employment: []models.EmploymentRecord{
			{Employer: "Innovation Inc", StartDate: "2022-01-15", EndDate: ongoing()},
		},
		Statuses: allAvailable(),
	}
}

func TestScoreWeights(t *testing.T) {
	t.Run("clean subject scores the baseline", func(t *testing.T) {
		a, err := Score(cleanBundle())
		require.NoError(t, err)
		assert.Equal(t, 50.0, a.RiskScore)
		assert.Empty(t, a.Flags)
		assert.Empty(t, a.Recommendations)
		assert.False(t, a.Partial)
	})

	t.Run("each criminal record adds ten", func(t *testing.T) {
		b := cleanBundle()
		b.Criminal = []models.CriminalRecord{
			{Offense: "Minor theft", Date: "2020-03-15"},
			{Offense: "Fraud", Date: "2021-07-01"},
		}
		a, err := Score(b)
		require.NoError(t, err)
		assert.Equal(t, 70.0, a.RiskScore)
		assert.Equal(t, 20.0, a.Categories["criminal"])
	})

	t.Run("high credit score reduces risk", func(t *testing.T) {
		b := cleanBundle()
		b.Financial = &models.FinancialRecord{CreditScore: 850}
		a, err := Score(b)
		require.NoError(t, err)
		// 50 + (700-850)/10 = 35
		assert.Equal(t, 35.0, a.RiskScore)
		assert.Empty(t, a.Flags)
	})

	t.Run("each bankruptcy adds fifteen", func(t *testing.T) {
		b := cleanBundle()
		b.Financial = &models.FinancialRecord{CreditScore: 700, Bankruptcies: 2}
		a, err := Score(b)
		require.NoError(t, err)
		assert.Equal(t, 80.0, a.RiskScore)
	})

	t.Run("no ongoing employment adds ten", func(t *testing.T) {
		b := cleanBundle()
		b.Employment = []models.EmploymentRecord{
			{Employer: "Tech Corp", StartDate: "2018-01-01", EndDate: ended("2021-12-31")},
		}
		a, err := Score(b)
		require.NoError(t, err)
		assert.Equal(t, 60.0, a.RiskScore)
		assert.Contains(t, a.Flags, FlagNoEmployment)
	})

	t.Run("empty employment history counts as unemployed", func(t *testing.T) {
		b := cleanBundle()
		b.Employment = nil
		a, err := Score(b)
		require.NoError(t, err)
		assert.Equal(t, 60.0, a.RiskScore)
	})
}

func TestScoreClamp(t *testing.T) {
	t.Run("pathological criminal history clamps to one hundred", func(t *testing.T) {
		b := cleanBundle()
		for range 50 {
			b.Criminal = append(b.Criminal, models.CriminalRecord{Offense: "Theft", Date: "2020-01-01"})
		}
		a, err := Score(b)
		require.NoError(t, err)
		assert.Equal(t, 100.0, a.RiskScore)
	})

	t.Run("excellent credit cannot push below zero", func(t *testing.T) {
		b := cleanBundle()
		b.Financial = &models.FinancialRecord{CreditScore: 2000}
		a, err := Score(b)
		require.NoError(t, err)
		assert.Equal(t, 0.0, a.RiskScore)
	})

	t.Run("clamping happens once after all adjustments", func(t *testing.T) {
		// A huge credit-score reduction must offset criminal records
		// before clamping, not be clamped away per-adjustment.
		b := cleanBundle()
		b.Criminal = []models.CriminalRecord{{Offense: "Theft", Date: "2020-01-01"}}
		b.Financial = &models.FinancialRecord{CreditScore: 1300}
		a, err := Score(b)
		require.NoError(t, err)
		// 50 + 10 + (700-1300)/10 = 0
		assert.Equal(t, 0.0, a.RiskScore)
	})
}

func TestScoreFlags(t *testing.T) {
	t.Run("all predicates trigger in evaluation order", func(t *testing.T) {
		b := cleanBundle()
		b.Criminal = []models.CriminalRecord{{Offense: "Fraud", Date: "2019-02-02"}}
		b.Financial = &models.FinancialRecord{CreditScore: 540, Bankruptcies: 1}
		b.Employment = nil

		a, err := Score(b)
		require.NoError(t, err)

		assert.Equal(t, []string{FlagCriminalRecord, FlagLowCredit, FlagBankruptcy, FlagNoEmployment}, a.Flags)
		assert.Len(t, a.Recommendations, 4)
		assert.Equal(t, recCriminalRecord, a.Recommendations[0])
	})

	t.Run("credit score of exactly 600 does not flag", func(t *testing.T) {
		b := cleanBundle()
		b.Financial = &models.FinancialRecord{CreditScore: 600}
		a, err := Score(b)
		require.NoError(t, err)
		assert.NotContains(t, a.Flags, FlagLowCredit)
	})
}

func TestScorePartialPolicy(t *testing.T) {
	t.Run("unavailable source contributes nothing and marks partial", func(t *testing.T) {
		b := cleanBundle()
		b.Statuses[models.CategoryFinancial] = models.SourceUnavailable
		b.Financial = nil

		a, err := Score(b)
		require.NoError(t, err)

		assert.True(t, a.Partial)
		assert.Equal(t, 50.0, a.RiskScore)
		_, scored := a.Categories["financial"]
		assert.False(t, scored, "unavailable category must not appear in sub-scores")
		assert.Empty(t, a.Flags)
	})

	t.Run("unavailable employment is not treated as unemployed", func(t *testing.T) {
		b := cleanBundle()
		b.Statuses[models.CategoryEmployment] = models.SourceUnavailable
		b.Employment = nil

		a, err := Score(b)
		require.NoError(t, err)
		assert.Equal(t, 50.0, a.RiskScore)
		assert.NotContains(t, a.Flags, FlagNoEmployment)
	})
}

func TestScoreDeterminism(t *testing.T) {
	b := cleanBundle()
	b.Criminal = []models.CriminalRecord{{Offense: "Minor theft", Date: "2020-03-15"}}
	b.Financial = &models.FinancialRecord{CreditScore: 580, Bankruptcies: 1}

	first, err := Score(b)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for range 10 {
		next, err := Score(b)
		require.NoError(t, err)
		nextJSON, err := json.Marshal(next)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(nextJSON))
	}
}

func TestScoreInvalidEvidence(t *testing.T) {
	t.Run("negative bankruptcies is structural failure", func(t *testing.T) {
		b := cleanBundle()
		b.Financial = &models.FinancialRecord{CreditScore: 700, Bankruptcies: -1}
		_, err := Score(b)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("empty employer is structural failure", func(t *testing.T) {
		b := cleanBundle()
		b.Employment = []models.EmploymentRecord{{Employer: "", StartDate: "2020-01-01"}}
		_, err := Score(b)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("no data anywhere is not an error", func(t *testing.T) {
		b := &models.EvidenceBundle{Statuses: allAvailable()}
		a, err := Score(b)
		require.NoError(t, err)
		// Baseline plus the unemployed adjustment; no financial record on
		// file means no financial adjustment.
		assert.Equal(t, 60.0, a.RiskScore)
	})
}
