//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck/internal/check/models"
	"backcheck/pkg/platform/sentinel"
	"backcheck/pkg/testutil/containers"
)

func TestPostgresStoreIntegration(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()

	s := NewPostgres(pc.DB)
	require.NoError(t, s.EnsureSchema(ctx))

	subject := models.Subject{Name: "Test User", PersonalNumber: "19800101-1234"}

	t.Run("full lifecycle round-trips through the database", func(t *testing.T) {
		record, err := s.CreateCheck(ctx, subject, "owner-1")
		require.NoError(t, err)

		got, err := s.GetCheck(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, subject, got.Subject)

		assessment := &models.RiskAssessment{
			RiskScore:       60,
			Flags:           []string{"Criminal record found"},
			Recommendations: []string{"Conduct in-depth interview about criminal history"},
			Categories:      map[string]float64{"criminal": 10},
		}
		completed, err := s.CompleteCheck(ctx, record.ID, assessment)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, completed.Status)
		require.NotNil(t, completed.CompletedAt)

		got, err = s.GetCheck(ctx, record.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Assessment)
		assert.Equal(t, 60.0, got.Assessment.RiskScore)
		assert.Equal(t, []string{"Criminal record found"}, got.Assessment.Flags)

		_, err = s.FailCheck(ctx, record.ID, "late failure")
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("query filters and paginates", func(t *testing.T) {
		owner := "owner-query"
		a, err := s.CreateCheck(ctx, models.Subject{Name: "Alice Larsson", PersonalNumber: "19800101-0001"}, owner)
		require.NoError(t, err)
		b, err := s.CreateCheck(ctx, models.Subject{Name: "Bob Berg", PersonalNumber: "19900202-0002"}, owner)
		require.NoError(t, err)

		_, err = s.CompleteCheck(ctx, a.ID, &models.RiskAssessment{RiskScore: 20})
		require.NoError(t, err)
		_, err = s.CompleteCheck(ctx, b.ID, &models.RiskAssessment{RiskScore: 80})
		require.NoError(t, err)

		records, total, err := s.QueryChecks(ctx, owner, QueryFilters{Search: "ALICE"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, records, 1)
		assert.Equal(t, a.ID, records[0].ID)

		min := 50.0
		records, total, err = s.QueryChecks(ctx, owner, QueryFilters{MinRiskScore: &min}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, records, 1)
		assert.Equal(t, b.ID, records[0].ID)

		records, total, err = s.QueryChecks(ctx, owner, QueryFilters{}, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, records, 1)
	})

	t.Run("assessments listing skips failed checks", func(t *testing.T) {
		owner := "owner-stats"
		a, err := s.CreateCheck(ctx, subject, owner)
		require.NoError(t, err)
		b, err := s.CreateCheck(ctx, subject, owner)
		require.NoError(t, err)

		_, err = s.CompleteCheck(ctx, a.ID, &models.RiskAssessment{RiskScore: 45})
		require.NoError(t, err)
		_, err = s.FailCheck(ctx, b.ID, "sources down")
		require.NoError(t, err)

		assessments, err := s.ListCompletedAssessments(ctx, owner)
		require.NoError(t, err)
		require.Len(t, assessments, 1)
		assert.Equal(t, 45.0, assessments[0].RiskScore)
	})
}
