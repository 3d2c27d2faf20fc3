package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck/internal/check/models"
	"backcheck/pkg/platform/sentinel"
)

func ptrFloat(v float64) *float64 { return &v }

func seedCheck(t *testing.T, s *MemoryStore, owner, name, number string) *models.CheckRecord {
	t.Helper()
	record, err := s.CreateCheck(context.Background(), models.Subject{Name: name, PersonalNumber: number}, owner)
	require.NoError(t, err)
	return record
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("create starts a pending record", func(t *testing.T) {
		s := NewMemoryStore()
		record := seedCheck(t, s, "owner-1", "Test User", "19800101-1234")

		assert.NotEqual(t, uuid.Nil, record.ID)
		assert.Equal(t, models.StatusPending, record.Status)
		assert.Nil(t, record.Assessment)
		assert.Nil(t, record.CompletedAt)
		assert.False(t, record.InitiatedAt.IsZero())
	})

	t.Run("complete attaches the assessment once", func(t *testing.T) {
		s := NewMemoryStore()
		record := seedCheck(t, s, "owner-1", "Test User", "19800101-1234")

		assessment := &models.RiskAssessment{RiskScore: 35, Flags: []string{}}
		completed, err := s.CompleteCheck(ctx, record.ID, assessment)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, completed.Status)
		require.NotNil(t, completed.Assessment)
		assert.Equal(t, 35.0, completed.Assessment.RiskScore)
		require.NotNil(t, completed.CompletedAt)

		_, err = s.CompleteCheck(ctx, record.ID, &models.RiskAssessment{RiskScore: 99})
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		got, err := s.GetCheck(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, 35.0, got.Assessment.RiskScore)
	})

	t.Run("fail records the error and blocks later completion", func(t *testing.T) {
		s := NewMemoryStore()
		record := seedCheck(t, s, "owner-1", "Test User", "19800101-1234")

		failed, err := s.FailCheck(ctx, record.ID, "all record sources failed")
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailed, failed.Status)
		assert.Equal(t, "all record sources failed", failed.Error)

		_, err = s.CompleteCheck(ctx, record.ID, &models.RiskAssessment{RiskScore: 50})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.GetCheck(ctx, uuid.New())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.CompleteCheck(ctx, uuid.New(), &models.RiskAssessment{})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FailCheck(ctx, uuid.New(), "boom")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		s := NewMemoryStore()
		record := seedCheck(t, s, "owner-1", "Test User", "19800101-1234")
		record.Subject.Name = "mutated"

		got, err := s.GetCheck(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "Test User", got.Subject.Name)
	})
}

func TestMemoryStoreQueryChecks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	s.SetNow(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	alice := seedCheck(t, s, "owner-1", "Alice Larsson", "19800101-0001")
	bob := seedCheck(t, s, "owner-1", "Bob Berg", "19900202-0002")
	carol := seedCheck(t, s, "owner-1", "Carol Lund", "19700303-0003")
	seedCheck(t, s, "owner-2", "Other Tenant", "19600404-0004")

	_, err := s.CompleteCheck(ctx, alice.ID, &models.RiskAssessment{RiskScore: 20})
	require.NoError(t, err)
	_, err = s.CompleteCheck(ctx, bob.ID, &models.RiskAssessment{RiskScore: 80})
	require.NoError(t, err)

	t.Run("only the owner's checks, newest first", func(t *testing.T) {
		records, total, err := s.QueryChecks(ctx, "owner-1", QueryFilters{}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, records, 3)
		assert.Equal(t, carol.ID, records[0].ID)
		assert.Equal(t, bob.ID, records[1].ID)
		assert.Equal(t, alice.ID, records[2].ID)
	})

	t.Run("pagination slices and keeps the full total", func(t *testing.T) {
		records, total, err := s.QueryChecks(ctx, "owner-1", QueryFilters{}, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, records, 1)
		assert.Equal(t, alice.ID, records[0].ID)
	})

	t.Run("page beyond the data is empty, not an error", func(t *testing.T) {
		records, total, err := s.QueryChecks(ctx, "owner-1", QueryFilters{}, 5, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Empty(t, records)
	})

	t.Run("search matches name and personal number, case-insensitively", func(t *testing.T) {
		records, total, err := s.QueryChecks(ctx, "owner-1", QueryFilters{Search: "alice"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, records, 1)
		assert.Equal(t, alice.ID, records[0].ID)

		records, _, err = s.QueryChecks(ctx, "owner-1", QueryFilters{Search: "0002"}, 1, 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, bob.ID, records[0].ID)
	})

	t.Run("date range filters on initiation time", func(t *testing.T) {
		cutoff := alice.InitiatedAt.Add(30 * time.Second)
		records, total, err := s.QueryChecks(ctx, "owner-1", QueryFilters{StartDate: &cutoff}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, r := range records {
			assert.NotEqual(t, alice.ID, r.ID)
		}
	})

	t.Run("risk range excludes pending records", func(t *testing.T) {
		records, total, err := s.QueryChecks(ctx, "owner-1", QueryFilters{MinRiskScore: ptrFloat(0)}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, r := range records {
			assert.NotEqual(t, carol.ID, r.ID)
		}

		records, _, err = s.QueryChecks(ctx, "owner-1", QueryFilters{MinRiskScore: ptrFloat(50), MaxRiskScore: ptrFloat(90)}, 1, 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, bob.ID, records[0].ID)
	})
}

func TestMemoryStoreListCompletedAssessments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a := seedCheck(t, s, "owner-1", "A", "1")
	b := seedCheck(t, s, "owner-1", "B", "2")
	c := seedCheck(t, s, "owner-1", "C", "3")
	seedCheck(t, s, "owner-2", "D", "4")

	_, err := s.CompleteCheck(ctx, a.ID, &models.RiskAssessment{RiskScore: 10})
	require.NoError(t, err)
	_, err = s.CompleteCheck(ctx, b.ID, &models.RiskAssessment{RiskScore: 75, Partial: true})
	require.NoError(t, err)
	_, err = s.FailCheck(ctx, c.ID, "boom")
	require.NoError(t, err)

	assessments, err := s.ListCompletedAssessments(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, assessments, 2)

	scores := []float64{assessments[0].RiskScore, assessments[1].RiskScore}
	assert.ElementsMatch(t, []float64{10, 75}, scores)
}
