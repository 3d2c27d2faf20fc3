package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck/internal/check/models"
	"backcheck/internal/check/sources"
	dErrors "backcheck/pkg/domain-errors"
	"backcheck/pkg/platform/sentinel"
	"backcheck/pkg/requestcontext"
)

// fakeFetcher settles with canned records or a canned error, optionally
// after a delay to exercise the join and deadline behavior.
type fakeFetcher struct {
	category models.Category
	records  *sources.Records
	err      error
	delay    time.Duration
}

func (f fakeFetcher) Category() models.Category { return f.category }

func (f fakeFetcher) Fetch(ctx context.Context, personalNumber string) (*sources.Records, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%s source: %w", f.category, sentinel.ErrTimeout)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func criminalOK() fakeFetcher {
	return fakeFetcher{
		category: models.CategoryCriminal,
		records:  &sources.Records{Criminal: []models.CriminalRecord{{Offense: "Minor theft", Date: "2020-03-15"}}},
	}
}

func financialOK() fakeFetcher {
	return fakeFetcher{
		category: models.CategoryFinancial,
		records:  &sources.Records{Financial: &models.FinancialRecord{CreditScore: 720}},
	}
}

func employmentOK() fakeFetcher {
	end := "2021-12-31"
	return fakeFetcher{
		category: models.CategoryEmployment,
		records:  &sources.Records{Employment: []models.EmploymentRecord{{Employer: "Tech Corp", StartDate: "2018-01-01", EndDate: &end}}},
	}
}

func failing(c models.Category) fakeFetcher {
	return fakeFetcher{category: c, err: fmt.Errorf("%s source: %w", c, sentinel.ErrUnavailable)}
}

func TestNew(t *testing.T) {
	t.Run("no fetchers returns error", func(t *testing.T) {
		_, err := New(nil)
		assert.Error(t, err)
	})
}

func TestGather(t *testing.T) {
	ctx := context.Background()

	t.Run("all sources available yields complete bundle", func(t *testing.T) {
		agg, err := New([]sources.Fetcher{criminalOK(), financialOK(), employmentOK()})
		require.NoError(t, err)

		bundle, err := agg.Gather(ctx, "19800101-1234")
		require.NoError(t, err)

		assert.False(t, bundle.Partial())
		assert.Len(t, bundle.Criminal, 1)
		require.NotNil(t, bundle.Financial)
		assert.Equal(t, 720, bundle.Financial.CreditScore)
		assert.Len(t, bundle.Employment, 1)
		assert.Empty(t, bundle.SourceErrors)
	})

	t.Run("one failed source downgrades only its category", func(t *testing.T) {
		agg, err := New([]sources.Fetcher{failing(models.CategoryCriminal), financialOK(), employmentOK()})
		require.NoError(t, err)

		bundle, err := agg.Gather(ctx, "19800101-1234")
		require.NoError(t, err)

		assert.True(t, bundle.Partial())
		assert.Equal(t, models.SourceUnavailable, bundle.Statuses[models.CategoryCriminal])
		assert.Equal(t, models.SourceAvailable, bundle.Statuses[models.CategoryFinancial])
		assert.Equal(t, models.SourceAvailable, bundle.Statuses[models.CategoryEmployment])
		require.Len(t, bundle.SourceErrors, 1)
		assert.Equal(t, models.CategoryCriminal, bundle.SourceErrors[0].Category)
		assert.NotNil(t, bundle.Financial)
	})

	t.Run("two of three failing still succeeds", func(t *testing.T) {
		agg, err := New([]sources.Fetcher{failing(models.CategoryCriminal), failing(models.CategoryFinancial), employmentOK()})
		require.NoError(t, err)

		bundle, err := agg.Gather(ctx, "19800101-1234")
		require.NoError(t, err)
		assert.True(t, bundle.Partial())
		assert.Len(t, bundle.SourceErrors, 2)
	})

	t.Run("all sources failing fails the aggregation", func(t *testing.T) {
		agg, err := New([]sources.Fetcher{
			failing(models.CategoryCriminal),
			failing(models.CategoryFinancial),
			failing(models.CategoryEmployment),
		})
		require.NoError(t, err)

		_, err = agg.Gather(ctx, "19800101-1234")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("deadline expiry fails the aggregation", func(t *testing.T) {
		slow := fakeFetcher{category: models.CategoryCriminal, delay: time.Second, records: &sources.Records{}}
		agg, err := New([]sources.Fetcher{slow, financialOK(), employmentOK()}, WithTimeout(20*time.Millisecond))
		require.NoError(t, err)

		start := time.Now()
		_, err = agg.Gather(ctx, "19800101-1234")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.Less(t, time.Since(start), 500*time.Millisecond, "in-flight fetchers must be abandoned, not awaited")
	})

	t.Run("bundle order is fixed by category, not completion order", func(t *testing.T) {
		// Criminal answers last; its records must still come first.
		slowCriminal := criminalOK()
		slowCriminal.delay = 30 * time.Millisecond
		agg, err := New([]sources.Fetcher{employmentOK(), financialOK(), slowCriminal})
		require.NoError(t, err)

		bundle, err := agg.Gather(ctx, "19800101-1234")
		require.NoError(t, err)
		require.Len(t, bundle.Criminal, 1)
		assert.Equal(t, "Minor theft", bundle.Criminal[0].Offense)
	})

	t.Run("gather timestamp follows the request clock", func(t *testing.T) {
		agg, err := New([]sources.Fetcher{criminalOK(), financialOK(), employmentOK()})
		require.NoError(t, err)

		at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		bundle, err := agg.Gather(requestcontext.WithTime(ctx, at), "19800101-1234")
		require.NoError(t, err)
		assert.Equal(t, at, bundle.GatheredAt)
	})

	t.Run("empty results are valid, not failures", func(t *testing.T) {
		empty := fakeFetcher{category: models.CategoryCriminal, records: &sources.Records{}}
		agg, err := New([]sources.Fetcher{empty, financialOK(), employmentOK()})
		require.NoError(t, err)

		bundle, err := agg.Gather(ctx, "19990101-0000")
		require.NoError(t, err)
		assert.False(t, bundle.Partial())
		assert.Empty(t, bundle.Criminal)
	})
}
