// Package sources defines the fetcher contract for external record
// categories and its HTTP and static implementations.
package sources

import (
	"context"

	"backcheck/internal/check/models"
)

// Records carries one fetcher's output. Only the field matching the
// fetcher's category is populated; the aggregator merges records from all
// fetchers into a single bundle.
type Records struct {
	Criminal   []models.CriminalRecord
	Financial  *models.FinancialRecord
	Employment []models.EmploymentRecord
}

// Fetcher retrieves one category of records for a subject.
//
// An empty result is a legitimate answer, distinct from failure: a fetcher
// must not error for "no records found". Failures are reported as errors
// wrapping sentinel.ErrUnavailable or sentinel.ErrTimeout. Fetchers honor
// context cancellation so a per-check deadline can abandon slow calls.
type Fetcher interface {
	Category() models.Category
	Fetch(ctx context.Context, personalNumber string) (*Records, error)
}
