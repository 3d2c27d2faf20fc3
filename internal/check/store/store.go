// Package store defines the durable check store contract and its
// implementations. The core produces and consumes CheckRecords; storage
// lifecycle beyond this narrow contract is the store's concern.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"backcheck/internal/check/models"
)

// QueryFilters narrows a historical checks query. Zero values mean "no
// constraint". The risk-score range only matches completed checks, since
// pending and failed records carry no score.
type QueryFilters struct {
	// Search matches case-insensitively against subject name and personal
	// number.
	Search string

	StartDate *time.Time
	EndDate   *time.Time

	MinRiskScore *float64
	MaxRiskScore *float64
}

// CheckStore is the durable store contract.
//
// CompleteCheck and FailCheck are the only transitions and both require the
// record to still be pending; attempting to re-transition a terminal record
// fails with sentinel.ErrConflict. Implementations must never overwrite an
// attached assessment.
type CheckStore interface {
	CreateCheck(ctx context.Context, subject models.Subject, ownerID string) (*models.CheckRecord, error)
	CompleteCheck(ctx context.Context, id uuid.UUID, assessment *models.RiskAssessment) (*models.CheckRecord, error)
	FailCheck(ctx context.Context, id uuid.UUID, errSummary string) (*models.CheckRecord, error)

	GetCheck(ctx context.Context, id uuid.UUID) (*models.CheckRecord, error)

	// QueryChecks returns one page of the owner's checks ordered by
	// initiation time descending, plus the total match count.
	QueryChecks(ctx context.Context, ownerID string, filters QueryFilters, page, pageSize int) ([]*models.CheckRecord, int, error)

	// ListCompletedAssessments returns every completed check's assessment
	// for an owner, for aggregate statistics.
	ListCompletedAssessments(ctx context.Context, ownerID string) ([]*models.RiskAssessment, error)
}
