package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"backcheck/internal/check/models"
	"backcheck/pkg/platform/sentinel"
)

// MemoryStore is an in-memory CheckStore for tests and single-node runs.
type MemoryStore struct {
	mu     sync.RWMutex
	checks map[uuid.UUID]*models.CheckRecord

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checks: make(map[uuid.UUID]*models.CheckRecord),
		now:    time.Now,
	}
}

// SetNow overrides the clock. Test hook.
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) CreateCheck(ctx context.Context, subject models.Subject, ownerID string) (*models.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := &models.CheckRecord{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Status:      models.StatusPending,
		Subject:     subject,
		InitiatedAt: s.now().UTC(),
	}
	s.checks[record.ID] = record
	return copyRecord(record), nil
}

func (s *MemoryStore) CompleteCheck(ctx context.Context, id uuid.UUID, assessment *models.RiskAssessment) (*models.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.checks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if record.Status.Terminal() {
		return nil, sentinel.ErrConflict
	}

	completedAt := s.now().UTC()
	record.Status = models.StatusCompleted
	record.Assessment = assessment
	record.CompletedAt = &completedAt
	return copyRecord(record), nil
}

func (s *MemoryStore) FailCheck(ctx context.Context, id uuid.UUID, errSummary string) (*models.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.checks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if record.Status.Terminal() {
		return nil, sentinel.ErrConflict
	}

	completedAt := s.now().UTC()
	record.Status = models.StatusFailed
	record.Error = errSummary
	record.CompletedAt = &completedAt
	return copyRecord(record), nil
}

func (s *MemoryStore) GetCheck(ctx context.Context, id uuid.UUID) (*models.CheckRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.checks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(record), nil
}

func (s *MemoryStore) QueryChecks(ctx context.Context, ownerID string, filters QueryFilters, page, pageSize int) ([]*models.CheckRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.CheckRecord
	for _, record := range s.checks {
		if record.OwnerID != ownerID || !matches(record, filters) {
			continue
		}
		matched = append(matched, copyRecord(record))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].InitiatedAt.After(matched[j].InitiatedAt)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []*models.CheckRecord{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) ListCompletedAssessments(ctx context.Context, ownerID string) ([]*models.RiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.RiskAssessment
	for _, record := range s.checks {
		if record.OwnerID != ownerID || record.Status != models.StatusCompleted || record.Assessment == nil {
			continue
		}
		copied := *record.Assessment
		out = append(out, &copied)
	}
	return out, nil
}

func matches(record *models.CheckRecord, filters QueryFilters) bool {
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(record.Subject.Name), needle) &&
			!strings.Contains(strings.ToLower(record.Subject.PersonalNumber), needle) {
			return false
		}
	}
	if filters.StartDate != nil && record.InitiatedAt.Before(*filters.StartDate) {
		return false
	}
	if filters.EndDate != nil && record.InitiatedAt.After(*filters.EndDate) {
		return false
	}
	if filters.MinRiskScore != nil || filters.MaxRiskScore != nil {
		if record.Status != models.StatusCompleted || record.Assessment == nil {
			return false
		}
		if filters.MinRiskScore != nil && record.Assessment.RiskScore < *filters.MinRiskScore {
			return false
		}
		if filters.MaxRiskScore != nil && record.Assessment.RiskScore > *filters.MaxRiskScore {
			return false
		}
	}
	return true
}

func copyRecord(record *models.CheckRecord) *models.CheckRecord {
	copied := *record
	if record.Assessment != nil {
		assessment := *record.Assessment
		copied.Assessment = &assessment
	}
	if record.CompletedAt != nil {
		completedAt := *record.CompletedAt
		copied.CompletedAt = &completedAt
	}
	return &copied
}
