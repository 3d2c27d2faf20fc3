package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"backcheck/internal/check/models"
	"backcheck/pkg/platform/sentinel"
)

// PostgresStore persists check records in PostgreSQL. Assessments are stored
// as jsonb; the record's queryable fields (owner, status, subject, risk
// score, timestamps) live in columns.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgres constructs a PostgreSQL-backed check store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates the checks table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS checks (
	id              UUID PRIMARY KEY,
	owner_id        TEXT NOT NULL,
	status          TEXT NOT NULL,
	name            TEXT NOT NULL,
	personal_number TEXT NOT NULL,
	risk_score      DOUBLE PRECISION,
	assessment      JSONB,
	error           TEXT NOT NULL DEFAULT '',
	initiated_at    TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS checks_owner_initiated_idx ON checks (owner_id, initiated_at DESC);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure checks schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateCheck(ctx context.Context, subject models.Subject, ownerID string) (*models.CheckRecord, error) {
	record := &models.CheckRecord{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Status:      models.StatusPending,
		Subject:     subject,
		InitiatedAt: s.now().UTC(),
	}

	const query = `
INSERT INTO checks (id, owner_id, status, name, personal_number, initiated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.OwnerID, string(record.Status),
		record.Subject.Name, record.Subject.PersonalNumber, record.InitiatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create check: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) CompleteCheck(ctx context.Context, id uuid.UUID, assessment *models.RiskAssessment) (*models.CheckRecord, error) {
	payload, err := json.Marshal(assessment)
	if err != nil {
		return nil, fmt.Errorf("marshal assessment: %w", err)
	}

	const query = `
UPDATE checks
SET status = $2, risk_score = $3, assessment = $4, completed_at = $5
WHERE id = $1 AND status = $6
RETURNING id, owner_id, status, name, personal_number, assessment, error, initiated_at, completed_at`
	row := s.db.QueryRowContext(ctx, query,
		id, string(models.StatusCompleted), assessment.RiskScore, payload,
		s.now().UTC(), string(models.StatusPending),
	)
	record, err := scanRecord(row)
	if err != nil {
		return nil, s.transitionErr(ctx, id, err, "complete check")
	}
	return record, nil
}

func (s *PostgresStore) FailCheck(ctx context.Context, id uuid.UUID, errSummary string) (*models.CheckRecord, error) {
	const query = `
UPDATE checks
SET status = $2, error = $3, completed_at = $4
WHERE id = $1 AND status = $5
RETURNING id, owner_id, status, name, personal_number, assessment, error, initiated_at, completed_at`
	row := s.db.QueryRowContext(ctx, query,
		id, string(models.StatusFailed), errSummary, s.now().UTC(), string(models.StatusPending),
	)
	record, err := scanRecord(row)
	if err != nil {
		return nil, s.transitionErr(ctx, id, err, "fail check")
	}
	return record, nil
}

// transitionErr distinguishes a missing record from a record already in a
// terminal state, since both make the guarded UPDATE match nothing.
func (s *PostgresStore) transitionErr(ctx context.Context, id uuid.UUID, err error, op string) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var exists bool
	probe := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM checks WHERE id = $1)`, id)
	if scanErr := probe.Scan(&exists); scanErr != nil {
		return fmt.Errorf("%s: %w", op, scanErr)
	}
	if exists {
		return sentinel.ErrConflict
	}
	return sentinel.ErrNotFound
}

func (s *PostgresStore) GetCheck(ctx context.Context, id uuid.UUID) (*models.CheckRecord, error) {
	const query = `
SELECT id, owner_id, status, name, personal_number, assessment, error, initiated_at, completed_at
FROM checks
WHERE id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get check: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) QueryChecks(ctx context.Context, ownerID string, filters QueryFilters, page, pageSize int) ([]*models.CheckRecord, int, error) {
	where, args := buildWhere(ownerID, filters)

	var total int
	countQuery := "SELECT COUNT(*) FROM checks " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count checks: %w", err)
	}

	pageQuery := fmt.Sprintf(`
SELECT id, owner_id, status, name, personal_number, assessment, error, initiated_at, completed_at
FROM checks %s
ORDER BY initiated_at DESC
LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	records := make([]*models.CheckRecord, 0, pageSize)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan check: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate checks: %w", err)
	}
	return records, total, nil
}

func (s *PostgresStore) ListCompletedAssessments(ctx context.Context, ownerID string) ([]*models.RiskAssessment, error) {
	const query = `
SELECT assessment FROM checks
WHERE owner_id = $1 AND status = $2 AND assessment IS NOT NULL`
	rows, err := s.db.QueryContext(ctx, query, ownerID, string(models.StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []*models.RiskAssessment
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		var assessment models.RiskAssessment
		if err := json.Unmarshal(payload, &assessment); err != nil {
			return nil, fmt.Errorf("unmarshal assessment: %w", err)
		}
		out = append(out, &assessment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

func buildWhere(ownerID string, filters QueryFilters) (string, []any) {
	clauses := []string{"owner_id = $1"}
	args := []any{ownerID}

	next := func() int { return len(args) + 1 }

	if filters.Search != "" {
		n := next()
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR personal_number ILIKE $%d)", n, n))
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.StartDate != nil {
		clauses = append(clauses, fmt.Sprintf("initiated_at >= $%d", next()))
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		clauses = append(clauses, fmt.Sprintf("initiated_at <= $%d", next()))
		args = append(args, *filters.EndDate)
	}
	if filters.MinRiskScore != nil {
		clauses = append(clauses, fmt.Sprintf("risk_score >= $%d", next()))
		args = append(args, *filters.MinRiskScore)
	}
	if filters.MaxRiskScore != nil {
		clauses = append(clauses, fmt.Sprintf("risk_score <= $%d", next()))
		args = append(args, *filters.MaxRiskScore)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.CheckRecord, error) {
	var (
		record     models.CheckRecord
		status     string
		assessment []byte
		completed  sql.NullTime
	)
	err := row.Scan(
		&record.ID, &record.OwnerID, &status,
		&record.Subject.Name, &record.Subject.PersonalNumber,
		&assessment, &record.Error, &record.InitiatedAt, &completed,
	)
	if err != nil {
		return nil, err
	}
	record.Status = models.CheckStatus(status)
	if len(assessment) > 0 {
		record.Assessment = &models.RiskAssessment{}
		if err := json.Unmarshal(assessment, record.Assessment); err != nil {
			return nil, fmt.Errorf("unmarshal assessment: %w", err)
		}
	}
	if completed.Valid {
		record.CompletedAt = &completed.Time
	}
	return &record, nil
}
