// Package service orchestrates the background-check lifecycle: record
// creation, evidence gathering, scoring, persistence, cache invalidation,
// and completion notification.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"backcheck/internal/cache"
	"backcheck/internal/check/models"
	"backcheck/internal/check/scoring"
	"backcheck/internal/check/store"
	"backcheck/internal/notify"
	dErrors "backcheck/pkg/domain-errors"
	"backcheck/pkg/platform/sentinel"
	"backcheck/pkg/requestcontext"
)

const defaultCacheTTL = 5 * time.Minute

// Gatherer produces one evidence bundle per subject.
type Gatherer interface {
	Gather(ctx context.Context, personalNumber string) (*models.EvidenceBundle, error)
}

// Recorder receives operational counters. The metrics package satisfies it;
// tests run with the no-op default.
type Recorder interface {
	RecordSubmitted()
	RecordCompleted(elapsed time.Duration)
	RecordFailed(elapsed time.Duration)
	RecordSourceFailure(category string)
	RecordCacheHit()
	RecordCacheMiss()
	RecordNotifyFailure()
}

type noopRecorder struct{}

func (noopRecorder) RecordSubmitted()              {}
func (noopRecorder) RecordCompleted(time.Duration) {}
func (noopRecorder) RecordFailed(time.Duration)    {}
func (noopRecorder) RecordSourceFailure(string)    {}
func (noopRecorder) RecordCacheHit()               {}
func (noopRecorder) RecordCacheMiss()              {}
func (noopRecorder) RecordNotifyFailure()          {}

// Service is the check orchestrator.
type Service struct {
	store    store.CheckStore
	gatherer Gatherer
	cache    cache.Cache
	sink     notify.Sink

	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	cacheTTL time.Duration
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

func New(checkStore store.CheckStore, gatherer Gatherer, resultCache cache.Cache, sink notify.Sink, opts ...Option) (*Service, error) {
	if checkStore == nil {
		return nil, errors.New("check store is required")
	}
	if gatherer == nil {
		return nil, errors.New("gatherer is required")
	}
	if resultCache == nil {
		return nil, errors.New("result cache is required")
	}
	if sink == nil {
		return nil, errors.New("notification sink is required")
	}

	s := &Service{
		store:    checkStore,
		gatherer: gatherer,
		cache:    resultCache,
		sink:     sink,
		logger:   slog.Default(),
		recorder: noopRecorder{},
		tracer:   otel.Tracer("backcheck/check"),
		cacheTTL: defaultCacheTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit runs one background check synchronously: the record is created
// pending, evidence is gathered and scored, and the record reaches a
// terminal state before Submit returns. A processing failure leaves a failed
// record behind and surfaces the error to the caller.
func (s *Service) Submit(ctx context.Context, subject models.Subject) (*models.CheckRecord, error) {
	ownerID := requestcontext.OwnerID(ctx)
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing authenticated owner")
	}

	ctx, span := s.tracer.Start(ctx, "check.Submit")
	defer span.End()

	record, err := s.store.CreateCheck(ctx, subject, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create check: %w", err)
	}
	s.recorder.RecordSubmitted()
	span.SetAttributes(attribute.String("check.id", record.ID.String()))

	started := s.now()

	bundle, err := s.gatherer.Gather(ctx, subject.PersonalNumber)
	if err != nil {
		return nil, s.fail(ctx, record.ID, started, err)
	}
	for _, srcErr := range bundle.SourceErrors {
		s.recorder.RecordSourceFailure(srcErr.Category.String())
	}

	assessment, err := scoring.Score(bundle)
	if err != nil {
		return nil, s.fail(ctx, record.ID, started, err)
	}

	completed, err := s.store.CompleteCheck(ctx, record.ID, assessment)
	if err != nil {
		// The record must not stay pending: attempt the failed transition
		// even though the store just errored.
		return nil, s.fail(ctx, record.ID, started, fmt.Errorf("complete check: %w", err))
	}
	s.recorder.RecordCompleted(s.now().Sub(started))
	s.invalidate(ctx)

	s.notifyCompletion(ctx, completed)

	s.logger.InfoContext(ctx, "check completed",
		"check_id", completed.ID,
		"owner_id", ownerID,
		"risk_score", assessment.RiskScore,
		"partial", assessment.Partial,
	)
	return completed, nil
}

// fail moves the record to its failed terminal state and passes the original
// error through. The failure record keeps only a short summary; the cause
// stays in the logs.
func (s *Service) fail(ctx context.Context, id uuid.UUID, started time.Time, cause error) error {
	summary := dErrors.MessageOf(cause)
	if summary == "" {
		summary = "check processing failed"
	}
	if _, err := s.store.FailCheck(ctx, id, summary); err != nil {
		s.logger.ErrorContext(ctx, "recording check failure failed",
			"check_id", id,
			"error", err,
		)
	}
	s.recorder.RecordFailed(s.now().Sub(started))
	s.invalidate(ctx)

	s.logger.WarnContext(ctx, "check failed",
		"check_id", id,
		"error", cause,
	)
	return cause
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}

// notifyCompletion delivers the completion notification. Best-effort: a sink
// failure is logged and counted, never surfaced.
func (s *Service) notifyCompletion(ctx context.Context, record *models.CheckRecord) {
	n := models.Notification{
		OwnerID: record.OwnerID,
		Text:    fmt.Sprintf("Background check for %s completed", record.Subject.Name),
	}
	if err := s.sink.Notify(ctx, n); err != nil {
		s.recorder.RecordNotifyFailure()
		s.logger.WarnContext(ctx, "completion notification failed",
			"check_id", record.ID,
			"error", err,
		)
	}
}

// QueryResult is one page of an owner's check history.
type QueryResult struct {
	Records    []*models.CheckRecord `json:"records"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// Query returns one page of the owner's checks, served from the result cache
// when the exact same parameter tuple was queried within the TTL.
func (s *Service) Query(ctx context.Context, filters store.QueryFilters, page, pageSize int) (*QueryResult, error) {
	ownerID := requestcontext.OwnerID(ctx)
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing authenticated owner")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	key := queryCacheKey(ownerID, filters, page, pageSize)
	if result, ok := cacheGet[QueryResult](ctx, s, key); ok {
		return result, nil
	}

	records, total, err := s.store.QueryChecks(ctx, ownerID, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}

	result := &QueryResult{
		Records:    records,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	s.cacheSet(ctx, key, result)
	return result, nil
}

// Get returns one check. A record belonging to another owner is reported as
// not found rather than forbidden, so check IDs leak nothing.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.CheckRecord, error) {
	ownerID := requestcontext.OwnerID(ctx)
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing authenticated owner")
	}

	record, err := s.store.GetCheck(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "check not found")
		}
		return nil, fmt.Errorf("get check: %w", err)
	}
	if record.OwnerID != ownerID {
		return nil, dErrors.New(dErrors.CodeNotFound, "check not found")
	}
	return record, nil
}

// Stats aggregates the owner's completed checks into risk buckets. Partial
// assessments are excluded so missing sources cannot skew the averages.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	ownerID := requestcontext.OwnerID(ctx)
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing authenticated owner")
	}

	key := "stats:" + ownerID
	if stats, ok := cacheGet[models.Stats](ctx, s, key); ok {
		return stats, nil
	}

	assessments, err := s.store.ListCompletedAssessments(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	stats := &models.Stats{}
	var sum float64
	counted := 0
	for _, a := range assessments {
		if a.Partial {
			continue
		}
		switch {
		case a.RiskScore < 30:
			stats.LowRisk++
		case a.RiskScore < 70:
			stats.MediumRisk++
		default:
			stats.HighRisk++
		}
		sum += a.RiskScore
		counted++
	}
	if counted > 0 {
		avg := math.Round(sum/float64(counted)*100) / 100
		stats.AverageRiskScore = &avg
	}

	s.cacheSet(ctx, key, stats)
	return stats, nil
}

// queryCacheKey encodes the exact parameter tuple. Every segment is emitted
// unconditionally and the free-text search is escaped, so a crafted search
// term cannot produce another tuple's key.
func queryCacheKey(ownerID string, filters store.QueryFilters, page, pageSize int) string {
	var from, to, minScore, maxScore string
	if filters.StartDate != nil {
		from = filters.StartDate.UTC().Format(time.RFC3339Nano)
	}
	if filters.EndDate != nil {
		to = filters.EndDate.UTC().Format(time.RFC3339Nano)
	}
	if filters.MinRiskScore != nil {
		minScore = fmt.Sprintf("%g", *filters.MinRiskScore)
	}
	if filters.MaxRiskScore != nil {
		maxScore = fmt.Sprintf("%g", *filters.MaxRiskScore)
	}
	return fmt.Sprintf("query:%s:p%d:s%d:q=%s:from=%s:to=%s:min=%s:max=%s",
		ownerID, page, pageSize, url.QueryEscape(filters.Search), from, to, minScore, maxScore)
}

// cacheGet loads and decodes a cached value. Any cache error counts as a
// miss; the store remains the source of truth.
func cacheGet[T any](ctx context.Context, s *Service, key string) (*T, bool) {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		}
		s.recorder.RecordCacheMiss()
		return nil, false
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		s.logger.WarnContext(ctx, "cache entry corrupt", "key", key, "error", err)
		s.recorder.RecordCacheMiss()
		return nil, false
	}
	s.recorder.RecordCacheHit()
	return &value, true
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
