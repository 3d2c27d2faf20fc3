// Package aggregate fans out to all configured record sources for one
// subject and assembles a single evidence bundle.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"backcheck/internal/check/models"
	"backcheck/internal/check/sources"
	dErrors "backcheck/pkg/domain-errors"
	"backcheck/pkg/platform/sentinel"
	"backcheck/pkg/requestcontext"
)

const defaultTimeout = 20 * time.Second

// Aggregator gathers evidence from independent source fetchers.
type Aggregator struct {
	fetchers []sources.Fetcher
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Aggregator)

// WithLogger attaches a structured logger for per-source failure logging.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithTimeout bounds one whole gather call. It should exceed the individual
// fetcher timeouts plus wiring overhead.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = timeout
	}
}

func New(fetchers []sources.Fetcher, opts ...Option) (*Aggregator, error) {
	if len(fetchers) == 0 {
		return nil, errors.New("at least one fetcher is required")
	}

	a := &Aggregator{
		fetchers: fetchers,
		timeout:  defaultTimeout,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// settled holds one fetcher's outcome. Each goroutine writes only its own
// slot, so no lock is needed around the slice.
type settled struct {
	category models.Category
	records  *sources.Records
	err      error
}

// Gather invokes every fetcher concurrently and joins on all of them
// settling, success or failure. A single failed source downgrades only its
// category to unavailable; Gather itself fails only when every source
// failed or the per-check deadline expired.
func (a *Aggregator) Gather(ctx context.Context, personalNumber string) (*models.EvidenceBundle, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make([]settled, len(a.fetchers))

	var g errgroup.Group
	for i, f := range a.fetchers {
		g.Go(func() error {
			recs, err := f.Fetch(ctx, personalNumber)
			// Settle into the slot instead of propagating: partial
			// results are required, so the group must never cancel
			// siblings on one source failing.
			results[i] = settled{category: f.Category(), records: recs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "record gathering exceeded its deadline")
	}

	return a.assemble(ctx, results)
}

// assemble merges settled results into a bundle with fixed category order so
// scoring is deterministic regardless of fetcher completion order.
func (a *Aggregator) assemble(ctx context.Context, results []settled) (*models.EvidenceBundle, error) {
	bundle := &models.EvidenceBundle{
		Statuses:   make(map[models.Category]models.SourceStatus, len(results)),
		GatheredAt: requestcontext.Now(ctx),
	}

	byCategory := make(map[models.Category]settled, len(results))
	for _, res := range results {
		byCategory[res.category] = res
	}

	failures := 0
	for _, category := range models.Categories {
		res, ok := byCategory[category]
		if !ok {
			continue
		}
		if res.err != nil {
			failures++
			bundle.Statuses[category] = models.SourceUnavailable
			bundle.SourceErrors = append(bundle.SourceErrors, models.SourceError{
				Category: category,
				Message:  classify(res.err),
			})
			if a.logger != nil {
				a.logger.WarnContext(ctx, "record source failed",
					"category", category,
					"error", res.err,
				)
			}
			continue
		}

		bundle.Statuses[category] = models.SourceAvailable
		bundle.Criminal = append(bundle.Criminal, res.records.Criminal...)
		bundle.Employment = append(bundle.Employment, res.records.Employment...)
		if res.records.Financial != nil {
			bundle.Financial = res.records.Financial
		}
	}

	if failures == len(results) {
		return nil, dErrors.New(dErrors.CodeUnavailable, "all record sources failed")
	}

	return bundle, nil
}

// classify reduces a fetcher error to its failure mode. Raw upstream detail
// stays in the logs, never in the bundle.
func classify(err error) string {
	switch {
	case errors.Is(err, sentinel.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "source timeout"
	default:
		return "source unavailable"
	}
}
