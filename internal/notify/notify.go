// Package notify delivers completion notifications to their sink.
//
// Delivery is best-effort by contract: the orchestrator logs failures and
// never lets them change a check's outcome.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"backcheck/internal/check/models"
)

// Sink receives one message per completed check. The delivery channel
// (in-app record, email, message bus) is the implementation's concern.
type Sink interface {
	Notify(ctx context.Context, n models.Notification) error
}

// LogSink writes notifications to the structured log. The default for
// deployments without a message bus.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, n models.Notification) error {
	s.logger.InfoContext(ctx, "check notification",
		"owner_id", n.OwnerID,
		"text", n.Text,
	)
	return nil
}

// MemorySink collects notifications for inspection in tests.
type MemorySink struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Fail makes every subsequent Notify return err.
func (s *MemorySink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *MemorySink) Notify(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (s *MemorySink) Sent() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.sent))
	copy(out, s.sent)
	return out
}
