// Package handler wires the check endpoints to the check service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"backcheck/internal/check/models"
	"backcheck/internal/check/service"
	"backcheck/internal/check/store"
	dErrors "backcheck/pkg/domain-errors"
	"backcheck/pkg/platform/httputil"
	"backcheck/pkg/requestcontext"
)

// Service defines the interface for check operations.
type Service interface {
	Submit(ctx context.Context, subject models.Subject) (*models.CheckRecord, error)
	Query(ctx context.Context, filters store.QueryFilters, page, pageSize int) (*service.QueryResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CheckRecord, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// Handler wires check endpoints to the check service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a check handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts check endpoints on the router. submitWrap is applied to
// the submission route only, so list and read traffic is never throttled by
// the submission rate limit.
func (h *Handler) Register(r chi.Router, submitWrap func(http.Handler) http.Handler) {
	if submitWrap != nil {
		r.With(submitWrap).Post("/checks", h.HandleSubmit)
	} else {
		r.Post("/checks", h.HandleSubmit)
	}
	r.Get("/checks", h.HandleList)
	r.Get("/checks/stats", h.HandleStats)
	r.Get("/checks/{id}", h.HandleGet)
}

// HandleSubmit handles POST /api/checks requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	record, err := h.service.Submit(ctx, models.Subject{
		Name:           req.Name,
		PersonalNumber: req.PersonalNumber,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "check submission failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "check submitted",
		"request_id", requestID,
		"check_id", record.ID,
		"status", record.Status,
		"client_ip", requestcontext.ClientIP(ctx),
		"user_agent", requestcontext.UserAgent(ctx),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(record))
}

// HandleList handles GET /api/checks requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Query(ctx, q.filters, q.page, q.pageSize)
	if err != nil {
		h.logger.ErrorContext(ctx, "check query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromQueryResult(result))
}

// HandleGet handles GET /api/checks/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "check id must be a UUID"))
		return
	}

	record, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleStats handles GET /api/checks/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromStats(stats))
}
