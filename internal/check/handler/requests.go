package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"backcheck/internal/check/store"
	dErrors "backcheck/pkg/domain-errors"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// SubmitRequest is the HTTP request body for POST /api/checks.
type SubmitRequest struct {
	Name           string `json:"name"`
	PersonalNumber string `json:"personal_number"`
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}

	r.PersonalNumber = strings.TrimSpace(r.PersonalNumber)
	if r.PersonalNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "personal_number is required")
	}
	if len(r.PersonalNumber) > 20 {
		return dErrors.New(dErrors.CodeValidation, "personal_number must be at most 20 characters")
	}

	return nil
}

// listQuery holds the parsed query parameters for GET /api/checks.
type listQuery struct {
	filters  store.QueryFilters
	page     int
	pageSize int
}

// parseListQuery parses and validates pagination and filter parameters.
// Dates accept RFC 3339 timestamps or plain dates; an end date given as a
// plain date covers that whole day.
func parseListQuery(r *http.Request) (*listQuery, error) {
	q := &listQuery{page: 1, pageSize: defaultPageSize}
	params := r.URL.Query()

	if raw := params.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return nil, dErrors.New(dErrors.CodeValidation, "page must be a positive integer")
		}
		q.page = page
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return nil, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
		q.pageSize = limit
	}

	q.filters.Search = strings.TrimSpace(params.Get("search"))

	if raw := params.Get("start_date"); raw != "" {
		t, _, err := parseDate(raw)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "start_date must be a date or RFC 3339 timestamp")
		}
		q.filters.StartDate = &t
	}

	if raw := params.Get("end_date"); raw != "" {
		t, dateOnly, err := parseDate(raw)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "end_date must be a date or RFC 3339 timestamp")
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		q.filters.EndDate = &t
	}

	if raw := params.Get("min_risk_score"); raw != "" {
		score, err := parseScore(raw)
		if err != nil {
			return nil, err
		}
		q.filters.MinRiskScore = &score
	}

	if raw := params.Get("max_risk_score"); raw != "" {
		score, err := parseScore(raw)
		if err != nil {
			return nil, err
		}
		q.filters.MaxRiskScore = &score
	}

	if q.filters.MinRiskScore != nil && q.filters.MaxRiskScore != nil &&
		*q.filters.MinRiskScore > *q.filters.MaxRiskScore {
		return nil, dErrors.New(dErrors.CodeValidation, "min_risk_score cannot exceed max_risk_score")
	}

	return q, nil
}

func parseDate(raw string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}

func parseScore(raw string) (float64, error) {
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || score < 0 || score > 100 {
		return 0, dErrors.New(dErrors.CodeValidation, "risk score bounds must be numbers between 0 and 100")
	}
	return score, nil
}
