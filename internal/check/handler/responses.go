package handler

import (
	"time"

	"backcheck/internal/check/models"
	"backcheck/internal/check/service"
)

// CheckResponse is the wire shape of one check record.
type CheckResponse struct {
	ID             string                 `json:"id"`
	Status         string                 `json:"status"`
	Name           string                 `json:"name"`
	PersonalNumber string                 `json:"personal_number"`
	Assessment     *models.RiskAssessment `json:"assessment,omitempty"`
	Error          string                 `json:"error,omitempty"`
	InitiatedAt    time.Time              `json:"initiated_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
}

// FromRecord converts a check record to its HTTP response.
func FromRecord(record *models.CheckRecord) *CheckResponse {
	return &CheckResponse{
		ID:             record.ID.String(),
		Status:         string(record.Status),
		Name:           record.Subject.Name,
		PersonalNumber: record.Subject.PersonalNumber,
		Assessment:     record.Assessment,
		Error:          record.Error,
		InitiatedAt:    record.InitiatedAt,
		CompletedAt:    record.CompletedAt,
	}
}

// ListResponse is the HTTP response for GET /api/checks.
type ListResponse struct {
	BackgroundChecks []*CheckResponse `json:"background_checks"`
	Total            int              `json:"total"`
	TotalPages       int              `json:"total_pages"`
	CurrentPage      int              `json:"current_page"`
}

// StatsResponse is the HTTP response for GET /api/checks/stats.
type StatsResponse struct {
	LowRisk          int      `json:"low_risk"`
	MediumRisk       int      `json:"medium_risk"`
	HighRisk         int      `json:"high_risk"`
	AverageRiskScore *float64 `json:"average_risk_score"`
}

// FromStats converts owner statistics to their HTTP response.
func FromStats(stats *models.Stats) *StatsResponse {
	return &StatsResponse{
		LowRisk:          stats.LowRisk,
		MediumRisk:       stats.MediumRisk,
		HighRisk:         stats.HighRisk,
		AverageRiskScore: stats.AverageRiskScore,
	}
}

// FromQueryResult converts a query result page to its HTTP response.
func FromQueryResult(result *service.QueryResult) *ListResponse {
	checks := make([]*CheckResponse, 0, len(result.Records))
	for _, record := range result.Records {
		checks = append(checks, FromRecord(record))
	}
	return &ListResponse{
		BackgroundChecks: checks,
		Total:            result.Total,
		TotalPages:       result.TotalPages,
		CurrentPage:      result.Page,
	}
}
