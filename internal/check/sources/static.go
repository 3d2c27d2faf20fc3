package sources

import (
	"context"
	"strings"

	"backcheck/internal/check/models"
)

// Static fetchers return deterministic records keyed off the personal
// number, for dev/demo deployments without upstream access. The rules mirror
// the upstream simulation: numbers ending in 1 carry one offense, numbers
// ending in 2 carry one bankruptcy and a depressed credit score.

type staticCriminal struct{}

// NewStaticFetchers constructs the deterministic fetcher set.
func NewStaticFetchers() []Fetcher {
	return []Fetcher{staticCriminal{}, staticFinancial{}, staticEmployment{}}
}

func (staticCriminal) Category() models.Category { return models.CategoryCriminal }

func (staticCriminal) Fetch(ctx context.Context, personalNumber string) (*Records, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasSuffix(personalNumber, "1") {
		return &Records{Criminal: []models.CriminalRecord{
			{Offense: "Minor theft", Date: "2020-03-15"},
		}}, nil
	}
	return &Records{}, nil
}

type staticFinancial struct{}

func (staticFinancial) Category() models.Category { return models.CategoryFinancial }

func (staticFinancial) Fetch(ctx context.Context, personalNumber string) (*Records, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := &models.FinancialRecord{CreditScore: 720}
	if strings.HasSuffix(personalNumber, "2") {
		rec.CreditScore = 560
		rec.Bankruptcies = 1
	}
	return &Records{Financial: rec}, nil
}

type staticEmployment struct{}

func (staticEmployment) Category() models.Category { return models.CategoryEmployment }

func (staticEmployment) Fetch(ctx context.Context, personalNumber string) (*Records, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	past := "2021-12-31"
	return &Records{Employment: []models.EmploymentRecord{
		{Employer: "Tech Corp", StartDate: "2018-01-01", EndDate: &past},
		{Employer: "Innovation Inc", StartDate: "2022-01-15", EndDate: nil},
	}}, nil
}
