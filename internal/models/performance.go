package models

import (
	"fmt"
	"time"
)

// PeriodType is the aggregation granularity of a performance metric.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// Valid reports whether the period type is one of the known values.
func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// PerformanceMetric is one route's aggregate over a period, keyed by
// (route_no, period_type, period_start, period_end). AvgEPKM is null
// when no trip in the period had a defined EPKM; PerformanceRank is
// null until a comparison run assigns it.
type PerformanceMetric struct {
	ID              string     `json:"id" db:"id"`
	RouteNo         string     `json:"route_no" db:"route_no"`
	PeriodType      PeriodType `json:"period_type" db:"period_type"`
	PeriodStart     time.Time  `json:"period_start" db:"period_start"`
	PeriodEnd       time.Time  `json:"period_end" db:"period_end"`
	AvgEPKM         *float64   `json:"avg_epkm" db:"avg_epkm"`
	TotalRevenue    float64    `json:"total_revenue" db:"total_revenue"`
	TotalKM         float64    `json:"total_km" db:"total_km"`
	TripCount       int        `json:"trip_count" db:"trip_count"`
	PerformanceRank *int       `json:"performance_rank" db:"performance_rank"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// RouteSummary is one route's position in a ranked aggregation.
type RouteSummary struct {
	RouteNo        string  `json:"route_no"`
	AvgEPKM        float64 `json:"avg_epkm"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalKM        float64 `json:"total_km"`
	TripCount      int     `json:"trip_count"`
	RevenuePerTrip float64 `json:"revenue_per_trip"`
}

// Benchmarks are industry-wide figures derived from a ranked set of
// route summaries.
type Benchmarks struct {
	AvgEPKM      float64 `json:"avg_epkm"`
	MedianEPKM   float64 `json:"median_epkm"`
	MaxEPKM      float64 `json:"max_epkm"`
	MinEPKM      float64 `json:"min_epkm"`
	TotalRoutes  int     `json:"total_routes"`
	TotalRevenue float64 `json:"total_revenue"`
}

// BulkCalculateRequest is the body of the bulk calculation endpoint.
// All fields are optional.
type BulkCalculateRequest struct {
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	PeriodType string `json:"period_type"`
}

// Validate parses the request, applying the defaults: a trailing
// 30-day window ending today, aggregated daily.
func (r *BulkCalculateRequest) Validate() (time.Time, time.Time, PeriodType, error) {
	endDate := today()
	startDate := endDate.AddDate(0, 0, -30)

	var err error
	if r.StartDate != "" {
		startDate, err = time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, "", fmt.Errorf("invalid start_date: use YYYY-MM-DD")
		}
	}
	if r.EndDate != "" {
		endDate, err = time.Parse("2006-01-02", r.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, "", fmt.Errorf("invalid end_date: use YYYY-MM-DD")
		}
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, "", fmt.Errorf("end_date must not be before start_date")
	}

	periodType := PeriodDaily
	if r.PeriodType != "" {
		periodType = PeriodType(r.PeriodType)
		if !periodType.Valid() {
			return time.Time{}, time.Time{}, "", fmt.Errorf("invalid period_type: use daily, weekly or monthly")
		}
	}

	return startDate, endDate, periodType, nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
