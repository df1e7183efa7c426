package models

import "time"

// Trend labels for a route's EPKM trajectory.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
	TrendUnknown   = "unknown"
)

// Stability buckets by coefficient of variation.
const (
	StabilityVeryStable   = "very_stable"
	StabilityStable       = "stable"
	StabilityModerate     = "moderate"
	StabilityUnstable     = "unstable"
	StabilityInsufficient = "insufficient_data"
)

// Performance categories by average EPKM.
const (
	CategoryHigh   = "high"
	CategoryMedium = "medium"
	CategoryLow    = "low"
)

// TrendPoint is one day of a route's performance time series, keyed by
// (route_no, trend_date).
type TrendPoint struct {
	RouteNo             string    `json:"route_no" db:"route_no"`
	TrendDate           time.Time `json:"trend_date" db:"trend_date"`
	EPKM                float64   `json:"epkm" db:"epkm"`
	Revenue             float64   `json:"revenue" db:"revenue"`
	TripCount           int       `json:"trip_count" db:"trip_count"`
	EPKMTrend           *string   `json:"epkm_trend" db:"epkm_trend"`
	PerformanceCategory *string   `json:"performance_category" db:"performance_category"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// StabilityResult classifies a route's volatility and direction over
// an observed window.
type StabilityResult struct {
	Stability              string  `json:"stability"`
	Trend                  string  `json:"trend"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	AvgEPKM                float64 `json:"avg_epkm"`
	StdDeviation           float64 `json:"std_deviation"`
}

// CategorizePerformance buckets an average EPKM into a performance
// category.
func CategorizePerformance(avgEPKM float64) string {
	switch {
	case avgEPKM >= 15:
		return CategoryHigh
	case avgEPKM >= 10:
		return CategoryMedium
	default:
		return CategoryLow
	}
}
