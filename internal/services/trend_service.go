package services

import (
	"math"
	"time"

	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"gonum.org/v1/gonum/stat"
)

// minStabilityPoints is the minimum number of trend points required
// before a stability classification is attempted.
const minStabilityPoints = 7

// TrendService classifies a route's EPKM trajectory and volatility
// from its daily performance time series.
type TrendService struct {
	trends *database.TrendRepository
}

// NewTrendService creates a new TrendService
func NewTrendService(trends *database.TrendRepository) *TrendService {
	return &TrendService{trends: trends}
}

// RouteTrends returns the route's trend points over the trailing
// window, ordered by date.
func (s *TrendService) RouteTrends(routeNo string, days int) ([]models.TrendPoint, error) {
	endDate := todayUTC()
	startDate := endDate.AddDate(0, 0, -days)
	return s.trends.GetByRouteAndRange(routeNo, startDate, endDate)
}

// AnalyzeStability classifies the route's volatility and trend over
// the trailing window. Fewer than seven points always yields
// {insufficient_data, unknown} regardless of their values.
func (s *TrendService) AnalyzeStability(routeNo string, days int) (*models.StabilityResult, error) {
	points, err := s.RouteTrends(routeNo, days)
	if err != nil {
		return nil, err
	}

	epkmValues := make([]float64, len(points))
	for i, point := range points {
		epkmValues[i] = point.EPKM
	}

	return ClassifyStability(epkmValues), nil
}

// ClassifyStability buckets an ordered EPKM series by its coefficient
// of variation and compares the means of the last three and first
// three points to label the trend.
func ClassifyStability(epkmValues []float64) *models.StabilityResult {
	if len(epkmValues) < minStabilityPoints {
		return &models.StabilityResult{
			Stability: models.StabilityInsufficient,
			Trend:     models.TrendUnknown,
		}
	}

	mean := stat.Mean(epkmValues, nil)
	stdDev := popStdDev(epkmValues, mean)

	cv := 0.0
	if mean > 0 {
		cv = stdDev / mean
	}

	var stability string
	switch {
	case cv < 0.1:
		stability = models.StabilityVeryStable
	case cv < 0.2:
		stability = models.StabilityStable
	case cv < 0.3:
		stability = models.StabilityModerate
	default:
		stability = models.StabilityUnstable
	}

	recentAvg := stat.Mean(epkmValues[len(epkmValues)-3:], nil)
	earlierAvg := stat.Mean(epkmValues[:3], nil)

	trend := models.TrendStable
	if recentAvg > earlierAvg*1.05 {
		trend = models.TrendImproving
	} else if recentAvg < earlierAvg*0.95 {
		trend = models.TrendDeclining
	}

	return &models.StabilityResult{
		Stability:              stability,
		Trend:                  trend,
		CoefficientOfVariation: round3(cv),
		AvgEPKM:                round2(mean),
		StdDeviation:           round2(stdDev),
	}
}

// popStdDev is the population standard deviation: volatility is
// measured over the whole observed window, not a sample of it.
func popStdDev(values []float64, mean float64) float64 {
	variance := 0.0
	for _, value := range values {
		diff := value - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
