package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"gonum.org/v1/gonum/stat"
)

// comparisonListSize is the length of the best/underperforming lists.
// With fewer than twice this many ranked routes the two lists overlap;
// that is documented behavior, not a defect.
const comparisonListSize = 10

// ComparisonService builds the daily route ranking snapshot.
type ComparisonService struct {
	metrics     *database.PerformanceRepository
	comparisons *database.ComparisonRepository
	logger      *logrus.Logger
}

// NewComparisonService creates a new ComparisonService
func NewComparisonService(
	metrics *database.PerformanceRepository,
	comparisons *database.ComparisonRepository,
	logger *logrus.Logger,
) *ComparisonService {
	return &ComparisonService{
		metrics:     metrics,
		comparisons: comparisons,
		logger:      logger,
	}
}

// GenerateDailyComparison ranks all daily metrics for the date, assigns
// ranks 1..N best-first, and upserts the snapshot. Returns ErrNoData
// when no ranked metrics exist, in which case nothing is written.
func (s *ComparisonService) GenerateDailyComparison(targetDate time.Time) (*models.RouteComparison, error) {
	ranked, err := s.metrics.GetDailyRanked(targetDate)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, ErrNoData
	}

	epkmValues := make([]float64, len(ranked))
	for i := range ranked {
		rank := i + 1
		if err := s.metrics.UpdateRank(ranked[i].ID, rank); err != nil {
			s.logger.WithError(err).WithField("route_no", ranked[i].RouteNo).
				Warn("Failed to persist performance rank")
		}
		epkmValues[i] = *ranked[i].AvgEPKM
	}

	best := comparisonEntries(ranked[:min(comparisonListSize, len(ranked))])

	// Underperformers are the first N of the reversed ranking, worst
	// first. For fewer than 2N routes the lists share entries.
	reversed := make([]models.PerformanceMetric, len(ranked))
	for i := range ranked {
		reversed[i] = ranked[len(ranked)-1-i]
	}
	under := comparisonEntries(reversed[:min(comparisonListSize, len(reversed))])

	industryAvg := stat.Mean(epkmValues, nil)
	comparison := &models.RouteComparison{
		ComparisonDate:        targetDate,
		BestPerformingRoutes:  best,
		UnderperformingRoutes: under,
		TotalRoutesAnalyzed:   len(ranked),
		IndustryAvgEPKM:       &industryAvg,
	}

	if err := s.comparisons.Upsert(comparison); err != nil {
		return nil, err
	}

	return comparison, nil
}

// ComparisonForDate returns the stored snapshot for the date,
// generating it first when missing.
func (s *ComparisonService) ComparisonForDate(date time.Time) (*models.RouteComparison, error) {
	return s.GenerateDailyComparison(date)
}

// LatestComparison returns the most recent snapshot.
func (s *ComparisonService) LatestComparison() (*models.RouteComparison, error) {
	return s.comparisons.GetLatest()
}

func comparisonEntries(metrics []models.PerformanceMetric) models.ComparisonEntryList {
	entries := make(models.ComparisonEntryList, len(metrics))
	for i, metric := range metrics {
		entries[i] = models.ComparisonEntry{
			RouteNo:      metric.RouteNo,
			AvgEPKM:      *metric.AvgEPKM,
			TotalRevenue: metric.TotalRevenue,
			TripCount:    metric.TripCount,
		}
	}
	return entries
}
