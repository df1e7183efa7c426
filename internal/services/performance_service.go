package services

import (
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"gonum.org/v1/gonum/stat"
)

// PerformanceService computes earnings-per-kilometre aggregates over
// trip and schedule records and persists per-route metrics.
//
// Two aggregation strategies are provided: a row-by-row accumulation
// (RoutePerformance) and a database-pushdown variant
// (RoutePerformanceFast). Both produce the same (route_no, avg_epkm)
// ranking for identical inputs. They differ in how totals treat trips
// whose schedule has no usable distance: the row-by-row variant counts
// their revenue and trip count, the pushdown variant excludes them
// entirely. Routes without a single defined EPKM are omitted by both.
type PerformanceService struct {
	trips      *database.TripRepository
	metrics    *database.PerformanceRepository
	trends     *database.TrendRepository
	comparison *ComparisonService
	logger     *logrus.Logger
}

// NewPerformanceService creates a new PerformanceService
func NewPerformanceService(
	trips *database.TripRepository,
	metrics *database.PerformanceRepository,
	trends *database.TrendRepository,
	comparison *ComparisonService,
	logger *logrus.Logger,
) *PerformanceService {
	return &PerformanceService{
		trips:      trips,
		metrics:    metrics,
		trends:     trends,
		comparison: comparison,
		logger:     logger,
	}
}

// routeAccumulator gathers per-route figures during the row-by-row
// aggregation.
type routeAccumulator struct {
	epkmValues   []float64
	totalRevenue float64
	totalKM      float64
	tripCount    int
}

// RoutePerformance aggregates route performance row by row. Pass an
// empty routeNo to rank all routes. The result is sorted by avg_epkm
// descending with route_no ascending as the deterministic tie-break.
// An empty window yields an empty slice, not an error.
func (s *PerformanceService) RoutePerformance(routeNo string, startDate, endDate time.Time) ([]models.RouteSummary, error) {
	trips, err := s.trips.GetRevenueTripsWithSchedules(routeNo, startDate, endDate)
	if err != nil {
		return nil, err
	}

	accumulators := map[string]*routeAccumulator{}
	for i := range trips {
		trip := &trips[i]
		acc, ok := accumulators[trip.RouteNo]
		if !ok {
			acc = &routeAccumulator{}
			accumulators[trip.RouteNo] = acc
		}

		// Revenue and trip count include trips without a usable
		// distance; only the EPKM average and km total are gated on
		// trip_km > 0.
		acc.totalRevenue += *trip.Revenue
		acc.tripCount++

		if epkm := trip.EPKM(); epkm != nil {
			acc.epkmValues = append(acc.epkmValues, *epkm)
		}
		if trip.TripKM != nil && *trip.TripKM > 0 {
			acc.totalKM += *trip.TripKM
		}
	}

	summaries := []models.RouteSummary{}
	for route, acc := range accumulators {
		if len(acc.epkmValues) == 0 {
			// EPKM undefined for every trip on this route: no ranking
			// position exists, the route is omitted rather than ranked
			// at zero.
			continue
		}

		summaries = append(summaries, models.RouteSummary{
			RouteNo:        route,
			AvgEPKM:        round2(stat.Mean(acc.epkmValues, nil)),
			TotalRevenue:   acc.totalRevenue,
			TotalKM:        acc.totalKM,
			TripCount:      acc.tripCount,
			RevenuePerTrip: round2(acc.totalRevenue / float64(acc.tripCount)),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].AvgEPKM != summaries[j].AvgEPKM {
			return summaries[i].AvgEPKM > summaries[j].AvgEPKM
		}
		return summaries[i].RouteNo < summaries[j].RouteNo
	})

	return summaries, nil
}

// RoutePerformanceFast aggregates route performance with a single
// grouped query. Ranking matches RoutePerformance for the same window.
func (s *PerformanceService) RoutePerformanceFast(routeNo string, startDate, endDate time.Time) ([]models.RouteSummary, error) {
	rows, err := s.trips.SelectRoutePerformanceFast(routeNo, startDate, endDate)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.RouteSummary, 0, len(rows))
	for _, row := range rows {
		revenuePerTrip := 0.0
		if row.TripCount > 0 {
			revenuePerTrip = round2(row.TotalRevenue / float64(row.TripCount))
		}
		summaries = append(summaries, models.RouteSummary{
			RouteNo:        row.RouteNo,
			AvgEPKM:        round2(row.AvgEPKM),
			TotalRevenue:   row.TotalRevenue,
			TotalKM:        row.TotalKM,
			TripCount:      row.TripCount,
			RevenuePerTrip: revenuePerTrip,
		})
	}

	return summaries, nil
}

// TopPerformers returns the best routes by average EPKM.
func (s *PerformanceService) TopPerformers(limit int, startDate, endDate time.Time) ([]models.RouteSummary, error) {
	summaries, err := s.RoutePerformanceFast("", startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Underperformers returns the worst routes by average EPKM. The slice
// keeps the overall descending order, so the very worst route is last.
func (s *PerformanceService) Underperformers(limit int, startDate, endDate time.Time) ([]models.RouteSummary, error) {
	summaries, err := s.RoutePerformanceFast("", startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(summaries) > limit {
		summaries = summaries[len(summaries)-limit:]
	}
	return summaries, nil
}

// Benchmarks derives industry-wide figures from ranked summaries.
// Returns nil when there is nothing to summarize.
func (s *PerformanceService) Benchmarks(summaries []models.RouteSummary) *models.Benchmarks {
	if len(summaries) == 0 {
		return nil
	}

	epkmValues := make([]float64, len(summaries))
	totalRevenue := 0.0
	for i, summary := range summaries {
		epkmValues[i] = summary.AvgEPKM
		totalRevenue += summary.TotalRevenue
	}

	sorted := append([]float64(nil), epkmValues...)
	sort.Float64s(sorted)

	return &models.Benchmarks{
		AvgEPKM:      round2(stat.Mean(epkmValues, nil)),
		MedianEPKM:   round2(sorted[len(sorted)/2]),
		MaxEPKM:      sorted[len(sorted)-1],
		MinEPKM:      sorted[0],
		TotalRoutes:  len(summaries),
		TotalRevenue: totalRevenue,
	}
}

// CalculateRoutePerformance computes a single route's aggregate and
// upserts the metric keyed by (route, period, start, end). Returns
// ErrNoData when the route has no qualifying trips in the window.
func (s *PerformanceService) CalculateRoutePerformance(routeNo string, startDate, endDate time.Time, periodType models.PeriodType) (*models.PerformanceMetric, error) {
	summaries, err := s.RoutePerformance(routeNo, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, ErrNoData
	}

	return s.upsertMetric(summaries[0], startDate, endDate, periodType)
}

// BulkCalculatePerformance recalculates metrics for every route active
// in the window, refreshes daily trend points, then regenerates the
// comparison snapshot for the window's end date. A failure on one route
// never aborts the rest of the batch. Returns the number of routes
// processed.
func (s *PerformanceService) BulkCalculatePerformance(startDate, endDate time.Time, periodType models.PeriodType) (int, error) {
	summaries, err := s.RoutePerformance("", startDate, endDate)
	if err != nil {
		return 0, err
	}

	for _, summary := range summaries {
		if _, err := s.upsertMetric(summary, startDate, endDate, periodType); err != nil {
			s.logger.WithError(err).WithField("route_no", summary.RouteNo).
				Warn("Failed to store performance metric, continuing")
			continue
		}

		if periodType == models.PeriodDaily {
			category := models.CategorizePerformance(summary.AvgEPKM)
			point := &models.TrendPoint{
				RouteNo:             summary.RouteNo,
				TrendDate:           endDate,
				EPKM:                summary.AvgEPKM,
				Revenue:             summary.TotalRevenue,
				TripCount:           summary.TripCount,
				PerformanceCategory: &category,
			}
			if err := s.trends.Upsert(point); err != nil {
				s.logger.WithError(err).WithField("route_no", summary.RouteNo).
					Warn("Failed to store trend point, continuing")
			}
		}
	}

	if _, err := s.comparison.GenerateDailyComparison(endDate); err != nil && err != ErrNoData {
		s.logger.WithError(err).Warn("Failed to regenerate daily comparison")
	}

	return len(summaries), nil
}

// upsertMetric stores one route summary as a performance metric.
func (s *PerformanceService) upsertMetric(summary models.RouteSummary, startDate, endDate time.Time, periodType models.PeriodType) (*models.PerformanceMetric, error) {
	avgEPKM := summary.AvgEPKM
	metric := &models.PerformanceMetric{
		RouteNo:      summary.RouteNo,
		PeriodType:   periodType,
		PeriodStart:  startDate,
		PeriodEnd:    endDate,
		AvgEPKM:      &avgEPKM,
		TotalRevenue: summary.TotalRevenue,
		TotalKM:      summary.TotalKM,
		TripCount:    summary.TripCount,
	}

	if err := s.metrics.Upsert(metric); err != nil {
		return nil, err
	}

	return metric, nil
}

// round2 rounds to two decimal places, the precision used for all
// EPKM and currency figures crossing the API boundary.
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
