package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smarttransit/route-analytics-backend/internal/models"
)

// TrendRepository handles database operations for the
// route_performance_trends table.
type TrendRepository struct {
	db DB
}

// NewTrendRepository creates a new TrendRepository
func NewTrendRepository(db DB) *TrendRepository {
	return &TrendRepository{db: db}
}

// Upsert records one day of a route's time series. Re-running a
// calculation for the same day overwrites the existing point.
func (r *TrendRepository) Upsert(point *models.TrendPoint) error {
	query := `
		INSERT INTO route_performance_trends (
			route_no, trend_date, epkm, revenue, trip_count, epkm_trend, performance_category
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (route_no, trend_date)
		DO UPDATE SET
			epkm = EXCLUDED.epkm,
			revenue = EXCLUDED.revenue,
			trip_count = EXCLUDED.trip_count,
			epkm_trend = EXCLUDED.epkm_trend,
			performance_category = EXCLUDED.performance_category
	`

	_, err := r.db.Exec(
		query,
		point.RouteNo, point.TrendDate, point.EPKM, point.Revenue, point.TripCount,
		point.EPKMTrend, point.PerformanceCategory,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trend point: %w", err)
	}

	return nil
}

// GetByRouteAndRange returns the route's trend points within the date
// range ordered by date ascending.
func (r *TrendRepository) GetByRouteAndRange(routeNo string, startDate, endDate time.Time) ([]models.TrendPoint, error) {
	query := `
		SELECT route_no, trend_date, epkm, revenue, trip_count,
			   epkm_trend, performance_category, created_at
		FROM route_performance_trends
		WHERE route_no = $1 AND trend_date BETWEEN $2 AND $3
		ORDER BY trend_date ASC
	`

	rows, err := r.db.Query(query, routeNo, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trend points: %w", err)
	}
	defer rows.Close()

	points := []models.TrendPoint{}
	for rows.Next() {
		var point models.TrendPoint
		var trend, category sql.NullString

		err := rows.Scan(
			&point.RouteNo, &point.TrendDate, &point.EPKM, &point.Revenue, &point.TripCount,
			&trend, &category, &point.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if trend.Valid {
			point.EPKMTrend = &trend.String
		}
		if category.Valid {
			point.PerformanceCategory = &category.String
		}

		points = append(points, point)
	}

	return points, rows.Err()
}
