package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/route-analytics-backend/internal/models"
)

// PerformanceRepository handles database operations for the
// route_performance_metrics table.
type PerformanceRepository struct {
	db DB
}

// NewPerformanceRepository creates a new PerformanceRepository
func NewPerformanceRepository(db DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// Upsert inserts or overwrites the metric identified by its natural key
// (route_no, period_type, period_start, period_end).
func (r *PerformanceRepository) Upsert(metric *models.PerformanceMetric) error {
	query := `
		INSERT INTO route_performance_metrics (
			id, route_no, period_type, period_start, period_end,
			avg_epkm, total_revenue, total_km, trip_count, performance_rank
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (route_no, period_type, period_start, period_end)
		DO UPDATE SET
			avg_epkm = EXCLUDED.avg_epkm,
			total_revenue = EXCLUDED.total_revenue,
			total_km = EXCLUDED.total_km,
			trip_count = EXCLUDED.trip_count,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if metric.ID == "" {
		metric.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		metric.ID, metric.RouteNo, metric.PeriodType, metric.PeriodStart, metric.PeriodEnd,
		metric.AvgEPKM, metric.TotalRevenue, metric.TotalKM, metric.TripCount, metric.PerformanceRank,
	).Scan(&metric.ID, &metric.CreatedAt, &metric.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert performance metric: %w", err)
	}

	return nil
}

// GetDailyRanked returns the daily metrics whose period starts on the
// given date and that have a defined average EPKM, best first.
func (r *PerformanceRepository) GetDailyRanked(date time.Time) ([]models.PerformanceMetric, error) {
	query := `
		SELECT id, route_no, period_type, period_start, period_end,
			   avg_epkm, total_revenue, total_km, trip_count, performance_rank,
			   created_at, updated_at
		FROM route_performance_metrics
		WHERE period_type = 'daily'
		  AND period_start = $1
		  AND avg_epkm IS NOT NULL
		ORDER BY avg_epkm DESC, route_no ASC
	`

	rows, err := r.db.Query(query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily metrics: %w", err)
	}
	defer rows.Close()

	return r.scanMetrics(rows)
}

// UpdateRank persists the performance rank of a metric.
func (r *PerformanceRepository) UpdateRank(metricID string, rank int) error {
	query := `
		UPDATE route_performance_metrics
		SET performance_rank = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, metricID, rank)
	if err != nil {
		return fmt.Errorf("failed to update rank: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("performance metric not found")
	}

	return nil
}

// GetByKey fetches a metric by its natural key.
func (r *PerformanceRepository) GetByKey(routeNo string, periodType models.PeriodType, periodStart, periodEnd time.Time) (*models.PerformanceMetric, error) {
	query := `
		SELECT id, route_no, period_type, period_start, period_end,
			   avg_epkm, total_revenue, total_km, trip_count, performance_rank,
			   created_at, updated_at
		FROM route_performance_metrics
		WHERE route_no = $1 AND period_type = $2 AND period_start = $3 AND period_end = $4
	`

	return r.scanMetric(r.db.QueryRow(query, routeNo, periodType, periodStart, periodEnd))
}

// scanMetric scans a single metric row.
func (r *PerformanceRepository) scanMetric(row scanner) (*models.PerformanceMetric, error) {
	metric := &models.PerformanceMetric{}
	var avgEPKM sql.NullFloat64
	var rank sql.NullInt64

	err := row.Scan(
		&metric.ID, &metric.RouteNo, &metric.PeriodType, &metric.PeriodStart, &metric.PeriodEnd,
		&avgEPKM, &metric.TotalRevenue, &metric.TotalKM, &metric.TripCount, &rank,
		&metric.CreatedAt, &metric.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if avgEPKM.Valid {
		metric.AvgEPKM = &avgEPKM.Float64
	}
	if rank.Valid {
		value := int(rank.Int64)
		metric.PerformanceRank = &value
	}

	return metric, nil
}

// scanMetrics scans multiple metric rows.
func (r *PerformanceRepository) scanMetrics(rows *sql.Rows) ([]models.PerformanceMetric, error) {
	metrics := []models.PerformanceMetric{}

	for rows.Next() {
		var metric models.PerformanceMetric
		var avgEPKM sql.NullFloat64
		var rank sql.NullInt64

		err := rows.Scan(
			&metric.ID, &metric.RouteNo, &metric.PeriodType, &metric.PeriodStart, &metric.PeriodEnd,
			&avgEPKM, &metric.TotalRevenue, &metric.TotalKM, &metric.TripCount, &rank,
			&metric.CreatedAt, &metric.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if avgEPKM.Valid {
			metric.AvgEPKM = &avgEPKM.Float64
		}
		if rank.Valid {
			value := int(rank.Int64)
			metric.PerformanceRank = &value
		}

		metrics = append(metrics, metric)
	}

	return metrics, rows.Err()
}
