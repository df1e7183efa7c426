package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/route-analytics-backend/internal/models"
)

// ComparisonRepository handles database operations for the
// route_comparisons table.
type ComparisonRepository struct {
	db DB
}

// NewComparisonRepository creates a new ComparisonRepository
func NewComparisonRepository(db DB) *ComparisonRepository {
	return &ComparisonRepository{db: db}
}

// Upsert inserts or overwrites the snapshot for its comparison date.
func (r *ComparisonRepository) Upsert(comparison *models.RouteComparison) error {
	query := `
		INSERT INTO route_comparisons (
			id, comparison_date, best_performing_routes, underperforming_routes,
			total_routes_analyzed, industry_avg_epkm
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (comparison_date)
		DO UPDATE SET
			best_performing_routes = EXCLUDED.best_performing_routes,
			underperforming_routes = EXCLUDED.underperforming_routes,
			total_routes_analyzed = EXCLUDED.total_routes_analyzed,
			industry_avg_epkm = EXCLUDED.industry_avg_epkm,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if comparison.ID == "" {
		comparison.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		comparison.ID, comparison.ComparisonDate,
		comparison.BestPerformingRoutes, comparison.UnderperformingRoutes,
		comparison.TotalRoutesAnalyzed, comparison.IndustryAvgEPKM,
	).Scan(&comparison.ID, &comparison.CreatedAt, &comparison.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert comparison: %w", err)
	}

	return nil
}

// GetByDate fetches the snapshot for a specific date.
func (r *ComparisonRepository) GetByDate(date time.Time) (*models.RouteComparison, error) {
	query := `
		SELECT id, comparison_date, best_performing_routes, underperforming_routes,
			   total_routes_analyzed, industry_avg_epkm, created_at, updated_at
		FROM route_comparisons
		WHERE comparison_date = $1
	`

	return r.scanComparison(r.db.QueryRow(query, date))
}

// GetLatest fetches the most recent snapshot.
func (r *ComparisonRepository) GetLatest() (*models.RouteComparison, error) {
	query := `
		SELECT id, comparison_date, best_performing_routes, underperforming_routes,
			   total_routes_analyzed, industry_avg_epkm, created_at, updated_at
		FROM route_comparisons
		ORDER BY comparison_date DESC
		LIMIT 1
	`

	return r.scanComparison(r.db.QueryRow(query))
}

// scanComparison scans a single comparison row.
func (r *ComparisonRepository) scanComparison(row scanner) (*models.RouteComparison, error) {
	comparison := &models.RouteComparison{}
	var industryAvg sql.NullFloat64

	err := row.Scan(
		&comparison.ID, &comparison.ComparisonDate,
		&comparison.BestPerformingRoutes, &comparison.UnderperformingRoutes,
		&comparison.TotalRoutesAnalyzed, &industryAvg,
		&comparison.CreatedAt, &comparison.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if industryAvg.Valid {
		comparison.IndustryAvgEPKM = &industryAvg.Float64
	}

	return comparison, nil
}
