package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/smarttransit/route-analytics-backend/internal/models"
)

// AnalysisRepository handles database operations for the
// route_analyses table.
type AnalysisRepository struct {
	db DB
}

// NewAnalysisRepository creates a new AnalysisRepository
func NewAnalysisRepository(db DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Upsert inserts or overwrites the analysis summary identified by
// (route_no, selected_date, time_period_start, time_period_end).
func (r *AnalysisRepository) Upsert(analysis *models.RouteAnalysis) error {
	query := `
		INSERT INTO route_analyses (
			id, route_no, selected_date, time_period_start, time_period_end,
			total_buses, overlap_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (route_no, selected_date, time_period_start, time_period_end)
		DO UPDATE SET
			total_buses = EXCLUDED.total_buses,
			overlap_score = EXCLUDED.overlap_score,
			analysis_date = NOW()
		RETURNING id, analysis_date
	`

	if analysis.ID == "" {
		analysis.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		analysis.ID, analysis.RouteNo, analysis.SelectedDate,
		analysis.TimePeriodStart, analysis.TimePeriodEnd,
		analysis.TotalBuses, analysis.OverlapScore,
	).Scan(&analysis.ID, &analysis.AnalysisDate)

	if err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}

	return nil
}

// GetRecent returns the most recent analysis summaries, newest first.
func (r *AnalysisRepository) GetRecent(limit int) ([]models.RouteAnalysis, error) {
	query := `
		SELECT id, route_no, selected_date, time_period_start, time_period_end,
			   total_buses, overlap_score, analysis_date
		FROM route_analyses
		ORDER BY analysis_date DESC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analysis history: %w", err)
	}
	defer rows.Close()

	analyses := []models.RouteAnalysis{}
	for rows.Next() {
		var analysis models.RouteAnalysis
		err := rows.Scan(
			&analysis.ID, &analysis.RouteNo, &analysis.SelectedDate,
			&analysis.TimePeriodStart, &analysis.TimePeriodEnd,
			&analysis.TotalBuses, &analysis.OverlapScore, &analysis.AnalysisDate,
		)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}

	return analyses, rows.Err()
}
