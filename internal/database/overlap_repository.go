package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smarttransit/route-analytics-backend/internal/models"
)

// OverlapRepository handles database operations for the
// bus_overlap_data table.
type OverlapRepository struct {
	db DB
}

// NewOverlapRepository creates a new OverlapRepository
func NewOverlapRepository(db DB) *OverlapRepository {
	return &OverlapRepository{db: db}
}

// ReplaceForRouteDate deletes all overlap records for the route and
// date and inserts the new set in a single transaction, so a reader
// never observes the intermediate empty state.
func (r *OverlapRepository) ReplaceForRouteDate(routeNo string, date time.Time, records []models.OverlapRecord) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM bus_overlap_data WHERE route_no = $1 AND selected_date = $2`,
		routeNo, date,
	); err != nil {
		return fmt.Errorf("failed to clear overlap data: %w", err)
	}

	insert := `
		INSERT INTO bus_overlap_data (
			route_no, schedule_no, trip_no, selected_date,
			start_time, end_time, service_type, estimated_passengers
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, record := range records {
		if _, err := tx.Exec(
			insert,
			record.RouteNo, record.ScheduleNo, record.TripNo, record.SelectedDate,
			record.StartTime, record.EndTime, record.ServiceType, record.EstimatedPassengers,
		); err != nil {
			return fmt.Errorf("failed to insert overlap record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit overlap data: %w", err)
	}

	return nil
}

// GetByRouteDate returns all overlap records for a route and date
// ordered by start time.
func (r *OverlapRepository) GetByRouteDate(routeNo string, date time.Time) ([]models.OverlapRecord, error) {
	query := `
		SELECT route_no, schedule_no, trip_no, selected_date,
			   start_time, end_time, service_type, estimated_passengers, created_at
		FROM bus_overlap_data
		WHERE route_no = $1 AND selected_date = $2
		ORDER BY start_time
	`

	rows, err := r.db.Query(query, routeNo, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overlap data: %w", err)
	}
	defer rows.Close()

	return scanOverlapRecords(rows)
}

// scanOverlapRecords scans overlap data rows.
func scanOverlapRecords(rows *sql.Rows) ([]models.OverlapRecord, error) {
	records := []models.OverlapRecord{}

	for rows.Next() {
		var record models.OverlapRecord
		err := rows.Scan(
			&record.RouteNo, &record.ScheduleNo, &record.TripNo, &record.SelectedDate,
			&record.StartTime, &record.EndTime, &record.ServiceType, &record.EstimatedPassengers,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
