package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smarttransit/route-analytics-backend/internal/models"
)

// TripRepository reads trip and schedule facts recorded by the
// scheduling system. All queries are read-only.
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetRevenueTripsWithSchedules returns trips carrying revenue within the
// date range, joined to their matching schedule. Trips referencing an
// unknown (schedule_no, trip_no) pair are dropped by the join; an
// orphaned reference is never an error. Pass an empty routeNo to fetch
// all routes.
func (r *TripRepository) GetRevenueTripsWithSchedules(routeNo string, startDate, endDate time.Time) ([]models.TripWithSchedule, error) {
	query := `
		SELECT t.schedule_no, t.trip_no, t.trip_date, t.revenue,
			   s.route_no, s.trip_km, s.start_time, s.end_time, s.service_type
		FROM trips t
		JOIN schedules s ON t.schedule_no = s.schedule_no AND t.trip_no = s.trip_no
		WHERE t.revenue IS NOT NULL
		  AND t.trip_date BETWEEN $1 AND $2
	`
	args := []interface{}{startDate, endDate}

	if routeNo != "" {
		query += " AND s.route_no = $3"
		args = append(args, routeNo)
	}
	query += " ORDER BY t.trip_date, t.schedule_no, t.trip_no"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trips: %w", err)
	}
	defer rows.Close()

	return scanTripsWithSchedules(rows)
}

// RoutePerformanceRow is one grouped row of the database-pushdown
// aggregation. EPKM gating happens inside the query: only trips whose
// schedule has a positive trip_km contribute.
type RoutePerformanceRow struct {
	RouteNo      string
	TripCount    int
	TotalRevenue float64
	TotalKM      float64
	AvgEPKM      float64
}

// SelectRoutePerformanceFast aggregates route performance at the
// database level in a single grouped query. Pass an empty routeNo to
// aggregate all routes. Ordering is avg_epkm descending with route_no
// ascending as the tie-break.
func (r *TripRepository) SelectRoutePerformanceFast(routeNo string, startDate, endDate time.Time) ([]RoutePerformanceRow, error) {
	query := `
		SELECT s.route_no,
			   COUNT(*) AS trip_count,
			   SUM(t.revenue) AS total_revenue,
			   SUM(s.trip_km) AS total_km,
			   AVG(t.revenue / s.trip_km) AS avg_epkm
		FROM trips t
		JOIN schedules s ON t.schedule_no = s.schedule_no AND t.trip_no = s.trip_no
		WHERE t.trip_date >= $1 AND t.trip_date <= $2
		  AND t.revenue IS NOT NULL
		  AND s.trip_km IS NOT NULL AND s.trip_km > 0
	`
	args := []interface{}{startDate, endDate}

	if routeNo != "" {
		query += " AND s.route_no = $3"
		args = append(args, routeNo)
	}

	query += `
		GROUP BY s.route_no
		HAVING COUNT(*) > 0 AND SUM(s.trip_km) > 0
		ORDER BY avg_epkm DESC, s.route_no ASC
	`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate route performance: %w", err)
	}
	defer rows.Close()

	results := []RoutePerformanceRow{}
	for rows.Next() {
		var row RoutePerformanceRow
		if err := rows.Scan(&row.RouteNo, &row.TripCount, &row.TotalRevenue, &row.TotalKM, &row.AvgEPKM); err != nil {
			return nil, err
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// GetTripsForRouteAndDate returns all recorded trips for a route on a
// single date joined to their schedules, regardless of revenue.
func (r *TripRepository) GetTripsForRouteAndDate(routeNo string, date time.Time) ([]models.TripWithSchedule, error) {
	query := `
		SELECT t.schedule_no, t.trip_no, t.trip_date, t.revenue,
			   s.route_no, s.trip_km, s.start_time, s.end_time, s.service_type
		FROM trips t
		JOIN schedules s ON t.schedule_no = s.schedule_no AND t.trip_no = s.trip_no
		WHERE s.route_no = $1 AND t.trip_date = $2
		ORDER BY s.start_time
	`

	rows, err := r.db.Query(query, routeNo, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trips for route: %w", err)
	}
	defer rows.Close()

	return scanTripsWithSchedules(rows)
}

// GetRecentRevenueTrips returns the most recent revenue-bearing trips
// for a route within the date range, newest first.
func (r *TripRepository) GetRecentRevenueTrips(routeNo string, startDate, endDate time.Time, limit int) ([]models.TripWithSchedule, error) {
	query := `
		SELECT t.schedule_no, t.trip_no, t.trip_date, t.revenue,
			   s.route_no, s.trip_km, s.start_time, s.end_time, s.service_type
		FROM trips t
		JOIN schedules s ON t.schedule_no = s.schedule_no AND t.trip_no = s.trip_no
		WHERE s.route_no = $1
		  AND t.revenue IS NOT NULL
		  AND t.trip_date BETWEEN $2 AND $3
		ORDER BY t.trip_date DESC
		LIMIT $4
	`

	rows, err := r.db.Query(query, routeNo, startDate, endDate, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent trips: %w", err)
	}
	defer rows.Close()

	return scanTripsWithSchedules(rows)
}

// GetSchedulesByRoute returns all schedule entries for a route.
func (r *TripRepository) GetSchedulesByRoute(routeNo string) ([]models.Schedule, error) {
	query := `
		SELECT schedule_no, trip_no, route_no, trip_km, start_time, end_time, service_type
		FROM schedules
		WHERE route_no = $1
		ORDER BY schedule_no, trip_no
	`

	rows, err := r.db.Query(query, routeNo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedules: %w", err)
	}
	defer rows.Close()

	schedules := []models.Schedule{}
	for rows.Next() {
		var s models.Schedule
		var tripKM sql.NullFloat64
		var startTime, endTime sql.NullString

		if err := rows.Scan(&s.ScheduleNo, &s.TripNo, &s.RouteNo, &tripKM, &startTime, &endTime, &s.ServiceType); err != nil {
			return nil, err
		}
		if tripKM.Valid {
			s.TripKM = &tripKM.Float64
		}
		if startTime.Valid {
			s.StartTime = &startTime.String
		}
		if endTime.Valid {
			s.EndTime = &endTime.String
		}
		schedules = append(schedules, s)
	}

	return schedules, rows.Err()
}

// GetRouteStops returns the stop names of a route in sequence order.
func (r *TripRepository) GetRouteStops(routeNo string) ([]string, error) {
	query := `
		SELECT stop_name
		FROM route_stops
		WHERE route_no = $1
		ORDER BY stop_sequence
	`

	rows, err := r.db.Query(query, routeNo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route stops: %w", err)
	}
	defer rows.Close()

	stops := []string{}
	for rows.Next() {
		var stop string
		if err := rows.Scan(&stop); err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}

	return stops, rows.Err()
}

// GetRouteNumbers returns all distinct route numbers.
func (r *TripRepository) GetRouteNumbers() ([]string, error) {
	query := `SELECT DISTINCT route_no FROM schedules ORDER BY route_no`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route numbers: %w", err)
	}
	defer rows.Close()

	routes := []string{}
	for rows.Next() {
		var route string
		if err := rows.Scan(&route); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, rows.Err()
}

// scanTripsWithSchedules scans joined trip/schedule rows.
func scanTripsWithSchedules(rows *sql.Rows) ([]models.TripWithSchedule, error) {
	trips := []models.TripWithSchedule{}

	for rows.Next() {
		var trip models.TripWithSchedule
		var revenue, tripKM sql.NullFloat64
		var startTime, endTime sql.NullString

		err := rows.Scan(
			&trip.ScheduleNo, &trip.TripNo, &trip.TripDate, &revenue,
			&trip.RouteNo, &tripKM, &startTime, &endTime, &trip.ServiceType,
		)
		if err != nil {
			return nil, err
		}

		if revenue.Valid {
			trip.Revenue = &revenue.Float64
		}
		if tripKM.Valid {
			trip.TripKM = &tripKM.Float64
		}
		if startTime.Valid {
			trip.StartTime = &startTime.String
		}
		if endTime.Valid {
			trip.EndTime = &endTime.String
		}

		trips = append(trips, trip)
	}

	return trips, rows.Err()
}
