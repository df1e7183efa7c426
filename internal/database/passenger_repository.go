package database

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PassengerRepository reads aggregated boarding/alighting counts
// collected by the passenger distribution system. Read-only.
type PassengerRepository struct {
	db DB
}

// NewPassengerRepository creates a new PassengerRepository
func NewPassengerRepository(db DB) *PassengerRepository {
	return &PassengerRepository{db: db}
}

// SumBoardings returns the total passengers boarding at any of the
// given stops during the hour bucket on the given date.
func (r *PassengerRepository) SumBoardings(date time.Time, hour int, stops []string) (int, error) {
	return r.sumCounts("passenger_boardings", date, hour, stops)
}

// SumAlightings returns the total passengers alighting at any of the
// given stops during the hour bucket on the given date.
func (r *PassengerRepository) SumAlightings(date time.Time, hour int, stops []string) (int, error) {
	return r.sumCounts("passenger_alightings", date, hour, stops)
}

func (r *PassengerRepository) sumCounts(table string, date time.Time, hour int, stops []string) (int, error) {
	if len(stops) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(total_passengers), 0)
		FROM %s
		WHERE count_date = $1 AND count_hour = $2 AND stop_name = ANY($3)
	`, table)

	var total int
	if err := r.db.QueryRow(query, date, hour, pq.Array(stops)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum passenger counts: %w", err)
	}

	return total, nil
}
