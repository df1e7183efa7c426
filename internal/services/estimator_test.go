package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEstimatorTest(t *testing.T) (*HistoricalEstimator, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	estimator := NewHistoricalEstimator(
		database.NewTripRepository(postgresDB),
		database.NewPassengerRepository(postgresDB),
		rand.New(rand.NewSource(42)),
		logger,
	)

	return estimator, mock, func() { db.Close() }
}

func clock(t *testing.T, value string) models.ClockTime {
	ct, err := models.ParseClockTime(value)
	require.NoError(t, err)
	return ct
}

func TestEstimate_HistoricalData(t *testing.T) {
	estimator, mock, cleanup := setupEstimatorTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	stops := []string{"Central", "Market", "Depot"}

	mock.ExpectQuery(`SELECT stop_name\s+FROM route_stops`).
		WithArgs("R001").
		WillReturnRows(sqlmock.NewRows([]string{"stop_name"}).
			AddRow("Central").AddRow("Market").AddRow("Depot"))

	// Trip spans 09:00 to 10:30, touching hour buckets 9 and 10.
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_passengers\), 0\)\s+FROM passenger_boardings`).
		WithArgs(date, 9, pq.Array(stops)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(30))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_passengers\), 0\)\s+FROM passenger_alightings`).
		WithArgs(date, 9, pq.Array(stops)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(26))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_passengers\), 0\)\s+FROM passenger_boardings`).
		WithArgs(date, 10, pq.Array(stops)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_passengers\), 0\)\s+FROM passenger_alightings`).
		WithArgs(date, 10, pq.Array(stops)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(8))

	got := estimator.Estimate("R001", date, clock(t, "09:00"), clock(t, "10:30"))

	// Hour 9: (30+26)/2 = 28, hour 10: (12+8)/2 = 10.
	assert.Equal(t, 38, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEstimate_FallsBackToHeuristicWithoutStops(t *testing.T) {
	estimator, mock, cleanup := setupEstimatorTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT stop_name\s+FROM route_stops`).
		WithArgs("R001").
		WillReturnRows(sqlmock.NewRows([]string{"stop_name"}))

	// Peak-hour departure: the heuristic draws from [35, 50] and the
	// one-hour trip leaves the multiplier at 1.
	got := estimator.Estimate("R001", date, clock(t, "08:00"), clock(t, "09:00"))
	assert.GreaterOrEqual(t, got, 35)
	assert.LessOrEqual(t, got, 50)
}

func TestEstimate_HeuristicBands(t *testing.T) {
	estimator, mock, cleanup := setupEstimatorTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		start, end string
		low, high  int
	}{
		{"MorningPeak", "07:30", "08:30", 35, 50},
		{"EveningPeak", "17:00", "18:00", 35, 50},
		{"Daytime", "11:00", "12:00", 20, 35},
		{"Night", "23:00", "23:45", 10, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock.ExpectQuery(`SELECT stop_name\s+FROM route_stops`).
				WillReturnRows(sqlmock.NewRows([]string{"stop_name"}))

			got := estimator.Estimate("R001", date, clock(t, tc.start), clock(t, tc.end))
			assert.GreaterOrEqual(t, got, tc.low)
			assert.LessOrEqual(t, got, tc.high)
		})
	}
}

func TestEstimate_DurationScalesHeuristic(t *testing.T) {
	estimator, mock, cleanup := setupEstimatorTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT stop_name\s+FROM route_stops`).
		WillReturnRows(sqlmock.NewRows([]string{"stop_name"}))

	// A two-hour daytime trip doubles the base band.
	got := estimator.Estimate("R001", date, clock(t, "11:00"), clock(t, "13:00"))
	assert.GreaterOrEqual(t, got, 40)
	assert.LessOrEqual(t, got, 70)
}

func TestEstimate_RepositoryErrorFallsBack(t *testing.T) {
	estimator, mock, cleanup := setupEstimatorTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT stop_name\s+FROM route_stops`).
		WithArgs("R001").
		WillReturnRows(sqlmock.NewRows([]string{"stop_name"}).AddRow("Central"))

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_passengers\), 0\)\s+FROM passenger_boardings`).
		WillReturnError(assert.AnError)

	got := estimator.Estimate("R001", date, clock(t, "11:00"), clock(t, "12:00"))

	// Heuristic daytime band applies despite the failed lookup.
	assert.GreaterOrEqual(t, got, 20)
	assert.LessOrEqual(t, got, 35)
}

func TestEstimate_NeverBelowOne(t *testing.T) {
	estimator, mock, cleanup := setupEstimatorTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	stops := []string{"Central"}

	mock.ExpectQuery(`SELECT stop_name\s+FROM route_stops`).
		WithArgs("R001").
		WillReturnRows(sqlmock.NewRows([]string{"stop_name"}).AddRow("Central"))

	// Historical data exists but sums to zero; the heuristic floor
	// still applies and the estimate stays at least one.
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_passengers\), 0\)\s+FROM passenger_boardings`).
		WithArgs(date, 3, pq.Array(stops)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_passengers\), 0\)\s+FROM passenger_alightings`).
		WithArgs(date, 3, pq.Array(stops)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	got := estimator.Estimate("R001", date, clock(t, "03:00"), clock(t, "03:30"))
	assert.GreaterOrEqual(t, got, 1)
}
