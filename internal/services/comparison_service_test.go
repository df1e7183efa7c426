package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupComparisonTest(t *testing.T) (*ComparisonService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	service := NewComparisonService(
		database.NewPerformanceRepository(postgresDB),
		database.NewComparisonRepository(postgresDB),
		logger,
	)

	return service, mock, func() { db.Close() }
}

var rankedMetricColumns = []string{
	"id", "route_no", "period_type", "period_start", "period_end",
	"avg_epkm", "total_revenue", "total_km", "trip_count", "performance_rank",
	"created_at", "updated_at",
}

func TestGenerateDailyComparison(t *testing.T) {
	service, mock, cleanup := setupComparisonTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM route_performance_metrics`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows(rankedMetricColumns).
			AddRow("m1", "R001", "daily", date, date, 20.0, 2000.0, 100.0, 4, nil, now, now).
			AddRow("m2", "R002", "daily", date, date, 15.0, 1500.0, 100.0, 4, nil, now, now).
			AddRow("m3", "R003", "daily", date, date, 10.0, 1000.0, 100.0, 4, nil, now, now))

	mock.ExpectExec(`UPDATE route_performance_metrics`).
		WithArgs("m1", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE route_performance_metrics`).
		WithArgs("m2", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE route_performance_metrics`).
		WithArgs("m3", 3).WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`INSERT INTO route_comparisons`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("c1", now, now))

	comparison, err := service.GenerateDailyComparison(date)
	require.NoError(t, err)

	assert.Equal(t, 3, comparison.TotalRoutesAnalyzed)
	require.NotNil(t, comparison.IndustryAvgEPKM)
	assert.InDelta(t, 15.0, *comparison.IndustryAvgEPKM, 1e-9)

	// With fewer than twenty ranked routes both lists carry all of them.
	require.Len(t, comparison.BestPerformingRoutes, 3)
	require.Len(t, comparison.UnderperformingRoutes, 3)

	assert.Equal(t, "R001", comparison.BestPerformingRoutes[0].RouteNo)
	assert.Equal(t, 20.0, comparison.BestPerformingRoutes[0].AvgEPKM)
	assert.Equal(t, "R003", comparison.BestPerformingRoutes[2].RouteNo)

	// Underperformers run worst first.
	assert.Equal(t, "R003", comparison.UnderperformingRoutes[0].RouteNo)
	assert.Equal(t, "R001", comparison.UnderperformingRoutes[2].RouteNo)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateDailyComparison_NoData(t *testing.T) {
	service, mock, cleanup := setupComparisonTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM route_performance_metrics`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows(rankedMetricColumns))

	_, err := service.GenerateDailyComparison(date)
	assert.ErrorIs(t, err, ErrNoData)

	// Nothing must have been written.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateDailyComparison_RankFailureDoesNotAbort(t *testing.T) {
	service, mock, cleanup := setupComparisonTest(t)
	defer cleanup()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM route_performance_metrics`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows(rankedMetricColumns).
			AddRow("m1", "R001", "daily", date, date, 20.0, 2000.0, 100.0, 4, nil, now, now))

	// Rank persistence fails but the snapshot still lands.
	mock.ExpectExec(`UPDATE route_performance_metrics`).
		WithArgs("m1", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`INSERT INTO route_comparisons`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("c1", now, now))

	comparison, err := service.GenerateDailyComparison(date)
	require.NoError(t, err)
	assert.Equal(t, 1, comparison.TotalRoutesAnalyzed)

	assert.NoError(t, mock.ExpectationsWereMet())
}
