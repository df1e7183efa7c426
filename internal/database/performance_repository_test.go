package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepositoryTest(t *testing.T) (*PostgresDB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return &PostgresDB{DB: sqlxDB}, mock, func() { db.Close() }
}

func TestPerformanceRepositoryUpsert(t *testing.T) {
	pg, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewPerformanceRepository(pg)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	avgEPKM := 19.0

	metric := &models.PerformanceMetric{
		RouteNo:      "R001",
		PeriodType:   models.PeriodDaily,
		PeriodStart:  start,
		PeriodEnd:    end,
		AvgEPKM:      &avgEPKM,
		TotalRevenue: 950.0,
		TotalKM:      50.0,
		TripCount:    2,
	}

	mock.ExpectQuery(`INSERT INTO route_performance_metrics`).
		WithArgs(sqlmock.AnyArg(), "R001", models.PeriodDaily, start, end,
			&avgEPKM, 950.0, 50.0, 2, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("6b7f1f2e-0000-0000-0000-000000000000", now, now))

	err := repo.Upsert(metric)
	require.NoError(t, err)

	// The generated id and timestamps flow back onto the model.
	assert.Equal(t, "6b7f1f2e-0000-0000-0000-000000000000", metric.ID)
	assert.Equal(t, now, metric.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPerformanceRepositoryGetDailyRanked(t *testing.T) {
	pg, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewPerformanceRepository(pg)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	columns := []string{
		"id", "route_no", "period_type", "period_start", "period_end",
		"avg_epkm", "total_revenue", "total_km", "trip_count", "performance_rank",
		"created_at", "updated_at",
	}

	mock.ExpectQuery(`SELECT (.+) FROM route_performance_metrics`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("m1", "R001", "daily", date, date, 20.0, 2000.0, 100.0, 4, 1, now, now).
			AddRow("m2", "R002", "daily", date, date, 15.0, 1500.0, 100.0, 4, nil, now, now))

	metrics, err := repo.GetDailyRanked(date)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	assert.Equal(t, "R001", metrics[0].RouteNo)
	require.NotNil(t, metrics[0].AvgEPKM)
	assert.Equal(t, 20.0, *metrics[0].AvgEPKM)
	require.NotNil(t, metrics[0].PerformanceRank)
	assert.Equal(t, 1, *metrics[0].PerformanceRank)

	// Rank may be null before the first comparison run.
	assert.Nil(t, metrics[1].PerformanceRank)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPerformanceRepositoryUpdateRank(t *testing.T) {
	pg, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewPerformanceRepository(pg)

	t.Run("Updated", func(t *testing.T) {
		mock.ExpectExec(`UPDATE route_performance_metrics`).
			WithArgs("m1", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateRank("m1", 3))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(`UPDATE route_performance_metrics`).
			WithArgs("missing", 1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.Error(t, repo.UpdateRank("missing", 1))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPerformanceRepositoryGetByKey(t *testing.T) {
	pg, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewPerformanceRepository(pg)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	columns := []string{
		"id", "route_no", "period_type", "period_start", "period_end",
		"avg_epkm", "total_revenue", "total_km", "trip_count", "performance_rank",
		"created_at", "updated_at",
	}

	mock.ExpectQuery(`SELECT (.+) FROM route_performance_metrics`).
		WithArgs("R001", models.PeriodDaily, start, end).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("m1", "R001", "daily", start, end, 19.0, 950.0, 50.0, 2, nil, now, now))

	metric, err := repo.GetByKey("R001", models.PeriodDaily, start, end)
	require.NoError(t, err)
	assert.Equal(t, "R001", metric.RouteNo)
	assert.Equal(t, 950.0, metric.TotalRevenue)

	assert.NoError(t, mock.ExpectationsWereMet())
}
