package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapRepositoryReplaceForRouteDate(t *testing.T) {
	pg, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewOverlapRepository(pg)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	records := []models.OverlapRecord{
		{
			RouteNo: "R001", ScheduleNo: "S1", TripNo: 1, SelectedDate: date,
			StartTime: "09:00:00", EndTime: "09:45:00", ServiceType: "ordinary",
			EstimatedPassengers: 30,
		},
		{
			RouteNo: "R001", ScheduleNo: "S2", TripNo: 1, SelectedDate: date,
			StartTime: "09:20:00", EndTime: "10:00:00", ServiceType: "fast",
			EstimatedPassengers: 40,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM bus_overlap_data`).
		WithArgs("R001", date).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO bus_overlap_data`).
		WithArgs("R001", "S1", 1, date, "09:00:00", "09:45:00", "ordinary", 30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bus_overlap_data`).
		WithArgs("R001", "S2", 1, date, "09:20:00", "10:00:00", "fast", 40).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForRouteDate("R001", date, records)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverlapRepositoryReplaceForRouteDate_RollsBackOnFailure(t *testing.T) {
	pg, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewOverlapRepository(pg)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	records := []models.OverlapRecord{
		{
			RouteNo: "R001", ScheduleNo: "S1", TripNo: 1, SelectedDate: date,
			StartTime: "09:00:00", EndTime: "09:45:00", ServiceType: "ordinary",
			EstimatedPassengers: 30,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM bus_overlap_data`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO bus_overlap_data`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceForRouteDate("R001", date, records)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverlapRepositoryGetByRouteDate(t *testing.T) {
	pg, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewOverlapRepository(pg)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	columns := []string{
		"route_no", "schedule_no", "trip_no", "selected_date",
		"start_time", "end_time", "service_type", "estimated_passengers", "created_at",
	}

	mock.ExpectQuery(`SELECT (.+) FROM bus_overlap_data`).
		WithArgs("R001", date).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("R001", "S1", 1, date, "09:00:00", "09:45:00", "ordinary", 30, now).
			AddRow("R001", "S2", 1, date, "09:20:00", "10:00:00", "fast", 40, now))

	records, err := repo.GetByRouteDate("R001", date)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "S1", records[0].ScheduleNo)
	assert.Equal(t, "09:00:00", records[0].StartTime)
	assert.Equal(t, 40, records[1].EstimatedPassengers)

	assert.NoError(t, mock.ExpectationsWereMet())
}
