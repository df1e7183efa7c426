package models

import "time"

// Schedule is one planned trip of a route, keyed by
// (schedule_no, trip_no). Owned by the scheduling system; read-only
// here.
type Schedule struct {
	ScheduleNo  string   `json:"schedule_no" db:"schedule_no"`
	TripNo      int      `json:"trip_no" db:"trip_no"`
	RouteNo     string   `json:"route_no" db:"route_no"`
	TripKM      *float64 `json:"trip_km" db:"trip_km"`
	StartTime   *string  `json:"start_time" db:"start_time"`
	EndTime     *string  `json:"end_time" db:"end_time"`
	ServiceType string   `json:"service_type" db:"service_type"`
}

// Trip is one operated instance of a schedule on a date. Revenue is
// null until the conductor's waybill is entered.
type Trip struct {
	ScheduleNo string    `json:"schedule_no" db:"schedule_no"`
	TripNo     int       `json:"trip_no" db:"trip_no"`
	TripDate   time.Time `json:"trip_date" db:"trip_date"`
	Revenue    *float64  `json:"revenue" db:"revenue"`
}

// TripWithSchedule is a trip joined to its matching schedule row.
type TripWithSchedule struct {
	Trip
	RouteNo     string   `json:"route_no" db:"route_no"`
	TripKM      *float64 `json:"trip_km" db:"trip_km"`
	StartTime   *string  `json:"start_time" db:"start_time"`
	EndTime     *string  `json:"end_time" db:"end_time"`
	ServiceType string   `json:"service_type" db:"service_type"`
}

// EPKM returns the trip's earnings per kilometre, or nil when it is
// undefined. EPKM exists only for trips with recorded revenue and a
// positive schedule distance; an undefined EPKM is excluded from
// averages rather than treated as zero.
func (t *TripWithSchedule) EPKM() *float64 {
	if t.Revenue == nil || t.TripKM == nil || *t.TripKM <= 0 {
		return nil
	}
	epkm := *t.Revenue / *t.TripKM
	return &epkm
}
