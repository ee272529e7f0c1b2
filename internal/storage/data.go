package storage

import "time"

// Persistence

// State is one row of the State table. ID is derived from the lower-cased
// state name, so it is stable across runs and cache rebuilds.
type State struct {
	ID   string
	Name string
}

// Query is one executed daily-crime-reports query. Every period and record
// row carries its QueryID, so overlapping queries never touch each other's rows.
type Query struct {
	ID        string
	State     string
	City      string
	InfoType  string
	Amount    int
	CreatedAt time.Time
}

// Period is one row of CrimeListByTime.
type Period struct {
	ID          int64
	QueryID     string
	Label       string
	Link        string
	RecordCount int
}

// Record is one row of CrimeInstanceList.
type Record struct {
	ID       int64
	QueryID  string
	PeriodID int64
	Category string
	Date     string
	Address  string
	Link     string
	StateID  string
}

// PeriodAggregate is the per-period record count used for the bar chart.
type PeriodAggregate struct {
	Label string
	Count int
}
