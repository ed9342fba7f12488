// Package entity holds the persisted records of the ledger core.
package entity

import (
	"time"
)

// FiscalYearStatus is the lifecycle of a fiscal year.
type FiscalYearStatus string

const (
	FiscalYearActive FiscalYearStatus = "active"
	FiscalYearClosed FiscalYearStatus = "closed"
)

// FiscalYear scopes sequence counters and postings.
type FiscalYear struct {
	ID        int64            `db:"id" json:"id"`
	Label     string           `db:"label" json:"label"`
	StartDate time.Time        `db:"start_date" json:"startDate"`
	EndDate   time.Time        `db:"end_date" json:"endDate"`
	Status    FiscalYearStatus `db:"status" json:"status"`
}

// Contains reports whether date falls inside the year, both ends inclusive.
func (fy FiscalYear) Contains(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(fy.StartDate)) && !d.After(truncateDay(fy.EndDate))
}

// IsOpen reports whether postings are accepted.
func (fy FiscalYear) IsOpen() bool {
	return fy.Status == FiscalYearActive
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
