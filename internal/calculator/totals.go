// Package calculator computes aggregates over work records.
package calculator

import "github.com/mmynk/worklog/internal/models"

// Summary holds the column totals of a record list.
type Summary struct {
	DayHours       float64
	NightHours     float64
	LateNightHours float64
	ExtraAmount    int64
	Count          int
}

// Totals sums the hour and amount columns of records. Records are already
// defaulted, so absent optional values count as 0.
func Totals(records []models.WorkRecord) Summary {
	var s Summary
	for _, r := range records {
		s.DayHours += r.DayHours
		s.NightHours += r.NightHours
		s.LateNightHours += r.LateNightHours
		s.ExtraAmount += r.ExtraAmount
	}
	s.Count = len(records)
	return s
}

// TotalHours is the sum of all three hour columns.
func (s Summary) TotalHours() float64 {
	return s.DayHours + s.NightHours + s.LateNightHours
}
