package calculator

import (
	"math"
	"testing"

	"github.com/mmynk/worklog/internal/models"
)

func TestTotals(t *testing.T) {
	tests := []struct {
		name    string
		records []models.WorkRecord
		want    Summary
	}{
		{
			name: "empty list is all zeros",
			want: Summary{},
		},
		{
			name:    "single day shift",
			records: []models.WorkRecord{{DayHours: 8}},
			want:    Summary{DayHours: 8, Count: 1},
		},
		{
			name: "mixed shifts",
			records: []models.WorkRecord{
				{DayHours: 8, ExtraAmount: 10000},
				{DayHours: 2.5, NightHours: 4, LateNightHours: 1.5},
				{NightHours: 0.5, ExtraAmount: 25000},
			},
			want: Summary{DayHours: 10.5, NightHours: 4.5, LateNightHours: 1.5, ExtraAmount: 35000, Count: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Totals(tt.records)
			if math.Abs(got.DayHours-tt.want.DayHours) > 1e-9 {
				t.Errorf("DayHours = %v, want %v", got.DayHours, tt.want.DayHours)
			}
			if math.Abs(got.NightHours-tt.want.NightHours) > 1e-9 {
				t.Errorf("NightHours = %v, want %v", got.NightHours, tt.want.NightHours)
			}
			if math.Abs(got.LateNightHours-tt.want.LateNightHours) > 1e-9 {
				t.Errorf("LateNightHours = %v, want %v", got.LateNightHours, tt.want.LateNightHours)
			}
			if got.ExtraAmount != tt.want.ExtraAmount {
				t.Errorf("ExtraAmount = %v, want %v", got.ExtraAmount, tt.want.ExtraAmount)
			}
			if got.Count != tt.want.Count {
				t.Errorf("Count = %v, want %v", got.Count, tt.want.Count)
			}
		})
	}
}

func TestTotals_MatchesColumnSums(t *testing.T) {
	records := make([]models.WorkRecord, 0, 50)
	var day, night, late float64
	for i := 0; i < 50; i++ {
		r := models.WorkRecord{
			DayHours:       float64(i%9) * 0.5,
			NightHours:     float64(i%4) * 0.25,
			LateNightHours: float64(i % 3),
		}
		day += r.DayHours
		night += r.NightHours
		late += r.LateNightHours
		records = append(records, r)
	}

	got := Totals(records)
	if got.DayHours != day || got.NightHours != night || got.LateNightHours != late {
		t.Errorf("Totals = %+v, want day=%v night=%v late=%v", got, day, night, late)
	}
	if math.Abs(got.TotalHours()-(day+night+late)) > 1e-9 {
		t.Errorf("TotalHours = %v", got.TotalHours())
	}
}
