package calculator

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mmynk/worklog/internal/models"
)

func TestGroupTotals(t *testing.T) {
	records := []models.WorkRecord{
		{Date: models.NewDate(2024, time.March, 5), Name: "Kim", Company: "Acme", NightHours: 6, LateNightHours: 2},
		{Date: models.NewDate(2024, time.March, 1), Name: "Lee", Company: "Acme", DayHours: 8, ExtraAmount: 5000},
		{Date: models.NewDate(2024, time.January, 9), Name: "Kim", Company: "Beta", DayHours: 4},
	}

	tests := []struct {
		key  GroupKey
		want []GroupSummary
	}{
		{
			key: ByName,
			want: []GroupSummary{
				{Key: "Kim", Summary: Summary{DayHours: 4, NightHours: 6, LateNightHours: 2, Count: 2}},
				{Key: "Lee", Summary: Summary{DayHours: 8, ExtraAmount: 5000, Count: 1}},
			},
		},
		{
			key: ByCompany,
			want: []GroupSummary{
				{Key: "Acme", Summary: Summary{DayHours: 8, NightHours: 6, LateNightHours: 2, ExtraAmount: 5000, Count: 2}},
				{Key: "Beta", Summary: Summary{DayHours: 4, Count: 1}},
			},
		},
		{
			key: ByMonth,
			want: []GroupSummary{
				{Key: "2024-03", Summary: Summary{DayHours: 8, NightHours: 6, LateNightHours: 2, ExtraAmount: 5000, Count: 2}},
				{Key: "2024-01", Summary: Summary{DayHours: 4, Count: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, GroupTotals(records, tt.key)); diff != "" {
				t.Errorf("GroupTotals() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("empty", func(t *testing.T) {
		if got := GroupTotals(nil, ByName); len(got) != 0 {
			t.Errorf("expected no groups, got %v", got)
		}
	})
}

func TestParseGroupKey(t *testing.T) {
	for _, s := range []string{"name", "Company", " location ", "MONTH"} {
		if _, err := ParseGroupKey(s); err != nil {
			t.Errorf("ParseGroupKey(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseGroupKey("payer"); err == nil {
		t.Error("expected error for unknown key")
	}
}
