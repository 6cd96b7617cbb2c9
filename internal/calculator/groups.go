package calculator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmynk/worklog/internal/models"
)

// GroupKey selects the column records are grouped by.
type GroupKey string

const (
	ByName     GroupKey = "name"
	ByCompany  GroupKey = "company"
	ByLocation GroupKey = "location"
	ByMonth    GroupKey = "month"
)

// ParseGroupKey accepts the GroupKey names, case-insensitively.
func ParseGroupKey(s string) (GroupKey, error) {
	switch k := GroupKey(strings.ToLower(strings.TrimSpace(s))); k {
	case ByName, ByCompany, ByLocation, ByMonth:
		return k, nil
	default:
		return "", fmt.Errorf("unknown grouping %q (want name, company, location or month)", s)
	}
}

func (k GroupKey) value(r models.WorkRecord) string {
	switch k {
	case ByCompany:
		return r.Company
	case ByLocation:
		return r.Location
	case ByMonth:
		return fmt.Sprintf("%04d-%02d", r.Date.Year, int(r.Date.Month))
	default:
		return r.Name
	}
}

// GroupSummary is the Summary of the records sharing one Key value.
type GroupSummary struct {
	Key string
	Summary
}

// GroupTotals sums records per distinct value of key. Groups are ordered
// by key, except months which are newest first.
func GroupTotals(records []models.WorkRecord, key GroupKey) []GroupSummary {
	groups := make(map[string]*GroupSummary)
	for _, r := range records {
		k := key.value(r)
		g, ok := groups[k]
		if !ok {
			g = &GroupSummary{Key: k}
			groups[k] = g
		}
		g.DayHours += r.DayHours
		g.NightHours += r.NightHours
		g.LateNightHours += r.LateNightHours
		g.ExtraAmount += r.ExtraAmount
		g.Count++
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if key == ByMonth {
			return out[i].Key > out[j].Key
		}
		return out[i].Key < out[j].Key
	})
	return out
}
