// Package filter derives the visible subset of the record list.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/worklog/internal/models"
)

var ErrInvalidSpec = errors.New("invalid filter")

// Spec selects records. The zero Spec matches everything.
type Spec struct {
	// Year limits records to January 1 of Year through the end of
	// EndMonth of Year. Zero disables the date window.
	Year int `yaml:"year,omitempty"`

	// EndMonth is the last month of the window. Zero means December.
	EndMonth time.Month `yaml:"end_month,omitempty"`

	// Name, Company and Location match case-insensitive substrings.
	// Empty matches everything.
	Name     string `yaml:"name,omitempty"`
	Company  string `yaml:"company,omitempty"`
	Location string `yaml:"location,omitempty"`
}

// Validate checks the date window bounds.
func (s Spec) Validate() error {
	if s.EndMonth < 0 || s.EndMonth > time.December {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidSpec, s.EndMonth)
	}
	if s.Year < 0 || s.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidSpec, s.Year)
	}
	return nil
}

// YearToDate returns s with the date window set to January 1 of now's
// year through the end of now's month.
func (s Spec) YearToDate(now time.Time) Spec {
	s.Year, s.EndMonth = now.Year(), now.Month()
	return s
}

// Window returns the inclusive date range of the spec. ok is false when
// the date predicate is disabled.
func (s Spec) Window() (from, to models.Date, ok bool) {
	if s.Year == 0 {
		return models.Date{}, models.Date{}, false
	}
	end := s.EndMonth
	if end == 0 {
		end = time.December
	}
	from = models.NewDate(s.Year, time.January, 1)
	// Day 0 of the following month is the last day of end.
	to = models.DateOf(time.Date(s.Year, end+1, 0, 0, 0, 0, 0, time.UTC))
	return from, to, true
}

// matcher is a compiled Spec.
type matcher struct {
	from, to models.Date
	dated    bool
	name     string
	company  string
	location string
}

func compile(s Spec) matcher {
	m := matcher{
		name:     strings.ToLower(s.Name),
		company:  strings.ToLower(s.Company),
		location: strings.ToLower(s.Location),
	}
	m.from, m.to, m.dated = s.Window()
	return m
}

func (m matcher) match(r models.WorkRecord) bool {
	if m.dated && (r.Date.Before(m.from) || r.Date.After(m.to)) {
		return false
	}
	return contains(r.Name, m.name) &&
		contains(r.Company, m.company) &&
		contains(r.Location, m.location)
}

func contains(field, needle string) bool {
	return needle == "" || strings.Contains(strings.ToLower(field), needle)
}

// Apply returns the records that satisfy every active predicate of s, in
// input order. The result is always a new slice and records is never
// modified.
func Apply(records []models.WorkRecord, s Spec) []models.WorkRecord {
	m := compile(s)
	out := make([]models.WorkRecord, 0, len(records))
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Options lists the distinct values present in records, for building
// filter choices.
type Options struct {
	Names     []string
	Companies []string
	// Months are "YYYY-MM", newest first.
	Months []string
}

// CollectOptions returns the sorted distinct names, companies and months
// of records.
func CollectOptions(records []models.WorkRecord) Options {
	names := make(map[string]struct{})
	companies := make(map[string]struct{})
	months := make(map[string]struct{})
	for _, r := range records {
		if r.Name != "" {
			names[r.Name] = struct{}{}
		}
		if r.Company != "" {
			companies[r.Company] = struct{}{}
		}
		if !r.Date.IsZero() {
			months[fmt.Sprintf("%04d-%02d", r.Date.Year, int(r.Date.Month))] = struct{}{}
		}
	}

	opts := Options{
		Names:     sortedKeys(names),
		Companies: sortedKeys(companies),
		Months:    sortedKeys(months),
	}
	sort.Sort(sort.Reverse(sort.StringSlice(opts.Months)))
	return opts
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
