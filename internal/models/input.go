package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidRecord is wrapped by every *ValidationError.
var ErrInvalidRecord = errors.New("invalid work record")

// RecordInput is the payload for creating or replacing a work record.
// Pointer fields are optional; DayHours is a pointer so that "missing" can
// be told apart from an explicit zero.
type RecordInput struct {
	Date      Date   `json:"date"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	DayHours       *float64 `json:"day_hours,omitempty"`
	NightHours     *float64 `json:"night_hours,omitempty"`
	LateNightHours *float64 `json:"late_night_hours,omitempty"`
	ExtraAmount    *int64   `json:"extra_amount,omitempty"`
	Memo           *string  `json:"memo,omitempty"`
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a RecordInput.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRecord, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// Has reports whether field is among the invalid fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Validate checks required fields and value ranges. It returns nil or a
// *ValidationError. No ordering between StartTime and EndTime is enforced.
func (in RecordInput) Validate() error {
	var fields []FieldError
	add := func(field, msg string) {
		fields = append(fields, FieldError{Field: field, Message: msg})
	}

	if in.Date.IsZero() {
		add("date", "is required")
	}
	for _, f := range []struct{ name, value string }{
		{"name", in.Name},
		{"company", in.Company},
		{"location", in.Location},
	} {
		if strings.TrimSpace(f.value) == "" {
			add(f.name, "is required")
		}
	}
	for _, f := range []struct{ name, value string }{
		{"start_time", in.StartTime},
		{"end_time", in.EndTime},
	} {
		switch {
		case strings.TrimSpace(f.value) == "":
			add(f.name, "is required")
		case !ValidClock(f.value):
			add(f.name, "must be HH:MM")
		}
	}

	if in.DayHours == nil {
		add("day_hours", "is required")
	}
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{"day_hours", in.DayHours},
		{"night_hours", in.NightHours},
		{"late_night_hours", in.LateNightHours},
	} {
		switch {
		case f.value == nil:
		case math.IsNaN(*f.value) || math.IsInf(*f.value, 0):
			add(f.name, "must be a finite number")
		case *f.value < 0:
			add(f.name, "must not be negative")
		}
	}
	if in.ExtraAmount != nil && *in.ExtraAmount < 0 {
		add("extra_amount", "must not be negative")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Record converts a validated input into a defaulted WorkRecord.
// ID, UserID and CreatedAt are left for the store to fill.
func (in RecordInput) Record() WorkRecord {
	r := WorkRecord{
		Date:      in.Date,
		Name:      strings.TrimSpace(in.Name),
		Company:   strings.TrimSpace(in.Company),
		Location:  strings.TrimSpace(in.Location),
		StartTime: strings.TrimSpace(in.StartTime),
		EndTime:   strings.TrimSpace(in.EndTime),
		DayHours:  floatOrZero(in.DayHours),
	}
	r.ApplyOptional(Optional{
		NightHours:     in.NightHours,
		LateNightHours: in.LateNightHours,
		ExtraAmount:    in.ExtraAmount,
		Memo:           in.Memo,
	})
	return r
}

// InputFrom builds the input that would recreate r. Used by edit flows that
// start from an existing record.
func InputFrom(r WorkRecord) RecordInput {
	day, night, late := r.DayHours, r.NightHours, r.LateNightHours
	amount, memo := r.ExtraAmount, r.Memo
	return RecordInput{
		Date:           r.Date,
		Name:           r.Name,
		Company:        r.Company,
		Location:       r.Location,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		DayHours:       &day,
		NightHours:     &night,
		LateNightHours: &late,
		ExtraAmount:    &amount,
		Memo:           &memo,
	}
}

// ValidClock reports whether s is a clock time in "15:04" or "15:04:05"
// form.
func ValidClock(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
