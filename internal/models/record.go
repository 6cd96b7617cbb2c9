package models

// RecordsTable is the name of the table that holds work records.
// Change events for it carry this name.
const RecordsTable = "work_records"

// WorkRecord is one logged shift.
// Records returned by the store are always fully defaulted: absent optional
// hours and amounts are 0 and an absent memo is "".
type WorkRecord struct {
	// ID is the unique identifier (UUID format), assigned by the store.
	ID string `json:"id"`

	// UserID is the account that created the record.
	UserID string `json:"user_id,omitempty"`

	// Date is the calendar day the shift was worked.
	Date Date `json:"date"`

	// Name is the worker.
	Name string `json:"name"`

	// Company is the client organisation.
	Company string `json:"company"`

	// Location is the work site.
	Location string `json:"location"`

	// StartTime and EndTime are local clock times ("15:04").
	// EndTime may be earlier than StartTime for overnight shifts.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	DayHours       float64 `json:"day_hours"`
	NightHours     float64 `json:"night_hours"`
	LateNightHours float64 `json:"late_night_hours"`

	// ExtraAmount is an additional payment in whole currency units.
	ExtraAmount int64 `json:"extra_amount"`

	Memo string `json:"memo"`

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64 `json:"created_at"`
}

// Optional holds the nullable columns of a stored record as read from the
// database.
type Optional struct {
	NightHours     *float64
	LateNightHours *float64
	ExtraAmount    *int64
	Memo           *string
}

// ApplyOptional copies the optional values into r, defaulting absent ones.
// This is the only place where defaults for optional fields are decided.
func (r *WorkRecord) ApplyOptional(o Optional) {
	r.NightHours = floatOrZero(o.NightHours)
	r.LateNightHours = floatOrZero(o.LateNightHours)
	r.ExtraAmount = intOrZero(o.ExtraAmount)
	r.Memo = stringOrEmpty(o.Memo)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// CloneRecords returns a copy of records that shares no backing array with
// the input.
func CloneRecords(records []WorkRecord) []WorkRecord {
	if records == nil {
		return nil
	}
	out := make([]WorkRecord, len(records))
	copy(out, records)
	return out
}
