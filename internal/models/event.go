package models

// ChangeKind is the kind of row change reported by the change feed.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent reports that a row in Table changed. Consumers must not rely
// on anything beyond "something changed"; RecordID is informational.
type ChangeEvent struct {
	Table    string     `json:"table"`
	Kind     ChangeKind `json:"kind"`
	RecordID string     `json:"record_id,omitempty"`
}

// EventMask selects which change kinds a subscriber receives.
type EventMask uint8

const (
	MaskInsert EventMask = 1 << iota
	MaskUpdate
	MaskDelete

	MaskAll = MaskInsert | MaskUpdate | MaskDelete
)

// Matches reports whether kind is selected by m. The zero mask selects
// everything.
func (m EventMask) Matches(kind ChangeKind) bool {
	if m == 0 {
		return true
	}
	switch kind {
	case ChangeInsert:
		return m&MaskInsert != 0
	case ChangeUpdate:
		return m&MaskUpdate != 0
	case ChangeDelete:
		return m&MaskDelete != 0
	default:
		return false
	}
}
