package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind names a record type in change events and metrics labels.
type RecordKind string

const (
	KindIDFTable        RecordKind = "idf_table"
	KindTemporalPattern RecordKind = "temporal_pattern"
	KindTimeSeries      RecordKind = "time_series"
)

// ChangeOp is the mutation a change event reports.
type ChangeOp string

const (
	OpCreated     ChangeOp = "created"
	OpUpdated     ChangeOp = "updated"
	OpDeleted     ChangeOp = "deleted"
	OpSynthesized ChangeOp = "synthesized"
)

// ChangeEvent announces a committed mutation of a hydrology record.
type ChangeEvent struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Kind       RecordKind `json:"kind"`
	Op         ChangeOp   `json:"op"`
	ProjectID  int64      `json:"project_id"`
	RecordID   int64      `json:"record_id"`
	OccurredAt time.Time  `json:"occurred_at"`
	// Record is the record's wire form after the change; nil for deletions.
	Record any `json:"record,omitempty"`
}

// NewChangeEvent stamps a fresh event ID and time. Type is "<kind>.<op>",
// e.g. "idf_table.created".
func NewChangeEvent(kind RecordKind, op ChangeOp, projectID, recordID int64, record any) ChangeEvent {
	return ChangeEvent{
		ID:         uuid.NewString(),
		Type:       string(kind) + "." + string(op),
		Kind:       kind,
		Op:         op,
		ProjectID:  projectID,
		RecordID:   recordID,
		OccurredAt: Now(),
		Record:     record,
	}
}
