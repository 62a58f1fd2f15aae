package model

import (
	"encoding/json"
	"time"
)

// ActionKind names the mutation recorded by a history record.
type ActionKind string

const (
	ActionCreated       ActionKind = "created"
	ActionUpdated       ActionKind = "updated"
	ActionStatusChanged ActionKind = "status_changed"
	ActionDeleted       ActionKind = "deleted"
)

// FieldChange is one field-level difference captured by an update.
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// HistoryRecord is one immutable audit-log row. Snapshot holds the full
// serialized entity state after the recorded action, so any past version can
// be reconstructed without replaying changes.
type HistoryRecord struct {
	HistoryID string          `json:"history_id"`
	EntityID  string          `json:"entity_id"`
	Version   int             `json:"version"`
	Action    ActionKind      `json:"action"`
	Actor     string          `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
	Changes   []FieldChange   `json:"changes,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot"`
	Reason    string          `json:"reason,omitempty"`
}
