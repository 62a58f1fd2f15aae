package repository

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/store"
)

// historyColumns is the column layout of a history table.
var historyColumns = []string{
	"entity_id", "version", "history_id", "action", "actor",
	"timestamp", "changes", "snapshot", "reason",
}

// HistoryLog is an append-only writer/reader for audit records. Existing rows
// are never mutated or deleted.
type HistoryLog struct {
	store store.TabularStore
	table string
}

// NewHistoryLog creates a history log over one logical table.
func NewHistoryLog(st store.TabularStore, table string) *HistoryLog {
	return &HistoryLog{store: st, table: table}
}

// Record appends one audit record.
func (l *HistoryLog) Record(rec model.HistoryRecord) error {
	row, err := historyToRow(rec)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}
	if err := l.store.AppendRow(l.table, row); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

// GetHistory returns every record for an entity, sorted ascending by version.
func (l *HistoryLog) GetHistory(entityID string) ([]model.HistoryRecord, error) {
	rows, err := l.store.ReadAll(l.table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.table, err)
	}

	var out []model.HistoryRecord
	for _, row := range rows {
		if len(row) == 0 || row[0] != entityID {
			continue
		}
		rec, err := historyFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode history record: %w", err)
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// GetSnapshotAtVersion returns the full entity snapshot as of the given
// version, or store.ErrNotFound.
func (l *HistoryLog) GetSnapshotAtVersion(entityID string, version int) (json.RawMessage, error) {
	records, err := l.GetHistory(entityID)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Version == version {
			return rec.Snapshot, nil
		}
	}
	return nil, store.ErrNotFound
}

// GetLatest returns the most recent record for an entity, or
// store.ErrNotFound.
func (l *HistoryLog) GetLatest(entityID string) (model.HistoryRecord, error) {
	records, err := l.GetHistory(entityID)
	if err != nil {
		return model.HistoryRecord{}, err
	}
	if len(records) == 0 {
		return model.HistoryRecord{}, store.ErrNotFound
	}
	return records[len(records)-1], nil
}

func historyToRow(rec model.HistoryRecord) (store.Row, error) {
	changes := ""
	if len(rec.Changes) > 0 {
		data, err := json.Marshal(rec.Changes)
		if err != nil {
			return nil, err
		}
		changes = string(data)
	}

	return store.Row{
		rec.EntityID,
		strconv.Itoa(rec.Version),
		rec.HistoryID,
		string(rec.Action),
		rec.Actor,
		rec.Timestamp.Format(time.RFC3339Nano),
		changes,
		string(rec.Snapshot),
		rec.Reason,
	}, nil
}

func historyFromRow(row store.Row) (model.HistoryRecord, error) {
	if len(row) != len(historyColumns) {
		return model.HistoryRecord{}, fmt.Errorf("expected %d columns, got %d", len(historyColumns), len(row))
	}

	version, err := strconv.Atoi(row[1])
	if err != nil {
		return model.HistoryRecord{}, fmt.Errorf("invalid version %q: %w", row[1], err)
	}
	ts, err := time.Parse(time.RFC3339Nano, row[5])
	if err != nil {
		return model.HistoryRecord{}, fmt.Errorf("invalid timestamp %q: %w", row[5], err)
	}

	var changes []model.FieldChange
	if row[6] != "" {
		if err := json.Unmarshal([]byte(row[6]), &changes); err != nil {
			return model.HistoryRecord{}, fmt.Errorf("invalid change list: %w", err)
		}
	}

	return model.HistoryRecord{
		HistoryID: row[2],
		EntityID:  row[0],
		Version:   version,
		Action:    model.ActionKind(row[3]),
		Actor:     row[4],
		Timestamp: ts,
		Changes:   changes,
		Snapshot:  json.RawMessage(row[7]),
		Reason:    row[8],
	}, nil
}
