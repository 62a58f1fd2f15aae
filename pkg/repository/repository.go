// Package repository implements versioned create/read/update/soft-delete over
// the tabular store, with field-level diffs, optimistic concurrency control
// and an append-only audit log per entity table.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/store"
)

var (
	// ErrVersionConflict is returned when the stored version no longer
	// matches the version the caller last read. The caller must re-read
	// and retry.
	ErrVersionConflict = errors.New("version conflict")
)

// Entity constrains repository types to pointers exposing the shared audit
// fields.
type Entity[T any] interface {
	*T
	AuditMeta() *model.Meta
}

// Schema binds an entity type to its table, history table and column codec.
// Columns[0] must be the entity id; the repository relies on that to locate
// live rows, and validates every encoded and decoded row against the column
// count.
type Schema[T any, PT Entity[T]] struct {
	Table        string
	HistoryTable string
	IDPrefix     string
	Columns      []string
	ToRow        func(PT) (store.Row, error)
	FromRow      func(store.Row) (PT, error)
}

// Repository is a generic versioned repository over one logical table.
// Every mutation increments the entity version by exactly 1 and appends a
// history record; the live row is rolled back if the history write fails, so
// a committed row always has a matching audit trail.
type Repository[T any, PT Entity[T]] struct {
	store   store.TabularStore
	history *HistoryLog
	schema  Schema[T, PT]
	now     func() time.Time
	newID   func() string
}

// New creates a repository for the given schema.
func New[T any, PT Entity[T]](st store.TabularStore, schema Schema[T, PT]) *Repository[T, PT] {
	prefix := schema.IDPrefix
	return &Repository[T, PT]{
		store:   st,
		history: NewHistoryLog(st, schema.HistoryTable),
		schema:  schema,
		now:     time.Now,
		newID:   func() string { return prefix + uuid.NewString() },
	}
}

// History returns the audit log backing this repository.
func (r *Repository[T, PT]) History() *HistoryLog {
	return r.history
}

// Create assigns a new id and version 1, persists the entity and writes a
// `created` history record with an empty change list and a full snapshot.
func (r *Repository[T, PT]) Create(e PT, reason, actor string) (PT, error) {
	meta := e.AuditMeta()
	now := r.now()
	meta.ID = r.newID()
	meta.Version = 1
	meta.CreatedAt = now
	meta.UpdatedAt = now

	row, err := r.encode(e)
	if err != nil {
		return nil, err
	}
	if err := r.store.AppendRow(r.schema.Table, row); err != nil {
		return nil, fmt.Errorf("failed to append %s row: %w", r.schema.Table, err)
	}

	if err := r.recordHistory(e, model.ActionCreated, nil, reason, actor); err != nil {
		// Roll the live row back: a committed row without history would
		// break the audit invariant.
		if _, idx, findErr := r.load(meta.ID); findErr == nil {
			if rbErr := r.store.DeleteRow(r.schema.Table, idx); rbErr != nil {
				slog.Error("failed to roll back created row; row has no audit record",
					"table", r.schema.Table, "id", meta.ID, "error", rbErr)
			}
		}
		return nil, err
	}
	return e, nil
}

// GetByID returns the live entity, or store.ErrNotFound.
func (r *Repository[T, PT]) GetByID(id string) (PT, error) {
	e, _, err := r.load(id)
	return e, err
}

// GetAll returns every live entity in insertion order, optionally filtered.
func (r *Repository[T, PT]) GetAll(filter func(PT) bool) ([]PT, error) {
	rows, err := r.store.ReadAll(r.schema.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.schema.Table, err)
	}

	var out []PT
	for _, row := range rows {
		e, err := r.decode(row)
		if err != nil {
			return nil, err
		}
		if filter == nil || filter(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Update reads the current entity, applies mutate to a copy, computes the
// field-level diff and commits the new state at version+1 together with an
// `updated` history record. An empty diff still increments the version and
// writes a record. expectedVersion must equal the stored version.
func (r *Repository[T, PT]) Update(id string, expectedVersion int, mutate func(PT), reason, actor string) (PT, error) {
	return r.UpdateWithAction(model.ActionUpdated, id, expectedVersion, mutate, reason, actor)
}

// UpdateWithAction is Update with an explicit history action kind, used by
// the lifecycle for status transitions.
func (r *Repository[T, PT]) UpdateWithAction(action model.ActionKind, id string, expectedVersion int, mutate func(PT), reason, actor string) (PT, error) {
	cur, idx, err := r.load(id)
	if err != nil {
		return nil, err
	}
	if err := r.checkVersion(cur, expectedVersion); err != nil {
		return nil, err
	}

	next, err := r.copy(cur)
	if err != nil {
		return nil, err
	}
	mutate(next)

	// Identity and audit fields are managed here, never by mutate.
	curMeta := cur.AuditMeta()
	nextMeta := next.AuditMeta()
	nextMeta.ID = curMeta.ID
	nextMeta.CreatedAt = curMeta.CreatedAt
	nextMeta.Version = curMeta.Version + 1
	nextMeta.UpdatedAt = r.now()

	changes := diffChanges(cur, next)

	oldRow, err := r.encode(cur)
	if err != nil {
		return nil, err
	}
	newRow, err := r.encode(next)
	if err != nil {
		return nil, err
	}

	if err := r.store.OverwriteRow(r.schema.Table, idx, newRow); err != nil {
		return nil, fmt.Errorf("failed to overwrite %s row: %w", r.schema.Table, err)
	}
	if err := r.recordHistory(next, action, changes, reason, actor); err != nil {
		if rbErr := r.store.OverwriteRow(r.schema.Table, idx, oldRow); rbErr != nil {
			slog.Error("failed to roll back updated row; row has no audit record",
				"table", r.schema.Table, "id", curMeta.ID, "error", rbErr)
		}
		return nil, err
	}
	return next, nil
}

// Delete appends a terminal `deleted` history record capturing the last known
// snapshot at version+1, then removes the live row. Prior history is never
// erased.
func (r *Repository[T, PT]) Delete(id string, expectedVersion int, reason, actor string) error {
	cur, idx, err := r.load(id)
	if err != nil {
		return err
	}
	if err := r.checkVersion(cur, expectedVersion); err != nil {
		return err
	}

	last, err := r.copy(cur)
	if err != nil {
		return err
	}
	meta := last.AuditMeta()
	meta.Version++
	meta.UpdatedAt = r.now()

	oldRow, err := r.encode(cur)
	if err != nil {
		return err
	}

	if err := r.store.DeleteRow(r.schema.Table, idx); err != nil {
		return fmt.Errorf("failed to delete %s row: %w", r.schema.Table, err)
	}
	if err := r.recordHistory(last, model.ActionDeleted, nil, reason, actor); err != nil {
		// The store has no insert-at, so the restored row lands at the end
		// of the table and later rows keep their shifted positions.
		if rbErr := r.store.AppendRow(r.schema.Table, oldRow); rbErr != nil {
			slog.Error("failed to restore deleted row; entity lost without a deleted record",
				"table", r.schema.Table, "id", meta.ID, "error", rbErr)
		}
		return err
	}
	return nil
}

func (r *Repository[T, PT]) load(id string) (PT, int, error) {
	rows, err := r.store.ReadAll(r.schema.Table)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", r.schema.Table, err)
	}
	for i, row := range rows {
		if len(row) > 0 && row[0] == id {
			e, err := r.decode(row)
			if err != nil {
				return nil, 0, err
			}
			return e, i, nil
		}
	}
	return nil, 0, store.ErrNotFound
}

// encode turns an entity into its row and checks the cell count against the
// schema before anything touches the store.
func (r *Repository[T, PT]) encode(e PT) (store.Row, error) {
	row, err := r.schema.ToRow(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s row: %w", r.schema.Table, err)
	}
	if len(row) != len(r.schema.Columns) {
		return nil, fmt.Errorf("%s row has %d cells, schema defines %d columns", r.schema.Table, len(row), len(r.schema.Columns))
	}
	return row, nil
}

func (r *Repository[T, PT]) decode(row store.Row) (PT, error) {
	if len(row) != len(r.schema.Columns) {
		return nil, fmt.Errorf("%s row has %d cells, schema defines %d columns", r.schema.Table, len(row), len(r.schema.Columns))
	}
	e, err := r.schema.FromRow(row)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s row: %w", r.schema.Table, err)
	}
	return e, nil
}

func (r *Repository[T, PT]) checkVersion(cur PT, expected int) error {
	meta := cur.AuditMeta()
	if meta.Version != expected {
		return fmt.Errorf("%w: %s is at version %d, caller read version %d",
			ErrVersionConflict, meta.ID, meta.Version, expected)
	}
	return nil
}

// copy deep-copies an entity through its JSON form so mutations never alias
// the loaded state used for diffing.
func (r *Repository[T, PT]) copy(e PT) (PT, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to copy entity: %w", err)
	}
	out := PT(new(T))
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to copy entity: %w", err)
	}
	return out, nil
}

func (r *Repository[T, PT]) recordHistory(e PT, action model.ActionKind, changes []model.FieldChange, reason, actor string) error {
	snapshot, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to snapshot entity: %w", err)
	}

	meta := e.AuditMeta()
	return r.history.Record(model.HistoryRecord{
		HistoryID: "his_" + uuid.NewString(),
		EntityID:  meta.ID,
		Version:   meta.Version,
		Action:    action,
		Actor:     actor,
		Timestamp: meta.UpdatedAt,
		Changes:   changes,
		Snapshot:  snapshot,
		Reason:    reason,
	})
}
