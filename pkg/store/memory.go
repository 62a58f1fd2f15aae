package store

import "sync"

// Memory is an in-memory TabularStore used by tests and dry-run commands.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Row
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]Row)}
}

// AppendRow adds a row to the end of a table.
func (m *Memory) AppendRow(table string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[table] = append(m.tables[table], row.Clone())
	return nil
}

// ReadAll returns every row of a table in insertion order.
func (m *Memory) ReadAll(table string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

// OverwriteRow replaces the row at the given position.
func (m *Memory) OverwriteRow(table string, index int, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	if index < 0 || index >= len(rows) {
		return ErrRowOutOfRange
	}
	rows[index] = row.Clone()
	return nil
}

// DeleteRow removes the row at the given position.
func (m *Memory) DeleteRow(table string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	if index < 0 || index >= len(rows) {
		return ErrRowOutOfRange
	}
	m.tables[table] = append(rows[:index], rows[index+1:]...)
	return nil
}
