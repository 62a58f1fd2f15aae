package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// tableNamePattern restricts logical table names to safe identifiers, since
// they are interpolated into DDL.
var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SQLite is a TabularStore backed by a SQLite database. Each logical table
// maps to one SQL table with an autoincrement sequence column preserving
// insertion order and a JSON-encoded cells column holding the positional row.
type SQLite struct {
	db     *sql.DB
	dbPath string
	tables map[string]bool
}

// OpenSQLite opens (and initializes) a SQLite-backed store.
// It enables WAL mode for better concurrency and foreign key constraints.
func OpenSQLite(dbPath string) (*SQLite, error) {
	// Ensure database file's parent directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLite{
		db:     db,
		dbPath: dbPath,
		tables: make(map[string]bool),
	}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}

func (s *SQLite) ensureTable(table string) error {
	if s.tables[table] {
		return nil
	}
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    cells TEXT NOT NULL
)`, table)
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	s.tables[table] = true
	return nil
}

// AppendRow adds a row to the end of a table.
func (s *SQLite) AppendRow(table string, row Row) error {
	if err := s.ensureTable(table); err != nil {
		return err
	}

	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %q (cells) VALUES (?)`, table)
	if _, err := s.db.Exec(query, string(cells)); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

// ReadAll returns every row of a table in insertion order.
func (s *SQLite) ReadAll(table string) ([]Row, error) {
	if err := s.ensureTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT cells FROM %q ORDER BY seq`, table)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var row Row
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// seqAt resolves the sequence value of the row at the given insertion-order
// position.
func (s *SQLite) seqAt(table string, index int) (int64, error) {
	if index < 0 {
		return 0, ErrRowOutOfRange
	}

	query := fmt.Sprintf(`SELECT seq FROM %q ORDER BY seq LIMIT 1 OFFSET ?`, table)
	var seq int64
	err := s.db.QueryRow(query, index).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, ErrRowOutOfRange
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve row position: %w", err)
	}
	return seq, nil
}

// OverwriteRow replaces the row at the given position.
func (s *SQLite) OverwriteRow(table string, index int, row Row) error {
	if err := s.ensureTable(table); err != nil {
		return err
	}

	seq, err := s.seqAt(table, index)
	if err != nil {
		return err
	}

	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %q SET cells = ? WHERE seq = ?`, table)
	if _, err := s.db.Exec(query, string(cells), seq); err != nil {
		return fmt.Errorf("failed to overwrite row: %w", err)
	}
	return nil
}

// DeleteRow removes the row at the given position.
func (s *SQLite) DeleteRow(table string, index int) error {
	if err := s.ensureTable(table); err != nil {
		return err
	}

	seq, err := s.seqAt(table, index)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %q WHERE seq = ?`, table)
	if _, err := s.db.Exec(query, seq); err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}
	return nil
}
