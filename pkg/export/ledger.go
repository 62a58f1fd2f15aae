// Package export writes approved drafts out as plain-text journal entries,
// one file per accounting month.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Ledger manages the on-disk journal files. Files are laid out as
// <root>/<YYYY>/<YYYY-MM>.journal and are append-only.
type Ledger struct {
	root string
	now  func() time.Time
}

// NewLedger creates a ledger rooted at the given directory.
func NewLedger(root string) *Ledger {
	return &Ledger{root: root, now: time.Now}
}

// MonthFilePath returns the journal file path for a YYYY-MM month key.
func (l *Ledger) MonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}
	return filepath.Join(l.root, parts[0], yearMonth+".journal"), nil
}

// Append adds a transaction to the month's journal file, creating the file
// with a header when needed. An optional comment line precedes the
// transaction.
func (l *Ledger) Append(yearMonth, transaction string, comment ...string) error {
	path, err := l.MonthFilePath(yearMonth)
	if err != nil {
		return err
	}
	if err := l.ensureMonthFile(yearMonth, path); err != nil {
		return err
	}

	var content string
	if len(comment) > 0 && comment[0] != "" {
		content += fmt.Sprintf("; %s\n", comment[0])
	}
	content += transaction
	if !strings.HasSuffix(transaction, "\n") {
		content += "\n"
	}
	content += "\n"

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	return nil
}

// ReadMonth reads the content of a month's journal file. A missing file reads
// as empty.
func (l *Ledger) ReadMonth(yearMonth string) (string, error) {
	path, err := l.MonthFilePath(yearMonth)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read journal file: %w", err)
	}
	return string(data), nil
}

// Months lists the month keys that have a journal file under a year.
func (l *Ledger) Months(year string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, year))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read year directory: %w", err)
	}

	var months []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".journal" {
			months = append(months, strings.TrimSuffix(name, ".journal"))
		}
	}
	return months, nil
}

func (l *Ledger) ensureMonthFile(yearMonth, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	header := fmt.Sprintf("; Journal for %s\n; Generated at %s\n\n", yearMonth, l.now().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(header), 0644); err != nil {
		return fmt.Errorf("failed to create journal file: %w", err)
	}
	return nil
}
