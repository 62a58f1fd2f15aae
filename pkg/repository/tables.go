package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/store"
)

// Logical table names. The core owns the column layout of each.
const (
	TableDrafts            = "drafts"
	TableDraftHistory      = "draft_history"
	TableDictionary        = "dictionary"
	TableDictionaryHistory = "dictionary_history"
)

var draftColumns = []string{
	"id", "version", "created_at", "updated_at",
	"source_file_id", "source_file_name", "source_file_path", "doc_type",
	"vendor_name", "service_name", "amount", "tax_amount",
	"issue_date", "due_date", "event_month", "payment_month",
	"suggestions", "selected_entry", "dictionary_id", "status",
	"reviewed_by", "reviewed_at", "notes",
}

var dictionaryColumns = []string{
	"id", "version", "created_at", "updated_at",
	"vendor_name", "service_name", "vendor_aliases", "service_aliases",
	"defaults", "match_threshold", "use_count", "last_used_at",
}

// DraftRepository and DictionaryRepository are the two instantiations of the
// generic repository used by the rest of the system.
type (
	DraftRepository      = Repository[model.DraftEntry, *model.DraftEntry]
	DictionaryRepository = Repository[model.DictionaryEntry, *model.DictionaryEntry]
)

// NewDraftRepository creates the repository for draft entries.
func NewDraftRepository(st store.TabularStore) *DraftRepository {
	return New(st, Schema[model.DraftEntry, *model.DraftEntry]{
		Table:        TableDrafts,
		HistoryTable: TableDraftHistory,
		IDPrefix:     "drf_",
		Columns:      draftColumns,
		ToRow:        draftToRow,
		FromRow:      draftFromRow,
	})
}

// NewDictionaryRepository creates the repository for dictionary entries.
func NewDictionaryRepository(st store.TabularStore) *DictionaryRepository {
	return New(st, Schema[model.DictionaryEntry, *model.DictionaryEntry]{
		Table:        TableDictionary,
		HistoryTable: TableDictionaryHistory,
		IDPrefix:     "dic_",
		Columns:      dictionaryColumns,
		ToRow:        dictionaryToRow,
		FromRow:      dictionaryFromRow,
	})
}

func draftToRow(d *model.DraftEntry) (store.Row, error) {
	suggestions, err := jsonCell(d.Suggestions)
	if err != nil {
		return nil, err
	}
	selected, err := jsonCell(d.SelectedEntry)
	if err != nil {
		return nil, err
	}

	return store.Row{
		d.ID,
		strconv.Itoa(d.Version),
		timeCell(d.CreatedAt),
		timeCell(d.UpdatedAt),
		d.SourceFileID,
		d.SourceFileName,
		d.SourceFilePath,
		string(d.DocType),
		d.VendorName,
		d.ServiceName,
		strconv.FormatInt(d.Amount, 10),
		strconv.FormatInt(d.TaxAmount, 10),
		d.IssueDate,
		d.DueDate,
		d.EventMonth,
		d.PaymentMonth,
		suggestions,
		selected,
		d.DictionaryID,
		string(d.Status),
		d.ReviewedBy,
		timePtrCell(d.ReviewedAt),
		d.Notes,
	}, nil
}

func draftFromRow(row store.Row) (*model.DraftEntry, error) {
	d := &model.DraftEntry{
		SourceFileID:   row[4],
		SourceFileName: row[5],
		SourceFilePath: row[6],
		DocType:        model.DocType(row[7]),
		VendorName:     row[8],
		ServiceName:    row[9],
		IssueDate:      row[12],
		DueDate:        row[13],
		EventMonth:     row[14],
		PaymentMonth:   row[15],
		DictionaryID:   row[18],
		Status:         model.DraftStatus(row[19]),
		ReviewedBy:     row[20],
		Notes:          row[22],
	}

	var err error
	if d.Meta, err = metaFromCells(row[0], row[1], row[2], row[3]); err != nil {
		return nil, err
	}
	if d.Amount, err = int64Cell(row[10]); err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if d.TaxAmount, err = int64Cell(row[11]); err != nil {
		return nil, fmt.Errorf("invalid tax amount: %w", err)
	}
	if err = fromJSONCell(row[16], &d.Suggestions); err != nil {
		return nil, fmt.Errorf("invalid suggestions: %w", err)
	}
	if err = fromJSONCell(row[17], &d.SelectedEntry); err != nil {
		return nil, fmt.Errorf("invalid selected entry: %w", err)
	}
	if d.ReviewedAt, err = timePtrFromCell(row[21]); err != nil {
		return nil, fmt.Errorf("invalid reviewed_at: %w", err)
	}
	return d, nil
}

func dictionaryToRow(e *model.DictionaryEntry) (store.Row, error) {
	vendorAliases, err := jsonCell(e.VendorAliases)
	if err != nil {
		return nil, err
	}
	serviceAliases, err := jsonCell(e.ServiceAliases)
	if err != nil {
		return nil, err
	}
	defaults, err := json.Marshal(e.Defaults)
	if err != nil {
		return nil, err
	}

	return store.Row{
		e.ID,
		strconv.Itoa(e.Version),
		timeCell(e.CreatedAt),
		timeCell(e.UpdatedAt),
		e.VendorName,
		e.ServiceName,
		vendorAliases,
		serviceAliases,
		string(defaults),
		strconv.FormatFloat(e.MatchThreshold, 'f', -1, 64),
		strconv.Itoa(e.UseCount),
		timePtrCell(e.LastUsedAt),
	}, nil
}

func dictionaryFromRow(row store.Row) (*model.DictionaryEntry, error) {
	e := &model.DictionaryEntry{
		VendorName:  row[4],
		ServiceName: row[5],
	}

	var err error
	if e.Meta, err = metaFromCells(row[0], row[1], row[2], row[3]); err != nil {
		return nil, err
	}
	if err = fromJSONCell(row[6], &e.VendorAliases); err != nil {
		return nil, fmt.Errorf("invalid vendor aliases: %w", err)
	}
	if err = fromJSONCell(row[7], &e.ServiceAliases); err != nil {
		return nil, fmt.Errorf("invalid service aliases: %w", err)
	}
	if err = json.Unmarshal([]byte(row[8]), &e.Defaults); err != nil {
		return nil, fmt.Errorf("invalid defaults: %w", err)
	}
	if e.MatchThreshold, err = strconv.ParseFloat(row[9], 64); err != nil {
		return nil, fmt.Errorf("invalid match threshold: %w", err)
	}
	if e.UseCount, err = strconv.Atoi(row[10]); err != nil {
		return nil, fmt.Errorf("invalid use count: %w", err)
	}
	if e.LastUsedAt, err = timePtrFromCell(row[11]); err != nil {
		return nil, fmt.Errorf("invalid last_used_at: %w", err)
	}
	return e, nil
}

func metaFromCells(id, version, createdAt, updatedAt string) (model.Meta, error) {
	v, err := strconv.Atoi(version)
	if err != nil {
		return model.Meta{}, fmt.Errorf("invalid version %q: %w", version, err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Meta{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return model.Meta{}, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}
	return model.Meta{ID: id, Version: v, CreatedAt: created, UpdatedAt: updated}, nil
}

func timeCell(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func timePtrCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func timePtrFromCell(cell string) (*time.Time, error) {
	if cell == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, cell)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func int64Cell(cell string) (int64, error) {
	if cell == "" {
		return 0, nil
	}
	return strconv.ParseInt(cell, 10, 64)
}

// jsonCell encodes a composite field into one cell; empty collections encode
// as an empty cell.
func jsonCell(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(data)
	if s == "null" || s == "[]" {
		return "", nil
	}
	return s, nil
}

func fromJSONCell(cell string, v any) error {
	if cell == "" {
		return nil
	}
	return json.Unmarshal([]byte(cell), v)
}
