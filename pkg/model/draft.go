package model

import "time"

// DocType classifies the source document of a draft.
type DocType string

const (
	DocTypeInvoice DocType = "invoice"
	DocTypeReceipt DocType = "receipt"
	DocTypeUnknown DocType = "unknown"
)

// DraftStatus is the lifecycle state of a draft entry.
type DraftStatus string

const (
	StatusPending  DraftStatus = "pending"
	StatusReviewed DraftStatus = "reviewed"
	StatusApproved DraftStatus = "approved"
	StatusExported DraftStatus = "exported"
)

// JournalLine represents a single line in a journal entry (仕訳).
type JournalLine struct {
	EntryType   string   `json:"entry_type"` // debit or credit
	AccountItem string   `json:"account_item"`
	SubAccount  string   `json:"sub_account,omitempty"`
	TaxCode     string   `json:"tax_code,omitempty"`
	Section     string   `json:"section,omitempty"`
	Amount      int64    `json:"amount"` // JPY, integer
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// SuggestedEntry is one scored journal-entry candidate attached to a draft.
type SuggestedEntry struct {
	Lines        []JournalLine `json:"lines"`
	Score        float64       `json:"score"`
	Source       string        `json:"source"` // dictionary, extraction or manual
	DictionaryID string        `json:"dictionary_id,omitempty"`
	Description  string        `json:"description,omitempty"`
}

// DraftEntry is a source document pending conversion into a journal entry.
type DraftEntry struct {
	Meta
	SourceFileID   string           `json:"source_file_id"`
	SourceFileName string           `json:"source_file_name,omitempty"`
	SourceFilePath string           `json:"source_file_path,omitempty"`
	DocType        DocType          `json:"doc_type"`
	VendorName     string           `json:"vendor_name"`
	ServiceName    string           `json:"service_name,omitempty"`
	Amount         int64            `json:"amount"`
	TaxAmount      int64            `json:"tax_amount,omitempty"`
	IssueDate      string           `json:"issue_date,omitempty"` // YYYY-MM-DD
	DueDate        string           `json:"due_date,omitempty"`   // YYYY-MM-DD
	EventMonth     string           `json:"event_month,omitempty"` // YYYY-MM
	PaymentMonth   string           `json:"payment_month,omitempty"`
	Suggestions    []SuggestedEntry `json:"suggestions,omitempty"`
	SelectedEntry  []JournalLine    `json:"selected_entry,omitempty"`
	DictionaryID   string           `json:"dictionary_id,omitempty"`
	Status         DraftStatus      `json:"status"`
	ReviewedBy     string           `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}
