// Package extract consumes the structured output of the external document
// extraction service and turns it into pending drafts. The raw documents
// never pass through this package.
package extract

import (
	"time"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// FieldCandidate is one extracted string value with its confidence score.
type FieldCandidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// AmountCandidate is one extracted amount (JPY, integer) with its confidence
// score.
type AmountCandidate struct {
	Value      int64   `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Result is the structured extraction output for one source document.
type Result struct {
	DocType    model.DocType   `json:"doc_type"`
	Vendor     FieldCandidate  `json:"vendor"`
	Service    FieldCandidate  `json:"service"`
	Amount     AmountCandidate `json:"amount"`
	TaxAmount  AmountCandidate `json:"tax_amount"`
	IssueDate  FieldCandidate  `json:"issue_date"` // YYYY-MM-DD
	DueDate    FieldCandidate  `json:"due_date"`   // YYYY-MM-DD
	Notes      string          `json:"notes,omitempty"`
}

// BuildDraft folds an extraction result into a new draft for the given
// source document. The accounting event month is derived from the issue
// date when present.
func BuildDraft(res *Result, fileID, fileName, filePath string) *model.DraftEntry {
	draft := &model.DraftEntry{
		SourceFileID:   fileID,
		SourceFileName: fileName,
		SourceFilePath: filePath,
		DocType:        res.DocType,
		VendorName:     res.Vendor.Value,
		ServiceName:    res.Service.Value,
		Amount:         res.Amount.Value,
		TaxAmount:      res.TaxAmount.Value,
		IssueDate:      res.IssueDate.Value,
		DueDate:        res.DueDate.Value,
		Notes:          res.Notes,
	}
	if draft.DocType == "" {
		draft.DocType = model.DocTypeUnknown
	}
	draft.EventMonth = monthOf(draft.IssueDate)
	draft.PaymentMonth = monthOf(draft.DueDate)
	return draft
}

// monthOf reduces a YYYY-MM-DD date to YYYY-MM; malformed dates reduce to
// empty.
func monthOf(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.Format("2006-01")
}
