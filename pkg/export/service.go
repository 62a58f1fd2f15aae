package export

import (
	"fmt"
	"log/slog"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/lifecycle"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// Service exports approved drafts to the journal files and marks them
// exported.
type Service struct {
	lifecycle *lifecycle.Lifecycle
	ledger    *Ledger
}

// NewService creates an export service.
func NewService(lc *lifecycle.Lifecycle, ledger *Ledger) *Service {
	return &Service{lifecycle: lc, ledger: ledger}
}

// Run exports every approved draft. Drafts that cannot be formatted are
// skipped with a warning; a write failure stops the run so a draft is never
// marked exported without its journal line on disk.
func (s *Service) Run(actor string) (int, error) {
	drafts, err := s.lifecycle.Drafts().GetAll(func(d *model.DraftEntry) bool {
		return d.Status == model.StatusApproved
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list approved drafts: %w", err)
	}

	exported := 0
	for _, draft := range drafts {
		month, err := MonthKey(draft)
		if err != nil {
			slog.Warn("Skipping draft without a month key", "draft_id", draft.ID, "error", err)
			continue
		}
		transaction, err := FormatDraft(draft)
		if err != nil {
			slog.Warn("Skipping unformattable draft", "draft_id", draft.ID, "error", err)
			continue
		}

		if err := s.ledger.Append(month, transaction); err != nil {
			return exported, fmt.Errorf("failed to write draft %s: %w", draft.ID, err)
		}
		if _, err := s.lifecycle.MarkExported(draft.ID, actor); err != nil {
			return exported, fmt.Errorf("failed to mark draft %s exported: %w", draft.ID, err)
		}
		exported++
		slog.Info("Exported draft", "draft_id", draft.ID, "month", month)
	}
	return exported, nil
}
