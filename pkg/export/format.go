package export

import (
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// FormatDraft renders a draft's selected journal entry as a text transaction.
// Debit lines carry positive amounts, credit lines negative, so every
// transaction balances to zero.
func FormatDraft(draft *model.DraftEntry) (string, error) {
	if len(draft.SelectedEntry) == 0 {
		return "", fmt.Errorf("draft %s has no selected entry", draft.ID)
	}

	date := draft.IssueDate
	if date == "" {
		return "", fmt.Errorf("draft %s has no issue date", draft.ID)
	}

	var b strings.Builder
	narration := draft.ServiceName
	if narration == "" {
		narration = string(draft.DocType)
	}
	fmt.Fprintf(&b, "%s * %q %q\n", date, draft.VendorName, narration)
	fmt.Fprintf(&b, "    ; draft: %s  source: %s\n", draft.ID, draft.SourceFileID)

	for _, line := range draft.SelectedEntry {
		amount := line.Amount
		if line.EntryType == "credit" {
			amount = -amount
		}
		account := line.AccountItem
		if line.SubAccount != "" {
			account += ":" + line.SubAccount
		}
		fmt.Fprintf(&b, "    %-30s %10d JPY", account, amount)
		if line.Description != "" {
			fmt.Fprintf(&b, "  ; %s", line.Description)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// MonthKey resolves which monthly file a draft belongs in: the accounting
// event month when set, otherwise the issue date's month.
func MonthKey(draft *model.DraftEntry) (string, error) {
	if draft.EventMonth != "" {
		return draft.EventMonth, nil
	}
	if len(draft.IssueDate) >= 7 {
		return draft.IssueDate[:7], nil
	}
	return "", fmt.Errorf("draft %s has neither an event month nor an issue date", draft.ID)
}
