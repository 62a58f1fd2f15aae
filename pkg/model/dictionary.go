package model

import "time"

// ExpenseTiming controls when an expense is recognized.
type ExpenseTiming string

const (
	TimingPayment    ExpenseTiming = "payment"
	TimingUsage      ExpenseTiming = "usage"
	TimingEndOfMonth ExpenseTiming = "end_of_month"
)

// AccountingDefaults is the accounting treatment a dictionary entry applies
// to matched transactions.
type AccountingDefaults struct {
	DocType           DocType       `json:"doc_type,omitempty"`
	AccountItem       string        `json:"account_item"`
	SubAccount        string        `json:"sub_account,omitempty"`
	TaxCode           string        `json:"tax_code,omitempty"`
	Section           string        `json:"section,omitempty"`
	PaymentMethod     string        `json:"payment_method,omitempty"`
	PaymentAccount    string        `json:"payment_account,omitempty"`
	PaymentSubAccount string        `json:"payment_sub_account,omitempty"`
	Prepaid           bool          `json:"prepaid,omitempty"`
	PrepaidAccount    string        `json:"prepaid_account,omitempty"`
	ExpenseTiming     ExpenseTiming `json:"expense_timing,omitempty"`
	Tags              []string      `json:"tags,omitempty"`
	DescriptionTmpl   string        `json:"description_template,omitempty"`
}

// DictionaryEntry is a learned vendor/service to accounting-treatment mapping.
// The canonical vendor/service pair is immutable after creation; corrections
// replace the defaults or add aliases, they never rename the key.
type DictionaryEntry struct {
	Meta
	VendorName     string             `json:"vendor_name"`
	ServiceName    string             `json:"service_name,omitempty"`
	VendorAliases  []string           `json:"vendor_aliases,omitempty"`
	ServiceAliases []string           `json:"service_aliases,omitempty"`
	Defaults       AccountingDefaults `json:"defaults"`
	MatchThreshold float64            `json:"match_threshold,omitempty"`
	UseCount       int                `json:"use_count"`
	LastUsedAt     *time.Time         `json:"last_used_at,omitempty"`
}

// JournalLines expands the entry's defaults into a balanced debit/credit
// pair for the given amount.
func (e *DictionaryEntry) JournalLines(amount int64, description string) []JournalLine {
	if description == "" {
		description = e.Defaults.DescriptionTmpl
	}

	debitAccount := e.Defaults.AccountItem
	if e.Defaults.Prepaid && e.Defaults.PrepaidAccount != "" {
		debitAccount = e.Defaults.PrepaidAccount
	}

	creditAccount := e.Defaults.PaymentAccount
	if creditAccount == "" {
		creditAccount = "未払金"
	}

	return []JournalLine{
		{
			EntryType:   "debit",
			AccountItem: debitAccount,
			SubAccount:  e.Defaults.SubAccount,
			TaxCode:     e.Defaults.TaxCode,
			Section:     e.Defaults.Section,
			Amount:      amount,
			Description: description,
			Tags:        e.Defaults.Tags,
		},
		{
			EntryType:   "credit",
			AccountItem: creditAccount,
			SubAccount:  e.Defaults.PaymentSubAccount,
			Amount:      amount,
			Description: description,
		},
	}
}
