// Package learning folds approved drafts and reviewer corrections back into
// the vendor/service dictionary.
package learning

import (
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/match"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/repository"
)

// Service creates and updates dictionary entries from human decisions.
type Service struct {
	dict   *repository.DictionaryRepository
	drafts *repository.DraftRepository
	engine *match.Engine
	now    func() time.Time
}

// NewService creates a learning service.
func NewService(dict *repository.DictionaryRepository, drafts *repository.DraftRepository, engine *match.Engine) *Service {
	return &Service{dict: dict, drafts: drafts, engine: engine, now: time.Now}
}

// LearnFromCorrection applies a reviewer's accounting-treatment correction.
// An existing entry for the same vendor/service (exact or alias lookup, never
// fuzzy) gets its defaults replaced in place; otherwise a new entry is
// created.
func (s *Service) LearnFromCorrection(vendorName, serviceName string, defaults model.AccountingDefaults, actor string) (*model.DictionaryEntry, error) {
	existing, err := s.engine.LookupExact(vendorName, serviceName)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return s.dict.Update(existing.ID, existing.Version, func(e *model.DictionaryEntry) {
			e.Defaults = defaults
		}, "reviewer correction", actor)
	}

	entry := &model.DictionaryEntry{
		VendorName:  vendorName,
		ServiceName: serviceName,
		Defaults:    defaults,
	}
	return s.dict.Create(entry, "learned from correction", actor)
}

// LearnFromDraft derives a dictionary entry from an approved draft's selected
// journal entry. It is a no-op when the draft is not approved, has nothing
// selected, or an entry for the vendor/service pair already exists.
func (s *Service) LearnFromDraft(draftID, actor string) (*model.DictionaryEntry, error) {
	draft, err := s.drafts.GetByID(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != model.StatusApproved || len(draft.SelectedEntry) == 0 {
		return nil, nil
	}

	existing, err := s.engine.LookupExact(draft.VendorName, draft.ServiceName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	entry := &model.DictionaryEntry{
		VendorName:  draft.VendorName,
		ServiceName: draft.ServiceName,
		Defaults:    defaultsFromDraft(draft),
	}
	return s.dict.Create(entry, fmt.Sprintf("learned from draft %s", draft.ID), actor)
}

// AddAliases appends vendor/service aliases to an entry, skipping ones it
// already carries. The canonical names are never touched.
func (s *Service) AddAliases(dictID string, vendorAliases, serviceAliases []string, actor string) (*model.DictionaryEntry, error) {
	entry, err := s.dict.GetByID(dictID)
	if err != nil {
		return nil, err
	}

	return s.dict.Update(entry.ID, entry.Version, func(e *model.DictionaryEntry) {
		e.VendorAliases = appendMissing(e.VendorAliases, vendorAliases)
		e.ServiceAliases = appendMissing(e.ServiceAliases, serviceAliases)
	}, "alias correction", actor)
}

// RecordUsage increments the usage counter and stamps the last-used time.
// It goes through the normal update path, so usage tracking is itself an
// audited, version-incrementing mutation.
func (s *Service) RecordUsage(dictID, actor string) (*model.DictionaryEntry, error) {
	entry, err := s.dict.GetByID(dictID)
	if err != nil {
		return nil, err
	}

	usedAt := s.now()
	return s.dict.Update(entry.ID, entry.Version, func(e *model.DictionaryEntry) {
		e.UseCount++
		e.LastUsedAt = &usedAt
	}, "usage", actor)
}

// defaultsFromDraft reads the accounting treatment off the draft's selected
// journal lines: the first debit line carries the expense side, the first
// credit line the payment side.
func defaultsFromDraft(draft *model.DraftEntry) model.AccountingDefaults {
	defaults := model.AccountingDefaults{DocType: draft.DocType}
	for _, line := range draft.SelectedEntry {
		switch line.EntryType {
		case "debit":
			if defaults.AccountItem == "" {
				defaults.AccountItem = line.AccountItem
				defaults.SubAccount = line.SubAccount
				defaults.TaxCode = line.TaxCode
				defaults.Section = line.Section
				defaults.Tags = line.Tags
				defaults.DescriptionTmpl = line.Description
			}
		case "credit":
			if defaults.PaymentAccount == "" {
				defaults.PaymentAccount = line.AccountItem
				defaults.PaymentSubAccount = line.SubAccount
			}
		}
	}
	return defaults
}

func appendMissing(existing, additions []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range additions {
		if v == "" || seen[v] {
			continue
		}
		existing = append(existing, v)
		seen[v] = true
	}
	return existing
}
