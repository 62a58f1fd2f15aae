package learning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// SeedEntry is one dictionary entry in a YAML seed file.
type SeedEntry struct {
	Vendor         string   `yaml:"vendor"`
	Service        string   `yaml:"service"`
	VendorAliases  []string `yaml:"vendor_aliases"`
	ServiceAliases []string `yaml:"service_aliases"`
	DocType        string   `yaml:"doc_type"`
	AccountItem    string   `yaml:"account_item"`
	SubAccount     string   `yaml:"sub_account"`
	TaxCode        string   `yaml:"tax_code"`
	Section        string   `yaml:"section"`
	PaymentMethod  string   `yaml:"payment_method"`
	PaymentAccount string   `yaml:"payment_account"`
	ExpenseTiming  string   `yaml:"expense_timing"`
	Tags           []string `yaml:"tags"`
	Description    string   `yaml:"description"`
}

// SeedFile is the top-level structure of a dictionary seed file.
type SeedFile struct {
	Entries []SeedEntry `yaml:"entries"`
}

// LoadSeedFile reads and validates a YAML dictionary seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, entry := range file.Entries {
		if entry.Vendor == "" {
			return nil, fmt.Errorf("seed entry %d: vendor is required", i)
		}
		if entry.AccountItem == "" {
			return nil, fmt.Errorf("seed entry %d (%s): account_item is required", i, entry.Vendor)
		}
	}
	return &file, nil
}

// Seed creates dictionary entries for every seed row that does not already
// have an entry for its vendor/service pair. Existing entries are left
// untouched, so seeding is idempotent.
func (s *Service) Seed(file *SeedFile, actor string) (int, error) {
	created := 0
	for _, seed := range file.Entries {
		existing, err := s.engine.LookupExact(seed.Vendor, seed.Service)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		entry := &model.DictionaryEntry{
			VendorName:     seed.Vendor,
			ServiceName:    seed.Service,
			VendorAliases:  seed.VendorAliases,
			ServiceAliases: seed.ServiceAliases,
			Defaults: model.AccountingDefaults{
				DocType:         model.DocType(seed.DocType),
				AccountItem:     seed.AccountItem,
				SubAccount:      seed.SubAccount,
				TaxCode:         seed.TaxCode,
				Section:         seed.Section,
				PaymentMethod:   seed.PaymentMethod,
				PaymentAccount:  seed.PaymentAccount,
				ExpenseTiming:   model.ExpenseTiming(seed.ExpenseTiming),
				Tags:            seed.Tags,
				DescriptionTmpl: seed.Description,
			},
		}
		if _, err := s.dict.Create(entry, "dictionary seed", actor); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
