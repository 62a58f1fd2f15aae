package learning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeedFile(t, `entries:
  - vendor: GitHub
    service: Team
    vendor_aliases: ["GitHub, Inc."]
    doc_type: invoice
    account_item: 通信費
    tax_code: 課対仕入10%
    payment_method: credit_card
    payment_account: 未払金
    expense_timing: payment
    tags: [subscription]
    description: GitHub Team monthly
  - vendor: AWS
    account_item: 通信費
`)

	file, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, file.Entries, 2)

	first := file.Entries[0]
	assert.Equal(t, "GitHub", first.Vendor)
	assert.Equal(t, "Team", first.Service)
	assert.Equal(t, []string{"GitHub, Inc."}, first.VendorAliases)
	assert.Equal(t, "invoice", first.DocType)
	assert.Equal(t, "通信費", first.AccountItem)
	assert.Equal(t, []string{"subscription"}, first.Tags)

	second := file.Entries[1]
	assert.Equal(t, "AWS", second.Vendor)
	assert.Empty(t, second.Service)
}

func TestLoadSeedFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing vendor",
			content: "entries:\n  - account_item: 通信費\n",
			wantErr: "vendor is required",
		},
		{
			name:    "missing account item",
			content: "entries:\n  - vendor: GitHub\n",
			wantErr: "account_item is required",
		},
		{
			name:    "broken yaml",
			content: "entries: [",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSeedFile(writeSeedFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSeedFileMissingFile(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, dict, _ := setupService(t)

	file := &SeedFile{Entries: []SeedEntry{
		{Vendor: "GitHub", Service: "Team", AccountItem: "通信費", PaymentAccount: "未払金"},
		{Vendor: "AWS", AccountItem: "通信費"},
	}}

	created, err := svc.Seed(file, "seed")
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = svc.Seed(file, "seed")
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	all, err := dict.GetAll(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSeedMapsDefaults(t *testing.T) {
	svc, dict, _ := setupService(t)

	file := &SeedFile{Entries: []SeedEntry{{
		Vendor:         "GitHub",
		Service:        "Team",
		DocType:        "invoice",
		AccountItem:    "通信費",
		TaxCode:        "課対仕入10%",
		PaymentMethod:  "credit_card",
		PaymentAccount: "未払金",
		ExpenseTiming:  "payment",
		Tags:           []string{"subscription"},
		Description:    "GitHub Team monthly",
	}}}

	_, err := svc.Seed(file, "seed")
	require.NoError(t, err)

	all, err := dict.GetAll(nil)
	require.NoError(t, err)
	require.Len(t, all, 1)

	entry := all[0]
	assert.Equal(t, model.DocTypeInvoice, entry.Defaults.DocType)
	assert.Equal(t, "通信費", entry.Defaults.AccountItem)
	assert.Equal(t, model.TimingPayment, entry.Defaults.ExpenseTiming)
	assert.Equal(t, "未払金", entry.Defaults.PaymentAccount)
	assert.Equal(t, []string{"subscription"}, entry.Defaults.Tags)
	assert.Equal(t, "GitHub Team monthly", entry.Defaults.DescriptionTmpl)
}
