package match

import (
	"math"
	"strings"
	"testing"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// staticDict is a fixed dictionary snapshot for engine tests.
type staticDict []*model.DictionaryEntry

func (s staticDict) GetAll(filter func(*model.DictionaryEntry) bool) ([]*model.DictionaryEntry, error) {
	var out []*model.DictionaryEntry
	for _, e := range s {
		if filter == nil || filter(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func entry(id, vendor, service string) *model.DictionaryEntry {
	e := &model.DictionaryEntry{
		VendorName:  vendor,
		ServiceName: service,
		Defaults:    model.AccountingDefaults{AccountItem: "支払手数料"},
	}
	e.ID = id
	return e
}

func TestFindBestMatch(t *testing.T) {
	acme := entry("dic_acme", "Acme Inc", "Pro Plan")
	acme.VendorAliases = []string{"Acme"}
	acme.ServiceAliases = []string{"Professional Plan"}

	github := entry("dic_github", "GitHub", "Team")
	github.Defaults.DocType = model.DocTypeInvoice

	dict := staticDict{acme, github}

	tests := []struct {
		name           string
		vendor         string
		service        string
		docType        model.DocType
		wantMatched    bool
		wantEntry      string
		wantConfidence float64
		wantType       Type
	}{
		{
			name:           "exact vendor and service",
			vendor:         "Acme Inc",
			service:        "Pro Plan",
			wantMatched:    true,
			wantEntry:      "dic_acme",
			wantConfidence: 1.0,
			wantType:       TypeExact,
		},
		{
			name:           "exact is case-insensitive",
			vendor:         "acme inc",
			service:        "PRO PLAN",
			wantMatched:    true,
			wantEntry:      "dic_acme",
			wantConfidence: 1.0,
			wantType:       TypeExact,
		},
		{
			name:           "service via alias",
			vendor:         "Acme Inc",
			service:        "Professional Plan",
			wantMatched:    true,
			wantEntry:      "dic_acme",
			wantConfidence: 0.95,
			wantType:       TypeAlias,
		},
		{
			name:           "vendor via alias with exact service",
			vendor:         "Acme",
			service:        "Pro Plan",
			wantMatched:    true,
			wantEntry:      "dic_acme",
			wantConfidence: 0.95,
			wantType:       TypeAlias,
		},
		{
			name:           "exact vendor only",
			vendor:         "Acme Inc",
			service:        "Enterprise Plan",
			wantMatched:    true,
			wantEntry:      "dic_acme",
			wantConfidence: 0.8,
			wantType:       TypePartial,
		},
		{
			name:           "vendor alias without service",
			vendor:         "Acme",
			service:        "Enterprise Plan",
			wantMatched:    true,
			wantEntry:      "dic_acme",
			wantConfidence: 0.75,
			wantType:       TypePartial,
		},
		{
			// tokens {acme, inc} vs {acme, incorporated}:
			// Jaccard 1/3, discounted by 0.8 = 0.2667 < 0.6.
			name:           "fuzzy below threshold",
			vendor:         "Acme Incorporated",
			service:        "Pro Plan",
			wantMatched:    false,
			wantConfidence: (1.0 / 3.0) * 0.8,
			wantType:       TypeNone,
		},
		{
			name:        "no candidate at all",
			vendor:      "Totally Different",
			service:     "Thing",
			wantMatched: false,
			wantType:    TypeNone,
		},
		{
			name:        "doc type filter excludes typed entry",
			vendor:      "GitHub",
			service:     "Team",
			docType:     model.DocTypeReceipt,
			wantMatched: false,
			wantType:    TypeNone,
		},
		{
			name:           "doc type filter keeps matching type",
			vendor:         "GitHub",
			service:        "Team",
			docType:        model.DocTypeInvoice,
			wantMatched:    true,
			wantEntry:      "dic_github",
			wantConfidence: 1.0,
			wantType:       TypeExact,
		},
		{
			name:           "unknown doc type applies no filter",
			vendor:         "GitHub",
			service:        "Team",
			docType:        model.DocTypeUnknown,
			wantMatched:    true,
			wantEntry:      "dic_github",
			wantConfidence: 1.0,
			wantType:       TypeExact,
		},
	}

	engine := NewEngine(dict, DefaultFuzzyThreshold)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.FindBestMatch(tt.vendor, tt.service, tt.docType)
			if err != nil {
				t.Fatalf("FindBestMatch failed: %v", err)
			}
			if result.Matched != tt.wantMatched {
				t.Fatalf("matched = %v, expected %v", result.Matched, tt.wantMatched)
			}
			if math.Abs(result.Confidence-tt.wantConfidence) > 1e-9 {
				t.Errorf("confidence = %g, expected %g", result.Confidence, tt.wantConfidence)
			}
			if result.MatchType != tt.wantType {
				t.Errorf("match type = %q, expected %q", result.MatchType, tt.wantType)
			}
			if tt.wantEntry != "" {
				if result.Entry == nil || result.Entry.ID != tt.wantEntry {
					t.Errorf("entry = %v, expected %s", result.Entry, tt.wantEntry)
				}
			}
		})
	}
}

func TestFindBestMatchIsDeterministic(t *testing.T) {
	dict := staticDict{entry("dic_acme", "Acme Inc", "Pro Plan")}
	engine := NewEngine(dict, DefaultFuzzyThreshold)

	first, err := engine.FindBestMatch("Acme Inc", "Pro Plan", "")
	if err != nil {
		t.Fatalf("FindBestMatch failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := engine.FindBestMatch("Acme Inc", "Pro Plan", "")
		if err != nil {
			t.Fatalf("FindBestMatch failed: %v", err)
		}
		if again.Confidence != first.Confidence || again.MatchType != first.MatchType || again.Entry.ID != first.Entry.ID {
			t.Fatalf("call %d returned %+v, expected %+v", i, again, first)
		}
	}
}

func TestFindBestMatchTieBreaksOnScanOrder(t *testing.T) {
	first := entry("dic_first", "Acme Inc", "Pro Plan")
	second := entry("dic_second", "Acme Inc", "Pro Plan")
	engine := NewEngine(staticDict{first, second}, DefaultFuzzyThreshold)

	result, err := engine.FindBestMatch("Acme Inc", "Pro Plan", "")
	if err != nil {
		t.Fatalf("FindBestMatch failed: %v", err)
	}
	if !result.Matched || result.Entry.ID != "dic_first" {
		t.Errorf("expected the entry encountered first, got %+v", result.Entry)
	}
}

func TestFuzzyRequiresMutualSubstring(t *testing.T) {
	// High token overlap but neither name contains the other.
	dict := staticDict{entry("dic_x", "Acme Global Inc", "Pro Plan")}
	engine := NewEngine(dict, 0.1)

	result, err := engine.FindBestMatch("Global Acme Corp", "Other", "")
	if err != nil {
		t.Fatalf("FindBestMatch failed: %v", err)
	}
	if result.Matched {
		t.Errorf("expected no match without a substring relation, got %+v", result)
	}
}

func TestLookupExact(t *testing.T) {
	acme := entry("dic_acme", "Acme Inc", "Pro Plan")
	acme.VendorAliases = []string{"Acme KK"}
	engine := NewEngine(staticDict{acme}, DefaultFuzzyThreshold)

	got, err := engine.LookupExact("acme kk", "pro plan")
	if err != nil {
		t.Fatalf("LookupExact failed: %v", err)
	}
	if got == nil || got.ID != "dic_acme" {
		t.Errorf("expected dic_acme via alias, got %v", got)
	}

	// Fuzzy-only similarity must not count as existing.
	got, err = engine.LookupExact("Acme Incorporated", "Pro Plan")
	if err != nil {
		t.Fatalf("LookupExact failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no exact match, got %v", got)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "acme inc", "acme inc", 1.0},
		{"one of three", "acme inc", "acme incorporated", 1.0 / 3.0},
		{"disjoint", "alpha beta", "gamma delta", 0},
		{"duplicate tokens collapse", "acme acme inc", "acme inc", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(strings.Fields(tt.a), strings.Fields(tt.b))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("jaccard(%q, %q) = %g, expected %g", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
