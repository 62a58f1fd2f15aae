// Package match scores dictionary entries against incoming transactions to
// bias journal-entry suggestion generation.
package match

import (
	"strings"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// DefaultFuzzyThreshold is the minimum confidence for a positive match.
const DefaultFuzzyThreshold = 0.6

// fuzzyGate: fuzzy vendor matching only runs when no rule scored at least
// this much.
const fuzzyGate = 0.7

// Type classifies how a dictionary candidate matched.
type Type string

const (
	TypeExact   Type = "exact"
	TypeAlias   Type = "alias"
	TypePartial Type = "partial"
	TypeFuzzy   Type = "fuzzy"
	TypeNone    Type = "none"
)

// Result is the outcome of a dictionary lookup. A below-threshold best
// candidate is a normal negative result, not an error.
type Result struct {
	Matched    bool                   `json:"matched"`
	Entry      *model.DictionaryEntry `json:"entry,omitempty"`
	Confidence float64                `json:"confidence"`
	MatchType  Type                   `json:"match_type"`
}

// Source supplies the live dictionary entries to scan.
type Source interface {
	GetAll(filter func(*model.DictionaryEntry) bool) ([]*model.DictionaryEntry, error)
}

// Engine scores dictionary entries against (vendor, service, docType)
// triples.
type Engine struct {
	dict      Source
	threshold float64
}

// NewEngine creates a match engine. A non-positive threshold falls back to
// DefaultFuzzyThreshold.
func NewEngine(dict Source, threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Engine{dict: dict, threshold: threshold}
}

// FindBestMatch scans the dictionary and returns the best-scoring entry.
// Ties keep the entry encountered first in scan order. The best candidate is
// rejected when its score is below the configured threshold.
func (e *Engine) FindBestMatch(vendorName, serviceName string, docType model.DocType) (Result, error) {
	entries, err := e.dict.GetAll(nil)
	if err != nil {
		return Result{}, err
	}

	nv := normalize(vendorName)
	ns := normalize(serviceName)

	best := Result{MatchType: TypeNone}
	for _, entry := range entries {
		if !docTypeCompatible(entry, docType) {
			continue
		}

		score, matchType := scoreEntry(entry, nv, ns)
		if entry.MatchThreshold > 0 && score < entry.MatchThreshold {
			continue
		}
		if score > best.Confidence {
			best = Result{Entry: entry, Confidence: score, MatchType: matchType}
		}
	}

	if best.Confidence < e.threshold {
		return Result{Matched: false, Confidence: best.Confidence, MatchType: TypeNone}, nil
	}
	best.Matched = true
	return best, nil
}

// LookupExact finds an entry whose canonical names or aliases cover both the
// vendor and the service. Fuzzy matching is deliberately excluded: the
// learning service must only fold corrections into entries that are
// unambiguously the same vendor/service pair.
func (e *Engine) LookupExact(vendorName, serviceName string) (*model.DictionaryEntry, error) {
	entries, err := e.dict.GetAll(nil)
	if err != nil {
		return nil, err
	}

	nv := normalize(vendorName)
	ns := normalize(serviceName)
	for _, entry := range entries {
		vendorOK := normalize(entry.VendorName) == nv || containsNormalized(entry.VendorAliases, nv)
		serviceOK := normalize(entry.ServiceName) == ns || containsNormalized(entry.ServiceAliases, ns)
		if vendorOK && serviceOK {
			return entry, nil
		}
	}
	return nil, nil
}

// scoreEntry applies the scoring precedence. Higher rules override lower ones
// when both apply.
func scoreEntry(entry *model.DictionaryEntry, nv, ns string) (float64, Type) {
	exactVendor := normalize(entry.VendorName) == nv
	exactService := normalize(entry.ServiceName) == ns
	vendorAlias := containsNormalized(entry.VendorAliases, nv)
	serviceAlias := containsNormalized(entry.ServiceAliases, ns)

	var score float64
	var matchType Type
	switch {
	case exactVendor && exactService:
		score, matchType = 1.0, TypeExact
	case exactVendor && serviceAlias:
		score, matchType = 0.95, TypeAlias
	case vendorAlias && (exactService || serviceAlias):
		score, matchType = 0.95, TypeAlias
	case exactVendor:
		score, matchType = 0.8, TypePartial
	case vendorAlias:
		score, matchType = 0.75, TypePartial
	default:
		matchType = TypeNone
	}

	if score < fuzzyGate {
		ne := normalize(entry.VendorName)
		if fuzzy := fuzzyVendorScore(nv, ne); fuzzy > score {
			score, matchType = fuzzy, TypeFuzzy
		}
	}
	return score, matchType
}

// fuzzyVendorScore computes the token-set Jaccard similarity between two
// vendor names, discounted by 0.8. Only pairs where one name contains the
// other are considered candidates.
func fuzzyVendorScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0
	}
	return jaccard(strings.Fields(a), strings.Fields(b)) * 0.8
}

// jaccard computes the token-set Jaccard similarity of two token lists.
func jaccard(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, tok := range a {
		setA[tok] = true
	}
	setB := make(map[string]bool, len(b))
	for _, tok := range b {
		setB[tok] = true
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// docTypeCompatible reports whether an entry may match a transaction of the
// given document type. Entries with an unknown or unset default type match
// anything; an unknown input type applies no filter.
func docTypeCompatible(entry *model.DictionaryEntry, docType model.DocType) bool {
	if docType == "" || docType == model.DocTypeUnknown {
		return true
	}
	entryType := entry.Defaults.DocType
	return entryType == "" || entryType == model.DocTypeUnknown || entryType == docType
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsNormalized(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if normalize(v) == target {
			return true
		}
	}
	return false
}
