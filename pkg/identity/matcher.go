package identity

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
)

// Strategy attempts one way of resolving an order row against the index.
// Returning nil means "no opinion"; the chain moves on to the next strategy.
type Strategy struct {
	Name string
	Fn   func(row models.OrderRow, ix *Index) *models.Customer
}

// Matcher resolves free-text order rows against an Index using an ordered
// fallback chain that stops at the first hit. There is exactly one
// confidence level: matched or not matched.
type Matcher struct {
	strategies []Strategy
}

// NewMatcher returns a matcher with the standard fallback order:
// raw name, name variations, phone suffix.
func NewMatcher() *Matcher {
	return &Matcher{
		strategies: []Strategy{
			{Name: "raw_name", Fn: MatchRawName},
			{Name: "name_variations", Fn: MatchNameVariations},
			{Name: "phone_suffix", Fn: MatchPhoneSuffix},
		},
	}
}

// Match runs the fallback chain. A nil customer with ok=false is the normal
// "new customer" outcome, not an error. The returned strategy name reports
// which rung of the chain hit.
func (m *Matcher) Match(row models.OrderRow, ix *Index) (*models.Customer, string, bool) {
	for _, s := range m.strategies {
		if c := s.Fn(row, ix); c != nil {
			return c, s.Name, true
		}
	}
	return nil, "", false
}

// MatchRawName matches the order name against the directory's raw name keys,
// byte for byte. Precision-preserving when the data is already clean.
func MatchRawName(row models.OrderRow, ix *Index) *models.Customer {
	if row.Name == "" {
		return nil
	}
	return ix.ByRawName(row.Name)
}

// MatchNameVariations tries every canonical variant of the order name
// against the variant table; the first hit wins.
func MatchNameVariations(row models.OrderRow, ix *Index) *models.Customer {
	for _, variant := range normalize.NameVariations(row.Name) {
		if c := ix.ByVariant(variant); c != nil {
			return c
		}
	}
	return nil
}

// MatchPhoneSuffix matches on the rightmost digits of the order phone when
// the row carries one.
func MatchPhoneSuffix(row models.OrderRow, ix *Index) *models.Customer {
	if row.Phone == nil {
		return nil
	}
	suffix := normalize.PhoneSuffix(*row.Phone)
	if suffix == "" {
		return nil
	}
	return ix.ByPhoneSuffix(suffix)
}
