// Package identity builds the in-memory customer lookup index and runs the
// fallback-chain matcher over it.
package identity

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
)

// Index maps raw names, canonical name variants and phone suffixes to
// customer records. It is built once per matching session and is read-only
// afterwards, so it is safe to share across goroutines.
type Index struct {
	byRawName map[string]*models.Customer
	byVariant map[string]*models.Customer
	byPhone   map[string]*models.Customer
}

// BuildIndex registers every customer under its raw name, every string in
// its name variation set, and its phone suffix. When two customers collapse
// to the same variant the later one wins; exact-name collisions are rare and
// the phone fallback can still disambiguate.
func BuildIndex(customers []models.Customer) *Index {
	ix := &Index{
		byRawName: make(map[string]*models.Customer, len(customers)),
		byVariant: make(map[string]*models.Customer, len(customers)*2),
		byPhone:   make(map[string]*models.Customer, len(customers)),
	}

	for i := range customers {
		c := &customers[i]

		if c.Name != "" {
			ix.byRawName[c.Name] = c
		}

		for _, variant := range normalize.NameVariations(c.Name) {
			ix.byVariant[variant] = c
		}

		if c.Phone != nil {
			if suffix := normalize.PhoneSuffix(*c.Phone); suffix != "" {
				ix.byPhone[suffix] = c
			}
		}
	}

	return ix
}

// ByRawName looks a customer up by the exact name string from the directory.
func (ix *Index) ByRawName(name string) *models.Customer {
	return ix.byRawName[name]
}

// ByVariant looks a customer up by a canonical name variant.
func (ix *Index) ByVariant(variant string) *models.Customer {
	return ix.byVariant[variant]
}

// ByPhoneSuffix looks a customer up by the rightmost digits of a phone number.
func (ix *Index) ByPhoneSuffix(suffix string) *models.Customer {
	return ix.byPhone[suffix]
}

// Size returns the number of distinct name variants registered.
func (ix *Index) Size() int {
	return len(ix.byVariant)
}
