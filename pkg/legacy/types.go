package legacy

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
)

// RawCustomer is a customer row exactly as the legacy API returns it: every
// field optional, casing and formats inconsistent. It exists only at the
// ingestion boundary; nothing past Normalize sees it.
type RawCustomer struct {
	ID         json.Number `json:"id"`
	Name       *string     `json:"name"`
	Email      *string     `json:"email"`
	Phone      *string     `json:"phone"`
	Address    *string     `json:"address"`
	City       *string     `json:"city"`
	Region     *string     `json:"county"`
	PostalCode *string     `json:"postal_code"`
	Country    *string     `json:"country"`
	TotalSpent json.Number `json:"total_spent"`
	OrderCount json.Number `json:"order_count"`
	FirstOrder *string     `json:"first_order"`
	LastOrder  *string     `json:"last_order"`
	Source     *string     `json:"source"`
}

// RawOrder is an order row from the legacy API, consumed as match input only.
type RawOrder struct {
	ID    json.Number `json:"id"`
	Name  *string     `json:"customer_name"`
	Phone *string     `json:"phone"`
	Total json.Number `json:"total"`
	Date  *string     `json:"date"`
}

// Stats is the legacy aggregate counts used for drift comparison.
type Stats struct {
	Customers int `json:"customers"`
	Orders    int `json:"orders"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	raw := strings.TrimSpace(*s)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// business-form tokens seen in legacy customer names
var businessTokens = map[string]bool{
	"srl": true, "sa": true, "pfa": true, "snc": true,
	"ltd": true, "llc": true, "gmbh": true, "inc": true,
}

func looksLikeBusiness(canonicalName string) bool {
	for _, tok := range strings.Fields(canonicalName) {
		if businessTokens[tok] {
			return true
		}
	}
	return false
}

func emailIsValid(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// Normalize converts a raw legacy row into a strict directory record.
// homeCountry decides the is-international flag. Classification tiers are
// left zero; the sync orchestrator derives them.
func (r RawCustomer) Normalize(homeCountry string) (models.Customer, error) {
	externalID, err := r.ID.Int64()
	if err != nil || externalID == 0 {
		return models.Customer{}, fmt.Errorf("legacy customer row has no usable id (%q)", r.ID.String())
	}

	c := models.Customer{
		ExternalID: externalID,
		Source:     models.SourceSync,
	}

	if name := trimmed(r.Name); name != nil {
		c.Name = *name
	}

	if email := trimmed(r.Email); email != nil {
		lower := strings.ToLower(*email)
		c.Email = &lower
		c.EmailValid = emailIsValid(lower)
	}

	if phone := trimmed(r.Phone); phone != nil {
		c.Phone = phone
		if digits := normalize.PhoneSuffix(*phone); digits != "" {
			c.PhoneDigits = &digits
		}
	}

	c.Address = trimmed(r.Address)
	c.City = trimmed(r.City)
	c.Region = trimmed(r.Region)
	c.PostalCode = trimmed(r.PostalCode)

	if country := trimmed(r.Country); country != nil {
		c.Country = country
		norm := strings.ToUpper(strings.TrimSpace(*country))
		c.CountryNorm = &norm
		c.IsInternational = norm != "" && norm != strings.ToUpper(homeCountry)
	}

	if spent, err := r.TotalSpent.Float64(); err == nil {
		c.TotalSpent = spent
	}
	if count, err := r.OrderCount.Int64(); err == nil {
		c.OrderCount = int(count)
	}

	c.FirstOrderAt = parseDate(r.FirstOrder)
	c.LastOrderAt = parseDate(r.LastOrder)

	if src := trimmed(r.Source); src != nil {
		c.Source = *src
	}

	c.IsBusiness = looksLikeBusiness(normalize.Name(c.Name))

	return c, nil
}

// Normalize converts a raw order row into the match input shape. Orders with
// no usable name are still returned; the matcher treats them as unmatched.
func (r RawOrder) Normalize() models.OrderRow {
	row := models.OrderRow{SourceID: r.ID.String()}

	if name := trimmed(r.Name); name != nil {
		row.Name = *name
	}
	row.Phone = trimmed(r.Phone)
	if total, err := r.Total.Float64(); err == nil {
		row.Total = total
	}
	row.Date = parseDate(r.Date)

	return row
}
