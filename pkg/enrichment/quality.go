package enrichment

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/geocode"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Address quality scoring weights. Field completeness contributes at most 60
// points; a resolved geocode and its confidence supply the rest, capped at
// 100.
const (
	streetPoints      = 15
	cityPoints        = 15
	regionPoints      = 10
	postalPoints      = 10
	countryPoints     = 10
	completenessCap   = 60
	geocodePoints     = 20
	highConfPoints    = 20
	mediumConfPoints  = 10
	qualityScoreCap   = 100
	minStreetLen      = 5
	minPostalLen      = 5
)

func fieldLen(s *string) int {
	if s == nil {
		return 0
	}
	return len(strings.TrimSpace(*s))
}

// QualityScore rates the address of a customer, optionally boosted by a
// geocode result. A nil result scores completeness only.
func QualityScore(c models.Customer, result *geocode.Result) int {
	score := 0
	if fieldLen(c.Address) >= minStreetLen {
		score += streetPoints
	}
	if fieldLen(c.City) > 0 {
		score += cityPoints
	}
	if fieldLen(c.Region) > 0 {
		score += regionPoints
	}
	if fieldLen(c.PostalCode) >= minPostalLen {
		score += postalPoints
	}
	if fieldLen(c.Country) > 0 {
		score += countryPoints
	}
	if score > completenessCap {
		score = completenessCap
	}

	if result != nil {
		score += geocodePoints
		switch {
		case result.Importance >= geocode.HighConfidence:
			score += highConfPoints
		case result.Importance >= geocode.MediumConfidence:
			score += mediumConfPoints
		}
	}

	if score > qualityScoreCap {
		score = qualityScoreCap
	}
	return score
}
