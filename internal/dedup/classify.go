// Package dedup removes rollup rows and redundant granular views from a
// bulk advertising export so each campaign's spend is counted once.
package dedup

import (
	"strings"

	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
)

// Classification is the report entity of a row and the campaign it belongs to
type Classification struct {
	EntityType string `json:"entityType"`
	CampaignID string `json:"campaignId"`
}

// Classify labels a row's entity type and extracts its campaign identifier
func Classify(row normalizer.Row) Classification {
	return Classification{
		EntityType: normalizer.LookupString(row, normalizer.FieldEntity),
		CampaignID: normalizer.LookupString(row, normalizer.FieldCampaignID),
	}
}

// RollupEntities summarize spend already reported at granular level
var RollupEntities = map[string]bool{
	"Campaign":                        true,
	"Ad Group":                        true,
	"AdGroup":                         true,
	"Bidding Adjustment":              true,
	"Bidding Adjustment by Placement": true,
	"Portfolio":                       true,
}

// GranularRank ranks the alternative granular views of a campaign's spend.
// Higher ranks are preferred.
var GranularRank = map[string]int{
	"Keyword":               3,
	"Search Term":           3,
	"Customer Search Term":  3,
	"Product Targeting":     2,
	"Contextual Targeting":  2,
	"Audience Targeting":    2,
	"Product Ad":            1,
	"Product Collection Ad": 1,
}

// IsRollup reports whether the entity type is a rollup summary
func IsRollup(entity string) bool {
	return RollupEntities[entity]
}

// IsNegative reports whether the entity type is a negative targeting entry
func IsNegative(entity string) bool {
	return strings.Contains(strings.ToLower(entity), "negative")
}

// IsGranular reports whether the entity type is a ranked granular view
func IsGranular(entity string) bool {
	return GranularRank[entity] > 0
}
