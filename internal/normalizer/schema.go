package normalizer

import "strings"

// Field is a canonical report field
type Field string

const (
	FieldSpend         Field = "spend"
	FieldSales         Field = "sales"
	FieldClicks        Field = "clicks"
	FieldImpressions   Field = "impressions"
	FieldOrders        Field = "orders"
	FieldCampaignName  Field = "campaign_name"
	FieldCampaignID    Field = "campaign_id"
	FieldEntity        Field = "entity"
	FieldMatchType     Field = "match_type"
	FieldTargetingType Field = "targeting_type"
	FieldPlacement     Field = "placement"
	FieldSearchTerm    Field = "search_term"
)

// ColumnSynonyms maps canonical fields to accepted column names in priority order
var ColumnSynonyms = map[Field][]string{
	FieldSpend:         {"Spend", "Cost", "Ad Spend", "Total Spend"},
	FieldSales:         {"Sales", "Revenue", "7 Day Total Sales", "Total Sales", "Sales 7d"},
	FieldClicks:        {"Clicks", "Click"},
	FieldImpressions:   {"Impressions", "Impr.", "Impr"},
	FieldOrders:        {"Orders", "7 Day Total Orders", "Total Orders", "Orders 7d"},
	FieldCampaignName:  {"Campaign Name (Informational only)", "Campaign Name", "Campaign", "Campaign name"},
	FieldCampaignID:    {"Campaign ID", "Campaign Id", "CampaignId"},
	FieldEntity:        {"Entity", "Record Type", "Operation"},
	FieldMatchType:     {"Match Type", "Product Targeting Expression"},
	FieldTargetingType: {"Targeting Type", "Match Type", "Targeting"},
	FieldPlacement:     {"Placement"},
	FieldSearchTerm:    {"Customer Search Term", "Keyword Text"},
}

// Measures holds the numeric canonical fields of a row or a group of rows
type Measures struct {
	Spend       float64 `json:"spend"`
	Sales       float64 `json:"sales"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	Orders      float64 `json:"orders"`
}

// Add accumulates another set of measures
func (m *Measures) Add(o Measures) {
	m.Spend += o.Spend
	m.Sales += o.Sales
	m.Clicks += o.Clicks
	m.Impressions += o.Impressions
	m.Orders += o.Orders
}

// MeasuresOf resolves and normalizes the numeric fields of a row
func MeasuresOf(row Row) Measures {
	return Measures{
		Spend:       LookupNumber(row, FieldSpend),
		Sales:       LookupNumber(row, FieldSales),
		Clicks:      LookupNumber(row, FieldClicks),
		Impressions: LookupNumber(row, FieldImpressions),
		Orders:      LookupNumber(row, FieldOrders),
	}
}

// Lookup resolves a canonical field through its synonym list
func Lookup(row Row, f Field) Value {
	return Resolve(row, ColumnSynonyms[f])
}

// LookupString resolves a canonical field as trimmed text
func LookupString(row Row, f Field) string {
	return strings.TrimSpace(Lookup(row, f).String())
}

// LookupNumber resolves a canonical field as a number. Absent fields are 0.
func LookupNumber(row Row, f Field) float64 {
	return ToNumber(Lookup(row, f))
}
