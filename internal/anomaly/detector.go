// Package anomaly detects wasted and inefficient advertising spend.
package anomaly

import (
	"sort"

	"github.com/lvonguyen/ppc-analyzer/internal/aggregator"
	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
)

const (
	// WastedMinClicks is the click count at which a keyword without orders is wasted
	WastedMinClicks = 5
	// InefficiencyFactor scales target ACoS into the inefficiency threshold
	InefficiencyFactor = 1.3
	// CampaignSpendFloor is the minimum spend for an inefficient campaign
	CampaignSpendFloor = 50.0
	// KeywordSpendFloor is the minimum spend for an inefficient keyword
	KeywordSpendFloor = 20.0
)

// ItemType tags an inefficient spend item
type ItemType string

const (
	ItemCampaign ItemType = "campaign"
	ItemKeyword  ItemType = "keyword"
)

// WastedKeyword is a keyword that drew clicks without orders
type WastedKeyword struct {
	Keyword   string  `json:"keyword"`
	MatchType string  `json:"matchType"`
	Clicks    float64 `json:"clicks"`
	Orders    float64 `json:"orders"`
	Spend     float64 `json:"spend"`
}

// WastedSpendResult lists wasted keywords by descending spend
type WastedSpendResult struct {
	Keywords    []WastedKeyword `json:"keywords"`
	TotalWasted float64         `json:"totalWasted"`
}

// InefficientItem is a campaign or keyword spending far above target ACoS
type InefficientItem struct {
	Type   ItemType `json:"type"`
	Name   string   `json:"name"`
	Spend  float64  `json:"spend"`
	Sales  float64  `json:"sales"`
	ACoS   float64  `json:"acos"`
	ROAS   float64  `json:"roas"`
	Orders float64  `json:"orders"`
	Clicks float64  `json:"clicks"`
	CPC    float64  `json:"cpc"`
}

// InefficientSpendResult lists inefficient items by descending spend
type InefficientSpendResult struct {
	Items            []InefficientItem `json:"items"`
	TotalInefficient float64           `json:"totalInefficient"`
}

// Campaigns returns the inefficient campaigns in result order
func (r InefficientSpendResult) Campaigns() []InefficientItem {
	return r.filter(ItemCampaign)
}

// Keywords returns the inefficient keywords in result order
func (r InefficientSpendResult) Keywords() []InefficientItem {
	return r.filter(ItemKeyword)
}

func (r InefficientSpendResult) filter(t ItemType) []InefficientItem {
	var out []InefficientItem
	for _, it := range r.Items {
		if it.Type == t {
			out = append(out, it)
		}
	}
	return out
}

// DetectorConfig holds configuration for spend anomaly detection
type DetectorConfig struct {
	TargetACoS float64 // percent, e.g. 20
}

// Detector flags inefficient spend relative to a target ACoS
type Detector struct {
	config DetectorConfig
}

// NewDetector creates a new spend detector
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{config: cfg}
}

// Threshold returns the ACoS above which spend is inefficient
func (d *Detector) Threshold() float64 {
	return d.config.TargetACoS * InefficiencyFactor
}

// Inefficient flags campaigns and keywords whose ACoS exceeds the threshold
// and whose spend exceeds the type-specific floor.
func (d *Detector) Inefficient(campaigns []aggregator.CampaignAggregate, keywords []aggregator.KeywordAggregate) InefficientSpendResult {
	threshold := d.Threshold()
	items := make([]InefficientItem, 0)

	for _, c := range campaigns {
		if c.ACoS > threshold && c.Spend > CampaignSpendFloor {
			items = append(items, newItem(ItemCampaign, c.Name, c.Performance))
		}
	}
	for _, k := range keywords {
		if k.ACoS > threshold && k.Spend > KeywordSpendFloor {
			items = append(items, newItem(ItemKeyword, k.Keyword, k.Performance))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Spend > items[j].Spend
	})

	var total float64
	for _, it := range items {
		total += it.Spend
	}
	return InefficientSpendResult{Items: items, TotalInefficient: total}
}

func newItem(t ItemType, name string, p aggregator.Performance) InefficientItem {
	return InefficientItem{
		Type:   t,
		Name:   name,
		Spend:  p.Spend,
		Sales:  p.Sales,
		ACoS:   p.ACoS,
		ROAS:   p.ROAS,
		Orders: p.Orders,
		Clicks: p.Clicks,
		CPC:    p.CPC,
	}
}

// WastedSpend groups rows by keyword and flags keywords with at least
// WastedMinClicks clicks, no orders and positive spend.
func WastedSpend(rows []normalizer.Row) WastedSpendResult {
	index := make(map[string]int)
	groups := make([]WastedKeyword, 0)

	for _, row := range rows {
		key := aggregator.KeywordKey(row)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, WastedKeyword{
				Keyword:   key,
				MatchType: normalizer.LookupString(row, normalizer.FieldMatchType),
			})
		}
		m := normalizer.MeasuresOf(row)
		groups[i].Clicks += m.Clicks
		groups[i].Orders += m.Orders
		groups[i].Spend += m.Spend
	}

	wasted := make([]WastedKeyword, 0)
	for _, g := range groups {
		if g.Clicks >= WastedMinClicks && g.Orders == 0 && g.Spend > 0 {
			wasted = append(wasted, g)
		}
	}

	sort.SliceStable(wasted, func(i, j int) bool {
		return wasted[i].Spend > wasted[j].Spend
	})

	var total float64
	for _, w := range wasted {
		total += w.Spend
	}
	return WastedSpendResult{Keywords: wasted, TotalWasted: total}
}
