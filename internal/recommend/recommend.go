// Package recommend turns anomaly and top-performer sets into prioritized
// action items.
package recommend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lvonguyen/ppc-analyzer/internal/aggregator"
	"github.com/lvonguyen/ppc-analyzer/internal/anomaly"
)

// Severity classifies a recommendation
type Severity string

const (
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// Priority ranks a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

const (
	// SpendAlertThreshold is the wasted or inefficient total that triggers a recommendation
	SpendAlertThreshold = 100.0
	// BidReductionFactor is applied to CPC for over-target campaigns and keywords
	BidReductionFactor = 0.7
	// BidIncreaseFactor is applied to CPC for top performers
	BidIncreaseFactor = 1.4
	// TopPerformerFactor scales target ACoS into the top performer ceiling
	TopPerformerFactor    = 0.8
	TopPerformerMinOrders = 3.0
	TopPerformerMinSpend  = 20.0
	LowCVRPercent         = 5.0
	LowCVRMinClicks       = 20.0
	LowCVRMinSpend        = 30.0
	// MaxKeywordsPerCampaign caps bid suggestions listed per campaign
	MaxKeywordsPerCampaign = 5
)

// Recommendation is one human-readable action item
type Recommendation struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action,omitempty"`
	Details     []string `json:"details"`
	Priority    Priority `json:"priority"`
}

// Input carries everything the rules read
type Input struct {
	Keywords    []aggregator.KeywordAggregate
	Wasted      anomaly.WastedSpendResult
	Inefficient anomaly.InefficientSpendResult
	TargetACoS  float64
}

// rule appends zero or more recommendations
type rule func(in Input, recs []Recommendation) []Recommendation

// rules run in this order
var rules = []rule{
	wastedSpend,
	inefficientSpend,
	topPerformers,
	lowConversion,
}

// Generate evaluates every rule in order
func Generate(in Input) []Recommendation {
	recs := make([]Recommendation, 0)
	for _, r := range rules {
		recs = r(in, recs)
	}
	return recs
}

func wastedSpend(in Input, recs []Recommendation) []Recommendation {
	if in.Wasted.TotalWasted <= SpendAlertThreshold {
		return recs
	}

	n := len(in.Wasted.Keywords)
	details := make([]string, n)
	for i, k := range in.Wasted.Keywords {
		details[i] = fmt.Sprintf("• \"%s\" - $%.2f wasted (%s clicks)", k.Keyword, k.Spend, num(k.Clicks))
	}

	return append(recs, Recommendation{
		Severity:    SeverityDanger,
		Title:       fmt.Sprintf("$%.2f Wasted on %d Keywords (5+ Clicks, $0 Sales)", in.Wasted.TotalWasted, n),
		Description: "Immediately add these search terms as negative keywords to stop wasting budget.",
		Action:      fmt.Sprintf("Add %d negative keywords", n),
		Details:     details,
		Priority:    PriorityHigh,
	})
}

func inefficientSpend(in Input, recs []Recommendation) []Recommendation {
	if in.Inefficient.TotalInefficient <= SpendAlertThreshold {
		return recs
	}
	threshold := in.TargetACoS * anomaly.InefficiencyFactor

	if campaigns := in.Inefficient.Campaigns(); len(campaigns) > 0 {
		details := make([]string, len(campaigns))
		for i, c := range campaigns {
			details[i] = fmt.Sprintf("• \"%s\" - %.2f%% ACoS, $%.2f spent. Lower bids to $%.2f CPC",
				c.Name, c.ACoS, c.Spend, c.CPC*BidReductionFactor)
		}
		recs = append(recs, Recommendation{
			Severity:    SeverityWarning,
			Title:       fmt.Sprintf("%d Campaigns Over %.1f%% ACoS (30%% Above Target)", len(campaigns), threshold),
			Description: fmt.Sprintf("Target ACoS: %s%%. These campaigns are significantly underperforming.", num(in.TargetACoS)),
			Action:      "Reduce bids by 20-30% or pause",
			Details:     details,
			Priority:    PriorityHigh,
		})
	}

	if keywords := in.Inefficient.Keywords(); len(keywords) > 0 {
		recs = append(recs, Recommendation{
			Severity:    SeverityWarning,
			Title:       fmt.Sprintf("%d Keywords Over %.1f%% ACoS", len(keywords), threshold),
			Description: fmt.Sprintf("These keywords are 30%%+ above your %s%% target. Lower bids or add as negative keywords.", num(in.TargetACoS)),
			Action:      "Reduce keyword-level bids by 30%",
			Details:     bidsByCampaign(keywords, in.Keywords),
			Priority:    PriorityHigh,
		})
	}
	return recs
}

type keywordBid struct {
	keyword string
	spend   float64
	cpc     float64
}

// bidsByCampaign lists the highest-spend inefficient keywords under each
// campaign they run in, campaigns in first-seen order.
func bidsByCampaign(items []anomaly.InefficientItem, keywords []aggregator.KeywordAggregate) []string {
	index := make(map[string]int, len(keywords))
	for i, k := range keywords {
		if _, ok := index[k.Keyword]; !ok {
			index[k.Keyword] = i
		}
	}

	var order []string
	groups := make(map[string][]keywordBid)
	for _, it := range items {
		i, ok := index[it.Name]
		if !ok {
			continue
		}
		for _, c := range keywords[i].Campaigns {
			if _, seen := groups[c.Name]; !seen {
				order = append(order, c.Name)
			}
			groups[c.Name] = append(groups[c.Name], keywordBid{keyword: it.Name, spend: c.Spend, cpc: c.CPC})
		}
	}

	details := make([]string, 0, len(order))
	for _, name := range order {
		bids := groups[name]
		sort.SliceStable(bids, func(i, j int) bool { return bids[i].spend > bids[j].spend })
		if len(bids) > MaxKeywordsPerCampaign {
			bids = bids[:MaxKeywordsPerCampaign]
		}
		lines := make([]string, len(bids))
		for i, b := range bids {
			lines[i] = fmt.Sprintf("Lower bid on \"%s\" from $%.2f to $%.2f CPC", b.keyword, b.cpc, b.cpc*BidReductionFactor)
		}
		details = append(details, fmt.Sprintf("• Campaign \"%s\":\n  %s", name, strings.Join(lines, "\n  ")))
	}
	return details
}

func topPerformers(in Input, recs []Recommendation) []Recommendation {
	ceiling := in.TargetACoS * TopPerformerFactor

	var top []aggregator.KeywordAggregate
	for _, k := range in.Keywords {
		if k.ACoS > 0 && k.ACoS <= ceiling && k.Orders >= TopPerformerMinOrders && k.Spend > TopPerformerMinSpend {
			top = append(top, k)
		}
	}
	if len(top) == 0 {
		return recs
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].ROAS > top[j].ROAS })

	details := make([]string, len(top))
	for i, k := range top {
		c := topCampaign(k.Campaigns)
		details[i] = fmt.Sprintf("• \"%s\" in \"%s\" - %.2f%% ACoS, %.2fx ROAS. Increase bid from $%.2f to $%.2f",
			k.Keyword, c.Name, k.ACoS, k.ROAS, c.CPC, c.CPC*BidIncreaseFactor)
	}

	return append(recs, Recommendation{
		Severity:    SeveritySuccess,
		Title:       fmt.Sprintf("%d High-Performing Keywords Below %.1f%% ACoS", len(top), ceiling),
		Description: fmt.Sprintf("These keywords are performing 20%%+ better than your %s%% target. Scale them!", num(in.TargetACoS)),
		Action:      "Increase bids by 30-50%",
		Details:     details,
		Priority:    PriorityHigh,
	})
}

// topCampaign returns the highest-spend campaign, the earliest on ties
func topCampaign(campaigns []aggregator.KeywordCampaign) aggregator.KeywordCampaign {
	var best aggregator.KeywordCampaign
	for i, c := range campaigns {
		if i == 0 || c.Spend > best.Spend {
			best = c
		}
	}
	return best
}

func lowConversion(in Input, recs []Recommendation) []Recommendation {
	var details []string
	for _, k := range in.Keywords {
		if k.CVR < LowCVRPercent && k.Clicks > LowCVRMinClicks && k.Spend > LowCVRMinSpend {
			details = append(details, fmt.Sprintf("• \"%s\" - %.2f%% CVR, %s clicks, %s orders",
				k.Keyword, k.CVR, num(k.Clicks), num(k.Orders)))
		}
	}
	if len(details) == 0 {
		return recs
	}

	return append(recs, Recommendation{
		Severity:    SeverityInfo,
		Title:       fmt.Sprintf("%d Keywords with Low Conversion Rate (<5%%)", len(details)),
		Description: "These keywords get clicks but rarely convert. Review product-keyword relevance or landing page.",
		Details:     details,
		Priority:    PriorityMedium,
	})
}

// num formats a number in its shortest form, 12 rather than 12.000000
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
