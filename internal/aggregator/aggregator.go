// Package aggregator groups deduplicated report rows by campaign, keyword,
// match type and targeting mode and derives performance ratios.
package aggregator

import (
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
)

const (
	// UnknownName labels rows without a campaign or match type
	UnknownName = "Unknown"
	// OtherPlacement labels rows without a placement
	OtherPlacement = "Other"
	// NoSearchTerm labels rows without a keyword in a campaign breakdown
	NoSearchTerm = "N/A"

	Auto   = "Auto"
	Manual = "Manual"
)

// autoMarkers identify automatic targeting in a targeting-type value
var autoMarkers = []string{"auto", "close", "loose", "substitute", "complement"}

// CampaignAggregate holds performance for one campaign name with its
// keyword and placement breakdowns, each sorted by spend descending.
type CampaignAggregate struct {
	Name string `json:"name"`
	Performance
	Keywords   []BreakdownAggregate `json:"keywordBreakdown"`
	Placements []BreakdownAggregate `json:"placementBreakdown"`
}

// BreakdownAggregate holds performance for one keyword or placement of a campaign
type BreakdownAggregate struct {
	Name string `json:"name"`
	Performance
}

// MatchTypeAggregate holds performance for one match type or targeting expression
type MatchTypeAggregate struct {
	Name string `json:"name"`
	Performance
}

// AutoManualAggregate holds performance for automatic or manual targeting
type AutoManualAggregate struct {
	Name string `json:"name"`
	Performance
	PercentSpend float64 `json:"percentSpend"`
}

// PlacementAggregate holds a keyword's performance in one campaign placement
type PlacementAggregate struct {
	Name string `json:"name"`
	Performance
}

// KeywordCampaign holds a keyword's performance within one campaign
type KeywordCampaign struct {
	Name string `json:"name"`
	Performance
	Placements []PlacementAggregate `json:"placementList"`
}

// KeywordAggregate holds performance for one keyword or search term.
// Spend equals the sum of its campaigns, which equals the sum of their placements.
type KeywordAggregate struct {
	Keyword string `json:"keyword"`
	Performance
	Campaigns []KeywordCampaign `json:"campaignList"`
}

// Set contains every aggregate built from one deduplicated row set
type Set struct {
	Totals       Performance           `json:"totals"`
	Campaigns    []CampaignAggregate   `json:"campaigns"`
	AutoVsManual []AutoManualAggregate `json:"autoVsManual"`
	MatchTypes   []MatchTypeAggregate  `json:"matchTypeAnalysis"`
	Keywords     []KeywordAggregate    `json:"keywordAnalysis"`
}

// Keyword returns the keyword aggregate with the given key
func (s *Set) Keyword(key string) (KeywordAggregate, bool) {
	for _, k := range s.Keywords {
		if k.Keyword == key {
			return k, true
		}
	}
	return KeywordAggregate{}, false
}

// Campaign returns the campaign aggregate with the given name
func (s *Set) Campaign(name string) (CampaignAggregate, bool) {
	for _, c := range s.Campaigns {
		if c.Name == name {
			return c, true
		}
	}
	return CampaignAggregate{}, false
}

// Fact is the normalized view of one row used by every aggregation pass
type Fact struct {
	Measures  normalizer.Measures
	Campaign  string
	MatchType string
	Targeting string
	Keyword   string
	Placement string
	// SearchTerm is the trimmed keyword as written in the export
	SearchTerm string
}

// NewFact resolves the canonical fields of a row once
func NewFact(row normalizer.Row) Fact {
	term := normalizer.LookupString(row, normalizer.FieldSearchTerm)
	f := Fact{
		Measures:   normalizer.MeasuresOf(row),
		Campaign:   normalizer.LookupString(row, normalizer.FieldCampaignName),
		MatchType:  normalizer.LookupString(row, normalizer.FieldMatchType),
		Targeting:  strings.ToLower(normalizer.Lookup(row, normalizer.FieldTargetingType).String()),
		Keyword:    strings.ToLower(term),
		Placement:  normalizer.LookupString(row, normalizer.FieldPlacement),
		SearchTerm: term,
	}
	if f.Campaign == "" {
		f.Campaign = UnknownName
	}
	if f.MatchType == "" {
		f.MatchType = UnknownName
	}
	if f.Placement == "" {
		f.Placement = OtherPlacement
	}
	return f
}

// KeywordKey returns the case-insensitive keyword key of a row
func KeywordKey(row normalizer.Row) string {
	return strings.ToLower(normalizer.LookupString(row, normalizer.FieldSearchTerm))
}

// IsAuto reports whether a lowercased targeting value denotes automatic targeting
func IsAuto(targeting string) bool {
	for _, m := range autoMarkers {
		if strings.Contains(targeting, m) {
			return true
		}
	}
	return false
}

// Build aggregates rows along every dimension. The passes are independent
// and run concurrently; each keeps first-seen ordering of its keys.
func Build(rows []normalizer.Row) (Set, error) {
	facts := make([]Fact, len(rows))
	for i, r := range rows {
		facts[i] = NewFact(r)
	}

	var set Set
	var g errgroup.Group

	g.Go(func() error {
		var total normalizer.Measures
		for _, f := range facts {
			total.Add(f.Measures)
		}
		set.Totals = NewPerformance(total)
		return nil
	})
	g.Go(func() error {
		set.Campaigns = byCampaign(facts)
		return nil
	})
	g.Go(func() error {
		set.AutoVsManual = byAutoManual(facts)
		return nil
	})
	g.Go(func() error {
		set.MatchTypes = byMatchType(facts)
		return nil
	})
	g.Go(func() error {
		set.Keywords = byKeyword(facts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Set{}, err
	}

	return set, nil
}

// group sums measures per key in first-seen key order
type group struct {
	index map[string]int
	keys  []string
	sums  []normalizer.Measures
}

func newGroup() *group {
	return &group{index: make(map[string]int)}
}

func (g *group) add(key string, m normalizer.Measures) int {
	i, ok := g.index[key]
	if !ok {
		i = len(g.keys)
		g.index[key] = i
		g.keys = append(g.keys, key)
		g.sums = append(g.sums, normalizer.Measures{})
	}
	g.sums[i].Add(m)
	return i
}

func byCampaign(facts []Fact) []CampaignAggregate {
	g := newGroup()
	var keywords, placements []*group
	for _, f := range facts {
		i := g.add(f.Campaign, f.Measures)
		if i == len(keywords) {
			keywords = append(keywords, newGroup())
			placements = append(placements, newGroup())
		}
		term := f.SearchTerm
		if term == "" {
			term = NoSearchTerm
		}
		keywords[i].add(term, f.Measures)
		placements[i].add(f.Placement, f.Measures)
	}

	out := make([]CampaignAggregate, len(g.keys))
	for i, k := range g.keys {
		out[i] = CampaignAggregate{
			Name:        k,
			Performance: NewPerformance(g.sums[i]),
			Keywords:    breakdown(keywords[i]),
			Placements:  breakdown(placements[i]),
		}
	}
	return out
}

// breakdown converts a group to aggregates sorted by spend descending
func breakdown(g *group) []BreakdownAggregate {
	out := make([]BreakdownAggregate, len(g.keys))
	for i, k := range g.keys {
		out[i] = BreakdownAggregate{Name: k, Performance: NewPerformance(g.sums[i])}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Spend > out[j].Spend })
	return out
}

func byMatchType(facts []Fact) []MatchTypeAggregate {
	g := newGroup()
	for _, f := range facts {
		g.add(f.MatchType, f.Measures)
	}

	out := make([]MatchTypeAggregate, len(g.keys))
	for i, k := range g.keys {
		out[i] = MatchTypeAggregate{Name: k, Performance: NewPerformance(g.sums[i])}
	}
	return out
}

// byAutoManual returns Auto then Manual, omitting groups without spend
func byAutoManual(facts []Fact) []AutoManualAggregate {
	var auto, manual normalizer.Measures
	for _, f := range facts {
		if IsAuto(f.Targeting) {
			auto.Add(f.Measures)
		} else {
			manual.Add(f.Measures)
		}
	}

	out := make([]AutoManualAggregate, 0, 2)
	var totalSpend float64
	for _, c := range []struct {
		name string
		m    normalizer.Measures
	}{{Auto, auto}, {Manual, manual}} {
		if c.m.Spend <= 0 {
			continue
		}
		totalSpend += c.m.Spend
		out = append(out, AutoManualAggregate{Name: c.name, Performance: NewPerformance(c.m)})
	}

	for i := range out {
		if totalSpend > 0 {
			out[i].PercentSpend = out[i].Spend / totalSpend * 100
		}
	}
	return out
}

type campaignNode struct {
	sum        normalizer.Measures
	placements *group
}

type keywordNode struct {
	sum       normalizer.Measures
	campaigns map[string]*campaignNode
	order     []string
}

func byKeyword(facts []Fact) []KeywordAggregate {
	nodes := make(map[string]*keywordNode)
	var order []string

	for _, f := range facts {
		if f.Keyword == "" || f.Keyword == "unknown" {
			continue
		}

		kw, ok := nodes[f.Keyword]
		if !ok {
			kw = &keywordNode{campaigns: make(map[string]*campaignNode)}
			nodes[f.Keyword] = kw
			order = append(order, f.Keyword)
		}
		kw.sum.Add(f.Measures)

		c, ok := kw.campaigns[f.Campaign]
		if !ok {
			c = &campaignNode{placements: newGroup()}
			kw.campaigns[f.Campaign] = c
			kw.order = append(kw.order, f.Campaign)
		}
		c.sum.Add(f.Measures)
		c.placements.add(f.Placement, f.Measures)
	}

	out := make([]KeywordAggregate, 0, len(order))
	for _, key := range order {
		kw := nodes[key]
		agg := KeywordAggregate{
			Keyword:     key,
			Performance: NewPerformance(kw.sum),
			Campaigns:   make([]KeywordCampaign, 0, len(kw.order)),
		}
		for _, name := range kw.order {
			c := kw.campaigns[name]
			kc := KeywordCampaign{
				Name:        name,
				Performance: NewPerformance(c.sum),
				Placements:  make([]PlacementAggregate, len(c.placements.keys)),
			}
			for i, p := range c.placements.keys {
				kc.Placements[i] = PlacementAggregate{Name: p, Performance: NewPerformance(c.placements.sums[i])}
			}
			agg.Campaigns = append(agg.Campaigns, kc)
		}
		out = append(out, agg)
	}
	return out
}
