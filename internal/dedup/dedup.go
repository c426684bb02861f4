package dedup

import (
	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
)

// CampaignView records which granular entity type was kept for a campaign
type CampaignView struct {
	CampaignID   string   `json:"campaignId"`
	GranularSeen []string `json:"granularSeen"`
	SelectedType string   `json:"selectedType,omitempty"`
	RowsIn       int      `json:"rowsIn"`
	RowsKept     int      `json:"rowsKept"`
}

// Result holds the deduplicated rows and bookkeeping for logging
type Result struct {
	Rows         []normalizer.Row `json:"-"`
	InputRows    int              `json:"inputRows"`
	Unattributed int              `json:"unattributed"`
	Removed      int              `json:"removed"`
	Campaigns    []CampaignView   `json:"campaigns"`
}

// Reduction returns the share of input rows that were dropped, in percent
func (r Result) Reduction() float64 {
	if r.InputRows == 0 {
		return 0
	}
	return float64(r.InputRows-len(r.Rows)) / float64(r.InputRows) * 100
}

// campaignGroup is the per-campaign working set of one pass
type campaignGroup struct {
	id       string
	rows     []normalizer.Row
	entities []string
	granular []string
	seen     map[string]bool
}

// Deduplicate keeps exactly one granular view of spend per campaign.
//
// Rows without a campaign id are dropped. Rollup and negative rows are
// dropped. When a campaign has ranked granular rows, only rows of the
// highest-ranked type (first seen on ties) are kept alongside rows of
// unranked entity types. Output groups rows by campaign in first-seen order.
func Deduplicate(rows []normalizer.Row) Result {
	res := Result{InputRows: len(rows)}

	groups := make(map[string]*campaignGroup)
	order := make([]*campaignGroup, 0)

	for _, row := range rows {
		c := Classify(row)
		if c.CampaignID == "" {
			res.Unattributed++
			continue
		}

		g, ok := groups[c.CampaignID]
		if !ok {
			g = &campaignGroup{id: c.CampaignID, seen: make(map[string]bool)}
			groups[c.CampaignID] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, row)
		g.entities = append(g.entities, c.EntityType)

		if IsGranular(c.EntityType) && !g.seen[c.EntityType] {
			g.seen[c.EntityType] = true
			g.granular = append(g.granular, c.EntityType)
		}
	}

	res.Rows = make([]normalizer.Row, 0, len(rows))
	for _, g := range order {
		selected := selectType(g.granular)
		kept := 0

		for i, row := range g.rows {
			if keep(g.entities[i], selected) {
				res.Rows = append(res.Rows, row)
				kept++
			}
		}

		res.Campaigns = append(res.Campaigns, CampaignView{
			CampaignID:   g.id,
			GranularSeen: g.granular,
			SelectedType: selected,
			RowsIn:       len(g.rows),
			RowsKept:     kept,
		})
	}
	res.Removed = res.InputRows - res.Unattributed - len(res.Rows)

	return res
}

// selectType returns the highest-ranked granular type, or "" if none
func selectType(granular []string) string {
	selected := ""
	best := 0
	for _, t := range granular {
		if rank := GranularRank[t]; rank > best {
			best = rank
			selected = t
		}
	}
	return selected
}

func keep(entity, selected string) bool {
	if IsRollup(entity) || IsNegative(entity) {
		return false
	}
	if selected == "" {
		return true
	}
	return entity == selected || !IsGranular(entity)
}
