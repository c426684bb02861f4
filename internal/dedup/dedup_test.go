package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
)

func row(campaignID, entity string, spend float64) normalizer.Row {
	return normalizer.Row{
		{Column: "Campaign ID", Value: normalizer.Text(campaignID)},
		{Column: "Entity", Value: normalizer.Text(entity)},
		{Column: "Spend", Value: normalizer.Number(spend)},
	}
}

func entities(rows []normalizer.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, Classify(r).EntityType)
	}
	return out
}

func TestClassify(t *testing.T) {
	r := normalizer.Row{
		{Column: "Record Type", Value: normalizer.Text(" Keyword ")},
		{Column: "Campaign Id", Value: normalizer.Number(1234)},
	}
	c := Classify(r)
	assert.Equal(t, "Keyword", c.EntityType)
	assert.Equal(t, "1234", c.CampaignID)
}

func TestDeduplicate_RollupAgainstKeyword(t *testing.T) {
	rows := []normalizer.Row{
		row("C1", "Campaign", 100),
		row("C1", "Keyword", 100),
	}

	res := Deduplicate(rows)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Keyword", Classify(res.Rows[0]).EntityType)
	assert.Equal(t, 1, res.Removed)
	require.Len(t, res.Campaigns, 1)
	assert.Equal(t, "Keyword", res.Campaigns[0].SelectedType)
}

func TestDeduplicate_PrefersHighestRankedView(t *testing.T) {
	rows := []normalizer.Row{
		row("C1", "Ad Group", 2091),
		row("C1", "Product Ad", 477),
		row("C1", "Product Ad", 1614),
		row("C1", "Keyword", 108),
		row("C1", "Keyword", 1983),
		row("C1", "Product Targeting", 50),
	}

	res := Deduplicate(rows)

	assert.Equal(t, []string{"Keyword", "Keyword"}, entities(res.Rows))
	var spend float64
	for _, r := range res.Rows {
		spend += normalizer.LookupNumber(r, normalizer.FieldSpend)
	}
	assert.InDelta(t, 2091.0, spend, 0.001)
}

func TestDeduplicate_TieKeepsFirstSeen(t *testing.T) {
	rows := []normalizer.Row{
		row("C1", "Search Term", 10),
		row("C1", "Keyword", 10),
	}

	res := Deduplicate(rows)

	assert.Equal(t, []string{"Search Term"}, entities(res.Rows))
}

func TestDeduplicate_DropsNegativesAndUnattributed(t *testing.T) {
	rows := []normalizer.Row{
		row("C1", "Negative Keyword", 0),
		row("C1", "Campaign Negative Keyword", 0),
		row("", "Keyword", 5),
		row("C1", "Product Ad", 5),
	}

	res := Deduplicate(rows)

	assert.Equal(t, []string{"Product Ad"}, entities(res.Rows))
	assert.Equal(t, 1, res.Unattributed)
	assert.Equal(t, 2, res.Removed)
}

func TestDeduplicate_UnrankedPassesThrough(t *testing.T) {
	rows := []normalizer.Row{
		row("C1", "Keyword", 10),
		row("C1", "Brand Video", 4),
		row("C2", "Mystery", 3),
		row("C2", "Campaign", 3),
	}

	res := Deduplicate(rows)

	assert.Equal(t, []string{"Keyword", "Brand Video", "Mystery"}, entities(res.Rows))
	assert.Equal(t, "", res.Campaigns[1].SelectedType)
}

func TestDeduplicate_RollupOnlyCampaignContributesNothing(t *testing.T) {
	rows := []normalizer.Row{
		row("C1", "Campaign", 100),
		row("C1", "Bidding Adjustment by Placement", 100),
		row("C1", "Portfolio", 100),
	}

	res := Deduplicate(rows)

	assert.Empty(t, res.Rows)
	assert.Equal(t, 3, res.Removed)
	assert.InDelta(t, 100.0, res.Reduction(), 1e-9)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	rows := []normalizer.Row{
		row("C1", "Campaign", 100),
		row("C1", "Keyword", 60),
		row("C1", "Keyword", 40),
		row("C1", "Product Ad", 100),
		row("C2", "Product Targeting", 30),
		row("C2", "Product Ad", 30),
		row("C2", "Something New", 1),
		row("C3", "Ad Group", 9),
		row("C3", "Custom", 9),
	}

	once := Deduplicate(rows)
	twice := Deduplicate(once.Rows)

	assert.Equal(t, once.Rows, twice.Rows)
	assert.Equal(t, 0, twice.Removed)
}

func TestDeduplicate_Deterministic(t *testing.T) {
	rows := []normalizer.Row{
		row("B", "Keyword", 1),
		row("A", "Keyword", 2),
		row("B", "Keyword", 3),
	}

	first := Deduplicate(rows)
	second := Deduplicate(rows)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, "B", first.Campaigns[0].CampaignID)
}
