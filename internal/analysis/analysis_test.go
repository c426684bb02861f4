package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
	"github.com/lvonguyen/ppc-analyzer/internal/recommend"
)

type line struct {
	entity, campaignID, campaign, keyword, matchType, targeting string
	spend, sales, clicks, impressions, orders                   string
}

func (l line) row() normalizer.Row {
	return normalizer.Row{
		{Column: "Entity", Value: normalizer.Text(l.entity)},
		{Column: "Campaign ID", Value: normalizer.Text(l.campaignID)},
		{Column: "Campaign Name (Informational only)", Value: normalizer.Text(l.campaign)},
		{Column: "Targeting Type", Value: normalizer.Text(l.targeting)},
		{Column: "Keyword Text", Value: normalizer.Text(l.keyword)},
		{Column: "Match Type", Value: normalizer.Text(l.matchType)},
		{Column: "Spend", Value: normalizer.Text(l.spend)},
		{Column: "Sales", Value: normalizer.Text(l.sales)},
		{Column: "Clicks", Value: normalizer.Text(l.clicks)},
		{Column: "Impressions", Value: normalizer.Text(l.impressions)},
		{Column: "Orders", Value: normalizer.Text(l.orders)},
	}
}

func bulkExport() []normalizer.Row {
	lines := []line{
		{entity: "Campaign", campaignID: "C1", campaign: "Shoes Manual", targeting: "Manual", spend: "$235.00", sales: "$300.00", clicks: "120", impressions: "9,000", orders: "8"},
		{entity: "Ad Group", campaignID: "C1", campaign: "Shoes Manual", spend: "$235.00", sales: "$300.00", clicks: "120", impressions: "9,000", orders: "8"},
		{entity: "Keyword", campaignID: "C1", campaign: "Shoes Manual", targeting: "Manual", keyword: "running shoes", matchType: "Exact", spend: "$60.00", sales: "$200.00", clicks: "30", impressions: "3,000", orders: "6"},
		{entity: "Keyword", campaignID: "C1", campaign: "Shoes Manual", targeting: "Manual", keyword: "trail shoes", matchType: "Broad", spend: "$120.00", sales: "$100.00", clicks: "60", impressions: "4,000", orders: "2"},
		{entity: "Keyword", campaignID: "C1", campaign: "Shoes Manual", targeting: "Manual", keyword: "shoe glue", matchType: "Phrase", spend: "$55.00", sales: "$0.00", clicks: "30", impressions: "2,000", orders: "0"},
		{entity: "Negative Keyword", campaignID: "C1", campaign: "Shoes Manual", keyword: "free", matchType: "Negative Exact"},
		{entity: "Product Ad", campaignID: "C1", campaign: "Shoes Manual", spend: "$235.00", sales: "$300.00", clicks: "120", impressions: "9,000", orders: "8"},
		{entity: "Campaign", campaignID: "C2", campaign: "Shoes Auto", targeting: "Auto", spend: "$50.00", sales: "$250.00", clicks: "40", impressions: "5,000", orders: "5"},
		{entity: "Product Targeting", campaignID: "C2", campaign: "Shoes Auto", targeting: "Auto", matchType: "close-match", spend: "$50.00", sales: "$250.00", clicks: "40", impressions: "5,000", orders: "6"},
		{entity: "Keyword", campaignID: "C3", campaign: "Empty", spend: "0", clicks: "0", impressions: "0"},
	}
	rows := make([]normalizer.Row, len(lines))
	for i, l := range lines {
		rows[i] = l.row()
	}
	return rows
}

func TestAnalyze_EmptyInput(t *testing.T) {
	res, err := Analyze(nil, 20)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, res)
}

func TestAnalyze_OnlyRollups(t *testing.T) {
	rows := []normalizer.Row{
		line{entity: "Campaign", campaignID: "C1", campaign: "X", spend: "100", clicks: "10"}.row(),
	}
	_, err := Analyze(rows, 20)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "Spend, Clicks, Impressions, and Sales")
}

func TestAnalyze_RollupNotDoubleCounted(t *testing.T) {
	rows := []normalizer.Row{
		line{entity: "Campaign", campaignID: "C1", campaign: "Brand", spend: "100"}.row(),
		line{entity: "Keyword", campaignID: "C1", campaign: "Brand", keyword: "brand kw", spend: "100", clicks: "10", sales: "200"}.row(),
	}

	res, err := Analyze(rows, 20)
	require.NoError(t, err)
	require.Len(t, res.RawData, 1)
	require.Len(t, res.Campaigns, 1)
	assert.InDelta(t, 100.0, res.Campaigns[0].Spend, 1e-9)
	assert.InDelta(t, 100.0, res.Metrics.TotalSpend, 1e-9)
}

func TestAnalyze_BulkExport(t *testing.T) {
	res, err := NewAnalyzer(zaptest.NewLogger(t)).Analyze(bulkExport(), 20)
	require.NoError(t, err)

	// Keyword rows for C1 and the Product Targeting row for C2 survive.
	assert.Len(t, res.RawData, 4)

	m := res.Metrics
	assert.InDelta(t, 285.0, m.TotalSpend, 1e-9)
	assert.InDelta(t, 550.0, m.TotalSales, 1e-9)
	assert.InDelta(t, 51.82, m.ACoS, 1e-9)
	assert.InDelta(t, 1.93, m.ROAS, 1e-9)
	assert.InDelta(t, 1.14, m.CTR, 1e-9)
	assert.InDelta(t, 1.78, m.CPC, 1e-9)
	assert.InDelta(t, 8.75, m.CVR, 1e-9)
	assert.Equal(t, 160.0, m.TotalClicks)
	assert.Equal(t, 14000.0, m.TotalImpressions)
	assert.Equal(t, 14.0, m.TotalOrders)

	require.Len(t, res.Campaigns, 2)
	assert.Equal(t, "Shoes Manual", res.Campaigns[0].Name)
	assert.InDelta(t, 235.0, res.Campaigns[0].Spend, 1e-9)
	assert.Equal(t, "Shoes Auto", res.Campaigns[1].Name)

	require.Len(t, res.AutoVsManual, 2)
	assert.Equal(t, "Auto", res.AutoVsManual[0].Name)
	assert.InDelta(t, 50.0/285.0*100, res.AutoVsManual[0].PercentSpend, 1e-9)

	require.Len(t, res.KeywordAnalysis, 3)

	require.Len(t, res.WastedSpend.Keywords, 1)
	assert.Equal(t, "shoe glue", res.WastedSpend.Keywords[0].Keyword)

	// Shoes Manual is at 78% ACoS, trail shoes 120%, running shoes 30%.
	// shoe glue has no sales so its ACoS is 0.
	require.Len(t, res.InefficientSpend.Items, 3)
	assert.Equal(t, "Shoes Manual", res.InefficientSpend.Items[0].Name)
	assert.Equal(t, "trail shoes", res.InefficientSpend.Items[1].Name)
	assert.Equal(t, "running shoes", res.InefficientSpend.Items[2].Name)
	assert.InDelta(t, 415.0, res.InefficientSpend.TotalInefficient, 1e-9)

	var severities []recommend.Severity
	for _, r := range res.Recommendations {
		severities = append(severities, r.Severity)
	}
	assert.Equal(t, []recommend.Severity{
		recommend.SeverityWarning,
		recommend.SeverityWarning,
		recommend.SeverityInfo,
	}, severities)
}

func TestAnalyze_Idempotent(t *testing.T) {
	first, err := Analyze(bulkExport(), 20)
	require.NoError(t, err)
	second, err := Analyze(bulkExport(), 20)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestEvaluate_MatchesAnalyze(t *testing.T) {
	ds, err := Prepare(bulkExport())
	require.NoError(t, err)

	for _, target := range []float64{10, 20, 35, 80} {
		full, err := Analyze(bulkExport(), target)
		require.NoError(t, err)
		assert.Equal(t, full, ds.Evaluate(target))
	}
}

func TestEvaluate_TargetChangesOnlyTargetDependentParts(t *testing.T) {
	ds, err := Prepare(bulkExport())
	require.NoError(t, err)

	strict := ds.Evaluate(10)
	loose := ds.Evaluate(200)
	assert.Equal(t, strict.Metrics, loose.Metrics)
	assert.Equal(t, strict.Campaigns, loose.Campaigns)
	assert.Equal(t, strict.WastedSpend, loose.WastedSpend)
	assert.NotEmpty(t, strict.InefficientSpend.Items)
	assert.Empty(t, loose.InefficientSpend.Items)
}

func TestValid(t *testing.T) {
	rows := []normalizer.Row{
		line{spend: "0", clicks: "0", impressions: "0"}.row(),
		line{impressions: "12"}.row(),
		line{spend: "abc"}.row(),
		line{clicks: "1"}.row(),
	}
	assert.Len(t, Valid(rows), 2)
}
