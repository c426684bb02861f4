package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/ppc-analyzer/internal/aggregator"
	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
)

func kwRow(keyword, matchType string, spend, clicks, orders float64) normalizer.Row {
	return normalizer.Row{
		{Column: "Customer Search Term", Value: normalizer.Text(keyword)},
		{Column: "Match Type", Value: normalizer.Text(matchType)},
		{Column: "Spend", Value: normalizer.Number(spend)},
		{Column: "Clicks", Value: normalizer.Number(clicks)},
		{Column: "Orders", Value: normalizer.Number(orders)},
	}
}

func TestWastedSpend_FlagsClicksWithoutOrders(t *testing.T) {
	rows := []normalizer.Row{
		kwRow("blue widget", "exact", 15, 6, 0),
		kwRow("red widget", "broad", 40, 10, 2),
		kwRow("green widget", "phrase", 9, 4, 0),
	}

	result := WastedSpend(rows)
	require.Len(t, result.Keywords, 1)
	assert.Equal(t, "blue widget", result.Keywords[0].Keyword)
	assert.Equal(t, "exact", result.Keywords[0].MatchType)
	assert.Equal(t, 6.0, result.Keywords[0].Clicks)
	assert.InDelta(t, 15.0, result.TotalWasted, 1e-9)
}

func TestWastedSpend_GroupsCaseInsensitively(t *testing.T) {
	rows := []normalizer.Row{
		kwRow("Blue Widget", "exact", 5, 3, 0),
		kwRow("blue widget", "broad", 7, 3, 0),
		kwRow("cheap widget", "exact", 30, 8, 0),
		kwRow("", "exact", 100, 50, 0),
	}

	result := WastedSpend(rows)
	require.Len(t, result.Keywords, 2)
	assert.Equal(t, "cheap widget", result.Keywords[0].Keyword)
	assert.Equal(t, "blue widget", result.Keywords[1].Keyword)
	assert.Equal(t, "exact", result.Keywords[1].MatchType)
	assert.InDelta(t, 12.0, result.Keywords[1].Spend, 1e-9)
	assert.InDelta(t, 42.0, result.TotalWasted, 1e-9)
}

func TestWastedSpend_ZeroSpendExcluded(t *testing.T) {
	result := WastedSpend([]normalizer.Row{kwRow("free clicks", "exact", 0, 9, 0)})
	assert.Empty(t, result.Keywords)
	assert.Equal(t, 0.0, result.TotalWasted)
}

func perf(spend, sales, clicks, orders float64) aggregator.Performance {
	return aggregator.NewPerformance(normalizer.Measures{Spend: spend, Sales: sales, Clicks: clicks, Orders: orders})
}

func TestInefficient_Campaign(t *testing.T) {
	d := NewDetector(DetectorConfig{TargetACoS: 20})
	assert.InDelta(t, 26.0, d.Threshold(), 1e-9)

	campaigns := []aggregator.CampaignAggregate{
		{Name: "Over", Performance: perf(60, 200, 30, 2)},    // 30% ACoS
		{Name: "Small", Performance: perf(40, 100, 10, 1)},   // 40% but under floor
		{Name: "Healthy", Performance: perf(80, 800, 40, 9)}, // 10%
	}

	result := d.Inefficient(campaigns, nil)
	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, ItemCampaign, item.Type)
	assert.Equal(t, "Over", item.Name)
	assert.InDelta(t, 30.0, item.ACoS, 1e-9)
	assert.InDelta(t, 2.0, item.CPC, 1e-9)
	assert.InDelta(t, 60.0, result.TotalInefficient, 1e-9)
}

func TestInefficient_MergedAndSorted(t *testing.T) {
	d := NewDetector(DetectorConfig{TargetACoS: 20})
	campaigns := []aggregator.CampaignAggregate{
		{Name: "Camp A", Performance: perf(55, 100, 20, 1)},
	}
	keywords := []aggregator.KeywordAggregate{
		{Keyword: "kw big", Performance: perf(90, 150, 30, 2)},
		{Keyword: "kw small", Performance: perf(15, 20, 5, 1)},
		{Keyword: "kw tie", Performance: perf(55, 60, 12, 1)},
	}

	result := d.Inefficient(campaigns, keywords)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "kw big", result.Items[0].Name)
	assert.Equal(t, "Camp A", result.Items[1].Name)
	assert.Equal(t, "kw tie", result.Items[2].Name)
	assert.InDelta(t, 200.0, result.TotalInefficient, 1e-9)

	assert.Len(t, result.Campaigns(), 1)
	assert.Len(t, result.Keywords(), 2)
}

func TestInefficient_ZeroSalesNotFlagged(t *testing.T) {
	d := NewDetector(DetectorConfig{TargetACoS: 20})
	campaigns := []aggregator.CampaignAggregate{
		{Name: "No Sales", Performance: perf(500, 0, 100, 0)},
	}
	result := d.Inefficient(campaigns, nil)
	assert.Empty(t, result.Items)
}

func TestInefficient_SubsetOfInputs(t *testing.T) {
	d := NewDetector(DetectorConfig{TargetACoS: 15})
	campaigns := []aggregator.CampaignAggregate{
		{Name: "A", Performance: perf(100, 200, 10, 1)},
		{Name: "B", Performance: perf(70, 700, 10, 5)},
	}
	keywords := []aggregator.KeywordAggregate{
		{Keyword: "a", Performance: perf(30, 60, 10, 1)},
	}
	names := map[string]bool{"A": true, "B": true, "a": true}

	for _, it := range d.Inefficient(campaigns, keywords).Items {
		assert.True(t, names[it.Name])
		assert.Greater(t, it.ACoS, d.Threshold())
	}
}
