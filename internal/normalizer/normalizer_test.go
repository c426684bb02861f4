package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	assert.InDelta(t, 1234.56, ParseNumber("$1,234.56"), 1e-9)
	assert.Equal(t, 0.0, ParseNumber(""))
	assert.InDelta(t, 12.5, ParseNumber("12.5%"), 1e-9)
	assert.InDelta(t, 7.0, ParseNumber("  7 "), 1e-9)
	assert.InDelta(t, 3.5, ParseNumber("3.5 USD"), 1e-9)
	assert.Equal(t, 0.0, ParseNumber("n/a"))
	assert.Equal(t, 0.0, ParseNumber("-4.00"))
}

func TestToNumber(t *testing.T) {
	assert.Equal(t, 0.0, ToNumber(Value{}))
	assert.Equal(t, 0.0, ToNumber(Text("")))
	assert.InDelta(t, 42.0, ToNumber(Number(42)), 1e-9)
	assert.InDelta(t, 1234.56, ToNumber(Text("$1,234.56")), 1e-9)
}

func TestResolve_ExactBeforeCaseInsensitive(t *testing.T) {
	row := Row{
		{Column: "spend", Value: Text("1")},
		{Column: "Spend", Value: Text("2")},
	}
	assert.Equal(t, "2", Resolve(row, []string{"Spend"}).String())
}

func TestResolve_CaseInsensitive(t *testing.T) {
	row := Row{{Column: "CAMPAIGN ID", Value: Text("C-9")}}
	assert.Equal(t, "C-9", Resolve(row, []string{"Campaign ID"}).String())
}

func TestResolve_CaseInsensitiveLastColumnWins(t *testing.T) {
	row := Row{
		{Column: "spend", Value: Number(3)},
		{Column: "SPEND", Value: Number(5)},
	}
	assert.Equal(t, "5", Resolve(row, []string{"Spend"}).String())

	// A blank last column defers to the substring pass.
	row = Row{
		{Column: "SPEND", Value: Number(3)},
		{Column: "spend", Value: Value{}},
		{Column: "Total Spend", Value: Number(7)},
	}
	assert.Equal(t, "3", Resolve(row, []string{"Spend"}).String())
}

func TestResolve_Substring(t *testing.T) {
	row := Row{{Column: "Total Advertising Cost of Sales", Value: Text("9")}}
	assert.Equal(t, "9", Resolve(row, []string{"Advertising Cost"}).String())

	// Candidate containing the column name also matches.
	row = Row{{Column: "Impr", Value: Number(300)}}
	assert.Equal(t, "300", Resolve(row, []string{"Impressions shown"}).String())
}

func TestResolve_SkipsEmptyValues(t *testing.T) {
	row := Row{
		{Column: "Spend", Value: Text("")},
		{Column: "Cost", Value: Text("$5.00")},
	}
	assert.InDelta(t, 5.0, LookupNumber(row, FieldSpend), 1e-9)
}

func TestResolve_ZeroIsFound(t *testing.T) {
	row := Row{
		{Column: "Spend", Value: Number(0)},
		{Column: "Cost", Value: Number(9)},
	}
	assert.Equal(t, 0.0, LookupNumber(row, FieldSpend))
}

func TestResolve_NoMatch(t *testing.T) {
	row := Row{{Column: "Portfolio", Value: Text("x")}}
	v := Lookup(row, FieldSpend)
	assert.True(t, v.IsEmpty())
	assert.Equal(t, "", LookupString(row, FieldSpend))
}

func TestMeasuresOf(t *testing.T) {
	row := Row{
		{Column: "Spend", Value: Text("$10.50")},
		{Column: "7 Day Total Sales", Value: Text("$42.00")},
		{Column: "Clicks", Value: Number(7)},
		{Column: "Impressions", Value: Text("1,000")},
		{Column: "7 Day Total Orders", Value: Number(2)},
	}
	m := MeasuresOf(row)
	assert.InDelta(t, 10.5, m.Spend, 1e-9)
	assert.InDelta(t, 42.0, m.Sales, 1e-9)
	assert.InDelta(t, 7.0, m.Clicks, 1e-9)
	assert.InDelta(t, 1000.0, m.Impressions, 1e-9)
	assert.InDelta(t, 2.0, m.Orders, 1e-9)
}

func TestRowJSON_PreservesOrder(t *testing.T) {
	row := Row{
		{Column: "Entity", Value: Text("Keyword")},
		{Column: "Spend", Value: Number(12.5)},
		{Column: "Bid", Value: Value{}},
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Entity":"Keyword","Spend":12.5,"Bid":""}`, string(data))
	assert.Equal(t, `{"Entity":"Keyword","Spend":12.5,"Bid":""}`, string(data))

	var back Row
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"Entity", "Spend", "Bid"}, back.Columns())
	assert.InDelta(t, 12.5, ToNumber(back[1].Value), 1e-9)
	assert.True(t, back[2].Value.IsEmpty())
}

func TestRowSet(t *testing.T) {
	var row Row
	row = row.Set("A", Text("1"))
	row = row.Set("B", Text("2"))
	row = row.Set("A", Text("3"))
	assert.Equal(t, []string{"A", "B"}, row.Columns())
	v, ok := row.Get("A")
	require.True(t, ok)
	assert.Equal(t, "3", v.String())
}
