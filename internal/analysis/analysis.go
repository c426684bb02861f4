// Package analysis runs the full pipeline from raw report rows to an
// analysis result: validity filter, deduplication, aggregation, anomaly
// detection and recommendations.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/lvonguyen/ppc-analyzer/internal/aggregator"
	"github.com/lvonguyen/ppc-analyzer/internal/anomaly"
	"github.com/lvonguyen/ppc-analyzer/internal/dedup"
	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
	"github.com/lvonguyen/ppc-analyzer/internal/recommend"
)

// ErrNoData is returned when no rows survive filtering and deduplication
var ErrNoData = errors.New("no valid advertising data found: check that the report contains columns for Spend, Clicks, Impressions, and Sales")

// Metrics holds account-level totals
type Metrics struct {
	TotalSpend       float64 `json:"totalSpend"`
	TotalSales       float64 `json:"totalSales"`
	ACoS             float64 `json:"acos"`
	ROAS             float64 `json:"roas"`
	CTR              float64 `json:"ctr"`
	CPC              float64 `json:"cpc"`
	CVR              float64 `json:"cvr"`
	TotalClicks      float64 `json:"totalClicks"`
	TotalImpressions float64 `json:"totalImpressions"`
	TotalOrders      float64 `json:"totalOrders"`
}

// Result is the complete analysis of one report
type Result struct {
	TargetACoS        float64                          `json:"targetAcos"`
	Metrics           Metrics                          `json:"metrics"`
	Campaigns         []aggregator.CampaignAggregate   `json:"campaigns"`
	AutoVsManual      []aggregator.AutoManualAggregate `json:"autoVsManual"`
	MatchTypeAnalysis []aggregator.MatchTypeAggregate  `json:"matchTypeAnalysis"`
	KeywordAnalysis   []aggregator.KeywordAggregate    `json:"keywordAnalysis"`
	WastedSpend       anomaly.WastedSpendResult        `json:"wastedSpend"`
	InefficientSpend  anomaly.InefficientSpendResult   `json:"inefficientSpend"`
	Recommendations   []recommend.Recommendation       `json:"recommendations"`
	RawData           []normalizer.Row                 `json:"rawData"`
}

// Dataset is everything about a report that does not depend on target ACoS
type Dataset struct {
	Rows       []normalizer.Row
	Dedup      dedup.Result
	Aggregates aggregator.Set
	Wasted     anomaly.WastedSpendResult
}

// Analyzer runs the pipeline and logs its progress
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a new analyzer. A nil logger discards output.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Analyze runs Prepare followed by Evaluate
func Analyze(rows []normalizer.Row, targetACoS float64) (*Result, error) {
	return NewAnalyzer(nil).Analyze(rows, targetACoS)
}

// Analyze runs Prepare followed by Evaluate
func (a *Analyzer) Analyze(rows []normalizer.Row, targetACoS float64) (*Result, error) {
	ds, err := a.Prepare(rows)
	if err != nil {
		return nil, err
	}
	res := ds.Evaluate(targetACoS)

	a.logger.Info("Analysis complete",
		zap.Float64("total_spend", res.Metrics.TotalSpend),
		zap.Float64("acos", res.Metrics.ACoS),
		zap.Int("campaigns", len(res.Campaigns)),
		zap.Int("keywords", len(res.KeywordAnalysis)),
		zap.Int("recommendations", len(res.Recommendations)),
	)
	return res, nil
}

// Prepare filters, deduplicates and aggregates rows. It returns ErrNoData
// when nothing is left to analyze.
func (a *Analyzer) Prepare(rows []normalizer.Row) (*Dataset, error) {
	valid := Valid(rows)
	a.logger.Debug("Filtered rows",
		zap.Int("input", len(rows)),
		zap.Int("valid", len(valid)),
	)

	d := dedup.Deduplicate(valid)
	a.logger.Debug("Deduplicated rows",
		zap.Int("input", d.InputRows),
		zap.Int("kept", len(d.Rows)),
		zap.Int("removed", d.Removed),
		zap.Int("unattributed", d.Unattributed),
		zap.Int("campaigns", len(d.Campaigns)),
		zap.Float64("reduction_pct", d.Reduction()),
	)
	for _, c := range d.Campaigns {
		a.logger.Debug("Campaign view selected",
			zap.String("campaign_id", c.CampaignID),
			zap.Strings("granular_seen", c.GranularSeen),
			zap.String("selected", c.SelectedType),
			zap.Int("rows_in", c.RowsIn),
			zap.Int("rows_kept", c.RowsKept),
		)
	}

	if len(d.Rows) == 0 {
		return nil, ErrNoData
	}

	set, err := aggregator.Build(d.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rows: %w", err)
	}

	return &Dataset{
		Rows:       d.Rows,
		Dedup:      d,
		Aggregates: set,
		Wasted:     anomaly.WastedSpend(d.Rows),
	}, nil
}

// Prepare filters, deduplicates and aggregates rows
func Prepare(rows []normalizer.Row) (*Dataset, error) {
	return NewAnalyzer(nil).Prepare(rows)
}

// Evaluate applies a target ACoS to a prepared dataset
func (ds *Dataset) Evaluate(targetACoS float64) *Result {
	agg := ds.Aggregates
	inefficient := anomaly.NewDetector(anomaly.DetectorConfig{TargetACoS: targetACoS}).
		Inefficient(agg.Campaigns, agg.Keywords)

	recs := recommend.Generate(recommend.Input{
		Keywords:    agg.Keywords,
		Wasted:      ds.Wasted,
		Inefficient: inefficient,
		TargetACoS:  targetACoS,
	})

	return &Result{
		TargetACoS:        targetACoS,
		Metrics:           metricsOf(agg.Totals),
		Campaigns:         agg.Campaigns,
		AutoVsManual:      agg.AutoVsManual,
		MatchTypeAnalysis: agg.MatchTypes,
		KeywordAnalysis:   agg.Keywords,
		WastedSpend:       ds.Wasted,
		InefficientSpend:  inefficient,
		Recommendations:   recs,
		RawData:           ds.Rows,
	}
}

// Valid keeps rows with positive spend, impressions or clicks
func Valid(rows []normalizer.Row) []normalizer.Row {
	out := make([]normalizer.Row, 0, len(rows))
	for _, r := range rows {
		m := normalizer.MeasuresOf(r)
		if m.Spend > 0 || m.Impressions > 0 || m.Clicks > 0 {
			out = append(out, r)
		}
	}
	return out
}

func metricsOf(p aggregator.Performance) Metrics {
	return Metrics{
		TotalSpend:       round2(p.Spend),
		TotalSales:       round2(p.Sales),
		ACoS:             round2(p.ACoS),
		ROAS:             round2(p.ROAS),
		CTR:              round2(p.CTR),
		CPC:              round2(p.CPC),
		CVR:              round2(p.CVR),
		TotalClicks:      math.Round(p.Clicks),
		TotalImpressions: math.Round(p.Impressions),
		TotalOrders:      math.Round(p.Orders),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
