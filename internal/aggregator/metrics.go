package aggregator

import "github.com/lvonguyen/ppc-analyzer/internal/normalizer"

// Ratios holds the derived performance ratios of an aggregate
type Ratios struct {
	ACoS float64 `json:"acos"` // spend / sales * 100
	ROAS float64 `json:"roas"` // sales / spend
	CTR  float64 `json:"ctr"`  // clicks / impressions * 100
	CPC  float64 `json:"cpc"`  // spend / clicks
	CVR  float64 `json:"cvr"`  // orders / clicks * 100
}

// Derive computes ratios from summed measures. Every ratio is 0 when its
// denominator is 0; ACoS additionally requires spend > 0.
func Derive(m normalizer.Measures) Ratios {
	var r Ratios
	if m.Spend > 0 && m.Sales > 0 {
		r.ACoS = m.Spend / m.Sales * 100
	}
	if m.Spend > 0 {
		r.ROAS = m.Sales / m.Spend
	}
	if m.Impressions > 0 {
		r.CTR = m.Clicks / m.Impressions * 100
	}
	if m.Clicks > 0 {
		r.CPC = m.Spend / m.Clicks
		r.CVR = m.Orders / m.Clicks * 100
	}
	return r
}

// Performance is summed measures plus their derived ratios
type Performance struct {
	normalizer.Measures
	Ratios
}

// NewPerformance derives ratios for a set of summed measures
func NewPerformance(m normalizer.Measures) Performance {
	return Performance{Measures: m, Ratios: Derive(m)}
}
