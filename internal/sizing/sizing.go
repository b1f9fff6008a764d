package sizing

import (
	"fmt"
	"sort"

	"solar-sizing/internal/analysis"
	"solar-sizing/internal/model"
)

// Status values for a Recommendation.
const (
	StatusOK           = "ok"
	StatusInsufficient = "insufficient"
	StatusNoExport     = "no_export"
)

// DefaultMinConfidentDays is roughly one full season of daily samples.
const DefaultMinConfidentDays = 90

type Options struct {
	CandidatesKWh    []float64
	UsableFraction   float64
	CostPerKWh       float64
	MinConfidentDays int
}

type Recommendation struct {
	Label              string       `json:"label"`
	CapacityKWh        float64      `json:"capacity_kwh"`
	UsableKWh          float64      `json:"usable_kwh"`
	EstimatedCost      float64      `json:"estimated_cost"`
	CoveragePercentile float64      `json:"coverage_percentile"`
	SeasonBasis        model.Season `json:"season_basis"`
	TargetKWh          float64      `json:"target_kwh"`
	SampleCount        int          `json:"sample_count"`
	LowConfidence      bool         `json:"low_confidence"`
	Status             string       `json:"status"`
	Note               string       `json:"note,omitempty"`

	ROI *ROI `json:"roi,omitempty"`
}

// Recommend produces one recommendation per tier, in tier order. It has no
// hidden state: identical days, tiers and options give identical output.
func Recommend(days []model.DailyRecord, tiers []Tier, opts Options) []Recommendation {
	candidates := append([]float64(nil), opts.CandidatesKWh...)
	sort.Float64s(candidates)
	anyExport := analysis.HasExport(days)

	out := make([]Recommendation, 0, len(tiers))
	for _, tier := range tiers {
		rec := Recommendation{
			Label:              tier.Name,
			CoveragePercentile: tier.Percentile,
			SeasonBasis:        tier.Season,
		}

		pool := selectDays(days, tier)
		if len(pool) == 0 && tier.Season != model.SeasonAll {
			fallback := tier
			fallback.Season = model.SeasonAll
			pool = selectDays(days, fallback)
			rec.SeasonBasis = model.SeasonAll
			rec.Note = fmt.Sprintf("no %s days in range; sized from all days", tier.Season)
		}
		rec.SampleCount = len(pool)
		rec.LowConfidence = rec.SampleCount < opts.MinConfidentDays

		if !anyExport || !analysis.HasExport(pool) {
			rec.Status = StatusNoExport
			rec.LowConfidence = true
			rec.Note = "no solar export recorded for these days; battery sizing is not meaningful"
			out = append(out, rec)
			continue
		}

		rec.TargetKWh = analysis.Percentile(analysis.NightImports(pool), tier.Percentile)
		capacity, ok := Select(rec.TargetKWh, candidates, opts.UsableFraction)
		rec.CapacityKWh = capacity
		rec.UsableKWh = capacity * opts.UsableFraction
		rec.EstimatedCost = InstalledCost(capacity, opts.CostPerKWh).InexactFloat64()
		rec.Status = StatusOK
		if !ok {
			rec.Status = StatusInsufficient
			rec.Note = fmt.Sprintf("largest available battery (%.0f kWh) does not cover %.2f kWh", capacity, rec.TargetKWh)
		}
		out = append(out, rec)
	}
	return out
}

func selectDays(days []model.DailyRecord, tier Tier) []model.DailyRecord {
	out := make([]model.DailyRecord, 0, len(days))
	for _, d := range days {
		if tier.selects(d) {
			out = append(out, d)
		}
	}
	return out
}

// Select returns the smallest candidate whose usable capacity covers target.
// When none does it returns the largest candidate and false. candidates must
// be sorted ascending.
func Select(targetKWh float64, candidates []float64, usableFraction float64) (float64, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	for _, c := range candidates {
		if c*usableFraction >= targetKWh {
			return c, true
		}
	}
	return candidates[len(candidates)-1], false
}
