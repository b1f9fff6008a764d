package analysis

import (
	"fmt"
	"sort"

	"solar-sizing/internal/model"
	"solar-sizing/internal/simulate"
	"solar-sizing/internal/strategy"
)

// CandidateResult summarises one simulated capacity.
type CandidateResult struct {
	CapacityKWh       float64                  `json:"capacity_kwh"`
	UsableKWh         float64                  `json:"usable_kwh"`
	ServedKWh         float64                  `json:"served_kwh"`
	AvgDailyServedKWh float64                  `json:"avg_daily_served_kwh"`
	NightCoveragePct  float64                  `json:"night_coverage_pct"`
	CoverageBySeason  map[model.Season]float64 `json:"coverage_by_season"`
	Stats             simulate.Stats           `json:"-"`
}

// MarginalBenefit is the extra daily served energy per extra kWh of capacity
// between two consecutive candidates.
type MarginalBenefit struct {
	FromKWh float64 `json:"from_kwh"`
	ToKWh   float64 `json:"to_kwh"`
	Benefit float64 `json:"marginal_benefit"`
}

// CompareCandidates simulates every capacity over the same periods and returns
// results sorted ascending by capacity. base supplies usable fraction and efficiency.
func CompareCandidates(periods []model.Period, base model.BatteryParams, capacities []float64) ([]CandidateResult, error) {
	engine := simulate.New()
	out := make([]CandidateResult, 0, len(capacities))
	for _, c := range capacities {
		params := base
		params.CapacityKWh = c
		res, err := engine.Run(periods, params, strategy.SelfConsumption{})
		if err != nil {
			return nil, fmt.Errorf("candidate %v kWh: %w", c, err)
		}
		out = append(out, summariseCandidate(res))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CapacityKWh < out[j].CapacityKWh
	})
	return out, nil
}

func summariseCandidate(res *simulate.Result) CandidateResult {
	cr := CandidateResult{
		CapacityKWh:      res.Params.CapacityKWh,
		UsableKWh:        res.Params.UsableKWh(),
		ServedKWh:        res.Stats.ServedKWh,
		NightCoveragePct: res.Stats.NightCoveragePct,
		CoverageBySeason: map[model.Season]float64{},
		Stats:            res.Stats,
	}
	if res.Stats.Days > 0 {
		cr.AvgDailyServedKWh = res.Stats.ServedKWh / float64(res.Stats.Days)
	}
	served := map[model.Season]float64{}
	night := map[model.Season]float64{}
	for _, d := range res.Daily {
		served[d.Season] += d.ServedKWh
		night[d.Season] += d.NightImportKWh
	}
	for s, n := range night {
		if n > 0 {
			cr.CoverageBySeason[s] = 100 * served[s] / n
		}
	}
	return cr
}

// MarginalBenefits expects candidates sorted ascending by capacity.
func MarginalBenefits(candidates []CandidateResult) []MarginalBenefit {
	if len(candidates) < 2 {
		return nil
	}
	out := make([]MarginalBenefit, 0, len(candidates)-1)
	for i := 1; i < len(candidates); i++ {
		prev, curr := candidates[i-1], candidates[i]
		mb := MarginalBenefit{FromKWh: prev.CapacityKWh, ToKWh: curr.CapacityKWh}
		if dc := curr.CapacityKWh - prev.CapacityKWh; dc > 0 {
			mb.Benefit = (curr.AvgDailyServedKWh - prev.AvgDailyServedKWh) / dc
		}
		out = append(out, mb)
	}
	return out
}
