package simulate

import (
	"fmt"
	"time"

	"solar-sizing/internal/model"
	"solar-sizing/internal/strategy"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

// Run folds the battery transition over an ordered period sequence.
//
// The battery starts empty and its state carries from each period into the
// next with no daily reset. Invalid battery parameters are rejected before the
// first period; after that every transition is total, so a run always covers
// the whole series.
func (e *Engine) Run(periods []model.Period, params model.BatteryParams, strat strategy.Strategy) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, fmt.Errorf("strategy is nil")
	}

	ledger := make([]LedgerRow, 0, len(periods))
	state := model.BatteryState{}

	for idx, p := range periods {
		req := strat.Decide(strategy.Context{
			Index:  idx,
			Period: p,
			State:  state,
			Params: params,
		})

		next, res := params.Apply(state, req)
		state = next

		ledger = append(ledger, LedgerRow{
			Index: idx,
			Start: p.Start,

			Action: model.ActionFromEnergy(res.ChargedKWh, res.ServedKWh),

			ImportKWh:      p.ImportKWh,
			ExportKWh:      p.ExportKWh,
			NightImportKWh: p.NightImportKWh,

			ChargedKWh: res.ChargedKWh,
			ServedKWh:  res.ServedKWh,

			SimulatedImportKWh: p.ImportKWh - res.ServedKWh,
			SimulatedExportKWh: p.ExportKWh - res.ChargedKWh,

			SOCStart: res.SOCStart,
			SOCEnd:   res.SOCEnd,
		})
	}

	daily := rollupDaily(ledger)
	return &Result{
		Params: params,
		Ledger: ledger,
		Daily:  daily,
		Stats:  computeStats(params, ledger, daily, state),
	}, nil
}

func rollupDaily(ledger []LedgerRow) []DailyRow {
	type key struct {
		y int
		m time.Month
		d int
	}
	idx := map[key]int{}
	var out []DailyRow
	for _, r := range ledger {
		y, m, d := r.Start.Date()
		k := key{y, m, d}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, DailyRow{
				Date:   time.Date(y, m, d, 0, 0, 0, 0, r.Start.Location()),
				Season: model.SeasonOf(m),
			})
		}
		day := &out[i]
		day.NightImportKWh += r.NightImportKWh
		day.SimulatedNightImportKWh += r.NightImportKWh - r.ServedKWh
		day.SimulatedImportKWh += r.SimulatedImportKWh
		day.SimulatedExportKWh += r.SimulatedExportKWh
		day.ChargedKWh += r.ChargedKWh
		day.ServedKWh += r.ServedKWh
		day.SOCEndOfDay = r.SOCEnd
	}
	return out
}

func computeStats(params model.BatteryParams, ledger []LedgerRow, daily []DailyRow, final model.BatteryState) Stats {
	st := Stats{
		Periods:         len(ledger),
		Days:            len(daily),
		FinalSOC:        final.SOCKWh,
		MeanSOCBySeason: map[model.Season]float64{},
	}
	for _, r := range ledger {
		st.TotalImportKWh += r.ImportKWh
		st.TotalExportKWh += r.ExportKWh
		st.NightImportKWh += r.NightImportKWh
		st.SimulatedImportKWh += r.SimulatedImportKWh
		st.SimulatedExportKWh += r.SimulatedExportKWh
		st.ChargedKWh += r.ChargedKWh
		st.ServedKWh += r.ServedKWh
	}
	st.SelfConsumedKWh = st.ServedKWh
	if st.TotalImportKWh > 0 {
		st.GridReductionPct = 100 * st.ServedKWh / st.TotalImportKWh
	}
	if st.TotalExportKWh > 0 {
		st.ExportReductionPct = 100 * st.ChargedKWh / st.TotalExportKWh
	}
	if st.NightImportKWh > 0 {
		st.NightCoveragePct = 100 * st.ServedKWh / st.NightImportKWh
	}
	if usable := params.UsableKWh(); usable > 0 {
		st.EquivalentCycles = st.ChargedKWh / usable
	}

	sums := map[model.Season]float64{}
	counts := map[model.Season]int{}
	for _, d := range daily {
		sums[d.Season] += d.SOCEndOfDay
		counts[d.Season]++
	}
	for s, n := range counts {
		st.MeanSOCBySeason[s] = sums[s] / float64(n)
	}
	return st
}
