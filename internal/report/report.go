package report

import (
	"fmt"
	"time"

	"solar-sizing/internal/analysis"
	"solar-sizing/internal/config"
	"solar-sizing/internal/model"
	"solar-sizing/internal/simulate"
	"solar-sizing/internal/sizing"
	"solar-sizing/internal/strategy"
)

// Report is the full, rounded analysis of one series under one configuration.
type Report struct {
	Source      string             `json:"source"`
	StartDate   string             `json:"start_date,omitempty"`
	EndDate     string             `json:"end_date,omitempty"`
	Days        int                `json:"days"`
	Readings    int                `json:"readings"`
	FreeWindow  string             `json:"free_window,omitempty"`
	Annotations []model.Annotation `json:"annotations"`

	Summary analysis.UsageSummary  `json:"summary"`
	Night   analysis.NightStats    `json:"night"`
	Hourly  analysis.HourlyProfile `json:"hourly"`
	Monthly []analysis.MonthTotals `json:"monthly"`
	Trends  analysis.Trends        `json:"trends"`
	Daily   []DayView              `json:"daily"`

	Simulations     []Simulation               `json:"simulations"`
	Candidates      []analysis.CandidateResult `json:"candidates"`
	Marginal        []analysis.MarginalBenefit `json:"marginal_benefits"`
	Recommendations []sizing.Recommendation    `json:"recommendations"`
}

// DayView is one DailyRecord as reported.
type DayView struct {
	Date                string       `json:"date"`
	Season              model.Season `json:"season"`
	TotalImport         float64      `json:"total_import"`
	DayImport           float64      `json:"day_import"`
	NightImport         float64      `json:"night_import"`
	PaidNightImport     float64      `json:"paid_night_import"`
	FreeImport          float64      `json:"free_import"`
	TotalExport         float64      `json:"total_export"`
	GeneratingIntervals int          `json:"generating_intervals"`
}

// Simulation is one capacity's run. Result keeps the raw ledger for CSV output.
type Simulation struct {
	CapacityKWh float64              `json:"capacity_kwh"`
	UsableKWh   float64              `json:"usable_kwh"`
	Granularity simulate.Granularity `json:"granularity"`
	Stats       StatsView            `json:"stats"`
	Daily       []SimDayView         `json:"daily"`

	Result *simulate.Result `json:"-"`
}

type StatsView struct {
	Periods            int                      `json:"periods"`
	Days               int                      `json:"days"`
	ChargedKWh         float64                  `json:"charged_kwh"`
	ServedKWh          float64                  `json:"served_kwh"`
	SelfConsumedKWh    float64                  `json:"self_consumed_kwh"`
	SimulatedImportKWh float64                  `json:"simulated_import_kwh"`
	SimulatedExportKWh float64                  `json:"simulated_export_kwh"`
	GridReductionPct   float64                  `json:"grid_reduction_pct"`
	ExportReductionPct float64                  `json:"export_reduction_pct"`
	NightCoveragePct   float64                  `json:"night_coverage_pct"`
	EquivalentCycles   float64                  `json:"equivalent_cycles"`
	FinalSOC           float64                  `json:"final_soc_kwh"`
	MeanSOCBySeason    map[model.Season]float64 `json:"mean_soc_by_season"`
}

type SimDayView struct {
	Date                    string  `json:"date"`
	NightImportKWh          float64 `json:"night_import_kwh"`
	SimulatedNightImportKWh float64 `json:"simulated_night_import_kwh"`
	ChargedKWh              float64 `json:"charged_kwh"`
	ServedKWh               float64 `json:"served_kwh"`
	SimulatedImportKWh      float64 `json:"simulated_import_kwh"`
	SimulatedExportKWh      float64 `json:"simulated_export_kwh"`
	SOCEndOfDay             float64 `json:"soc_end_of_day"`
}

// Analyze runs the whole pipeline over series. Configuration problems are
// returned as *model.ConfigError before any work is done; data-quality
// problems travel as annotations on a best-effort report.
func Analyze(series model.Series, cfg *config.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	free := cfg.FreeWindowRange()
	classified := analysis.NewClassifier(cfg.Classifier.DaytimeThresholdKWh, free).ClassifyAll(series.Readings)
	days := analysis.Aggregate(classified)

	rep := &Report{
		Source:      series.Source,
		Days:        len(days),
		Readings:    len(series.Readings),
		FreeWindow:  free.String(),
		Annotations: []model.Annotation{},
	}
	if len(days) > 0 {
		rep.StartDate = days[0].DateKey()
		rep.EndDate = days[len(days)-1].DateKey()
	}
	rep.Annotations = append(rep.Annotations, dataAnnotations(days, cfg)...)

	rep.Summary = roundSummary(analysis.Summarise(days))
	rep.Night = roundNight(analysis.ComputeNightStats(days))
	rep.Hourly = roundHourly(analysis.ComputeHourlyProfile(classified))
	rep.Monthly = roundMonthly(analysis.ComputeMonthlyTotals(days))
	rep.Trends = roundTrends(analysis.ComputeTrends(days, analysis.DefaultTrendWindowDays))
	rep.Daily = dayViews(days)

	periods := periodsFor(cfg.Simulation.Granularity, classified, days)
	engine := simulate.New()
	for _, kwh := range cfg.Simulation.CapacitiesKWh {
		res, err := engine.Run(periods, cfg.BatteryParams(kwh), strategy.SelfConsumption{})
		if err != nil {
			return nil, fmt.Errorf("simulating %v kWh: %w", kwh, err)
		}
		rep.Simulations = append(rep.Simulations, simulationView(res, cfg.Simulation.Granularity))
	}

	candidates, err := analysis.CompareCandidates(periods, cfg.BatteryParams(0), cfg.Battery.CandidatesKWh)
	if err != nil {
		return nil, err
	}
	rep.Candidates = roundCandidates(candidates)
	rep.Marginal = roundMarginal(analysis.MarginalBenefits(candidates))

	recs := sizing.Recommend(days, cfg.Tiers, cfg.SizingOptions())
	roi := newROICalculator(classified, days, cfg)
	for i := range recs {
		if recs[i].Status == sizing.StatusNoExport || recs[i].CapacityKWh <= 0 {
			continue
		}
		r, err := roi.For(recs[i].CapacityKWh)
		if err != nil {
			return nil, err
		}
		recs[i].ROI = &r
	}
	rep.Recommendations = roundRecommendations(recs)
	rep.Annotations = append(rep.Annotations, seasonAnnotations(cfg.Tiers, recs)...)
	return rep, nil
}

func periodsFor(g simulate.Granularity, classified []model.ClassifiedReading, days []model.DailyRecord) []model.Period {
	if g == simulate.Daily {
		return simulate.PeriodsFromDaily(days)
	}
	return simulate.PeriodsFromReadings(classified)
}

func dataAnnotations(days []model.DailyRecord, cfg *config.Config) []model.Annotation {
	var out []model.Annotation
	if len(days) < cfg.MinConfidentDays {
		out = append(out, model.Annotation{
			Code:    model.CodeInsufficientData,
			Message: fmt.Sprintf("only %d days of data; at least %d are needed for a confident recommendation", len(days), cfg.MinConfidentDays),
		})
	}
	if !analysis.HasExport(days) {
		out = append(out, model.Annotation{
			Code:    model.CodeNoExportData,
			Message: "no solar export in the selected range; battery sizing is not meaningful",
		})
	}
	return out
}

func seasonAnnotations(tiers []sizing.Tier, recs []sizing.Recommendation) []model.Annotation {
	var out []model.Annotation
	for i, rec := range recs {
		if i >= len(tiers) || tiers[i].Season == rec.SeasonBasis {
			continue
		}
		out = append(out, model.Annotation{
			Code:    model.CodeSeasonFallback,
			Message: fmt.Sprintf("%s: no %s days in range; sized from all days", rec.Label, tiers[i].Season),
		})
	}
	return out
}

// roiCalculator values capacities against interval-resolution ledgers, since
// tariffs depend on the time of day. Runs are shared between tiers that land
// on the same capacity.
type roiCalculator struct {
	periods []model.Period
	days    int
	cfg     *config.Config
	byKWh   map[float64]sizing.ROI
}

func newROICalculator(classified []model.ClassifiedReading, days []model.DailyRecord, cfg *config.Config) *roiCalculator {
	return &roiCalculator{
		periods: simulate.PeriodsFromReadings(classified),
		days:    len(days),
		cfg:     cfg,
		byKWh:   map[float64]sizing.ROI{},
	}
}

func (c *roiCalculator) For(capacityKWh float64) (sizing.ROI, error) {
	if r, ok := c.byKWh[capacityKWh]; ok {
		return r, nil
	}
	res, err := simulate.New().Run(c.periods, c.cfg.BatteryParams(capacityKWh), strategy.SelfConsumption{})
	if err != nil {
		return sizing.ROI{}, fmt.Errorf("valuing %v kWh: %w", capacityKWh, err)
	}
	r := sizing.ComputeROI(capacityKWh, res.Ledger, c.days, c.cfg.Tariffs)
	c.byKWh[capacityKWh] = r
	return r, nil
}

func dayViews(days []model.DailyRecord) []DayView {
	out := make([]DayView, len(days))
	for i, d := range days {
		out[i] = DayView{
			Date:                d.DateKey(),
			Season:              d.Season,
			TotalImport:         KWh(d.TotalImport),
			DayImport:           KWh(d.DayImport),
			NightImport:         KWh(d.NightImport),
			PaidNightImport:     KWh(d.PaidNightImport),
			FreeImport:          KWh(d.FreeImport),
			TotalExport:         KWh(d.TotalExport),
			GeneratingIntervals: d.GeneratingIntervals,
		}
	}
	return out
}

func simulationView(res *simulate.Result, g simulate.Granularity) Simulation {
	st := res.Stats
	sim := Simulation{
		CapacityKWh: res.Params.CapacityKWh,
		UsableKWh:   KWh(res.Params.UsableKWh()),
		Granularity: g,
		Result:      res,
		Stats: StatsView{
			Periods:            st.Periods,
			Days:               st.Days,
			ChargedKWh:         KWh(st.ChargedKWh),
			ServedKWh:          KWh(st.ServedKWh),
			SelfConsumedKWh:    KWh(st.SelfConsumedKWh),
			SimulatedImportKWh: KWh(st.SimulatedImportKWh),
			SimulatedExportKWh: KWh(st.SimulatedExportKWh),
			GridReductionPct:   Pct(st.GridReductionPct),
			ExportReductionPct: Pct(st.ExportReductionPct),
			NightCoveragePct:   Pct(st.NightCoveragePct),
			EquivalentCycles:   KWh(st.EquivalentCycles),
			FinalSOC:           KWh(st.FinalSOC),
			MeanSOCBySeason:    map[model.Season]float64{},
		},
	}
	for s, v := range st.MeanSOCBySeason {
		sim.Stats.MeanSOCBySeason[s] = KWh(v)
	}
	sim.Daily = make([]SimDayView, len(res.Daily))
	for i, d := range res.Daily {
		sim.Daily[i] = SimDayView{
			Date:                    d.Date.Format(time.DateOnly),
			NightImportKWh:          KWh(d.NightImportKWh),
			SimulatedNightImportKWh: KWh(d.SimulatedNightImportKWh),
			ChargedKWh:              KWh(d.ChargedKWh),
			ServedKWh:               KWh(d.ServedKWh),
			SimulatedImportKWh:      KWh(d.SimulatedImportKWh),
			SimulatedExportKWh:      KWh(d.SimulatedExportKWh),
			SOCEndOfDay:             KWh(d.SOCEndOfDay),
		}
	}
	return sim
}

func roundSummary(s analysis.UsageSummary) analysis.UsageSummary {
	s.SunlightImport = KWh(s.SunlightImport)
	s.NightImport = KWh(s.NightImport)
	s.TotalImport = KWh(s.TotalImport)
	s.FreeWindowImport = KWh(s.FreeWindowImport)
	s.PaidSunlightImport = KWh(s.PaidSunlightImport)
	s.TotalExport = KWh(s.TotalExport)
	s.AvgDailyImport = KWh(s.AvgDailyImport)
	s.AvgDailyExport = KWh(s.AvgDailyExport)
	s.SunlightPct = Pct(s.SunlightPct)
	s.NightPct = Pct(s.NightPct)
	s.FreeWindowPct = Pct(s.FreeWindowPct)
	return s
}

func roundNight(n analysis.NightStats) analysis.NightStats {
	n.Mean = KWh(n.Mean)
	n.Median = KWh(n.Median)
	n.P75 = KWh(n.P75)
	n.P90 = KWh(n.P90)
	n.Max = KWh(n.Max)
	n.AvgDailyExport = KWh(n.AvgDailyExport)
	n.MedianDailyExport = KWh(n.MedianDailyExport)
	n.AvgPotentialStorage = KWh(n.AvgPotentialStorage)
	by := make(map[model.Season]analysis.SeasonStats, len(n.BySeason))
	for s, st := range n.BySeason {
		st.MeanNightImport = KWh(st.MeanNightImport)
		st.P90NightImport = KWh(st.P90NightImport)
		st.P99NightImport = KWh(st.P99NightImport)
		st.MeanExport = KWh(st.MeanExport)
		by[s] = st
	}
	n.BySeason = by
	return n
}

func roundHourly(h analysis.HourlyProfile) analysis.HourlyProfile {
	h.Import = kwhSlice(h.Import)
	h.Export = kwhSlice(h.Export)
	return h
}

func roundMonthly(in []analysis.MonthTotals) []analysis.MonthTotals {
	out := make([]analysis.MonthTotals, len(in))
	for i, m := range in {
		m.SunlightImport = KWh(m.SunlightImport)
		m.NightImport = KWh(m.NightImport)
		m.Export = KWh(m.Export)
		out[i] = m
	}
	return out
}

func roundTrends(t analysis.Trends) analysis.Trends {
	t.Sunlight = kwhSlice(t.Sunlight)
	t.Night = kwhSlice(t.Night)
	t.Export = kwhSlice(t.Export)
	return t
}

func roundCandidates(in []analysis.CandidateResult) []analysis.CandidateResult {
	out := make([]analysis.CandidateResult, len(in))
	for i, c := range in {
		c.UsableKWh = KWh(c.UsableKWh)
		c.ServedKWh = KWh(c.ServedKWh)
		c.AvgDailyServedKWh = KWh(c.AvgDailyServedKWh)
		c.NightCoveragePct = Pct(c.NightCoveragePct)
		by := make(map[model.Season]float64, len(c.CoverageBySeason))
		for s, v := range c.CoverageBySeason {
			by[s] = Pct(v)
		}
		c.CoverageBySeason = by
		out[i] = c
	}
	return out
}

func roundMarginal(in []analysis.MarginalBenefit) []analysis.MarginalBenefit {
	out := make([]analysis.MarginalBenefit, len(in))
	for i, m := range in {
		m.Benefit = KWh(m.Benefit)
		out[i] = m
	}
	return out
}

func roundRecommendations(in []sizing.Recommendation) []sizing.Recommendation {
	out := make([]sizing.Recommendation, len(in))
	for i, r := range in {
		r.UsableKWh = KWh(r.UsableKWh)
		r.TargetKWh = KWh(r.TargetKWh)
		r.EstimatedCost = Money(r.EstimatedCost)
		out[i] = r
	}
	return out
}
