package sizing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-sizing/internal/model"
	"solar-sizing/internal/simulate"
	"solar-sizing/internal/strategy"
)

var moduleCandidates = []float64{8, 16, 24, 32, 40, 48}

var defaultOpts = Options{
	CandidatesKWh:    moduleCandidates,
	UsableFraction:   0.97,
	CostPerKWh:       540,
	MinConfidentDays: DefaultMinConfidentDays,
}

func summerDays(nights ...float64) []model.DailyRecord {
	out := make([]model.DailyRecord, len(nights))
	for i, n := range nights {
		out[i] = model.DailyRecord{
			Date:            time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			Season:          model.Summer,
			TotalImport:     n + 2,
			NightImport:     n,
			PaidNightImport: n,
			DayImport:       2,
			TotalExport:     15,
		}
	}
	return out
}

func TestRecommend_SummerPercentileScenario(t *testing.T) {
	days := summerDays(2, 3, 4, 5, 6, 7, 8, 9, 10, 12)
	recs := Recommend(days, []Tier{{Name: "Entry Level", Percentile: 90, Season: model.Summer}}, defaultOpts)

	require.Len(t, recs, 1)
	r := recs[0]
	assert.InDelta(t, 10.2, r.TargetKWh, 1e-9)
	// 8 kWh gives 7.76 usable, 16 kWh gives 15.52.
	assert.Equal(t, 16.0, r.CapacityKWh)
	assert.InDelta(t, 15.52, r.UsableKWh, 1e-9)
	assert.Equal(t, 8640.0, r.EstimatedCost)
	assert.Equal(t, StatusOK, r.Status)
	assert.Equal(t, 10, r.SampleCount)
	assert.True(t, r.LowConfidence)
	assert.Equal(t, model.Summer, r.SeasonBasis)
}

func TestRecommend_Idempotent(t *testing.T) {
	days := summerDays(5, 1, 9, 3, 7, 11, 2)
	a := Recommend(days, DefaultTiers(), defaultOpts)
	b := Recommend(days, DefaultTiers(), defaultOpts)
	assert.Equal(t, a, b)
}

func TestRecommend_InsufficientFlagged(t *testing.T) {
	days := summerDays(60, 70, 80)
	recs := Recommend(days, []Tier{{Name: "Entry Level", Percentile: 90, Season: model.Summer}}, defaultOpts)

	require.Len(t, recs, 1)
	assert.Equal(t, StatusInsufficient, recs[0].Status)
	assert.Equal(t, 48.0, recs[0].CapacityKWh)
	assert.NotEmpty(t, recs[0].Note)
}

func TestRecommend_NoExportIsNotMeaningful(t *testing.T) {
	days := summerDays(4, 5, 6)
	for i := range days {
		days[i].TotalExport = 0
	}
	recs := Recommend(days, DefaultTiers(), defaultOpts)

	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, StatusNoExport, r.Status)
		assert.Zero(t, r.CapacityKWh)
		assert.True(t, r.LowConfidence)
	}
}

func TestRecommend_MissingSeasonFallsBackToAllDays(t *testing.T) {
	days := summerDays(2, 4, 6)
	recs := Recommend(days, []Tier{{Name: "Winter Ready", Percentile: 90, Season: model.Winter}}, defaultOpts)

	require.Len(t, recs, 1)
	assert.Equal(t, model.SeasonAll, recs[0].SeasonBasis)
	assert.Equal(t, 3, recs[0].SampleCount)
	assert.InDelta(t, 5.6, recs[0].TargetKWh, 1e-9)
	assert.Equal(t, 8.0, recs[0].CapacityKWh)
	assert.Contains(t, recs[0].Note, "Winter")
}

func TestRecommend_IncludePredicate(t *testing.T) {
	days := summerDays(2, 4, 30)
	tier := Tier{
		Name:       "Typical Night",
		Percentile: 100,
		Season:     model.SeasonAll,
		Include:    func(d model.DailyRecord) bool { return d.PaidNightImport < 20 },
	}
	recs := Recommend(days, []Tier{tier}, defaultOpts)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].SampleCount)
	assert.InDelta(t, 4, recs[0].TargetKWh, 1e-9)
}

func TestRecommend_ConfidentWithFullSeason(t *testing.T) {
	nights := make([]float64, 90)
	for i := range nights {
		nights[i] = 5
	}
	days := summerDays(nights...)
	for i := range days {
		days[i].Date = time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	recs := Recommend(days, DefaultTiers()[:1], defaultOpts)
	assert.False(t, recs[0].LowConfidence)
}

func TestSelect(t *testing.T) {
	c, ok := Select(7.76, moduleCandidates, 0.97)
	assert.True(t, ok)
	assert.Equal(t, 8.0, c)

	c, ok = Select(7.77, moduleCandidates, 0.97)
	assert.True(t, ok)
	assert.Equal(t, 16.0, c)

	c, ok = Select(0, moduleCandidates, 0.97)
	assert.True(t, ok)
	assert.Equal(t, 8.0, c)

	_, ok = Select(1, nil, 0.97)
	assert.False(t, ok)
}

func TestTier_Validate(t *testing.T) {
	assert.NoError(t, DefaultTiers()[0].Validate())
	assert.Error(t, Tier{Percentile: 90, Season: model.Summer}.Validate())
	assert.Error(t, Tier{Name: "x", Percentile: 101, Season: model.Summer}.Validate())
	assert.Error(t, Tier{Name: "x", Percentile: 90, Season: "Wet"}.Validate())
}

func TestPayback(t *testing.T) {
	cost := InstalledCost(8, 540)
	assert.True(t, cost.Equal(decimal.NewFromInt(4320)))

	years, never := Payback(cost, decimal.NewFromInt(600))
	assert.False(t, never)
	assert.True(t, years.Equal(decimal.RequireFromString("7.2")), years.String())
	assert.True(t, TenYearSavings(cost, decimal.NewFromInt(600)).Equal(decimal.NewFromInt(1680)))

	_, never = Payback(cost, decimal.Zero)
	assert.True(t, never)
	_, never = Payback(cost, decimal.NewFromInt(-10))
	assert.True(t, never)
	assert.True(t, TenYearSavings(cost, decimal.Zero).Equal(decimal.NewFromInt(-4320)))
}

func TestComputeROI(t *testing.T) {
	offPeak, err := strategy.ParseWindow("22:00", "07:00")
	require.NoError(t, err)
	tariffs := Tariffs{PeakRate: 0.30, OffPeakRate: 0.20, OffPeakWindow: offPeak, FeedInTariff: 0.05, CostPerKWh: 540}
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	ledger := []simulate.LedgerRow{
		{Start: day.Add(9 * time.Hour), ChargedKWh: 4},
		{Start: day.Add(10 * time.Hour), ServedKWh: 2},
		{Start: day.Add(23 * time.Hour), ServedKWh: 1},
	}

	roi := ComputeROI(8, ledger, 1, tariffs)
	assert.InDelta(t, 0.8, roi.ImportSavings, 1e-9)
	assert.InDelta(t, 0.2, roi.LostFeedIn, 1e-9)
	assert.InDelta(t, 219, roi.AnnualSavings, 1e-9)
	assert.InDelta(t, 4320, roi.InstalledCost, 1e-9)
	assert.InDelta(t, 19.73, roi.PaybackYears, 1e-9)
	assert.False(t, roi.PaybackNever)
	assert.InDelta(t, -2130, roi.TenYearSavings, 1e-9)
}

func TestComputeROI_NoSavingsNeverPaysBack(t *testing.T) {
	roi := ComputeROI(8, nil, 30, Tariffs{PeakRate: 0.3, CostPerKWh: 540})
	assert.True(t, roi.PaybackNever)
	assert.Zero(t, roi.AnnualSavings)
	assert.InDelta(t, -4320, roi.TenYearSavings, 1e-9)

	roi = ComputeROI(8, nil, 0, Tariffs{PeakRate: 0.3, CostPerKWh: 540})
	assert.True(t, roi.PaybackNever)
}

func TestTariffs_Validate(t *testing.T) {
	assert.NoError(t, Tariffs{PeakRate: 0.3}.Validate())

	var cfgErr *model.ConfigError
	require.ErrorAs(t, Tariffs{FeedInTariff: -0.01}.Validate(), &cfgErr)
	assert.Equal(t, "tariffs.feed_in", cfgErr.Param)

	require.ErrorAs(t, Tariffs{OffPeakWindow: strategy.Window{Start: "22:00", End: "7"}}.Validate(), &cfgErr)
	assert.Equal(t, "tariffs.off_peak_window", cfgErr.Param)
}

func TestComputeROI_DecodedWindowMatchesParsed(t *testing.T) {
	parsed, err := strategy.ParseWindow("22:00", "07:00")
	require.NoError(t, err)
	ledger := []simulate.LedgerRow{
		{Start: time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), ServedKWh: 1},
		{Start: time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC), ServedKWh: 1},
	}
	decoded := Tariffs{PeakRate: 0.30, OffPeakRate: 0.20, OffPeakWindow: strategy.Window{Start: "22:00", End: "07:00"}, CostPerKWh: 540}
	withParsed := decoded
	withParsed.OffPeakWindow = parsed

	a := ComputeROI(8, ledger, 1, decoded)
	b := ComputeROI(8, ledger, 1, withParsed)
	assert.Equal(t, b, a)
	assert.Equal(t, 0.5, a.ImportSavings)
}
