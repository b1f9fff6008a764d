package report

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-sizing/internal/config"
	"solar-sizing/internal/model"
	"solar-sizing/internal/simulate"
	"solar-sizing/internal/sizing"
)

// summerSeries builds n January days of hourly readings: 3.5 kWh imported
// before dawn, 12 kWh exported over the middle of the day and 6 kWh imported
// in the evening.
func summerSeries(n int, withExport bool) model.Series {
	var readings []model.Reading
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < n; d++ {
		for h := 0; h < 24; h++ {
			r := model.Reading{Timestamp: start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)}
			switch {
			case h < 7:
				r.GridImportKWh = 0.5
			case h >= 10 && h < 16 && withExport:
				r.SolarExportKWh = 2
			case h >= 18:
				r.GridImportKWh = 1
			}
			readings = append(readings, r)
		}
	}
	return model.Series{Source: "test", Readings: readings}
}

func testConfig() *config.Config {
	c := config.Default()
	off := false
	c.FreeWindow.Enabled = &off
	return c
}

func codes(anns []model.Annotation) []string {
	out := make([]string, len(anns))
	for i, a := range anns {
		out[i] = a.Code
	}
	return out
}

func TestAnalyze(t *testing.T) {
	rep, err := Analyze(summerSeries(10, true), testConfig())
	require.NoError(t, err)

	assert.Equal(t, 10, rep.Days)
	assert.Equal(t, "2024-01-01", rep.StartDate)
	assert.Equal(t, "2024-01-10", rep.EndDate)
	assert.Empty(t, rep.FreeWindow)
	assert.ElementsMatch(t, []string{model.CodeInsufficientData, model.CodeSeasonFallback}, codes(rep.Annotations))

	assert.Equal(t, 95.0, rep.Summary.NightImport)
	assert.Equal(t, 120.0, rep.Summary.TotalExport)
	assert.Equal(t, 9.5, rep.Night.P90)

	require.Len(t, rep.Trends.Dates, 4)
	assert.Equal(t, "2024-01-07", rep.Trends.Dates[0])
	assert.Equal(t, 9.5, rep.Trends.Night[0])
	assert.Equal(t, 12.0, rep.Trends.Export[3])

	require.Len(t, rep.Recommendations, 3)
	for _, r := range rep.Recommendations {
		assert.Equal(t, sizing.StatusOK, r.Status)
		assert.Equal(t, 16.0, r.CapacityKWh, r.Label)
		assert.Equal(t, 9.5, r.TargetKWh)
		assert.True(t, r.LowConfidence)
		require.NotNil(t, r.ROI)
	}
	assert.Equal(t, model.SeasonAll, rep.Recommendations[2].SeasonBasis)

	// 16 kWh covers every night after the first morning.
	roi := rep.Recommendations[0].ROI
	assert.Equal(t, 8640.0, roi.InstalledCost)
	assert.Greater(t, roi.AnnualSavings, 0.0)
	assert.False(t, roi.PaybackNever)

	require.Len(t, rep.Simulations, 1)
	sim := rep.Simulations[0]
	assert.Equal(t, simulate.Interval, sim.Granularity)
	assert.Equal(t, 240, sim.Stats.Periods)
	assert.Len(t, sim.Daily, 10)
	require.NotNil(t, sim.Result)
	assert.Len(t, sim.Result.Ledger, 240)
	assert.Equal(t, sim.Stats.ServedKWh, sim.Stats.SelfConsumedKWh)
	assert.Greater(t, sim.Stats.SelfConsumedKWh, 0.0)

	// Day one starts empty, so its pre-dawn import is still bought. The
	// first two days' export fits in the 15.52 kWh usable store.
	assert.Equal(t, 3.5, sim.Daily[0].SimulatedImportKWh)
	assert.Zero(t, sim.Daily[0].SimulatedExportKWh)
	assert.Zero(t, sim.Daily[1].SimulatedImportKWh)
	assert.Zero(t, sim.Daily[1].SimulatedExportKWh)

	require.Len(t, rep.Candidates, 6)
	assert.Len(t, rep.Marginal, 5)
	assert.Less(t, rep.Candidates[0].NightCoveragePct, rep.Candidates[1].NightCoveragePct)
}

func TestAnalyze_NoExport(t *testing.T) {
	rep, err := Analyze(summerSeries(5, false), testConfig())
	require.NoError(t, err)

	assert.Contains(t, codes(rep.Annotations), model.CodeNoExportData)
	for _, r := range rep.Recommendations {
		assert.Equal(t, sizing.StatusNoExport, r.Status)
		assert.Zero(t, r.CapacityKWh)
		assert.Nil(t, r.ROI)
	}
	for _, c := range rep.Candidates {
		assert.Zero(t, c.ServedKWh)
	}
}

func TestAnalyze_EmptySeries(t *testing.T) {
	rep, err := Analyze(model.Series{}, testConfig())
	require.NoError(t, err)
	assert.Zero(t, rep.Days)
	assert.Contains(t, codes(rep.Annotations), model.CodeInsufficientData)
	assert.Contains(t, codes(rep.Annotations), model.CodeNoExportData)
}

func TestAnalyze_DailyGranularity(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.Granularity = simulate.Daily
	rep, err := Analyze(summerSeries(3, true), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Simulations[0].Stats.Periods)
}

func TestAnalyze_ConfigErrorBeforeWork(t *testing.T) {
	cfg := testConfig()
	cfg.Battery.RoundTripEfficiency = 0
	_, err := Analyze(summerSeries(3, true), cfg)

	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "battery.round_trip_efficiency", cfgErr.Param)
}

func TestAnalyze_Idempotent(t *testing.T) {
	s := summerSeries(4, true)
	a, err := Analyze(s, testConfig())
	require.NoError(t, err)
	b, err := Analyze(s, testConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Recommendations, b.Recommendations)
	assert.Equal(t, a.Candidates, b.Candidates)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 1.235, KWh(1.23456))
	assert.Equal(t, 12.35, Money(12.345))
	assert.Equal(t, 33.3, Pct(100.0/3.0))
}

func TestCache_ComputesOnce(t *testing.T) {
	c := NewCache()
	var calls int32
	compute := func() (*Report, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return &Report{Source: "x"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*Report, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rep, _, err := c.GetOrCompute("k", compute)
			assert.NoError(t, err)
			results[i] = rep
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	_, hit, _ := c.GetOrCompute("k", compute)
	assert.True(t, hit)
	assert.Equal(t, 1, c.Len())

	_, hit, _ = c.GetOrCompute(CacheKey("fp", "cfg"), compute)
	assert.False(t, hit)
	assert.Equal(t, 2, c.Len())
}

func TestCache_NilComputesEveryTime(t *testing.T) {
	var c *Cache
	calls := 0
	for i := 0; i < 2; i++ {
		_, hit, err := c.GetOrCompute("k", func() (*Report, error) {
			calls++
			return &Report{}, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 2, calls)
	assert.Zero(t, c.Len())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("a", "b"), CacheKey("a", "b"))
	assert.NotEqual(t, CacheKey("a", "b"), CacheKey("a", "c"))
}

func TestCache_SameInstantsDifferentZone(t *testing.T) {
	cfg := testConfig()
	utc := summerSeries(3, true)
	shifted := model.Series{Source: "test", Readings: make([]model.Reading, len(utc.Readings))}
	aedt := time.FixedZone("AEDT", 11*3600)
	for i, r := range utc.Readings {
		r.Timestamp = r.Timestamp.In(aedt)
		shifted.Readings[i] = r
	}

	utcKey := CacheKey(utc.Fingerprint(), cfg.Hash())
	shiftedKey := CacheKey(shifted.Fingerprint(), cfg.Hash())
	require.NotEqual(t, utcKey, shiftedKey)

	c := NewCache()
	first, _, err := c.GetOrCompute(utcKey, func() (*Report, error) { return Analyze(utc, cfg) })
	require.NoError(t, err)
	second, hit, err := c.GetOrCompute(shiftedKey, func() (*Report, error) { return Analyze(shifted, cfg) })
	require.NoError(t, err)

	assert.False(t, hit)
	assert.Equal(t, 3, first.Days)
	assert.Equal(t, 4, second.Days)
}
