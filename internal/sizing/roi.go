package sizing

import (
	"time"

	"github.com/shopspring/decimal"

	"solar-sizing/internal/model"
	"solar-sizing/internal/simulate"
	"solar-sizing/internal/strategy"
)

// Tariffs are $/kWh rates plus the installed battery price.
// Import inside OffPeakWindow is priced at OffPeakRate, everything else at PeakRate.
type Tariffs struct {
	PeakRate      float64         `yaml:"peak" json:"peak"`
	OffPeakRate   float64         `yaml:"off_peak" json:"off_peak"`
	OffPeakWindow strategy.Window `yaml:"off_peak_window" json:"off_peak_window"`
	FeedInTariff  float64         `yaml:"feed_in" json:"feed_in"`
	CostPerKWh    float64         `yaml:"cost_per_kwh" json:"cost_per_kwh"`
}

func (t Tariffs) Validate() error {
	checks := []struct {
		param string
		v     float64
	}{
		{"tariffs.peak", t.PeakRate},
		{"tariffs.off_peak", t.OffPeakRate},
		{"tariffs.feed_in", t.FeedInTariff},
		{"tariffs.cost_per_kwh", t.CostPerKWh},
	}
	for _, c := range checks {
		if c.v < 0 {
			return model.NewConfigError(c.param, "must be >= 0, got %v", c.v)
		}
	}
	if err := t.OffPeakWindow.Validate(); err != nil {
		return model.NewConfigError("tariffs.off_peak_window", "%v", err)
	}
	return nil
}

// RateAt is the import rate that applies at ts.
func (t Tariffs) RateAt(ts time.Time) float64 {
	if t.OffPeakWindow.Contains(ts) {
		return t.OffPeakRate
	}
	return t.PeakRate
}

// ROI is the payback picture for one capacity. Currency figures are rounded to cents.
type ROI struct {
	InstalledCost  float64 `json:"installed_cost"`
	ImportSavings  float64 `json:"import_savings"`
	LostFeedIn     float64 `json:"lost_feed_in"`
	AnnualSavings  float64 `json:"annual_savings"`
	PaybackYears   float64 `json:"payback_years"`
	PaybackNever   bool    `json:"payback_never"`
	TenYearSavings float64 `json:"ten_year_savings"`
	DaysSimulated  int     `json:"days_simulated"`
}

func InstalledCost(capacityKWh, costPerKWh float64) decimal.Decimal {
	return decimal.NewFromFloat(capacityKWh).Mul(decimal.NewFromFloat(costPerKWh)).Round(2)
}

// Payback returns cost/annual in years. never is true when the battery does
// not pay for itself (annual savings <= 0).
func Payback(cost, annual decimal.Decimal) (years decimal.Decimal, never bool) {
	if !annual.IsPositive() {
		return decimal.Zero, true
	}
	return cost.Div(annual).Round(2), false
}

// TenYearSavings is annual*10 - cost and may be negative.
func TenYearSavings(cost, annual decimal.Decimal) decimal.Decimal {
	return annual.Mul(decimal.NewFromInt(10)).Sub(cost).Round(2)
}

// ComputeROI values a simulation ledger. Served import avoids buying at the
// rate in force for that period; every kWh charged from export forgoes the
// feed-in tariff. The net is scaled from days to a 365-day year.
//
// The two-term form "import avoided x rate + self-consumed export x
// (rate - FiT)" is folded into this net. The rate is credited once, on the
// served kWh. The forgone feed-in is debited on the charged kWh, so storage
// losses cost the feed-in they gave up and no kWh is valued twice.
func ComputeROI(capacityKWh float64, ledger []simulate.LedgerRow, days int, t Tariffs) ROI {
	if w, err := strategy.ParseWindow(t.OffPeakWindow.Start, t.OffPeakWindow.End); err == nil {
		t.OffPeakWindow = w
	}
	served := decimal.Zero
	charged := 0.0
	for _, r := range ledger {
		if r.ServedKWh > 0 {
			served = served.Add(decimal.NewFromFloat(r.ServedKWh * t.RateAt(r.Start)))
		}
		charged += r.ChargedKWh
	}
	lost := decimal.NewFromFloat(charged * t.FeedInTariff)

	annual := decimal.Zero
	if days > 0 {
		annual = served.Sub(lost).Mul(decimal.NewFromInt(365)).Div(decimal.NewFromInt(int64(days))).Round(2)
	}
	cost := InstalledCost(capacityKWh, t.CostPerKWh)
	years, never := Payback(cost, annual)

	return ROI{
		InstalledCost:  cost.InexactFloat64(),
		ImportSavings:  served.Round(2).InexactFloat64(),
		LostFeedIn:     lost.Round(2).InexactFloat64(),
		AnnualSavings:  annual.InexactFloat64(),
		PaybackYears:   years.InexactFloat64(),
		PaybackNever:   never,
		TenYearSavings: TenYearSavings(cost, annual).InexactFloat64(),
		DaysSimulated:  days,
	}
}
