package sizing

import "solar-sizing/internal/model"

// Tier is one named recommendation target: the battery's usable capacity must
// cover the Percentile-th percentile of paid night import across the days
// selected by Season and Include.
type Tier struct {
	Name       string       `yaml:"name" json:"name"`
	Percentile float64      `yaml:"percentile" json:"percentile"`
	Season     model.Season `yaml:"season" json:"season"`

	// Include optionally narrows the day set further. nil keeps every day.
	Include func(model.DailyRecord) bool `yaml:"-" json:"-"`
}

func (t Tier) selects(d model.DailyRecord) bool {
	if !t.Season.Contains(d.Season) {
		return false
	}
	return t.Include == nil || t.Include(d)
}

func DefaultTiers() []Tier {
	return []Tier{
		{Name: "Entry Level", Percentile: 90, Season: model.Summer},
		{Name: "Best Value", Percentile: 99, Season: model.Summer},
		{Name: "Winter Ready", Percentile: 90, Season: model.Winter},
	}
}

func (t Tier) Validate() error {
	if t.Name == "" {
		return model.NewConfigError("tiers.name", "is required")
	}
	if t.Percentile < 0 || t.Percentile > 100 {
		return model.NewConfigError("tiers.percentile", "%q: must be in [0, 100], got %v", t.Name, t.Percentile)
	}
	if !t.Season.Valid() {
		return model.NewConfigError("tiers.season", "%q: unknown season %q", t.Name, t.Season)
	}
	return nil
}
