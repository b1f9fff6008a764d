package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"solar-sizing/internal/analysis"
	"solar-sizing/internal/model"
	"solar-sizing/internal/simulate"
	"solar-sizing/internal/sizing"
	"solar-sizing/internal/strategy"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// IANA zone used to interpret CSV timestamps. Empty means UTC.
	Timezone         string `yaml:"timezone" json:"timezone"`
	MinConfidentDays int    `yaml:"min_confident_days" json:"min_confident_days"`

	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`
	Battery    BatteryConfig    `yaml:"battery" json:"battery"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	FreeWindow FreeWindowConfig `yaml:"free_window" json:"free_window"`
	Tariffs    sizing.Tariffs   `yaml:"tariffs" json:"tariffs"`
	Tiers      []sizing.Tier    `yaml:"tiers" json:"tiers"`
}

type ClassifierConfig struct {
	DaytimeThresholdKWh float64 `yaml:"daytime_threshold_kwh" json:"daytime_threshold_kwh"`
}

type BatteryConfig struct {
	CandidatesKWh       []float64 `yaml:"candidates_kwh" json:"candidates_kwh"`
	UsableFraction      float64   `yaml:"usable_fraction" json:"usable_fraction"`
	RoundTripEfficiency float64   `yaml:"round_trip_efficiency" json:"round_trip_efficiency"`
}

type SimulationConfig struct {
	Granularity   simulate.Granularity `yaml:"granularity" json:"granularity"`
	CapacitiesKWh []float64            `yaml:"capacities_kwh" json:"capacities_kwh"`
}

type FreeWindowConfig struct {
	// nil means enabled.
	Enabled *bool  `yaml:"enabled" json:"enabled"`
	Start   string `yaml:"start" json:"start"`
	End     string `yaml:"end" json:"end"`
}

func (f FreeWindowConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Timezone:         "UTC",
		MinConfidentDays: sizing.DefaultMinConfidentDays,
		Classifier:       ClassifierConfig{DaytimeThresholdKWh: analysis.DefaultDaytimeThresholdKWh},
		Battery: BatteryConfig{
			CandidatesKWh:       []float64{8, 16, 24, 32, 40, 48},
			UsableFraction:      0.97,
			RoundTripEfficiency: 0.90,
		},
		Simulation: SimulationConfig{
			Granularity:   simulate.Interval,
			CapacitiesKWh: []float64{16},
		},
		FreeWindow: FreeWindowConfig{Start: "11:00", End: "14:00"},
		Tariffs: sizing.Tariffs{
			PeakRate:      0.32,
			OffPeakRate:   0.22,
			OffPeakWindow: mustWindow("22:00", "07:00"),
			FeedInTariff:  0.05,
			CostPerKWh:    540,
		},
		Tiers: sizing.DefaultTiers(),
	}
}

func mustWindow(start, end string) strategy.Window {
	w, err := strategy.ParseWindow(start, end)
	if err != nil {
		panic(err)
	}
	return w
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads path over the defaults, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Overlay(Default(), raw, yaml.Unmarshal)
}

// Overlay decodes raw over a copy of base with unmarshal (yaml.Unmarshal or
// json.Unmarshal). Keys present in raw win, explicit zeros included; absent
// keys keep the base value. Lists are replaced whole. base is not modified.
func Overlay(base *Config, raw []byte, unmarshal func([]byte, any) error) (*Config, error) {
	out := Merge(base, nil)
	if len(raw) == 0 {
		return out, nil
	}
	if err := unmarshal(raw, out); err != nil {
		return nil, err
	}

	// Decoding into a populated slice can keep stale element fields, so lists
	// are taken from a clean decode.
	var lists Config
	if err := unmarshal(raw, &lists); err != nil {
		return nil, err
	}
	if lists.Battery.CandidatesKWh != nil {
		out.Battery.CandidatesKWh = lists.Battery.CandidatesKWh
	}
	if lists.Simulation.CapacitiesKWh != nil {
		out.Simulation.CapacitiesKWh = lists.Simulation.CapacitiesKWh
	}
	if lists.Tiers != nil {
		out.Tiers = lists.Tiers
	}
	return out, nil
}

// Validate checks every parameter before any computation runs. The first
// problem is returned as a *model.ConfigError naming the parameter.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return model.NewConfigError("timezone", "%v", err)
	}
	if c.MinConfidentDays < 0 {
		return model.NewConfigError("min_confident_days", "must be >= 0, got %d", c.MinConfidentDays)
	}
	if c.Classifier.DaytimeThresholdKWh < 0 {
		return model.NewConfigError("classifier.daytime_threshold_kwh", "must be >= 0, got %v", c.Classifier.DaytimeThresholdKWh)
	}
	if len(c.Battery.CandidatesKWh) == 0 {
		return model.NewConfigError("battery.candidates_kwh", "at least one candidate is required")
	}
	for _, kwh := range c.Battery.CandidatesKWh {
		if err := c.BatteryParams(kwh).Validate(); err != nil {
			return prefix("battery.", err)
		}
	}
	if !c.Simulation.Granularity.Valid() {
		return model.NewConfigError("simulation.granularity", "must be %q or %q, got %q",
			simulate.Interval, simulate.Daily, c.Simulation.Granularity)
	}
	for _, kwh := range c.Simulation.CapacitiesKWh {
		if err := c.BatteryParams(kwh).Validate(); err != nil {
			return prefix("simulation.", err)
		}
	}
	if c.FreeWindow.IsEnabled() {
		if _, err := strategy.ParseWindow(c.FreeWindow.Start, c.FreeWindow.End); err != nil {
			return model.NewConfigError("free_window", "%v", err)
		}
	}
	if err := c.Tariffs.Validate(); err != nil {
		return err
	}
	if len(c.Tiers) == 0 {
		return model.NewConfigError("tiers", "at least one tier is required")
	}
	for _, t := range c.Tiers {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func prefix(p string, err error) error {
	var ce *model.ConfigError
	if errors.As(err, &ce) {
		return &model.ConfigError{Param: p + ce.Param, Reason: ce.Reason}
	}
	return err
}

// BatteryParams builds simulator parameters for one capacity.
func (c *Config) BatteryParams(capacityKWh float64) model.BatteryParams {
	return model.BatteryParams{
		CapacityKWh:         capacityKWh,
		UsableFraction:      c.Battery.UsableFraction,
		RoundTripEfficiency: c.Battery.RoundTripEfficiency,
	}
}

// FreeWindowRange returns the configured window, or an empty one when disabled.
func (c *Config) FreeWindowRange() strategy.Window {
	if !c.FreeWindow.IsEnabled() {
		return strategy.Window{}
	}
	w, err := strategy.ParseWindow(c.FreeWindow.Start, c.FreeWindow.End)
	if err != nil {
		return strategy.Window{}
	}
	return w
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) SizingOptions() sizing.Options {
	return sizing.Options{
		CandidatesKWh:    c.Battery.CandidatesKWh,
		UsableFraction:   c.Battery.UsableFraction,
		CostPerKWh:       c.Tariffs.CostPerKWh,
		MinConfidentDays: c.MinConfidentDays,
	}
}

// Hash is a stable digest of the effective configuration, used as half of
// the result cache key.
func (c *Config) Hash() string {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Merge overlays non-zero fields from override onto base. Zero means "not
// set" here, so it suits typed overrides such as upload query parameters;
// use Overlay when an explicit zero must win. The result shares no memory
// with base.
func Merge(base, override *Config) *Config {
	out := *base
	out.Battery.CandidatesKWh = append([]float64(nil), base.Battery.CandidatesKWh...)
	out.Simulation.CapacitiesKWh = append([]float64(nil), base.Simulation.CapacitiesKWh...)
	out.Tiers = append([]sizing.Tier(nil), base.Tiers...)
	if base.FreeWindow.Enabled != nil {
		v := *base.FreeWindow.Enabled
		out.FreeWindow.Enabled = &v
	}
	if override == nil {
		return &out
	}

	if override.Timezone != "" {
		out.Timezone = override.Timezone
	}
	if override.MinConfidentDays != 0 {
		out.MinConfidentDays = override.MinConfidentDays
	}
	if override.Classifier.DaytimeThresholdKWh != 0 {
		out.Classifier.DaytimeThresholdKWh = override.Classifier.DaytimeThresholdKWh
	}
	if len(override.Battery.CandidatesKWh) > 0 {
		out.Battery.CandidatesKWh = append([]float64(nil), override.Battery.CandidatesKWh...)
	}
	if override.Battery.UsableFraction != 0 {
		out.Battery.UsableFraction = override.Battery.UsableFraction
	}
	if override.Battery.RoundTripEfficiency != 0 {
		out.Battery.RoundTripEfficiency = override.Battery.RoundTripEfficiency
	}
	if override.Simulation.Granularity != "" {
		out.Simulation.Granularity = override.Simulation.Granularity
	}
	if len(override.Simulation.CapacitiesKWh) > 0 {
		out.Simulation.CapacitiesKWh = append([]float64(nil), override.Simulation.CapacitiesKWh...)
	}
	if override.FreeWindow.Enabled != nil {
		v := *override.FreeWindow.Enabled
		out.FreeWindow.Enabled = &v
	}
	if override.FreeWindow.Start != "" {
		out.FreeWindow.Start = override.FreeWindow.Start
	}
	if override.FreeWindow.End != "" {
		out.FreeWindow.End = override.FreeWindow.End
	}
	out.Tariffs = mergeTariffs(out.Tariffs, override.Tariffs)
	if len(override.Tiers) > 0 {
		out.Tiers = append([]sizing.Tier(nil), override.Tiers...)
	}
	return &out
}

func mergeTariffs(base, override sizing.Tariffs) sizing.Tariffs {
	out := base
	if override.PeakRate != 0 {
		out.PeakRate = override.PeakRate
	}
	if override.OffPeakRate != 0 {
		out.OffPeakRate = override.OffPeakRate
	}
	if !override.OffPeakWindow.IsZero() {
		out.OffPeakWindow = override.OffPeakWindow
	}
	if override.FeedInTariff != 0 {
		out.FeedInTariff = override.FeedInTariff
	}
	if override.CostPerKWh != 0 {
		out.CostPerKWh = override.CostPerKWh
	}
	return out
}
