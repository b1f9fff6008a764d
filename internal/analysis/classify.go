package analysis

import (
	"solar-sizing/internal/model"
	"solar-sizing/internal/strategy"
)

// DefaultDaytimeThresholdKWh is the per-interval export above which an interval
// counts as daytime. Raising it shortens every "day" and lengthens every "night",
// so every downstream statistic moves with it.
const DefaultDaytimeThresholdKWh = 0.001

// Classifier labels readings as daytime/night from observed solar export
// rather than astronomical tables.
type Classifier struct {
	ThresholdKWh float64
	FreeWindow   strategy.Window
}

func NewClassifier(thresholdKWh float64, free strategy.Window) Classifier {
	return Classifier{ThresholdKWh: thresholdKWh, FreeWindow: free}
}

// Classify is a pure function of the reading and the classifier settings.
func (c Classifier) Classify(r model.Reading) model.ClassifiedReading {
	return model.ClassifiedReading{
		Reading:      r,
		IsDaytime:    r.SolarExportKWh > c.ThresholdKWh,
		InFreeWindow: c.FreeWindow.Contains(r.Timestamp),
	}
}

func (c Classifier) ClassifyAll(readings []model.Reading) []model.ClassifiedReading {
	out := make([]model.ClassifiedReading, len(readings))
	for i, r := range readings {
		out[i] = c.Classify(r)
	}
	return out
}
