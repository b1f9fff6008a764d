package data

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"solar-sizing/internal/model"
)

// LoadReadingsJSON reads a JSON array of readings and returns it sorted by timestamp.
func LoadReadingsJSON(path string) ([]model.Reading, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var readings []model.Reading
	if err := json.Unmarshal(raw, &readings); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	for i, r := range readings {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("reading %d: %w", i, err)
		}
	}
	SortReadings(readings)
	return readings, nil
}

func SortReadings(readings []model.Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}
