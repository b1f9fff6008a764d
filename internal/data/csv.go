package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"solar-sizing/internal/model"
)

// Meter registers in the retailer's interval export.
const (
	RegisterImport = 1
	RegisterExport = 2
)

// ErrNoReadings is returned when a file parses but yields no usable rows.
var ErrNoReadings = errors.New("no readings found")

var requiredColumns = []string{"ReadDate", "ReadTime", "Register", "ReadConsumption", "SolarFlag"}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"2006/01/02",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
}

// ParseOVOCSV parses an interval export with the columns
//
//	ReadDate,ReadTime,Register,ReadConsumption,SolarFlag
//
// Register 1 rows are grid import; register 2 rows with SolarFlag set are
// solar export. Rows sharing a timestamp are merged into one Reading and the
// result is sorted ascending. Local times are interpreted in loc.
func ParseOVOCSV(r io.Reader, loc *time.Location) ([]model.Reading, error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	byTime := map[int64]*model.Reading{}
	lineNum := 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		row, err := parseOVORow(record, cols, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if row.register != RegisterImport && !(row.register == RegisterExport && row.solar) {
			continue
		}

		key := row.ts.UnixNano()
		rd, ok := byTime[key]
		if !ok {
			rd = &model.Reading{Timestamp: row.ts}
			byTime[key] = rd
		}
		if row.register == RegisterImport {
			rd.GridImportKWh += row.kwh
		} else {
			rd.SolarExportKWh += row.kwh
		}
	}

	if len(byTime) == 0 {
		return nil, ErrNoReadings
	}
	out := make([]model.Reading, 0, len(byTime))
	for _, rd := range byTime {
		out = append(out, *rd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

type ovoRow struct {
	ts       time.Time
	register int
	kwh      float64
	solar    bool
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}
	return idx, nil
}

func parseOVORow(record []string, cols map[string]int, loc *time.Location) (ovoRow, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ts, err := parseLocal(field("ReadDate"), field("ReadTime"), loc)
	if err != nil {
		return ovoRow{}, err
	}
	reg, err := strconv.Atoi(field("Register"))
	if err != nil {
		return ovoRow{}, fmt.Errorf("parsing Register %q: %w", field("Register"), err)
	}
	kwh, err := strconv.ParseFloat(field("ReadConsumption"), 64)
	if err != nil {
		return ovoRow{}, fmt.Errorf("parsing ReadConsumption %q: %w", field("ReadConsumption"), err)
	}
	if kwh < 0 {
		return ovoRow{}, fmt.Errorf("negative ReadConsumption %v", kwh)
	}
	return ovoRow{ts: ts, register: reg, kwh: kwh, solar: parseFlag(field("SolarFlag"))}, nil
}

func parseLocal(date, clock string, loc *time.Location) (time.Time, error) {
	var d time.Time
	var err error
	for _, layout := range dateLayouts {
		if d, err = time.ParseInLocation(layout, date, loc); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing ReadDate %q: %w", date, err)
	}
	for _, layout := range timeLayouts {
		c, cerr := time.Parse(layout, clock)
		if cerr == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
		}
		err = cerr
	}
	return time.Time{}, fmt.Errorf("parsing ReadTime %q: %w", clock, err)
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "y", "yes", "t":
		return true
	}
	return false
}
