package simulate

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	return writeFile(path, func(w io.Writer) error { return EncodeLedgerCSV(w, ledger) })
}

func WriteDailyCSV(path string, daily []DailyRow) error {
	return writeFile(path, func(w io.Writer) error { return EncodeDailyCSV(w, daily) })
}

func EncodeLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"index",
		"start",
		"action",
		"import_kwh",
		"export_kwh",
		"night_import_kwh",
		"charged_kwh",
		"served_kwh",
		"simulated_import_kwh",
		"simulated_export_kwh",
		"soc_start",
		"soc_end",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Start),
			string(r.Action),
			fmtKWh(r.ImportKWh),
			fmtKWh(r.ExportKWh),
			fmtKWh(r.NightImportKWh),
			fmtKWh(r.ChargedKWh),
			fmtKWh(r.ServedKWh),
			fmtKWh(r.SimulatedImportKWh),
			fmtKWh(r.SimulatedExportKWh),
			fmtKWh(r.SOCStart),
			fmtKWh(r.SOCEnd),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func EncodeDailyCSV(out io.Writer, daily []DailyRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"date",
		"season",
		"night_import_kwh",
		"simulated_night_import_kwh",
		"simulated_import_kwh",
		"simulated_export_kwh",
		"charged_kwh",
		"served_kwh",
		"soc_end_of_day",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, d := range daily {
		row := []string{
			d.Date.Format("2006-01-02"),
			string(d.Season),
			fmtKWh(d.NightImportKWh),
			fmtKWh(d.SimulatedNightImportKWh),
			fmtKWh(d.SimulatedImportKWh),
			fmtKWh(d.SimulatedExportKWh),
			fmtKWh(d.ChargedKWh),
			fmtKWh(d.ServedKWh),
			fmtKWh(d.SOCEndOfDay),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// kWh figures are written at 3 dp so repeated runs diff cleanly.
func fmtKWh(x float64) string {
	return strconv.FormatFloat(x, 'f', 3, 64)
}
