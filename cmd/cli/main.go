package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solar-sizing/internal/config"
	"solar-sizing/internal/data"
	"solar-sizing/internal/model"
	"solar-sizing/internal/report"
	"solar-sizing/internal/simulate"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		cmdAnalyze(os.Args[2:])
	case "size":
		cmdSize(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli analyze --data usage.csv --config config.yaml --out results/ [--start 2024-01-01 --end 2024-12-31]")
	fmt.Println("  cli size --data usage.csv --config config.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - --data accepts an OVO interval CSV export or a JSON array of readings")
	fmt.Println("  - analyze writes ledger_<kwh>kwh.csv, daily_<kwh>kwh.csv and report.json per simulated capacity")
	fmt.Println("  - without --start/--end the most recent full year after the first solar export is used")
}

type commonFlags struct {
	dataPath *string
	cfgPath  *string
	start    *string
	end      *string
}

func addCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		dataPath: fs.String("data", "usage.csv", "Path to OVO CSV export or readings JSON"),
		cfgPath:  fs.String("config", "", "Path to YAML config (optional, defaults built in)"),
		start:    fs.String("start", "", "First day to analyse, YYYY-MM-DD (inclusive)"),
		end:      fs.String("end", "", "Last day to analyse, YYYY-MM-DD (inclusive)"),
	}
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cf := addCommon(fs)
	outDir := fs.String("out", "results", "Output directory")
	_ = fs.Parse(args)

	rep := run(cf)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}
	for _, sim := range rep.Simulations {
		suffix := fmt.Sprintf("%gkwh", sim.CapacityKWh)
		ledgerPath := filepath.Join(*outDir, "ledger_"+suffix+".csv")
		if err := simulate.WriteLedgerCSV(ledgerPath, sim.Result.Ledger); err != nil {
			panic(err)
		}
		dailyPath := filepath.Join(*outDir, "daily_"+suffix+".csv")
		if err := simulate.WriteDailyCSV(dailyPath, sim.Result.Daily); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s and %d rows to %s\n", len(sim.Result.Ledger), ledgerPath, len(sim.Result.Daily), dailyPath)
	}
	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		panic(err)
	}
	reportPath := filepath.Join(*outDir, "report.json")
	if err := os.WriteFile(reportPath, raw, 0o644); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %s\n\n", reportPath)

	printSummary(rep)
	printSimulations(rep)
	printRecommendations(rep)
}

func cmdSize(args []string) {
	fs := flag.NewFlagSet("size", flag.ExitOnError)
	cf := addCommon(fs)
	_ = fs.Parse(args)

	rep := run(cf)
	printRecommendations(rep)
}

func run(cf commonFlags) *report.Report {
	cfg := config.Default()
	if *cf.cfgPath != "" {
		loaded, err := config.Load(*cf.cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	readings, err := loadReadings(*cf.dataPath, cfg)
	if err != nil {
		panic(err)
	}

	from, err := data.ParseDate(*cf.start, cfg.Location())
	if err != nil {
		panic(err)
	}
	to, err := data.ParseDate(*cf.end, cfg.Location())
	if err != nil {
		panic(err)
	}
	if from.IsZero() && to.IsZero() {
		if start, ok := data.SolarStart(readings); ok {
			from, to = data.SuggestRange(start, data.DataEnd(readings))
		}
	}
	if !from.IsZero() || !to.IsZero() {
		readings = data.FilterRange(readings, from, to)
	}

	rep, err := report.Analyze(model.Series{Source: filepath.Base(*cf.dataPath), Readings: readings}, cfg)
	if err != nil {
		panic(err)
	}
	return rep
}

func loadReadings(path string, cfg *config.Config) ([]model.Reading, error) {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return data.LoadReadingsJSON(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return data.ParseOVOCSV(f, cfg.Location())
}

func printSummary(rep *report.Report) {
	s := rep.Summary
	fmt.Printf("Source %s: %d days (%s to %s), %d readings\n", rep.Source, rep.Days, rep.StartDate, rep.EndDate, rep.Readings)
	if rep.FreeWindow != "" {
		fmt.Printf("Free power window %s\n", rep.FreeWindow)
	}
	fmt.Printf("Import %.3f kWh (sunlight %.1f%%, night %.1f%%), export %.3f kWh\n", s.TotalImport, s.SunlightPct, s.NightPct, s.TotalExport)
	fmt.Printf("Paid night import per day: mean %.3f, median %.3f, p90 %.3f, max %.3f kWh\n",
		rep.Night.Mean, rep.Night.Median, rep.Night.P90, rep.Night.Max)
	for _, a := range rep.Annotations {
		fmt.Printf("! %s: %s\n", a.Code, a.Message)
	}
	fmt.Println()
}

func printSimulations(rep *report.Report) {
	fmt.Printf("%-8s %-10s %-10s %-10s %-8s %-8s\n", "kWh", "charged", "served", "grid-imp", "cover%", "cycles")
	for _, sim := range rep.Simulations {
		st := sim.Stats
		fmt.Printf("%-8g %-10.3f %-10.3f %-10.3f %-8.1f %-8.1f\n",
			sim.CapacityKWh, st.ChargedKWh, st.ServedKWh, st.SimulatedImportKWh, st.NightCoveragePct, st.EquivalentCycles)
	}
	fmt.Println()
}

func printRecommendations(rep *report.Report) {
	fmt.Printf("%-14s %-8s %-8s %-10s %-8s %-8s %-10s %-10s %s\n", "tier", "basis", "target", "battery", "usable", "days", "cost$", "payback", "status")
	for _, r := range rep.Recommendations {
		payback := "-"
		if r.ROI != nil {
			if r.ROI.PaybackNever {
				payback = "never"
			} else {
				payback = fmt.Sprintf("%.1fy", r.ROI.PaybackYears)
			}
		}
		status := r.Status
		if r.LowConfidence {
			status += " (low confidence)"
		}
		fmt.Printf("%-14s %-8s %-8.3f %-10s %-8.2f %-8d %-10.2f %-10s %s\n",
			r.Label, r.SeasonBasis, r.TargetKWh, fmt.Sprintf("%gkWh", r.CapacityKWh), r.UsableKWh, r.SampleCount, r.EstimatedCost, payback, status)
		if r.Note != "" {
			fmt.Printf("    %s\n", r.Note)
		}
	}
}
