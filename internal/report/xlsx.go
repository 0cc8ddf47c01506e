// Package report writes odds simulation results as spreadsheets.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/xtding233/progression-core/internal/catalog"
	"github.com/xtding233/progression-core/internal/gacha"
)

const (
	SheetSummary   = "Summary"
	SheetHistogram = "Histogram"
	SheetBanner    = "Banner"
)

var summaryHeader = []string{"Goal", "Trials", "Mean", "StdDev", "P50", "P90", "P99", "Sub-pulls", "5★ rate", "Rate-up share", "4★ rate", "Filler rate"}

// ExportXLSX writes one summary row per result, a histogram of the raw
// samples and the banner rules the run used. It returns the written path.
func ExportXLSX(path string, results []gacha.Stats, rules catalog.Rules) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	_ = f.SetSheetName("Sheet1", SheetSummary)
	if _, err := f.NewSheet(SheetHistogram); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(SheetBanner); err != nil {
		return "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}
	pctStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return "", err
	}

	if err := writeSummary(f, results, headerStyle, pctStyle); err != nil {
		return "", err
	}
	if err := writeHistogram(f, results, headerStyle); err != nil {
		return "", err
	}
	if err := writeBanner(f, rules, headerStyle); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func writeSummary(f *excelize.File, results []gacha.Stats, headerStyle, pctStyle int) error {
	for i, h := range summaryHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetSummary, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(summaryHeader), 1)
	if err := f.SetCellStyle(SheetSummary, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, s := range results {
		row := i + 2
		values := []any{
			string(s.Goal), s.Trials, s.Mean, s.StdDev, s.P50, s.P90, s.P99, s.Tally.Draws,
			ratio(s.Tally.Five, s.Tally.Draws),
			ratio(s.Tally.RateUp, s.Tally.Five),
			ratio(s.Tally.Four, s.Tally.Draws),
			ratio(s.Tally.Filler, s.Tally.Draws),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(SheetSummary, cell, v)
		}
	}
	if len(results) > 0 {
		end := fmt.Sprintf("L%d", len(results)+1)
		if err := f.SetCellStyle(SheetSummary, "I2", end, pctStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 18); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "L", 12)
}

// writeHistogram lays out value -> count with one count column per result.
func writeHistogram(f *excelize.File, results []gacha.Stats, headerStyle int) error {
	f.SetCellValue(SheetHistogram, "A1", "Value")
	counts := make([]map[int]int, len(results))
	seen := map[int]bool{}
	for i, s := range results {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		f.SetCellValue(SheetHistogram, cell, string(s.Goal))
		counts[i] = map[int]int{}
		for _, v := range s.Samples {
			counts[i][v]++
			seen[v] = true
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(results)+1, 1)
	if err := f.SetCellStyle(SheetHistogram, "A1", last, headerStyle); err != nil {
		return err
	}

	values := make([]int, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Ints(values)
	for r, v := range values {
		f.SetCellValue(SheetHistogram, fmt.Sprintf("A%d", r+2), v)
		for i := range results {
			cell, _ := excelize.CoordinatesToCellName(i+2, r+2)
			f.SetCellValue(SheetHistogram, cell, counts[i][v])
		}
	}
	return nil
}

func writeBanner(f *excelize.File, rules catalog.Rules, headerStyle int) error {
	rows := [][2]any{
		{"Setting", "Value"},
		{"Catalog version", rules.Version},
		{"Single pull cost", rules.PullCost},
		{"Ten pull cost", rules.TenPullCost},
		{"4★ pity", rules.Pity4},
		{"5★ pity", rules.Pity5},
		{"5★ below roll", rules.FiveStarBelow},
		{"4★ below roll", rules.FourStarBelow},
		{"Rate-up probability", rules.RateUpProb},
	}
	for i, r := range rows {
		f.SetCellValue(SheetBanner, fmt.Sprintf("A%d", i+1), r[0])
		f.SetCellValue(SheetBanner, fmt.Sprintf("B%d", i+1), r[1])
	}
	if err := f.SetCellStyle(SheetBanner, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SheetBanner, "A", "A", 22)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
