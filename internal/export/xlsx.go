// Package export renders a consolidated settlement dataset as an XLSX
// workbook for accountants who do not read JSON.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fleetsettle/internal/consolidate"
)

// DatasetXLSX returns an XLSX workbook (as bytes) with one row per
// settlement. Expense categories become columns, unioned across the whole
// dataset and sorted so the sheet shape is stable between runs.
func DatasetXLSX(ds consolidate.Dataset, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Settlements"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	categories := categoryColumns(ds)
	headers := []string{
		"Settlement Date",
		"License Plate",
		"Driver",
		"Settlement Type",
		"Gross Revenue",
		"Total Expenses",
		"Net Profit",
	}
	for _, c := range categories {
		headers = append(headers, c)
	}
	headers = append(headers, "Miles Driven", "Blocks Delivered", "Source File")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, entry := range ds.Settlements {
		s := entry.Settlement
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		date := ""
		if s.Metadata.SettlementDate != nil {
			date = *s.Metadata.SettlementDate
		}
		driver := ""
		if s.Metadata.DriverName != nil {
			driver = *s.Metadata.DriverName
		}

		write(1, date)
		write(2, s.Metadata.LicensePlate)
		write(3, driver)
		write(4, s.Metadata.SettlementType)
		write(5, cellMoney(s.Revenue.GrossRevenue))
		write(6, cellMoney(s.Expenses.TotalExpenses))
		write(7, cellMoney(s.Revenue.NetProfit))

		col := 8
		for _, c := range categories {
			if amount, ok := s.Expenses.Categories[c]; ok {
				write(col, cellMoney(amount))
			}
			col++
		}
		write(col, cellMoney(s.Metrics.MilesDriven))
		write(col+1, s.Metrics.BlocksDelivered)
		write(col+2, entry.SourceFile)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "C", 18)
	_ = f.SetColWidth(sheet, "D", "D", 20)
	_ = f.SetColWidth(sheet, "E", "G", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(ds.Settlements),
		"categories", len(categories),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteDatasetXLSX renders the dataset and writes it to path.
func WriteDatasetXLSX(ds consolidate.Dataset, path string, logger *slog.Logger) error {
	data, err := DatasetXLSX(ds, logger)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func categoryColumns(ds consolidate.Dataset) []string {
	seen := make(map[string]bool)
	for _, entry := range ds.Settlements {
		for c := range entry.Settlement.Expenses.Categories {
			seen[c] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for c := range seen {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// cellMoney converts a decimal to float64 so excelize writes a numeric cell
// instead of a quoted string.
func cellMoney(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
