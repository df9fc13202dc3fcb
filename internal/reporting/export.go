package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/tixledger/pkg/money"
)

// utf8BOM lets spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var summaryHeader = []string{"Metric", "Value", "Variance vs previous period"}

var dailyHeader = []string{"Date", "Orders", "Sales", "Commissions", "Refund fees", "Gift cards", "Services", "Revenue"}

// WriteCSV writes the report summary as CSV. It reads nothing beyond the report.
func WriteCSV(w io.Writer, report *IncomeReport) error {
	if report == nil {
		return fmt.Errorf("report required")
	}
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(summaryRows(report)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a Summary sheet matching the CSV plus a Daily sheet.
func WriteXLSX(w io.Writer, report *IncomeReport) error {
	if report == nil {
		return fmt.Errorf("report required")
	}
	f := excelize.NewFile()

	summaryIndex, err := f.NewSheet("Summary")
	if err != nil {
		f.Close()
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if _, err := f.NewSheet("Daily"); err != nil {
		f.Close()
		return fmt.Errorf("create daily sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(summaryIndex)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("create header style: %w", err)
	}

	summary := make([][]any, 0, 10)
	for _, row := range summaryRows(report) {
		summary = append(summary, []any{row[0], row[1], row[2]})
	}
	if err := writeSheet(f, "Summary", summaryHeader, summary, headerStyle); err != nil {
		f.Close()
		return err
	}

	daily := make([][]any, 0, len(report.Current.Daily))
	for _, d := range report.Current.Daily {
		daily = append(daily, []any{
			d.Date,
			d.Orders,
			majorFloat(d.SalesCents, report.Currency),
			majorFloat(d.CommissionCents, report.Currency),
			majorFloat(d.RefundFeeCents, report.Currency),
			majorFloat(d.GiftCardCents, report.Currency),
			majorFloat(d.ServicesCents, report.Currency),
			majorFloat(d.RevenueCents, report.Currency),
		})
	}
	if err := writeSheet(f, "Daily", dailyHeader, daily, headerStyle); err != nil {
		f.Close()
		return err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close workbook: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("column name: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func summaryRows(report *IncomeReport) [][]string {
	cur := report.Current
	d := report.Deltas
	amount := func(cents int64) string {
		return money.New(cents, report.Currency).Major().StringFixed(2)
	}
	return [][]string{
		{"Grand total", amount(cur.GrandTotalCents), formatDelta(d.GrandTotal)},
		{"Total sales", amount(cur.TotalSalesCents), formatDelta(d.TotalSales)},
		{"Commissions", amount(cur.CommissionCents), formatDelta(d.Commissions)},
		{"Refund fee revenue", amount(cur.RefundFeeRevenueCents), formatDelta(d.RefundFeeRevenue)},
		{"Gift card revenue", amount(cur.GiftCardRevenueCents), formatDelta(d.GiftCardRevenue)},
		{"Services revenue", amount(cur.ServicesRevenueCents), formatDelta(d.ServicesRevenue)},
		{"Total orders", fmt.Sprintf("%d", cur.TotalOrders), formatDelta(d.TotalOrders)},
		{"Average order value", amount(cur.AvgOrderValueCents), formatDelta(d.AvgOrderValue)},
		{"Effective commission rate", fmt.Sprintf("%.2f%%", cur.EffectiveCommissionRate), formatDelta(d.EffectiveCommissionRate)},
	}
}

func formatDelta(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func majorFloat(cents int64, currency string) float64 {
	v, _ := money.New(cents, currency).Major().Float64()
	return v
}
