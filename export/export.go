// Package export renders attendance summaries and payslips as XLSX and PDF
// documents. Renderers only read their input and return the document bytes.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/metrics"
	"github.com/fours/payroll-engine/payslip"
	"github.com/fours/payroll-engine/violations"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

const (
	kindSummary = "summary"
	kindPayslip = "payslip"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts an empty string as JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", &generic.ValidationError{Field: "format", Value: s, Err: ErrUnsupportedFormat}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Filename builds an attachment name such as "attendance-EMP-1-2025-03-01.xlsx".
func Filename(prefix, id string, start generic.Date, f Format) string {
	return fmt.Sprintf("%s-%s-%s.%s", prefix, id, start, f)
}

// =============================================================================
// ATTENDANCE SUMMARY
// =============================================================================

// SummaryXLSX renders a summary workbook with a "summary" sheet and one row
// per violation date on a "dates" sheet.
func SummaryXLSX(s violations.Summary) (out []byte, err error) {
	defer observe(kindSummary, FormatXLSX, time.Now(), &err)

	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	datesSheet := "dates"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(datesSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Attendance Summary")
	_ = f.SetCellValue(summarySheet, "A3", "Employee")
	_ = f.SetCellValue(summarySheet, "B3", string(s.EmployeeID))
	_ = f.SetCellValue(summarySheet, "A4", "Name")
	_ = f.SetCellValue(summarySheet, "B4", s.EmployeeName)
	_ = f.SetCellValue(summarySheet, "A5", "Designation")
	_ = f.SetCellValue(summarySheet, "B5", string(s.DesignationID))
	_ = f.SetCellValue(summarySheet, "A6", "Period")
	_ = f.SetCellValue(summarySheet, "B6", s.Period.String())

	if s.Error != "" {
		_ = f.SetCellValue(summarySheet, "A8", "Error")
		_ = f.SetCellValue(summarySheet, "B8", s.Error)
	} else {
		_ = f.SetCellValue(summarySheet, "A8", "Component")
		_ = f.SetCellValue(summarySheet, "B8", "Count")
		_ = f.SetCellValue(summarySheet, "C8", "Rate")
		_ = f.SetCellValue(summarySheet, "D8", "Amount")
		row := 9
		for _, c := range violations.Categories {
			cs := s.Violations[c]
			_ = f.SetCellValue(summarySheet, cell("A", row), c.Component().Name)
			_ = f.SetCellValue(summarySheet, cell("B", row), cs.Count)
			_ = f.SetCellValue(summarySheet, cell("C", row), money(cs.Rate))
			_ = f.SetCellValue(summarySheet, cell("D", row), money(cs.Amount))
			row++
		}
		_ = f.SetCellValue(summarySheet, cell("A", row), "Total Deductions")
		_ = f.SetCellValue(summarySheet, cell("D", row), money(s.TotalDeductions))
	}

	_ = f.SetCellValue(datesSheet, "A1", "Date")
	_ = f.SetCellValue(datesSheet, "B1", "Component")
	row := 2
	for _, c := range violations.Categories {
		for _, d := range s.Violations[c].Dates {
			_ = f.SetCellValue(datesSheet, cell("A", row), d.String())
			_ = f.SetCellValue(datesSheet, cell("B", row), c.Component().Name)
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SummaryPDF renders a one-page summary with a table of categories.
func SummaryPDF(s violations.Summary) (out []byte, err error) {
	defer observe(kindSummary, FormatPDF, time.Now(), &err)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Attendance Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Employee: %s %s", s.EmployeeID, s.EmployeeName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Designation: %s", s.DesignationID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", s.Period))
	pdf.Ln(8)

	if s.Error != "" {
		pdf.Cell(0, 6, s.Error)
		return outputPDF(pdf)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Component", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Count", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Rate", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, c := range violations.Categories {
		cs := s.Violations[c]
		pdf.CellFormat(60, 6, c.Component().Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", cs.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, cs.Rate.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, cs.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 6, "Total Deductions", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, s.TotalDeductions.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	return outputPDF(pdf)
}

// =============================================================================
// PAYSLIP
// =============================================================================

// PayslipPDF renders a payslip with its earnings and deductions.
func PayslipPDF(a *payslip.Aggregate, employeeName string) (out []byte, err error) {
	defer observe(kindPayslip, FormatPDF, time.Now(), &err)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s %s", a.EmployeeID, employeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", a.Period))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", a.Status))
	pdf.Ln(10)

	lineTable(pdf, "Earnings", a.Earnings)
	lineTable(pdf, "Deductions", a.Deductions)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %s %s", a.GrossPay.StringFixed(2), a.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %s %s", a.TotalDeduction.StringFixed(2), a.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %s %s", a.NetPay.StringFixed(2), a.Currency))

	return outputPDF(pdf)
}

// PayslipXLSX renders a payslip on a single sheet.
func PayslipXLSX(a *payslip.Aggregate, employeeName string) (out []byte, err error) {
	defer observe(kindPayslip, FormatXLSX, time.Now(), &err)

	f := excelize.NewFile()
	defer f.Close()
	sheet := "payslip"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(sheet, "A1", "Payslip")
	_ = f.SetCellValue(sheet, "A3", "Employee")
	_ = f.SetCellValue(sheet, "B3", string(a.EmployeeID))
	_ = f.SetCellValue(sheet, "A4", "Name")
	_ = f.SetCellValue(sheet, "B4", employeeName)
	_ = f.SetCellValue(sheet, "A5", "Period")
	_ = f.SetCellValue(sheet, "B5", a.Period.String())
	_ = f.SetCellValue(sheet, "A6", "Status")
	_ = f.SetCellValue(sheet, "B6", a.Status.String())
	_ = f.SetCellValue(sheet, "A7", "Currency")
	_ = f.SetCellValue(sheet, "B7", a.Currency)

	_ = f.SetCellValue(sheet, "A9", "Type")
	_ = f.SetCellValue(sheet, "B9", "Component")
	_ = f.SetCellValue(sheet, "C9", "Amount")
	row := 10
	for _, l := range a.Earnings {
		_ = f.SetCellValue(sheet, cell("A", row), string(generic.KindEarning))
		_ = f.SetCellValue(sheet, cell("B", row), l.ComponentName)
		_ = f.SetCellValue(sheet, cell("C", row), money(l.Amount))
		row++
	}
	for _, l := range a.Deductions {
		_ = f.SetCellValue(sheet, cell("A", row), string(generic.KindDeduction))
		_ = f.SetCellValue(sheet, cell("B", row), l.ComponentName)
		_ = f.SetCellValue(sheet, cell("C", row), money(l.Amount))
		row++
	}

	row++
	_ = f.SetCellValue(sheet, cell("B", row), "Gross Pay")
	_ = f.SetCellValue(sheet, cell("C", row), money(a.GrossPay))
	_ = f.SetCellValue(sheet, cell("B", row+1), "Total Deduction")
	_ = f.SetCellValue(sheet, cell("C", row+1), money(a.TotalDeduction))
	_ = f.SetCellValue(sheet, cell("B", row+2), "Net Pay")
	_ = f.SetCellValue(sheet, cell("C", row+2), money(a.NetPay))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func lineTable(pdf *gofpdf.Fpdf, title string, lines []payslip.LineItem) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(100, 7, title, "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 7, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 11)
	for _, l := range lines {
		pdf.CellFormat(100, 7, l.ComponentName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, l.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(5)
}

func outputPDF(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func observe(kind string, f Format, start time.Time, err *error) {
	metrics.ObserveExport(kind, string(f), *err, time.Since(start))
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// money keeps spreadsheet cells numeric.
func money(d decimal.Decimal) float64 {
	return generic.Round2(d).InexactFloat64()
}
