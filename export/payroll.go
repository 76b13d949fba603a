package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/warp/shift-engine/payroll"
)

var payrollHeaders = []string{"Name", "Shifts", "Scheduled Hours", "Paid Hours", "Income"}

func payrollRecord(r payroll.Row) []string {
	f := r.Format()
	return []string{f.Name, strconv.Itoa(r.Shifts), f.ScheduledHours, f.PaidHours, f.Income}
}

// PayrollPDF renders the report as a one-table A4 document with a totals row.
func PayrollPDF(rep payroll.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetTitle("Payroll "+rep.Month.String(), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "PAYROLL "+rep.Month.String(), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	colWidth := 190.0 / float64(len(payrollHeaders))
	pdf.SetFont("Arial", "B", 10)
	for _, header := range payrollHeaders {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	if len(rep.Rows) == 0 {
		pdf.CellFormat(190, 7, "No shifts scheduled", "1", 1, "C", false, 0, "")
	}
	for _, row := range rep.Rows {
		writePDFRow(pdf, colWidth, payrollRecord(row))
	}

	pdf.SetFont("Arial", "B", 9)
	writePDFRow(pdf, colWidth, payrollRecord(rep.Totals))

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writePDFRow(pdf *gofpdf.Fpdf, colWidth float64, record []string) {
	for i, value := range record {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(colWidth, 7, value, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

// PayrollCSV renders the report rows followed by the totals row.
func PayrollCSV(rep payroll.Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(payrollHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range rep.Rows {
		if err := writer.Write(payrollRecord(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := writer.Write(payrollRecord(rep.Totals)); err != nil {
		return nil, fmt.Errorf("write csv totals: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
