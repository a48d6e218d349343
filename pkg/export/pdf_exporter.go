package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const pdfPageWidth = 190.0

// PDFExporter renders a Table as a landscape-free A4 document with a title
// line and a footer carrying the generation time and row count.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF document bytes.
func (e *PDFExporter) Render(table Table, title string) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
		pdf.Ln(3)
	}

	widths := e.columnWidths(table)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, column := range table.Columns {
		pdf.CellFormat(widths[i], 8, column, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	footer := fmt.Sprintf("%d rows, generated %s", len(table.Rows), time.Now().UTC().Format(time.RFC3339))
	pdf.CellFormat(0, 6, footer, "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths distributes the printable width proportionally to the longest
// cell in each column, with a floor so narrow columns stay readable.
func (e *PDFExporter) columnWidths(table Table) []float64 {
	longest := make([]int, len(table.Columns))
	for i, column := range table.Columns {
		longest[i] = len(column)
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if len(cell) > longest[i] {
				longest[i] = len(cell)
			}
		}
	}

	total := 0
	for _, n := range longest {
		total += n
	}
	if total == 0 {
		total = len(longest)
	}

	widths := make([]float64, len(longest))
	remaining := pdfPageWidth
	for i, n := range longest {
		w := pdfPageWidth * float64(n) / float64(total)
		if w < 14 {
			w = 14
		}
		if i == len(longest)-1 {
			w = remaining
		}
		widths[i] = w
		remaining -= w
	}
	return widths
}
