package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pdfFontFamily = "NanumGothic"

// ErrFontNotConfigured is returned when PDF rendering is attempted without a
// UTF-8 font. The core PDF fonts cannot encode Hangul.
var ErrFontNotConfigured = errors.New("pdf export requires a UTF-8 TrueType font")

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct {
	fontPath string
}

// NewPDFExporter constructs a PDF exporter using the TrueType font at fontPath.
func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath}
}

// Available reports whether a font has been configured.
func (e *PDFExporter) Available() bool {
	return e != nil && e.fontPath != ""
}

// Render creates a PDF document with an optional title and table body.
// Column widths follow the relative weights in widths; missing weights default to 1.
func (e *PDFExporter) Render(data Dataset, title string, widths ...float64) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	if !e.Available() {
		return nil, ErrFontNotConfigured
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddUTF8Font(pdfFontFamily, "", e.fontPath)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load pdf font: %w", err)
	}
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(pdfFontFamily, "", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	cols := columnWidths(277.0, len(data.Headers), widths)

	pdf.SetFont(pdfFontFamily, "", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, header := range data.Headers {
		pdf.CellFormat(cols[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFontFamily, "", 8)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			pdf.CellFormat(cols[i], 7, fit(pdf, row[header], cols[i]-2), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(total float64, n int, weights []float64) []float64 {
	w := make([]float64, n)
	var sum float64
	for i := range w {
		w[i] = 1
		if i < len(weights) && weights[i] > 0 {
			w[i] = weights[i]
		}
		sum += w[i]
	}
	for i := range w {
		w[i] = total * w[i] / sum
	}
	return w
}

// fit truncates s so it renders within width.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}
