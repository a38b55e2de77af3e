package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"orcamentos/internal/core"
)

const (
	pdfMargin     = 15.0
	pdfLineHeight = 7.0
)

var pdfColumnWidths = []float64{80, 28, 16, 28, 28}

// WritePDF renders q as an A4 portrait document.
func WritePDF(w io.Writer, q core.Quote) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Orçamento de Serviços"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	for _, kv := range generalRows(q) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, tr(kv[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(safeValue(kv[1])), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(64, 64, 64)
	pdf.SetTextColor(255, 255, 255)
	drawTableRow(pdf, tr, itemHeaders, true)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 10)
	if len(q.Items) == 0 {
		pdf.CellFormat(sum(pdfColumnWidths), pdfLineHeight, tr("Nenhum item no orçamento"), "1", 1, "C", false, 0, "")
	}
	for _, it := range q.Items {
		drawTableRow(pdf, tr, []string{
			it.Name,
			it.Unit,
			strconv.Itoa(it.Qty),
			core.FormatBRL(it.Price),
			core.FormatBRL(it.Subtotal()),
		}, false)
	}
	pdf.Ln(4)

	labelWidth := sum(pdfColumnWidths[:4])
	for _, line := range totalRows(q.Totals) {
		style := ""
		if line.final {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelWidth, 6, tr(line.label), "", 0, "R", false, 0, "")
		pdf.CellFormat(pdfColumnWidths[4], 6, tr(core.FormatBRL(line.value)), "", 1, "R", false, 0, "")
	}

	if notes := strings.TrimSpace(q.General.Notes); notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, tr("Observações"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, header bool) {
	for i, col := range cols {
		align := "L"
		if !header && i >= 2 {
			align = "R"
		}
		text := tr(col)
		w := pdfColumnWidths[i]
		for len(text) > 1 && pdf.GetStringWidth(text) > w-2 {
			text = text[:len(text)-1]
		}
		pdf.CellFormat(w, pdfLineHeight, text, "1", 0, align, header, 0, "")
	}
	pdf.Ln(-1)
}

func sum(v []float64) float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	return total
}
