// Package export renders a quote as a spreadsheet or a printable PDF.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"orcamentos/internal/core"
)

const (
	sheetName   = "Orçamento"
	moneyFormat = `"R$" #,##0.00`
	dateLayout  = "02/01/2006"
)

var itemHeaders = []string{"Serviço", "Unidade", "Qtde", "Valor unit.", "Subtotal"}

// FileName returns the download name of a quote export, e.g.
// "orcamento-2026-10-18.pdf". A date that is not ISO is left out.
func FileName(q core.Quote, ext string) string {
	d, err := time.Parse("2006-01-02", q.General.Date)
	if err != nil {
		return "orcamento." + ext
	}
	return fmt.Sprintf("orcamento-%s.%s", d.Format("2006-01-02"), ext)
}

// WriteXLSX writes q as a single-sheet workbook.
func WriteXLSX(w io.Writer, q core.Quote) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	set := func(cell string, value any) {
		_ = f.SetCellValue(sheetName, cell, value)
	}

	set("A1", "Orçamento de Serviços")
	_ = f.SetCellStyle(sheetName, "A1", "A1", styles.title)

	row := 3
	for _, kv := range generalRows(q) {
		set(fmt.Sprintf("A%d", row), kv[0])
		set(fmt.Sprintf("B%d", row), sanitizeExcelCell(kv[1]))
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), styles.label)
		row++
	}

	row++
	for i, h := range itemHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		set(cell, h)
	}
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), styles.header)

	for _, it := range q.Items {
		row++
		set(fmt.Sprintf("A%d", row), sanitizeExcelCell(it.Name))
		set(fmt.Sprintf("B%d", row), sanitizeExcelCell(it.Unit))
		set(fmt.Sprintf("C%d", row), it.Qty)
		set(fmt.Sprintf("D%d", row), core.Finite(it.Price))
		set(fmt.Sprintf("E%d", row), it.Subtotal())
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), styles.cell)
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("D%d", row), fmt.Sprintf("E%d", row), styles.money)
	}

	row += 2
	for _, line := range totalRows(q.Totals) {
		set(fmt.Sprintf("D%d", row), line.label)
		set(fmt.Sprintf("E%d", row), line.value)
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), styles.label)
		style := styles.money
		if line.final {
			style = styles.total
		}
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), style)
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "A", 42)
	_ = f.SetColWidth(sheetName, "B", "B", 16)
	_ = f.SetColWidth(sheetName, "C", "C", 8)
	_ = f.SetColWidth(sheetName, "D", "E", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	title, label, header, cell, money, total int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	numFmt := moneyFormat
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&s.label, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"#404040"}, Pattern: 1},
			Border: thinBorders(),
		}},
		{&s.cell, &excelize.Style{Border: thinBorders()}},
		{&s.money, &excelize.Style{Border: thinBorders(), CustomNumFmt: &numFmt}},
		{&s.total, &excelize.Style{Font: &excelize.Font{Bold: true}, Border: thinBorders(), CustomNumFmt: &numFmt}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// sanitizeExcelCell keeps user text from being read as a formula.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
