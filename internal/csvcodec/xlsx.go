package csvcodec

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"orcamentos/internal/core"
)

// DecodeXLSX reads catalog rows from the first sheet of a workbook, using
// the same header detection and column defaults as Decode.
func DecodeXLSX(r io.Reader) ([]core.Service, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		records = append(records, row)
	}
	return decodeRecords(records), nil
}

// IsWorkbook reports whether a file name looks like an xlsx upload.
func IsWorkbook(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".xlsx")
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
