// Package csvcodec converts between catalog rows and delimited text.
//
// Decoding is deliberately forgiving: the delimiter is sniffed, the header is
// optional and malformed rows are skipped instead of failing the whole file.
// An empty result is the only "nothing usable" signal.
package csvcodec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"orcamentos/internal/core"
)

// TemplateFileName is the suggested name for the downloadable template.
const TemplateFileName = "modelo-servicos.csv"

var (
	nameAliases  = []string{"item", "servi", "nome"}
	unitAliases  = []string{"unidade", "und", "uni"}
	priceAliases = []string{"valor", "valor unit", "pre"}
)

// Template returns the fixed three-line CSV model. The two sample rows use a
// dot-free integer and a comma decimal so both normalization paths are
// exercised when the template is imported back.
func Template() string {
	return strings.Join([]string{
		"item;unidade;valor",
		"Instalar Varal de Teto;unitário;100",
		"Pintura de Parede;metro;35,50",
	}, "\n")
}

// Decode parses catalog rows out of raw delimited text.
func Decode(text string) []core.Service {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	sep := sniffDelimiter(text)
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, splitRecord(line, sep))
	}
	return decodeRecords(records)
}

// DecodeReader reads all of r and decodes it. Only read errors are returned.
func DecodeReader(r io.Reader) ([]core.Service, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return Decode(string(raw)), nil
}

// EncodeCatalog writes services in the template layout: ';' separated with
// comma decimals, so the output decodes back to the same rows.
func EncodeCatalog(w io.Writer, services []core.Service) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"item", "unidade", "valor"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range services {
		if err := cw.Write([]string{s.Name, s.Unit, core.FormatPlainBR(s.Price)}); err != nil {
			return fmt.Errorf("write row %q: %w", s.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// decodeRecords applies header detection and column mapping to already
// split records. Shared by the CSV and XLSX paths.
func decodeRecords(records [][]string) []core.Service {
	if len(records) == 0 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	colName := findColumn(header, nameAliases)
	colUnit := findColumn(header, unitAliases)
	colPrice := findColumn(header, priceAliases)

	start := 0
	if colName >= 0 && colUnit >= 0 && colPrice >= 0 {
		start = 1
	}
	if colName < 0 {
		colName = 0
	}
	if colUnit < 0 {
		colUnit = 1
	}
	if colPrice < 0 {
		colPrice = 2
	}

	out := make([]core.Service, 0, len(records)-start)
	for _, rec := range records[start:] {
		name := field(rec, colName)
		if name == "" {
			continue
		}
		unit := field(rec, colUnit)
		if unit == "" {
			unit = core.DefaultUnit
		}
		out = append(out, core.Service{
			ID:    uuid.NewString(),
			Name:  name,
			Unit:  unit,
			Price: core.Normalize(field(rec, colPrice)),
		})
	}
	return out
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		for _, a := range aliases {
			if strings.HasPrefix(h, a) {
				return i
			}
		}
	}
	return -1
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// sniffDelimiter picks ';' or ',' by occurrence count; ties go to ';'.
func sniffDelimiter(text string) rune {
	if strings.Count(text, ";") >= strings.Count(text, ",") {
		return ';'
	}
	return ','
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// splitRecord honours quoted fields. A line with an unbalanced quote, or
// one the csv reader rejects, is split plainly on sep.
func splitRecord(line string, sep rune) []string {
	if strings.Count(line, `"`)%2 != 0 {
		return trimFields(strings.Split(line, string(sep)))
	}
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = sep
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	rec, err := r.Read()
	if err != nil {
		rec = strings.Split(line, string(sep))
	}
	return trimFields(rec)
}

func trimFields(rec []string) []string {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec
}
