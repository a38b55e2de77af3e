package export

import (
	"fmt"
	"strings"
	"time"

	"orcamentos/internal/core"
)

type totalLine struct {
	label string
	value float64
	final bool
}

// generalRows lists the quote metadata in display order.
func generalRows(q core.Quote) [][2]string {
	g := q.General
	return [][2]string{
		{"Cliente", g.Client},
		{"Contato", g.Contact},
		{"Endereço", g.Address},
		{"Cidade/UF", g.CityState},
		{"Data", formatISODate(g.Date)},
		{"Validade", validityText(g.ValidityDays, q.ValidUntil)},
	}
}

func totalRows(t core.Totals) []totalLine {
	return []totalLine{
		{label: "Total dos itens", value: t.Items},
		{label: "Deslocamento", value: t.TravelFee},
		{label: "Taxas", value: t.Surcharge},
		{label: "Desconto", value: -t.Discount},
		{label: "Total final", value: t.Final, final: true},
	}
}

func formatISODate(s string) string {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return d.Format(dateLayout)
}

func validityText(days int, until time.Time) string {
	if until.IsZero() {
		return fmt.Sprintf("%d dias", days)
	}
	return fmt.Sprintf("%d dias (até %s)", days, until.Format(dateLayout))
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
