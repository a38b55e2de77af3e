package catalog

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"orcamentos/internal/core"
)

// foldName is the key used to decide whether two names are the same entry.
func foldName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

func newCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
}

// buildView sorts a copy of services by name and keeps the entries matching
// query. The collator is not safe for concurrent use; callers hold the
// manager lock.
func buildView(c *collate.Collator, services []core.Service, query string) []core.Service {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]core.Service, 0, len(services))
	for _, s := range services {
		if q == "" || matches(s, q) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

func matches(s core.Service, q string) bool {
	for _, f := range []string{s.Name, s.Unit, priceText(s.Price)} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// priceText is the plain number as typed in a filter ("35.5", "100").
func priceText(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
