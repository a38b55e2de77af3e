// Package core provides the quote domain types together with number
// normalization, money formatting and totals.
//
// This file contains the lenient decimal parser used for every user- or
// file-supplied price, and the BRL display formatter.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize converts loosely formatted decimal text into a number.
//
// Both the comma-decimal convention (1.234,56) and the dot-decimal one
// (1,234.56) are accepted: when the last comma comes after the last dot, dots
// are grouping and the comma is the decimal point. Every character other than
// digits, '.' and '-' is then dropped. Empty or unparseable text yields 0.
//
// Examples:
//
//	Normalize("1.234,56") -> 1234.56
//	Normalize("1,234.56") -> 1234.56
//	Normalize("R$ 35,50") -> 35.5
//	Normalize("abc")      -> 0
func Normalize(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, "\u00a0", "")

	commaPos := strings.LastIndex(s, ",")
	dotPos := strings.LastIndex(s, ".")
	if commaPos > dotPos {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return 0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFinite(v) {
		return 0
	}
	return v
}

// NormalizeAny applies Normalize to strings and passes finite numbers
// through. Anything else is 0.
func NormalizeAny(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case string:
		return Normalize(val)
	case float64:
		return Finite(val)
	case float32:
		return Finite(float64(val))
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case decimal.Decimal:
		return val.InexactFloat64()
	default:
		return 0
	}
}

// FormatBRL renders v as Brazilian reais, e.g. "R$ 1.234,56".
// Non-finite values render as "R$ 0,00".
func FormatBRL(v float64) string {
	if !IsFinite(v) {
		return "R$ 0,00"
	}
	d := decimal.NewFromFloat(v).Round(2)
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	s := "R$ " + groupThousands(intPart) + "," + frac
	if neg {
		return "-" + s
	}
	return s
}

// FormatPlainBR renders v with a comma decimal separator and no grouping,
// keeping only the significant decimals ("35,5", "100").
func FormatPlainBR(v float64) string {
	return strings.Replace(strconv.FormatFloat(Finite(v), 'f', -1, 64), ".", ",", 1)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
