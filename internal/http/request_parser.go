// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// form fields of the quote, catalog and budget editors and the confirmation
// flag of destructive actions.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"orcamentos/internal/budget"
	"orcamentos/internal/core"
)

// maxUploadBytes bounds a catalog upload.
const maxUploadBytes = 10 << 20

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formString returns the sanitized value of key.
func formString(form url.Values, key string) string {
	return sanitizeInput(form.Get(key))
}

// formOptional returns a pointer to the sanitized value of key, or nil when
// the form does not carry key at all.
func formOptional(form url.Values, key string) *string {
	if _, ok := form[key]; !ok {
		return nil
	}
	v := formString(form, key)
	return &v
}

// formAmount parses a pt-BR or plain number, 0 when absent or unreadable.
func formAmount(form url.Values, key string) float64 {
	return core.Normalize(form.Get(key))
}

func formOptionalAmount(form url.Values, key string) *float64 {
	if _, ok := form[key]; !ok {
		return nil
	}
	v := formAmount(form, key)
	return &v
}

// ParseGeneralForm reads the quote metadata editor.
func ParseGeneralForm(form url.Values) core.GeneralInfo {
	// Unparseable or empty validity counts as zero days.
	days, err := strconv.Atoi(strings.TrimSpace(form.Get("validadeDias")))
	if err != nil {
		days = 0
	}
	return core.GeneralInfo{
		Client:       formString(form, "cliente"),
		Contact:      formString(form, "contato"),
		Address:      formString(form, "endereco"),
		CityState:    formString(form, "cidadeUf"),
		Date:         formString(form, "data"),
		ValidityDays: days,
		TravelFee:    formAmount(form, "deslocamento"),
		Surcharge:    formAmount(form, "taxas"),
		Discount:     formAmount(form, "desconto"),
		Notes:        formString(form, "observacoes"),
	}
}

// ParseServiceForm reads a catalog row editor. Absent fields keep the
// values of current.
func ParseServiceForm(form url.Values, current core.Service) core.Service {
	row := current
	if v := formOptional(form, "item"); v != nil {
		row.Name = *v
	}
	if v := formOptional(form, "unidade"); v != nil {
		row.Unit = *v
	}
	if v := formOptionalAmount(form, "valor"); v != nil {
		row.Price = *v
	}
	return row
}

// ParseBudgetPatch reads a budget row editor into a patch of the fields
// present in form.
func ParseBudgetPatch(form url.Values) budget.Patch {
	return budget.Patch{
		Name:  formOptional(form, "item"),
		Unit:  formOptional(form, "unidade"),
		Price: formOptionalAmount(form, "valor"),
		Qty:   formOptionalAmount(form, "qtde"),
	}
}

// Confirmed reports whether the request carries confirm=yes.
func Confirmed(form url.Values) bool {
	return strings.EqualFold(strings.TrimSpace(form.Get("confirm")), "yes")
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato de requisição inválido")
	}
	return nil
}
