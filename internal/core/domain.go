package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	// DefaultUnit is the unit label used when none is provided.
	DefaultUnit = "unitário"
	// DefaultValidityDays is the quote validity applied to a fresh GeneralInfo.
	DefaultValidityDays = 15
	// NewServiceName is the placeholder name of a service created from scratch.
	NewServiceName = "Novo serviço"
)

type (
	// Service is a catalog line item.
	Service struct {
		ID    string  `json:"id"`
		Name  string  `json:"item"`
		Unit  string  `json:"unidade"`
		Price float64 `json:"valor"`
	}

	// BudgetItem is a snapshot of a Service taken when it was added to the budget.
	BudgetItem struct {
		ID    string  `json:"id"`
		Name  string  `json:"item"`
		Unit  string  `json:"unidade"`
		Price float64 `json:"valor"`
		Qty   int     `json:"qtde"`
	}

	// GeneralInfo holds the free-form quote metadata.
	GeneralInfo struct {
		Client       string  `json:"cliente"`
		Contact      string  `json:"contato"`
		Address      string  `json:"endereco"`
		CityState    string  `json:"cidadeUf"`
		Date         string  `json:"data"`
		ValidityDays int     `json:"validadeDias"`
		TravelFee    float64 `json:"deslocamento"`
		Surcharge    float64 `json:"taxas"`
		Discount     float64 `json:"desconto"`
		Notes        string  `json:"observacoes"`
	}
)

var (
	ErrEmptyName    = errors.New("empty service name")
	ErrInvalidPrice = errors.New("invalid price")
	ErrDuplicateID  = errors.New("duplicate id")
)

// NewGeneralInfo returns the metadata of a blank quote dated today.
func NewGeneralInfo(now time.Time) GeneralInfo {
	return GeneralInfo{
		Date:         now.Format("2006-01-02"),
		ValidityDays: DefaultValidityDays,
	}
}

// Validate checks the fields a stored Service must satisfy.
func (s Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if !IsFinite(s.Price) || s.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Subtotal returns price times quantity. A zero quantity counts as one and
// a non-finite price counts as zero.
func (b BudgetItem) Subtotal() float64 {
	return lineTotal(b.Price, b.Qty).InexactFloat64()
}

// Sanitize coerces the numeric fields to finite non-negative values. The
// date is free text; only an ISO date yields a validity end.
func (g GeneralInfo) Sanitize() GeneralInfo {
	g.Date = strings.TrimSpace(g.Date)
	g.TravelFee = NonNegative(g.TravelFee)
	g.Surcharge = NonNegative(g.Surcharge)
	g.Discount = NonNegative(g.Discount)
	if g.ValidityDays < 0 {
		g.ValidityDays = 0
	}
	return g
}

// ValidUntil returns the quote date plus its validity, or the zero time when
// the date is missing or malformed.
func (g GeneralInfo) ValidUntil() time.Time {
	d, err := time.Parse("2006-01-02", g.Date)
	if err != nil {
		return time.Time{}
	}
	return d.AddDate(0, 0, g.ValidityDays)
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite returns v, or 0 when v is NaN or infinite.
func Finite(v float64) float64 {
	if !IsFinite(v) {
		return 0
	}
	return v
}

// NonNegative returns v clamped to a finite value >= 0.
func NonNegative(v float64) float64 {
	v = Finite(v)
	if v < 0 {
		return 0
	}
	return v
}

// UniqueIDs reports ErrDuplicateID when two ids repeat.
func UniqueIDs(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return ErrDuplicateID
		}
		seen[id] = struct{}{}
	}
	return nil
}
