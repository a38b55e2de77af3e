package core

import (
	"math"
	"testing"
	"time"
)

func TestServiceValidate(t *testing.T) {
	good := Service{ID: "a", Name: "Trocar Lâmpada", Unit: DefaultUnit, Price: 80}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Service{
		{ID: "a", Name: "  ", Price: 1},
		{ID: "a", Name: "x", Price: -1},
		{ID: "a", Name: "x", Price: math.NaN()},
	}
	for i, s := range bads {
		if err := s.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetItemSubtotal(t *testing.T) {
	it := BudgetItem{ID: "b", Name: "Pintura", Unit: "metro", Price: 35.5, Qty: 3}
	if got := it.Subtotal(); got != 106.5 {
		t.Fatalf("subtotal = %v, want 106.5", got)
	}

	it.Qty = 0
	if got := it.Subtotal(); got != 35.5 {
		t.Fatalf("zero quantity should count as one, got %v", got)
	}
}

func TestGeneralInfoDefaultsAndSanitize(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	g := NewGeneralInfo(now)
	if g.Date != "2026-10-18" || g.ValidityDays != DefaultValidityDays {
		t.Fatalf("unexpected defaults: %+v", g)
	}
	if want := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC); !g.ValidUntil().Equal(want) {
		t.Fatalf("valid until = %v, want %v", g.ValidUntil(), want)
	}

	g.TravelFee = -3
	g.Surcharge = math.Inf(1)
	g.Discount = 12
	g.ValidityDays = -1
	g.Date = " 2026-10-18 "
	g = g.Sanitize()
	if g.TravelFee != 0 || g.Surcharge != 0 || g.Discount != 12 || g.ValidityDays != 0 {
		t.Fatalf("unexpected sanitized info: %+v", g)
	}
	if g.Date != "2026-10-18" {
		t.Fatalf("date not trimmed: %q", g.Date)
	}

	g.Date = "18 de outubro"
	if !g.Sanitize().ValidUntil().IsZero() {
		t.Fatalf("free-text date must be kept without a validity end")
	}
}

func TestUniqueIDs(t *testing.T) {
	if err := UniqueIDs([]string{"a", "b"}); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := UniqueIDs([]string{"a", "b", "a"}); err != ErrDuplicateID {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}
