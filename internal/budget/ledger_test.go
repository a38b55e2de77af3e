package budget

import (
	"errors"
	"math"
	"testing"

	"orcamentos/internal/core"
)

func ptr[T any](v T) *T { return &v }

func TestAddFromServiceIsSnapshot(t *testing.T) {
	l := New(nil, nil)
	svc := core.Service{ID: "svc", Name: "Trocar Lâmpada", Unit: "unitário", Price: 80}

	first := l.AddFromService(svc)
	svc.Price = 999
	second := l.AddFromService(svc)

	items := l.Items()
	if len(items) != 2 || items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("new items must be prepended, got %+v", items)
	}
	if first.ID == svc.ID || first.ID == second.ID {
		t.Fatal("each budget item needs its own id")
	}
	if items[1].Price != 80 || items[1].Qty != 1 {
		t.Fatalf("snapshot changed: %+v", items[1])
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name        string
		patch       Patch
		wantRemoved bool
		wantQty     int
		wantPrice   float64
		wantName    string
		wantErr     error
	}{
		{name: "floor quantity", patch: Patch{Qty: ptr(3.9)}, wantQty: 3, wantPrice: 100, wantName: "Pintura"},
		{name: "zero removes", patch: Patch{Qty: ptr(0.0)}, wantRemoved: true},
		{name: "negative removes", patch: Patch{Qty: ptr(-2.0)}, wantRemoved: true},
		{name: "fraction below one removes", patch: Patch{Qty: ptr(0.4)}, wantRemoved: true},
		{name: "NaN removes", patch: Patch{Qty: ptr(math.NaN())}, wantRemoved: true},
		{name: "infinity removes", patch: Patch{Qty: ptr(math.Inf(1))}, wantRemoved: true},
		{name: "price and name", patch: Patch{Price: ptr(42.5), Name: ptr(" Pintura de Teto ")}, wantQty: 2, wantPrice: 42.5, wantName: "Pintura de Teto"},
		{name: "negative price clamps", patch: Patch{Price: ptr(-1.0)}, wantQty: 2, wantPrice: 0, wantName: "Pintura"},
		{name: "empty name rejected", patch: Patch{Name: ptr("  ")}, wantErr: core.ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New([]core.BudgetItem{{ID: "x", Name: "Pintura", Unit: "metro", Price: 100, Qty: 2}}, nil)
			got, removed, err := l.Update("x", tt.patch)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if l.Items()[0].Name != "Pintura" {
					t.Fatal("failed update must not mutate")
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if removed != tt.wantRemoved {
				t.Fatalf("removed = %v, want %v", removed, tt.wantRemoved)
			}
			if removed {
				if len(l.Items()) != 0 {
					t.Fatal("item should be gone")
				}
				return
			}
			if got.Qty != tt.wantQty || got.Price != tt.wantPrice || got.Name != tt.wantName {
				t.Fatalf("unexpected item %+v", got)
			}
			if l.Items()[0] != got {
				t.Fatalf("stored %+v, returned %+v", l.Items()[0], got)
			}
		})
	}
}

func TestUpdateAndRemoveUnknown(t *testing.T) {
	l := New(nil, nil)
	if _, _, err := l.Update("nope", Patch{}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if err := l.Remove("nope"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	l := New([]core.BudgetItem{{ID: "a", Name: "A", Qty: 1}, {ID: "b", Name: "B", Qty: 1}}, nil)
	if err := l.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if items := l.Items(); len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestClear(t *testing.T) {
	var changes int
	l := New([]core.BudgetItem{{ID: "a", Name: "A", Qty: 1}}, func([]core.BudgetItem) { changes++ })

	var asked string
	if l.Clear(func(p string) bool { asked = p; return false }) {
		t.Fatal("declined clear must report false")
	}
	if asked != ClearPrompt || len(l.Items()) != 1 || changes != 0 {
		t.Fatalf("declined clear mutated state: prompt=%q items=%d changes=%d", asked, len(l.Items()), changes)
	}
	if l.Clear(nil) {
		t.Fatal("nil confirm counts as declined")
	}

	if !l.Clear(func(string) bool { return true }) {
		t.Fatal("accepted clear must report true")
	}
	if len(l.Items()) != 0 || changes != 1 {
		t.Fatalf("expected empty ledger and one change, got %d items %d changes", len(l.Items()), changes)
	}
}

func TestNewSanitizesStoredItems(t *testing.T) {
	l := New([]core.BudgetItem{
		{ID: "a", Name: "A", Qty: 0, Price: math.NaN()},
		{ID: "a", Name: "B", Qty: 2, Price: 10},
	}, nil)
	items := l.Items()
	if items[0].Qty != 1 || items[0].Price != 0 {
		t.Fatalf("unexpected sanitized item %+v", items[0])
	}
	if items[0].ID == items[1].ID {
		t.Fatal("duplicate ids must be replaced")
	}

	kept := New([]core.BudgetItem{{ID: "x", Name: "X", Qty: 1}, {ID: "y", Name: "Y", Qty: 1}}, nil).Items()
	if kept[0].ID != "x" || kept[1].ID != "y" {
		t.Fatalf("unique ids must be kept, got %+v", kept)
	}
	if blank := New([]core.BudgetItem{{Name: "Z", Qty: 1}}, nil).Items(); blank[0].ID == "" {
		t.Fatal("empty id must be replaced")
	}
}

func TestTotals(t *testing.T) {
	l := New([]core.BudgetItem{
		{ID: "a", Name: "A", Price: 100, Qty: 2},
		{ID: "b", Name: "B", Price: 50, Qty: 1},
	}, nil)
	got := l.Totals(core.GeneralInfo{TravelFee: 10, Surcharge: 5, Discount: 1000})
	if got.Items != 250 || got.Final != 0 {
		t.Fatalf("unexpected totals %+v", got)
	}
}
