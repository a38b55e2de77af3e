// Package budget owns the line items of the quote being assembled.
package budget

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"orcamentos/internal/core"
)

// ClearPrompt is the question asked before every item is dropped.
const ClearPrompt = "Limpar todo o orçamento?"

var ErrItemNotFound = errors.New("budget item not found")

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// Patch holds the fields to change on an item. Nil fields are kept.
type Patch struct {
	Name  *string
	Unit  *string
	Price *float64
	// Qty is a float so that fractional and non-finite input can be
	// told apart from a valid count.
	Qty *float64
}

type Ledger struct {
	mu       sync.Mutex
	items    []core.BudgetItem
	onChange func([]core.BudgetItem)
}

// New returns a ledger holding initial. Items with a quantity below one are
// counted as one and repeated ids are replaced.
func New(initial []core.BudgetItem, onChange func([]core.BudgetItem)) *Ledger {
	items := make([]core.BudgetItem, 0, len(initial))
	ids := make([]string, 0, len(initial))
	for _, it := range initial {
		if it.Qty < 1 {
			it.Qty = 1
		}
		it.Price = core.Finite(it.Price)
		items = append(items, it)
		ids = append(ids, it.ID)
	}
	if core.UniqueIDs(ids) != nil || slices.Contains(ids, "") {
		seen := make(map[string]struct{}, len(items))
		for i := range items {
			if _, dup := seen[items[i].ID]; items[i].ID == "" || dup {
				items[i].ID = uuid.NewString()
			}
			seen[items[i].ID] = struct{}{}
		}
	}
	return &Ledger{items: items, onChange: onChange}
}

// Items returns the current items, newest first.
func (l *Ledger) Items() []core.BudgetItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items
}

// AddFromService prepends a snapshot of s with quantity one. Later edits to
// the service do not reach the snapshot.
func (l *Ledger) AddFromService(s core.Service) core.BudgetItem {
	it := core.BudgetItem{
		ID:    uuid.NewString(),
		Name:  s.Name,
		Unit:  s.Unit,
		Price: core.NonNegative(s.Price),
		Qty:   1,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitLocked(append([]core.BudgetItem{it}, l.items...))
	return it
}

// Update merges p into the item with the given id. A quantity that is not a
// finite number of at least one removes the item; removed reports that.
func (l *Ledger) Update(id string, p Patch) (item core.BudgetItem, removed bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return core.BudgetItem{}, false, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	it := l.items[i]

	if p.Qty != nil {
		q := *p.Qty
		if !core.IsFinite(q) || math.Floor(q) < 1 {
			l.commitLocked(without(l.items, i))
			return it, true, nil
		}
		it.Qty = int(math.Floor(q))
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return core.BudgetItem{}, false, core.ErrEmptyName
		}
		it.Name = name
	}
	if p.Unit != nil {
		it.Unit = strings.TrimSpace(*p.Unit)
		if it.Unit == "" {
			it.Unit = core.DefaultUnit
		}
	}
	if p.Price != nil {
		it.Price = core.NonNegative(*p.Price)
	}

	next := append([]core.BudgetItem(nil), l.items...)
	next[i] = it
	l.commitLocked(next)
	return it, false, nil
}

func (l *Ledger) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	l.commitLocked(without(l.items, i))
	return nil
}

// Clear drops every item once confirm accepts ClearPrompt and reports
// whether it did.
func (l *Ledger) Clear(confirm ConfirmFunc) bool {
	if confirm == nil || !confirm(ClearPrompt) {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitLocked([]core.BudgetItem{})
	return true
}

// Totals computes the quote summary from the current items.
func (l *Ledger) Totals(g core.GeneralInfo) core.Totals {
	return core.ComputeTotals(l.Items(), g)
}

func (l *Ledger) commitLocked(next []core.BudgetItem) {
	l.items = next
	if l.onChange != nil {
		l.onChange(next)
	}
}

func (l *Ledger) indexLocked(id string) int {
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func without(items []core.BudgetItem, i int) []core.BudgetItem {
	out := make([]core.BudgetItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
