// Package catalog owns the list of services a quote can be built from.
//
// Every mutation replaces the services slice under the manager lock, so
// snapshots handed out by Services and View never change afterwards.
// Deleting is two-phase: the first request arms the entry, the second one
// removes it after a short fixed delay.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"

	"orcamentos/internal/core"
	"orcamentos/internal/notify"
)

// Default delays of the destructive operations.
const (
	DefaultDeleteDelay  = 30 * time.Millisecond
	DefaultRestoreDelay = 50 * time.Millisecond
)

// RestorePrompt is the question asked before the catalog is replaced.
const RestorePrompt = "Restaurar o catálogo padrão de exemplos? Isso substitui a lista atual."

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrEmptyImport     = errors.New("no usable rows to import")
	ErrRestoreBusy     = errors.New("restore already in progress")
)

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// DeleteStatus is the per-entry state of the two-phase delete.
type DeleteStatus int

const (
	StatusIdle DeleteStatus = iota
	StatusArmed
	StatusDeleting
)

func (s DeleteStatus) String() string {
	switch s {
	case StatusArmed:
		return "armed"
	case StatusDeleting:
		return "deleting"
	default:
		return "idle"
	}
}

// DeleteResult tells the caller which phase a Delete call performed.
type DeleteResult int

const (
	DeleteArmed DeleteResult = iota
	DeleteCompleted
	DeleteInProgress
)

// Options configures a Manager. Zero values select the defaults.
type Options struct {
	DeleteDelay  time.Duration
	RestoreDelay time.Duration
	Generator    Generator
	// OnChange receives every new catalog snapshot. It runs with the
	// manager lock held and must not call back into the Manager.
	OnChange func([]core.Service)
}

type Manager struct {
	mu        sync.Mutex
	services  []core.Service
	status    map[string]DeleteStatus
	filter    string
	selected  string
	restoring bool
	collator  *collate.Collator

	notifier *notify.Notifier
	opts     Options
}

// New returns a manager holding initial. Entries without an id or with a
// repeated id get a fresh one; prices are coerced to non-negative numbers
// and nameless entries are dropped.
func New(initial []core.Service, notifier *notify.Notifier, opts Options) *Manager {
	if opts.DeleteDelay <= 0 {
		opts.DeleteDelay = DefaultDeleteDelay
	}
	if opts.RestoreDelay <= 0 {
		opts.RestoreDelay = DefaultRestoreDelay
	}
	if len(opts.Generator.Names) == 0 {
		opts.Generator.Names = DefaultNames
	}
	if notifier == nil {
		notifier = notify.New()
	}

	m := &Manager{
		services: sanitize(initial, nil),
		status:   map[string]DeleteStatus{},
		collator: newCollator(),
		notifier: notifier,
		opts:     opts,
	}
	m.reconcileLocked()
	return m
}

// Defaults returns a freshly generated example catalog.
func (m *Manager) Defaults() []core.Service {
	return m.opts.Generator.Generate()
}

// Services returns the catalog in storage order.
func (m *Manager) Services() []core.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.services
}

// Get returns the service with the given id.
func (m *Manager) Get(id string) (core.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(id); i >= 0 {
		return m.services[i], nil
	}
	return core.Service{}, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
}

// Add inserts a blank service at the front and selects it.
func (m *Manager) Add() core.Service {
	s := core.Service{
		ID:    uuid.NewString(),
		Name:  core.NewServiceName,
		Unit:  core.DefaultUnit,
		Price: 0,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitLocked(append([]core.Service{s}, m.services...))
	m.selected = s.ID
	m.reconcileLocked()
	m.notifier.Success("Serviço adicionado ao catálogo", notify.ShortTTL)
	return s
}

// Edit replaces the fields of the service with the same id.
func (m *Manager) Edit(row core.Service) (core.Service, error) {
	row = coerce(row)
	if err := row.Validate(); err != nil {
		return core.Service{}, fmt.Errorf("edit %s: %w", row.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(row.ID)
	if i < 0 {
		return core.Service{}, fmt.Errorf("%w: %s", ErrServiceNotFound, row.ID)
	}
	next := append([]core.Service(nil), m.services...)
	next[i] = row
	m.commitLocked(next)
	m.reconcileLocked()
	m.notifier.Success("Catálogo atualizado", notify.ShortTTL)
	return row, nil
}

// Delete runs one step of the two-phase delete for id.
//
// The first call arms the entry and disarms any other armed entry. A second
// call waits the delete delay and removes it; the wait cannot be cancelled.
// Calls made while the removal is pending are merged into it.
func (m *Manager) Delete(id string) (DeleteResult, error) {
	m.mu.Lock()
	if m.indexLocked(id) < 0 {
		m.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}

	switch m.status[id] {
	case StatusDeleting:
		m.mu.Unlock()
		return DeleteInProgress, nil
	case StatusIdle:
		for other, st := range m.status {
			if st == StatusArmed {
				delete(m.status, other)
			}
		}
		m.status[id] = StatusArmed
		m.notifier.Info("Confirme a exclusão deste serviço.", 0)
		m.mu.Unlock()
		return DeleteArmed, nil
	}

	m.status[id] = StatusDeleting
	m.notifier.Info("Excluindo…", 0)
	m.mu.Unlock()

	time.Sleep(m.opts.DeleteDelay)

	m.mu.Lock()
	defer m.mu.Unlock()
	next := make([]core.Service, 0, len(m.services))
	for _, s := range m.services {
		if s.ID != id {
			next = append(next, s)
		}
	}
	m.commitLocked(next)
	delete(m.status, id)
	m.reconcileLocked()
	m.notifier.Success("Excluído com sucesso", notify.LongTTL)
	return DeleteCompleted, nil
}

// CancelDelete disarms id. An entry already being deleted is not affected.
func (m *Manager) CancelDelete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status[id] != StatusArmed {
		return
	}
	delete(m.status, id)
	m.notifier.Clear()
}

// Status returns the delete status of id.
func (m *Manager) Status(id string) DeleteStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[id]
}

// Import prepends rows to the catalog and returns how many were added.
// Rows without a name are skipped.
func (m *Manager) Import(rows []core.Service) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := sanitize(rows, m.services)
	if len(added) == 0 {
		m.notifier.Error("CSV vazio ou inválido", 0)
		return 0, ErrEmptyImport
	}
	m.commitLocked(append(added, m.services...))
	m.reconcileLocked()
	m.notifier.Success(fmt.Sprintf("%d serviço(s) importado(s)", len(added)), notify.LongTTL)
	return len(added), nil
}

// RestoreDefaults replaces the whole catalog with a generated example set
// once confirm accepts RestorePrompt. It reports whether the catalog was
// replaced; a declined prompt is not an error.
func (m *Manager) RestoreDefaults(confirm ConfirmFunc) (bool, error) {
	if confirm == nil || !confirm(RestorePrompt) {
		return false, nil
	}

	m.mu.Lock()
	if m.restoring {
		m.mu.Unlock()
		return false, ErrRestoreBusy
	}
	m.restoring = true
	m.mu.Unlock()

	time.Sleep(m.opts.RestoreDelay)
	fresh := m.opts.Generator.Generate()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.restoring = false
	m.commitLocked(fresh)
	m.status = map[string]DeleteStatus{}
	m.selected = ""
	if len(fresh) > 0 {
		m.selected = fresh[0].ID
	}
	m.reconcileLocked()
	m.notifier.Success("Catálogo de exemplo restaurado (50+ itens)", notify.LongTTL)
	return true, nil
}

// Restoring reports whether a restore is waiting out its delay.
func (m *Manager) Restoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restoring
}

// AttachDefaults prepends the example entries whose names are not in the
// catalog yet and returns how many were added.
func (m *Manager) AttachDefaults() int {
	fresh := m.opts.Generator.Generate()

	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[string]struct{}, len(m.services))
	for _, s := range m.services {
		existing[foldName(s.Name)] = struct{}{}
	}
	var toAdd []core.Service
	for _, s := range fresh {
		if _, ok := existing[foldName(s.Name)]; ok {
			continue
		}
		toAdd = append(toAdd, s)
	}

	if len(toAdd) == 0 {
		m.notifier.Info("Nenhum exemplo novo para anexar", notify.ShortTTL)
		return 0
	}
	m.commitLocked(append(toAdd, m.services...))
	m.reconcileLocked()
	m.notifier.Success(fmt.Sprintf("%d serviço(s) de exemplo anexado(s)", len(toAdd)), notify.LongTTL)
	return len(toAdd)
}

// SetFilter changes the view query.
func (m *Manager) SetFilter(q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = q
	m.reconcileLocked()
}

func (m *Manager) Filter() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// View returns the catalog sorted by name and narrowed by the filter.
func (m *Manager) View() []core.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	return buildView(m.collator, m.services, m.filter)
}

// Select makes id the selected entry. Only entries in the view can be
// selected.
func (m *Manager) Select(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range buildView(m.collator, m.services, m.filter) {
		if s.ID == id {
			m.selected = id
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrServiceNotFound, id)
}

// Selected returns the selected service, if any.
func (m *Manager) Selected() (core.Service, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == "" {
		return core.Service{}, false
	}
	if i := m.indexLocked(m.selected); i >= 0 {
		return m.services[i], true
	}
	return core.Service{}, false
}

func (m *Manager) commitLocked(next []core.Service) {
	m.services = next
	if m.opts.OnChange != nil {
		m.opts.OnChange(next)
	}
}

// reconcileLocked moves the selection to the first entry of the view when
// the selected entry is not visible.
func (m *Manager) reconcileLocked() {
	view := buildView(m.collator, m.services, m.filter)
	for _, s := range view {
		if s.ID == m.selected {
			return
		}
	}
	m.selected = ""
	if len(view) > 0 {
		m.selected = view[0].ID
	}
}

func (m *Manager) indexLocked(id string) int {
	for i, s := range m.services {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// coerce trims the text fields, defaults the unit and clamps the price.
func coerce(s core.Service) core.Service {
	s.Name = strings.TrimSpace(s.Name)
	s.Unit = strings.TrimSpace(s.Unit)
	if s.Unit == "" {
		s.Unit = core.DefaultUnit
	}
	s.Price = core.NonNegative(s.Price)
	return s
}

// sanitize coerces in, drops rows that still fail validation and gives a
// fresh id to rows whose id is missing or already used in taken or in.
func sanitize(in, taken []core.Service) []core.Service {
	out := make([]core.Service, 0, len(in))
	ids := make([]string, 0, len(in)+len(taken))
	for _, s := range taken {
		ids = append(ids, s.ID)
	}
	for _, s := range in {
		s = coerce(s)
		if s.Validate() != nil {
			continue
		}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if core.UniqueIDs(ids) == nil && !slices.Contains(ids, "") {
		return out
	}

	seen := make(map[string]struct{}, len(ids))
	for _, s := range taken {
		seen[s.ID] = struct{}{}
	}
	for i := range out {
		if _, dup := seen[out[i].ID]; out[i].ID == "" || dup {
			out[i].ID = uuid.NewString()
		}
		seen[out[i].ID] = struct{}{}
	}
	return out
}
