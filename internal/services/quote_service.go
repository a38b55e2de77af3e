// Package services wires the catalog, the budget ledger and the quote
// metadata to persistence and change events.
package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"orcamentos/internal/amqp"
	"orcamentos/internal/budget"
	"orcamentos/internal/catalog"
	"orcamentos/internal/core"
	"orcamentos/internal/csvcodec"
	"orcamentos/internal/log"
	"orcamentos/internal/notify"
	"orcamentos/internal/storage"
)

// EventPublisher receives a summary of every persisted change.
type EventPublisher interface {
	PublishStateChanged(ctx context.Context, msg *amqp.StateChangedMessage) error
	Close() error
}

type Options struct {
	DeleteDelay  time.Duration
	RestoreDelay time.Duration
	Generator    catalog.Generator
	Now          func() time.Time
	Logger       *log.Logger
}

// QuoteService owns the quote state of the single local user.
type QuoteService struct {
	store    *storage.Store
	events   EventPublisher
	notifier *notify.Notifier
	catalog  *catalog.Manager
	ledger   *budget.Ledger
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	general core.GeneralInfo
}

// NewQuoteService restores the persisted state from store. Missing or
// unreadable keys fall back to a generated catalog, an empty budget and a
// blank quote dated today; fallbacks are written back right away.
// events may be nil.
func NewQuoteService(ctx context.Context, store *storage.Store, events EventPublisher, opts Options) *QuoteService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if len(opts.Generator.Names) == 0 {
		opts.Generator = catalog.Generator{Names: catalog.DefaultNames, Price: catalog.RandomPrice}
	}

	s := &QuoteService{
		store:    store,
		events:   events,
		notifier: notify.New(),
		logger:   opts.Logger.WithComponent(log.ComponentQuote),
		now:      opts.Now,
	}

	var services []core.Service
	catalogFound := store.Load(ctx, storage.KeyCatalog, &services)
	if !catalogFound {
		services = opts.Generator.Generate()
		s.logger.Info("Using example catalog", log.FieldCount, len(services))
	}
	s.catalog = catalog.New(services, s.notifier, catalog.Options{
		DeleteDelay:  opts.DeleteDelay,
		RestoreDelay: opts.RestoreDelay,
		Generator:    opts.Generator,
		OnChange: func(snapshot []core.Service) {
			s.store.Save(storage.KeyCatalog, snapshot)
		},
	})

	var items []core.BudgetItem
	itemsFound := store.Load(ctx, storage.KeyItems, &items)
	s.ledger = budget.New(items, func(snapshot []core.BudgetItem) {
		s.store.Save(storage.KeyItems, snapshot)
	})

	general := core.NewGeneralInfo(s.now())
	generalFound := store.Load(ctx, storage.KeyGeneral, &general)
	s.general = general.Sanitize()
	if s.general.Date == "" {
		s.general.Date = s.now().Format("2006-01-02")
	}

	if events != nil {
		store.OnWritten(s.publishChange)
	}

	if !catalogFound {
		store.Save(storage.KeyCatalog, s.catalog.Services())
	}
	if !itemsFound {
		store.Save(storage.KeyItems, s.ledger.Items())
	}
	if !generalFound {
		store.Save(storage.KeyGeneral, s.general)
	}

	return s
}

func (s *QuoteService) Catalog() *catalog.Manager  { return s.catalog }
func (s *QuoteService) Budget() *budget.Ledger     { return s.ledger }
func (s *QuoteService) Notifier() *notify.Notifier { return s.notifier }

func (s *QuoteService) General() core.GeneralInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.general
}

// UpdateGeneral replaces the quote metadata. Amounts are coerced to finite
// non-negative values; the date is kept as typed.
func (s *QuoteService) UpdateGeneral(g core.GeneralInfo) core.GeneralInfo {
	g = g.Sanitize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.general = g
	s.store.Save(storage.KeyGeneral, g)
	return g
}

// AddToBudget snapshots the catalog service serviceID into the budget.
func (s *QuoteService) AddToBudget(serviceID string) (core.BudgetItem, error) {
	svc, err := s.catalog.Get(serviceID)
	if err != nil {
		return core.BudgetItem{}, err
	}
	return s.ledger.AddFromService(svc), nil
}

// AddSelectedToBudget snapshots the selected catalog service.
func (s *QuoteService) AddSelectedToBudget() (core.BudgetItem, error) {
	svc, ok := s.catalog.Selected()
	if !ok {
		return core.BudgetItem{}, fmt.Errorf("no service selected: %w", catalog.ErrServiceNotFound)
	}
	return s.ledger.AddFromService(svc), nil
}

// ImportFile decodes an uploaded CSV or XLSX catalog and prepends its rows.
// Unreadable files are treated like files without usable rows.
func (s *QuoteService) ImportFile(name string, r io.Reader) (int, error) {
	var (
		rows []core.Service
		err  error
	)
	if csvcodec.IsWorkbook(name) {
		rows, err = csvcodec.DecodeXLSX(r)
	} else {
		rows, err = csvcodec.DecodeReader(r)
	}
	if err != nil {
		s.logger.Warn("Import file unreadable", "file", name, log.FieldError, err)
		rows = nil
	}

	n, err := s.catalog.Import(rows)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", name, err)
	}
	s.logger.Info("Catalog imported", "file", name, log.FieldCount, n)
	return n, nil
}

func (s *QuoteService) Totals() core.Totals {
	return s.ledger.Totals(s.General())
}

// Snapshot returns the current quote for rendering and export.
func (s *QuoteService) Snapshot() core.Quote {
	return core.NewQuote(s.ledger.Items(), s.General())
}

// Flush waits for pending writes.
func (s *QuoteService) Flush(ctx context.Context) error {
	return s.store.Flush(ctx)
}

func (s *QuoteService) publishChange(key string) {
	msg := s.changeMessage(key)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.PublishStateChanged(ctx, msg); err != nil {
		s.logger.Warn("Failed to publish state change", log.FieldKey, key, log.FieldOperation, log.OpPublish, log.FieldError, err)
	}
}

// changeMessage summarizes key: the catalog reports its size, the budget
// keys report the item count and the final total.
func (s *QuoteService) changeMessage(key string) *amqp.StateChangedMessage {
	switch key {
	case storage.KeyCatalog:
		return amqp.NewStateChangedMessage(key, len(s.catalog.Services()), 0)
	default:
		q := s.Snapshot()
		return amqp.NewStateChangedMessage(key, len(q.Items), q.Totals.Final)
	}
}

// Close flushes pending writes and closes the store and the event publisher.
func (s *QuoteService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close quote service: %v", errs)
	}

	return nil
}

// Answer returns a confirmation that always gives the same reply.
func Answer(yes bool) func(string) bool {
	return func(string) bool { return yes }
}
