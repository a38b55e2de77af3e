package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"orcamentos/internal/log"
)

// Outcome reports what Save did with a value. Callers are free to ignore it.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeUnavailable
	OutcomeSerializationError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeSerializationError:
		return "serialization_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// DefaultWriteTimeout bounds a single background Put.
const DefaultWriteTimeout = 5 * time.Second

// Store serializes values to JSON and writes them to a KV from one background
// goroutine. Pending writes are coalesced per key, so only the latest value of
// a key is ever written and writes of a key happen in call order.
type Store struct {
	kv      KV
	logger  *log.Logger
	timeout time.Duration

	mu       sync.Mutex
	pending  map[string][]byte
	order    []string
	inflight map[string][]byte
	closed   bool
	written  func(key string)

	wake  chan struct{}
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

// NewStore starts the background writer. A nil kv yields a store whose saves
// all report OutcomeUnavailable and whose loads find nothing.
func NewStore(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Store{
		kv:       kv,
		logger:   logger.WithComponent(log.ComponentStorage),
		timeout:  DefaultWriteTimeout,
		pending:  map[string][]byte{},
		inflight: map[string][]byte{},
		wake:     make(chan struct{}, 1),
		flush:    make(chan chan struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Save queues v to be written under key and returns immediately.
func (s *Store) Save(key string, v any) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("State serialization panicked", log.FieldKey, key, log.FieldError, fmt.Sprint(r))
			out = OutcomeSerializationError
		}
	}()

	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("State serialization failed", log.FieldKey, key, log.FieldError, err)
		return OutcomeSerializationError
	}

	s.mu.Lock()
	if s.closed || s.kv == nil {
		s.mu.Unlock()
		return OutcomeUnavailable
	}
	if _, ok := s.pending[key]; !ok {
		s.order = append(s.order, key)
	}
	s.pending[key] = b
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return OutcomeOK
}

// OnWritten registers fn to run on the writer goroutine after each
// successful write of a key.
func (s *Store) OnWritten(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = fn
}

// Load decodes the latest value of key into dst. It reports false when the
// key is absent, the store is unavailable or the stored JSON does not parse;
// dst is left untouched in that case.
func (s *Store) Load(ctx context.Context, key string, dst any) bool {
	s.mu.Lock()
	b, ok := s.pending[key]
	if !ok {
		b, ok = s.inflight[key]
	}
	kv := s.kv
	s.mu.Unlock()

	if !ok {
		if kv == nil {
			return false
		}
		var err error
		b, err = kv.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("No stored state", log.FieldKey, key)
			return false
		}
		if err != nil {
			s.logger.Warn("State read failed", log.FieldKey, key, log.FieldError, err)
			return false
		}
	}

	if err := json.Unmarshal(b, dst); err != nil {
		s.logger.Warn("Stored state is corrupt, ignoring", log.FieldKey, key, log.FieldError, err)
		return false
	}
	return true
}

// Flush blocks until every value saved before the call has been written.
func (s *Store) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case s.flush <- ack:
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes what is pending, stops the writer and closes the KV.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}

func (s *Store) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.drain()
		case ack := <-s.flush:
			s.drain()
			close(ack)
		case <-s.stop:
			s.drain()
			return
		}
	}
}

func (s *Store) drain() {
	s.mu.Lock()
	batch, order := s.pending, s.order
	s.pending, s.order = map[string][]byte{}, nil
	for k, v := range batch {
		s.inflight[k] = v
	}
	hook := s.written
	s.mu.Unlock()

	for _, key := range order {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.kv.Put(ctx, key, batch[key])
		cancel()
		if err != nil {
			s.logger.Warn("State write failed", log.FieldKey, key, log.FieldOperation, log.OpPersist, log.FieldError, err)
			continue
		}
		s.logger.Debug("State written", log.FieldKey, key, log.FieldBytes, len(batch[key]))
		if hook != nil {
			hook(key)
		}
	}

	s.mu.Lock()
	for _, key := range order {
		delete(s.inflight, key)
	}
	s.mu.Unlock()
}
