package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type failingKV struct {
	mu    sync.Mutex
	puts  int
	value []byte
}

func (f *failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (f *failingKV) Put(_ context.Context, _ string, v []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.value = v
	return errors.New("disk on fire")
}

func (f *failingKV) Close() error { return nil }

type countingKV struct {
	*MemoryKV
	mu   sync.Mutex
	puts map[string]int
	gate chan struct{}
}

func (c *countingKV) Put(ctx context.Context, key string, v []byte) error {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	c.puts[key]++
	c.mu.Unlock()
	return c.MemoryKV.Put(ctx, key, v)
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	s := NewStore(NewMemoryKV(), nil)
	defer s.Close()

	in := []string{"a", "b"}
	if got := s.Save(KeyCatalog, in); got != OutcomeOK {
		t.Fatalf("Save() = %v, want ok", got)
	}
	flush(t, s)

	var out []string
	if !s.Load(context.Background(), KeyCatalog, &out) {
		t.Fatal("expected value to load")
	}
	if len(out) != 2 || out[0] != "a" || out[1] != "b" {
		t.Fatalf("unexpected value %v", out)
	}
}

func TestStoreLoadMissingAndCorrupt(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Put(context.Background(), KeyItems, []byte("{not json"))
	s := NewStore(kv, nil)
	defer s.Close()

	dst := []string{"keep"}
	if s.Load(context.Background(), KeyGeneral, &dst) {
		t.Fatal("missing key must not load")
	}
	if s.Load(context.Background(), KeyItems, &dst) {
		t.Fatal("corrupt value must not load")
	}
	if len(dst) != 1 || dst[0] != "keep" {
		t.Fatalf("dst modified: %v", dst)
	}
}

func TestStoreSaveOutcomes(t *testing.T) {
	s := NewStore(NewMemoryKV(), nil)

	if got := s.Save(KeyCatalog, make(chan int)); got != OutcomeSerializationError {
		t.Fatalf("channel Save() = %v, want serialization error", got)
	}
	if got := s.Save(KeyCatalog, map[string]any{"x": func() {}}); got != OutcomeSerializationError {
		t.Fatalf("func Save() = %v, want serialization error", got)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := s.Save(KeyCatalog, 1); got != OutcomeUnavailable {
		t.Fatalf("Save() after close = %v, want unavailable", got)
	}

	nilStore := NewStore(nil, nil)
	defer nilStore.Close()
	if got := nilStore.Save(KeyCatalog, 1); got != OutcomeUnavailable {
		t.Fatalf("Save() on nil kv = %v, want unavailable", got)
	}
	var v int
	if nilStore.Load(context.Background(), KeyCatalog, &v) {
		t.Fatal("nil kv must not load")
	}
}

func TestStoreWriteFailureIsSwallowed(t *testing.T) {
	kv := &failingKV{}
	s := NewStore(kv, nil)
	defer s.Close()

	if got := s.Save(KeyItems, []int{1}); got != OutcomeOK {
		t.Fatalf("Save() = %v, want ok", got)
	}
	flush(t, s)

	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.puts != 1 {
		t.Fatalf("expected one write attempt, got %d", kv.puts)
	}
}

func TestStoreCoalescesLatestValue(t *testing.T) {
	gate := make(chan struct{})
	kv := &countingKV{MemoryKV: NewMemoryKV(), puts: map[string]int{}, gate: gate}
	s := NewStore(kv, nil)
	defer s.Close()

	// The first write blocks on the gate; everything saved meanwhile
	// collapses into a single pending value.
	s.Save(KeyCatalog, 0)
	time.Sleep(20 * time.Millisecond)
	for i := 1; i <= 10; i++ {
		s.Save(KeyCatalog, i)
	}

	var mid int
	if !s.Load(context.Background(), KeyCatalog, &mid) || mid != 10 {
		t.Fatalf("Load() should see the latest pending value, got %d", mid)
	}

	close(gate)
	flush(t, s)

	var got int
	if !s.Load(context.Background(), KeyCatalog, &got) || got != 10 {
		t.Fatalf("expected latest value 10, got %d", got)
	}
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.puts[KeyCatalog] > 2 {
		t.Fatalf("expected at most 2 writes, got %d", kv.puts[KeyCatalog])
	}
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orcamentos.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("NewSQLiteKV() error = %v", err)
	}
	ctx := context.Background()

	if _, err := kv.Get(ctx, KeyCatalog); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := kv.Put(ctx, KeyCatalog, []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.Put(ctx, KeyCatalog, []byte(`[1,2]`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := kv.Get(ctx, KeyCatalog)
	if err != nil || string(got) != `[1,2]` {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	if err := kv.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening runs migrations again and keeps the data.
	kv2, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()
	got, err = kv2.Get(ctx, KeyCatalog)
	if err != nil || string(got) != `[1,2]` {
		t.Fatalf("after reopen Get() = %q, %v", got, err)
	}
}

func TestStoreOnSQLitePersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := NewStore(kv, nil)
	s.Save(KeyGeneral, map[string]string{"cliente": "Maria"})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	kv2, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2 := NewStore(kv2, nil)
	defer s2.Close()
	var got map[string]string
	if !s2.Load(context.Background(), KeyGeneral, &got) || got["cliente"] != "Maria" {
		t.Fatalf("unexpected state after restart: %v", got)
	}
}

func TestStoreOnWrittenHook(t *testing.T) {
	s := NewStore(NewMemoryKV(), nil)
	defer s.Close()

	var mu sync.Mutex
	var keys []string
	s.OnWritten(func(key string) {
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
	})

	s.Save(KeyItems, []int{1})
	flush(t, s)

	mu.Lock()
	defer mu.Unlock()
	if len(keys) != 1 || keys[0] != KeyItems {
		t.Fatalf("unexpected hook calls: %v", keys)
	}
}

func TestSQLiteKVUsesWAL(t *testing.T) {
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "wal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteKV() error = %v", err)
	}
	defer kv.Close()

	var mode string
	if err := kv.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}
