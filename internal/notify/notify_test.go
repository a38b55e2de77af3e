package notify

import (
	"testing"
	"time"
)

func TestShowAndExpire(t *testing.T) {
	n := New()
	n.Success("Catálogo atualizado", 20*time.Millisecond)

	got, ok := n.Current()
	if !ok || got.Kind != KindSuccess || got.Text != "Catálogo atualizado" {
		t.Fatalf("unexpected notice %+v (ok=%v)", got, ok)
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := n.Current(); ok {
		t.Fatal("notice should have expired")
	}
}

func TestZeroTTLIsSticky(t *testing.T) {
	n := New()
	n.Info("Confirme a exclusão deste serviço.", 0)
	time.Sleep(30 * time.Millisecond)
	if got, ok := n.Current(); !ok || got.Kind != KindInfo {
		t.Fatalf("sticky notice disappeared: %+v", got)
	}
}

func TestNewerNoticeSurvivesOlderExpiry(t *testing.T) {
	n := New()
	n.Success("first", 20*time.Millisecond)
	n.Error("second", time.Second)

	time.Sleep(60 * time.Millisecond)
	got, ok := n.Current()
	if !ok || got.Text != "second" || got.Kind != KindError {
		t.Fatalf("expected second notice to remain, got %+v (ok=%v)", got, ok)
	}
}

func TestClear(t *testing.T) {
	n := New()
	n.Info("Excluindo…", 0)
	n.Clear()
	if _, ok := n.Current(); ok {
		t.Fatal("expected no notice after Clear")
	}
}
