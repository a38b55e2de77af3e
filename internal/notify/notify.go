// Package notify holds the single transient notice shown to the user.
package notify

import (
	"sync"
	"time"
)

// Kind classifies a notice for display.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Standard display durations.
const (
	ShortTTL = 1200 * time.Millisecond
	LongTTL  = 1500 * time.Millisecond
)

// Notice is a user-facing message. A zero TTL keeps it until the next one.
type Notice struct {
	Kind Kind          `json:"kind"`
	Text string        `json:"text"`
	TTL  time.Duration `json:"ttl"`
}

// Notifier keeps at most one notice. Each Show overwrites the previous notice
// and cancels its pending expiry.
type Notifier struct {
	mu      sync.Mutex
	current *Notice
	gen     uint64
	timer   *time.Timer
}

func New() *Notifier {
	return &Notifier{}
}

// Show replaces the current notice.
func (n *Notifier) Show(kind Kind, text string, ttl time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = &Notice{Kind: kind, Text: text, TTL: ttl}
	if ttl <= 0 {
		return
	}

	gen := n.gen
	n.timer = time.AfterFunc(ttl, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		// A newer notice may have replaced this one after the timer fired.
		if n.gen == gen {
			n.current = nil
			n.timer = nil
		}
	})
}

func (n *Notifier) Info(text string, ttl time.Duration)    { n.Show(KindInfo, text, ttl) }
func (n *Notifier) Success(text string, ttl time.Duration) { n.Show(KindSuccess, text, ttl) }
func (n *Notifier) Error(text string, ttl time.Duration)   { n.Show(KindError, text, ttl) }

// Current returns the visible notice, if any.
func (n *Notifier) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notice{}, false
	}
	return *n.current, true
}

// Clear removes the current notice immediately.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = nil
}
