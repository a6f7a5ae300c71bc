// Package notify manages the single transient banner message layered
// over session and sync outcomes. A new message replaces the pending
// one and restarts the expiry timer.
package notify

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Kind classifies a banner message.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
	KindInfo
)

// DefaultTTL is how long a message stays visible when no TTL is
// configured.
const DefaultTTL = 4 * time.Second

// Message is the current banner content. Not persisted.
type Message struct {
	Text      string
	Kind      Kind
	Seq       uint64
	ExpiresAt time.Time
}

// ExpiredMsg is a tea.Msg delivered when a message's timer fires. It
// carries the sequence of the message it belongs to so a superseded
// timer cannot clear a newer message.
type ExpiredMsg struct {
	Seq uint64
}

// Center holds at most one message at a time.
type Center struct {
	mu      sync.Mutex
	ttl     time.Duration
	seq     uint64
	current *Message
	now     func() time.Time
}

// New creates a center whose messages expire after ttl. A
// non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl: ttl,
		now: time.Now,
	}
}

// Notify replaces the current message and returns the command that
// delivers its expiry tick.
func (c *Center) Notify(kind Kind, text string) tea.Cmd {
	c.mu.Lock()
	c.seq++
	msg := Message{
		Text:      text,
		Kind:      kind,
		Seq:       c.seq,
		ExpiresAt: c.now().Add(c.ttl),
	}
	c.current = &msg
	c.mu.Unlock()

	seq := msg.Seq
	return tea.Tick(c.ttl, func(time.Time) tea.Msg {
		return ExpiredMsg{Seq: seq}
	})
}

// Expire clears the current message if the tick belongs to it. Ticks
// from replaced messages are ignored.
func (c *Center) Expire(msg ExpiredMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Seq == msg.Seq {
		c.current = nil
	}
}

// Current returns the visible message, or nil when none is pending or
// the pending one has passed its expiry.
func (c *Center) Current() *Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	if c.now().After(c.current.ExpiresAt) {
		c.current = nil
		return nil
	}
	msg := *c.current
	return &msg
}

// Clear drops the current message unconditionally.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}
