package notify

import (
	"testing"
	"time"
)

func TestNotifySetsCurrentMessage(t *testing.T) {
	c := New(DefaultTTL)

	cmd := c.Notify(KindSuccess, "Project created")
	if cmd == nil {
		t.Fatal("Notify returned no expiry command")
	}

	msg := c.Current()
	if msg == nil || msg.Text != "Project created" || msg.Kind != KindSuccess {
		t.Errorf("current = %+v", msg)
	}
}

func TestNewMessageReplacesPendingOne(t *testing.T) {
	c := New(DefaultTTL)

	c.Notify(KindInfo, "first")
	c.Notify(KindError, "second")

	msg := c.Current()
	if msg == nil || msg.Text != "second" {
		t.Fatalf("current = %+v, want the replacement", msg)
	}
}

func TestSupersededTimerDoesNotClearNewerMessage(t *testing.T) {
	c := New(DefaultTTL)

	c.Notify(KindInfo, "first")
	c.Notify(KindInfo, "second")

	// The first message got sequence 1; deliver its tick after it was
	// replaced.
	c.Expire(ExpiredMsg{Seq: 1})

	if msg := c.Current(); msg == nil || msg.Text != "second" {
		t.Errorf("newer message cleared by stale timer: %+v", msg)
	}
}

func TestMatchingTimerClearsMessage(t *testing.T) {
	c := New(DefaultTTL)

	c.Notify(KindSuccess, "done")
	c.Expire(ExpiredMsg{Seq: 1})

	if msg := c.Current(); msg != nil {
		t.Errorf("message not cleared: %+v", msg)
	}
}

func TestCurrentExpiresLazily(t *testing.T) {
	c := New(DefaultTTL)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Notify(KindInfo, "transient")

	c.now = func() time.Time { return base.Add(DefaultTTL + time.Second) }
	if msg := c.Current(); msg != nil {
		t.Errorf("message visible past expiry: %+v", msg)
	}
}
