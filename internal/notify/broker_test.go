package notify

import (
	"context"
	"testing"
	"time"
)

func recv(t *testing.T, s *Subscription) bool {
	t.Helper()
	select {
	case _, ok := <-s.C:
		return ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for signal")
		return false
	}
}

func pending(s *Subscription) bool {
	select {
	case <-s.C:
		return true
	default:
		return false
	}
}

func TestBroker_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroker()
	s1 := b.Subscribe()
	s2 := b.Subscribe()

	if err := b.Publish(context.Background(), Event{CategoryID: "cat1"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if !recv(t, s1) || !recv(t, s2) {
		t.Fatal("subscribers did not receive the signal")
	}
}

func TestBroker_CoalescesBursts(t *testing.T) {
	b := NewBroker()
	s := b.Subscribe()

	for i := 0; i < 5; i++ {
		_ = b.Publish(context.Background(), Event{})
	}

	if !pending(s) {
		t.Fatal("expected one pending signal")
	}
	if pending(s) {
		t.Fatal("burst should have merged into a single signal")
	}
}

func TestSubscription_Close(t *testing.T) {
	b := NewBroker()
	s := b.Subscribe()

	s.Close()
	s.Close() // idempotent

	if b.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", b.Subscribers())
	}
	if _, ok := <-s.C; ok {
		t.Error("closed subscription channel should be closed")
	}

	// publishing after unsubscribe must not panic
	_ = b.Publish(context.Background(), Event{})
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker()
	s := b.Subscribe()

	b.Close()

	if _, ok := <-s.C; ok {
		t.Error("subscription should be closed with the broker")
	}

	late := b.Subscribe()
	if _, ok := <-late.C; ok {
		t.Error("subscribing to a closed broker should yield a closed channel")
	}
	late.Close()
}
