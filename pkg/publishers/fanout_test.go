package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil || !strings.Contains(err.Error(), "http publisher[bad]") {
		t.Fatalf("expected aggregated error naming the failed sink, got %v", err)
	}
}

type slowPublisher struct {
	stubPublisher
	release chan struct{}
}

func (s *slowPublisher) Publish(ctx context.Context, evt Event) error {
	<-s.release
	return s.stubPublisher.Publish(ctx, evt)
}

func TestFanoutDeliversConcurrently(t *testing.T) {
	release := make(chan struct{})
	slow := &slowPublisher{stubPublisher: stubPublisher{id: "slow", typ: TypeHTTP}, release: release}
	fast := &signalPublisher{stubPublisher: stubPublisher{id: "fast", typ: TypeSQS}, done: make(chan struct{})}

	result := make(chan int, 1)
	go func() {
		n, _ := NewFanout([]Publisher{slow, fast}).Publish(context.Background(), Event{})
		result <- n
	}()

	select {
	case <-fast.done:
	case <-time.After(time.Second):
		t.Fatalf("fast publisher waited on the slow one")
	}
	close(release)
	if n := <-result; n != 2 {
		t.Fatalf("delivered = %d", n)
	}
}

type signalPublisher struct {
	stubPublisher
	done chan struct{}
}

func (s *signalPublisher) Publish(ctx context.Context, evt Event) error {
	defer close(s.done)
	return s.stubPublisher.Publish(ctx, evt)
}

func TestEmptyFanout(t *testing.T) {
	var nilFanout *Fanout
	if n, err := nilFanout.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout = %d, %v", n, err)
	}
	if err := nilFanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

type closingPublisher struct {
	stubPublisher
	closed bool
}

func (c *closingPublisher) Close() error {
	c.closed = true
	return nil
}

func TestFanoutCloseReleasesClients(t *testing.T) {
	cp := &closingPublisher{stubPublisher: stubPublisher{id: "pubsub", typ: TypeGCPPubSub}}
	fanout := NewFanout([]Publisher{&stubPublisher{id: "http", typ: TypeHTTP}, cp, nil})

	if fanout.Size() != 2 {
		t.Fatalf("nil publishers should be skipped, size=%d", fanout.Size())
	}
	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !cp.closed {
		t.Fatalf("expected closer to be called")
	}
}
