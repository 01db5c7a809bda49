package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type captureSender struct {
	mu     sync.Mutex
	events []PriceChangeEvent
}

func (s *captureSender) SendPriceChange(ctx context.Context, ev PriceChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSender) delivered() []PriceChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PriceChangeEvent(nil), s.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(id uint, recipient string) PriceChangeEvent {
	return PriceChangeEvent{
		ProductID:   id,
		ProductName: "Standing Desk",
		OldPrice:    decimal.RequireFromString("299.99"),
		NewPrice:    decimal.RequireFromString("249.99"),
		Recipient:   recipient,
	}
}

func TestDispatcherDeliversQueuedEvents(t *testing.T) {
	sender := &captureSender{}
	d := NewQueuedPriceChangeDispatcher(sender, 4, discardLogger())
	d.Start()

	if !d.Dispatch(testEvent(1, "owner@example.com")) {
		t.Fatal("dispatch rejected with free queue capacity")
	}
	d.Close(time.Second)

	events := sender.delivered()
	if len(events) != 1 {
		t.Fatalf("expected one delivery, got %d", len(events))
	}
	if events[0].ProductID != 1 || events[0].Recipient != "owner@example.com" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestDispatcherProceedsOnMalformedRecipient(t *testing.T) {
	sender := &captureSender{}
	d := NewQueuedPriceChangeDispatcher(sender, 4, discardLogger())
	d.Start()

	if !d.Dispatch(testEvent(1, "not-an-email")) {
		t.Fatal("malformed recipient must not block the dispatch")
	}
	d.Close(time.Second)

	events := sender.delivered()
	if len(events) != 1 {
		t.Fatalf("expected delivery attempt despite malformed recipient, got %d", len(events))
	}
	if events[0].Recipient != "not-an-email" {
		t.Fatalf("recipient rewritten: %q", events[0].Recipient)
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	sender := &captureSender{}
	d := NewQueuedPriceChangeDispatcher(sender, 4, discardLogger())
	d.Start()
	d.Close(time.Second)

	if d.Dispatch(testEvent(1, "owner@example.com")) {
		t.Fatal("dispatch after close must be rejected")
	}
	if len(sender.delivered()) != 0 {
		t.Fatal("no delivery expected after close")
	}
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sender := &captureSender{}
	d := NewQueuedPriceChangeDispatcher(sender, 1, discardLogger())

	// Worker not started yet, so the second event finds the queue full.
	if !d.Dispatch(testEvent(1, "owner@example.com")) {
		t.Fatal("first dispatch should be accepted")
	}
	if d.Dispatch(testEvent(2, "owner@example.com")) {
		t.Fatal("second dispatch should be dropped")
	}

	d.Start()
	d.Close(time.Second)

	events := sender.delivered()
	if len(events) != 1 || events[0].ProductID != 1 {
		t.Fatalf("expected only the first event delivered, got %+v", events)
	}
}
