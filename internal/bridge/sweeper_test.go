package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSweeperResolvesExpired(t *testing.T) {
	table := NewCorrelationTable()
	pub := &fakePublisher{}
	s := NewSweeper(table, pub, 500*time.Millisecond, 6*time.Second)

	base := time.Now()
	s.now = func() time.Time { return base }

	handle := NewResponseHandle()
	p := &PendingCommand{
		Key:       "m1",
		Username:  "alice",
		DeviceID:  "lamp-1",
		Vendor:    "alexa",
		Handle:    handle,
		CreatedAt: base.Add(-6100 * time.Millisecond),
	}
	if err := table.Add(p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s.Sweep()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := handle.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !errors.Is(r.Err, ErrCommandTimeout) {
		t.Errorf("Result.Err = %v, want ErrCommandTimeout", r.Err)
	}
	if table.Len() != 0 {
		t.Errorf("table length after sweep = %d, want 0", table.Len())
	}

	// A timed-out command notifies the owning client.
	calls := pub.calls()
	if len(calls) != 1 {
		t.Fatalf("published %d notifications, want 1", len(calls))
	}
	if calls[0].topic != "message/alice/lamp-1" {
		t.Errorf("notification topic = %q, want message/alice/lamp-1", calls[0].topic)
	}
	var n Notification
	if err := json.Unmarshal(calls[0].payload, &n); err != nil {
		t.Fatalf("unmarshalling notification: %v", err)
	}
	if n.Severity != SeverityWarning || n.Message == "" {
		t.Errorf("notification = %+v", n)
	}
}

func TestSweeperNeverFiresBeforeDeadline(t *testing.T) {
	table := NewCorrelationTable()
	s := NewSweeper(table, nil, 500*time.Millisecond, 6*time.Second)

	base := time.Now()
	s.now = func() time.Time { return base }

	handle := NewResponseHandle()
	p := &PendingCommand{
		Key:       "m1",
		Handle:    handle,
		CreatedAt: base.Add(-5900 * time.Millisecond),
	}
	if err := table.Add(p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s.Sweep()

	if table.Len() != 1 {
		t.Error("command younger than the deadline must survive the sweep")
	}

	// The next tick lands past the deadline and must fire.
	s.now = func() time.Time { return base.Add(500 * time.Millisecond) }
	s.Sweep()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := handle.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !errors.Is(r.Err, ErrCommandTimeout) {
		t.Errorf("Result.Err = %v, want ErrCommandTimeout", r.Err)
	}
}

func TestSweeperAckWinsOverLateSweep(t *testing.T) {
	table := NewCorrelationTable()
	d := NewDispatcher(table, &fakePublisher{})
	s := NewSweeper(table, nil, 500*time.Millisecond, 6*time.Second)

	handle := NewResponseHandle()
	if err := d.Dispatch("alice", testCommand("m1"), "alexa", handle, "opt", "lamp-1"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	d.OnAck("m1", true)
	// The entry is already gone; an overdue sweep finds nothing.
	s.now = func() time.Time { return time.Now().Add(time.Minute) }
	s.Sweep()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := handle.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if r.Err != nil || r.Response != "opt" {
		t.Errorf("Result = %+v, want the ack resolution", r)
	}
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	table := NewCorrelationTable()
	s := NewSweeper(table, nil, time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
