package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCorrelationTableAddTake(t *testing.T) {
	table := NewCorrelationTable()

	p := &PendingCommand{Key: "k1", Handle: NewResponseHandle(), CreatedAt: time.Now()}
	if err := table.Add(p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}

	got, ok := table.Take("k1")
	if !ok || got != p {
		t.Fatalf("Take = %v, %v; want original entry", got, ok)
	}

	// Removed on first resolution; a second take misses.
	if _, ok := table.Take("k1"); ok {
		t.Error("second Take should miss")
	}
	if table.Len() != 0 {
		t.Errorf("Len after Take = %d, want 0", table.Len())
	}
}

func TestCorrelationTableDuplicateKey(t *testing.T) {
	table := NewCorrelationTable()

	if err := table.Add(&PendingCommand{Key: "k1", Handle: NewResponseHandle()}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	err := table.Add(&PendingCommand{Key: "k1", Handle: NewResponseHandle()})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate Add = %v, want ErrDuplicateKey", err)
	}
}

func TestCorrelationTableExpire(t *testing.T) {
	table := NewCorrelationTable()
	base := time.Now()

	old := &PendingCommand{Key: "old", Handle: NewResponseHandle(), CreatedAt: base.Add(-7 * time.Second)}
	fresh := &PendingCommand{Key: "fresh", Handle: NewResponseHandle(), CreatedAt: base}
	for _, p := range []*PendingCommand{old, fresh} {
		if err := table.Add(p); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	expired := table.Expire(base.Add(-6 * time.Second))
	if len(expired) != 1 || expired[0].Key != "old" {
		t.Fatalf("Expire = %v, want only the old entry", expired)
	}
	if table.Len() != 1 {
		t.Errorf("Len after Expire = %d, want 1", table.Len())
	}
	if _, ok := table.Take("fresh"); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestResponseHandleResolveOnce(t *testing.T) {
	h := NewResponseHandle()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Resolve(Result{Response: i})
		}()
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := h.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if r.Response == nil {
		t.Error("Wait returned empty result")
	}

	// The losing resolutions must not queue a second result.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if _, err := h.Wait(ctx2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("second Wait = %v, want DeadlineExceeded", err)
	}
}

func TestResponseHandleWaitCancelled(t *testing.T) {
	h := NewResponseHandle()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait on cancelled context = %v, want Canceled", err)
	}
}
