package bridge

import (
	"context"
	"sync"
	"time"
)

// Result is the terminal outcome of a dispatched command. Exactly one
// Result is delivered per PendingCommand.
type Result struct {
	// Response is the precomputed optimistic vendor response,
	// delivered on acknowledgement success.
	Response any

	// Err is ErrCommandFailed on a negative acknowledgement or
	// ErrCommandTimeout when the sweeper fired. Nil on success.
	Err error
}

// ResponseHandle delivers a Result to the waiting caller exactly once.
// Resolve may be called from the MQTT handler goroutine or the sweeper;
// only the first call wins.
type ResponseHandle struct {
	once sync.Once
	ch   chan Result
}

// NewResponseHandle creates an unresolved handle.
func NewResponseHandle() *ResponseHandle {
	return &ResponseHandle{ch: make(chan Result, 1)}
}

// Resolve delivers the result. Calls after the first are no-ops.
func (h *ResponseHandle) Resolve(r Result) {
	h.once.Do(func() {
		h.ch <- r
	})
}

// Wait blocks until the handle is resolved or the context is done.
func (h *ResponseHandle) Wait(ctx context.Context) (Result, error) {
	select {
	case r := <-h.ch:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// PendingCommand is an outstanding request awaiting acknowledgement or
// timeout.
type PendingCommand struct {
	Key      string
	Username string
	DeviceID string
	Vendor   string

	// Optimistic is the vendor response computed at translation time,
	// returned verbatim on acknowledgement success.
	Optimistic any

	Handle    *ResponseHandle
	CreatedAt time.Time
}

// CorrelationTable maps outstanding correlation keys to their
// PendingCommands. Entries are removed on first resolution and are
// never persisted; commands outstanding at restart are lost.
//
// All methods are safe for concurrent use.
type CorrelationTable struct {
	mu      sync.Mutex
	pending map[string]*PendingCommand
}

// NewCorrelationTable creates an empty table.
func NewCorrelationTable() *CorrelationTable {
	return &CorrelationTable{pending: make(map[string]*PendingCommand)}
}

// Add registers a pending command. Returns ErrDuplicateKey if the key
// is already outstanding.
func (t *CorrelationTable) Add(p *PendingCommand) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[p.Key]; exists {
		return ErrDuplicateKey
	}
	t.pending[p.Key] = p
	return nil
}

// Take removes and returns the pending command for a key. The second
// return is false when the key is unknown or already resolved.
func (t *CorrelationTable) Take(key string) (*PendingCommand, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending[key]
	if ok {
		delete(t.pending, key)
	}
	return p, ok
}

// Expire removes and returns every pending command created at or
// before the cutoff.
func (t *CorrelationTable) Expire(cutoff time.Time) []*PendingCommand {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []*PendingCommand
	for key, p := range t.pending {
		if !p.CreatedAt.After(cutoff) {
			delete(t.pending, key)
			expired = append(expired, p)
		}
	}
	return expired
}

// Len returns the number of outstanding commands.
func (t *CorrelationTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
