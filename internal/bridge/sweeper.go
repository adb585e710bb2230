package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/voicelink/voicelink-core/internal/infrastructure/mqtt"
)

// Sweeper fails pending commands that have outlived the deadline. It
// runs on a fixed cadence independent of dispatch rate; a sweep over an
// empty table does no work beyond the tick.
//
// Together with OnAck this guarantees every dispatched command reaches
// exactly one terminal state: a command with no acknowledgement resolves
// as a timeout on the first tick at or past its deadline.
type Sweeper struct {
	table     *CorrelationTable
	publisher Publisher
	topics    mqtt.Topics
	interval  time.Duration
	deadline  time.Duration
	logger    Logger
	now       func() time.Time
}

// NewSweeper creates a sweeper over the given table. The publisher is
// used to push a timeout notification to the owning client; it may be
// nil in tests.
func NewSweeper(table *CorrelationTable, publisher Publisher, interval, deadline time.Duration) *Sweeper {
	return &Sweeper{
		table:     table,
		publisher: publisher,
		interval:  interval,
		deadline:  deadline,
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the sweeper.
func (s *Sweeper) SetLogger(logger Logger) {
	s.logger = logger
}

// Run sweeps on the configured cadence until the context is cancelled.
// Call in a dedicated goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep resolves every pending command older than the deadline with a
// timeout error and notifies the owning client.
func (s *Sweeper) Sweep() {
	cutoff := s.now().Add(-s.deadline)
	expired := s.table.Expire(cutoff)

	for _, p := range expired {
		p.Handle.Resolve(Result{Err: ErrCommandTimeout})
		s.logger.Warn("pending command timed out",
			"message_id", p.Key,
			"username", p.Username,
			"device_id", p.DeviceID,
			"vendor", p.Vendor)
		s.notify(p)
	}
}

// notify pushes a timeout notification to message/{username}/{deviceId}.
// Fire and forget; a failed notification is only logged.
func (s *Sweeper) notify(p *PendingCommand) {
	if s.publisher == nil {
		return
	}

	n := Notification{
		Severity: SeverityWarning,
		Message:  "device did not respond in time",
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}

	topic := s.topics.Notification(p.Username, p.DeviceID)
	if err := s.publisher.Publish(topic, payload, 0, false); err != nil {
		s.logger.Warn("timeout notification publish failed",
			"topic", topic,
			"error", err)
	}
}
