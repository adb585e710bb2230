package bridge

import (
	"encoding/json"
	"time"

	"github.com/voicelink/voicelink-core/internal/infrastructure/mqtt"
)

// Publisher is the transport surface the dispatcher needs. Satisfied
// by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the logging interface used by the bridge package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// commandQoS is the delivery level for canonical commands. At least
// once: a duplicated command is idempotent at the device, a lost one
// would always time out.
const commandQoS = 1

// Dispatcher publishes canonical commands and resolves their
// asynchronous acknowledgements through the CorrelationTable.
type Dispatcher struct {
	table     *CorrelationTable
	publisher Publisher
	topics    mqtt.Topics
	logger    Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher over the given table and transport.
func NewDispatcher(table *CorrelationTable, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		table:     table,
		publisher: publisher,
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch registers a pending command and publishes the canonical
// command to the device's command topic.
//
// Registration happens before the publish so an acknowledgement that
// races the network round-trip still finds its table entry. A publish
// failure is logged but leaves the registration standing: the request
// then resolves through the uniform timeout path instead of hanging.
func (d *Dispatcher) Dispatch(username string, cmd Command, vendor string, handle *ResponseHandle, optimistic any, deviceID string) error {
	pending := &PendingCommand{
		Key:        cmd.MessageID,
		Username:   username,
		DeviceID:   deviceID,
		Vendor:     vendor,
		Optimistic: optimistic,
		Handle:     handle,
		CreatedAt:  d.now(),
	}

	if err := d.table.Add(pending); err != nil {
		return err
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		// Unmarshalable payloads never reach the wire; resolve the
		// entry immediately rather than leaving it to time out.
		d.table.Take(cmd.MessageID)
		return err
	}

	topic := d.topics.Command(username, deviceID)
	if err := d.publisher.Publish(topic, payload, commandQoS, false); err != nil {
		d.logger.Warn("command publish failed, awaiting timeout",
			"topic", topic,
			"message_id", cmd.MessageID,
			"error", err)
	} else {
		d.logger.Debug("command dispatched",
			"topic", topic,
			"message_id", cmd.MessageID,
			"capability", cmd.Capability,
			"operation", cmd.Operation)
	}

	return nil
}

// OnAck resolves the pending command for a correlation key. Unknown or
// already-resolved keys are a no-op: the device may have answered after
// the sweeper fired, or sent a duplicate acknowledgement.
func (d *Dispatcher) OnAck(key string, success bool) {
	pending, ok := d.table.Take(key)
	if !ok {
		d.logger.Debug("acknowledgement for unknown key dropped", "message_id", key)
		return
	}

	if success {
		pending.Handle.Resolve(Result{Response: pending.Optimistic})
	} else {
		pending.Handle.Resolve(Result{Err: ErrCommandFailed})
	}

	d.logger.Debug("command acknowledged",
		"message_id", key,
		"device_id", pending.DeviceID,
		"success", success)
}
