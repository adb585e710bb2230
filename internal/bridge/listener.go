package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voicelink/voicelink-core/internal/infrastructure/mqtt"
)

// Subscriber is the transport surface the listener needs. Satisfied by
// *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Listener routes inbound transport messages: acknowledgements on
// response/# to the dispatcher, device state reports on state/# to the
// mutator. Malformed messages and unrecognised topics are logged and
// dropped, never fatal.
type Listener struct {
	dispatcher *Dispatcher
	mutator    *Mutator
	topics     mqtt.Topics
	logger     Logger
}

// NewListener creates a listener routing to the given dispatcher and
// mutator.
func NewListener(dispatcher *Dispatcher, mutator *Mutator) *Listener {
	return &Listener{
		dispatcher: dispatcher,
		mutator:    mutator,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the listener.
func (l *Listener) SetLogger(logger Logger) {
	l.logger = logger
}

// Start subscribes to the acknowledgement and state channels. The
// subscriptions are tracked by the client and restored on reconnect.
func (l *Listener) Start(sub Subscriber) error {
	if err := sub.Subscribe(l.topics.AllResponses(), commandQoS, l.HandleResponse); err != nil {
		return fmt.Errorf("subscribing to responses: %w", err)
	}
	if err := sub.Subscribe(l.topics.AllStates(), commandQoS, l.HandleState); err != nil {
		return fmt.Errorf("subscribing to states: %w", err)
	}
	return nil
}

// HandleResponse processes one acknowledgement message.
func (l *Listener) HandleResponse(topic string, payload []byte) error {
	if _, err := mqtt.ParseDeviceTopic(topic); err != nil {
		l.logger.Warn("acknowledgement on unrecognised topic dropped", "topic", topic)
		return nil
	}

	var ack Ack
	if err := json.Unmarshal(payload, &ack); err != nil {
		l.logger.Warn("malformed acknowledgement dropped", "topic", topic, "error", err)
		return nil
	}
	if ack.MessageID == "" {
		l.logger.Warn("acknowledgement without messageId dropped", "topic", topic)
		return nil
	}

	l.dispatcher.OnAck(ack.MessageID, ack.Success)
	return nil
}

// HandleState processes one device state report.
func (l *Listener) HandleState(topic string, payload []byte) error {
	parsed, err := mqtt.ParseDeviceTopic(topic)
	if err != nil {
		l.logger.Warn("state report on unrecognised topic dropped", "topic", topic)
		return nil
	}

	var msg StateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warn("malformed state report dropped", "topic", topic, "error", err)
		return nil
	}

	l.mutator.SetState(context.Background(), parsed.Username, parsed.DeviceID, msg.Payload)
	return nil
}
